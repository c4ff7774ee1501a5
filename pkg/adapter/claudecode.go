package adapter

import (
	"path"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/target"
)

// ClaudeCode renders Policy/Action/Agent assets as command files under
// .claude/commands and Skills under .claude/skills (spec §6 path matrix).
type ClaudeCode struct {
	BaseAdapter
}

func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{BaseAdapter: NewBaseAdapter(target.ClaudeCode)}
}

func (c *ClaudeCode) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	footer := c.Footer(a.SourcePathNormalized())

	switch a.Kind {
	case asset.Policy, asset.Action, asset.Agent:
		dest := basePath(a, path.Join(".claude", "commands", a.ID+".md"), path.Join(".claude", "commands", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.ClaudeCode)}, nil
	case asset.Skill:
		outputs, _, err := compileSkill(a, target.ClaudeCode, footer, path.Join(".claude", "skills"), path.Join(".claude", "skills"))
		return outputs, err
	default:
		return nil, nil
	}
}

func (c *ClaudeCode) CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error) {
	if a.Kind != asset.Skill {
		return nil, nil
	}
	footer := c.Footer(a.SourcePathNormalized())
	_, binaries, err := compileSkill(a, target.ClaudeCode, footer, path.Join(".claude", "skills"), path.Join(".claude", "skills"))
	return binaries, err
}

// SecurityBaseline emits .claude/settings.json's deny-glob list for the
// given policy. Yolo mode emits nothing (spec §4.3 "security_baseline").
func (c *ClaudeCode) SecurityBaseline(policy security.Policy) []*asset.OutputFile {
	patterns := policy.RequiredDenyPatterns()
	if len(patterns) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("{\n  \"permissions\": {\n    \"deny\": [\n")
	for i, p := range patterns {
		b.WriteString("      \"Read(")
		b.WriteString(p)
		b.WriteString(")\"")
		if i < len(patterns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("    ]\n  }\n}\n")

	return []*asset.OutputFile{
		asset.NewOutputFile(path.Join(".claude", "settings.json"), b.String(), target.ClaudeCode),
	}
}
