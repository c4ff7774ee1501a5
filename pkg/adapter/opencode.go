package adapter

import (
	"path"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/target"
)

// OpenCode renders Action and Agent assets under .opencode, Skills under
// .opencode/skill, and aggregates every Policy asset into an AGENTS.md per
// enabled scope instead of compiling them individually (spec §6 path
// matrix, §4.4 step 4).
type OpenCode struct {
	BaseAdapter
}

func NewOpenCode() *OpenCode {
	return &OpenCode{BaseAdapter: NewBaseAdapter(target.OpenCode)}
}

func (o *OpenCode) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	footer := o.Footer(a.SourcePathNormalized())

	switch a.Kind {
	case asset.Action:
		dest := basePath(a,
			path.Join(".opencode", "command", a.ID+".md"),
			path.Join(".config", "opencode", "command", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.OpenCode)}, nil
	case asset.Agent:
		dest := basePath(a,
			path.Join(".opencode", "agent", a.ID+".md"),
			path.Join(".config", "opencode", "agent", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.OpenCode)}, nil
	case asset.Skill:
		outputs, _, err := compileSkill(a, target.OpenCode, footer,
			path.Join(".opencode", "skill"), path.Join(".config", "opencode", "skill"))
		return outputs, err
	default:
		// Policy assets are aggregated in PostCompile, not compiled here.
		return nil, nil
	}
}

func (o *OpenCode) CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error) {
	if a.Kind != asset.Skill {
		return nil, nil
	}
	footer := o.Footer(a.SourcePathNormalized())
	_, binaries, err := compileSkill(a, target.OpenCode, footer,
		path.Join(".opencode", "skill"), path.Join(".config", "opencode", "skill"))
	return binaries, err
}

// PostCompile aggregates every Policy asset targeting OpenCode into one
// AGENTS.md per scope that has at least one such asset (spec §4.4 step 4).
func (o *OpenCode) PostCompile(assets []*asset.Asset) ([]*asset.OutputFile, error) {
	var projectPolicies, userPolicies []*asset.Asset
	for _, a := range assets {
		if a.Kind != asset.Policy {
			continue
		}
		if !hasTarget(a, target.OpenCode) {
			continue
		}
		if a.Scope == scope.User {
			userPolicies = append(userPolicies, a)
		} else {
			projectPolicies = append(projectPolicies, a)
		}
	}

	var outputs []*asset.OutputFile
	if len(projectPolicies) > 0 {
		outputs = append(outputs, asset.NewOutputFile("AGENTS.md", renderAgentsMD(projectPolicies, o), target.OpenCode))
	}
	if len(userPolicies) > 0 {
		dest := path.Join(".config", "opencode", "AGENTS.md")
		outputs = append(outputs, asset.NewOutputFile("~/"+dest, renderAgentsMD(userPolicies, o), target.OpenCode))
	}
	return outputs, nil
}

func hasTarget(a *asset.Asset, t target.Target) bool {
	for _, et := range a.EffectiveTargets() {
		if et == t {
			return true
		}
	}
	return false
}

func renderAgentsMD(policies []*asset.Asset, o *OpenCode) string {
	var b strings.Builder
	b.WriteString("# Agent instructions\n\n")
	for _, a := range policies {
		b.WriteString("## ")
		b.WriteString(a.ID)
		b.WriteString("\n\n")
		if a.Description != "" {
			b.WriteString(a.Description)
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(a.Content))
		b.WriteString("\n\n")
	}
	b.WriteString(o.Footer("AGENTS.md (aggregated)"))
	b.WriteString("\n")
	return b.String()
}
