package adapter

import (
	"path"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/target"
)

// Codex renders every kind into .codex/prompts, with Action/Agent prompts
// carrying a trailing $ARGUMENTS placeholder that Policy prompts omit, plus
// Skills under .codex/skills (spec §6 path matrix).
type Codex struct {
	BaseAdapter
}

func NewCodex() *Codex {
	return &Codex{BaseAdapter: NewBaseAdapter(target.Codex)}
}

func (c *Codex) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	footer := c.Footer(a.SourcePathNormalized())

	switch a.Kind {
	case asset.Policy:
		dest := basePath(a, path.Join(".codex", "prompts", a.ID+".md"), path.Join(".codex", "prompts", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderCommand(a, footer, false), target.Codex)}, nil
	case asset.Action, asset.Agent:
		dest := basePath(a, path.Join(".codex", "prompts", a.ID+".md"), path.Join(".codex", "prompts", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderCommand(a, footer, true), target.Codex)}, nil
	case asset.Skill:
		outputs, _, err := compileSkill(a, target.Codex, footer, path.Join(".codex", "skills"), path.Join(".codex", "skills"))
		return outputs, err
	default:
		return nil, nil
	}
}

func (c *Codex) CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error) {
	if a.Kind != asset.Skill {
		return nil, nil
	}
	footer := c.Footer(a.SourcePathNormalized())
	_, binaries, err := compileSkill(a, target.Codex, footer, path.Join(".codex", "skills"), path.Join(".codex", "skills"))
	return binaries, err
}
