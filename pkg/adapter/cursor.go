package adapter

import (
	"path"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/target"
)

// Cursor renders Policy assets as rules and Skills by reusing Claude Code's
// skill path, per the skill-sharing cross-adapter rule (spec §4.3 rule 2).
// Action/Agent assets are not compiled directly here: the Cursor-fallback
// compiler rule (spec §4.3 rule 1) covers them when Cursor is enabled
// without Claude Code.
type Cursor struct {
	BaseAdapter
}

func NewCursor() *Cursor {
	return &Cursor{BaseAdapter: NewBaseAdapter(target.Cursor)}
}

func (c *Cursor) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	footer := c.Footer(a.SourcePathNormalized())

	switch a.Kind {
	case asset.Policy:
		dest := basePath(a, path.Join(".cursor", "rules", a.ID, "RULE.md"), path.Join(".cursor", "rules", a.ID, "RULE.md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.Cursor)}, nil
	case asset.Skill:
		outputs, _, err := compileSkill(a, target.Cursor, footer, path.Join(".claude", "skills"), path.Join(".claude", "skills"))
		return outputs, err
	default:
		return nil, nil
	}
}

func (c *Cursor) CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error) {
	if a.Kind != asset.Skill {
		return nil, nil
	}
	footer := c.Footer(a.SourcePathNormalized())
	_, binaries, err := compileSkill(a, target.Cursor, footer, path.Join(".claude", "skills"), path.Join(".claude", "skills"))
	return binaries, err
}

// CommandFallbackPath is the destination the compiler writes to when the
// Cursor-fallback rule fires for an Action/Agent asset (spec §4.3 rule 1,
// §4.4 step 3): Cursor normally reads commands from Claude Code's location.
func CommandFallbackPath(a *asset.Asset) string {
	return basePath(a, path.Join(".cursor", "commands", a.ID+".md"), path.Join(".cursor", "commands", a.ID+".md"))
}
