package adapter

import (
	"path"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/target"
)

// Antigravity renders Policy assets as rules and Action/Agent assets as
// workflows. It does not support Skills (spec §6 path matrix).
type Antigravity struct {
	BaseAdapter
}

func NewAntigravity() *Antigravity {
	return &Antigravity{BaseAdapter: NewBaseAdapter(target.Antigravity)}
}

func (g *Antigravity) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	footer := g.Footer(a.SourcePathNormalized())

	switch a.Kind {
	case asset.Policy:
		dest := basePath(a,
			path.Join(".agent", "rules", a.ID+".md"),
			path.Join(".gemini", "antigravity", "global_rules", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.Antigravity)}, nil
	case asset.Action, asset.Agent:
		dest := basePath(a,
			path.Join(".agent", "workflows", a.ID+".md"),
			path.Join(".gemini", "antigravity", "global_workflows", a.ID+".md"))
		return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.Antigravity)}, nil
	default:
		return nil, nil
	}
}
