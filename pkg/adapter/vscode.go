package adapter

import (
	"path"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/target"
)

// VSCode renders Policy assets only, as Copilot-style instruction files.
// VS Code has no user-scope equivalent for instructions in this design: a
// User-scoped Policy targeting VSCode compiles to nothing (spec §6 marks
// the user path "adapter-defined").
type VSCode struct {
	BaseAdapter
}

func NewVSCode() *VSCode {
	return &VSCode{BaseAdapter: NewBaseAdapter(target.VSCode)}
}

func (v *VSCode) Compile(a *asset.Asset) ([]*asset.OutputFile, error) {
	if a.Kind != asset.Policy {
		return nil, nil
	}
	if a.Scope == scope.User {
		return nil, nil
	}
	footer := v.Footer(a.SourcePathNormalized())
	dest := path.Join(".github", "instructions", a.ID+".instructions.md")
	return []*asset.OutputFile{asset.NewOutputFile(dest, renderDoc(a, footer), target.VSCode)}, nil
}
