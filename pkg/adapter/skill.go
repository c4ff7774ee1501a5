package adapter

import (
	"fmt"
	"path"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/target"
)

// compileSkill renders a Skill's SKILL.md plus its supplementals under
// `<projectDir>/<id>/…` (project scope) or `~/<userDir>/<id>/…` (user
// scope), tagged with t. Shared by every Skill-capable adapter (spec §4.3
// "Skill compilation"); adapters differ only in their directory root, and
// Cursor deliberately passes Claude's directory root to satisfy the
// skill-sharing cross-adapter rule (spec §4.3 rule 2).
func compileSkill(a *asset.Asset, t target.Target, footer string, projectDir, userDir string) ([]*asset.OutputFile, []*asset.BinaryOutputFile, error) {
	var root string
	if a.Scope.String() == "user" {
		root = "~/" + userDir + "/" + a.ID
	} else {
		root = projectDir + "/" + a.ID
	}

	manifest, err := renderSkillManifest(a, footer)
	if err != nil {
		return nil, nil, &CompilationError{Adapter: string(t), AssetID: a.ID, Message: err.Error()}
	}

	outputs := []*asset.OutputFile{
		asset.NewOutputFile(path.Join(root, "SKILL.md"), manifest, t),
	}
	for relPath, content := range a.Supplementals {
		if err := validateSkillSupplementalPath(relPath); err != nil {
			return nil, nil, &CompilationError{Adapter: string(t), AssetID: a.ID, Message: err.Error()}
		}
		outputs = append(outputs, asset.NewOutputFile(path.Join(root, relPath), content, t))
	}

	var binaries []*asset.BinaryOutputFile
	for relPath, content := range a.BinarySupplementals {
		if err := validateSkillSupplementalPath(relPath); err != nil {
			return nil, nil, &CompilationError{Adapter: string(t), AssetID: a.ID, Message: err.Error()}
		}
		binaries = append(binaries, asset.NewBinaryOutputFile(path.Join(root, relPath), content, t))
	}

	return outputs, binaries, nil
}

func validateSkillSupplementalPath(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("supplemental has empty path")
	}
	clean := path.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("supplemental path %q escapes the skill directory", relPath)
	}
	return nil
}
