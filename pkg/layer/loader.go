// Package layer loads promptpack layers from disk into Asset lists and
// merges a precedence-ordered stack of layers into one (spec §4.2).
package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/logger"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/stringutil"
	"github.com/calvin-dev/calvin/pkg/target"
)

var log = logger.New("layer:loader")

// Layer is one resolved promptpack layer: its name (for override warnings
// and provenance), its root path, and the assets it contributed.
type Layer struct {
	Name   string
	Root   string
	Assets []*asset.Asset
}

// Load reads one layer directory: every non-ignored top-level *.md file as
// a simple asset, plus every immediate subdirectory of skills/ as a Skill
// (spec §4.2 "Per-layer load"). name identifies the layer in override
// warnings and lockfile provenance (e.g. "user", "project", or an
// additional layer's base name).
func Load(name, root string) (*Layer, error) {
	matcher, err := loadIgnoreMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return &Layer{Name: name, Root: root}, nil
		}
		return nil, fmt.Errorf("layer %q: reading %s: %w", name, root, err)
	}

	seen := make(map[string]bool)
	var assets []*asset.Asset

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("layer %q: asset %q is a symlink, which is not allowed", name, e.Name())
		}
		relPath := e.Name()
		if matcher.Matches(relPath) {
			continue
		}
		a, err := loadAssetFile(name, root, relPath)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", name, err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("layer %q: duplicate asset id %q", name, a.ID)
		}
		seen[a.ID] = true
		assets = append(assets, a)
	}

	skillsRoot := filepath.Join(root, constants.SkillsDirName)
	skillDirs, err := os.ReadDir(skillsRoot)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("layer %q: reading %s: %w", name, skillsRoot, err)
	}
	for _, d := range skillDirs {
		if d.Type()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("layer %q: skill directory %q is a symlink, which is not allowed", name, d.Name())
		}
		if !d.IsDir() {
			continue
		}
		a, err := loadSkill(name, root, d.Name())
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", name, err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("layer %q: duplicate asset id %q", name, a.ID)
		}
		seen[a.ID] = true
		assets = append(assets, a)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Provenance.SourcePath < assets[j].Provenance.SourcePath
	})

	log.Printf("layer %q: loaded %d assets from %s", name, len(assets), root)
	return &Layer{Name: name, Root: root, Assets: assets}, nil
}

func loadAssetFile(layerName, root, relPath string) (*asset.Asset, error) {
	full := filepath.Join(root, relPath)
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", full, err)
	}
	if asset.IsBinaryContent(raw) {
		return nil, fmt.Errorf("%s: asset content must be text, found binary data", full)
	}

	fm, body, err := parseFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", full, err)
	}

	id := stringutil.DeriveAssetID(filepath.Base(relPath))
	if !stringutil.ValidAssetID(id) {
		return nil, fmt.Errorf("%s: %q is not a valid asset id (lowercase letters, digits, hyphens)", full, id)
	}

	kind := asset.Kind(fm.Kind)
	if kind == "" {
		kind = asset.Action
	}

	sc, err := scope.Parse(fm.Scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", full, err)
	}

	rawTargets, err := targetStrings(fm.Targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", full, err)
	}
	targets, err := target.ParseList(rawTargets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", full, err)
	}

	if fm.Description == "" {
		return nil, fmt.Errorf("%s: missing required frontmatter field \"description\"", full)
	}

	a := &asset.Asset{
		ID:           id,
		Kind:         kind,
		Scope:        sc,
		Targets:      targets,
		Description:  fm.Description,
		Content:      strings.TrimSpace(body),
		Apply:        fm.Apply,
		AllowedTools: fm.AllowedTools,
		Provenance: asset.Provenance{
			SourceLayer:     layerName,
			SourceLayerPath: root,
			SourcePath:      filepath.ToSlash(relPath),
		},
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func loadSkill(layerName, root, id string) (*asset.Asset, error) {
	if !stringutil.ValidAssetID(id) {
		return nil, fmt.Errorf("skills/%s: %q is not a valid skill id", id, id)
	}
	skillRoot := filepath.Join(root, constants.SkillsDirName, id)
	manifestPath := filepath.Join(skillRoot, constants.SkillManifestName)

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("skills/%s: missing required %s", id, constants.SkillManifestName)
		}
		return nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}

	fm, body, err := parseFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if fm.Description == "" {
		return nil, fmt.Errorf("%s: missing required frontmatter field \"description\"", manifestPath)
	}

	sc, err := scope.Parse(fm.Scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	rawTargets, err := targetStrings(fm.Targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	targets, err := target.ParseList(rawTargets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	supplementals := make(map[string]string)
	binarySupplementals := make(map[string][]byte)

	walkErr := filepath.WalkDir(skillRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == skillRoot {
			return nil
		}
		rel, relErr := filepath.Rel(skillRoot, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if strings.HasPrefix(filepath.Base(p), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info, statErr := os.Lstat(p); statErr == nil && info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("supplemental %q is a symlink, which is not allowed", rel)
		}
		if d.IsDir() {
			return nil
		}
		if rel == constants.SkillManifestName {
			return nil
		}

		content, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		if asset.IsBinaryContent(content) {
			binarySupplementals[rel] = content
		} else {
			supplementals[rel] = string(content)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("skills/%s: %w", id, walkErr)
	}

	a := &asset.Asset{
		ID:                  id,
		Kind:                asset.Skill,
		Scope:               sc,
		Targets:             targets,
		Description:         fm.Description,
		Content:             strings.TrimSpace(body),
		AllowedTools:        fm.AllowedTools,
		Supplementals:       supplementals,
		BinarySupplementals: binarySupplementals,
		Provenance: asset.Provenance{
			SourceLayer:     layerName,
			SourceLayerPath: root,
			SourcePath:      filepath.ToSlash(filepath.Join(constants.SkillsDirName, id, constants.SkillManifestName)),
		},
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
