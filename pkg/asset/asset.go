// Package asset defines Calvin's core domain entities: the source Asset
// parsed from a promptpack, and the OutputFile / BinaryOutputFile artifacts
// an adapter compiles it into (spec §3).
package asset

import (
	"fmt"
	"strings"

	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/target"
)

// Kind classifies an asset and controls routing in adapters.
type Kind string

const (
	Policy Kind = "policy"
	Action Kind = "action"
	Agent  Kind = "agent"
	Skill  Kind = "skill"
)

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	switch k {
	case Policy, Action, Agent, Skill:
		return true
	default:
		return false
	}
}

// Provenance records where an asset came from, propagated into OutputFile
// and then the lockfile entry once compiled (spec §3 "Provenance").
type Provenance struct {
	SourceLayer     string
	SourceLayerPath string
	SourcePath      string // relative to the layer root, forward-slashed
}

// Asset is an immutable source unit parsed from a promptpack: a policy,
// action, agent, or skill, plus its frontmatter-derived metadata.
type Asset struct {
	ID          string
	Kind        Kind
	Scope       scope.Scope
	Targets     []target.Target // raw frontmatter value; empty or [All] means "all concrete"
	Description string
	Content     string
	Apply       string // optional glob forwarded to path-scoped adapters
	AllowedTools []string // Skills only

	// Supplementals are only populated for Skill assets: files alongside
	// SKILL.md, keyed by their path relative to the skill directory, always
	// forward-slashed.
	Supplementals       map[string]string
	BinarySupplementals map[string][]byte

	// Overrides names the layer whose same-ID asset this one replaced
	// during layer merge (spec §4.2), empty when this asset was not an
	// override.
	Overrides string

	Provenance Provenance
}

// EffectiveTargets expands empty/All frontmatter targets to the full
// concrete target list (spec §4.1).
func (a *Asset) EffectiveTargets() []target.Target {
	return target.Expand(a.Targets)
}

// SourcePathNormalized returns the asset's source path with forward
// slashes, suitable for embedding in a footer or lockfile provenance field.
func (a *Asset) SourcePathNormalized() string {
	return strings.ReplaceAll(a.Provenance.SourcePath, "\\", "/")
}

// Validate checks the invariants spec §3 attaches to every Asset:
// recognized kind/scope, and for Skills, that supplemental paths never
// escape the skill directory and never shadow SKILL.md.
func (a *Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset has empty id (source %s)", a.Provenance.SourcePath)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("asset %q: invalid kind %q", a.ID, a.Kind)
	}
	if !a.Scope.Valid() {
		return fmt.Errorf("asset %q: invalid scope %q", a.ID, a.Scope)
	}
	if a.Kind != Skill {
		if len(a.Supplementals) > 0 || len(a.BinarySupplementals) > 0 {
			return fmt.Errorf("asset %q: supplementals are only valid on skills", a.ID)
		}
		return nil
	}
	for p := range a.Supplementals {
		if err := validateSupplementalPath(a.ID, p); err != nil {
			return err
		}
	}
	for p := range a.BinarySupplementals {
		if err := validateSupplementalPath(a.ID, p); err != nil {
			return err
		}
	}
	return nil
}

func validateSupplementalPath(assetID, p string) error {
	if p == "" {
		return fmt.Errorf("skill %q: supplemental has empty path", assetID)
	}
	if strings.Contains(p, "..") {
		return fmt.Errorf("skill %q: supplemental path %q escapes the skill directory", assetID, p)
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "~") {
		return fmt.Errorf("skill %q: supplemental path %q must be relative", assetID, p)
	}
	if len(p) > 1 && p[1] == ':' {
		return fmt.Errorf("skill %q: supplemental path %q carries a volume prefix", assetID, p)
	}
	if strings.EqualFold(p, "SKILL.md") {
		return fmt.Errorf("skill %q: supplemental may not use the reserved name SKILL.md", assetID)
	}
	return nil
}

// IsBinaryContent reports whether content should be treated as binary: any
// NUL byte present (spec §3 invariant iv).
func IsBinaryContent(content []byte) bool {
	for _, b := range content {
		if b == 0x00 {
			return true
		}
	}
	return false
}
