// Package adapter implements Calvin's per-platform compilation targets: one
// TargetAdapter per AI coding assistant, each turning Assets into the
// platform's own configuration file layout (spec §4.3).
package adapter

import (
	"fmt"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/target"
)

// TargetAdapter is the capability set every platform adapter implements
// (spec §4.3).
type TargetAdapter interface {
	Target() target.Target
	Compile(a *asset.Asset) ([]*asset.OutputFile, error)
	PostCompile(assets []*asset.Asset) ([]*asset.OutputFile, error)
	CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error)
	Validate(o *asset.OutputFile) []Diagnostic
	SecurityBaseline(policy security.Policy) []*asset.OutputFile
	Footer(sourcePath string) string
}

// Severity classifies a Diagnostic. The shared validate() rules emit only
// Warning diagnostics; deploy.Run copies Warning diagnostics into its
// result warnings and never treats a diagnostic as fatal (spec §4.3
// "Validation").
type Severity string

const (
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Diagnostic is one validate() finding against a compiled OutputFile.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// CompilationError is returned by Compile/CompileBinary when an asset
// cannot be rendered for this adapter (spec §4.3
// "AdapterError::CompilationFailed").
type CompilationError struct {
	Adapter string
	AssetID string
	Message string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s: failed to compile asset %q: %s", e.Adapter, e.AssetID, e.Message)
}

// BaseAdapter provides the footer and validate() behavior shared by every
// concrete adapter, mirroring the teacher's BaseEngine embedding pattern
// (pkg/workflow/agentic_engine.go): small adapter-specific types embed this
// and override only what differs.
type BaseAdapter struct {
	target target.Target
}

func NewBaseAdapter(t target.Target) BaseAdapter {
	return BaseAdapter{target: t}
}

func (b BaseAdapter) Target() target.Target { return b.target }

// Footer renders the stable Calvin signature every text output must carry
// (spec §4.3 "footer", §4.6 "Calvin signature").
func (b BaseAdapter) Footer(sourcePath string) string {
	return constants.FooterPrefix + sourcePath + constants.FooterSuffix
}

// Validate runs the shared diagnostic rules (spec §4.3 "Validation"):
// empty content, dangerous tool names in Skill output, and undocumented
// named placeholders.
func (b BaseAdapter) Validate(o *asset.OutputFile) []Diagnostic {
	return validateOutput(o)
}

// PostCompile and SecurityBaseline default to empty; adapters that
// aggregate (OpenCode's AGENTS.md) or emit baselines override these.
func (b BaseAdapter) PostCompile(assets []*asset.Asset) ([]*asset.OutputFile, error) {
	return nil, nil
}

func (b BaseAdapter) SecurityBaseline(policy security.Policy) []*asset.OutputFile {
	return nil
}

func (b BaseAdapter) CompileBinary(a *asset.Asset) ([]*asset.BinaryOutputFile, error) {
	return nil, nil
}
