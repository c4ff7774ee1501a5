// Package compiler implements Calvin's compiler service: adapter dispatch
// over an asset stream plus the Cursor-fallback-commands cross-adapter
// rule (spec §4.4). Skill sharing with Claude Code is done inside the
// Cursor adapter, not here.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calvin-dev/calvin/pkg/adapter"
	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/logger"
	"github.com/calvin-dev/calvin/pkg/target"
)

var log = logger.New("compiler")

// Error wraps an adapter failure with the adapter and asset that caused it
// (spec §4.4 "Error propagation").
type Error struct {
	Adapter string
	AssetID string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("adapter %s failed on asset %q: %s", e.Adapter, e.AssetID, e.Message)
}

// Result is the outcome of a single Compile call.
type Result struct {
	Outputs     []*asset.OutputFile
	Binaries    []*asset.BinaryOutputFile
	Diagnostics []adapter.Diagnostic
}

// Service dispatches assets to the adapters whose target is enabled, and
// applies the Cursor-fallback-commands cross-adapter rule (spec §4.4).
type Service struct {
	adapters []adapter.TargetAdapter
}

// New returns a compiler service over the given adapters, normally the full
// set of six concrete-target adapters.
func New(adapters []adapter.TargetAdapter) *Service {
	return &Service{adapters: adapters}
}

// Adapters returns the configured adapter list.
func (s *Service) Adapters() []adapter.TargetAdapter {
	return s.adapters
}

// activeAdapters returns the adapters whose target is in the requested set,
// expanding empty/[All] to every configured adapter (spec §4.4 step 1).
func (s *Service) activeAdapters(targets []target.Target) []adapter.TargetAdapter {
	if len(targets) == 0 {
		return s.adapters
	}
	for _, t := range targets {
		if t == target.All {
			return s.adapters
		}
	}
	var out []adapter.TargetAdapter
	for _, a := range s.adapters {
		if target.Contains(targets, a.Target()) {
			out = append(out, a)
		}
	}
	return out
}

// cursorNeedsCommands reports whether the Cursor-fallback rule fires: the
// enabled-target set contains Cursor but not ClaudeCode (spec §4.3 rule 1).
// An empty or [All] target set always includes ClaudeCode, so the rule
// never fires in that case.
func cursorNeedsCommands(targets []target.Target) bool {
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if t == target.All {
			return false
		}
	}
	return target.Contains(targets, target.Cursor) && !target.Contains(targets, target.ClaudeCode)
}

// Compile fans assets out to every active adapter whose target intersects
// each asset's effective targets, applies the Cursor-fallback rule, then
// runs every active adapter's PostCompile, and stable-sorts the combined
// output by destination path (spec §4.4 steps 1-5).
func (s *Service) Compile(assets []*asset.Asset, targets []target.Target) (*Result, error) {
	active := s.activeAdapters(targets)
	fallback := cursorNeedsCommands(targets)

	var outputs []*asset.OutputFile
	var binaries []*asset.BinaryOutputFile
	var diags []adapter.Diagnostic

	for _, a := range assets {
		effective := a.EffectiveTargets()

		for _, ad := range active {
			if !target.Contains(effective, ad.Target()) {
				continue
			}

			compiled, err := ad.Compile(a)
			if err != nil {
				return nil, wrapError(ad, a, err)
			}
			outputs = append(outputs, compiled...)
			for _, o := range compiled {
				diags = append(diags, ad.Validate(o)...)
			}

			binariesOut, err := ad.CompileBinary(a)
			if err != nil {
				return nil, wrapError(ad, a, err)
			}
			binaries = append(binaries, binariesOut...)

			if ad.Target() == target.Cursor && fallback &&
				(a.Kind == asset.Action || a.Kind == asset.Agent) {
				footer := ad.Footer(a.SourcePathNormalized())
				dest := adapter.CommandFallbackPath(a)
				content := cursorCommandContent(a, footer)
				outputs = append(outputs, asset.NewOutputFile(dest, content, target.Cursor))
			}
		}
	}

	for _, ad := range active {
		postOutputs, err := ad.PostCompile(assets)
		if err != nil {
			return nil, &Error{Adapter: string(ad.Target()), AssetID: "", Message: fmt.Sprintf("post-compile: %v", err)}
		}
		outputs = append(outputs, postOutputs...)
	}

	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].Path() < outputs[j].Path()
	})
	sort.SliceStable(binaries, func(i, j int) bool {
		return binaries[i].Path() < binaries[j].Path()
	})

	log.Printf("compiled %d assets into %d outputs, %d binaries, %d diagnostics",
		len(assets), len(outputs), len(binaries), len(diags))

	return &Result{Outputs: outputs, Binaries: binaries, Diagnostics: diags}, nil
}

func wrapError(ad adapter.TargetAdapter, a *asset.Asset, err error) *Error {
	return &Error{Adapter: string(ad.Target()), AssetID: a.ID, Message: err.Error()}
}

// cursorCommandContent renders the Cursor-fallback command body: the
// asset's description (if non-empty) as the first line, then the trimmed
// content, then the footer (spec §4.4 step 3).
func cursorCommandContent(a *asset.Asset, footer string) string {
	trimmedContent := strings.TrimSpace(a.Content)
	if a.Description != "" {
		return a.Description + "\n\n" + trimmedContent + "\n\n" + footer + "\n"
	}
	return trimmedContent + "\n\n" + footer + "\n"
}

// DefaultAdapters returns the six concrete target adapters in the order the
// path matrix and post-compile aggregation expect (spec §4.3/§4.4).
func DefaultAdapters() []adapter.TargetAdapter {
	return []adapter.TargetAdapter{
		adapter.NewClaudeCode(),
		adapter.NewCursor(),
		adapter.NewVSCode(),
		adapter.NewAntigravity(),
		adapter.NewCodex(),
		adapter.NewOpenCode(),
	}
}
