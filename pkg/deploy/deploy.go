// Package deploy implements Calvin's deploy use case: the orchestrator
// tying together layer loading, compilation, sync, orphan detection, and
// the lockfile/registry updates that follow a successful run (spec §4.7).
package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calvin-dev/calvin/pkg/adapter"
	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/compiler"
	"github.com/calvin-dev/calvin/pkg/config"
	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/events"
	"github.com/calvin-dev/calvin/pkg/fsport"
	"github.com/calvin-dev/calvin/pkg/layer"
	"github.com/calvin-dev/calvin/pkg/lockfile"
	"github.com/calvin-dev/calvin/pkg/logger"
	"github.com/calvin-dev/calvin/pkg/orphan"
	"github.com/calvin-dev/calvin/pkg/registry"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/sync"
	"github.com/calvin-dev/calvin/pkg/target"
)

var log = logger.New("deploy")

// Env bundles everything the orchestrator needs beyond the recognized
// DeployOptions fields themselves: the home directory ("~" expansion and
// the default user layer / registry locations), the event sink, the
// conflict resolver for Stage 2, and an optional remote destination
// ("user@host") consulted only when opts.RemoteMode is set. RegistryPath
// overrides the default "~/.calvin/registry.toml" location (spec §9
// "CALVIN_REGISTRY_PATH").
type Env struct {
	Home              string
	RemoteDestination string
	RegistryPath      string
	Sink              events.Sink
	Resolver          sync.ConflictResolver
	Adapters          []adapter.TargetAdapter
	SecurityMode      security.Mode
	// EmitSecurityBaselines opts into each enabled adapter's
	// SecurityBaseline output (e.g. ClaudeCode's .claude/settings.json
	// deny-glob list). Off by default: the original's
	// compiler_service/runner never calls security_baseline at all, and
	// the spec §8 literal scenarios assume no baseline files exist
	// alongside the compiled asset outputs.
	EmitSecurityBaselines bool
}

// Result is the deploy use case's final outcome (spec §4.7 step 9's
// "Completed event": written, skipped, errors, deleted).
type Result struct {
	Written  int
	Skipped  int
	Errors   int
	Deleted  int
	Warnings []string
	Success  bool
}

// Run executes one full deploy: load layers, compile, sync, detect and act
// on orphans, save the lockfile, and upsert the project registry (spec
// §4.7 algorithm steps 1-9).
func Run(opts config.DeployOptions, env Env) (*Result, error) {
	if env.Sink == nil {
		env.Sink = events.NoopSink{}
	}
	if env.Resolver == nil {
		if opts.Force {
			env.Resolver = sync.ForceResolver{}
		} else {
			env.Resolver = sync.AutoSkipResolver{}
		}
	}
	adapters := env.Adapters
	if adapters == nil {
		adapters = compiler.DefaultAdapters()
	}

	result := &Result{}

	destinationRoot := opts.ProjectRoot
	if opts.Scope == scope.User {
		destinationRoot = env.Home
	}
	destLabel := "project"
	if opts.Scope == scope.User {
		destLabel = "home"
	}

	// Step 1: resolve the lockfile path, migrating the legacy
	// "<source>/.calvin.lock" location on first load if present.
	lockfilePath, migrationWarning := lockfile.ResolvePath(opts.Source, opts.ProjectRoot, env.Home, opts.Scope)
	if migrationWarning != "" {
		result.Warnings = append(result.Warnings, migrationWarning)
	}
	repo := lockfile.NewRepository(lockfilePath)
	lf, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	// Step 2: build the ordered layer list (remote mode uses only the
	// project layer, spec §4.7 step 2).
	layerSpecs := buildLayerList(opts, env.Home)

	env.Sink.Emit(events.Start("deploy", opts.Source, destLabel, 0))

	// Step 3: load every layer and merge by precedence.
	var layers []*layer.Layer
	for _, spec := range layerSpecs {
		l, err := layer.Load(spec.name, spec.root)
		if err != nil {
			return nil, fmt.Errorf("deploy: %w", err)
		}
		layers = append(layers, l)
	}

	assets, mergeWarnings, err := layer.Merge(layers)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	for _, w := range mergeWarnings {
		log.Printf("warning: %s", w.Message)
		result.Warnings = append(result.Warnings, w.Message)
	}

	// Step 4: Skill-target feasibility check, reducing each Skill's
	// effective target set to the platforms that support Skills (spec
	// §4.7 step 4).
	if err := reduceSkillTargets(assets, &result.Warnings); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	// Step 5: compile.
	svc := compiler.New(adapters)
	compiled, err := svc.Compile(assets, opts.Targets)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	for _, d := range compiled.Diagnostics {
		if d.Severity == adapter.Warning {
			result.Warnings = append(result.Warnings, d.Message)
		}
	}

	if env.EmitSecurityBaselines {
		policy := security.NewPolicy(env.SecurityMode)
		enabledTargets := target.Expand(opts.Targets)
		for _, ad := range adapters {
			if target.Contains(enabledTargets, ad.Target()) {
				compiled.Outputs = append(compiled.Outputs, ad.SecurityBaseline(policy)...)
			}
		}
	}

	env.Sink.Emit(events.Compiled("deploy", len(compiled.Outputs)+len(compiled.Binaries)))

	// Step 6: sync.
	fs := destinationFileSystem(opts, env, destinationRoot)
	probe, err := buildProbe(fs, compiled.Outputs, compiled.Binaries, opts)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	keyFn := func(path string) string { return lockfile.MakeKey(opts.Scope, path) }
	plan, err := sync.BuildPlan(compiled.Outputs, compiled.Binaries, lf, keyFn, probe)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	resolutions, err := sync.Resolve(plan, env.Resolver, func(item *sync.PlanItem) (sync.ConflictContext, error) {
		return conflictContext(item, fs)
	})
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	sourceOf := sourceLookup(assets)
	for i, item := range plan.Items {
		env.Sink.Emit(events.ItemStart("deploy", i, item.Path()))
	}

	execResults, err := sync.Execute(plan, resolutions, fs, lf, sourceOf, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	producedKeys := make(map[string]bool, len(plan.Items))
	for i, r := range execResults {
		producedKeys[plan.Items[i].LockfileKey] = true
		switch r.Outcome {
		case sync.Written:
			result.Written++
			env.Sink.Emit(events.ItemWritten("deploy", i, r.Item.Path()))
		case sync.Skipped:
			result.Skipped++
			env.Sink.Emit(events.ItemSkipped("deploy", i, r.Item.Path(), "conflict"))
		case sync.NoOp:
			result.Skipped++
		}
	}

	// Step 7: detect and act on orphans (local destinations only; spec
	// §4.6 applies "after a successful sync on a local destination").
	if !opts.RemoteMode {
		candidates, err := orphan.Detect(lf, producedKeys, fs)
		if err != nil {
			return nil, fmt.Errorf("deploy: %w", err)
		}
		existing := orphan.ExistingOnly(candidates)
		if len(existing) > 0 {
			env.Sink.Emit(events.OrphansDetected("deploy", len(existing), orphan.SafeCount(existing)))
		}

		mode := orphan.WarnOnly
		switch {
		case opts.Force:
			mode = orphan.Force
		case opts.CleanOrphans:
			mode = orphan.Cleanup
		}

		deletions := orphan.Run(candidates, mode, fs, lf, destinationRoot, opts.DryRun)
		for _, d := range deletions {
			if d.Deleted {
				result.Deleted++
				env.Sink.Emit(events.OrphanDeleted("deploy", d.Candidate.Path))
			}
			if d.Err != nil {
				result.Errors++
			}
		}

		// Stale lockfile entries (file no longer exists on disk) are
		// dropped silently on the next save (spec §4.6).
		for _, c := range candidates {
			if !c.Exists {
				lf.Remove(c.Key)
			}
		}
	}

	// Step 8: save the lockfile; upsert the global registry. Neither
	// failure aborts the deploy (spec §4.5 "A save failure logs a warning
	// but does not fail the deploy"; spec §7 "RegistryError ... always
	// non-fatal").
	if !opts.DryRun {
		if err := repo.Save(lf); err != nil {
			log.Printf("warning: failed to save lockfile: %v", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save lockfile: %v", err))
		}
		if err := upsertRegistry(env, opts, lockfilePath, len(assets)); err != nil {
			log.Printf("warning: registry update failed: %v", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("registry update failed: %v", err))
		}
	}

	result.Success = result.Errors == 0
	env.Sink.Emit(events.Complete("deploy", result.Written, result.Skipped, result.Errors, result.Deleted))
	return result, nil
}

type layerSpec struct {
	name string
	root string
}

// LayerRoots returns the directory roots Run would load layers from for
// opts, in precedence order. The watcher uses it to decide what to hand
// fsnotify without duplicating the layer-list resolution rules (spec
// §4.8's "watch_all_layers" option covers every resolved layer, not just
// the project source).
func LayerRoots(opts config.DeployOptions, home string) []string {
	specs := buildLayerList(opts, home)
	roots := make([]string, 0, len(specs))
	for _, s := range specs {
		roots = append(roots, s.root)
	}
	return roots
}

// buildLayerList resolves the layer roots in precedence order
// (user, additional..., project), filtered by the enable flags and
// collapsed to project-only under remote mode (spec §4.7 step 2).
func buildLayerList(opts config.DeployOptions, home string) []layerSpec {
	if opts.RemoteMode {
		if opts.UseProjectLayer {
			return []layerSpec{{name: constants.ProjectLayerDirName, root: opts.Source}}
		}
		return nil
	}

	var specs []layerSpec
	if opts.UseUserLayer {
		specs = append(specs, layerSpec{name: constants.UserLayerDirName, root: defaultUserLayerPath(opts.UserLayerPath, home)})
	}
	if opts.UseAdditionalLayers {
		for _, p := range opts.AdditionalLayers {
			specs = append(specs, layerSpec{name: filepath.Base(p), root: p})
		}
	}
	if opts.UseProjectLayer {
		specs = append(specs, layerSpec{name: constants.ProjectLayerDirName, root: opts.Source})
	}
	return specs
}

func defaultUserLayerPath(override, home string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(constants.UserLayerPathEnvVar); env != "" {
		return env
	}
	return filepath.Join(home, constants.RegistryDirName, constants.PromptpackDirName)
}

// reduceSkillTargets intersects every Skill asset's effective targets with
// the Skill-capable target set, erroring if the intersection is empty and
// warning if it's a strict subset of the original (spec §4.7 step 4).
func reduceSkillTargets(assets []*asset.Asset, warnings *[]string) error {
	for _, a := range assets {
		if a.Kind != asset.Skill {
			continue
		}
		effective := a.EffectiveTargets()
		var reduced []target.Target
		for _, t := range effective {
			if t.SupportsSkills() {
				reduced = append(reduced, t)
			}
		}
		if len(reduced) == 0 {
			return fmt.Errorf("skill %q has no supported targets (skills require claude-code, cursor, codex, or opencode)", a.ID)
		}
		if len(reduced) != len(effective) {
			*warnings = append(*warnings, fmt.Sprintf("skill %q: dropped unsupported targets, compiling only for %v", a.ID, reduced))
		}
		a.Targets = reduced
	}
	return nil
}

func destinationFileSystem(opts config.DeployOptions, env Env, destinationRoot string) fsport.FileSystem {
	if opts.RemoteMode && env.RemoteDestination != "" {
		return fsport.NewRemote(env.RemoteDestination)
	}
	return fsport.NewLocal(destinationRoot, env.Home)
}

func buildProbe(fs fsport.FileSystem, outputs []*asset.OutputFile, binaries []*asset.BinaryOutputFile, opts config.DeployOptions) (sync.DestinationProbe, error) {
	remote, ok := fs.(*fsport.Remote)
	if !ok {
		return sync.FsProbe{FS: fs}, nil
	}

	paths := make([]string, 0, len(outputs)+len(binaries))
	for _, o := range outputs {
		paths = append(paths, o.Path())
	}
	for _, b := range binaries {
		paths = append(paths, b.Path())
	}
	results, err := remote.BatchProbe(paths)
	if err != nil {
		return nil, err
	}
	return sync.BatchedProbe{Results: results}, nil
}

func conflictContext(item *sync.PlanItem, fs fsport.FileSystem) (sync.ConflictContext, error) {
	reason := sync.ReasonModifiedSinceSync
	if item.Classification == sync.ConflictUntracked {
		reason = sync.ReasonUntrackedExisting
	}

	existingText := ""
	if !item.IsBinary() {
		existingText, _ = fs.Read(item.Path())
	}
	incomingText := ""
	if !item.IsBinary() {
		incomingText = item.Output.Content()
	}

	existingHash, _ := fs.Hash(item.Path())

	return sync.ConflictContext{
		Path:         item.Path(),
		ExistingHash: existingHash,
		IncomingHash: item.Hash(),
		ExistingText: existingText,
		IncomingText: incomingText,
		Reason:       reason,
	}, nil
}

// sourceLookup returns a function mapping a PlanItem to the lockfile Entry
// provenance fields for the asset that produced it. Every adapter in the
// path matrix (spec §6) names its outputs after the asset id, either as a
// file stem ("<id>.md", "<id>.instructions.md") or a directory component
// (Skills: "<kind-dir>/<id>/..."), so the match walks the destination
// path's components looking for one that equals a known asset id,
// preferring the deepest (most specific) match; aggregated outputs like
// AGENTS.md that name no single source asset resolve to a zero Entry.
func sourceLookup(assets []*asset.Asset) func(*sync.PlanItem) lockfile.Entry {
	byID := make(map[string]*asset.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	return func(item *sync.PlanItem) lockfile.Entry {
		a := findSourceAsset(item.Path(), byID)
		if a == nil {
			return lockfile.Entry{}
		}
		return lockfile.Entry{
			SourceLayer:     a.Provenance.SourceLayer,
			SourceLayerPath: a.Provenance.SourceLayerPath,
			SourceAsset:     a.ID,
			SourceFile:      a.SourcePathNormalized(),
			Overrides:       a.Overrides,
		}
	}
}

func findSourceAsset(path string, byID map[string]*asset.Asset) *asset.Asset {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		for _, suffix := range []string{".instructions.md", ".md"} {
			if stripped, ok := strings.CutSuffix(seg, suffix); ok {
				seg = stripped
				break
			}
		}
		if a, ok := byID[seg]; ok {
			return a
		}
	}
	return nil
}

func upsertRegistry(env Env, opts config.DeployOptions, lockfilePath string, assetCount int) error {
	regPath := env.RegistryPath
	if regPath == "" {
		regPath = registry.DefaultPath(env.Home)
	}
	repo := registry.NewRepository(regPath)
	return repo.UpsertProject(registry.ProjectEntry{
		Path:         opts.ProjectRoot,
		Lockfile:     lockfilePath,
		LastDeployed: deployTimestamp(),
		AssetCount:   assetCount,
	})
}

// deployTimestamp is a seam so tests can observe a deterministic value;
// production calls through to time.Now.
var deployTimestamp = time.Now
