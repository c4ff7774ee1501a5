package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calvin-dev/calvin/pkg/config"
	"github.com/calvin-dev/calvin/pkg/deploy"
	"github.com/calvin-dev/calvin/pkg/events"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/sync"
	"github.com/calvin-dev/calvin/pkg/target"
)

// sharedFlags is the flag set deploy and watch both bind; watch adds
// --watch-all-layers on top of it.
type sharedFlags struct {
	source              string
	projectRoot         string
	scopeRaw            string
	targetsRaw          []string
	useUserLayer        bool
	useProjectLayer     bool
	useAdditionalLayers bool
	additionalLayers    []string
	userLayerPath       string
	remote              bool
	remoteDestination   string
	force               bool
	interactive         bool
	dryRun              bool
	cleanOrphans        bool
	jsonOutput          bool
	securityMode        string
	securityBaseline    bool
}

func bindSharedFlags(cmd *cobra.Command, f *sharedFlags) {
	cmd.Flags().StringVar(&f.source, "source", ".promptpack", "promptpack source directory")
	cmd.Flags().StringVar(&f.projectRoot, "project-root", ".", "project root outputs are written relative to")
	cmd.Flags().StringVar(&f.scopeRaw, "scope", "project", "deploy scope: project or user")
	cmd.Flags().StringSliceVar(&f.targetsRaw, "targets", nil, "target platforms (default: all)")
	cmd.Flags().BoolVar(&f.useUserLayer, "user-layer", true, "include the user layer")
	cmd.Flags().BoolVar(&f.useProjectLayer, "project-layer", true, "include the project layer")
	cmd.Flags().BoolVar(&f.useAdditionalLayers, "additional-layers", true, "include configured additional layers")
	cmd.Flags().StringArrayVar(&f.additionalLayers, "additional-layer", nil, "additional layer root (repeatable)")
	cmd.Flags().StringVar(&f.userLayerPath, "user-layer-path", "", "override the default user layer path")
	cmd.Flags().BoolVar(&f.remote, "remote", false, "deploy to a remote host via ssh/rsync/scp")
	cmd.Flags().StringVar(&f.remoteDestination, "remote-destination", "", "remote destination, e.g. user@host:/path")
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite conflicting files and delete unsafe orphans")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "prompt for each conflicting file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&f.cleanOrphans, "clean-orphans", false, "delete orphaned outputs that still carry the Calvin signature")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "emit NDJSON events to stdout")
	cmd.Flags().StringVar(&f.securityMode, "security", "", "security mode: yolo, balanced, or strict (default: from config.toml)")
	cmd.Flags().BoolVar(&f.securityBaseline, "security-baseline", false, "also emit each enabled adapter's platform-level security baseline file")
}

// resolve builds a DeployOptions/Env pair from flags plus the promptpack's
// own config.toml (spec §4.7's input record, §6 "config.toml optional").
func (f *sharedFlags) resolve() (config.DeployOptions, deploy.Env, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DeployOptions{}, deploy.Env{}, fmt.Errorf("calvin: resolving home directory: %w", err)
	}

	cfg, warnings, err := config.LoadOrDefault(f.source, home)
	if err != nil {
		return config.DeployOptions{}, deploy.Env{}, err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}

	sc, err := scope.Parse(f.scopeRaw)
	if err != nil {
		return config.DeployOptions{}, deploy.Env{}, err
	}

	targets := cfg.EnabledTargets
	if len(f.targetsRaw) > 0 {
		parsed, err := target.ParseList(f.targetsRaw)
		if err != nil {
			return config.DeployOptions{}, deploy.Env{}, err
		}
		targets = target.Expand(parsed)
	}

	opts := config.NewDeployOptions(f.source)
	opts.ProjectRoot = f.projectRoot
	opts.Scope = sc
	opts.Targets = targets
	opts.UseUserLayer = f.useUserLayer
	opts.UseProjectLayer = f.useProjectLayer
	opts.UseAdditionalLayers = f.useAdditionalLayers
	opts.AdditionalLayers = f.additionalLayers
	opts.UserLayerPath = f.userLayerPath
	opts.RemoteMode = f.remote
	opts.Force = f.force
	opts.Interactive = f.interactive
	opts.DryRun = f.dryRun
	opts.CleanOrphans = f.cleanOrphans

	mode := cfg.SecurityMode
	if f.securityMode != "" {
		parsedMode, ok := security.ParseMode(f.securityMode)
		if !ok {
			return config.DeployOptions{}, deploy.Env{}, fmt.Errorf("calvin: unknown security mode %q", f.securityMode)
		}
		mode = parsedMode
	}

	env := deploy.Env{
		Home:                  home,
		RemoteDestination:     f.remoteDestination,
		Sink:                  f.sink(),
		Resolver:              f.resolver(),
		SecurityMode:          mode,
		EmitSecurityBaselines: f.securityBaseline,
	}
	return opts, env, nil
}

func (f *sharedFlags) sink() events.Sink {
	if f.jsonOutput {
		return events.NewJSONSink(os.Stdout)
	}
	return events.NoopSink{}
}

func (f *sharedFlags) resolver() sync.ConflictResolver {
	switch {
	case f.force:
		return sync.ForceResolver{}
	case f.interactive:
		return sync.NewInteractiveResolver(stdinPrompt{})
	default:
		return sync.AutoSkipResolver{}
	}
}

// stdinPrompt implements sync.Prompt against the terminal, the minimal
// surface --interactive needs; it carries no other CLI presentation
// logic (spec §1 Non-goals: "the command-line surface and its flag
// parsing" stop at this boundary).
type stdinPrompt struct{}

func (stdinPrompt) Ask(ctx sync.ConflictContext) (string, error) {
	reason := "modified since the last sync"
	if ctx.Reason == sync.ReasonUntrackedExisting {
		reason = "an untracked file already exists there"
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n[o]verwrite, [s]kip, [d]iff, overwrite [a]ll, s[k]ip all, [x] abort: ", ctx.Path, reason)
	var answer string
	_, err := fmt.Scanln(&answer)
	return answer, err
}

func (stdinPrompt) ShowDiff(ctx sync.ConflictContext) error {
	fmt.Fprintf(os.Stderr, "--- %s (existing)\n+++ %s (incoming)\n", ctx.Path, ctx.Path)
	fmt.Fprintln(os.Stderr, ctx.ExistingText)
	fmt.Fprintln(os.Stderr, "---")
	fmt.Fprintln(os.Stderr, ctx.IncomingText)
	return nil
}
