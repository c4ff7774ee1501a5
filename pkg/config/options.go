package config

import (
	"path/filepath"

	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/calvin-dev/calvin/pkg/target"
)

// DeployOptions is the deploy use case's full input record (spec §5:
// "Inputs: a DeployOptions record with the recognized fields
// {source, project_root, use_project_layer, use_user_layer,
// user_layer_path, use_additional_layers, additional_layers[], scope,
// targets[], remote_mode, force, interactive, dry_run, clean_orphans}").
type DeployOptions struct {
	Source               string
	ProjectRoot          string
	UseProjectLayer      bool
	UserLayerPath        string // empty means "use the default ~/.calvin/.promptpack"
	UseUserLayer         bool
	AdditionalLayers     []string
	UseAdditionalLayers  bool
	Scope                scope.Scope
	Targets              []target.Target
	RemoteMode           bool
	Force                bool
	Interactive          bool
	DryRun               bool
	CleanOrphans         bool
}

// NewDeployOptions returns a DeployOptions defaulted the way the original
// does: project_root derives from source's parent directory when source
// is absolute, otherwise "."; both layers and additional layers start
// enabled (spec §4.7 step 2's layer list building assumes this).
func NewDeployOptions(source string) DeployOptions {
	projectRoot := "."
	if filepath.IsAbs(source) {
		parent := filepath.Dir(source)
		if parent != "" && parent != string(filepath.Separator) {
			projectRoot = parent
		}
	}

	return DeployOptions{
		Source:              source,
		ProjectRoot:         projectRoot,
		UseProjectLayer:     true,
		UseUserLayer:        true,
		UseAdditionalLayers: true,
		Scope:               scope.Project,
	}
}

// DeployOutputOptions is the input record for deploying pre-compiled
// outputs (grounded on original_source/src/application/deploy/options.rs's
// DeployOutputOptions). No caller in this module takes it: deploy.Run and
// the watcher both work from DeployOptions.
type DeployOutputOptions struct {
	LockfilePath string
	Scope        scope.Scope
	DryRun       bool
	CleanOrphans bool
}

// NewDeployOutputOptions returns a DeployOutputOptions defaulted to
// project scope with neither dry-run nor orphan cleanup enabled.
func NewDeployOutputOptions(lockfilePath string) DeployOutputOptions {
	return DeployOutputOptions{LockfilePath: lockfilePath, Scope: scope.Project}
}
