// Package config parses a promptpack's optional config.toml and holds the
// deploy-time option records the deploy use case is constructed from
// (spec §4.7, §6 "Source layout").
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/security"
	"github.com/calvin-dev/calvin/pkg/target"
)

// FormatVersion is the config.toml schema version this package reads and
// writes.
const FormatVersion = "1.0"

// document is config.toml's wire shape.
type document struct {
	FormatVersion string       `toml:"format_version"`
	Security      securityDoc  `toml:"security"`
	Deploy        deployDoc    `toml:"deploy"`
}

type securityDoc struct {
	Mode string `toml:"mode"`
}

type deployDoc struct {
	Targets        []string `toml:"targets"`
	AtomicWrites   *bool    `toml:"atomic_writes"`
	RespectLockfile *bool   `toml:"respect_lockfile"`
}

// Config is a promptpack's resolved, in-memory configuration (spec §6
// "config.toml optional"; schema resolved from
// original_source/src/domain/ports/config_repository.rs's DomainConfig
// trait, since spec.md names the file but not its fields).
type Config struct {
	FormatVersion   string
	SecurityMode    security.Mode
	EnabledTargets  []target.Target
	AtomicWrites    bool
	RespectLockfile bool
}

// Warning is a non-fatal problem found while parsing config.toml: an
// unrecognized security mode or an unparseable target list, each of which
// falls back to the default. Unknown keys are ignored without a warning,
// and a config.toml that cannot be read or parsed as TOML is an error.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Default returns Calvin's built-in configuration: Balanced security, all
// six concrete targets enabled, atomic writes and lockfile respect both
// on.
func Default() Config {
	return Config{
		FormatVersion:   FormatVersion,
		SecurityMode:    security.Balanced,
		EnabledTargets:  append([]target.Target(nil), target.Concrete...),
		AtomicWrites:    true,
		RespectLockfile: true,
	}
}

// Load parses config.toml at path. A missing file is not an error: it
// returns Default().
func Load(path string) (Config, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil, nil
		}
		return Config{}, nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, path string) (Config, []Warning, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Config{}, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Default()
	var warnings []Warning

	if doc.FormatVersion != "" {
		cfg.FormatVersion = doc.FormatVersion
	}

	if doc.Security.Mode != "" {
		mode, ok := security.ParseMode(doc.Security.Mode)
		if !ok {
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("unknown security mode %q, using default", doc.Security.Mode)})
		} else {
			cfg.SecurityMode = mode
		}
	}

	if len(doc.Deploy.Targets) > 0 {
		targets, err := target.ParseList(doc.Deploy.Targets)
		if err != nil {
			warnings = append(warnings, Warning{Path: path, Message: err.Error()})
		} else {
			cfg.EnabledTargets = target.Expand(targets)
		}
	}

	if doc.Deploy.AtomicWrites != nil {
		cfg.AtomicWrites = *doc.Deploy.AtomicWrites
	}
	if doc.Deploy.RespectLockfile != nil {
		cfg.RespectLockfile = *doc.Deploy.RespectLockfile
	}

	return cfg, warnings, nil
}

// ProjectConfigPath returns the project-scoped config.toml path under
// promptpackDir (spec §6 source layout: "config.toml optional" at the
// promptpack root).
func ProjectConfigPath(promptpackDir string) string {
	return filepath.Join(promptpackDir, constants.ConfigFileName)
}

// UserConfigPath returns the fallback user-level config path, consulted
// when no project config.toml exists (grounded on
// ConfigRepository::load_or_default's hierarchy: project, then user,
// then built-in defaults).
func UserConfigPath(home string) string {
	return filepath.Join(home, ".config", constants.CLIName, constants.ConfigFileName)
}

// LoadOrDefault implements the three-level hierarchy: project config.toml,
// then user config.toml, then Default() (spec §6, grounded on
// ConfigRepository::load_or_default).
func LoadOrDefault(promptpackDir, home string) (Config, []Warning, error) {
	if promptpackDir != "" {
		projectPath := ProjectConfigPath(promptpackDir)
		if _, err := os.Stat(projectPath); err == nil {
			return Load(projectPath)
		}
	}
	if home != "" {
		userPath := UserConfigPath(home)
		if _, err := os.Stat(userPath); err == nil {
			return Load(userPath)
		}
	}
	return Default(), nil, nil
}
