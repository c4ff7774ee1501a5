package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calvin-dev/calvin/pkg/logger"
	"github.com/calvin-dev/calvin/pkg/scope"
	"github.com/pelletier/go-toml/v2"
)

var log = logger.New("lockfile:repository")

// ProjectFileName is the lockfile's name within a project root.
const ProjectFileName = "calvin.lock"

// LegacyFileName is the pre-migration lockfile name, auto-migrated on first
// load (spec §3 "Persistence", §4.7 step 1).
const LegacyFileName = ".calvin.lock"

// Error is the lockfile error taxonomy (spec §7). Only VersionMismatch is
// user-actionable.
type Error struct {
	Kind    ErrorKind
	Found   int
	Wanted  int
	Message string
}

type ErrorKind int

const (
	NotFound ErrorKind = iota
	InvalidFormat
	VersionMismatch
	IOError
)

func (e *Error) Error() string {
	switch e.Kind {
	case VersionMismatch:
		return fmt.Sprintf("lockfile version %d is not supported (expected %d); run `calvin migrate`", e.Found, e.Wanted)
	case NotFound:
		return "lockfile not found"
	case InvalidFormat:
		return fmt.Sprintf("lockfile is not valid: %s", e.Message)
	default:
		return fmt.Sprintf("lockfile io error: %s", e.Message)
	}
}

// tomlEntry is the on-disk shape of Entry. IsBinary is omitted when false.
type tomlEntry struct {
	Hash            string `toml:"hash"`
	SourceLayer     string `toml:"source_layer,omitempty"`
	SourceLayerPath string `toml:"source_layer_path,omitempty"`
	SourceAsset     string `toml:"source_asset,omitempty"`
	SourceFile      string `toml:"source_file,omitempty"`
	Overrides       string `toml:"overrides,omitempty"`
	IsBinary        bool   `toml:"is_binary,omitempty"`
}

type tomlLockfile struct {
	Version int                  `toml:"version"`
	Files   map[string]tomlEntry `toml:"files"`
}

// Repository persists a Lockfile to a structured-text file on disk.
type Repository struct {
	path string
}

// NewRepository returns a repository bound to path (the resolved lockfile
// location, after any legacy-location migration).
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

func (r *Repository) Path() string { return r.path }

// Load reads the lockfile from disk, or returns a fresh empty lockfile if
// the file does not exist.
func (r *Repository) Load() (*Lockfile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, &Error{Kind: IOError, Message: err.Error()}
	}

	var raw tomlLockfile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: InvalidFormat, Message: err.Error()}
	}

	if raw.Version != Version {
		return nil, &Error{Kind: VersionMismatch, Found: raw.Version, Wanted: Version}
	}

	lf := New()
	for key, e := range raw.Files {
		lf.Set(key, Entry{
			Hash:            e.Hash,
			SourceLayer:     e.SourceLayer,
			SourceLayerPath: e.SourceLayerPath,
			SourceAsset:     e.SourceAsset,
			SourceFile:      e.SourceFile,
			Overrides:       e.Overrides,
			IsBinary:        e.IsBinary,
		})
	}
	log.Printf("loaded lockfile %s with %d entries", r.path, lf.Len())
	return lf, nil
}

// LoadOrNew loads the lockfile, collapsing any error into a fresh empty
// lockfile. Callers that need to distinguish "absent" from "corrupt" or
// "wrong version" should call Load directly.
func (r *Repository) LoadOrNew() *Lockfile {
	lf, err := r.Load()
	if err != nil {
		return New()
	}
	return lf
}

// Save writes the lockfile to disk as structured text, creating parent
// directories as needed.
func (r *Repository) Save(lf *Lockfile) error {
	raw := tomlLockfile{Version: lf.Version(), Files: make(map[string]tomlEntry, lf.Len())}
	for _, key := range lf.Keys() {
		e, _ := lf.Get(key)
		raw.Files[key] = tomlEntry{
			Hash:            e.Hash,
			SourceLayer:     e.SourceLayer,
			SourceLayerPath: e.SourceLayerPath,
			SourceAsset:     e.SourceAsset,
			SourceFile:      e.SourceFile,
			Overrides:       e.Overrides,
			IsBinary:        e.IsBinary,
		}
	}

	data, err := toml.Marshal(raw)
	if err != nil {
		return &Error{Kind: InvalidFormat, Message: err.Error()}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return &Error{Kind: IOError, Message: err.Error()}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return &Error{Kind: IOError, Message: err.Error()}
	}
	log.Printf("saved lockfile %s with %d entries", r.path, lf.Len())
	return nil
}

// ResolvePath computes the lockfile path for a scope, migrating the legacy
// `<source>/.calvin.lock` location to the new per-scope location on first
// load if present. Migration failure is non-fatal: the caller falls back to
// the legacy path and the returned warning should be surfaced (spec §4.7
// step 1, SPEC_FULL.md §D.1).
func ResolvePath(source, projectRoot, homeDir string, s scope.Scope) (path string, warning string) {
	var target string
	switch s {
	case scope.User:
		target = filepath.Join(homeDir, ".calvin", ProjectFileName)
	default:
		target = filepath.Join(projectRoot, ProjectFileName)
	}

	legacy := filepath.Join(source, LegacyFileName)
	if _, err := os.Stat(legacy); err != nil {
		return target, ""
	}
	if _, err := os.Stat(target); err == nil {
		// New location already exists; legacy is stale, ignore it.
		return target, ""
	}

	if err := migrate(legacy, target); err != nil {
		return legacy, fmt.Sprintf("failed to migrate legacy lockfile %s to %s: %v; continuing to use the legacy location", legacy, target, err)
	}
	return target, ""
}

func migrate(legacy, target string) error {
	data, err := os.ReadFile(legacy)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}
	return os.Remove(legacy)
}

// IsNotFound reports whether err represents a missing lockfile.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == NotFound
}
