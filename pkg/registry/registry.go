// Package registry persists Calvin's global project list at
// ~/.calvin/registry.toml, advisory-locked so concurrent deploys across
// projects don't race each other's writes (spec §4.7 step 8, §9).
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/calvin-dev/calvin/pkg/constants"
)

// ProjectEntry is one deployed project's registry record.
type ProjectEntry struct {
	Path         string    `toml:"path"`
	Lockfile     string    `toml:"lockfile"`
	LastDeployed time.Time `toml:"last_deployed"`
	AssetCount   int       `toml:"asset_count"`
}

// Version is the registry file format version this package writes.
const Version = 1

// document is the TOML wire shape; Registry (below) is the in-memory form
// callers operate on.
type document struct {
	Version  int            `toml:"version"`
	Projects []ProjectEntry `toml:"projects"`
}

// Registry is the in-memory project list, keyed by project path for
// upsert but serialized back out as an ordered slice.
type Registry struct {
	Version  int
	Projects []ProjectEntry
}

// New returns an empty registry at the current version.
func New() *Registry {
	return &Registry{Version: Version}
}

// Upsert inserts entry, or replaces the existing entry for the same path.
func (r *Registry) Upsert(entry ProjectEntry) {
	for i, p := range r.Projects {
		if p.Path == entry.Path {
			r.Projects[i] = entry
			return
		}
	}
	r.Projects = append(r.Projects, entry)
}

// Repository persists a Registry at a TOML path, guarding writes with an
// advisory file lock so two Calvin processes never interleave writes
// (spec §9 "the registry ... is protected by an advisory lock during
// writes").
type Repository struct {
	path string
}

// DefaultPath returns the registry path: $CALVIN_REGISTRY_PATH if set,
// otherwise "~/.calvin/registry.toml" relative to home (spec §9,
// grounded on original_source's default_registry_path env override, used
// there so Windows tests can redirect it without touching the real home
// directory).
func DefaultPath(home string) string {
	if p := os.Getenv(constants.RegistryPathEnvVar); p != "" {
		return p
	}
	return filepath.Join(home, constants.RegistryDirName, constants.RegistryFileName)
}

// NewRepository returns a Repository persisting at path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

func (r *Repository) lockPath() string {
	return r.path + ".lock"
}

// Load reads the registry from disk, or returns a fresh empty Registry if
// the file doesn't exist yet.
func (r *Repository) Load() (*Registry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("registry: read %s: %w", r.path, err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: corrupted at %s: %w", r.path, err)
	}

	return &Registry{Version: doc.Version, Projects: doc.Projects}, nil
}

// Save writes reg to disk under the repository's advisory lock.
func (r *Repository) Save(reg *Registry) error {
	lock, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	return r.saveLocked(reg)
}

// UpsertProject loads the current registry, applies entry, and saves the
// result, all under a single lock acquisition so the load-modify-save
// sequence is atomic with respect to other Calvin processes (spec §4.7
// step 8, grounded on original_source's update_project).
func (r *Repository) UpsertProject(entry ProjectEntry) error {
	lock, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	reg, err := r.Load()
	if err != nil {
		return err
	}
	reg.Upsert(entry)
	return r.saveLocked(reg)
}

func (r *Repository) acquireLock() (*flock.Flock, error) {
	lockPath := r.lockPath()
	if dir := filepath.Dir(lockPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("registry: mkdir %s: %w", dir, err)
		}
	}

	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("registry: lock %s: %w", lockPath, err)
	}
	return lock, nil
}

func (r *Repository) saveLocked(reg *Registry) error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("registry: mkdir %s: %w", dir, err)
		}
	}

	doc := document{Version: reg.Version, Projects: reg.Projects}
	if doc.Version == 0 {
		doc.Version = Version
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("registry: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("registry: rename %s: %w", r.path, err)
	}
	return nil
}
