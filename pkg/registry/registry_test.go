package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsEmptyRegistry(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "registry.toml"))
	reg, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, reg.Projects)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")
	repo := NewRepository(path)

	reg := New()
	reg.Upsert(ProjectEntry{Path: "/repo/a", Lockfile: "/repo/a/calvin.lock", LastDeployed: time.Now().UTC().Truncate(time.Second), AssetCount: 3})
	require.NoError(t, repo.Save(reg))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Projects, 1)
	assert.Equal(t, "/repo/a", loaded.Projects[0].Path)
	assert.Equal(t, 3, loaded.Projects[0].AssetCount)
}

func TestUpsertProjectReplacesExistingPath(t *testing.T) {
	reg := New()
	reg.Upsert(ProjectEntry{Path: "/repo/a", AssetCount: 1})
	reg.Upsert(ProjectEntry{Path: "/repo/a", AssetCount: 5})

	require.Len(t, reg.Projects, 1)
	assert.Equal(t, 5, reg.Projects[0].AssetCount)
}

func TestUpsertProjectAppendsNewPath(t *testing.T) {
	reg := New()
	reg.Upsert(ProjectEntry{Path: "/repo/a"})
	reg.Upsert(ProjectEntry{Path: "/repo/b"})
	assert.Len(t, reg.Projects, 2)
}

func TestRepositoryUpsertProjectPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")
	repo := NewRepository(path)

	require.NoError(t, repo.UpsertProject(ProjectEntry{Path: "/repo/a", AssetCount: 2}))
	require.NoError(t, repo.UpsertProject(ProjectEntry{Path: "/repo/a", AssetCount: 9}))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Projects, 1)
	assert.Equal(t, 9, loaded.Projects[0].AssetCount)
}

func TestDefaultPathHonorsEnvOverride(t *testing.T) {
	t.Setenv("CALVIN_REGISTRY_PATH", "/tmp/custom-registry.toml")
	assert.Equal(t, "/tmp/custom-registry.toml", DefaultPath("/home/user"))
}

func TestDefaultPathFallsBackToHome(t *testing.T) {
	t.Setenv("CALVIN_REGISTRY_PATH", "")
	assert.Equal(t, filepath.Join("/home/user", ".calvin", "registry.toml"), DefaultPath("/home/user"))
}
