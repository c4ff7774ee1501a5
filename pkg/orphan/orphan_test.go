package orphan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvin-dev/calvin/pkg/fsport"
	"github.com/calvin-dev/calvin/pkg/lockfile"
)

const signedContent = "body\n\n<!-- Generated by Calvin. Source: actions/a.md. DO NOT EDIT. -->\n"

func TestDetectSkipsProducedKeys(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()
	lf.Set("project:a.md", lockfile.Entry{Hash: "sha256:x"})
	lf.Set("project:b.md", lockfile.Entry{Hash: "sha256:y"})

	candidates, err := Detect(lf, map[string]bool{"project:a.md": true}, fs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "project:b.md", candidates[0].Key)
}

func TestDetectSignatureAndExistence(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	require.NoError(t, fs.Write("signed.md", signedContent))
	require.NoError(t, fs.Write("unsigned.md", "just text"))

	lf := lockfile.New()
	lf.Set("project:signed.md", lockfile.Entry{})
	lf.Set("project:unsigned.md", lockfile.Entry{})
	lf.Set("project:missing.md", lockfile.Entry{})

	candidates, err := Detect(lf, map[string]bool{}, fs)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byPath := map[string]Candidate{}
	for _, c := range candidates {
		byPath[c.Path] = c
	}

	assert.True(t, byPath["signed.md"].Exists)
	assert.True(t, byPath["signed.md"].HasSignature)
	assert.True(t, byPath["signed.md"].IsSafeToDelete())

	assert.True(t, byPath["unsigned.md"].Exists)
	assert.False(t, byPath["unsigned.md"].HasSignature)
	assert.False(t, byPath["unsigned.md"].IsSafeToDelete())

	assert.False(t, byPath["missing.md"].Exists)
	assert.False(t, byPath["missing.md"].IsSafeToDelete())
}

func TestDetectBinaryOrphanIsSafeWithoutSignature(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	require.NoError(t, fs.WriteBinary("icon.png", []byte{0x89, 0x50, 0x4e, 0x47}))

	lf := lockfile.New()
	lf.Set("project:icon.png", lockfile.Entry{IsBinary: true})

	candidates, err := Detect(lf, map[string]bool{}, fs)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.True(t, c.Exists)
	assert.True(t, c.IsBinary)
	assert.False(t, c.HasSignature)
	assert.True(t, c.IsSafeToDelete())
}

func TestExistingOnlyAndSafeCount(t *testing.T) {
	candidates := []Candidate{
		{Path: "a", Exists: true, HasSignature: true},
		{Path: "b", Exists: true, HasSignature: false},
		{Path: "c", Exists: false},
		{Path: "d", Exists: true, IsBinary: true},
	}
	assert.Len(t, ExistingOnly(candidates), 3)
	assert.Equal(t, 2, SafeCount(candidates))
}

func TestRunWarnOnlyNeverDeletes(t *testing.T) {
	root := t.TempDir()
	fs := fsport.NewLocal(root, t.TempDir())
	require.NoError(t, fs.Write("signed.md", signedContent))
	lf := lockfile.New()
	lf.Set("project:signed.md", lockfile.Entry{})

	candidates := []Candidate{{Key: "project:signed.md", Path: "signed.md", Exists: true, HasSignature: true}}
	results := Run(candidates, WarnOnly, fs, lf, root, false)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.True(t, fs.Exists("signed.md"))
	assert.True(t, lf.Contains("project:signed.md"))
}

func TestRunCleanupDeletesOnlySafe(t *testing.T) {
	root := t.TempDir()
	fs := fsport.NewLocal(root, t.TempDir())
	require.NoError(t, fs.Write("signed.md", signedContent))
	require.NoError(t, fs.Write("unsigned.md", "plain"))
	lf := lockfile.New()
	lf.Set("project:signed.md", lockfile.Entry{})
	lf.Set("project:unsigned.md", lockfile.Entry{})

	candidates := []Candidate{
		{Key: "project:signed.md", Path: "signed.md", Exists: true, HasSignature: true},
		{Key: "project:unsigned.md", Path: "unsigned.md", Exists: true, HasSignature: false},
	}
	results := Run(candidates, Cleanup, fs, lf, root, false)

	require.Len(t, results, 2)
	assert.False(t, fs.Exists("signed.md"))
	assert.True(t, fs.Exists("unsigned.md"))
	assert.False(t, lf.Contains("project:signed.md"))
	assert.True(t, lf.Contains("project:unsigned.md"))
}

func TestRunForceDeletesEvenUnsafe(t *testing.T) {
	root := t.TempDir()
	fs := fsport.NewLocal(root, t.TempDir())
	require.NoError(t, fs.Write("unsigned.md", "plain"))
	lf := lockfile.New()
	lf.Set("project:unsigned.md", lockfile.Entry{})

	candidates := []Candidate{{Key: "project:unsigned.md", Path: "unsigned.md", Exists: true, HasSignature: false}}
	results := Run(candidates, Force, fs, lf, root, false)

	require.Len(t, results, 1)
	assert.True(t, results[0].Deleted)
	assert.False(t, fs.Exists("unsigned.md"))
}

func TestRunDryRunDoesNotTouchDisk(t *testing.T) {
	root := t.TempDir()
	fs := fsport.NewLocal(root, t.TempDir())
	require.NoError(t, fs.Write("signed.md", signedContent))
	lf := lockfile.New()
	lf.Set("project:signed.md", lockfile.Entry{})

	candidates := []Candidate{{Key: "project:signed.md", Path: "signed.md", Exists: true, HasSignature: true}}
	results := Run(candidates, Cleanup, fs, lf, root, true)

	require.Len(t, results, 1)
	assert.True(t, results[0].Deleted)
	assert.True(t, fs.Exists("signed.md"))
	assert.True(t, lf.Contains("project:signed.md"))
}

func TestRunRemovesEmptyParents(t *testing.T) {
	root := t.TempDir()
	fs := fsport.NewLocal(root, t.TempDir())
	require.NoError(t, fs.Write("skills/draft/signed.md", signedContent))
	lf := lockfile.New()
	lf.Set("project:skills/draft/signed.md", lockfile.Entry{})

	candidates := []Candidate{{Key: "project:skills/draft/signed.md", Path: "skills/draft/signed.md", Exists: true, HasSignature: true}}
	Run(candidates, Cleanup, fs, lf, root, false)

	assert.False(t, fs.Exists("skills/draft"))
}
