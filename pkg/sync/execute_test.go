package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/fsport"
	"github.com/calvin-dev/calvin/pkg/lockfile"
	"github.com/calvin-dev/calvin/pkg/target"
)

func testSourceOf(item *PlanItem) lockfile.Entry {
	return lockfile.Entry{SourceAsset: "test-asset"}
}

func TestExecuteWritesCreateItems(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	plan := &Plan{Items: []*PlanItem{{Output: out, LockfileKey: "a.md", Classification: Create}}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Written, results[0].Outcome)

	content, err := fs.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	entry, ok := lf.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, out.Hash(), entry.Hash)
	assert.Equal(t, "test-asset", entry.SourceAsset)
}

func TestExecuteDryRunDoesNotWrite(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	plan := &Plan{Items: []*PlanItem{{Output: out, LockfileKey: "a.md", Classification: Create}}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, true)
	require.NoError(t, err)
	assert.Equal(t, Written, results[0].Outcome)
	assert.False(t, fs.Exists("a.md"))
	assert.False(t, lf.Contains("a.md"))
}

func TestExecuteLeavesUnchangedAlone(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	plan := &Plan{Items: []*PlanItem{{Output: out, LockfileKey: "a.md", Classification: Unchanged}}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	assert.Equal(t, NoOp, results[0].Outcome)
	assert.False(t, fs.Exists("a.md"))
}

func TestExecuteSkipsResolvedConflicts(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	item := &PlanItem{Output: out, LockfileKey: "a.md", Classification: ConflictModified}
	plan := &Plan{Items: []*PlanItem{item}}
	resolutions := []Resolution{{Item: item, Action: Skip}}

	results, err := Execute(plan, resolutions, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	assert.Equal(t, Skipped, results[0].Outcome)
	assert.False(t, fs.Exists("a.md"))
}

func TestExecuteOverwritesResolvedConflicts(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	item := &PlanItem{Output: out, LockfileKey: "a.md", Classification: ConflictModified}
	plan := &Plan{Items: []*PlanItem{item}}
	resolutions := []Resolution{{Item: item, Action: Overwrite}}

	results, err := Execute(plan, resolutions, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	assert.Equal(t, Written, results[0].Outcome)

	content, err := fs.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestExecuteWritesBinaryItems(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	bin := asset.NewBinaryOutputFile("a.bin", []byte{1, 2, 3}, target.ClaudeCode)
	item := &PlanItem{Binary: bin, LockfileKey: "a.bin", Classification: Create}
	plan := &Plan{Items: []*PlanItem{item}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	assert.Equal(t, Written, results[0].Outcome)

	entry, ok := lf.Get("a.bin")
	require.True(t, ok)
	assert.True(t, entry.IsBinary)
}

func TestExecuteAdoptsUpToDateUntrackedItems(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	item := &PlanItem{Output: out, LockfileKey: "a.md", Classification: UpToDateUntracked}
	plan := &Plan{Items: []*PlanItem{item}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, false)
	require.NoError(t, err)
	assert.Equal(t, NoOp, results[0].Outcome)
	assert.False(t, fs.Exists("a.md"))

	entry, ok := lf.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, out.Hash(), entry.Hash)
	assert.Equal(t, "test-asset", entry.SourceAsset)
}

func TestExecuteDryRunDoesNotAdoptUpToDateUntrackedItems(t *testing.T) {
	fs := fsport.NewLocal(t.TempDir(), t.TempDir())
	lf := lockfile.New()

	out := asset.NewOutputFile("a.md", "hello", target.ClaudeCode)
	item := &PlanItem{Output: out, LockfileKey: "a.md", Classification: UpToDateUntracked}
	plan := &Plan{Items: []*PlanItem{item}}

	results, err := Execute(plan, nil, fs, lf, testSourceOf, true)
	require.NoError(t, err)
	assert.Equal(t, NoOp, results[0].Outcome)
	assert.False(t, lf.Contains("a.md"))
}

func TestUseBatchTransfer(t *testing.T) {
	assert.False(t, UseBatchTransfer(5, true))
	assert.False(t, UseBatchTransfer(20, false))
	assert.True(t, UseBatchTransfer(20, true))
}
