package sync

import (
	"github.com/sourcegraph/conc/pool"

	"github.com/calvin-dev/calvin/pkg/fsport"
	"github.com/calvin-dev/calvin/pkg/lockfile"
)

// MaxConcurrentWrites bounds the worker pool Execute uses to write
// Create/Update/resolved-conflict items, mirroring the teacher's
// controlled-concurrency download pool (spec §4.5 "a parallel execution
// path stages all files").
const MaxConcurrentWrites = 8

// binaryWriter is satisfied by filesystems that support binary content
// (currently only fsport.Local); remote destinations stage binaries via
// rsync/scp instead of a per-file write.
type binaryWriter interface {
	WriteBinary(path string, content []byte) error
}

// Outcome is one item's final disposition after Stage 3.
type Outcome int

const (
	Written Outcome = iota
	Skipped
	NoOp // destination already holds the right content; nothing written (Unchanged stays untouched, UpToDateUntracked is still adopted into the lockfile)
)

// ExecResult is one item's Stage 3 outcome.
type ExecResult struct {
	Item    *PlanItem
	Outcome Outcome
}

// writeJob is one item queued for a concurrent write, plus its slot in the
// final results list so ordering survives the worker pool.
type writeJob struct {
	item *PlanItem
	slot int
}

// Execute performs Stage 3: write every Create/Update item, apply
// resolutions for conflicts, leave Unchanged items alone, and adopt
// UpToDateUntracked items into the lockfile without writing them,
// updating lf in place for everything written or adopted (spec §4.5
// "Stage 3 – Execute"). Writes fan out across a bounded worker pool, the
// way the teacher's download pool processes independent items
// concurrently; lockfile mutation happens afterward, sequentially, since
// Lockfile isn't safe for concurrent writes. dryRun short-circuits before
// any write or lockfile mutation.
func Execute(plan *Plan, resolutions []Resolution, fs fsport.FileSystem, lf *lockfile.Lockfile, sourceOf func(*PlanItem) lockfile.Entry, dryRun bool) ([]ExecResult, error) {
	skip := make(map[*PlanItem]bool, len(resolutions))
	for _, r := range resolutions {
		if r.Action == Skip {
			skip[r.Item] = true
		}
	}

	results := make([]ExecResult, len(plan.Items))
	var jobs []writeJob

	for i, item := range plan.Items {
		switch item.Classification {
		case Unchanged:
			results[i] = ExecResult{Item: item, Outcome: NoOp}
			continue
		case UpToDateUntracked:
			results[i] = ExecResult{Item: item, Outcome: NoOp}
			if !dryRun {
				adopt(item, lf, sourceOf)
			}
			continue
		case ConflictModified, ConflictUntracked:
			if skip[item] {
				results[i] = ExecResult{Item: item, Outcome: Skipped}
				continue
			}
		}

		if dryRun {
			results[i] = ExecResult{Item: item, Outcome: Written}
			continue
		}

		jobs = append(jobs, writeJob{item: item, slot: i})
	}

	if len(jobs) == 0 {
		return results, nil
	}

	p := pool.NewWithResults[error]().WithMaxGoroutines(MaxConcurrentWrites)
	for _, job := range jobs {
		job := job
		p.Go(func() error {
			return writeItem(job.item, fs)
		})
	}
	writeErrs := p.Wait()

	for i, job := range jobs {
		if err := writeErrs[i]; err != nil {
			return results, err
		}

		adopt(job.item, lf, sourceOf)

		results[job.slot] = ExecResult{Item: job.item, Outcome: Written}
	}

	return results, nil
}

// adopt records item's hash and provenance into lf under its lockfile key,
// used both for items Execute just wrote and for UpToDateUntracked items
// it left unwritten (spec §4.5 "Lockfile update": "for every file in
// written (and every adopted file from 'up-to-date-untracked'), set
// entry.hash = output.hash, propagate provenance").
func adopt(item *PlanItem, lf *lockfile.Lockfile, sourceOf func(*PlanItem) lockfile.Entry) {
	entry := sourceOf(item)
	entry.Hash = item.Hash()
	entry.IsBinary = item.IsBinary()
	lf.Set(item.LockfileKey, entry)
}

func writeItem(item *PlanItem, fs fsport.FileSystem) error {
	if item.IsBinary() {
		bw, ok := fs.(binaryWriter)
		if !ok {
			return fs.Write(item.Path(), string(item.Binary.Content()))
		}
		return bw.WriteBinary(item.Path(), item.Binary.Content())
	}
	return fs.Write(item.Path(), item.Output.Content())
}
