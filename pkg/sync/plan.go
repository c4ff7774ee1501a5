// Package sync implements Calvin's two-stage sync engine: plan, classify
// every compiled output against the filesystem and the lockfile; resolve,
// hand conflicts to a ConflictResolver port; execute, write the final plan
// atomically (spec §4.5).
package sync

import (
	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/lockfile"
)

// Classification is the bucket Stage 1 sorts one output into.
type Classification int

const (
	Unchanged Classification = iota
	UpToDateUntracked
	Create
	Update
	ConflictModified
	ConflictUntracked
)

func (c Classification) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case UpToDateUntracked:
		return "up_to_date_untracked"
	case Create:
		return "create"
	case Update:
		return "update"
	case ConflictModified:
		return "conflict_modified"
	case ConflictUntracked:
		return "conflict_untracked"
	default:
		return "unknown"
	}
}

// IsConflict reports whether c requires a resolver decision.
func (c Classification) IsConflict() bool {
	return c == ConflictModified || c == ConflictUntracked
}

// PlanItem is one output's classification plus the context needed to act
// on it in Stage 3.
type PlanItem struct {
	Output         *asset.OutputFile
	Binary         *asset.BinaryOutputFile
	Classification Classification
	LockfileKey    string
}

// Path returns the item's destination path, whichever of Output/Binary is
// set.
func (p *PlanItem) Path() string {
	if p.Output != nil {
		return p.Output.Path()
	}
	return p.Binary.Path()
}

// Hash returns the item's content hash.
func (p *PlanItem) Hash() string {
	if p.Output != nil {
		return p.Output.Hash()
	}
	return p.Binary.Hash()
}

// IsBinary reports whether this item is a BinaryOutputFile.
func (p *PlanItem) IsBinary() bool {
	return p.Binary != nil
}

// Plan is Stage 1's result: every output classified into exactly one
// bucket (spec §4.5 "Stage 1 – Plan").
type Plan struct {
	Items []*PlanItem
}

// DestinationProbe abstracts "does this path exist, and if so with what
// hash" so Plan can run against either a local FileSystem (probed path by
// path) or a remote one (probed once, batched, by the caller ahead of
// time) without depending on pkg/fsport directly.
type DestinationProbe interface {
	Probe(path string) (exists bool, hash string, err error)
}

// BuildPlan classifies every output/binary against lf and the destination
// probe (spec §4.5 "Stage 1"). outputs and binaries are both accepted so a
// single plan covers a compiler Result's full output set.
func BuildPlan(outputs []*asset.OutputFile, binaries []*asset.BinaryOutputFile, lf *lockfile.Lockfile, key func(path string) string, probe DestinationProbe) (*Plan, error) {
	plan := &Plan{}

	for _, o := range outputs {
		item, err := classify(o.Path(), o.Hash(), lf, key, probe)
		if err != nil {
			return nil, err
		}
		item.Output = o
		plan.Items = append(plan.Items, item)
	}
	for _, b := range binaries {
		item, err := classify(b.Path(), b.Hash(), lf, key, probe)
		if err != nil {
			return nil, err
		}
		item.Binary = b
		plan.Items = append(plan.Items, item)
	}

	return plan, nil
}

func classify(path, contentHash string, lf *lockfile.Lockfile, key func(string) string, probe DestinationProbe) (*PlanItem, error) {
	lfKey := key(path)
	entry, tracked := lf.Get(lfKey)

	exists, destHash, err := probe.Probe(path)
	if err != nil {
		return nil, err
	}

	item := &PlanItem{LockfileKey: lfKey}

	switch {
	case !exists:
		item.Classification = Create
	case tracked && destHash == entry.Hash && entry.Hash == contentHash:
		item.Classification = Unchanged
	case !tracked && destHash == contentHash:
		item.Classification = UpToDateUntracked
	case tracked && destHash == entry.Hash && entry.Hash != contentHash:
		item.Classification = Update
	case tracked && destHash != entry.Hash:
		item.Classification = ConflictModified
	default:
		// Exists, content differs from the new output, and untracked.
		item.Classification = ConflictUntracked
	}

	return item, nil
}

// Conflicts returns the subset of items requiring resolution.
func (p *Plan) Conflicts() []*PlanItem {
	var out []*PlanItem
	for _, item := range p.Items {
		if item.Classification.IsConflict() {
			out = append(out, item)
		}
	}
	return out
}
