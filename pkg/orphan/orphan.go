// Package orphan finds and, with the caller's approval, removes lockfile
// entries a deploy no longer produced (spec §4.6 "Orphan detection").
package orphan

import (
	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/fsport"
	"github.com/calvin-dev/calvin/pkg/lockfile"
)

// Candidate is one lockfile entry no longer produced by the current
// compile, together with what's needed to decide whether deleting it is
// safe.
type Candidate struct {
	Key    string
	Path   string
	Exists bool
	// HasSignature is true only when Exists is true and the file's
	// content still carries the Calvin footer.
	HasSignature bool
	// IsBinary mirrors the lockfile entry's IsBinary flag. Binary outputs
	// carry no text footer to check, so the lockfile recording this path
	// as ours is itself the safety check (spec §4.6 "Binary outputs
	// participate identically ... is_binary=true entries are always safe
	// to delete by definition").
	IsBinary bool
}

// IsSafeToDelete reports whether c can be removed without --force: either
// it's recorded in the lockfile as one of our binary outputs, or it exists
// and still carries the Calvin signature (spec §4.6 "a file is safe to
// delete only if it still carries the Calvin signature"; "is_binary=true
// entries are always safe to delete by definition").
func (c Candidate) IsSafeToDelete() bool {
	if c.IsBinary {
		return c.Exists
	}
	return c.Exists && c.HasSignature
}

// Detect compares every key still tracked in lf against producedKeys (the
// lockfile keys the current compile just wrote) and returns one Candidate
// per key no longer produced, probing the filesystem for existence and
// signature (spec §4.6 "Detection": "any lockfile entry whose key is not
// in the current compile's output set is a candidate").
func Detect(lf *lockfile.Lockfile, producedKeys map[string]bool, fs fsport.FileSystem) ([]Candidate, error) {
	var candidates []Candidate
	for _, key := range lf.Keys() {
		if producedKeys[key] {
			continue
		}
		_, path, ok := lockfile.ParseKey(key)
		if !ok {
			continue
		}

		entry, _ := lf.Get(key)
		c := Candidate{Key: key, Path: path, IsBinary: entry.IsBinary}
		if fs.Exists(path) {
			c.Exists = true
			if !c.IsBinary {
				content, err := fs.Read(path)
				if err == nil {
					c.HasSignature = constants.HasCalvinSignature(content)
				}
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// ExistingOnly filters candidates to those that still exist on disk (spec
// §4.6 "Filter to only existing orphans" before presenting counts).
func ExistingOnly(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Exists {
			out = append(out, c)
		}
	}
	return out
}

// SafeCount returns how many candidates are safe to delete without
// --force.
func SafeCount(candidates []Candidate) int {
	n := 0
	for _, c := range candidates {
		if c.IsSafeToDelete() {
			n++
		}
	}
	return n
}

// Mode selects how Cleanup decides which candidates to actually remove.
type Mode int

const (
	// WarnOnly never deletes; the caller is expected to print a warning
	// and suggest --clean-orphans (spec §4.6 "default: warn").
	WarnOnly Mode = iota
	// Cleanup deletes every safe candidate (the --clean-orphans flag).
	Cleanup
	// Force deletes every candidate, safe or not (the --force flag).
	Force
)

// Deletion is one candidate's final disposition after Cleanup runs.
type Deletion struct {
	Candidate Candidate
	Deleted   bool
	Skipped   bool
	Err       error
}

// Run deletes candidates according to mode, removes each deleted file's
// now-empty parent directories up to destRoot, and removes the
// corresponding entry from lf. dryRun reports what would happen without
// touching the filesystem or lockfile (spec §4.6 "dry_run mode will show
// what would be deleted but won't delete").
func Run(candidates []Candidate, mode Mode, fs fsport.FileSystem, lf *lockfile.Lockfile, destRoot string, dryRun bool) []Deletion {
	results := make([]Deletion, 0, len(candidates))

	for _, c := range candidates {
		if !c.Exists {
			continue
		}

		shouldDelete := mode == Force || (mode == Cleanup && c.IsSafeToDelete())
		if !shouldDelete {
			results = append(results, Deletion{Candidate: c, Skipped: true})
			continue
		}

		if dryRun {
			results = append(results, Deletion{Candidate: c, Deleted: true})
			continue
		}

		if err := fs.Remove(c.Path); err != nil {
			results = append(results, Deletion{Candidate: c, Err: err})
			continue
		}
		if local, ok := fs.(interface {
			RemoveEmptyParents(path, stopAt string)
		}); ok {
			local.RemoveEmptyParents(c.Path, destRoot)
		}
		lf.Remove(c.Key)

		results = append(results, Deletion{Candidate: c, Deleted: true})
	}

	return results
}
