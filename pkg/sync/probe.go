package sync

import "github.com/calvin-dev/calvin/pkg/fsport"

// FsProbe adapts an fsport.FileSystem to DestinationProbe by probing one
// path at a time; used for local destinations where each probe is a plain
// stat+read (spec §4.5 "For local destinations, classification reads the
// filesystem directly").
type FsProbe struct {
	FS fsport.FileSystem
}

func (p FsProbe) Probe(path string) (exists bool, hash string, err error) {
	if !p.FS.Exists(path) {
		return false, "", nil
	}
	h, err := p.FS.Hash(path)
	if err != nil {
		return false, "", err
	}
	return true, h, nil
}

// BatchedProbe adapts a pre-fetched map of fsport.ProbeResult (as returned
// by Remote.BatchProbe) to DestinationProbe, so Stage 1 classification
// runs identically whether the underlying probe was one-at-a-time or
// batched (spec §4.5 "one round-trip per plan, not per file").
type BatchedProbe struct {
	Results map[string]fsport.ProbeResult
}

func (p BatchedProbe) Probe(path string) (exists bool, hash string, err error) {
	r, ok := p.Results[path]
	if !ok {
		return false, "", nil
	}
	return r.Exists, r.Hash, nil
}
