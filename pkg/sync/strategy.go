package sync

// BatchThreshold is the item count above which remote syncs prefer a
// staged rsync/scp transfer over one write per file (spec §4.5 "Batch
// strategy": "> 10 files and a working rsync").
const BatchThreshold = 10

// UseBatchTransfer decides whether a remote sync should stage files
// locally and transfer them in one rsync/scp call rather than writing
// each file over its own SSH round-trip.
func UseBatchTransfer(itemCount int, hasRsync bool) bool {
	return itemCount > BatchThreshold && hasRsync
}
