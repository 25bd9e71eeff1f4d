package rosekv

import "sync/atomic"

// IOStats is a point-in-time snapshot of the WAL's running counters.
// TotalBytesWritten and TotalWriteOps accumulate for the WAL's whole
// lifetime; BytesSinceSync and OpsSinceSync reset every time a sync runs,
// mirroring the two counter pairs in the original implementation's IOStats
// (cur_* vs total_*).
type IOStats struct {
	TotalBytesWritten int64
	TotalWriteOps     int64
	BytesSinceSync    int64
	OpsSinceSync      int64
	SyncOps           int64
}

// ioStats holds the live counters as atomics so that Write (under the
// WAL's exclusive lock) and Sync (under its shared lock, so possibly
// concurrent with other Syncs) never race on them.
type ioStats struct {
	totalBytesWritten atomic.Int64
	totalWriteOps     atomic.Int64
	bytesSinceSync    atomic.Int64
	opsSinceSync      atomic.Int64
	syncOps           atomic.Int64
}

func (s *ioStats) recordWrite(n int64) {
	s.totalBytesWritten.Add(n)
	s.totalWriteOps.Add(1)
	s.bytesSinceSync.Add(n)
	s.opsSinceSync.Add(1)
}

func (s *ioStats) recordSync() {
	s.syncOps.Add(1)
	s.bytesSinceSync.Store(0)
	s.opsSinceSync.Store(0)
}

func (s *ioStats) snapshot() IOStats {
	return IOStats{
		TotalBytesWritten: s.totalBytesWritten.Load(),
		TotalWriteOps:     s.totalWriteOps.Load(),
		BytesSinceSync:    s.bytesSinceSync.Load(),
		OpsSinceSync:      s.opsSinceSync.Load(),
		SyncOps:           s.syncOps.Load(),
	}
}
