package rosekv

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/divedb/rosekv/internal/storage"
)

// WAL owns an ordered roster of Segments keyed by numeric id, routes
// appends to the active (greatest-id) segment, creates new segments on
// rollover, and enforces the configured sync policy.
type WAL struct {
	opts  options
	store storage.Store

	mu       sync.RWMutex
	segments map[SegmentID]*Segment
	nextID   SegmentID
	stats    ioStats
	lastErr  error

	stopCh chan struct{}
	doneCh chan struct{}
}

// New opens (or creates) a WAL directory under the given options,
// discovers any existing segments, and starts the background sync task if
// options.syncInterval is set.
func New(opts ...OptionFn) (*WAL, error) {
	w := &WAL{
		opts:     defaultOptions,
		segments: make(map[SegmentID]*Segment),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, o := range opts {
		o(w)
	}

	if w.opts.dirPath == "" {
		return nil, fmt.Errorf("wal: dirPath is required")
	}

	if err := os.MkdirAll(w.opts.dirPath, 0755); err != nil {
		w.lastErr = err
		logger.Error("failed to create wal directory", zap.String("dirPath", w.opts.dirPath), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}

	w.store = storage.NewLocalStore(w.opts.dirPath)

	if err := w.loadSegments(); err != nil {
		return nil, err
	}

	if w.opts.syncInterval > 0 {
		go w.backgroundSync()
	} else {
		close(w.doneCh)
	}

	return w, nil
}

// loadSegments scans the WAL directory non-recursively for files whose
// extension matches opts.fileExt, opens each as a Segment, and sets nextID
// to the greatest numeric id found (0 if none). Files with other
// extensions are skipped with a log note (spec.md §4.2).
func (w *WAL) loadSegments() error {
	names, err := w.store.List()
	if err != nil {
		w.lastErr = err
		return fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}

	sort.Strings(names)

	for _, name := range names {
		id, ok := parseSegmentID(name, w.opts.fileExt)
		if !ok {
			logger.Info("skipping file with unsupported extension", zap.String("name", name))
			continue
		}

		seg, err := openSegment(w.store, name, id)
		if err != nil {
			w.lastErr = err
			logger.Error("failed to open segment", zap.String("name", name), zap.Error(err))
			return err
		}

		w.segments[id] = seg
		if id > w.nextID {
			w.nextID = id
		}
	}

	return nil
}

// parseSegmentID extracts the numeric id from a basename of the form
// "<id><ext>".
func parseSegmentID(name, ext string) (SegmentID, bool) {
	if !strings.HasSuffix(name, ext) {
		return 0, false
	}

	idStr := strings.TrimSuffix(name, ext)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, false
	}

	return SegmentID(id), true
}

func segmentName(id SegmentID, ext string) string {
	return fmt.Sprintf("%d%s", int64(id), ext)
}

// Write appends record to the active segment, rolling over to a new
// segment first if it would not fit, and syncs according to the configured
// policy. It and Close are the only operations that take the WAL's
// exclusive lock.
func (w *WAL) Write(record []byte) (SegmentID, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if int64(len(record))+headerSize > w.opts.maxSegmentSize {
		return 0, 0, ErrTooLargeData
	}

	seg := w.activeSegmentLocked()
	var err error

	if seg == nil || seg.Size()+requiredSpace(int64(len(record))) > w.opts.maxSegmentSize {
		seg, err = w.rolloverLocked()
		if err != nil {
			return 0, 0, err
		}
	}

	offset, err := seg.Append(record)
	if err != nil {
		w.lastErr = err
		return 0, 0, err
	}

	w.stats.recordWrite(int64(len(record)))
	debugLog(w.opts.verboseLogging, "wal: wrote record", zap.Int64("segment", int64(seg.id)), zap.Int64("offset", offset), zap.Int("bytes", len(record)))

	if w.needSyncLocked() {
		if err := seg.Sync(); err != nil {
			w.lastErr = err
			return seg.id, offset, err
		}
		w.stats.recordSync()
		debugLog(w.opts.verboseLogging, "wal: synced segment", zap.Int64("segment", int64(seg.id)))
	}

	return seg.id, offset, nil
}

// activeSegmentLocked returns the greatest-id segment, or nil if the
// roster is empty. Caller must hold w.mu.
func (w *WAL) activeSegmentLocked() *Segment {
	if len(w.segments) == 0 {
		return nil
	}

	return w.segments[w.nextID]
}

// rolloverLocked creates a new segment with id = nextID+1 and installs it
// as active. Caller must hold w.mu.
func (w *WAL) rolloverLocked() (*Segment, error) {
	id := w.nextID + 1
	name := segmentName(id, w.opts.fileExt)

	seg, err := openSegment(w.store, name, id)
	if err != nil {
		w.lastErr = err
		logger.Error("failed to create segment", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	w.segments[id] = seg
	w.nextID = id
	debugLog(w.opts.verboseLogging, "wal: rolled over to new segment", zap.Int64("segment", int64(id)))

	return seg, nil
}

// needSyncLocked reports whether the sync policy requires syncing now.
// Caller must hold w.mu.
func (w *WAL) needSyncLocked() bool {
	if w.opts.syncPerWrite {
		return true
	}

	if w.opts.syncBytesThreshold > 0 && w.stats.bytesSinceSync.Load() >= w.opts.syncBytesThreshold {
		return true
	}

	return false
}

// ReadAt reads the record whose first chunk begins at offset within the
// named segment.
func (w *WAL) ReadAt(id SegmentID, offset int64) ([]byte, error) {
	w.mu.RLock()
	seg, ok := w.segments[id]
	w.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: segment %d", ErrNoSegments, id)
	}

	return seg.ReadAt(offset)
}

// Sync flushes every segment in the roster to durable storage. Safe to
// call concurrently with other Syncs; serializes against Write.
func (w *WAL) Sync() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for id, seg := range w.segments {
		if err := seg.Sync(); err != nil {
			return fmt.Errorf("segment %d: %w", id, err)
		}
	}

	w.stats.recordSync()

	return nil
}

// Stats returns a snapshot of the WAL's IO counters.
func (w *WAL) Stats() IOStats {
	return w.stats.snapshot()
}

// LastError returns the most recent filesystem error observed by this WAL,
// or nil.
func (w *WAL) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// backgroundSync runs until Close is called, syncing every syncInterval.
// It mirrors go-wal/wal.go's ticker-driven loop: a single goroutine
// started from New, stopped and joined from Close.
func (w *WAL) backgroundSync() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.opts.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.Sync(); err != nil {
				logger.Warn("background sync failed", zap.Error(err))
			}
		}
	}
}

// Close stops the background sync task (if any), syncs, and closes every
// segment. Idempotent is not required by the spec, but Close is safe to
// call at most once.
func (w *WAL) Close() error {
	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for id, seg := range w.segments {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("segment %d: %w", id, err)
		}
	}

	return firstErr
}
