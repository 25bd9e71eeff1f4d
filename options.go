package rosekv

import (
	"fmt"
	"strings"
	"time"
)

// OptionFn configures a WAL at construction time, following the functional
// options shape used throughout the teacher package (go-wal/options.go).
type OptionFn func(*WAL)

type options struct {
	// dirPath is the directory segment files are stored in and loaded
	// from.
	dirPath string

	// fileExt is the segment filename extension, including the leading
	// dot.
	fileExt string

	// maxSegmentSize is the upper bound on a single segment file, in
	// bytes.
	maxSegmentSize int64

	// syncPerWrite forces a Sync of the active segment at the end of
	// every successful Write.
	syncPerWrite bool

	// syncBytesThreshold is the cumulative number of bytes written
	// since the last sync that triggers an implicit sync inside Write.
	// Zero disables the byte-threshold trigger.
	syncBytesThreshold int64

	// syncInterval is the period of the background sync task. Zero
	// disables it.
	syncInterval time.Duration

	// compressionEnabled is advisory: it does not change core behavior,
	// it only records that sealed segments may be compressed by an
	// external process.
	compressionEnabled bool

	// verboseLogging enables this WAL's debug-level log lines (writes,
	// syncs, rollovers). It does not change the package logger's level, so
	// those lines appear only if that logger is enabled for debug.
	verboseLogging bool
}

const defaultFileExtension = ".seg"

var defaultOptions = options{
	fileExt:        defaultFileExtension,
	maxSegmentSize: 64 * 1024 * 1024,
}

// WithDirPath sets the WAL's segment directory. Required.
func WithDirPath(dirPath string) OptionFn {
	return func(w *WAL) {
		w.opts.dirPath = dirPath
	}
}

// WithFileExt sets the segment filename extension. A leading "." is added
// if missing.
func WithFileExt(ext string) OptionFn {
	return func(w *WAL) {
		if !strings.HasPrefix(ext, ".") {
			ext = fmt.Sprintf(".%s", ext)
		}
		w.opts.fileExt = ext
	}
}

// WithMaxSegmentSize sets the upper bound on a single segment file.
func WithMaxSegmentSize(n int64) OptionFn {
	return func(w *WAL) {
		w.opts.maxSegmentSize = n
	}
}

// WithSyncPerWrite makes every Write sync the active segment before
// returning.
func WithSyncPerWrite(sync bool) OptionFn {
	return func(w *WAL) {
		w.opts.syncPerWrite = sync
	}
}

// WithSyncBytesThreshold sets the cumulative-bytes-since-last-sync trigger.
func WithSyncBytesThreshold(n int64) OptionFn {
	return func(w *WAL) {
		w.opts.syncBytesThreshold = n
	}
}

// WithSyncInterval sets the background sync task's period. Zero disables
// the task.
func WithSyncInterval(d time.Duration) OptionFn {
	return func(w *WAL) {
		w.opts.syncInterval = d
	}
}

// WithCompressionEnabled records that sealed segments may be compressed
// externally. It does not change how this package reads or writes them.
func WithCompressionEnabled(enabled bool) OptionFn {
	return func(w *WAL) {
		w.opts.compressionEnabled = enabled
	}
}

// WithVerboseLogging enables this WAL's debug-level log lines. The package
// logger's level is left as it is.
func WithVerboseLogging(verbose bool) OptionFn {
	return func(w *WAL) {
		w.opts.verboseLogging = verbose
	}
}
