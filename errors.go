package rosekv

import "errors"

// Error kinds returned by Segment and WAL operations. They are sentinel
// values rather than exceptions; wrap them with fmt.Errorf("...: %w", err)
// for context and unwrap with errors.Is.
var (
	// ErrTooLargeData is returned by WAL.Write when a record cannot fit
	// in a fresh segment under the configured max segment size.
	ErrTooLargeData = errors.New("wal: data too large for a segment")

	// ErrOpenFailed is returned when the underlying store refuses to
	// open or create a segment file.
	ErrOpenFailed = errors.New("wal: failed to open segment")

	// ErrIOFailed is returned when a read or write moved fewer bytes
	// than expected, or a flush failed.
	ErrIOFailed = errors.New("wal: io operation failed")

	// ErrCorruption is returned when a chunk's CRC does not match its
	// header and payload, or the chunk-type chain is malformed.
	ErrCorruption = errors.New("wal: corrupted chunk")

	// ErrInvalidOffset is returned when ReadAt is given an offset
	// outside the segment's written range.
	ErrInvalidOffset = errors.New("wal: invalid offset")

	// ErrClosed is returned by operations on a closed Segment, including
	// WAL calls that reach one. The WAL itself keeps no closed state.
	ErrClosed = errors.New("wal: segment closed")

	// ErrNoSegments is returned by WAL.ReadAt when the roster holds no
	// segment with the requested id.
	ErrNoSegments = errors.New("wal: no segments")
)
