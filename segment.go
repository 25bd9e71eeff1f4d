package rosekv

import (
	"fmt"
	"sync"

	"github.com/divedb/rosekv/internal/bufpool"
	"github.com/divedb/rosekv/internal/storage"
)

// SegmentID is a segment file's numeric id; segment files are named
// "<id><ext>" and ordered numerically so the greatest id is the active
// segment (see WAL.activeSegment).
type SegmentID int64

// Segment owns one file and encodes appended records into a block-aligned
// chunk stream (spec.md §4.1). It is only ever touched by its owning WAL.
// Its mutex guards the closed flag and the write offset: Append, Sync,
// Close and the accessors hold it for the whole call, while ReadAt holds it
// only to check the closed flag.
type Segment struct {
	id     SegmentID
	file   storage.File
	offset int64 // == file.Size(); equals the next write offset.

	mu     sync.Mutex
	closed bool
}

// openSegment opens (or creates) a segment file through store and restores
// offset from the file's current size, so re-opening an existing segment
// resumes appends at end-of-file instead of overwriting it from zero — the
// bug spec.md §9 calls out in the source this package is grounded on.
func openSegment(store storage.Store, name string, id SegmentID) (*Segment, error) {
	f, _, err := store.OpenOrCreate(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, name, err)
	}

	return &Segment{id: id, file: f, offset: f.Size()}, nil
}

// Append encodes record into one or more chunks, writes them to the
// segment in a single call, and returns the file offset of the record's
// first chunk. The whole chunk chain is built in memory first so a failing
// write never partially advances the segment's offset.
func (s *Segment) Append(record []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	start := s.offset
	buf := bufpool.Get(int(requiredSpace(int64(len(record)))))
	defer bufpool.Put(buf)

	buf = s.encodeRecord(buf, record)

	n, err := s.file.Append(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	if n != len(buf) {
		return 0, fmt.Errorf("%w: wrote %d of %d bytes", ErrIOFailed, n, len(buf))
	}

	s.offset += int64(n)

	return start, nil
}

// encodeRecord appends the chunk-encoded form of record to buf, splitting
// it into FIRST/MIDDLE/LAST chunks (or a single FULL chunk) as needed so
// that no chunk straddles a block boundary, and padding the tail of any
// block that a chunk header would not fit in. pos tracks the file offset
// buf's next byte will land at, starting from s.offset.
func (s *Segment) encodeRecord(buf []byte, record []byte) []byte {
	pos := s.offset
	remaining := record

	avail := func() int64 {
		return blockSize - pos%blockSize - headerSize
	}

	writeChunk := func(payload []byte, typ RecordType) {
		hdrOff := len(buf)
		buf = append(buf, make([]byte, headerSize+len(payload))...)
		encodeChunk(buf[hdrOff:], payload, typ)
		pos += int64(headerSize + len(payload))

		if rem := blockSize - pos%blockSize; rem <= headerSize {
			buf = append(buf, make([]byte, rem)...)
			pos += rem
		}
	}

	if int64(len(remaining)) <= avail() {
		writeChunk(remaining, FullType)
		return buf
	}

	first := remaining[:avail()]
	remaining = remaining[avail():]
	writeChunk(first, FirstType)

	for int64(len(remaining)) > avail() {
		mid := remaining[:avail()]
		remaining = remaining[avail():]
		writeChunk(mid, MiddleType)
	}

	writeChunk(remaining, LastType)

	return buf
}

// ReadAt reconstructs the record whose first chunk begins at (or is
// reachable by aligning) offset, following the FIRST/MIDDLE*/LAST chain
// until a FULL or LAST chunk ends it.
func (s *Segment) ReadAt(offset int64) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	var result []byte
	o := offset

	for {
		o = alignForRead(o)

		hdr := bufpool.Get(headerSize)
		hdr = hdr[:headerSize]
		if _, err := s.file.ReadAt(hdr, o); err != nil {
			bufpool.Put(hdr)
			return nil, fmt.Errorf("%w: header at %d: %v", ErrInvalidOffset, o, err)
		}
		h := decodeChunkHeader(hdr)
		bufpool.Put(hdr)

		if int64(h.len) > maxPayloadPerChunk {
			return nil, fmt.Errorf("%w: chunk len %d at offset %d", ErrCorruption, h.len, o)
		}

		payload := bufpool.Get(int(h.len))
		payload = payload[:h.len]
		if h.len > 0 {
			if _, err := s.file.ReadAt(payload, o+headerSize); err != nil {
				bufpool.Put(payload)
				return nil, fmt.Errorf("%w: payload at %d: %v", ErrIOFailed, o+headerSize, err)
			}
		}

		if !verifyCRC(h, payload) {
			bufpool.Put(payload)
			return nil, fmt.Errorf("%w: crc mismatch at offset %d", ErrCorruption, o)
		}

		result = append(result, payload...)
		bufpool.Put(payload)

		if h.typ == FullType || h.typ == LastType {
			return result, nil
		}
		if h.typ != FirstType && h.typ != MiddleType {
			return nil, fmt.Errorf("%w: unexpected chunk type %v at offset %d", ErrCorruption, h.typ, o)
		}

		o += headerSize + int64(h.len)
	}
}

// alignForRead skips to the next block when o falls in that block's
// padding tail (headerSize bytes or fewer remain before the boundary).
func alignForRead(o int64) int64 {
	remain := blockSize - o%blockSize
	if remain <= headerSize {
		return o + remain
	}
	return o
}

// Sync flushes buffered data to durable storage.
func (s *Segment) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	return nil
}

// Close syncs best-effort then closes the underlying file. Idempotent.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	_ = s.file.Sync()
	err := s.file.Close()
	s.closed = true

	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailed, err)
	}
	return nil
}

// Size returns the segment's current length in bytes.
func (s *Segment) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// IsClosed reports whether Close has been called.
func (s *Segment) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RequiredSpace returns the number of bytes appending a record of length l
// would add to this segment, per requiredSpace.
func (s *Segment) RequiredSpace(l int64) int64 {
	return requiredSpace(l)
}
