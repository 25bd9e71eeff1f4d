// Package rosekv implements the write-ahead log core used as the
// durability layer of a key-value store.
//
// A WAL is an ordered roster of Segments, each a chunked, block-aligned,
// CRC-protected append-only file. Callers append opaque records and get
// back a byte offset; ReadAt on that offset later reconstructs the exact
// bytes that were appended, even if the record spanned several chunks. The
// WAL routes writes to the active (highest-id) segment, rolls over to a new
// segment when the active one would exceed its size limit, and enforces a
// configurable sync policy (per-write, byte-threshold, or a periodic
// background sync).
//
// The package deliberately does not index records: callers retain the
// offsets they need. It does not compact, checkpoint, or truncate
// segments, and a record never spans two segments.
package rosekv
