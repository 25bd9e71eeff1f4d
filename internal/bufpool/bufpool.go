// Package bufpool is a size-classed pool of byte slices, adapted from the
// sibling go-bytesbufferpool library. The segment format bounds every chunk
// buffer at one block (32 KiB, spec.md §4.1), but individual records range
// from empty to multi-block, so a single fixed-size sync.Pool (as
// go-wal/page.go's readBufferPool used) either wastes memory on small
// records or forces a fresh allocation for anything over 32 KiB; power-of-
// two size classes fix both.
package bufpool

import (
	"math/bits"
	"sync"
)

const maximumPoolCount = 24

// pools[0] serves capacities 0..256, pools[1] serves 257..512, ...,
// pools[n] serves 2^(n+7)+1..2^(n+8). Capacities above 2^(24+7) are not
// pooled; there is no reuse benefit for buffers that large.
var pools [maximumPoolCount]sync.Pool

// Get returns a zero-length slice with capacity at least n.
func Get(n int) []byte {
	id, capacity := classOf(n)
	if capacity < n {
		return make([]byte, 0, n)
	}
	if b := pools[id].Get(); b != nil {
		return b.([]byte)[:0]
	}
	return make([]byte, 0, capacity)
}

// Put returns buf to the pool for reuse. Buffers whose capacity does not
// exactly fit a size class (e.g. a caller-supplied slice) are dropped
// rather than pooled.
func Put(buf []byte) {
	id, capacity := classOf(cap(buf))
	if cap(buf) != capacity {
		return
	}
	pools[id].Put(buf[:0]) //nolint:staticcheck // pool wants zero-length, full-capacity slices
}

func classOf(n int) (id int, capacity int) {
	n--
	n = max(n, 0)
	n >>= 8
	id = bits.Len(uint(n))
	id = min(id, maximumPoolCount-1)
	return id, 1 << (id + 8)
}
