package rosekv

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWAL(t *testing.T, opts ...OptionFn) *WAL {
	t.Helper()
	dir := t.TempDir()
	all := append([]OptionFn{WithDirPath(dir)}, opts...)
	w, err := New(all...)
	require.NoError(t, err)
	t.Cleanup(func() {
		defer func() { recover() }()
		_ = w.Close()
	})
	return w
}

func TestWAL_WriteReadRoundTrip(t *testing.T) {
	w := newTestWAL(t)

	id, offset, err := w.Write([]byte("hello"))
	require.NoError(t, err)

	got, err := w.ReadAt(id, offset)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestWAL_RolloverAcrossSegments(t *testing.T) {
	w := newTestWAL(t, WithMaxSegmentSize(1024*1024))

	record := bytes64KiB()
	seenSegments := map[SegmentID]bool{}

	type written struct {
		id     SegmentID
		offset int64
	}
	var all []written

	for i := 0; i < 32; i++ { // 32 * 64KiB == 2MiB
		id, offset, err := w.Write(record)
		require.NoError(t, err)
		seenSegments[id] = true
		all = append(all, written{id, offset})
	}

	assert.GreaterOrEqual(t, len(seenSegments), 2)

	for _, rec := range all {
		got, err := w.ReadAt(rec.id, rec.offset)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	}
}

func TestWAL_OversizeRejected(t *testing.T) {
	w := newTestWAL(t, WithMaxSegmentSize(64*1024))

	_, _, err := w.Write(make([]byte, 65530))
	assert.ErrorIs(t, err, ErrTooLargeData)
}

func TestWAL_ActiveSegmentIsNumericallyGreatest(t *testing.T) {
	dir := t.TempDir()

	w := newTestWAL(t, WithDirPath(dir), WithMaxSegmentSize(1024))
	// Force several rollovers so segment ids go past 9, exercising the
	// "10.seg" vs "2.seg" ordering bug spec.md §9 calls out.
	for i := 0; i < 12; i++ {
		_, _, err := w.Write(make([]byte, 900))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	w2, err := New(WithDirPath(dir), WithMaxSegmentSize(1024))
	require.NoError(t, err)
	defer w2.Close()

	id, _, err := w2.Write([]byte("tail"))
	require.NoError(t, err)
	assert.Equal(t, w2.nextID, id)
	assert.Greater(t, int64(id), int64(9))
}

func TestWAL_ReopenResumesAtEndOfFile(t *testing.T) {
	dir := t.TempDir()

	w := newTestWAL(t, WithDirPath(dir))
	id, offset, err := w.Write([]byte("first"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w2, err := New(WithDirPath(dir))
	require.NoError(t, err)
	defer w2.Close()

	got, err := w2.ReadAt(id, offset)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	id2, offset2, err := w2.Write([]byte("second"))
	require.NoError(t, err)

	got2, err := w2.ReadAt(id2, offset2)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got2)

	got1again, err := w2.ReadAt(id, offset)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got1again)
}

func TestWAL_SkipsFilesWithOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))

	w, err := New(WithDirPath(dir))
	require.NoError(t, err)
	defer w.Close()

	_, _, err = w.Write([]byte("x"))
	require.NoError(t, err)
}

func TestWAL_SyncPerWrite(t *testing.T) {
	w := newTestWAL(t, WithSyncPerWrite(true))

	_, _, err := w.Write([]byte("x"))
	require.NoError(t, err)

	stats := w.Stats()
	assert.Equal(t, int64(1), stats.SyncOps)
	assert.Equal(t, int64(0), stats.BytesSinceSync)
}

func TestWAL_SyncBytesThreshold(t *testing.T) {
	w := newTestWAL(t, WithSyncBytesThreshold(10))

	_, _, err := w.Write([]byte("12345")) // 5 bytes, below threshold
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Stats().SyncOps)

	_, _, err = w.Write([]byte("67890")) // cumulative 10 bytes, hits threshold
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Stats().SyncOps)
}

func TestWAL_BackgroundSync(t *testing.T) {
	w := newTestWAL(t, WithSyncInterval(10*time.Millisecond))

	_, _, err := w.Write([]byte("x"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return w.Stats().SyncOps > 0
	}, time.Second, 5*time.Millisecond)
}

func TestWAL_IOStatsAccumulate(t *testing.T) {
	w := newTestWAL(t)

	records := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	var total int64
	for _, r := range records {
		_, _, err := w.Write(r)
		require.NoError(t, err)
		total += int64(len(r))
	}

	stats := w.Stats()
	assert.Equal(t, int64(len(records)), stats.TotalWriteOps)
	assert.Equal(t, total, stats.TotalBytesWritten)
}

func bytes64KiB() []byte {
	b := make([]byte, 64*1024)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
