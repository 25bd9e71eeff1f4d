package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_AppendAndConcurrentReadAt(t *testing.T) {
	store := NewMemStore()

	f, desc, err := store.OpenOrCreate("1.seg")
	require.NoError(t, err)
	assert.Equal(t, InMemory, desc.Loc)

	_, err = f.Append([]byte("part1"))
	require.NoError(t, err)

	// Unlike go-fs's split Writable/Readable model, a file that is still
	// open for appends can be read back through the same or a second
	// handle on the same name.
	f2, _, err := store.OpenOrCreate("1.seg")
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = f2.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "part1", string(buf))

	_, err = f.Append([]byte("part2"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), f2.Size())
}

func TestMemStore_ReadPastEndErrors(t *testing.T) {
	store := NewMemStore()
	f, _, err := store.OpenOrCreate("1.seg")
	require.NoError(t, err)

	_, err = f.Append([]byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 10)
	_, err = f.ReadAt(buf, 0)
	assert.Error(t, err)
}

func TestMemStore_ListAndRemove(t *testing.T) {
	store := NewMemStore()
	_, _, err := store.OpenOrCreate("1.seg")
	require.NoError(t, err)
	_, _, err = store.OpenOrCreate("2.seg")
	require.NoError(t, err)

	names, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.seg", "2.seg"}, names)

	require.NoError(t, store.Remove("1.seg"))
	require.Error(t, store.Remove("1.seg"))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"2.seg"}, names)
}
