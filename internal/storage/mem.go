package storage

import (
	"errors"
	"sync"
)

var errFileNotFound = errors.New("storage: file not found")

// memStore is the in-memory Store, adapted from go-fs's inmemStorage. Unlike
// go-fs's memFile, which forbids Open while a Writable handle is still
// open, memFile here allows ReadAt at any time: a WAL segment is read back
// by offset while it is still the open, active segment.
type memStore struct {
	mu    sync.Mutex
	files map[string]*memFile
}

// NewMemStore returns a Store that keeps all files in memory. It exists for
// tests: segment_test.go and wal_test.go exercise the chunking and rollover
// logic against it the way go-wal/page_test.go and go-fs/inmem_test.go
// exercise their code against go_fs.NewInmemStorage().
func NewMemStore() Store {
	return &memStore{files: make(map[string]*memFile)}
}

func (s *memStore) OpenOrCreate(name string) (File, FileDesc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[name]
	if !ok {
		f = &memFile{}
		s.files[name] = f
	}

	return &memHandle{f: f}, FileDesc{Name: name, Loc: InMemory}, nil
}

func (s *memStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}

	return names, nil
}

func (s *memStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; !ok {
		return errFileNotFound
	}

	delete(s.files, name)
	return nil
}

// memFile is the shared backing buffer for a name; multiple memHandle
// values (one per OpenOrCreate call) may reference the same memFile, the
// way multiple file descriptors can reference the same on-disk inode.
type memFile struct {
	mu   sync.RWMutex
	data []byte
}

func (f *memFile) append(p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(f.data, p...)
	return len(p)
}

func (f *memFile) readAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if off >= int64(len(f.data)) {
		return 0, errors.New("storage: read past end of file")
	}

	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, errors.New("storage: short read")
	}

	return n, nil
}

func (f *memFile) size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data))
}

type memHandle struct {
	f *memFile
}

func (h *memHandle) Append(p []byte) (int, error) {
	return h.f.append(p), nil
}

func (h *memHandle) ReadAt(p []byte, off int64) (int, error) {
	return h.f.readAt(p, off)
}

func (h *memHandle) Size() int64 {
	return h.f.size()
}

func (h *memHandle) Sync() error {
	return nil
}

func (h *memHandle) Close() error {
	return nil
}

var _ File = (*memHandle)(nil)
var _ Store = (*memStore)(nil)
