package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// localStore roots Files at real files under dirPath. It is the
// production Store used outside of tests; go-fs, the package it is adapted
// from, never grew a disk-backed implementation of its own (only
// NewInmemStorage), so this is new code written in its idiom.
type localStore struct {
	dirPath string
}

// NewLocalStore returns a Store backed by regular files under dirPath.
// dirPath must already exist; callers are expected to MkdirAll it first
// (the WAL constructor does this itself so it can log the failure with
// context).
func NewLocalStore(dirPath string) Store {
	return &localStore{dirPath: dirPath}
}

func (s *localStore) OpenOrCreate(name string) (File, FileDesc, error) {
	path := filepath.Join(s.dirPath, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, FileDesc{}, err
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, FileDesc{}, err
	}

	return &localFile{f: f, size: size}, FileDesc{Name: name, Loc: LocalDisk}, nil
}

func (s *localStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dirPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}

	return names, nil
}

func (s *localStore) Remove(name string) error {
	return os.Remove(filepath.Join(s.dirPath, name))
}

// localFile wraps an *os.File opened for read+write. Appends are
// serialized by the caller (a Segment is only ever mutated under the WAL's
// write lock), so localFile keeps no lock of its own; it tracks size so
// Append never has to re-stat the file.
type localFile struct {
	f    *os.File
	size int64
}

func (l *localFile) Append(p []byte) (int, error) {
	n, err := l.f.WriteAt(p, l.size)
	l.size += int64(n)
	return n, err
}

func (l *localFile) ReadAt(p []byte, off int64) (int, error) {
	return l.f.ReadAt(p, off)
}

func (l *localFile) Size() int64 {
	return l.size
}

func (l *localFile) Sync() error {
	return l.f.Sync()
}

func (l *localFile) Close() error {
	if err := l.f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

var _ File = (*localFile)(nil)
var _ Store = (*localStore)(nil)
