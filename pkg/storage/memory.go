package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"sync"

	kio "github.com/opst/datapod/pkg/utils/io"
)

// MemoryStore is an in-memory blob store, backing "memory" protocol.
//
// It is safe for concurrent use.
type MemoryStore struct {
	m     sync.Mutex
	blobs map[string][]byte
}

// SharedMemory is the process-wide MemoryStore.
var SharedMemory = NewMemoryStore()

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

// Filesystem returns Filesystem view of the store.
func (s *MemoryStore) Filesystem() Filesystem {
	return memoryFS{store: s}
}

// Keys stored, sorted.
func (s *MemoryStore) Keys() []string {
	s.m.Lock()
	defer s.m.Unlock()

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns a copy of the blob.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.m.Lock()
	defer s.m.Unlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(b), true
}

// Set stores a copy of the blob.
func (s *MemoryStore) Set(key string, blob []byte) {
	s.m.Lock()
	defer s.m.Unlock()
	s.blobs[key] = bytes.Clone(blob)
}

func (s *MemoryStore) Delete(key string) {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.blobs, key)
}

type memoryFS struct {
	store *MemoryStore
}

func (m memoryFS) Open(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := m.store.Get(path)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memoryFS) Create(_ context.Context, path string) (io.WriteCloser, error) {
	return kio.CommitOnClose(func(b []byte) error {
		m.store.Set(path, b)
		return nil
	}), nil
}

func (m memoryFS) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.store.Get(path)
	return ok, nil
}

func (m memoryFS) Put(_ context.Context, localPath string, path string) error {
	b, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", path, err)
	}
	m.store.Set(path, b)
	return nil
}
