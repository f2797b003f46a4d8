package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// ContentStore holds file bytes under opaque keys. Implementations are
// Backblaze B2 for deployments and an in-memory store for local runs
// and tests. Keys never collide with tree state: deleting a key does
// not touch any node, and vice versa.
type ContentStore interface {
	// Put streams r into the store under key and returns the number of
	// bytes written. A failed Put must not leave a readable key behind.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader over the content stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key's content. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// MemoryContentStore keeps blobs in process memory.
type MemoryContentStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{blobs: make(map[string][]byte)}
}

func (s *MemoryContentStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *MemoryContentStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryContentStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Len reports the number of stored blobs.
func (s *MemoryContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
