package cart

import (
	"context"
	"sync"
)

// MemoryStorage keeps carts in process memory
type MemoryStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

// Load returns the stored blob or nil
func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw, ok := m.blobs[key]; ok {
		return append([]byte(nil), raw...), nil
	}
	return nil, nil
}

// Update applies fn under the storage lock
func (m *MemoryStorage) Update(_ context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(m.blobs[key])
	if err != nil {
		return err
	}
	m.blobs[key] = next
	return nil
}
