package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps values in process memory. Used by tests and STORAGE_DRIVER=memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV constructs an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", miss()
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
