package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryObjects keeps objects in process memory.
type MemoryObjects struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{objects: make(map[string][]byte)}
}

// NewMemory returns a store that loses everything on exit.
func NewMemory() *Store {
	return New(NewMemoryObjects())
}

func (m *MemoryObjects) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(data)
	return nil
}

func (m *MemoryObjects) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, found := m.objects[key]
	if !found {
		return nil, ErrObjectNotFound
	}
	return slices.Clone(data), nil
}

func (m *MemoryObjects) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	return keys, nil
}

func (m *MemoryObjects) Close() error {
	return nil
}
