package store

import (
	"context"
	"maps"
	"sync"
)

// Memory keeps runtime properties in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]any)}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, key string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	props, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(props), nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, key string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = maps.Clone(props)
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
