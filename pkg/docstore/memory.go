package docstore

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory returns a process local store, used for development and tests.
func NewMemory() *RowStore {
	return newRowStore(&memoryBackend{data: make(map[string]map[string][]byte)})
}

func (m *memoryBackend) name() string { return "memory" }

func (m *memoryBackend) loadRow(_ context.Context, collection, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[collection][key]
	if !ok {
		return nil, false, nil
	}
	return clone(raw), true, nil
}

func (m *memoryBackend) listRows(_ context.Context, collection string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make(map[string][]byte, len(m.data[collection]))
	for key, raw := range m.data[collection] {
		rows[key] = clone(raw)
	}
	return rows, nil
}

func (m *memoryBackend) saveRow(_ context.Context, collection, key string, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(collection)[key] = clone(raw)
	return nil
}

func (m *memoryBackend) insertRow(_ context.Context, collection, key string, raw []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.bucket(collection)
	if _, exists := rows[key]; exists {
		return false, nil
	}
	rows[key] = clone(raw)
	return true, nil
}

func (m *memoryBackend) deleteRow(_ context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], key)
	return nil
}

func (m *memoryBackend) close(context.Context) error { return nil }

func (m *memoryBackend) bucket(collection string) map[string][]byte {
	rows, ok := m.data[collection]
	if !ok {
		rows = make(map[string][]byte)
		m.data[collection] = rows
	}
	return rows
}

func clone(raw []byte) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}
