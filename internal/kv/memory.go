package kv

import "sync"

// Memory is a session-scoped store: contents live only as long as the value.
// A non-zero Quota limits the summed length of keys and values, which lets
// tests reproduce a full browser storage.
type Memory struct {
	Quota int

	mu   sync.Mutex
	data map[string]string
	used int
}

// NewMemory creates an empty, unlimited Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}

	used := m.used
	if old, ok := m.data[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(val)
	if m.Quota > 0 && used > m.Quota {
		return ErrQuotaExceeded
	}

	m.data[key] = val
	m.used = used
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
