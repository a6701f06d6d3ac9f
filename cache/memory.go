package cache

import (
	"context"
	"sync"

	"github.com/warp/rebate-engine/engine"
)

// DefaultMemoryEntries bounds a Memory cache created with a non-positive size.
const DefaultMemoryEntries = 1024

// Memory is a bounded in-process cache. Oldest insert is evicted first.
type Memory struct {
	mu      sync.Mutex
	max     int
	entries map[string]engine.Evaluation
	order   []string
}

var _ Cache = (*Memory)(nil)

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &Memory{
		max:     maxEntries,
		entries: make(map[string]engine.Evaluation, maxEntries),
	}
}

func (m *Memory) Get(_ context.Context, key string) (engine.Evaluation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.entries[key]
	return ev, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, ev engine.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		for len(m.order) >= m.max {
			delete(m.entries, m.order[0])
			m.order = m.order[1:]
		}
		m.order = append(m.order, key)
	}
	m.entries[key] = ev
	return nil
}

// Len returns the number of cached evaluations.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
