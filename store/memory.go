package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/rebate-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	programs    map[string]ProgramRecord
	assumptions map[string]AssumptionRecord
	now         func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		programs:    make(map[string]ProgramRecord),
		assumptions: make(map[string]AssumptionRecord),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) SaveProgram(_ context.Context, p ProgramRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.programs[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
		p.Version = existing.Version + 1
	} else {
		p.CreatedAt = now
		p.Version = 1
	}
	p.UpdatedAt = now
	m.programs[p.ID] = p
	return nil
}

func (m *Memory) GetProgram(_ context.Context, id string) (*ProgramRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.programs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListPrograms(_ context.Context) ([]ProgramRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ProgramRecord, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteProgram(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[id]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrProgramNotFound, id)
	}
	delete(m.programs, id)
	return nil
}

func (m *Memory) SaveAssumptions(_ context.Context, name, tableJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := AssumptionRecord{Name: name, TableJSON: tableJSON, Version: 1, UpdatedAt: m.now()}
	if existing, ok := m.assumptions[name]; ok {
		rec.Version = existing.Version + 1
	}
	m.assumptions[name] = rec
	return nil
}

func (m *Memory) GetAssumptions(_ context.Context, name string) (*AssumptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.assumptions[name]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.programs = make(map[string]ProgramRecord)
	m.assumptions = make(map[string]AssumptionRecord)
	return nil
}

func (m *Memory) Close() error { return nil }
