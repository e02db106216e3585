package history

import (
	"context"
	"sync"
)

// Memory is the default in-process store.
type Memory struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, t Turn) error {
	m.mu.Lock()
	m.turns = append(m.turns, t)
	m.mu.Unlock()
	return nil
}

func (m *Memory) LastN(_ context.Context, n int) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tail(m.turns, n), nil
}

func (m *Memory) All(_ context.Context) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tail(m.turns, len(m.turns)), nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns), nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.turns = nil
	m.mu.Unlock()
	return nil
}
