package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Memory keeps slots in process memory. It backs the session store and the
// "memory" durable driver used in tests and demos.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

// Get implements ports.KeyValueStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.slots[key]
	if !ok {
		return nil, domain.NewNotFoundError("slot", key)
	}

	return slices.Clone(val), nil
}

// Set implements ports.KeyValueStore.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[key] = slices.Clone(value)

	return nil
}

// Name implements ports.HealthChecker.
func (m *Memory) Name() string { return "storage" }

// Check implements ports.HealthChecker.
func (m *Memory) Check(context.Context) error { return nil }

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }
