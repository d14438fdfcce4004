package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// Memory is an in-process Backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: map[string]json.RawMessage{}}
}

// Get implements Backend.
func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = slices.Clone(v)
		}
	}

	return out, nil
}

// Set implements Backend.
func (m *Memory) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.data[k] = slices.Clone(v)
	}

	return nil
}
