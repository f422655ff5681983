package numbering

import (
	"context"
	"sync"
	"time"
)

// MockAllocator is an in-memory Allocator for tests.
type MockAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMockAllocator creates an empty in-memory allocator.
func NewMockAllocator() *MockAllocator {
	return &MockAllocator{counters: make(map[string]int64)}
}

// Next implements Allocator.
func (m *MockAllocator) Next(_ context.Context, kind Kind, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(kind) + "_" + at.Format("2006")
	m.counters[key]++
	return Format(at.Year(), m.counters[key]), nil
}

var _ Allocator = (*MockAllocator)(nil)
