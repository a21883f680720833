package idgen

import (
	"context"
	"sync"
)

// MemorySequencer is a process-local Sequencer guarded by a mutex.
// It suits tests and single-instance tools; a shared deployment needs the
// Postgres or redis sequencer.
type MemorySequencer struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemorySequencer returns an empty MemorySequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{values: make(map[string]int64)}
}

// Next increments scope past max(current, floor).
func (s *MemorySequencer) Next(_ context.Context, scope string, floor int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[scope]
	if floor > v {
		v = floor
	}
	v++
	s.values[scope] = v
	return v, nil
}
