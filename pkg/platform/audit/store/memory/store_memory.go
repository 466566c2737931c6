package memory

import (
	"context"
	"sync"

	audit "docverify/pkg/platform/audit"
)

// InMemoryStore keeps emitted events in memory. It backs the "memory" events
// backend for local runs and serves as a capturing sink in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
	s.order = nil
}

// Emit implements audit.Publisher.
func (s *InMemoryStore) Emit(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ApplicationID] = append(s.events[event.ApplicationID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[applicationID]...), nil
}

// ListAll returns every event in emission order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.order...), nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
