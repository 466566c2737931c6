package store

import (
	"context"
	"sync"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore keeps the latest verification status per application.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.ApplicationID]domain.StatusRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.ApplicationID]domain.StatusRecord)}
}

// SaveStatus replaces any earlier record for the application.
func (s *InMemoryStore) SaveStatus(_ context.Context, record domain.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Flags = append([]domain.VerificationFlag{}, record.Flags...)
	s.records[record.ApplicationID] = record
	return nil
}

func (s *InMemoryStore) FindStatus(_ context.Context, applicationID id.ApplicationID) (*domain.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.Flags = append([]domain.VerificationFlag{}, record.Flags...)
	return &record, nil
}
