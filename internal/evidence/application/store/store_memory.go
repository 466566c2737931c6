package store

import (
	"context"
	"sync"
	"time"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore holds application identity records in memory. It serves both
// as a Source for local runs and as a TTL cache when cacheTTL is positive.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[id.ApplicationID]storedRecord
	cacheTTL time.Duration
	now      func() time.Time
}

type storedRecord struct {
	record   domain.ApplicationIdentityRecord
	storedAt time.Time
}

// NewInMemoryStore creates a store. A zero cacheTTL keeps records forever.
func NewInMemoryStore(cacheTTL time.Duration) *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[id.ApplicationID]storedRecord),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// SaveIdentity stores a copy of record. A nil record is a no-op.
func (s *InMemoryStore) SaveIdentity(_ context.Context, applicationID id.ApplicationID, record *domain.ApplicationIdentityRecord) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[applicationID] = storedRecord{record: *record, storedAt: s.now()}
	return nil
}

// FindIdentity returns a copy of the stored record, or sentinel.ErrNotFound
// when it is missing or older than the cache TTL.
func (s *InMemoryStore) FindIdentity(_ context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.records[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if s.cacheTTL > 0 && s.now().Sub(stored.storedAt) >= s.cacheTTL {
		return nil, sentinel.ErrNotFound
	}
	record := stored.record
	return &record, nil
}
