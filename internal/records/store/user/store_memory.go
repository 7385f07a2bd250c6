package user

import (
	"context"
	"fmt"
	"sync"

	"aquita/internal/records/models"
	"aquita/pkg/platform/sentinel"
)

// InMemoryStore keeps identity records in a map keyed by cédula. Used in tests
// and when no DATABASE_URL is configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]models.IdentityRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]models.IdentityRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[record.NationalID]; exists {
		return fmt.Errorf("cédula %s: %w", record.NationalID, sentinel.ErrConflict)
	}
	s.users[record.NationalID] = record
	return nil
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.users[nationalID]
	if !ok {
		return models.IdentityRecord{}, fmt.Errorf("cédula %s: %w", nationalID, sentinel.ErrNotFound)
	}
	return record, nil
}
