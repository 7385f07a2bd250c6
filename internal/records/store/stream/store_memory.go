package stream

import (
	"context"
	"sync"

	"aquita/internal/records/models"
)

// InMemoryStore keeps stream submissions in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	streams []models.StreamSubmission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, submission models.StreamSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = append(s.streams, submission)
	return nil
}

// List returns all submissions, oldest first. Review tooling reads these.
func (s *InMemoryStore) List(_ context.Context) ([]models.StreamSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StreamSubmission{}, s.streams...), nil
}
