package conversation

import (
	"context"
	"fmt"
	"sync"

	"aquita/internal/intake/models"
	"aquita/pkg/platform/sentinel"
)

// InMemoryStore keeps conversation state in process memory. Suits a single
// instance; multi-instance deployments use the redis store so any replica can
// continue a conversation.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.State
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]models.State)}
}

func (s *InMemoryStore) Get(_ context.Context, sender string) (models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sender]
	if !ok {
		return models.State{}, fmt.Errorf("conversation %s: %w", sender, sentinel.ErrNotFound)
	}
	return state, nil
}

func (s *InMemoryStore) Save(_ context.Context, sender string, state models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sender] = state
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sender)
	return nil
}
