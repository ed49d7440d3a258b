package memory

import (
	"context"
	"errors"
	"sync"

	"mbti/internal/domain"
)

// ResultStore keeps per-user results in process memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.StoredResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, r domain.StoredResult) error {
	if r.UserID == "" {
		return errors.New("empty user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.UserID] = r
	return nil
}

func (s *ResultStore) GetResult(_ context.Context, userID string) (*domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}
