package memory

import (
	"context"
	"sync"

	"study-portal/internal/app"
	"study-portal/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]app.Attempt),
	}
}

func (s *AttemptStore) Get(_ context.Context, userID string) (*app.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[userID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return copyAttempt(attempt), nil
}

func (s *AttemptStore) Save(_ context.Context, attempt *app.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.UserID] = *copyAttempt(*attempt)
	return nil
}

func (s *AttemptStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, userID)
	return nil
}

// copyAttempt detaches the slices and pending pointer from the caller's copy.
func copyAttempt(a app.Attempt) *app.Attempt {
	a.Questions = append([]domain.Question(nil), a.Questions...)
	a.Answers = append([]int{}, a.Answers...)
	if a.Pending != nil {
		pending := *a.Pending
		a.Pending = &pending
	}
	return &a
}
