package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps in-progress quiz attempts in Redis so they survive a
// restart and are shared between instances. Each attempt expires after ttl.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Get(ctx context.Context, userID string) (*app.Attempt, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, domain.Remote("load attempt", err)
	}
	var attempt app.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, domain.Remote("decode attempt", err)
	}
	return &attempt, nil
}

func (s *AttemptStore) Save(ctx context.Context, attempt *app.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(attempt.UserID), raw, s.ttl).Err(); err != nil {
		return domain.Remote("save attempt", err)
	}
	return nil
}

func (s *AttemptStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return domain.Remote("delete attempt", err)
	}
	return nil
}

func (s *AttemptStore) key(userID string) string {
	return "quiz:attempt:" + userID
}
