package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected missing attempt, got %v", err)
	}

	attempt := app.NewAttempt(app.DailyQuiz(), "u1", time.Now())
	if err := store.Save(ctx, attempt); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	attempt.Answers = append(attempt.Answers, 3)

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Answers) != 0 {
		t.Fatalf("expected stored attempt untouched, got %v", got.Answers)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt removed, got %v", err)
	}
}

func TestDenylistExpires(t *testing.T) {
	ctx := context.Background()
	list := NewDenylist()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	list.clock = func() time.Time { return now }

	if err := list.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := list.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected token revoked")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := list.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("expected revocation to lapse with the token")
	}
}
