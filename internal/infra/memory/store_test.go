package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
)

func TestStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.InsertStats(ctx, domain.UserStats{UserID: "u1"}); err != nil {
		t.Fatalf("insert stats: %v", err)
	}

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Store) error {
		if err := tx.InsertCompletion(ctx, domain.QuizCompletion{UserID: "u1", QuizDate: "2026-01-01"}); err != nil {
			return err
		}
		if _, err := tx.IncrementStats(ctx, "u1", domain.StatsDelta{Points: 100}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := store.FindCompletion(ctx, "u1", "2026-01-01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected completion rolled back, got %v", err)
	}
	stats, _ := store.FindStats(ctx, "u1")
	if stats.TotalPoints != 0 {
		t.Fatalf("expected points rolled back, got %d", stats.TotalPoints)
	}
}

func TestStoreEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.InsertStats(ctx, domain.UserStats{UserID: "u1"}); err != nil {
		t.Fatalf("insert stats: %v", err)
	}
	if _, err := store.InsertStats(ctx, domain.UserStats{UserID: "u1"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	c := domain.QuizCompletion{UserID: "u1", QuizDate: "2026-01-01"}
	if err := store.InsertCompletion(ctx, c); err != nil {
		t.Fatalf("insert completion: %v", err)
	}
	if err := store.InsertCompletion(ctx, c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStoreRanksByPoints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for id, points := range map[string]int{"a": 10, "b": 50, "c": 30} {
		_, _ = store.InsertStats(ctx, domain.UserStats{UserID: id})
		_, _ = store.IncrementStats(ctx, id, domain.StatsDelta{Points: points})
	}

	if err := store.UpdateUserRanks(ctx); err != nil {
		t.Fatalf("update ranks: %v", err)
	}

	want := map[string]int{"b": 1, "c": 2, "a": 3}
	for id, rank := range want {
		stats, _ := store.FindStats(ctx, id)
		if stats.CurrentRank != rank {
			t.Fatalf("user %s: expected rank %d, got %d", id, rank, stats.CurrentRank)
		}
	}
}

func TestStoreSearchRanksTitleHitsFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now()
	_, _ = store.InsertPost(ctx, domain.Post{ID: "p1", Title: "Photosynthesis basics", Content: "plants", CreatedAt: now})
	_, _ = store.InsertPost(ctx, domain.Post{ID: "p2", Title: "Biology homework", Content: "question about photosynthesis", CreatedAt: now})
	_, _ = store.InsertPost(ctx, domain.Post{ID: "p3", Title: "Algebra", Content: "quadratic", CreatedAt: now})

	posts, err := store.SearchPosts(ctx, "Photosynthesis")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "p1" || posts[1].ID != "p2" {
		t.Fatalf("unexpected ranking: %+v", posts)
	}
}

func TestInsertAnswerRequiresPost(t *testing.T) {
	store := NewStore()
	_, err := store.InsertAnswer(context.Background(), domain.Answer{ID: "a1", PostID: "missing"})
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected post not found, got %v", err)
	}
}
