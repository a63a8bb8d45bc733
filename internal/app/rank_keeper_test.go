package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
	"study-portal/internal/infra/memory"
	"study-portal/internal/observability"
)

type fakeCache struct {
	mu       sync.Mutex
	replaced []domain.UserStats
	err      error
}

func (c *fakeCache) Replace(_ context.Context, rows []domain.UserStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaced = append([]domain.UserStats(nil), rows...)
	return c.err
}

func (c *fakeCache) Top(_ context.Context, limit int) ([]domain.UserStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replaced) == 0 {
		return nil, false, nil
	}
	rows := c.replaced
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, true, nil
}

func seedStats(t *testing.T, store *memory.Store, points map[string]int) {
	t.Helper()
	ctx := context.Background()
	for id, p := range points {
		if _, err := store.InsertStats(ctx, domain.UserStats{UserID: id, DisplayName: id}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		if _, err := store.IncrementStats(ctx, id, domain.StatsDelta{Points: p}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func TestRefreshRanksMirrorsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedStats(t, store, map[string]int{"ann": 300, "ben": 500, "cat": 100})
	cache := &fakeCache{}
	keeper := app.NewRankKeeper(store, cache, 2, observability.Discard())

	updates, cancel := keeper.Subscribe()
	defer cancel()
	if initial := <-updates; len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial)
	}

	if err := keeper.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	board := <-updates
	if len(board.Entries) != 2 || board.Entries[0].UserID != "ben" || board.Entries[1].UserID != "ann" {
		t.Fatalf("unexpected board: %+v", board.Entries)
	}
	if len(cache.replaced) != 3 {
		t.Fatalf("expected cache to mirror every row, got %d", len(cache.replaced))
	}
	for id, rank := range map[string]int{"ben": 1, "ann": 2, "cat": 3} {
		row, _ := store.FindStats(ctx, id)
		if row.CurrentRank != rank {
			t.Fatalf("%s: expected rank %d, got %d", id, rank, row.CurrentRank)
		}
	}

	stats := app.NewStatsService(store, keeper, cache, time.UTC)
	fromCache, err := stats.Leaderboard(ctx, 10)
	if err != nil || len(fromCache.Entries) != 3 {
		t.Fatalf("expected leaderboard served from cache, got %+v %v", fromCache, err)
	}
}

func TestRefreshSurvivesCacheFailure(t *testing.T) {
	store := memory.NewStore()
	seedStats(t, store, map[string]int{"ann": 10})
	keeper := app.NewRankKeeper(store, &fakeCache{err: errors.New("redis down")}, 10, observability.Discard())

	if err := keeper.Refresh(context.Background()); err != nil {
		t.Fatalf("expected cache failure to be tolerated, got %v", err)
	}
}

type countingRanks struct {
	*memory.Store
	mu sync.Mutex
	n  int
}

func (c *countingRanks) UpdateUserRanks(ctx context.Context) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return c.Store.UpdateUserRanks(ctx)
}

func (c *countingRanks) runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestRunCoalescesTriggers(t *testing.T) {
	ranks := &countingRanks{Store: memory.NewStore()}
	keeper := app.NewRankKeeper(ranks, nil, 10, observability.Discard())

	for i := 0; i < 5; i++ {
		keeper.Trigger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		keeper.Run(ctx, 20*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ranks.runs() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := ranks.runs(); got != 1 {
		t.Fatalf("expected bursts to share one recompute, got %d", got)
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	keeper := app.NewRankKeeper(memory.NewStore(), nil, 10, observability.Discard())
	updates, cancel := keeper.Subscribe()
	<-updates
	cancel()
	cancel()
	if _, ok := <-updates; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestSubscribersNeverSeeOlderBoardAfterNewer(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedStats(t, store, map[string]int{"ann": 1})
	keeper := app.NewRankKeeper(store, nil, 5, observability.Discard())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := store.IncrementStats(ctx, "ann", domain.StatsDelta{Points: 1}); err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			if err := keeper.Refresh(ctx); err != nil {
				t.Errorf("refresh: %v", err)
				return
			}
		}
	}()

	var feeds []<-chan domain.Leaderboard
	for i := 0; i < 20; i++ {
		updates, cancel := keeper.Subscribe()
		defer cancel()
		feeds = append(feeds, updates)
	}
	wg.Wait()

	for i, updates := range feeds {
		last := -1
	drain:
		for {
			select {
			case board := <-updates:
				points := 0
				if len(board.Entries) > 0 {
					points = board.Entries[0].TotalPoints
				}
				if points < last {
					t.Fatalf("subscriber %d: board with %d points arrived after %d", i, points, last)
				}
				last = points
			default:
				break drain
			}
		}
		if last != 51 {
			t.Fatalf("subscriber %d: expected to end on the latest board, got %d points", i, last)
		}
	}
}
