package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"study-portal/internal/domain"
	"study-portal/internal/observability"
)

// RankKeeper recomputes global ranks off the request path and fans the
// resulting leaderboard out to subscribers. Triggers that arrive while a
// recomputation is pending are coalesced into one run.
type RankKeeper struct {
	stats  StatsRepository
	cache  LeaderboardCache
	size   int
	now    func() time.Time
	logger *slog.Logger

	trigger chan struct{}

	mu          sync.Mutex
	last        domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewRankKeeper(stats StatsRepository, cache LeaderboardCache, size int, logger *slog.Logger) *RankKeeper {
	if size <= 0 {
		size = defaultLeaderboardSize
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &RankKeeper{
		stats:       stats,
		cache:       cache,
		size:        size,
		now:         time.Now,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Trigger schedules a recomputation without blocking.
func (k *RankKeeper) Trigger() {
	select {
	case k.trigger <- struct{}{}:
	default:
	}
}

// Run services triggers until ctx is cancelled. debounce delays each run so
// bursts of point awards share one full-table update.
func (k *RankKeeper) Run(ctx context.Context, debounce time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-k.trigger:
		}

		if debounce > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(debounce):
			}
		}

		if err := k.Refresh(ctx); err != nil {
			k.logger.Error("rank recompute failed", slog.Any("err", err))
		}
	}
}

// Refresh recomputes ranks now, mirrors totals into the cache and broadcasts
// the leaderboard.
func (k *RankKeeper) Refresh(ctx context.Context) error {
	if err := k.stats.UpdateUserRanks(ctx); err != nil {
		observability.RankRecomputes.WithLabelValues("error").Inc()
		return domain.Remote("update user ranks", err)
	}
	observability.RankRecomputes.WithLabelValues("ok").Inc()

	limit := k.size
	if k.cache != nil {
		limit = 0
	}
	rows, err := k.stats.TopStats(ctx, limit)
	if err != nil {
		return domain.Remote("load ranked stats", err)
	}

	if k.cache != nil {
		if err := k.cache.Replace(ctx, rows); err != nil {
			// The store remains the source of truth; reads fall back to it.
			k.logger.Warn("leaderboard cache refresh failed", slog.Any("err", err))
		}
		if len(rows) > k.size {
			rows = rows[:k.size]
		}
	}

	k.mu.Lock()
	k.last = buildLeaderboard(rows, k.now())
	k.broadcastLocked()
	k.mu.Unlock()
	return nil
}

// Subscribe returns a channel that receives leaderboard updates, starting with
// the latest snapshot. The caller must invoke cancel to avoid leaks.
func (k *RankKeeper) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	// The buffer is empty, so this send never blocks, and holding the lock
	// keeps every later broadcast behind it.
	k.mu.Lock()
	ch <- k.last
	k.subscribers[ch] = struct{}{}
	k.mu.Unlock()
	observability.LeaderboardSubscribers.Inc()

	cancel := func() {
		k.mu.Lock()
		if _, ok := k.subscribers[ch]; ok {
			delete(k.subscribers, ch)
			close(ch)
			observability.LeaderboardSubscribers.Dec()
		}
		k.mu.Unlock()
	}
	return ch, cancel
}

func (k *RankKeeper) broadcastLocked() {
	for ch := range k.subscribers {
		select {
		case ch <- k.last:
		default:
			// Drop the stale snapshot so a slow reader never blocks the keeper.
			select {
			case <-ch:
			default:
			}
			ch <- k.last
		}
	}
}
