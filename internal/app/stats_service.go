package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"study-portal/internal/domain"
	"study-portal/internal/observability"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
	quizDateLayout         = "2006-01-02"
)

// RankTrigger requests an eventual global rank recomputation.
type RankTrigger interface {
	Trigger()
}

// StatsService owns point totals and the daily quiz reward.
type StatsService struct {
	store Store
	ranks RankTrigger
	cache LeaderboardCache
	loc   *time.Location
	now   func() time.Time
}

func NewStatsService(store Store, ranks RankTrigger, cache LeaderboardCache, loc *time.Location) *StatsService {
	return NewStatsServiceWithClock(store, ranks, cache, loc, time.Now)
}

// NewStatsServiceWithClock is test-only for deterministic calendar days.
func NewStatsServiceWithClock(store Store, ranks RankTrigger, cache LeaderboardCache, loc *time.Location, now func() time.Time) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	if ranks == nil {
		ranks = noopTrigger{}
	}
	return &StatsService{store: store, ranks: ranks, cache: cache, loc: loc, now: now}
}

// Today is the server-local calendar day used for completion records.
func (s *StatsService) Today() string {
	return s.now().In(s.loc).Format(quizDateLayout)
}

// LoadOrCreate returns the caller's stats row, inserting a zeroed one on first access.
func (s *StatsService) LoadOrCreate(ctx context.Context, id domain.Identity) (domain.UserStats, error) {
	if err := requireIdentity(id); err != nil {
		return domain.UserStats{}, err
	}
	return ensureStats(ctx, s.store, id.ID, id.StatsName(), s.now())
}

// Update applies delta to the caller's row and schedules a rank recomputation.
func (s *StatsService) Update(ctx context.Context, id domain.Identity, delta domain.StatsDelta) (domain.UserStats, error) {
	if err := requireIdentity(id); err != nil {
		return domain.UserStats{}, err
	}
	if err := validateDelta(delta); err != nil {
		return domain.UserStats{}, err
	}
	stats, err := credit(ctx, s.store, id.ID, id.StatsName(), delta, s.now())
	if err != nil {
		return domain.UserStats{}, err
	}
	s.ranks.Trigger()
	return stats, nil
}

// CompletedToday reports whether the user already has today's completion row.
func (s *StatsService) CompletedToday(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.FindCompletion(ctx, userID, s.Today())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, domain.Remote("find quiz completion", err)
}

// AwardQuizPoints records today's completion and credits points in one transaction.
// A second call on the same calendar day fails with domain.ErrAlreadyCompleted.
func (s *StatsService) AwardQuizPoints(ctx context.Context, id domain.Identity, points int) (domain.UserStats, error) {
	if err := requireIdentity(id); err != nil {
		return domain.UserStats{}, err
	}
	if points < 0 {
		return domain.UserStats{}, fmt.Errorf("negative quiz points: %w", domain.ErrInvalidInput)
	}

	// Advisory only; the store's (user, date) uniqueness decides.
	done, err := s.CompletedToday(ctx, id.ID)
	if err != nil {
		return domain.UserStats{}, err
	}
	if done {
		return domain.UserStats{}, domain.ErrAlreadyCompleted
	}

	now := s.now()
	completion := domain.QuizCompletion{
		UserID:       id.ID,
		QuizDate:     now.In(s.loc).Format(quizDateLayout),
		PointsEarned: points,
		CompletedAt:  now,
	}

	var updated domain.UserStats
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.InsertCompletion(ctx, completion); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.ErrAlreadyCompleted
			}
			return domain.Remote("record quiz completion", err)
		}
		var err error
		updated, err = credit(ctx, tx, id.ID, id.StatsName(), domain.StatsDelta{Points: points, QuizzesCompleted: 1}, now)
		return err
	})
	if err != nil {
		return domain.UserStats{}, err
	}

	observability.PointsAwarded.WithLabelValues("quiz").Add(float64(points))
	s.ranks.Trigger()
	return updated, nil
}

// AwardForumPoints credits points and counts one forum answer. It does not
// deduplicate; invoke it once per rewarded answer.
func (s *StatsService) AwardForumPoints(ctx context.Context, id domain.Identity, points int) (domain.UserStats, error) {
	if points < 0 {
		return domain.UserStats{}, fmt.Errorf("negative forum points: %w", domain.ErrInvalidInput)
	}
	return s.Update(ctx, id, domain.StatsDelta{Points: points, ForumAnswers: 1})
}

// Leaderboard returns the top limit users by total points.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	if s.cache != nil {
		rows, ok, err := s.cache.Top(ctx, limit)
		if err == nil && ok {
			return buildLeaderboard(rows, s.now()), nil
		}
	}

	rows, err := s.store.TopStats(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, domain.Remote("load leaderboard", err)
	}
	return buildLeaderboard(rows, s.now()), nil
}

// awarded is called after a committed credit outside the stats flows.
func (s *StatsService) awarded(reason string, points int) {
	observability.PointsAwarded.WithLabelValues(reason).Add(float64(points))
	s.ranks.Trigger()
}

func ensureStats(ctx context.Context, repo StatsRepository, userID, name string, now time.Time) (domain.UserStats, error) {
	stats, err := repo.FindStats(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.UserStats{}, domain.Remote("find stats", err)
	}

	stats, err = repo.InsertStats(ctx, domain.UserStats{
		UserID:      userID,
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race against a concurrent first load.
		stats, err = repo.FindStats(ctx, userID)
	}
	if err != nil {
		return domain.UserStats{}, domain.Remote("create stats", err)
	}
	return stats, nil
}

func credit(ctx context.Context, repo StatsRepository, userID, name string, delta domain.StatsDelta, now time.Time) (domain.UserStats, error) {
	if _, err := ensureStats(ctx, repo, userID, name, now); err != nil {
		return domain.UserStats{}, err
	}
	stats, err := repo.IncrementStats(ctx, userID, delta)
	if err != nil {
		return domain.UserStats{}, domain.Remote("update stats", err)
	}
	return stats, nil
}

func validateDelta(delta domain.StatsDelta) error {
	if delta.Points < 0 || delta.QuizzesCompleted < 0 || delta.ForumAnswers < 0 {
		return fmt.Errorf("stats only grow: %w", domain.ErrInvalidInput)
	}
	return nil
}

func buildLeaderboard(rows []domain.UserStats, now time.Time) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:             i + 1,
			UserID:           row.UserID,
			DisplayName:      displayNameOrDefault(row.DisplayName),
			TotalPoints:      row.TotalPoints,
			QuizzesCompleted: row.QuizzesCompleted,
			ForumAnswers:     row.ForumAnswers,
			Badge:            domain.Badge(row),
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: now}
}

func displayNameOrDefault(name string) string {
	if name == "" {
		return "Anonymous User"
	}
	return name
}

type noopTrigger struct{}

func (noopTrigger) Trigger() {}

func requireIdentity(id domain.Identity) error {
	if id.ID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}
