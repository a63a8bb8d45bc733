package app

import (
	"context"

	"study-portal/internal/domain"
)

// ForumRepository is the row-level capability set over posts and answers.
type ForumRepository interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, postID string) (domain.Post, error)
	InsertPost(ctx context.Context, post domain.Post) (domain.Post, error)
	SetPostAnswered(ctx context.Context, postID string) error
	ListAnswers(ctx context.Context, postID string) ([]domain.Answer, error)
	GetAnswer(ctx context.Context, answerID string) (domain.Answer, error)
	InsertAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	// SetAnswerHelpful flips helpful false->true and reports whether it changed.
	SetAnswerHelpful(ctx context.Context, answerID string) (bool, error)
	// SearchPosts calls the backend's ranked full-text search procedure.
	SearchPosts(ctx context.Context, query string) ([]domain.Post, error)
}

// StatsRepository stores per-user totals.
type StatsRepository interface {
	FindStats(ctx context.Context, userID string) (domain.UserStats, error)
	// InsertStats returns domain.ErrConflict when a row for the user already exists.
	InsertStats(ctx context.Context, stats domain.UserStats) (domain.UserStats, error)
	IncrementStats(ctx context.Context, userID string, delta domain.StatsDelta) (domain.UserStats, error)
	// TopStats returns rows by descending total points; limit <= 0 means all rows.
	TopStats(ctx context.Context, limit int) ([]domain.UserStats, error)
	// UpdateUserRanks recomputes current_rank for every row.
	UpdateUserRanks(ctx context.Context) error
}

// CompletionRepository records daily quiz completions.
type CompletionRepository interface {
	FindCompletion(ctx context.Context, userID, quizDate string) (domain.QuizCompletion, error)
	// InsertCompletion returns domain.ErrConflict when (user, date) is already recorded.
	InsertCompletion(ctx context.Context, completion domain.QuizCompletion) error
}

// IssueRepository stores issue reports.
type IssueRepository interface {
	InsertIssue(ctx context.Context, report domain.IssueReport) (domain.IssueReport, error)
	ListIssues(ctx context.Context, userID string) ([]domain.IssueReport, error)
}

// Store is the full backend. RunInTx runs fn atomically; fn must only use tx.
type Store interface {
	ForumRepository
	StatsRepository
	CompletionRepository
	IssueRepository
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRepository keeps in-progress daily quiz attempts, one per user.
type AttemptRepository interface {
	Get(ctx context.Context, userID string) (*Attempt, error)
	Save(ctx context.Context, attempt *Attempt) error
	Delete(ctx context.Context, userID string) error
}

// LeaderboardCache mirrors the ranked totals for cheap top-N reads.
type LeaderboardCache interface {
	Replace(ctx context.Context, stats []domain.UserStats) error
	// Top returns rows in rank order, ok=false when the cache holds nothing yet.
	Top(ctx context.Context, limit int) (rows []domain.UserStats, ok bool, err error)
}
