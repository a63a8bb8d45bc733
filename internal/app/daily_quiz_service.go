package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"study-portal/internal/domain"
	"study-portal/internal/observability"
)

// QuestionView is a question as shown to the player, without the answer key.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Subject string   `json:"subject"`
}

// AttemptView is the client-facing state of a daily quiz attempt.
type AttemptView struct {
	QuizID    string             `json:"quizId"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	Question  *QuestionView      `json:"question,omitempty"`
	Pending   *int               `json:"pending,omitempty"`
	Deadline  time.Time          `json:"deadline"`
	Completed bool               `json:"completed"`
	Result    *domain.QuizResult `json:"result,omitempty"`
	Stats     *domain.UserStats  `json:"stats,omitempty"`
}

// DailyStatus tells the caller whether today's quiz is still available.
type DailyStatus struct {
	CompletedToday bool         `json:"completedToday"`
	Attempt        *AttemptView `json:"attempt,omitempty"`
}

// DailyQuizService drives the once-a-day quiz and pays out on completion.
// The countdown is advisory: Deadline is reported but not enforced.
type DailyQuizService struct {
	quizzes   QuizRepository
	attempts  AttemptRepository
	stats     *StatsService
	quizID    string
	timeLimit time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewDailyQuizService(quizzes QuizRepository, attempts AttemptRepository, stats *StatsService, timeLimit time.Duration, logger *slog.Logger) *DailyQuizService {
	if timeLimit <= 0 {
		timeLimit = 5 * time.Minute
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &DailyQuizService{
		quizzes:   quizzes,
		attempts:  attempts,
		stats:     stats,
		quizID:    DailyQuizID,
		timeLimit: timeLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// Status reports today's completion and any attempt in progress.
func (s *DailyQuizService) Status(ctx context.Context, id domain.Identity) (DailyStatus, error) {
	if err := requireIdentity(id); err != nil {
		return DailyStatus{}, err
	}
	done, err := s.stats.CompletedToday(ctx, id.ID)
	if err != nil {
		return DailyStatus{}, err
	}
	status := DailyStatus{CompletedToday: done}

	attempt, err := s.load(ctx, id)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return status, nil
	}
	if err != nil {
		return DailyStatus{}, err
	}
	view, err := s.view(attempt)
	if err != nil {
		return DailyStatus{}, err
	}
	status.Attempt = &view
	return status, nil
}

// Start begins today's attempt, or resumes the one in progress. A new attempt
// pins the current question set.
func (s *DailyQuizService) Start(ctx context.Context, id domain.Identity) (AttemptView, error) {
	if err := requireIdentity(id); err != nil {
		return AttemptView{}, err
	}
	done, err := s.stats.CompletedToday(ctx, id.ID)
	if err != nil {
		return AttemptView{}, err
	}
	if done {
		return AttemptView{}, domain.ErrAlreadyCompleted
	}

	attempt, err := s.load(ctx, id)
	switch {
	case err == nil && !attempt.Completed:
		return s.view(attempt)
	case err != nil && !errors.Is(err, domain.ErrAttemptNotFound):
		return AttemptView{}, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, s.quizID)
	if err != nil {
		return AttemptView{}, err
	}
	if err := quiz.Validate(); err != nil {
		return AttemptView{}, err
	}
	attempt = NewAttempt(quiz, id.ID, s.now())
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return AttemptView{}, err
	}
	return s.view(attempt)
}

// Select records the pending option for the current question.
func (s *DailyQuizService) Select(ctx context.Context, id domain.Identity, option int) (AttemptView, error) {
	attempt, err := s.load(ctx, id)
	if err != nil {
		return AttemptView{}, err
	}
	if err := attempt.Select(option); err != nil {
		return AttemptView{}, err
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return AttemptView{}, err
	}
	return s.view(attempt)
}

// Next commits the pending answer. On the last question it scores the attempt
// and awards the quiz points exactly once.
func (s *DailyQuizService) Next(ctx context.Context, id domain.Identity) (AttemptView, error) {
	attempt, err := s.load(ctx, id)
	if err != nil {
		return AttemptView{}, err
	}

	// A completed but unpaid attempt retries the award instead of failing.
	if !attempt.Completed {
		done, err := attempt.Next()
		if err != nil {
			return AttemptView{}, err
		}
		if err := s.attempts.Save(ctx, attempt); err != nil {
			return AttemptView{}, err
		}
		if !done {
			return s.view(attempt)
		}
	}

	stats, err := s.stats.AwardQuizPoints(ctx, id, attempt.Result().Points)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			s.discard(ctx, id.ID)
		}
		return AttemptView{}, err
	}
	s.discard(ctx, id.ID)

	view, err := s.view(attempt)
	if err != nil {
		return AttemptView{}, err
	}
	view.Stats = &stats
	return view, nil
}

// load fetches the caller's attempt. An attempt whose pinned questions do not
// hold up is dropped and reported as missing so the caller can start over.
func (s *DailyQuizService) load(ctx context.Context, id domain.Identity) (*Attempt, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	attempt, err := s.attempts.Get(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	if err := attempt.Check(); err != nil {
		s.logger.Warn("dropping malformed quiz attempt", slog.String("user_id", id.ID), slog.Any("err", err))
		s.discard(ctx, id.ID)
		return nil, fmt.Errorf("%v: %w", err, domain.ErrAttemptNotFound)
	}
	return attempt, nil
}

// discard removes the caller's attempt. A failure leaves an attempt that the
// next Start replaces or the store's TTL expires, so it is only logged.
func (s *DailyQuizService) discard(ctx context.Context, userID string) {
	if err := s.attempts.Delete(ctx, userID); err != nil {
		s.logger.Warn("delete quiz attempt failed", slog.String("user_id", userID), slog.Any("err", err))
	}
}

func (s *DailyQuizService) view(attempt *Attempt) (AttemptView, error) {
	view := AttemptView{
		QuizID:    attempt.QuizID,
		Index:     attempt.Index,
		Total:     len(attempt.Questions),
		Pending:   attempt.Pending,
		Deadline:  attempt.StartedAt.Add(s.timeLimit),
		Completed: attempt.Completed,
	}
	if attempt.Completed {
		result := attempt.Result()
		view.Result = &result
		return view, nil
	}
	q, err := attempt.Current()
	if err != nil {
		return AttemptView{}, err
	}
	view.Question = &QuestionView{Prompt: q.Prompt, Options: q.Options, Subject: q.Subject}
	return view, nil
}
