package app_test

import (
	"errors"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
)

func TestScoreCountsMatchingPositions(t *testing.T) {
	quiz := app.DailyQuiz()
	cases := []struct {
		answers []int
		score   int
	}{
		{[]int{0, 1, 0, 1, 1}, 5},
		{[]int{1, 0, 1, 0, 0}, 0},
		{[]int{0, 0, 0, 0, 0}, 2},
		{[]int{0, 1}, 2},
	}
	for _, c := range cases {
		score := app.Score(quiz, c.answers)
		if score != c.score {
			t.Fatalf("answers %v: expected score %d, got %d", c.answers, c.score, score)
		}
		if points := app.PointsFor(score); points != score*20 {
			t.Fatalf("score %d: expected %d points, got %d", score, score*20, points)
		}
	}
}

func TestAttemptWalksForwardOnly(t *testing.T) {
	quiz := app.DailyQuiz()
	attempt := app.NewAttempt(quiz, "u1", time.Now())

	if _, err := attempt.Next(); !errors.Is(err, domain.ErrNoPendingAnswer) {
		t.Fatalf("expected no pending answer, got %v", err)
	}
	if err := attempt.Select(4); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}

	var done bool
	for i, option := range []int{0, 1, 0, 1, 1} {
		if err := attempt.Select(3); err != nil {
			t.Fatalf("select: %v", err)
		}
		// The last selection before advancing wins.
		if err := attempt.Select(option); err != nil {
			t.Fatalf("reselect: %v", err)
		}
		var err error
		done, err = attempt.Next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if done != (i == 4) {
			t.Fatalf("question %d: unexpected done=%v", i, done)
		}
	}

	result := attempt.Result()
	if result.Score != 5 || result.Points != 100 || result.Total != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := attempt.Select(0); !errors.Is(err, domain.ErrQuizFinished) {
		t.Fatalf("expected finished, got %v", err)
	}
}

func TestAttemptOutsideItsQuestionsIsMalformed(t *testing.T) {
	attempt := app.NewAttempt(app.DailyQuiz(), "u1", time.Now())
	attempt.Index = len(attempt.Questions)

	if err := attempt.Check(); !errors.Is(err, domain.ErrMalformedQuiz) {
		t.Fatalf("expected malformed check, got %v", err)
	}
	if err := attempt.Select(0); !errors.Is(err, domain.ErrMalformedQuiz) {
		t.Fatalf("expected malformed select, got %v", err)
	}
	if _, err := attempt.Next(); !errors.Is(err, domain.ErrMalformedQuiz) {
		t.Fatalf("expected malformed next, got %v", err)
	}

	empty := app.NewAttempt(domain.Quiz{ID: "daily"}, "u1", time.Now())
	if err := empty.Check(); !errors.Is(err, domain.ErrMalformedQuiz) {
		t.Fatalf("expected attempt without questions to be malformed, got %v", err)
	}
}

func TestNewAttemptCopiesQuestions(t *testing.T) {
	quiz := app.DailyQuiz()
	attempt := app.NewAttempt(quiz, "u1", time.Now())
	quiz.Questions[0] = domain.Question{Prompt: "changed"}

	if attempt.Questions[0].Prompt == "changed" {
		t.Fatalf("expected the attempt to keep its own question set")
	}
}
