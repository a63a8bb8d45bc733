package app

import (
	"fmt"
	"time"

	"study-portal/internal/domain"
)

// DailyQuizID identifies the built-in daily quiz.
const DailyQuizID = "daily"

// DailyQuiz is the fixed five-question set served when no stored quiz overrides it.
func DailyQuiz() domain.Quiz {
	return domain.Quiz{
		ID: DailyQuizID,
		Questions: []domain.Question{
			{
				Prompt:  "What is the chemical formula of water?",
				Options: []string{"H2O", "CO2", "NaCl", "CaCO3"},
				Correct: 0,
				Subject: "Science",
			},
			{
				Prompt:  "Who wrote 'A Letter to God'?",
				Options: []string{"R.K. Narayan", "G.L. Fuentes", "Roald Dahl", "Jerome K. Jerome"},
				Correct: 1,
				Subject: "English",
			},
			{
				Prompt:  "What is the value of pi approximately?",
				Options: []string{"3.14", "2.71", "1.41", "1.73"},
				Correct: 0,
				Subject: "Mathematics",
			},
			{
				Prompt:  "Which year did India gain independence?",
				Options: []string{"1945", "1947", "1948", "1950"},
				Correct: 1,
				Subject: "Social Science",
			},
			{
				Prompt:  "What is the unit of electric current?",
				Options: []string{"Volt", "Ampere", "Ohm", "Watt"},
				Correct: 1,
				Subject: "Science",
			},
		},
	}
}

// Attempt is one linear pass through a quiz: select an option, then advance.
// There is no going back. The questions are copied in at start, so edits to
// the stored quiz never reach an attempt in progress. Fields are exported so
// attempt stores can persist it.
type Attempt struct {
	QuizID    string            `json:"quizId"`
	UserID    string            `json:"userId"`
	Questions []domain.Question `json:"questions"`
	Index     int               `json:"index"`
	Pending   *int              `json:"pending,omitempty"`
	Answers   []int             `json:"answers"`
	Completed bool              `json:"completed"`
	Score     int               `json:"score"`
	StartedAt time.Time         `json:"startedAt"`
}

func NewAttempt(quiz domain.Quiz, userID string, startedAt time.Time) *Attempt {
	return &Attempt{
		QuizID:    quiz.ID,
		UserID:    userID,
		Questions: append([]domain.Question(nil), quiz.Questions...),
		Answers:   []int{},
		StartedAt: startedAt,
	}
}

// Quiz returns the question set the attempt was started with.
func (a *Attempt) Quiz() domain.Quiz {
	return domain.Quiz{ID: a.QuizID, Questions: a.Questions}
}

// Check reports domain.ErrMalformedQuiz when the pinned questions are invalid
// or the position does not fit them, e.g. an attempt saved without questions.
func (a *Attempt) Check() error {
	if err := a.Quiz().Validate(); err != nil {
		return err
	}
	if a.Index < 0 || a.Index >= len(a.Questions) || len(a.Answers) > len(a.Questions) {
		return fmt.Errorf("attempt at question %d of %d: %w", a.Index, len(a.Questions), domain.ErrMalformedQuiz)
	}
	return nil
}

// Current is the question awaiting an answer.
func (a *Attempt) Current() (domain.Question, error) {
	if a.Index < 0 || a.Index >= len(a.Questions) {
		return domain.Question{}, fmt.Errorf("attempt at question %d of %d: %w", a.Index, len(a.Questions), domain.ErrMalformedQuiz)
	}
	return a.Questions[a.Index], nil
}

// Select records option as the pending answer for the current question.
func (a *Attempt) Select(option int) error {
	if a.Completed {
		return domain.ErrQuizFinished
	}
	question, err := a.Current()
	if err != nil {
		return err
	}
	if option < 0 || option >= len(question.Options) {
		return domain.ErrInvalidOption
	}
	a.Pending = &option
	return nil
}

// Next commits the pending answer and moves on. It reports true when that
// was the last question, at which point Score is final.
func (a *Attempt) Next() (bool, error) {
	if a.Completed {
		return true, domain.ErrQuizFinished
	}
	if _, err := a.Current(); err != nil {
		return false, err
	}
	if a.Pending == nil {
		return false, domain.ErrNoPendingAnswer
	}

	a.Answers = append(a.Answers, *a.Pending)
	a.Pending = nil
	if a.Index < len(a.Questions)-1 {
		a.Index++
		return false, nil
	}

	a.Completed = true
	a.Score = Score(a.Quiz(), a.Answers)
	return true, nil
}

// Result summarizes a completed attempt.
func (a *Attempt) Result() domain.QuizResult {
	correct := make([]bool, len(a.Questions))
	for i, answer := range a.Answers {
		if i < len(a.Questions) {
			correct[i] = answer == a.Questions[i].Correct
		}
	}
	return domain.QuizResult{
		Score:   a.Score,
		Total:   len(a.Questions),
		Points:  PointsFor(a.Score),
		Correct: correct,
	}
}

// Score counts positions where the answer equals the question's correct index.
func Score(quiz domain.Quiz, answers []int) int {
	score := 0
	for i, answer := range answers {
		if i < len(quiz.Questions) && answer == quiz.Questions[i].Correct {
			score++
		}
	}
	return score
}

// PointsFor converts a score to points. No partial credit.
func PointsFor(score int) int {
	return score * domain.PointsPerCorrect
}
