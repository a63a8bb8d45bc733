package domain

import (
	"fmt"
	"strings"
	"time"
)

// Identity is the authenticated caller as resolved by the auth provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// AuthorName is the name stamped on forum content: the email local-part, or "Anonymous".
func (i Identity) AuthorName() string {
	local, _, _ := strings.Cut(i.Email, "@")
	if local == "" {
		return "Anonymous"
	}
	return local
}

// StatsName is the name shown on the leaderboard.
func (i Identity) StatsName() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.AuthorName()
}

// Post is a forum question thread.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Subject    string    `json:"subject"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Likes      int       `json:"likes"`
	IsAnswered bool      `json:"isAnswered"`
}

// Answer is a reply to a post.
type Answer struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsHelpful  bool      `json:"isHelpful"`
}

// UserStats holds the running gamification totals for one user.
type UserStats struct {
	UserID           string    `json:"userId"`
	TotalPoints      int       `json:"totalPoints"`
	CurrentRank      int       `json:"currentRank"`
	QuizzesCompleted int       `json:"quizzesCompleted"`
	ForumAnswers     int       `json:"forumAnswers"`
	DisplayName      string    `json:"displayName"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// StatsDelta is an increment applied to a stats row. Totals only grow.
type StatsDelta struct {
	Points           int
	QuizzesCompleted int
	ForumAnswers     int
}

// QuizCompletion guards the one-reward-per-day rule. QuizDate is YYYY-MM-DD.
type QuizCompletion struct {
	UserID       string    `json:"userId"`
	QuizDate     string    `json:"quizDate"`
	PointsEarned int       `json:"pointsEarned"`
	CompletedAt  time.Time `json:"completedAt"`
}

// AdminUser grants elevated access.
type AdminUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// User is an account known to the auth provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// IssueReport is a user-submitted problem report.
type IssueReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	IssueType   string    `json:"issueType"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IssueStatusOpen is the status of a freshly submitted report.
const IssueStatusOpen = "open"

// LeaderboardEntry is a ranked row of the global leaderboard.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"userId"`
	DisplayName      string `json:"displayName"`
	TotalPoints      int    `json:"totalPoints"`
	QuizzesCompleted int    `json:"quizzesCompleted"`
	ForumAnswers     int    `json:"forumAnswers"`
	Badge            string `json:"badge"`
}

// Leaderboard captures the ordered scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Question is a four-option multiple choice question.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
	Subject string   `json:"subject"`
}

// OptionsPerQuestion is the fixed number of choices of every question.
const OptionsPerQuestion = 4

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Validate rejects quizzes without questions and questions that are not
// four options with a correct index among them.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz %q has no questions: %w", q.ID, ErrMalformedQuiz)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Prompt) == "" {
			return fmt.Errorf("quiz %q question %d has no prompt: %w", q.ID, i, ErrMalformedQuiz)
		}
		if len(question.Options) != OptionsPerQuestion {
			return fmt.Errorf("quiz %q question %d has %d options: %w", q.ID, i, len(question.Options), ErrMalformedQuiz)
		}
		if question.Correct < 0 || question.Correct >= len(question.Options) {
			return fmt.Errorf("quiz %q question %d has correct index %d: %w", q.ID, i, question.Correct, ErrMalformedQuiz)
		}
	}
	return nil
}

// QuizResult summarizes a finished attempt.
type QuizResult struct {
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Points  int    `json:"points"`
	Correct []bool `json:"correct"`
}
