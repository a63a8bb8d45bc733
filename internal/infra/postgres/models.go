package postgres

import (
	"time"

	"study-portal/internal/domain"

	"github.com/uptrace/bun"
)

const quizDateLayout = "2006-01-02"

type postRow struct {
	bun.BaseModel `bun:"table:forum_posts"`

	ID         string    `bun:"id,pk"`
	Title      string    `bun:"title"`
	Content    string    `bun:"content"`
	AuthorID   string    `bun:"author_id"`
	AuthorName string    `bun:"author_name"`
	Subject    string    `bun:"subject"`
	Likes      int       `bun:"likes"`
	IsAnswered bool      `bun:"is_answered"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

func (r postRow) toDomain() domain.Post {
	return domain.Post{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Subject:    r.Subject,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Likes:      r.Likes,
		IsAnswered: r.IsAnswered,
	}
}

func newPostRow(p domain.Post) *postRow {
	return &postRow{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Subject:    p.Subject,
		Likes:      p.Likes,
		IsAnswered: p.IsAnswered,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type answerRow struct {
	bun.BaseModel `bun:"table:forum_answers"`

	ID         string    `bun:"id,pk"`
	PostID     string    `bun:"post_id"`
	Content    string    `bun:"content"`
	AuthorID   string    `bun:"author_id"`
	AuthorName string    `bun:"author_name"`
	IsHelpful  bool      `bun:"is_helpful"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:         r.ID,
		PostID:     r.PostID,
		Content:    r.Content,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		IsHelpful:  r.IsHelpful,
	}
}

func newAnswerRow(a domain.Answer) *answerRow {
	return &answerRow{
		ID:         a.ID,
		PostID:     a.PostID,
		Content:    a.Content,
		AuthorID:   a.AuthorID,
		AuthorName: a.AuthorName,
		IsHelpful:  a.IsHelpful,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type statsRow struct {
	bun.BaseModel `bun:"table:user_stats"`

	UserID           string    `bun:"user_id,pk"`
	TotalPoints      int       `bun:"total_points"`
	CurrentRank      int       `bun:"current_rank"`
	QuizzesCompleted int       `bun:"quizzes_completed"`
	ForumAnswers     int       `bun:"forum_answers"`
	DisplayName      string    `bun:"display_name"`
	CreatedAt        time.Time `bun:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at"`
}

func (r statsRow) toDomain() domain.UserStats {
	return domain.UserStats{
		UserID:           r.UserID,
		TotalPoints:      r.TotalPoints,
		CurrentRank:      r.CurrentRank,
		QuizzesCompleted: r.QuizzesCompleted,
		ForumAnswers:     r.ForumAnswers,
		DisplayName:      r.DisplayName,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type completionRow struct {
	bun.BaseModel `bun:"table:daily_quiz_completions"`

	UserID       string    `bun:"user_id"`
	QuizDate     time.Time `bun:"quiz_date,type:date"`
	PointsEarned int       `bun:"points_earned"`
	CompletedAt  time.Time `bun:"completed_at"`
}

func (r completionRow) toDomain() domain.QuizCompletion {
	return domain.QuizCompletion{
		UserID:       r.UserID,
		QuizDate:     r.QuizDate.Format(quizDateLayout),
		PointsEarned: r.PointsEarned,
		CompletedAt:  r.CompletedAt,
	}
}

type issueRow struct {
	bun.BaseModel `bun:"table:issue_reports"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id"`
	UserName    string    `bun:"user_name"`
	IssueType   string    `bun:"issue_type"`
	Title       string    `bun:"title"`
	Description string    `bun:"description"`
	Status      string    `bun:"status"`
	CreatedAt   time.Time `bun:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at"`
}

func (r issueRow) toDomain() domain.IssueReport {
	return domain.IssueReport{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		IssueType:   r.IssueType,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	DisplayName  string    `bun:"display_name"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		CreatedAt:    r.CreatedAt,
	}
}

type adminRow struct {
	bun.BaseModel `bun:"table:admin_users"`

	UserID    string    `bun:"user_id,pk"`
	Role      string    `bun:"role"`
	CreatedAt time.Time `bun:"created_at"`
}
