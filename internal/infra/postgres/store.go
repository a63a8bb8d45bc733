package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"

	"github.com/uptrace/bun"
)

// Store is the Postgres-backed app.Store and auth.UserRepository. Row access
// goes through bun; the search and ranking procedures go through Procedures.
type Store struct {
	db    bun.IDB
	root  *bun.DB
	procs *Procedures
	inTx  bool
	clock func() time.Time
}

func NewStore(db *bun.DB, procs *Procedures) *Store {
	return &Store{db: db, root: db, procs: procs, clock: time.Now}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx, root: s.root, procs: s.procs, inTx: true, clock: s.clock})
	})
}

func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	var rows []postRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain())
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	var row postRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", postID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) InsertPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	if err := s.insertUnique(ctx, newPostRow(post), "id"); err != nil {
		return domain.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (s *Store) SetPostAnswered(ctx context.Context, postID string) error {
	res, err := s.db.NewUpdate().Model((*postRow)(nil)).
		Set("is_answered = TRUE").
		Set("updated_at = ?", s.clock()).
		Where("id = ?", postID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark post answered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, postID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).Where("post_id = ?", postID).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		answers = append(answers, r.toDomain())
	}
	return answers, nil
}

func (s *Store) GetAnswer(ctx context.Context, answerID string) (domain.Answer, error) {
	var row answerRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", answerID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("get answer: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) InsertAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	exists, err := s.db.NewSelect().Model((*postRow)(nil)).Where("id = ?", answer.PostID).Exists(ctx)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return domain.Answer{}, domain.ErrPostNotFound
	}
	if err := s.insertUnique(ctx, newAnswerRow(answer), "id"); err != nil {
		return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
	}
	return answer, nil
}

// SetAnswerHelpful only touches rows not yet helpful, so concurrent callers
// cannot both observe the flip.
func (s *Store) SetAnswerHelpful(ctx context.Context, answerID string) (bool, error) {
	res, err := s.db.NewUpdate().Model((*answerRow)(nil)).
		Set("is_helpful = TRUE").
		Set("updated_at = ?", s.clock()).
		Where("id = ?", answerID).
		Where("is_helpful IS NOT TRUE").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark answer helpful: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := s.GetAnswer(ctx, answerID); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) SearchPosts(ctx context.Context, query string) ([]domain.Post, error) {
	return s.procs.SearchPosts(ctx, query)
}

func (s *Store) FindStats(ctx context.Context, userID string) (domain.UserStats, error) {
	var row statsRow
	err := s.db.NewSelect().Model(&row).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{}, domain.ErrStatsNotFound
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("find stats: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) InsertStats(ctx context.Context, stats domain.UserStats) (domain.UserStats, error) {
	row := &statsRow{
		UserID:           stats.UserID,
		TotalPoints:      stats.TotalPoints,
		CurrentRank:      stats.CurrentRank,
		QuizzesCompleted: stats.QuizzesCompleted,
		ForumAnswers:     stats.ForumAnswers,
		DisplayName:      stats.DisplayName,
		CreatedAt:        stats.CreatedAt,
		UpdatedAt:        stats.UpdatedAt,
	}
	if err := s.insertUnique(ctx, row, "user_id"); err != nil {
		return domain.UserStats{}, fmt.Errorf("insert stats: %w", err)
	}
	return stats, nil
}

func (s *Store) IncrementStats(ctx context.Context, userID string, delta domain.StatsDelta) (domain.UserStats, error) {
	var row statsRow
	err := s.db.NewUpdate().Model(&row).
		Set("total_points = total_points + ?", delta.Points).
		Set("quizzes_completed = quizzes_completed + ?", delta.QuizzesCompleted).
		Set("forum_answers = forum_answers + ?", delta.ForumAnswers).
		Set("updated_at = ?", s.clock()).
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{}, domain.ErrStatsNotFound
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("increment stats: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) TopStats(ctx context.Context, limit int) ([]domain.UserStats, error) {
	var rows []statsRow
	q := s.db.NewSelect().Model(&rows).Order("total_points DESC", "user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("top stats: %w", err)
	}
	stats := make([]domain.UserStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, r.toDomain())
	}
	return stats, nil
}

func (s *Store) UpdateUserRanks(ctx context.Context) error {
	return s.procs.UpdateUserRanks(ctx)
}

func (s *Store) FindCompletion(ctx context.Context, userID, quizDate string) (domain.QuizCompletion, error) {
	var row completionRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_date = ?", quizDate).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizCompletion{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.QuizCompletion{}, fmt.Errorf("find completion: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) InsertCompletion(ctx context.Context, completion domain.QuizCompletion) error {
	date, err := time.Parse(quizDateLayout, completion.QuizDate)
	if err != nil {
		return fmt.Errorf("quiz date %q: %w", completion.QuizDate, domain.ErrInvalidInput)
	}
	row := &completionRow{
		UserID:       completion.UserID,
		QuizDate:     date,
		PointsEarned: completion.PointsEarned,
		CompletedAt:  completion.CompletedAt,
	}
	if err := s.insertUnique(ctx, row, "user_id, quiz_date"); err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (s *Store) InsertIssue(ctx context.Context, report domain.IssueReport) (domain.IssueReport, error) {
	row := &issueRow{
		ID:          report.ID,
		UserID:      report.UserID,
		UserName:    report.UserName,
		IssueType:   report.IssueType,
		Title:       report.Title,
		Description: report.Description,
		Status:      report.Status,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}
	if err := s.insertUnique(ctx, row, "id"); err != nil {
		return domain.IssueReport{}, fmt.Errorf("insert issue: %w", err)
	}
	return report, nil
}

func (s *Store) ListIssues(ctx context.Context, userID string) ([]domain.IssueReport, error) {
	var rows []issueRow
	err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	reports := make([]domain.IssueReport, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toDomain())
	}
	return reports, nil
}

func (s *Store) InsertUser(ctx context.Context, user domain.User) error {
	row := &userRow{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		DisplayName:  user.DisplayName,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.insertUnique(ctx, row, "email"); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) FindAdmin(ctx context.Context, userID string) (domain.AdminUser, error) {
	var row adminRow
	err := s.db.NewSelect().Model(&row).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("find admin: %w", err)
	}
	return domain.AdminUser{UserID: row.UserID, Role: row.Role}, nil
}

// GrantAdmin gives userID the role, replacing any previous one.
func (s *Store) GrantAdmin(ctx context.Context, userID, role string) error {
	_, err := s.db.NewInsert().Model(&adminRow{UserID: userID, Role: role, CreatedAt: s.clock()}).
		On("CONFLICT (user_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

// insertUnique inserts model and maps a clash on the conflict target to
// domain.ErrConflict. DO NOTHING keeps an enclosing transaction usable.
func (s *Store) insertUnique(ctx context.Context, model interface{}, target string) error {
	res, err := s.db.NewInsert().Model(model).
		On("CONFLICT (" + target + ") DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrConflict
	}
	return nil
}
