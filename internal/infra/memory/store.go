package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
)

// Store is an in-memory app.Store and auth.UserRepository. It enforces the
// same uniqueness rules as the SQL schema. Transactions hold the store lock
// and restore a snapshot when fn fails.
type Store struct {
	shared *shared
	inTx   bool
}

type shared struct {
	mu   sync.Mutex
	data *tables
}

type tables struct {
	posts       map[string]domain.Post
	answers     map[string]domain.Answer
	stats       map[string]domain.UserStats
	completions map[string]domain.QuizCompletion
	issues      map[string]domain.IssueReport
	users       map[string]domain.User
	admins      map[string]domain.AdminUser
}

func NewStore() *Store {
	return &Store{shared: &shared{data: newTables()}}
}

func newTables() *tables {
	return &tables{
		posts:       make(map[string]domain.Post),
		answers:     make(map[string]domain.Answer),
		stats:       make(map[string]domain.UserStats),
		completions: make(map[string]domain.QuizCompletion),
		issues:      make(map[string]domain.IssueReport),
		users:       make(map[string]domain.User),
		admins:      make(map[string]domain.AdminUser),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.posts {
		c.posts[k] = v
	}
	for k, v := range t.answers {
		c.answers[k] = v
	}
	for k, v := range t.stats {
		c.stats[k] = v
	}
	for k, v := range t.completions {
		c.completions[k] = v
	}
	for k, v := range t.issues {
		c.issues[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.admins {
		c.admins[k] = v
	}
	return c
}

// lock is a no-op inside a transaction, which already holds the lock.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.shared.mu.Lock()
	return s.shared.mu.Unlock
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()

	snapshot := s.shared.data.clone()
	if err := fn(ctx, &Store{shared: s.shared, inTx: true}); err != nil {
		s.shared.data = snapshot
		return err
	}
	return nil
}

func (s *Store) ListPosts(_ context.Context) ([]domain.Post, error) {
	defer s.lock()()
	posts := make([]domain.Post, 0, len(s.shared.data.posts))
	for _, p := range s.shared.data.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (s *Store) GetPost(_ context.Context, postID string) (domain.Post, error) {
	defer s.lock()()
	post, ok := s.shared.data.posts[postID]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, nil
}

func (s *Store) InsertPost(_ context.Context, post domain.Post) (domain.Post, error) {
	defer s.lock()()
	if _, ok := s.shared.data.posts[post.ID]; ok {
		return domain.Post{}, domain.ErrConflict
	}
	s.shared.data.posts[post.ID] = post
	return post, nil
}

func (s *Store) SetPostAnswered(_ context.Context, postID string) error {
	defer s.lock()()
	post, ok := s.shared.data.posts[postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	post.IsAnswered = true
	s.shared.data.posts[postID] = post
	return nil
}

func (s *Store) ListAnswers(_ context.Context, postID string) ([]domain.Answer, error) {
	defer s.lock()()
	answers := make([]domain.Answer, 0)
	for _, a := range s.shared.data.answers {
		if a.PostID == postID {
			answers = append(answers, a)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		if !answers[i].CreatedAt.Equal(answers[j].CreatedAt) {
			return answers[i].CreatedAt.Before(answers[j].CreatedAt)
		}
		return answers[i].ID < answers[j].ID
	})
	return answers, nil
}

func (s *Store) GetAnswer(_ context.Context, answerID string) (domain.Answer, error) {
	defer s.lock()()
	answer, ok := s.shared.data.answers[answerID]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return answer, nil
}

func (s *Store) InsertAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	defer s.lock()()
	if _, ok := s.shared.data.posts[answer.PostID]; !ok {
		return domain.Answer{}, domain.ErrPostNotFound
	}
	if _, ok := s.shared.data.answers[answer.ID]; ok {
		return domain.Answer{}, domain.ErrConflict
	}
	s.shared.data.answers[answer.ID] = answer
	return answer, nil
}

func (s *Store) SetAnswerHelpful(_ context.Context, answerID string) (bool, error) {
	defer s.lock()()
	answer, ok := s.shared.data.answers[answerID]
	if !ok {
		return false, domain.ErrAnswerNotFound
	}
	if answer.IsHelpful {
		return false, nil
	}
	answer.IsHelpful = true
	answer.UpdatedAt = time.Now()
	s.shared.data.answers[answerID] = answer
	return true, nil
}

// SearchPosts ranks posts by how often the query terms occur, title hits
// weighing double. Posts without any hit are left out.
func (s *Store) SearchPosts(_ context.Context, query string) ([]domain.Post, error) {
	defer s.lock()()
	terms := strings.Fields(strings.ToLower(query))

	type hit struct {
		post  domain.Post
		score int
	}
	var hits []hit
	for _, p := range s.shared.data.posts {
		title := strings.ToLower(p.Title)
		body := strings.ToLower(p.Content + " " + p.Subject)
		score := 0
		for _, term := range terms {
			score += 2*strings.Count(title, term) + strings.Count(body, term)
		}
		if score > 0 {
			hits = append(hits, hit{post: p, score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].post.CreatedAt.After(hits[j].post.CreatedAt)
	})

	posts := make([]domain.Post, 0, len(hits))
	for _, h := range hits {
		posts = append(posts, h.post)
	}
	return posts, nil
}

func (s *Store) FindStats(_ context.Context, userID string) (domain.UserStats, error) {
	defer s.lock()()
	stats, ok := s.shared.data.stats[userID]
	if !ok {
		return domain.UserStats{}, domain.ErrStatsNotFound
	}
	return stats, nil
}

func (s *Store) InsertStats(_ context.Context, stats domain.UserStats) (domain.UserStats, error) {
	defer s.lock()()
	if _, ok := s.shared.data.stats[stats.UserID]; ok {
		return domain.UserStats{}, domain.ErrConflict
	}
	s.shared.data.stats[stats.UserID] = stats
	return stats, nil
}

func (s *Store) IncrementStats(_ context.Context, userID string, delta domain.StatsDelta) (domain.UserStats, error) {
	defer s.lock()()
	stats, ok := s.shared.data.stats[userID]
	if !ok {
		return domain.UserStats{}, domain.ErrStatsNotFound
	}
	stats.TotalPoints += delta.Points
	stats.QuizzesCompleted += delta.QuizzesCompleted
	stats.ForumAnswers += delta.ForumAnswers
	stats.UpdatedAt = time.Now()
	s.shared.data.stats[userID] = stats
	return stats, nil
}

func (s *Store) TopStats(_ context.Context, limit int) ([]domain.UserStats, error) {
	defer s.lock()()
	rows := s.sortedStats()
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) UpdateUserRanks(_ context.Context) error {
	defer s.lock()()
	for i, row := range s.sortedStats() {
		row.CurrentRank = i + 1
		s.shared.data.stats[row.UserID] = row
	}
	return nil
}

// sortedStats orders by points descending, user id breaking ties.
func (s *Store) sortedStats() []domain.UserStats {
	rows := make([]domain.UserStats, 0, len(s.shared.data.stats))
	for _, row := range s.shared.data.stats {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}

func (s *Store) FindCompletion(_ context.Context, userID, quizDate string) (domain.QuizCompletion, error) {
	defer s.lock()()
	completion, ok := s.shared.data.completions[completionKey(userID, quizDate)]
	if !ok {
		return domain.QuizCompletion{}, domain.ErrNotFound
	}
	return completion, nil
}

func (s *Store) InsertCompletion(_ context.Context, completion domain.QuizCompletion) error {
	defer s.lock()()
	key := completionKey(completion.UserID, completion.QuizDate)
	if _, ok := s.shared.data.completions[key]; ok {
		return domain.ErrConflict
	}
	s.shared.data.completions[key] = completion
	return nil
}

func completionKey(userID, quizDate string) string {
	return userID + "|" + quizDate
}

func (s *Store) InsertIssue(_ context.Context, report domain.IssueReport) (domain.IssueReport, error) {
	defer s.lock()()
	s.shared.data.issues[report.ID] = report
	return report, nil
}

func (s *Store) ListIssues(_ context.Context, userID string) ([]domain.IssueReport, error) {
	defer s.lock()()
	reports := make([]domain.IssueReport, 0)
	for _, r := range s.shared.data.issues {
		if r.UserID == userID {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (s *Store) InsertUser(_ context.Context, user domain.User) error {
	defer s.lock()()
	if _, ok := s.shared.data.users[user.Email]; ok {
		return domain.ErrConflict
	}
	s.shared.data.users[user.Email] = user
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	defer s.lock()()
	user, ok := s.shared.data.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindAdmin(_ context.Context, userID string) (domain.AdminUser, error) {
	defer s.lock()()
	admin, ok := s.shared.data.admins[userID]
	if !ok {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	return admin, nil
}

// GrantAdmin gives userID the admin role.
func (s *Store) GrantAdmin(_ context.Context, userID, role string) error {
	defer s.lock()()
	s.shared.data.admins[userID] = domain.AdminUser{UserID: userID, Role: role}
	return nil
}
