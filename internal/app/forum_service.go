package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"study-portal/internal/domain"

	"github.com/google/uuid"
)

// NewPost is the input of CreatePost.
type NewPost struct {
	Title   string
	Content string
	Subject string
}

// PostedAnswer is the outcome of CreateAnswer.
type PostedAnswer struct {
	Answer        domain.Answer `json:"answer"`
	PointsAwarded int           `json:"pointsAwarded"`
}

// SearchResult replaces the default listing while Active is true.
type SearchResult struct {
	Active bool          `json:"active"`
	Query  string        `json:"query,omitempty"`
	Posts  []domain.Post `json:"posts"`
}

// ForumService manages posts, answers and the helpful-answer workflow.
// Fetched posts and answers are kept as read-through caches that the next
// explicit fetch replaces; they are never the source of truth.
type ForumService struct {
	store Store
	stats *StatsService
	now   func() time.Time
	newID func() string

	mu      sync.RWMutex
	posts   []domain.Post
	answers map[string][]domain.Answer
}

func NewForumService(store Store, stats *StatsService) *ForumService {
	return &ForumService{
		store:   store,
		stats:   stats,
		now:     time.Now,
		newID:   uuid.NewString,
		answers: make(map[string][]domain.Answer),
	}
}

// ListPosts fetches every post, newest first.
func (s *ForumService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, domain.Remote("list posts", err)
	}
	s.mu.Lock()
	s.posts = clonePosts(posts)
	s.mu.Unlock()
	return posts, nil
}

// CachedPosts returns the listing as of the last fetch or local mutation.
// It serves the read-through cache contract for in-process callers; HTTP
// handlers always fetch and never read it.
func (s *ForumService) CachedPosts() []domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.posts)
}

// ListAnswers fetches a post's answers, oldest first.
func (s *ForumService) ListAnswers(ctx context.Context, postID string) ([]domain.Answer, error) {
	answers, err := s.store.ListAnswers(ctx, postID)
	if err != nil {
		return nil, domain.Remote("list answers", err)
	}
	s.mu.Lock()
	s.answers[postID] = append([]domain.Answer(nil), answers...)
	s.mu.Unlock()
	return answers, nil
}

// CachedAnswers returns the answers of postID as of the last fetch, plus any
// answers created since. Like CachedPosts it is not served over HTTP.
func (s *ForumService) CachedAnswers(postID string) ([]domain.Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers, ok := s.answers[postID]
	return append([]domain.Answer(nil), answers...), ok
}

// CreatePost stores a new question thread authored by the caller.
func (s *ForumService) CreatePost(ctx context.Context, id domain.Identity, input NewPost) (domain.Post, error) {
	if err := requireIdentity(id); err != nil {
		return domain.Post{}, err
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	subject := strings.TrimSpace(input.Subject)
	if title == "" || content == "" || subject == "" {
		return domain.Post{}, fmt.Errorf("title, content and subject are required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	post, err := s.store.InsertPost(ctx, domain.Post{
		ID:         s.newID(),
		Title:      title,
		Content:    content,
		AuthorID:   id.ID,
		AuthorName: id.AuthorName(),
		Subject:    subject,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return domain.Post{}, domain.Remote("create post", err)
	}

	s.mu.Lock()
	s.posts = append([]domain.Post{post}, s.posts...)
	s.mu.Unlock()
	return post, nil
}

// CreateAnswer stores an answer, flags the post answered and credits the
// submitter, all in one transaction.
func (s *ForumService) CreateAnswer(ctx context.Context, id domain.Identity, postID, content string) (PostedAnswer, error) {
	if err := requireIdentity(id); err != nil {
		return PostedAnswer{}, err
	}
	content = strings.TrimSpace(content)
	if postID == "" || content == "" {
		return PostedAnswer{}, fmt.Errorf("post and content are required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	answer := domain.Answer{
		ID:         s.newID(),
		PostID:     postID,
		Content:    content,
		AuthorID:   id.ID,
		AuthorName: id.AuthorName(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var saved domain.Answer
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		if saved, err = tx.InsertAnswer(ctx, answer); err != nil {
			return domain.Remote("create answer", err)
		}
		if err := tx.SetPostAnswered(ctx, postID); err != nil {
			return domain.Remote("mark post answered", err)
		}
		_, err = credit(ctx, tx, id.ID, id.StatsName(), domain.StatsDelta{
			Points:       domain.AnswerPoints,
			ForumAnswers: 1,
		}, now)
		return err
	})
	if err != nil {
		return PostedAnswer{}, err
	}
	s.stats.awarded("forum_answer", domain.AnswerPoints)

	s.mu.Lock()
	s.answers[postID] = append(s.answers[postID], saved)
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts[i].IsAnswered = true
		}
	}
	s.mu.Unlock()

	return PostedAnswer{Answer: saved, PointsAwarded: domain.AnswerPoints}, nil
}

// MarkHelpful endorses an answer on the caller's own post and credits the
// answer's author with the helpful bonus in the same transaction.
func (s *ForumService) MarkHelpful(ctx context.Context, id domain.Identity, answerID string) (domain.Answer, error) {
	if err := requireIdentity(id); err != nil {
		return domain.Answer{}, err
	}

	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return domain.Answer{}, domain.Remote("load answer", err)
	}
	post, err := s.store.GetPost(ctx, answer.PostID)
	if err != nil {
		return domain.Answer{}, domain.Remote("load post", err)
	}
	if post.AuthorID != id.ID {
		return domain.Answer{}, fmt.Errorf("only the post author can mark answers helpful: %w", domain.ErrForbidden)
	}
	if answer.AuthorID == id.ID {
		return domain.Answer{}, fmt.Errorf("cannot mark your own answer helpful: %w", domain.ErrForbidden)
	}
	if answer.IsHelpful {
		return domain.Answer{}, domain.ErrAlreadyHelpful
	}

	now := s.now()
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		flipped, err := tx.SetAnswerHelpful(ctx, answerID)
		if err != nil {
			return domain.Remote("mark answer helpful", err)
		}
		if !flipped {
			return domain.ErrAlreadyHelpful
		}
		_, err = credit(ctx, tx, answer.AuthorID, answer.AuthorName, domain.StatsDelta{
			Points: domain.HelpfulAnswerPoints,
		}, now)
		return err
	})
	if err != nil {
		return domain.Answer{}, err
	}
	s.stats.awarded("helpful_answer", domain.HelpfulAnswerPoints)

	answer.IsHelpful = true
	s.mu.Lock()
	cached := s.answers[answer.PostID]
	for i := range cached {
		if cached[i].ID == answerID {
			cached[i].IsHelpful = true
		}
	}
	s.mu.Unlock()
	return answer, nil
}

// SearchPosts runs the ranked search. A blank query clears the search and
// yields the plain listing.
func (s *ForumService) SearchPosts(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		posts, err := s.ListPosts(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Posts: posts}, nil
	}

	posts, err := s.store.SearchPosts(ctx, query)
	if err != nil {
		return SearchResult{}, domain.Remote("search posts", err)
	}
	return SearchResult{Active: true, Query: query, Posts: posts}, nil
}

func clonePosts(posts []domain.Post) []domain.Post {
	return append([]domain.Post(nil), posts...)
}
