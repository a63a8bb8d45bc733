package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/auth"
	"study-portal/internal/domain"
	"study-portal/internal/infra/memory"
	"study-portal/internal/observability"

	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	server *httptest.Server
	store  *memory.Store
	stats  *app.StatsService
	ranks  *app.RankKeeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	users, err := auth.NewService(store, memory.NewDenylist(), auth.Options{
		Secret:     "test-secret-0123456789",
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	ranks := app.NewRankKeeper(store, nil, 10, observability.Discard())
	stats := app.NewStatsService(store, ranks, nil, time.UTC)
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(app.DailyQuiz()), time.Minute)

	handler := NewRouter(Services{
		Auth:   users,
		Forum:  app.NewForumService(store, stats),
		Stats:  stats,
		Quiz:   app.NewDailyQuizService(quizzes, memory.NewAttemptStore(), stats, 0, nil),
		Issues: app.NewIssueService(store),
		Ranks:  ranks,
	}, observability.Discard())

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &harness{server: server, store: store, stats: stats, ranks: ranks}
}

func (h *harness) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (h *harness) signUp(t *testing.T, email, name string) auth.Session {
	t.Helper()
	var session auth.Session
	status := h.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "secret-pass", "displayName": name,
	}, &session)
	if status != http.StatusCreated {
		t.Fatalf("signup %s: status %d", email, status)
	}
	return session
}

func TestHelpfulAnswerFlow(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp(t, "alice@example.com", "Alice")
	bob := h.signUp(t, "bob@example.com", "Bob")

	var post domain.Post
	status := h.do(t, http.MethodPost, "/api/forum/posts", alice.Token, map[string]string{
		"title": "Photosynthesis", "content": "How does it work?", "subject": "Biology",
	}, &post)
	if status != http.StatusCreated {
		t.Fatalf("create post: status %d", status)
	}

	var posted app.PostedAnswer
	status = h.do(t, http.MethodPost, "/api/forum/posts/"+post.ID+"/answers", bob.Token, map[string]string{
		"content": "Light energy becomes chemical energy.",
	}, &posted)
	if status != http.StatusCreated || posted.PointsAwarded != 30 {
		t.Fatalf("create answer: status %d, points %d", status, posted.PointsAwarded)
	}

	helpful := "/api/forum/answers/" + posted.Answer.ID + "/helpful"
	if status := h.do(t, http.MethodPost, helpful, "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous helpful: expected 401, got %d", status)
	}
	if status := h.do(t, http.MethodPost, helpful, bob.Token, nil, nil); status != http.StatusForbidden {
		t.Fatalf("non-author helpful: expected 403, got %d", status)
	}
	if status := h.do(t, http.MethodPost, helpful, alice.Token, nil, nil); status != http.StatusOK {
		t.Fatalf("author helpful: expected 200, got %d", status)
	}
	if status := h.do(t, http.MethodPost, helpful, alice.Token, nil, nil); status != http.StatusConflict {
		t.Fatalf("repeat helpful: expected 409, got %d", status)
	}

	var mine statsResponse
	if status := h.do(t, http.MethodGet, "/api/stats/me", bob.Token, nil, &mine); status != http.StatusOK {
		t.Fatalf("stats: status %d", status)
	}
	if mine.Stats.TotalPoints != 90 || mine.Stats.ForumAnswers != 1 {
		t.Fatalf("expected 90 points over 1 answer, got %+v", mine.Stats)
	}

	var answered []domain.Post
	h.do(t, http.MethodGet, "/api/forum/posts", "", nil, &answered)
	if len(answered) != 1 || !answered[0].IsAnswered {
		t.Fatalf("expected post flagged answered, got %+v", answered)
	}
}

func TestDailyQuizFlow(t *testing.T) {
	h := newHarness(t)
	user := h.signUp(t, "quizzer@example.com", "Quizzer")

	var view app.AttemptView
	if status := h.do(t, http.MethodPost, "/api/quiz/daily/start", user.Token, nil, &view); status != http.StatusOK {
		t.Fatalf("start: status %d", status)
	}
	if view.Total != 5 || view.Question == nil {
		t.Fatalf("unexpected first view: %+v", view)
	}

	if status := h.do(t, http.MethodPost, "/api/quiz/daily/next", user.Token, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("next without selection: expected 400, got %d", status)
	}

	for _, option := range []int{0, 1, 0, 1, 1} {
		if status := h.do(t, http.MethodPost, "/api/quiz/daily/select", user.Token, map[string]int{"option": option}, nil); status != http.StatusOK {
			t.Fatalf("select %d: status %d", option, status)
		}
		view = app.AttemptView{}
		if status := h.do(t, http.MethodPost, "/api/quiz/daily/next", user.Token, nil, &view); status != http.StatusOK {
			t.Fatalf("next: status %d", status)
		}
	}
	if !view.Completed || view.Result == nil || view.Result.Points != 100 {
		t.Fatalf("expected 100 points on completion, got %+v", view)
	}
	if view.Stats == nil || view.Stats.QuizzesCompleted != 1 {
		t.Fatalf("expected one completed quiz, got %+v", view.Stats)
	}

	if status := h.do(t, http.MethodPost, "/api/quiz/daily/start", user.Token, nil, nil); status != http.StatusConflict {
		t.Fatalf("second start: expected 409, got %d", status)
	}
	var daily app.DailyStatus
	h.do(t, http.MethodGet, "/api/quiz/daily", user.Token, nil, &daily)
	if !daily.CompletedToday {
		t.Fatalf("expected completed today")
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	h := newHarness(t)
	user := h.signUp(t, "leaver@example.com", "")

	if status := h.do(t, http.MethodGet, "/api/auth/me", user.Token, nil, nil); status != http.StatusOK {
		t.Fatalf("me: status %d", status)
	}
	if status := h.do(t, http.MethodPost, "/api/auth/signout", user.Token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("signout: status %d", status)
	}
	if status := h.do(t, http.MethodGet, "/api/auth/me", user.Token, nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("me after signout: expected 401, got %d", status)
	}
}

func TestIssueReportValidation(t *testing.T) {
	h := newHarness(t)
	user := h.signUp(t, "reporter@example.com", "Reporter")

	bad := map[string]string{"issueType": "rant", "title": "x", "description": "y"}
	if status := h.do(t, http.MethodPost, "/api/issues", user.Token, bad, nil); status != http.StatusBadRequest {
		t.Fatalf("bad type: expected 400, got %d", status)
	}

	good := map[string]string{"issueType": "bug", "title": "Quiz timer", "description": "Timer shows 0:00"}
	var report domain.IssueReport
	if status := h.do(t, http.MethodPost, "/api/issues", user.Token, good, &report); status != http.StatusCreated {
		t.Fatalf("report: status %d", status)
	}
	if report.Status != domain.IssueStatusOpen {
		t.Fatalf("expected open status, got %q", report.Status)
	}

	var reports []domain.IssueReport
	h.do(t, http.MethodGet, "/api/issues", user.Token, nil, &reports)
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	h := newHarness(t)
	if status := h.do(t, http.MethodGet, "/api/leaderboard?limit=abc", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	ctx := context.Background()
	_, _ = h.stats.Update(ctx, domain.Identity{ID: "u1", DisplayName: "One"}, domain.StatsDelta{Points: 40})
	var board domain.Leaderboard
	if status := h.do(t, http.MethodGet, "/api/leaderboard?limit=5", "", nil, &board); status != http.StatusOK {
		t.Fatalf("leaderboard: status %d", status)
	}
	if len(board.Entries) != 1 || board.Entries[0].Rank != 1 || board.Entries[0].TotalPoints != 40 {
		t.Fatalf("unexpected board: %+v", board)
	}
}

func TestStatusForMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrPostNotFound, http.StatusNotFound},
		{domain.ErrAlreadyCompleted, http.StatusConflict},
		{domain.ErrAlreadyHelpful, http.StatusConflict},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.Remote("load", errors.New("connection refused")), http.StatusBadGateway},
		{errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Fatalf("%v: expected %d, got %d", c.err, c.want, got)
		}
	}
}
