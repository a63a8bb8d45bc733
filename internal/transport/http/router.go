package http

import (
	"log/slog"
	"net/http"

	"study-portal/internal/app"
	"study-portal/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Auth   *auth.Service
	Forum  *app.ForumService
	Stats  *app.StatsService
	Quiz   *app.DailyQuizService
	Issues *app.IssueService
	Ranks  *app.RankKeeper
}

// API holds the REST handlers.
type API struct {
	svc      Services
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRouter wires every route of the portal.
func NewRouter(svc Services, logger *slog.Logger) http.Handler {
	api := &API{svc: svc, validate: validator.New(), logger: logger}
	ws := NewWSHandler(svc.Ranks, svc.Stats, logger)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	routes := r.NewRoute().Subrouter()
	routes.Use(instrument(logger), authenticate(svc.Auth))

	routes.HandleFunc("/api/auth/signup", api.signUp).Methods(http.MethodPost)
	routes.HandleFunc("/api/auth/signin", api.signIn).Methods(http.MethodPost)
	routes.HandleFunc("/api/auth/signout", api.signOut).Methods(http.MethodPost)
	routes.HandleFunc("/api/auth/me", api.me).Methods(http.MethodGet)

	routes.HandleFunc("/api/forum/posts", api.listPosts).Methods(http.MethodGet)
	routes.HandleFunc("/api/forum/posts", api.createPost).Methods(http.MethodPost)
	routes.HandleFunc("/api/forum/posts/{id}/answers", api.listAnswers).Methods(http.MethodGet)
	routes.HandleFunc("/api/forum/posts/{id}/answers", api.createAnswer).Methods(http.MethodPost)
	routes.HandleFunc("/api/forum/answers/{id}/helpful", api.markHelpful).Methods(http.MethodPost)
	routes.HandleFunc("/api/forum/search", api.searchPosts).Methods(http.MethodGet)

	routes.HandleFunc("/api/stats/me", api.myStats).Methods(http.MethodGet)
	routes.HandleFunc("/api/leaderboard", api.leaderboard).Methods(http.MethodGet)
	routes.HandleFunc("/ws/leaderboard", ws.ServeWS).Methods(http.MethodGet)

	routes.HandleFunc("/api/quiz/daily", api.dailyStatus).Methods(http.MethodGet)
	routes.HandleFunc("/api/quiz/daily/start", api.startQuiz).Methods(http.MethodPost)
	routes.HandleFunc("/api/quiz/daily/select", api.selectOption).Methods(http.MethodPost)
	routes.HandleFunc("/api/quiz/daily/next", api.nextQuestion).Methods(http.MethodPost)

	routes.HandleFunc("/api/issues", api.listIssues).Methods(http.MethodGet)
	routes.HandleFunc("/api/issues", api.reportIssue).Methods(http.MethodPost)

	return r
}
