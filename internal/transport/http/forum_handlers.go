package http

import (
	"log/slog"
	"net/http"

	"study-portal/internal/app"

	"github.com/gorilla/mux"
)

type createPostRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
	Subject string `json:"subject" validate:"required,max=80"`
}

type createAnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.svc.Forum.ListPosts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req createPostRequest
	if err := decode(r, a.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	post, err := a.svc.Forum.CreatePost(r.Context(), id, app.NewPost{
		Title:   req.Title,
		Content: req.Content,
		Subject: req.Subject,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) listAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := a.svc.Forum.ListAnswers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (a *API) createAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req createAnswerRequest
	if err := decode(r, a.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	postID := mux.Vars(r)["id"]
	posted, err := a.svc.Forum.CreateAnswer(r.Context(), id, postID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	a.logger.Info("answer posted",
		slog.String("user_id", id.ID),
		slog.String("post_id", postID),
		slog.Int("points", posted.PointsAwarded),
	)
	writeJSON(w, http.StatusCreated, posted)
}

func (a *API) markHelpful(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	answer, err := a.svc.Forum.MarkHelpful(r.Context(), id, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	a.logger.Info("answer marked helpful",
		slog.String("user_id", id.ID),
		slog.String("post_id", answer.PostID),
		slog.String("answer_id", answer.ID),
	)
	writeJSON(w, http.StatusOK, answer)
}

func (a *API) searchPosts(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.Forum.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
