package http

import (
	"net/http"
)

type selectRequest struct {
	Option *int `json:"option" validate:"required,min=0"`
}

func (a *API) dailyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.svc.Quiz.Status(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) startQuiz(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Quiz.Start(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) selectOption(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, a.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := a.svc.Quiz.Select(r.Context(), id, *req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) nextQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Quiz.Next(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
