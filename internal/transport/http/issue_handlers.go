package http

import (
	"net/http"

	"study-portal/internal/app"
)

type reportIssueRequest struct {
	IssueType   string `json:"issueType" validate:"required,oneof=bug feature content performance other"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

func (a *API) reportIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req reportIssueRequest
	if err := decode(r, a.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	report, err := a.svc.Issues.Report(r.Context(), id, app.NewIssue{
		IssueType:   req.IssueType,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (a *API) listIssues(w http.ResponseWriter, r *http.Request) {
	reports, err := a.svc.Issues.ListMine(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
