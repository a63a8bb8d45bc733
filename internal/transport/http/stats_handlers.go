package http

import (
	"net/http"
	"strconv"

	"study-portal/internal/domain"
)

type statsResponse struct {
	Stats domain.UserStats `json:"stats"`
	Badge string           `json:"badge"`
}

func (a *API) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats.LoadOrCreate(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Badge: domain.Badge(stats)})
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	board, err := a.svc.Stats.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
