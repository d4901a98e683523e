package handlers

import (
	"context"
	"errors"
	"net/http"

	"geekhub/models"
	"geekhub/services/stats"
)

type statsService interface {
	Summary(ctx context.Context, q stats.SummaryQuery) (models.StatsSummary, error)
}

var _ statsService = (*stats.Service)(nil)

type StatsHandler struct {
	Service statsService
}

func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{Service: service}
}

// Summary serves GET /api/stats?scope=&year=&type=&limit=.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q := r.URL.Query()
	summary, err := h.Service.Summary(r.Context(), stats.SummaryQuery{
		UserID:   userID,
		Scope:    q.Get("scope"),
		Year:     year,
		Type:     q.Get("type"),
		TopLimit: limit,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, stats.ErrInvalidScope), errors.Is(err, stats.ErrInvalidType), errors.Is(err, stats.ErrInvalidYear):
			status = http.StatusBadRequest
		case errors.Is(err, stats.ErrUserIDRequired):
			status = http.StatusUnauthorized
		case errors.Is(err, stats.ErrNoGroup):
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
