package handlers

import (
	"context"
	"net/http"

	"geekhub/models"
	"geekhub/services/activity"
)

type activityService interface {
	Feed(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error)
}

var _ activityService = (*activity.Service)(nil)

type ActivityHandler struct {
	Service activityService
}

func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{Service: service}
}

// Feed serves GET /api/activity?limit=.
func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := h.Service.Feed(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
