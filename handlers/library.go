package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"geekhub/internal/database"
	"geekhub/internal/validation"
	"geekhub/models"
	"geekhub/services/library"
)

type libraryService interface {
	AddOrUpdate(ctx context.Context, userID string, in models.LibraryUpsert) (models.LibraryEntry, error)
	List(ctx context.Context, userID string, f database.LibraryFilter) ([]models.LibraryEntry, error)
	Remove(ctx context.Context, userID, id string) error
}

var _ libraryService = (*library.Service)(nil)

type LibraryHandler struct {
	Service libraryService
}

func NewLibraryHandler(service libraryService) *LibraryHandler {
	return &LibraryHandler{Service: service}
}

// List serves GET /api/library?type=&status=&favorites=&limit=&offset=.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := database.LibraryFilter{
		MediaType: models.MediaType(strings.ToLower(q.Get("type"))),
		Status:    models.EntryStatus(strings.ToLower(q.Get("status"))),
		Favorites: q.Get("favorites") == "true",
	}
	if filter.MediaType != "" && !filter.MediaType.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("type must be movie, tv, anime or game"))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("status must be planned, in_progress, completed or dropped"))
		return
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil || filter.Limit < 0 {
		writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, errors.New("offset must be a non-negative integer"))
		return
	}

	entries, err := h.Service.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Upsert serves POST /api/library.
func (h *LibraryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body models.LibraryUpsert
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := h.Service.AddOrUpdate(r.Context(), userID, body)
	if err != nil {
		status := http.StatusInternalServerError
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			status = http.StatusBadRequest
		case errors.Is(err, library.ErrUserIDRequired):
			status = http.StatusUnauthorized
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Remove serves DELETE /api/library/{id}.
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.Remove(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, library.ErrEntryNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
