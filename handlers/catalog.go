package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"geekhub/internal/validation"
	"geekhub/models"
	"geekhub/services/catalog"
)

type catalogService interface {
	Search(ctx context.Context, q models.CatalogSearchQuery) (models.CatalogSearchPage, error)
	Item(ctx context.Context, ref models.CatalogItemRef) (models.UnifiedCatalogItem, error)
	Items(ctx context.Context, refs []models.CatalogItemRef) []models.BatchCatalogItem
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

// upstreamResponse is the body returned when a provider call fails.
type upstreamResponse struct {
	Error    string          `json:"error"`
	Provider models.Provider `json:"provider"`
	Status   int             `json:"status"`
}

// Search serves GET /api/catalog/search?type=&q=&page=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	result, err := h.Service.Search(r.Context(), models.CatalogSearchQuery{
		Type:  models.MediaType(strings.ToLower(strings.TrimSpace(q.Get("type")))),
		Query: q.Get("q"),
		Page:  page,
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Item serves GET /api/catalog/items/{type}/{provider}/{externalId}.
func (h *CatalogHandler) Item(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref := models.CatalogItemRef{
		Type:       models.MediaType(vars["type"]),
		Provider:   models.Provider(vars["provider"]),
		ExternalID: vars["externalId"],
	}
	item, err := h.Service.Item(r.Context(), ref)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Batch serves POST /api/catalog/items:batch.
func (h *CatalogHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var body models.BatchCatalogItemsRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validation.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Items(r.Context(), body.Items))
}

func writeCatalogError(w http.ResponseWriter, err error) {
	var upstream *catalog.UpstreamError
	switch {
	case errors.Is(err, catalog.ErrInvalidType),
		errors.Is(err, catalog.ErrInvalidProvider),
		errors.Is(err, catalog.ErrExternalIDRequired):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		switch {
		case upstream.NotFound():
			status = http.StatusNotFound
		case upstream.Status == http.StatusServiceUnavailable:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, upstreamResponse{
			Error:    err.Error(),
			Provider: upstream.Provider,
			Status:   upstream.Status,
		})
	case errors.Is(err, catalog.ErrProviderNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
