package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"geekhub/models"
	"geekhub/services/invitations"
)

type groupService interface {
	CreateGroup(ctx context.Context, ownerID, name string) (models.GroupDetails, error)
	MyGroup(ctx context.Context, userID string) (models.GroupDetails, error)
	Leave(ctx context.Context, userID string) error
	Create(ctx context.Context, createdBy string, expiresIn time.Duration) (models.Invitation, error)
	Validate(ctx context.Context, token string) (models.InvitationPreview, error)
	Accept(ctx context.Context, token, userID string) (models.GroupDetails, error)
	List(ctx context.Context, userID string) ([]models.Invitation, error)
	Delete(ctx context.Context, userID, id string) error
}

var _ groupService = (*invitations.Service)(nil)

// maxInvitationHours caps the lifetime a caller may request (30 days).
const maxInvitationHours = 30 * 24

type GroupsHandler struct {
	Service groupService
}

func NewGroupsHandler(service groupService) *GroupsHandler {
	return &GroupsHandler{Service: service}
}

// Create serves POST /api/groups.
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	group, err := h.Service.CreateGroup(r.Context(), userID, body.Name)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// Mine serves GET /api/groups/me.
func (h *GroupsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	group, err := h.Service.MyGroup(r.Context(), userID)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// Leave serves POST /api/groups/leave.
func (h *GroupsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Leave(r.Context(), userID); err != nil {
		writeGroupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInvitation serves POST /api/invitations.
func (h *GroupsHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		ExpiresInHours int `json:"expiresInHours"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if body.ExpiresInHours < 0 || body.ExpiresInHours > maxInvitationHours {
		writeError(w, http.StatusBadRequest, errors.New("expiresInHours must be between 0 and 720"))
		return
	}

	inv, err := h.Service.Create(r.Context(), userID, time.Duration(body.ExpiresInHours)*time.Hour)
	if err != nil {
		if errors.Is(err, invitations.ErrNoGroup) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ListInvitations serves GET /api/invitations.
func (h *GroupsHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteInvitation serves DELETE /api/invitations/{id}.
func (h *GroupsHandler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeGroupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateInvitation serves the public GET /api/invitations/{token}.
func (h *GroupsHandler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Service.Validate(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// AcceptInvitation serves POST /api/invitations/{token}/accept.
func (h *GroupsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	group, err := h.Service.Accept(r.Context(), mux.Vars(r)["token"], userID)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func writeGroupError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, invitations.ErrGroupNameRequired),
		errors.Is(err, invitations.ErrGroupNameTooLong),
		errors.Is(err, invitations.ErrInvalidToken):
		status = http.StatusBadRequest
	case errors.Is(err, invitations.ErrNoGroup),
		errors.Is(err, invitations.ErrInvitationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, invitations.ErrAlreadyInGroup):
		status = http.StatusConflict
	case errors.Is(err, invitations.ErrInvitationExpired),
		errors.Is(err, invitations.ErrInvitationUsed):
		status = http.StatusGone
	}
	writeError(w, status, err)
}
