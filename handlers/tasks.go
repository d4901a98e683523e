package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"geekhub/services/scheduler"
)

var errNotAdmin = errors.New("admin access required")

type taskService interface {
	GetTaskStatus() []scheduler.TaskStatus
	RunTaskNow(name string) error
}

var _ taskService = (*scheduler.Service)(nil)

// TasksHandler exposes the background scheduler to operators listed in
// auth.admin_user_ids.
type TasksHandler struct {
	Service taskService
	admins  map[string]struct{}
}

func NewTasksHandler(service taskService, adminUserIDs []string) *TasksHandler {
	admins := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = struct{}{}
	}
	return &TasksHandler{Service: service, admins: admins}
}

func (h *TasksHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, ok := requireUser(w, r)
	if !ok {
		return false
	}
	if _, admin := h.admins[userID]; !admin {
		writeError(w, http.StatusForbidden, errNotAdmin)
		return false
	}
	return true
}

// List serves GET /api/admin/tasks.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.Service.GetTaskStatus())
}

// Run serves POST /api/admin/tasks/{name}/run. The task runs in the
// background; poll List for its outcome.
func (h *TasksHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	name := mux.Vars(r)["name"]
	switch err := h.Service.RunTaskNow(name); {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"task": name, "status": "started"})
	case errors.Is(err, scheduler.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, scheduler.ErrTaskAlreadyRunning):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
