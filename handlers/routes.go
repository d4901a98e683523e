package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"geekhub/api"
)

// Routes bundles the handlers mounted under /api.
type Routes struct {
	Stats    *StatsHandler
	Catalog  *CatalogHandler
	Library  *LibraryHandler
	Groups   *GroupsHandler
	Activity *ActivityHandler
	Version  *VersionHandler
	// Tasks is optional; admin routes are mounted only when set.
	Tasks *TasksHandler

	// Auth guards every route except invitation previews. Nil leaves routes open.
	Auth mux.MiddlewareFunc
	// SearchLimiter throttles catalog search per client IP. May be nil.
	SearchLimiter *api.IPRateLimiter
}

// Register mounts the API on r. OPTIONS is accepted on every route so CORS
// preflights reach the router middleware.
func (rt Routes) Register(r *mux.Router) {
	r.HandleFunc("/version", rt.Version.GetVersion).Methods(http.MethodGet)

	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/invitations/{token}", rt.Groups.ValidateInvitation).Methods(http.MethodGet, http.MethodOptions)

	private := r.PathPrefix("/api").Subrouter()
	if rt.Auth != nil {
		private.Use(rt.Auth)
	}

	private.HandleFunc("/stats", rt.Stats.Summary).Methods(http.MethodGet, http.MethodOptions)

	search := rt.Catalog.Search
	if rt.SearchLimiter != nil {
		search = api.RateLimitHandlerFunc(rt.SearchLimiter, search)
	}
	private.HandleFunc("/catalog/search", search).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/catalog/items:batch", rt.Catalog.Batch).Methods(http.MethodPost, http.MethodOptions)
	private.HandleFunc("/catalog/items/{type}/{provider}/{externalId}", rt.Catalog.Item).Methods(http.MethodGet, http.MethodOptions)

	private.HandleFunc("/library", rt.Library.List).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/library", rt.Library.Upsert).Methods(http.MethodPost)
	private.HandleFunc("/library/{id}", rt.Library.Remove).Methods(http.MethodDelete, http.MethodOptions)

	private.HandleFunc("/groups", rt.Groups.Create).Methods(http.MethodPost, http.MethodOptions)
	private.HandleFunc("/groups/me", rt.Groups.Mine).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/groups/leave", rt.Groups.Leave).Methods(http.MethodPost, http.MethodOptions)

	private.HandleFunc("/invitations", rt.Groups.ListInvitations).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/invitations", rt.Groups.CreateInvitation).Methods(http.MethodPost)
	private.HandleFunc("/invitations/{id}", rt.Groups.DeleteInvitation).Methods(http.MethodDelete)
	private.HandleFunc("/invitations/{token}/accept", rt.Groups.AcceptInvitation).Methods(http.MethodPost, http.MethodOptions)

	private.HandleFunc("/activity", rt.Activity.Feed).Methods(http.MethodGet, http.MethodOptions)

	if rt.Tasks != nil {
		private.HandleFunc("/admin/tasks", rt.Tasks.List).Methods(http.MethodGet, http.MethodOptions)
		private.HandleFunc("/admin/tasks/{name}/run", rt.Tasks.Run).Methods(http.MethodPost, http.MethodOptions)
	}
}
