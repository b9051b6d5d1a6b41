// Package handler exposes the user read operations over HTTP. All routes are
// bearer-protected; list and get-by-id additionally require the admin role.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/server/httpx"
	"session-auth-service/internal/server/middleware"
	"session-auth-service/internal/user/service"
)

// UserService is the read surface the handler needs.
type UserService interface {
	Get(ctx context.Context, id string) (*service.UserOutput, error)
	List(ctx context.Context, page, limit int) (*service.PaginatedUsers, error)
}

// Handler serves the /users routes.
type Handler struct {
	svc UserService
	log zerolog.Logger
}

// NewHandler returns a user HTTP handler.
func NewHandler(svc UserService, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the user routes on mux behind the given middleware.
// Authentication always runs before the role check.
func (h *Handler) Register(mux *http.ServeMux, authenticate, adminOnly func(http.Handler) http.Handler) {
	mux.Handle("GET /users", authenticate(adminOnly(http.HandlerFunc(h.list))))
	mux.Handle("GET /users/me", authenticate(http.HandlerFunc(h.me)))
	mux.Handle("GET /users/{id}", authenticate(adminOnly(http.HandlerFunc(h.get))))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	out, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.WriteError(h.log, w, r, apperr.Unauthorized("missing identity"))
		return
	}
	out, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
