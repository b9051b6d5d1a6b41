// Package handler exposes the auth use cases over HTTP.
package handler

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/auth/service"
	"session-auth-service/internal/metrics"
	"session-auth-service/internal/server/httpx"
	userdomain "session-auth-service/internal/user/domain"
)

const maxIPLen = 45 // fits IPv6 textual form

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService is the use-case surface the handler needs.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, role userdomain.Role) (*service.SignUpResult, error)
	SignIn(ctx context.Context, email, password string, meta service.ClientMeta) (*service.SignInResult, error)
	Refresh(ctx context.Context, refreshToken string, meta service.ClientMeta) (*service.RefreshResult, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// Handler serves the /auth routes.
type Handler struct {
	svc AuthService
	log zerolog.Logger
}

// NewHandler returns an auth HTTP handler.
func NewHandler(svc AuthService, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the auth routes on mux. All four routes are public.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.signUp)
	mux.HandleFunc("POST /auth/signin", h.signIn)
	mux.HandleFunc("POST /auth/refresh", h.refresh)
	mux.HandleFunc("POST /auth/signout", h.signOut)
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type signUpResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	role := userdomain.Role(req.Role)
	if req.Role != "" && !userdomain.ValidRole(role) {
		httpx.WriteError(h.log, w, r, apperr.Invalid("role must be user or admin"))
		return
	}

	out, err := h.svc.SignUp(r.Context(), req.Email, req.Password, role)
	if err != nil {
		metrics.SignUps.WithLabelValues(outcomeLabel(err, "duplicate", apperr.KindDuplicate)).Inc()
		httpx.WriteError(h.log, w, r, err)
		return
	}
	metrics.SignUps.WithLabelValues("ok").Inc()
	httpx.WriteJSON(w, http.StatusCreated, signUpResponse{ID: out.ID, Email: out.Email, Role: string(out.Role)})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserRole     string `json:"userRole"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(h.log, w, r, apperr.Invalid("email and password are required"))
		return
	}

	out, err := h.svc.SignIn(r.Context(), req.Email, req.Password, clientMeta(r))
	if err != nil {
		metrics.SignIns.WithLabelValues(outcomeLabel(err, "rejected", apperr.KindUnauthorized, apperr.KindNotFound)).Inc()
		httpx.WriteError(h.log, w, r, err)
		return
	}
	metrics.SignIns.WithLabelValues("ok").Inc()
	httpx.WriteJSON(w, http.StatusOK, signInResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		UserRole:     string(out.UserRole),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	SessionID    string `json:"sessionId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(h.log, w, r, apperr.Invalid("refreshToken is required"))
		return
	}

	out, err := h.svc.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		metrics.Refreshes.WithLabelValues(outcomeLabel(err, "rejected", apperr.KindUnauthorized)).Inc()
		httpx.WriteError(h.log, w, r, err)
		return
	}
	metrics.Refreshes.WithLabelValues("rotated").Inc()
	httpx.WriteJSON(w, http.StatusOK, refreshResponse{
		SessionID:    out.SessionID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	})
}

type signOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	var req signOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	if err := h.svc.SignOut(r.Context(), req.RefreshToken); err != nil {
		httpx.WriteError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateCredentials(email, password string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Invalid("email must be a valid address")
	}
	if len(password) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	return nil
}

// clientMeta pulls advisory user-agent and client IP from the request. The IP
// is truncated to the column width; it is advisory, never trusted.
func clientMeta(r *http.Request) service.ClientMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = ip[:i]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	if len(ip) > maxIPLen {
		ip = ip[:maxIPLen]
	}
	return service.ClientMeta{UserAgent: r.UserAgent(), IP: ip}
}

// outcomeLabel buckets an error into label when its kind is one of kinds,
// otherwise "error".
func outcomeLabel(err error, label string, kinds ...apperr.Kind) string {
	k := apperr.KindOf(err)
	for _, kind := range kinds {
		if k == kind {
			return label
		}
	}
	if k != apperr.KindUnknown {
		return label
	}
	return "error"
}
