// Package server wires the HTTP routes and builds the fully assembled
// handler. Dependency construction is explicit; there is no runtime
// injection machinery.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"session-auth-service/internal/audit"
	auditrepo "session-auth-service/internal/audit/repository"
	authhandler "session-auth-service/internal/auth/handler"
	authservice "session-auth-service/internal/auth/service"
	"session-auth-service/internal/config"
	"session-auth-service/internal/security"
	"session-auth-service/internal/server/middleware"
	sessionrepo "session-auth-service/internal/session/repository"
	userdomain "session-auth-service/internal/user/domain"
	userhandler "session-auth-service/internal/user/handler"
	userrepo "session-auth-service/internal/user/repository"
	userservice "session-auth-service/internal/user/service"
)

// Deps holds the wired services the HTTP layer serves.
type Deps struct {
	Auth   *authservice.AuthService
	Users  *userservice.UserService
	Tokens *security.TokenService
	Pool   *pgxpool.Pool
	Log    zerolog.Logger
}

// NewDeps is the composition root: it constructs every adapter and use case
// by hand from config and the database pool.
func NewDeps(cfg *config.Config, log zerolog.Logger, pool *pgxpool.Pool) Deps {
	hasher := security.NewPasswordHasher(security.DefaultArgon2Params())
	tokens := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)

	users := userrepo.NewPostgresRepository(pool)
	sessions := sessionrepo.NewPostgresRepository(pool)
	auditor := audit.NewRecorder(auditrepo.NewPostgresRepository(pool), log)

	return Deps{
		Auth:   authservice.NewAuthService(users, sessions, hasher, tokens, auditor, log, cfg.AccessTTL(), cfg.RefreshTTL()),
		Users:  userservice.NewUserService(users),
		Tokens: tokens,
		Pool:   pool,
		Log:    log,
	}
}

// NewHandler registers all routes and returns the root handler with the
// ambient middleware applied.
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()

	authhandler.NewHandler(d.Auth, d.Log).Register(mux)

	authenticate := middleware.Authenticate(d.Tokens, d.Log)
	adminOnly := middleware.RequireRole(d.Log, userdomain.RoleAdmin)
	userhandler.NewHandler(d.Users, d.Log).Register(mux, authenticate, adminOnly)

	mux.Handle("GET /metrics", promhttp.Handler())
	registerHealth(mux, d)

	var h http.Handler = mux
	h = middleware.RequestLogger(d.Log)(h)
	h = middleware.Recover(d.Log)(h)
	return h
}

func registerHealth(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Pool.Ping(ctx); err != nil {
				d.Log.Warn().Err(err).Msg("readiness: db not ready")
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})
}
