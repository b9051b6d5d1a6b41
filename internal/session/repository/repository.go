package repository

import (
	"context"
	"errors"

	"session-auth-service/internal/session/domain"
)

// ErrSessionConsumed is returned by Rotate when the old session was already
// revoked by a concurrent request; the presented refresh token has been spent.
var ErrSessionConsumed = errors.New("session already consumed")

// Repository defines persistence for sessions. Sessions are never deleted by
// this service; retention is an external concern.
type Repository interface {
	// GetByTokenHash returns the session whose refresh hash matches, or nil
	// if absent. Errors are database failures only.
	GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	// Create persists a new session. A refresh-hash collision is a hard
	// failure (duplicate error), never a silent overwrite.
	Create(ctx context.Context, s *domain.Session) error
	// Revoke marks the session revoked. Idempotent at the row level: an
	// already-revoked session keeps its original timestamp.
	Revoke(ctx context.Context, id string) error
	// Rotate atomically consumes old and makes replacement visible: a
	// conditional revoke of old (stamping its forward pointer) plus the
	// insert of replacement, in one transaction. Returns ErrSessionConsumed
	// when old was no longer unrevoked, leaving no new session behind.
	Rotate(ctx context.Context, old, replacement *domain.Session) error
}
