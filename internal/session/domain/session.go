// Package domain holds the session entity: the server-side record tracking
// the lifecycle of one refresh-token lineage.
package domain

import (
	"errors"
	"time"

	"session-auth-service/internal/apperr"
)

// Refresh validation failures. Revocation is reported before expiry so a
// revoked-but-unexpired session gets the more specific reason.
var (
	ErrSessionRevoked = apperr.Unauthorized("refresh token was revoked")
	ErrSessionExpired = apperr.Unauthorized("refresh token is expired")
)

// Session is an opaque entity; state changes only through Revoke and Replace.
// There is no setter for revokedAt or replacedBySessionID.
type Session struct {
	id                  string
	userID              string
	refreshTokenHash    string
	replacedBySessionID string // empty until the session is rotated away
	userAgent           string
	ip                  string
	expiresAt           time.Time
	createdAt           time.Time
	revokedAt           *time.Time // nil while the session is not revoked
}

// HydrateParams carries a persisted session row back into the entity.
type HydrateParams struct {
	ID                  string
	UserID              string
	RefreshTokenHash    string
	ReplacedBySessionID string
	UserAgent           string
	IP                  string
	ExpiresAt           time.Time
	CreatedAt           time.Time
	RevokedAt           *time.Time
}

// New creates a session for a freshly issued refresh credential. The deadline
// is absolute: createdAt + ttl, fixed at creation.
func New(id, userID, refreshTokenHash string, ttl time.Duration, userAgent, ip string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}
	if userID == "" {
		return nil, errors.New("session user id is required")
	}
	now := time.Now().UTC()
	return &Session{
		id:               id,
		userID:           userID,
		refreshTokenHash: refreshTokenHash,
		userAgent:        userAgent,
		ip:               ip,
		expiresAt:        now.Add(ttl),
		createdAt:        now,
	}, nil
}

// Hydrate rebuilds a session from persistence without touching timestamps.
func Hydrate(p HydrateParams) *Session {
	return &Session{
		id:                  p.ID,
		userID:              p.UserID,
		refreshTokenHash:    p.RefreshTokenHash,
		replacedBySessionID: p.ReplacedBySessionID,
		userAgent:           p.UserAgent,
		ip:                  p.IP,
		expiresAt:           p.ExpiresAt,
		createdAt:           p.CreatedAt,
		revokedAt:           p.RevokedAt,
	}
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) UserID() string              { return s.userID }
func (s *Session) RefreshTokenHash() string    { return s.refreshTokenHash }
func (s *Session) ReplacedBySessionID() string { return s.replacedBySessionID }
func (s *Session) UserAgent() string           { return s.userAgent }
func (s *Session) IP() string                  { return s.ip }
func (s *Session) ExpiresAt() time.Time        { return s.expiresAt }
func (s *Session) CreatedAt() time.Time        { return s.createdAt }

// RevokedAt returns the revocation time, or nil while the session is live.
func (s *Session) RevokedAt() *time.Time {
	if s.revokedAt == nil {
		return nil
	}
	t := *s.revokedAt
	return &t
}

// IsExpired reports whether the absolute deadline has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.expiresAt)
}

// IsRevoked reports whether the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.revokedAt != nil
}

// IsActive reports whether the session can still be refreshed.
func (s *Session) IsActive() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// Revoke marks the session revoked. First revocation wins: calling it again
// is a no-op that preserves the original timestamp.
func (s *Session) Revoke() {
	if s.IsRevoked() {
		return
	}
	now := time.Now().UTC()
	s.revokedAt = &now
}

// Replace revokes the session and stamps the forward pointer to its rotation
// target. Used exclusively by refresh rotation.
func (s *Session) Replace(newSessionID string) {
	s.Revoke()
	s.replacedBySessionID = newSessionID
}

// ValidateForRefresh fails when the session can no longer be exchanged for a
// new token pair. The revoked check runs before the expiry check.
func (s *Session) ValidateForRefresh() error {
	if s.IsRevoked() {
		return ErrSessionRevoked
	}
	if s.IsExpired() {
		return ErrSessionExpired
	}
	return nil
}
