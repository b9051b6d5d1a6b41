// Package audit records the auth event trail. Revoked→replaced session links
// plus replay events make leaked refresh credentials detectable after the fact.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event kinds recorded by the auth flows.
const (
	EventSignUp          = "sign_up"
	EventSignIn          = "sign_in"
	EventRefreshRotated  = "refresh_rotated"
	EventRefreshReplay   = "refresh_replay"
	EventSignOut         = "sign_out"
	EventSessionOrphaned = "session_orphaned"
)

// Event is one append-only audit row. UserID, SessionID, and IP are optional.
type Event struct {
	ID        string
	Kind      string
	UserID    string
	SessionID string
	IP        string
	CreatedAt time.Time
}

// Repository defines persistence for audit events.
type Repository interface {
	Insert(ctx context.Context, e *Event) error
	// ListByUser returns events for a user, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Event, error)
}

// Recorder writes audit events best-effort: persistence failures are logged
// and never surface to the request that produced the event.
type Recorder struct {
	repo Repository
	log  zerolog.Logger
}

// NewRecorder returns a Recorder persisting to repo. repo may be nil; then
// events are dropped.
func NewRecorder(repo Repository, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Record writes one audit event.
func (r *Recorder) Record(ctx context.Context, kind, userID, sessionID, ip string) {
	if r.repo == nil {
		return
	}
	e := &Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserID:    userID,
		SessionID: sessionID,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.Insert(ctx, e); err != nil {
		r.log.Error().Err(err).Str("kind", kind).Msg("audit event not recorded")
	}
}
