// Package service orchestrates the auth use cases: sign-up, sign-in, refresh
// rotation, and sign-out.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/audit"
	"session-auth-service/internal/security"
	sessiondomain "session-auth-service/internal/session/domain"
	sessionrepo "session-auth-service/internal/session/repository"
	userdomain "session-auth-service/internal/user/domain"
)

// Failures returned by the auth use cases. The boundary maps the kinds to
// status codes; messages are deliberately uniform for refresh failures.
var (
	ErrEmailInUse          = apperr.Duplicate("email already in use")
	ErrUserNotFound        = apperr.NotFound("user not found")
	ErrInvalidCredentials  = apperr.Unauthorized("invalid credentials")
	ErrInvalidRefreshToken = apperr.Unauthorized("invalid refresh token")
	ErrInvalidSession      = apperr.Unauthorized("invalid session")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByTokenHash(ctx context.Context, hash string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	Rotate(ctx context.Context, old, replacement *sessiondomain.Session) error
}

// Recorder is the audit sink; recording never fails the request.
type Recorder interface {
	Record(ctx context.Context, kind, userID, sessionID, ip string)
}

// ClientMeta is advisory request metadata stored on the session.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// SignUpResult is the sanitized outcome of SignUp; never carries the hash.
type SignUpResult struct {
	ID    string
	Email string
	Role  userdomain.Role
}

// SignInResult carries the issued token pair. The raw refresh token goes to
// the caller; only its hash is persisted.
type SignInResult struct {
	AccessToken  string
	RefreshToken string
	UserRole     userdomain.Role
}

// RefreshResult carries the rotated token pair and the new session id.
type RefreshResult struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
}

// AuthService implements local password sign-up/sign-in, refresh-token
// rotation, and sign-out.
type AuthService struct {
	users      UserRepo
	sessions   SessionRepo
	hasher     *security.PasswordHasher
	tokens     *security.TokenService
	auditor    Recorder
	log        zerolog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	sessions SessionRepo,
	hasher *security.PasswordHasher,
	tokens *security.TokenService,
	auditor Recorder,
	log zerolog.Logger,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		auditor:    auditor,
		log:        log,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SignUp creates a user with a hashed password. Role defaults to "user".
func (s *AuthService) SignUp(ctx context.Context, email, password string, role userdomain.Role) (*SignUpResult, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := userdomain.New(uuid.New().String(), email, hash, role)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.EventSignUp, user.ID(), "", "")
	s.log.Info().Str("user_id", user.ID()).Msg("user created")

	return &SignUpResult{ID: user.ID(), Email: user.Email(), Role: user.Role()}, nil
}

// SignIn verifies the password and opens a new refresh session. An unknown
// email fails not-found while a wrong password fails unauthorized; the two
// are distinguishable by status, matching the documented behavior.
func (s *AuthService) SignIn(ctx context.Context, email, password string, meta ClientMeta) (*SignInResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, err := s.hasher.Verify(user.PasswordHash(), password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.GenerateAuthTokens(user.ID(), string(user.Role()), s.accessTTL)
	if err != nil {
		return nil, err
	}
	session, err := sessiondomain.New(uuid.New().String(), user.ID(), pair.RefreshTokenHash, s.refreshTTL, meta.UserAgent, meta.IP)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.EventSignIn, user.ID(), session.ID(), meta.IP)

	return &SignInResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserRole:     user.Role(),
	}, nil
}

// Refresh consumes the presented refresh token and rotates the session: the
// old session is revoked and linked to a newly created one, and a fresh token
// pair is issued against the user's current role. Each refresh token is
// single-use; presenting a rotated token fails and is recorded as a replay.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*RefreshResult, error) {
	hash := security.HashRefreshToken(refreshToken)
	oldSession, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if oldSession == nil {
		return nil, ErrInvalidRefreshToken
	}

	if err := oldSession.ValidateForRefresh(); err != nil {
		if errors.Is(err, sessiondomain.ErrSessionRevoked) {
			// A revoked hash coming back means the credential is in
			// circulation after rotation: someone replayed it.
			s.auditor.Record(ctx, audit.EventRefreshReplay, oldSession.UserID(), oldSession.ID(), meta.IP)
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, oldSession.UserID())
	if err != nil {
		return nil, err
	}
	if user == nil {
		// The owning user is gone; the credential must not stay usable.
		if err := s.sessions.Revoke(ctx, oldSession.ID()); err != nil {
			return nil, err
		}
		s.auditor.Record(ctx, audit.EventSessionOrphaned, oldSession.UserID(), oldSession.ID(), meta.IP)
		return nil, ErrInvalidSession
	}

	pair, err := s.tokens.GenerateAuthTokens(user.ID(), string(user.Role()), s.accessTTL)
	if err != nil {
		return nil, err
	}
	newSession, err := sessiondomain.New(uuid.New().String(), user.ID(), pair.RefreshTokenHash, s.refreshTTL, meta.UserAgent, meta.IP)
	if err != nil {
		return nil, err
	}
	oldSession.Replace(newSession.ID())

	// Rotate is the single consumption point: the old session is durably
	// revoked before the new one becomes visible. A concurrent refresh that
	// got here with the same token loses on the conditional revoke.
	if err := s.sessions.Rotate(ctx, oldSession, newSession); err != nil {
		if errors.Is(err, sessionrepo.ErrSessionConsumed) {
			s.auditor.Record(ctx, audit.EventRefreshReplay, user.ID(), oldSession.ID(), meta.IP)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	s.auditor.Record(ctx, audit.EventRefreshRotated, user.ID(), newSession.ID(), meta.IP)

	return &RefreshResult{
		SessionID:    newSession.ID(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// SignOut revokes the session behind the presented refresh token. Unknown
// tokens succeed silently so sign-out leaks nothing about token validity.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	hash := security.HashRefreshToken(refreshToken)
	session, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, session.ID()); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.EventSignOut, session.UserID(), session.ID(), "")
	return nil
}
