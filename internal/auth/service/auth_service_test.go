package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/audit"
	"session-auth-service/internal/security"
	sessiondomain "session-auth-service/internal/session/domain"
	sessionrepo "session-auth-service/internal/session/repository"
	userdomain "session-auth-service/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*userdomain.User{}, byEmail: map[string]*userdomain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email()]; ok {
		return apperr.Duplicate("email already in use")
	}
	r.byID[u.ID()] = u
	r.byEmail[u.Email()] = u
	return nil
}

func (r *memUserRepo) put(u *userdomain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID()] = u
	r.byEmail[u.Email()] = u
}

func (r *memUserRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email())
		delete(r.byID, id)
	}
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
	// beforeRotate runs at the start of Rotate; tests use it to interleave a
	// concurrent consumption of the same session.
	beforeRotate func()
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func cloneSession(s *sessiondomain.Session) *sessiondomain.Session {
	return sessiondomain.Hydrate(sessiondomain.HydrateParams{
		ID:                  s.ID(),
		UserID:              s.UserID(),
		RefreshTokenHash:    s.RefreshTokenHash(),
		ReplacedBySessionID: s.ReplacedBySessionID(),
		UserAgent:           s.UserAgent(),
		IP:                  s.IP(),
		ExpiresAt:           s.ExpiresAt(),
		CreatedAt:           s.CreatedAt(),
		RevokedAt:           s.RevokedAt(),
	})
}

func (r *memSessionRepo) GetByTokenHash(ctx context.Context, hash string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.RefreshTokenHash() == hash {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.m {
		if existing.RefreshTokenHash() == s.RefreshTokenHash() {
			return apperr.Duplicate("refresh token hash already exists")
		}
	}
	r.m[s.ID()] = cloneSession(s)
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.Revoke()
	}
	return nil
}

func (r *memSessionRepo) Rotate(ctx context.Context, old, replacement *sessiondomain.Session) error {
	if r.beforeRotate != nil {
		r.beforeRotate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.m[old.ID()]
	if !ok || stored.IsRevoked() {
		return sessionrepo.ErrSessionConsumed
	}
	r.m[old.ID()] = cloneSession(old)
	r.m[replacement.ID()] = cloneSession(replacement)
	return nil
}

func (r *memSessionRepo) get(id string) *sessiondomain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		return cloneSession(s)
	}
	return nil
}

func (r *memSessionRepo) byHash(hash string) *sessiondomain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.RefreshTokenHash() == hash {
			return cloneSession(s)
		}
	}
	return nil
}

type memAuditRepo struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (r *memAuditRepo) Insert(ctx context.Context, e *audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*audit.Event, error) {
	return nil, nil
}

func (r *memAuditRepo) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *memAuditRepo) has(kind string) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type fixture struct {
	svc      *AuthService
	users    *memUserRepo
	sessions *memSessionRepo
	auditLog *memAuditRepo
	tokens   *security.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	auditLog := &memAuditRepo{}
	logger := zerolog.Nop()
	// Small argon2 parameters keep the tests fast.
	hasher := security.NewPasswordHasher(security.Argon2Params{
		MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	tokens := security.NewTokenService("test-secret-test-secret-test-secret", "test")
	svc := NewAuthService(users, sessions, hasher, tokens,
		audit.NewRecorder(auditLog, logger), logger, 15*time.Minute, 30*24*time.Hour)
	return &fixture{svc: svc, users: users, sessions: sessions, auditLog: auditLog, tokens: tokens}
}

func TestSignUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.SignUp(ctx, "a@test.com", "Password123", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if out.ID == "" || out.Email != "a@test.com" || out.Role != userdomain.RoleUser {
		t.Fatalf("unexpected output: %+v", out)
	}

	stored, _ := f.users.GetByEmail(ctx, "a@test.com")
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordHash() == "Password123" {
		t.Fatal("password stored in plaintext")
	}

	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("duplicate signup = %v, want ErrEmailInUse", err)
	}
}

func TestSignUpWithAdminRole(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.SignUp(context.Background(), "root@test.com", "Password123", userdomain.RoleAdmin)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if out.Role != userdomain.RoleAdmin {
		t.Fatalf("role = %q, want admin", out.Role)
	}
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := f.svc.SignIn(ctx, "missing@test.com", "Password123", ClientMeta{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email = %v, want ErrUserNotFound", err)
	}
	if _, err := f.svc.SignIn(ctx, "a@test.com", "WrongPassword", ClientMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want ErrInvalidCredentials", err)
	}

	out, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{UserAgent: "cli", IP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("tokens must not be empty")
	}
	if out.UserRole != userdomain.RoleUser {
		t.Fatalf("role = %q, want user", out.UserRole)
	}

	// Only the hash of the refresh secret is persisted.
	sess := f.sessions.byHash(security.HashRefreshToken(out.RefreshToken))
	if sess == nil {
		t.Fatal("session not persisted under refresh hash")
	}
	if !sess.IsActive() {
		t.Fatal("new session must be active")
	}
	if sess.RefreshTokenHash() == out.RefreshToken {
		t.Fatal("raw refresh token must never be stored")
	}
	if sess.UserAgent() != "cli" || sess.IP() != "203.0.113.7" {
		t.Fatal("client metadata not recorded on session")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	oldSession := f.sessions.byHash(security.HashRefreshToken(signIn.RefreshToken))

	out, err := f.svc.Refresh(ctx, signIn.RefreshToken, ClientMeta{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.RefreshToken == signIn.RefreshToken {
		t.Fatal("refresh must issue a new refresh token")
	}
	if out.AccessToken == "" || out.SessionID == "" {
		t.Fatal("refresh output incomplete")
	}

	rotated := f.sessions.get(oldSession.ID())
	if !rotated.IsRevoked() {
		t.Fatal("old session must be revoked after rotation")
	}
	if rotated.ReplacedBySessionID() != out.SessionID {
		t.Fatalf("old session must link to replacement, got %q want %q",
			rotated.ReplacedBySessionID(), out.SessionID)
	}
	replacement := f.sessions.get(out.SessionID)
	if replacement == nil || replacement.IsRevoked() {
		t.Fatal("replacement session must exist and be unrevoked")
	}

	// Presenting the rotated token again is a replay.
	if _, err := f.svc.Refresh(ctx, signIn.RefreshToken, ClientMeta{}); !errors.Is(err, sessiondomain.ErrSessionRevoked) {
		t.Fatalf("replayed token = %v, want ErrSessionRevoked", err)
	}
	if !f.auditLog.has(audit.EventRefreshReplay) {
		t.Fatal("replay must be audited")
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Refresh(context.Background(), "never-issued", ClientMeta{}); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("unknown token = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshExpiredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := userdomain.New("u1", "a@test.com", "hash", userdomain.RoleUser)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	f.users.put(u)

	token := "expired-refresh-token"
	f.sessions.m["s1"] = sessiondomain.Hydrate(sessiondomain.HydrateParams{
		ID: "s1", UserID: "u1",
		RefreshTokenHash: security.HashRefreshToken(token),
		ExpiresAt:        time.Now().Add(-time.Hour),
		CreatedAt:        time.Now().Add(-2 * time.Hour),
	})

	if _, err := f.svc.Refresh(ctx, token, ClientMeta{}); !errors.Is(err, sessiondomain.ErrSessionExpired) {
		t.Fatalf("expired session = %v, want ErrSessionExpired", err)
	}
}

func TestRefreshOrphanedSessionIsRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	sess := f.sessions.byHash(security.HashRefreshToken(signIn.RefreshToken))
	f.users.remove(sess.UserID())

	if _, err := f.svc.Refresh(ctx, signIn.RefreshToken, ClientMeta{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("orphaned session = %v, want ErrInvalidSession", err)
	}
	if !f.sessions.get(sess.ID()).IsRevoked() {
		t.Fatal("orphaned session must be revoked")
	}
	if !f.auditLog.has(audit.EventSessionOrphaned) {
		t.Fatal("orphaned session must be audited")
	}
}

func TestRefreshLosesRaceToConcurrentConsumer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	sess := f.sessions.byHash(security.HashRefreshToken(signIn.RefreshToken))

	// The session is consumed between validation and rotation, as a
	// concurrent refresh of the same token would do.
	f.sessions.beforeRotate = func() {
		_ = f.sessions.Revoke(ctx, sess.ID())
	}

	if _, err := f.svc.Refresh(ctx, signIn.RefreshToken, ClientMeta{}); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("losing refresh = %v, want ErrInvalidRefreshToken", err)
	}
	if !f.auditLog.has(audit.EventRefreshReplay) {
		t.Fatal("lost race must be audited as replay")
	}
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	stored, _ := f.users.GetByEmail(ctx, "a@test.com")
	promoted := userdomain.Hydrate(userdomain.HydrateParams{
		ID: stored.ID(), Email: stored.Email(), PasswordHash: stored.PasswordHash(),
		Role: userdomain.RoleAdmin, CreatedAt: stored.CreatedAt(),
	})
	f.users.put(promoted)

	out, err := f.svc.Refresh(ctx, signIn.RefreshToken, ClientMeta{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := f.tokens.VerifyAccessToken(out.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Role != string(userdomain.RoleAdmin) {
		t.Fatalf("rotated access token role = %q, want admin", claims.Role)
	}
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, "a@test.com", "Password123", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := f.svc.SignIn(ctx, "a@test.com", "Password123", ClientMeta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	// Never-issued token: silent success, no state change.
	if err := f.svc.SignOut(ctx, "never-issued"); err != nil {
		t.Fatalf("SignOut with unknown token = %v, want nil", err)
	}
	sess := f.sessions.byHash(security.HashRefreshToken(signIn.RefreshToken))
	if sess.IsRevoked() {
		t.Fatal("unrelated session must be untouched")
	}

	if err := f.svc.SignOut(ctx, signIn.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !f.sessions.get(sess.ID()).IsRevoked() {
		t.Fatal("session must be revoked after sign-out")
	}
	if f.sessions.get(sess.ID()).ReplacedBySessionID() != "" {
		t.Fatal("sign-out must not rotate")
	}

	// Idempotent for the caller.
	if err := f.svc.SignOut(ctx, signIn.RefreshToken); err != nil {
		t.Fatalf("repeated SignOut = %v, want nil", err)
	}
}
