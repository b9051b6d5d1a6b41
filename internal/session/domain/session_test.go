package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewRequiresIDAndUser(t *testing.T) {
	if _, err := New("", "u1", "hash", time.Hour, "", ""); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := New("s1", "", "hash", time.Hour, "", ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
	s, err := New("s1", "u1", "hash", time.Hour, "ua", "203.0.113.7")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s.IsActive() || s.IsRevoked() || s.IsExpired() {
		t.Fatal("fresh session should be active")
	}
	if s.ReplacedBySessionID() != "" {
		t.Fatal("fresh session must not have a replacement pointer")
	}
	if got := s.ExpiresAt().Sub(s.CreatedAt()); got != time.Hour {
		t.Fatalf("expiry deadline = createdAt + ttl, got offset %v", got)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	first := time.Now().UTC().Add(-time.Minute)
	s := Hydrate(HydrateParams{
		ID: "s1", UserID: "u1", RefreshTokenHash: "hash",
		ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
		RevokedAt: &first,
	})

	s.Revoke()

	got := s.RevokedAt()
	if got == nil || !got.Equal(first) {
		t.Fatalf("second revoke must keep the original timestamp, got %v", got)
	}
}

func TestRevokedSessionIsNeverActive(t *testing.T) {
	s, err := New("s1", "u1", "hash", 24*time.Hour, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Revoke()
	if s.IsActive() {
		t.Fatal("revoked session must not be active, regardless of expiry")
	}
	if s.IsExpired() {
		t.Fatal("revocation must not affect expiry")
	}
}

func TestReplaceRevokesAndLinks(t *testing.T) {
	s, err := New("s1", "u1", "hash", time.Hour, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Replace("s2")
	if !s.IsRevoked() {
		t.Fatal("replace must revoke")
	}
	if s.ReplacedBySessionID() != "s2" {
		t.Fatalf("replacement pointer = %q, want s2", s.ReplacedBySessionID())
	}
}

func TestValidateForRefresh(t *testing.T) {
	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt time.Time
		revokedAt *time.Time
		want      error
	}{
		{"active", now.Add(time.Hour), nil, nil},
		{"expired", now.Add(-time.Hour), nil, ErrSessionExpired},
		{"revoked", now.Add(time.Hour), &revoked, ErrSessionRevoked},
		// Revocation is checked before expiry: the more specific reason wins.
		{"revoked and expired", now.Add(-time.Hour), &revoked, ErrSessionRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Hydrate(HydrateParams{
				ID: "s1", UserID: "u1", RefreshTokenHash: "hash",
				ExpiresAt: tt.expiresAt, CreatedAt: now.Add(-2 * time.Hour),
				RevokedAt: tt.revokedAt,
			})
			err := s.ValidateForRefresh()
			if !errors.Is(err, tt.want) {
				t.Fatalf("ValidateForRefresh() = %v, want %v", err, tt.want)
			}
		})
	}
}
