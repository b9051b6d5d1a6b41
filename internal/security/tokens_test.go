package security

import (
	"strings"
	"testing"
	"time"

	"session-auth-service/internal/apperr"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	svc := NewTokenService("test-secret-test-secret-test-secret", "test")

	pair, err := svc.GenerateAuthTokens("u1", "admin", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	claims, err := svc.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "admin" {
		t.Fatalf("claims = %+v, want u1/admin", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret-test-secret-test-secret", "test")

	pair, err := svc.GenerateAuthTokens("u1", "user", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	if _, err := svc.VerifyAccessToken(pair.AccessToken); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expired token error = %v, want unauthorized kind", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-one-secret-one-secret-one", "test")
	verifier := NewTokenService("secret-two-secret-two-secret-two", "test")

	pair, err := issuer.GenerateAuthTokens("u1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	if _, err := verifier.VerifyAccessToken(pair.AccessToken); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issuer := NewTokenService("test-secret-test-secret-test-secret", "other-service")
	verifier := NewTokenService("test-secret-test-secret-test-secret", "test")

	pair, err := issuer.GenerateAuthTokens("u1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	if _, err := verifier.VerifyAccessToken(pair.AccessToken); err == nil {
		t.Fatal("token with a foreign issuer must not verify")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService("test-secret-test-secret-test-secret", "test")

	pair, err := svc.GenerateAuthTokens("u1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	parts := strings.Split(pair.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("access token is not a JWT: %q", pair.AccessToken)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := svc.VerifyAccessToken(tampered); err == nil {
		t.Fatal("tampered signature must not verify")
	}
}

func TestRefreshTokensAreUniqueAndHashed(t *testing.T) {
	svc := NewTokenService("test-secret-test-secret-test-secret", "test")

	a, err := svc.GenerateAuthTokens("u1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	b, err := svc.GenerateAuthTokens("u1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthTokens: %v", err)
	}
	if a.RefreshToken == b.RefreshToken {
		t.Fatal("consecutive refresh tokens must differ")
	}
	if a.RefreshTokenHash != HashRefreshToken(a.RefreshToken) {
		t.Fatal("hash on the pair must match the storage hash of the token")
	}
	if a.RefreshTokenHash == a.RefreshToken {
		t.Fatal("hash must not equal the raw token")
	}
}
