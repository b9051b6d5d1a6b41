package security

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"session-auth-service/internal/apperr"
)

// refreshTokenBytes is the entropy of an opaque refresh secret before
// base64url encoding.
const refreshTokenBytes = 48

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID string
	Role   string
}

// AuthTokens is one issued access/refresh pair. RefreshTokenHash is what gets
// persisted; the raw refresh token is only ever returned to the caller.
type AuthTokens struct {
	AccessToken      string
	RefreshToken     string
	RefreshTokenHash string
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenService issues and verifies HS256 access tokens and generates opaque
// refresh secrets.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService returns a TokenService signing with the given symmetric
// secret. The secret must never appear in client-visible material.
func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer}
}

// GenerateAuthTokens issues an access token bound to {userID, role} together
// with a fresh opaque refresh secret and its storage hash.
func (s *TokenService) GenerateAuthTokens(userID, role string, accessTTL time.Duration) (*AuthTokens, error) {
	access, err := s.issueAccessToken(userID, role, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	return &AuthTokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshTokenHash: HashRefreshToken(refresh),
	}, nil
}

func (s *TokenService) issueAccessToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyAccessToken parses and validates an access token (signature, expiry,
// issuer) and returns its claims. Any failure is an unauthorized error.
func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, apperr.Unauthorized("token is invalid or expired")
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthorized("token is invalid or expired")
	}
	return &Claims{UserID: claims.Subject, Role: claims.Role}, nil
}

// newRefreshToken returns a fresh opaque refresh secret: 48 bytes from a
// cryptographically secure source, base64url-encoded.
func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
