// Package domain holds the user entity: identity plus credential record.
package domain

import (
	"errors"
	"time"
)

// Role is the user's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// User is immutable after creation; this service never mutates it.
// The password hash is opaque and must never be logged or returned.
type User struct {
	id           string
	email        string
	passwordHash string
	role         Role
	createdAt    time.Time
}

// HydrateParams carries a persisted user row back into the entity.
type HydrateParams struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// New creates a user at signup time. An empty role defaults to RoleUser.
func New(id, email, passwordHash string, role Role) (*User, error) {
	if id == "" {
		return nil, errors.New("user id is required")
	}
	if email == "" {
		return nil, errors.New("user email is required")
	}
	if role == "" {
		role = RoleUser
	}
	if !ValidRole(role) {
		return nil, errors.New("unknown user role")
	}
	return &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    time.Now().UTC(),
	}, nil
}

// Hydrate rebuilds a user from persistence.
func Hydrate(p HydrateParams) *User {
	return &User{
		id:           p.ID,
		email:        p.Email,
		passwordHash: p.PasswordHash,
		role:         p.Role,
		createdAt:    p.CreatedAt,
	}
}

func (u *User) ID() string           { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) CreatedAt() time.Time { return u.createdAt }
