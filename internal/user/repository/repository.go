package repository

import (
	"context"

	"session-auth-service/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	// GetByID returns the user, or nil if absent. Errors are database
	// failures only.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns the user with that exact email, or nil if absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists a new user; a duplicate email fails with a duplicate error.
	Create(ctx context.Context, u *domain.User) error
	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)
}
