// Package service provides the sanitized user read operations.
package service

import (
	"context"
	"time"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/user/domain"
)

// ErrUserNotFound is returned when the requested user does not exist.
var ErrUserNotFound = apperr.NotFound("user not found")

// Repo is the minimal user repository needed by the read service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserOutput is a user with the credential material stripped.
type UserOutput struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PaginatedUsers is one page of users plus paging bookkeeping.
type PaginatedUsers struct {
	Data        []UserOutput `json:"data"`
	Total       int64        `json:"total"`
	CurrentPage int          `json:"currentPage"`
	PerPage     int          `json:"perPage"`
	LastPage    int64        `json:"lastPage"`
}

// UserService serves user reads. Writes happen only through sign-up.
type UserService struct {
	users Repo
}

// NewUserService returns a UserService backed by the given repository.
func NewUserService(users Repo) *UserService {
	return &UserService{users: users}
}

// Get returns the user for id, sanitized.
func (s *UserService) Get(ctx context.Context, id string) (*UserOutput, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	out := sanitize(user)
	return &out, nil
}

// List returns one page of users. page is 1-based.
func (s *UserService) List(ctx context.Context, page, limit int) (*PaginatedUsers, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	users, err := s.users.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserOutput, len(users))
	for i, u := range users {
		out[i] = sanitize(u)
	}
	lastPage := total / int64(limit)
	if total%int64(limit) != 0 {
		lastPage++
	}
	return &PaginatedUsers{
		Data:        out,
		Total:       total,
		CurrentPage: page,
		PerPage:     limit,
		LastPage:    lastPage,
	}, nil
}

func sanitize(u *domain.User) UserOutput {
	return UserOutput{
		ID:        u.ID(),
		Email:     u.Email(),
		Role:      u.Role(),
		CreatedAt: u.CreatedAt(),
	}
}
