package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user id or email already exists")
)

// Repo persists users.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetByLogin matches identifier against user id, email or user name,
	// preferring an id or email match when several rows qualify.
	GetByLogin(ctx context.Context, identifier string) (User, error)
	// FindConflict returns the existing user holding userID or email.
	FindConflict(ctx context.Context, userID, email string) (User, error)
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID string) error
	SetRole(ctx context.Context, userID string, role Role) error
}
