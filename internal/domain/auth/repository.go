package auth

import (
	"context"

	"retailpos/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error

	// GetByID returns NotFound for unknown ids.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail returns NotFound for unknown addresses.
	GetByEmail(ctx context.Context, email string) (*User, error)

	Update(ctx context.Context, user *User) error

	// List returns users ordered by name.
	List(ctx context.Context, filter UserFilter) ([]User, error)

	Exists(ctx context.Context, email string) (bool, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search     string
	ActiveOnly bool
	Role       string
}
