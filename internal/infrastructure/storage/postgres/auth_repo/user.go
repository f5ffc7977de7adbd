// Package auth_repo provides the PostgreSQL user directory.
package auth_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/core/id"
	"retailpos/internal/domain/auth"
	"retailpos/internal/infrastructure/storage/postgres"
)

const usersTable = "users"

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	*postgres.Table[auth.User]
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{Table: postgres.NewTable[auth.User](txm, usersTable, "user")}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	return r.Insert(ctx, user)
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.GetOne(ctx, r.SelectAll().Where(squirrel.Eq{"id": userID}), userID)
}

// GetByEmail retrieves user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.GetOne(ctx, r.SelectAll().Where(squirrel.Eq{"email": email}), email)
}

// Update saves profile and login state with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	if err := r.UpdateVersioned(ctx, user, user.ID, user.Version, "email", "created_at"); err != nil {
		return err
	}
	user.Version++
	return nil
}

// List returns users ordered by name.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, error) {
	q := r.SelectAll()
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"full_name": pattern},
		})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Role != "" {
		q = q.Where(squirrel.Eq{"role": filter.Role})
	}

	var users []auth.User
	if err := r.TxManager().Select(ctx, &users, q.OrderBy("full_name", "email")); err != nil {
		return nil, postgres.MapError(err, "list users", "user")
	}
	return users, nil
}

// Exists checks if a user with the email exists.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	q := postgres.Builder().
		Select("1").
		From(usersTable).
		Where(squirrel.Eq{"email": email}).
		Limit(1)

	var one int
	if err := r.TxManager().Get(ctx, &one, q); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, postgres.MapError(err, "check user exists", "user")
	}
	return true, nil
}
