// Package context carries request-scoped values (caller identity, tracing ids).
package context

import (
	"context"
	"slices"
)

// UserContext describes the authenticated caller.
type UserContext struct {
	UserID      string
	Email       string
	Role        string
	Permissions []string
	IsAdmin     bool
}

// HasPermission reports whether the caller holds perm. Admins hold every permission.
func (u *UserContext) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return slices.Contains(u.Permissions, perm)
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// IsAdmin reports whether the caller is an administrator.
func IsAdmin(ctx context.Context) bool {
	u := GetUser(ctx)
	return u != nil && u.IsAdmin
}

// HasPermission reports whether the caller in ctx holds perm.
func HasPermission(ctx context.Context, perm string) bool {
	return GetUser(ctx).HasPermission(perm)
}
