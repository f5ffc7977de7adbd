// Package tx decouples domain services from the concrete database transaction
// implementation.
package tx

import (
	"context"
)

// Manager runs a unit of work inside a database transaction.
// Every invoice, stock and purchase mutation goes through it.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the transaction already stored in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions (reports).
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
