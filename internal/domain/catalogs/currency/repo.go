package currency

import "context"

// Repository persists currency rates.
type Repository interface {
	// Get returns the rate for code or a NotFound AppError.
	Get(ctx context.Context, code string) (*Rate, error)

	// Upsert stores the rate, last write wins.
	Upsert(ctx context.Context, rate *Rate) error

	// List returns all rates ordered by code.
	List(ctx context.Context) ([]Rate, error)
}
