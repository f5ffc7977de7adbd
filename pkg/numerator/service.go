// Package numerator issues sequential, human-readable codes backed by the
// sku_sequences table (one counter row per key).
package numerator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultMaxAttempts bounds retries after a unique-violation race on the counter row.
const DefaultMaxAttempts = 3

// ErrExhausted is returned when every attempt hit a uniqueness conflict.
var ErrExhausted = errors.New("numerator: could not allocate a unique number")

// Querier is the subset of pgx used by the service.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierProvider returns the querier bound to ctx (usually the active transaction).
type QuerierProvider func(ctx context.Context) Querier

// AttemptRunner isolates one allocation attempt, e.g. inside a savepoint, so a
// failed attempt does not poison the surrounding transaction.
type AttemptRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "RIDAX")
	Prefix string
	// PadWidth is the minimum width of the counter (default 5)
	PadWidth int
}

// DefaultConfig returns the SKU numbering defaults.
func DefaultConfig(prefix string) Config {
	return Config{Prefix: prefix, PadWidth: 5}
}

// Service allocates numbers.
type Service struct {
	querier     QuerierProvider
	attempt     AttemptRunner
	maxAttempts int
}

// Option customizes the Service.
type Option func(*Service)

// WithAttemptRunner wraps each attempt, see AttemptRunner.
func WithAttemptRunner(r AttemptRunner) Option {
	return func(s *Service) { s.attempt = r }
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New creates a service using a fixed querier.
func New(q Querier, opts ...Option) *Service {
	return NewWithProvider(func(context.Context) Querier { return q }, opts...)
}

// NewWithProvider creates a service that resolves its querier per call.
func NewWithProvider(p QuerierProvider, opts ...Option) *Service {
	s := &Service{
		querier:     p,
		attempt:     func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) },
		maxAttempts: DefaultMaxAttempts,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Next locks the counter row for key, increments it and returns
// PREFIX-KEY-NNNNN. Must run inside a transaction for the lock to hold.
func (s *Service) Next(ctx context.Context, cfg Config, key string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var lastErr error
	for i := 0; i < s.maxAttempts; i++ {
		var n int64
		err := s.attempt(ctx, func(ctx context.Context) error {
			var err error
			n, err = s.increment(ctx, key)
			return err
		})
		if err == nil {
			return Format(cfg, key, n), nil
		}
		if !IsUniqueViolation(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: key %s: %v", ErrExhausted, key, lastErr)
}

func (s *Service) increment(ctx context.Context, key string) (int64, error) {
	q := s.querier(ctx)

	var last int64
	err := q.QueryRow(ctx,
		`SELECT last_value FROM sku_sequences WHERE sequence_key = $1 FOR UPDATE`, key,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		// Two writers may race to create the row; the loser gets 23505 and retries.
		if _, err := q.Exec(ctx,
			`INSERT INTO sku_sequences (sequence_key, last_value) VALUES ($1, 0)`, key,
		); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, fmt.Errorf("lock sequence: %w", err)
	}

	var next int64
	err = q.QueryRow(ctx,
		`UPDATE sku_sequences SET last_value = last_value + 1 WHERE sequence_key = $1 RETURNING last_value`, key,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("bump sequence: %w", err)
	}
	return next, nil
}

// Format renders PREFIX-KEY-NNNNN.
func Format(cfg Config, key string, n int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, key, width, n)
}

// ParseNumber extracts the trailing counter from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndexByte(formatted, '-')
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	n, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
