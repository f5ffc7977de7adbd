package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"retailpos/internal/core/apperror"
)

// Postgres error codes the repositories translate.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgFKViolation      = "23503"
	pgLockNotAvailable = "55P03"
)

// Builder returns a squirrel builder with $N placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get scans the single row of q into dest. A missing row is reported as
// pgxscan's not-found error; use pgxscan.NotFound to test it.
func (m *TxManager) Get(ctx context.Context, dest any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, m.GetQuerier(ctx), dest, sql, args...)
}

// Select scans all rows of q into dest, a pointer to a slice.
func (m *TxManager) Select(ctx context.Context, dest any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, m.GetQuerier(ctx), dest, sql, args...)
}

// Exec runs q and returns the command tag.
func (m *TxManager) Exec(ctx context.Context, q squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build statement: %w", err)
	}
	return m.GetQuerier(ctx).Exec(ctx, sql, args...)
}

// Count runs a COUNT(*) over q.
func (m *TxManager) Count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	var n int64
	if err := m.Get(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}

// PgErrorCode returns the SQLSTATE of err, or "".
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError translates constraint violations into AppErrors and wraps anything
// else with op.
func MapError(err error, op, entity string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
		case pgCheckViolation:
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, entity+" violates "+pgErr.ConstraintName).WithCause(err)
		case pgFKViolation:
			return apperror.NewValidation(entity+" references a missing row").
				WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
		case pgLockNotAvailable:
			return apperror.NewConflict(entity + " is locked by another operation, retry").WithCause(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
