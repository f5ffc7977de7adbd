package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain"
)

// Table provides the common CRUD statements for a table mapped to T by "db" tags.
// Repositories embed it and add their domain-specific queries.
type Table[T any] struct {
	txm    *TxManager
	name   string
	entity string
	cols   []string
}

// NewTable creates a table helper. entity names the row kind in errors.
func NewTable[T any](txm *TxManager, name, entity string) *Table[T] {
	return &Table[T]{
		txm:    txm,
		name:   name,
		entity: entity,
		cols:   ExtractDBColumns[T](),
	}
}

// TxManager returns the manager the table queries through.
func (t *Table[T]) TxManager() *TxManager { return t.txm }

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Columns returns the mapped column list.
func (t *Table[T]) Columns() []string { return t.cols }

// SelectAll starts a SELECT of every mapped column.
func (t *Table[T]) SelectAll() squirrel.SelectBuilder {
	return Builder().Select(t.cols...).From(t.name)
}

// Insert writes row using its "db" tags.
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	q := Builder().Insert(t.name).SetMap(PickColumns(StructToMap(row), t.cols))
	if _, err := t.txm.Exec(ctx, q); err != nil {
		return MapError(err, "insert "+t.name, t.entity)
	}
	return nil
}

// UpdateVersioned rewrites row where id and version match and bumps version.
// Columns in immutable are never written. A stale version is a Conflict.
func (t *Table[T]) UpdateVersioned(ctx context.Context, row *T, rowID any, version int, immutable ...string) error {
	skip := append([]string{"id", "version"}, immutable...)
	q := Builder().
		Update(t.name).
		SetMap(PickColumns(StructToMap(row), t.cols, skip...)).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rowID, "version": version})

	res, err := t.txm.Exec(ctx, q)
	if err != nil {
		return MapError(err, "update "+t.name, t.entity)
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConflict(t.entity+" was modified by another operation, reload and retry").
			WithDetail("id", rowID)
	}
	return nil
}

// GetOne runs q and returns its single row. No row is NotFound for key.
func (t *Table[T]) GetOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*T, error) {
	var row T
	if err := t.txm.Get(ctx, &row, q.Limit(1)); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(t.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", t.entity, err)
	}
	return &row, nil
}

// Page counts the rows of q, then returns one ordered page of them.
func (t *Table[T]) Page(ctx context.Context, q squirrel.SelectBuilder, page domain.Page, orderBy ...string) ([]T, int64, error) {
	page = page.Normalize()

	total, err := t.txm.Count(ctx, Builder().Select("COUNT(*)").FromSelect(q, "sub"))
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.name, err)
	}

	var items []T
	q = q.OrderBy(orderBy...).Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
	if err := t.txm.Select(ctx, &items, q); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.name, err)
	}
	return items, total, nil
}
