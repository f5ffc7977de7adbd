package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-inserts rows with the COPY protocol. It only works inside
// a transaction so the rows commit or roll back with the rest of the unit of work.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows (each matching columns) into table.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// CopyStructs inserts items using their "db" tags for the given columns.
func CopyStructs[T any](ctx context.Context, b *BatchInserter, table string, columns []string, items []T) (int64, error) {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		m := StructToMap(item)
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = m[col]
		}
		rows = append(rows, row)
	}
	return b.CopyFromSlice(ctx, table, columns, rows)
}

// ExecBatch sends stmts in one round trip within the current transaction.
func (b *BatchInserter) ExecBatch(ctx context.Context, stmts []squirrel.Sqlizer) error {
	if len(stmts) == 0 {
		return nil
	}
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("batch exec requires a transaction")
	}

	batch := &pgx.Batch{}
	for _, stmt := range stmts {
		sql, args, err := stmt.ToSql()
		if err != nil {
			return fmt.Errorf("build batch statement: %w", err)
		}
		batch.Queue(sql, args...)
	}

	results := tx.SendBatch(ctx, batch)
	for range stmts {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}
