// Package document_repo provides PostgreSQL storage for sales invoices and
// supplier purchases.
package document_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain/sales"
	"retailpos/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceLinesTable = "invoice_lines"

	duplicateCandidateLimit = 10
)

// Header columns that never change after creation.
var immutableHeader = []string{"id", "invoice_code", "created_by", "created_at"}

var _ sales.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo implements sales.Repository.
type InvoiceRepo struct {
	headers *postgres.Table[sales.Invoice]
	lines   *postgres.Table[sales.Line]
	batch   *postgres.BatchInserter
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		headers: postgres.NewTable[sales.Invoice](txm, invoicesTable, "invoice"),
		lines:   postgres.NewTable[sales.Line](txm, invoiceLinesTable, "invoice line"),
		batch:   postgres.NewBatchInserter(txm),
	}
}

// Create inserts the header and its lines.
func (r *InvoiceRepo) Create(ctx context.Context, inv *sales.Invoice) error {
	if err := r.headers.Insert(ctx, inv); err != nil {
		return err
	}
	return r.insertLines(ctx, inv.Lines)
}

// GetByCode loads an invoice with its lines.
func (r *InvoiceRepo) GetByCode(ctx context.Context, code string) (*sales.Invoice, error) {
	inv, err := r.headers.GetOne(ctx, r.headers.SelectAll().Where(squirrel.Eq{"invoice_code": code}), code)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// LockActive row-locks a non-voided invoice.
func (r *InvoiceRepo) LockActive(ctx context.Context, code string) (*sales.Invoice, error) {
	inv, err := r.headers.GetOne(ctx, r.lockActiveQuery(code), code)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepo) lockActiveQuery(code string) squirrel.SelectBuilder {
	return r.headers.SelectAll().
		Where(squirrel.Eq{"invoice_code": code, "is_voided": false}).
		Suffix("FOR UPDATE")
}

// UpdateHeader writes the header and the recomputed amounts of the current lines.
func (r *InvoiceRepo) UpdateHeader(ctx context.Context, inv *sales.Invoice) error {
	if err := r.writeHeader(ctx, inv); err != nil {
		return err
	}

	stmts := make([]squirrel.Sqlizer, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		stmts = append(stmts, postgres.Builder().
			Update(invoiceLinesTable).
			SetMap(map[string]any{
				"total_usd":             l.TotalUSD,
				"paid_amount_usd":       l.PaidUSD,
				"cost_usd":              l.CostUSD,
				"profit_usd":            l.ProfitUSD,
				"commission_amount_usd": l.CommissionUSD,
			}).
			Where(squirrel.Eq{"id": l.ID}))
	}
	if err := r.batch.ExecBatch(ctx, stmts); err != nil {
		return postgres.MapError(err, "update invoice lines", "invoice line")
	}
	return nil
}

// ReplaceLines writes the header, then swaps the line set.
func (r *InvoiceRepo) ReplaceLines(ctx context.Context, inv *sales.Invoice) error {
	if err := r.writeHeader(ctx, inv); err != nil {
		return err
	}

	del := postgres.Builder().Delete(invoiceLinesTable).Where(squirrel.Eq{"invoice_id": inv.ID})
	if _, err := r.lines.TxManager().Exec(ctx, del); err != nil {
		return postgres.MapError(err, "delete invoice lines", "invoice line")
	}
	return r.insertLines(ctx, inv.Lines)
}

// MarkVoided stores the void fields of an active invoice.
func (r *InvoiceRepo) MarkVoided(ctx context.Context, inv *sales.Invoice) error {
	q := postgres.Builder().
		Update(invoicesTable).
		SetMap(map[string]any{
			"is_voided":   true,
			"voided_at":   inv.VoidedAt,
			"voided_by":   inv.VoidedBy,
			"void_reason": inv.VoidReason,
			"updated_at":  inv.UpdatedAt,
		}).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": inv.ID, "is_voided": false})

	res, err := r.headers.TxManager().Exec(ctx, q)
	if err != nil {
		return postgres.MapError(err, "void invoice", "invoice")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", inv.Code)
	}
	inv.Version++
	return nil
}

// FindRecentByTotal lists active invoices since the cutoff with a total close to total.
func (r *InvoiceRepo) FindRecentByTotal(ctx context.Context, since time.Time, total, tolerance decimal.Decimal) ([]sales.DuplicateCandidate, error) {
	var out []sales.DuplicateCandidate
	if err := r.headers.TxManager().Select(ctx, &out, recentByTotalQuery(since, total, tolerance)); err != nil {
		return nil, postgres.MapError(err, "find duplicate invoices", "invoice")
	}
	return out, nil
}

func recentByTotalQuery(since time.Time, total, tolerance decimal.Decimal) squirrel.SelectBuilder {
	return postgres.Builder().
		Select("invoice_code", "total_usd", "customer_name", "created_at").
		From(invoicesTable).
		Where(squirrel.Eq{"is_voided": false}).
		Where(squirrel.GtOrEq{"created_at": since}).
		Where(squirrel.Expr("ABS(total_usd - ?) <= ?", total, tolerance)).
		OrderBy("created_at DESC").
		Limit(duplicateCandidateLimit)
}

// List returns headers newest first, filtered by code or customer, seller and date.
func (r *InvoiceRepo) List(ctx context.Context, f sales.ListFilter) ([]sales.Invoice, int64, error) {
	q := r.headers.SelectAll()
	if !f.IncludeVoided {
		q = q.Where(squirrel.Eq{"is_voided": false})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_code": pattern},
			squirrel.ILike{"customer_name": pattern},
			squirrel.ILike{"customer_rif": pattern},
		})
	}
	if f.SellerUserID != "" {
		q = q.Where(squirrel.Eq{"seller_user_id": f.SellerUserID})
	}
	if f.From != nil {
		q = q.Where(squirrel.Expr("COALESCE(sale_date, created_at) >= ?", *f.From))
	}
	if f.To != nil {
		q = q.Where(squirrel.Expr("COALESCE(sale_date, created_at) < ?", *f.To))
	}

	items, total, err := r.headers.Page(ctx, q, f.Page, "created_at DESC", "invoice_code DESC")
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return items, total, nil
}

// writeHeader overwrites the mutable header columns. The caller has already
// advanced inv.Version under the row lock.
func (r *InvoiceRepo) writeHeader(ctx context.Context, inv *sales.Invoice) error {
	res, err := r.headers.TxManager().Exec(ctx, r.writeHeaderQuery(inv))
	if err != nil {
		return postgres.MapError(err, "update invoice", "invoice")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConflict("invoice was modified by another operation, reload and retry").
			WithDetail("invoice_code", inv.Code)
	}
	return nil
}

func (r *InvoiceRepo) writeHeaderQuery(inv *sales.Invoice) squirrel.UpdateBuilder {
	return postgres.Builder().
		Update(invoicesTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(inv), r.headers.Columns(), immutableHeader...)).
		Where(squirrel.Eq{"id": inv.ID, "version": inv.Version - 1})
}

func (r *InvoiceRepo) loadLines(ctx context.Context, inv *sales.Invoice) error {
	var lines []sales.Line
	q := r.lines.SelectAll().Where(squirrel.Eq{"invoice_id": inv.ID}).OrderBy("position")
	if err := r.lines.TxManager().Select(ctx, &lines, q); err != nil {
		return postgres.MapError(err, "load invoice lines", "invoice line")
	}
	inv.Lines = lines
	return nil
}

func (r *InvoiceRepo) insertLines(ctx context.Context, lines []sales.Line) error {
	if len(lines) == 0 {
		return nil
	}
	cols := r.lines.Columns()
	q := postgres.Builder().Insert(invoiceLinesTable).Columns(cols...)
	for i := range lines {
		m := postgres.StructToMap(lines[i])
		row := make([]any, len(cols))
		for j, col := range cols {
			row[j] = m[col]
		}
		q = q.Values(row...)
	}
	if _, err := r.lines.TxManager().Exec(ctx, q); err != nil {
		return postgres.MapError(err, "insert invoice lines", "invoice line")
	}
	return nil
}
