// Package report_repo provides the PostgreSQL read side of the sales reports.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/domain/reports"
	"retailpos/internal/infrastructure/storage/postgres"
)

// saleDateExpr is the date an invoice is reported under.
const saleDateExpr = "COALESCE(i.sale_date, i.created_at)"

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository with hand-written aggregate queries.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// SaleLines returns the lines of active invoices dated in [start, end).
func (r *ReportRepo) SaleLines(ctx context.Context, start, end time.Time) ([]reports.SaleLine, error) {
	query := `
		SELECT
			i.invoice_code,
			` + saleDateExpr + ` AS sale_date,
			i.seller_user_id,
			COALESCE(u.full_name, '') AS seller_name,
			l.product_id,
			p.name AS product_name,
			p.product_type,
			p.brand,
			p.model,
			l.quantity,
			l.total_usd,
			l.discount_amount_usd,
			l.paid_amount_usd,
			l.cost_usd,
			l.profit_usd,
			i.commission_pct,
			l.commission_amount_usd,
			i.payment_currency_code,
			i.payment_amount_usd
		FROM invoice_lines l
		JOIN invoices i ON i.id = l.invoice_id
		JOIN products p ON p.id = l.product_id
		LEFT JOIN users u ON u.id::text = i.seller_user_id
		WHERE i.is_voided = false
		  AND ` + saleDateExpr + ` >= $1
		  AND ` + saleDateExpr + ` < $2
		ORDER BY sale_date DESC, i.invoice_code DESC, l.position
	`

	var rows []reports.SaleLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("select sale lines: %w", err)
	}
	return rows, nil
}

// Purchases returns purchases created in [start, end).
func (r *ReportRepo) Purchases(ctx context.Context, start, end time.Time) ([]reports.PurchaseLine, error) {
	query := `
		SELECT
			pu.id,
			pu.product_id,
			p.name AS product_name,
			pu.quantity,
			pu.unit_cost_usd,
			pu.total_usd,
			pu.supplier_name,
			pu.created_at
		FROM purchases pu
		JOIN products p ON p.id = pu.product_id
		WHERE pu.created_at >= $1 AND pu.created_at < $2
		ORDER BY pu.created_at DESC
	`

	var rows []reports.PurchaseLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	return rows, nil
}

// Totals sums sales, discounts and purchases in [start, end).
func (r *ReportRepo) Totals(ctx context.Context, start, end time.Time) (reports.Totals, error) {
	query := `
		SELECT
			COALESCE((
				SELECT SUM(i.total_usd) FROM invoices i
				WHERE i.is_voided = false AND ` + saleDateExpr + ` >= $1 AND ` + saleDateExpr + ` < $2
			), 0) AS sales_usd,
			COALESCE((
				SELECT SUM(i.discount_amount_usd) FROM invoices i
				WHERE i.is_voided = false AND ` + saleDateExpr + ` >= $1 AND ` + saleDateExpr + ` < $2
			), 0) AS discounts_usd,
			COALESCE((
				SELECT SUM(pu.total_usd) FROM purchases pu
				WHERE pu.created_at >= $1 AND pu.created_at < $2
			), 0) AS purchases_usd
	`

	var totals reports.Totals
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &totals, query, start, end); err != nil {
		return reports.Totals{}, fmt.Errorf("select totals: %w", err)
	}
	return totals, nil
}

// DailyTotals returns per-day sums; days without activity are absent.
func (r *ReportRepo) DailyTotals(ctx context.Context, start, end time.Time) ([]reports.DayTotals, error) {
	query := `
		WITH sales AS (
			SELECT (` + saleDateExpr + `)::date AS day, SUM(i.total_usd) AS amount
			FROM invoices i
			WHERE i.is_voided = false AND ` + saleDateExpr + ` >= $1 AND ` + saleDateExpr + ` < $2
			GROUP BY 1
		), bought AS (
			SELECT pu.created_at::date AS day, SUM(pu.total_usd) AS amount
			FROM purchases pu
			WHERE pu.created_at >= $1 AND pu.created_at < $2
			GROUP BY 1
		)
		SELECT
			COALESCE(s.day, b.day)::timestamp AS day,
			COALESCE(s.amount, 0) AS sales_usd,
			COALESCE(b.amount, 0) AS purchases_usd
		FROM sales s
		FULL OUTER JOIN bought b ON b.day = s.day
		ORDER BY 1
	`

	var rows []reports.DayTotals
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("select daily totals: %w", err)
	}
	return rows, nil
}

// ProductCounts counts active products and those with stock at or under lowStock.
func (r *ReportRepo) ProductCounts(ctx context.Context, lowStock int) (reports.ProductCounts, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE stock <= $1) AS low_stock
		FROM products
		WHERE is_active = true
	`

	var counts reports.ProductCounts
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &counts, query, lowStock); err != nil {
		return reports.ProductCounts{}, fmt.Errorf("count products: %w", err)
	}
	return counts, nil
}
