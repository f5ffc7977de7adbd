package reports

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/types"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/domain/settings"
	"retailpos/pkg/logger"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
	kpiWindow         = 7 * 24 * time.Hour
	unassignedSeller  = "No seller"
	recommendLimit    = 3
)

var (
	hundred        = decimal.NewFromInt(100)
	lowMarginRatio = decimal.New(1, -1)
)

// Service builds reports.
type Service struct {
	repo     Repository
	settings settings.Reader
	now      func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, settings settings.Reader) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ResolvePeriod fills missing bounds: to defaults to today and from to the 30
// days ending at to. Periods longer than a year are rejected.
func ResolvePeriod(from, to *time.Time, today time.Time) (Period, error) {
	end := truncateDay(today)
	if to != nil {
		end = truncateDay(*to)
	}
	start := end.AddDate(0, 0, -(defaultPeriodDays - 1))
	if from != nil {
		start = truncateDay(*from)
	}
	if start.After(end) {
		return Period{}, apperror.NewValidation("invalid date range").
			WithDetail("from", start.Format(dateLayout)).
			WithDetail("to", end.Format(dateLayout))
	}
	if end.Sub(start) > maxPeriodDays*24*time.Hour {
		return Period{}, apperror.NewValidation(fmt.Sprintf("date range cannot exceed %d days", maxPeriodDays))
	}
	return Period{From: start, To: end}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) period(from, to *time.Time) (Period, error) {
	return ResolvePeriod(from, to, s.now())
}

// Range returns sales lines, purchases and their summary for a period.
func (s *Service) Range(ctx context.Context, from, to *time.Time) (*RangeReport, error) {
	p, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	commissionPct, err := settings.LoadCommissionPct(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.SaleLines(ctx, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	purchases, err := s.repo.Purchases(ctx, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("get purchases: %w", err)
	}
	if lines == nil {
		lines = []SaleLine{}
	}
	if purchases == nil {
		purchases = []PurchaseLine{}
	}

	summary := Summary{CommissionPct: commissionPct}
	for _, l := range lines {
		summary.SalesUSD = summary.SalesUSD.Add(l.TotalUSD)
		summary.AmountPaidUSD = summary.AmountPaidUSD.Add(l.PaidUSD)
		summary.CostOfSalesUSD = summary.CostOfSalesUSD.Add(l.CostUSD)
		summary.GrossProfitUSD = summary.GrossProfitUSD.Add(l.ProfitUSD)
		summary.CommissionTotalUSD = summary.CommissionTotalUSD.Add(l.CommissionUSD)
	}
	for _, pl := range purchases {
		summary.PurchasesUSD = summary.PurchasesUSD.Add(pl.TotalUSD)
	}
	if summary.AmountPaidUSD.IsPositive() {
		summary.GrossMarginPct = types.Round2(summary.GrossProfitUSD.Div(summary.AmountPaidUSD).Mul(hundred))
	}

	logger.Debug(ctx, "range report built", "from", p.From.Format(dateLayout), "to", p.To.Format(dateLayout), "lines", len(lines))
	return &RangeReport{
		From:            p.From.Format(dateLayout),
		To:              p.To.Format(dateLayout),
		Summary:         summary,
		SalesLines:      lines,
		Purchases:       purchases,
		Recommendations: recommendations(lines, summary.PurchasesUSD),
	}, nil
}

// recommendations derives short operational hints from the lines of a period.
func recommendations(lines []SaleLine, purchasesUSD decimal.Decimal) []string {
	if len(lines) == 0 {
		return []string{"No sales in the selected range."}
	}

	var (
		out       []string
		lowMargin []SaleLine
		discounts = decimal.Zero
		profit    = decimal.Zero
		best      = lines[0]
	)
	for _, l := range lines {
		profit = profit.Add(l.ProfitUSD)
		if l.PaidUSD.IsPositive() && l.ProfitUSD.Div(l.PaidUSD).LessThan(lowMarginRatio) {
			lowMargin = append(lowMargin, l)
		}
		if l.DiscountUSD.IsPositive() {
			discounts = discounts.Add(l.DiscountUSD)
		}
		if l.ProfitUSD.GreaterThan(best.ProfitUSD) {
			best = l
		}
	}

	if len(lowMargin) > 0 {
		slices.SortStableFunc(lowMargin, func(a, b SaleLine) int { return a.ProfitUSD.Cmp(b.ProfitUSD) })
		names := make([]string, 0, recommendLimit)
		for _, l := range lowMargin[:min(recommendLimit, len(lowMargin))] {
			names = append(names, fmt.Sprintf("%s (%s)", l.ProductName, l.InvoiceCode))
		}
		out = append(out, fmt.Sprintf("Low margin detected on: %s. Review cost or sale price.", strings.Join(names, ", ")))
	}
	if discounts.IsPositive() {
		out = append(out, fmt.Sprintf("Discounts applied in range: USD %s. Review offer limits per product.", discounts.StringFixed(2)))
	}
	out = append(out, fmt.Sprintf("Most profitable product: %s (%s) with USD %s.", best.ProductName, best.InvoiceCode, best.ProfitUSD.StringFixed(2)))
	if purchasesUSD.IsPositive() && profit.LessThan(purchasesUSD.Mul(lowMarginRatio)) {
		out = append(out, "Profit is low compared to purchases; prioritize products with higher turnover and margin.")
	}
	return out
}

// CommissionBySeller totals paid amount, cost, profit and commission per
// seller, highest commission first.
func (s *Service) CommissionBySeller(ctx context.Context, from, to *time.Time) (*CommissionReport, error) {
	p, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	commissionPct, err := settings.LoadCommissionPct(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.SaleLines(ctx, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}

	bySeller := make(map[string]*SellerCommission)
	invoices := make(map[string]struct{})
	var order []string
	for _, l := range lines {
		row, ok := bySeller[l.SellerUserID]
		if !ok {
			name := l.SellerName
			if name == "" {
				name = unassignedSeller
			}
			row = &SellerCommission{SellerUserID: l.SellerUserID, SellerName: name}
			bySeller[l.SellerUserID] = row
			order = append(order, l.SellerUserID)
		}
		row.LineCount++
		row.AmountPaidUSD = row.AmountPaidUSD.Add(l.PaidUSD)
		row.CostUSD = row.CostUSD.Add(l.CostUSD)
		row.ProfitUSD = row.ProfitUSD.Add(l.ProfitUSD)
		row.CommissionUSD = row.CommissionUSD.Add(l.CommissionUSD)

		key := l.SellerUserID + ":" + l.InvoiceCode
		if _, seen := invoices[key]; !seen {
			invoices[key] = struct{}{}
			row.InvoiceCount++
		}
	}

	report := &CommissionReport{
		From:          p.From.Format(dateLayout),
		To:            p.To.Format(dateLayout),
		CommissionPct: commissionPct,
		Sellers:       make([]SellerCommission, 0, len(order)),
	}
	for _, sellerID := range order {
		row := bySeller[sellerID]
		report.Sellers = append(report.Sellers, *row)
		report.Summary.AmountPaidUSD = report.Summary.AmountPaidUSD.Add(row.AmountPaidUSD)
		report.Summary.CostUSD = report.Summary.CostUSD.Add(row.CostUSD)
		report.Summary.ProfitUSD = report.Summary.ProfitUSD.Add(row.ProfitUSD)
		report.Summary.CommissionUSD = report.Summary.CommissionUSD.Add(row.CommissionUSD)
	}
	slices.SortStableFunc(report.Sellers, func(a, b SellerCommission) int {
		return b.CommissionUSD.Cmp(a.CommissionUSD)
	})
	return report, nil
}

// KPIs returns sales, discounts and purchases of the last seven days.
func (s *Service) KPIs(ctx context.Context) (*KPIs, error) {
	now := s.now()
	totals, err := s.repo.Totals(ctx, now.Add(-kpiWindow), now)
	if err != nil {
		return nil, fmt.Errorf("get kpi totals: %w", err)
	}
	return &KPIs{
		Range:          "7d",
		CurrencyCode:   currency.BaseCode,
		SalesUSD:       totals.SalesUSD,
		DiscountsUSD:   totals.DiscountsUSD,
		PurchasesUSD:   totals.PurchasesUSD,
		GrossMarginUSD: types.Round2(totals.SalesUSD.Sub(totals.PurchasesUSD)),
	}, nil
}

// Daily returns sales and purchases of one UTC day, today when day is nil.
func (s *Service) Daily(ctx context.Context, day *time.Time) (*DailyReport, error) {
	start := truncateDay(s.now())
	if day != nil {
		start = truncateDay(*day)
	}
	totals, err := s.repo.Totals(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("get daily totals: %w", err)
	}
	return &DailyReport{
		Date:         start.Format(dateLayout),
		SalesUSD:     totals.SalesUSD,
		PurchasesUSD: totals.PurchasesUSD,
	}, nil
}

// Dashboard returns catalog counts and the sales and purchases of a period.
func (s *Service) Dashboard(ctx context.Context, from, to *time.Time) (*DashboardSummary, error) {
	p, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.ProductCounts(ctx, inventory.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	totals, err := s.repo.Totals(ctx, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("get dashboard totals: %w", err)
	}
	company, err := settings.LoadCompany(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		From:             p.From.Format(dateLayout),
		To:               p.To.Format(dateLayout),
		Brand:            company.Name,
		TotalArticles:    counts.Total,
		LowStockArticles: counts.LowStock,
		SalesUSD:         totals.SalesUSD,
		PurchasesUSD:     totals.PurchasesUSD,
		GrossMarginUSD:   types.Round2(totals.SalesUSD.Sub(totals.PurchasesUSD)),
	}, nil
}

// Timeseries returns one point per day of the period, zero-filled.
func (s *Service) Timeseries(ctx context.Context, from, to *time.Time) (*Timeseries, error) {
	p, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.DailyTotals(ctx, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("get daily totals: %w", err)
	}
	byDay := make(map[string]DayTotals, len(rows))
	for _, r := range rows {
		byDay[r.Day.UTC().Format(dateLayout)] = r
	}

	days := p.Days()
	points := make([]TimeseriesPoint, 0, len(days))
	for _, d := range days {
		key := d.Format(dateLayout)
		r := byDay[key]
		sales, purchases := types.Round2(r.SalesUSD), types.Round2(r.PurchasesUSD)
		points = append(points, TimeseriesPoint{
			Date:           key,
			SalesUSD:       sales,
			PurchasesUSD:   purchases,
			GrossMarginUSD: sales.Sub(purchases),
		})
	}
	return &Timeseries{
		From:    p.From.Format(dateLayout),
		To:      p.To.Format(dateLayout),
		GroupBy: "day",
		Points:  points,
	}, nil
}
