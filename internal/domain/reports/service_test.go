package reports

import (
	"bytes"
	"context"
	"maps"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain/settings"
)

type fakeRepo struct {
	lines     []SaleLine
	purchases []PurchaseLine
	totals    Totals
	days      []DayTotals
	counts    ProductCounts

	start, end time.Time
}

func (r *fakeRepo) SaleLines(_ context.Context, start, end time.Time) ([]SaleLine, error) {
	r.start, r.end = start, end
	return r.lines, nil
}

func (r *fakeRepo) Purchases(context.Context, time.Time, time.Time) ([]PurchaseLine, error) {
	return r.purchases, nil
}

func (r *fakeRepo) Totals(_ context.Context, start, end time.Time) (Totals, error) {
	r.start, r.end = start, end
	return r.totals, nil
}

func (r *fakeRepo) DailyTotals(context.Context, time.Time, time.Time) ([]DayTotals, error) {
	return r.days, nil
}

func (r *fakeRepo) ProductCounts(context.Context, int) (ProductCounts, error) { return r.counts, nil }

type memStore map[string]string

func (m memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}
func (m memStore) Set(_ context.Context, key, value string) error { m[key] = value; return nil }
func (m memStore) All(context.Context) (map[string]string, error) { return maps.Clone(m), nil }

var today = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, settings.NewStoreReader(memStore{settings.KeyCommissionPct: "10"}))
	svc.now = func() time.Time { return today }
	return svc
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func line(code, seller, product, total, paid, cost, commission string) SaleLine {
	p := d(paid)
	c := d(cost)
	return SaleLine{
		InvoiceCode:   code,
		SellerUserID:  seller,
		SellerName:    seller,
		ProductName:   product,
		Quantity:      1,
		TotalUSD:      d(total),
		PaidUSD:       p,
		CostUSD:       c,
		ProfitUSD:     p.Sub(c),
		CommissionUSD: d(commission),
	}
}

func TestResolvePeriod(t *testing.T) {
	p, err := ResolvePeriod(nil, nil, today)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09", p.From.Format(dateLayout))
	assert.Equal(t, "2026-03-10", p.To.Format(dateLayout))
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), p.End())
	assert.Len(t, p.Days(), 30)

	p, err = ResolvePeriod(day("2026-03-01"), day("2026-03-01"), today)
	require.NoError(t, err)
	assert.Len(t, p.Days(), 1)

	_, err = ResolvePeriod(day("2026-03-05"), day("2026-03-01"), today)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = ResolvePeriod(day("2025-01-01"), day("2026-03-01"), today)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRangeSummary(t *testing.T) {
	repo := &fakeRepo{
		lines: []SaleLine{
			line("FAC-1", "ana", "Helmet", "90", "90", "50", "4.00"),
			line("FAC-1", "ana", "Gloves", "45", "45", "60", "0"),
		},
		purchases: []PurchaseLine{{ProductName: "Helmet", Quantity: 6, TotalUSD: d("300")}},
	}
	report, err := newTestService(repo).Range(context.Background(), day("2026-03-01"), day("2026-03-10"))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.end)

	sm := report.Summary
	assert.Equal(t, "135.00", sm.SalesUSD.StringFixed(2))
	assert.Equal(t, "135.00", sm.AmountPaidUSD.StringFixed(2))
	assert.Equal(t, "110.00", sm.CostOfSalesUSD.StringFixed(2))
	assert.Equal(t, "25.00", sm.GrossProfitUSD.StringFixed(2))
	assert.Equal(t, "18.52", sm.GrossMarginPct.StringFixed(2))
	assert.Equal(t, "4.00", sm.CommissionTotalUSD.StringFixed(2))
	assert.Equal(t, "300.00", sm.PurchasesUSD.StringFixed(2))
	assert.Equal(t, "10", sm.CommissionPct.String())

	require.Len(t, report.Recommendations, 3)
	assert.Contains(t, report.Recommendations[0], "Gloves (FAC-1)")
	assert.Contains(t, report.Recommendations[1], "Helmet (FAC-1) with USD 40.00")
	assert.Contains(t, report.Recommendations[2], "Profit is low")
}

func TestRangeEmpty(t *testing.T) {
	report, err := newTestService(&fakeRepo{}).Range(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, report.SalesLines)
	assert.NotNil(t, report.Purchases)
	assert.True(t, report.Summary.GrossMarginPct.IsZero())
	assert.Equal(t, []string{"No sales in the selected range."}, report.Recommendations)
}

func TestCommissionBySeller(t *testing.T) {
	repo := &fakeRepo{lines: []SaleLine{
		line("FAC-1", "ana", "Helmet", "90", "90", "50", "4.00"),
		line("FAC-1", "ana", "Gloves", "45", "45", "60", "0"),
		line("FAC-2", "luis", "Chain", "200", "200", "100", "10.00"),
		line("FAC-3", "", "Oil", "10", "10", "5", "0.50"),
	}}
	report, err := newTestService(repo).CommissionBySeller(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Sellers, 3)
	assert.Equal(t, "luis", report.Sellers[0].SellerName)
	assert.Equal(t, "ana", report.Sellers[1].SellerName)
	assert.Equal(t, 1, report.Sellers[1].InvoiceCount)
	assert.Equal(t, 2, report.Sellers[1].LineCount)
	assert.Equal(t, "25.00", report.Sellers[1].ProfitUSD.StringFixed(2))
	assert.Equal(t, unassignedSeller, report.Sellers[2].SellerName)

	assert.Equal(t, "345.00", report.Summary.AmountPaidUSD.StringFixed(2))
	assert.Equal(t, "14.50", report.Summary.CommissionUSD.StringFixed(2))
}

func TestKPIsAndDaily(t *testing.T) {
	repo := &fakeRepo{totals: Totals{SalesUSD: d("500"), DiscountsUSD: d("20"), PurchasesUSD: d("320.5")}}
	svc := newTestService(repo)

	kpis, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", kpis.CurrencyCode)
	assert.Equal(t, "179.50", kpis.GrossMarginUSD.StringFixed(2))
	assert.Equal(t, today.Add(-7*24*time.Hour), repo.start)

	daily, err := svc.Daily(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", daily.Date)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.end)
}

func TestDashboardAndTimeseries(t *testing.T) {
	repo := &fakeRepo{
		totals: Totals{SalesUSD: d("100"), PurchasesUSD: d("40")},
		counts: ProductCounts{Total: 12, LowStock: 3},
		days: []DayTotals{
			{Day: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), SalesUSD: d("80"), PurchasesUSD: d("40")},
			{Day: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), SalesUSD: d("20")},
		},
	}
	svc := newTestService(repo)

	dash, err := svc.Dashboard(context.Background(), day("2026-03-08"), day("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, "RIDAX", dash.Brand)
	assert.Equal(t, 3, dash.LowStockArticles)
	assert.Equal(t, "60.00", dash.GrossMarginUSD.StringFixed(2))

	series, err := svc.Timeseries(context.Background(), day("2026-03-08"), day("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, series.Points, 3)
	assert.Equal(t, "2026-03-08", series.Points[0].Date)
	assert.True(t, series.Points[0].SalesUSD.IsZero())
	assert.Equal(t, "40.00", series.Points[1].GrossMarginUSD.StringFixed(2))
	assert.Equal(t, "20.00", series.Points[2].SalesUSD.StringFixed(2))
}

func TestExportRangeXLSX(t *testing.T) {
	repo := &fakeRepo{
		lines:     []SaleLine{line("FAC-1", "", "Helmet", "90", "90", "50", "4.00")},
		purchases: []PurchaseLine{{ProductName: "Helmet", Quantity: 2, TotalUSD: d("100"), SupplierName: "Acme"}},
	}
	var buf bytes.Buffer
	name, err := newTestService(repo).ExportRangeXLSX(context.Background(), day("2026-03-01"), day("2026-03-10"), &buf)
	require.NoError(t, err)
	assert.Equal(t, "report_2026-03-01_2026-03-10.xlsx", name)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetSales, sheetPurchases}, f.GetSheetList())

	v, err := f.GetCellValue(sheetSales, "A2")
	require.NoError(t, err)
	assert.Equal(t, "FAC-1", v)
	v, err = f.GetCellValue(sheetSales, "C2")
	require.NoError(t, err)
	assert.Equal(t, unassignedSeller, v)
	v, err = f.GetCellValue(sheetPurchases, "F2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", v)
	v, err = f.GetCellValue(sheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "90", v)
}
