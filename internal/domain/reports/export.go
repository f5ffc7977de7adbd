package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetSales     = "Sales"
	sheetPurchases = "Purchases"
)

var (
	salesHeader = []any{
		"Invoice", "Date", "Seller", "Product", "Type", "Brand", "Model", "Qty",
		"Line total USD", "Discount USD", "Paid USD", "Cost USD", "Profit USD",
		"Commission %", "Commission USD", "Payment currency",
	}
	purchasesHeader = []any{"Date", "Product", "Qty", "Unit cost USD", "Total USD", "Supplier"}
)

// ExportRangeXLSX writes the range report of a period as an xlsx workbook
// and returns the suggested file name.
func (s *Service) ExportRangeXLSX(ctx context.Context, from, to *time.Time, w io.Writer) (string, error) {
	report, err := s.Range(ctx, from, to)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRangeWorkbook(f, report); err != nil {
		return "", fmt.Errorf("build workbook: %w", err)
	}
	if err := f.Write(w); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	return fmt.Sprintf("report_%s_%s.xlsx", report.From, report.To), nil
}

func writeRangeWorkbook(f *excelize.File, r *RangeReport) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	for _, name := range []string{sheetSales, sheetPurchases} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	sm := r.Summary
	summaryRows := [][]any{
		{"From", r.From},
		{"To", r.To},
		{"Sales USD", sm.SalesUSD.InexactFloat64()},
		{"Amount paid USD", sm.AmountPaidUSD.InexactFloat64()},
		{"Cost of sales USD", sm.CostOfSalesUSD.InexactFloat64()},
		{"Gross profit USD", sm.GrossProfitUSD.InexactFloat64()},
		{"Gross margin %", sm.GrossMarginPct.InexactFloat64()},
		{"Commission %", sm.CommissionPct.InexactFloat64()},
		{"Commission USD", sm.CommissionTotalUSD.InexactFloat64()},
		{"Purchases USD", sm.PurchasesUSD.InexactFloat64()},
	}
	for _, rec := range r.Recommendations {
		summaryRows = append(summaryRows, []any{"Recommendation", rec})
	}
	if err := writeRows(f, sheetSummary, summaryRows); err != nil {
		return err
	}

	salesRows := make([][]any, 0, len(r.SalesLines)+1)
	salesRows = append(salesRows, salesHeader)
	for _, l := range r.SalesLines {
		seller := l.SellerName
		if seller == "" {
			seller = unassignedSeller
		}
		salesRows = append(salesRows, []any{
			l.InvoiceCode, l.SaleDate.Format(dateLayout), seller, l.ProductName, l.ProductType, l.Brand, l.Model, l.Quantity,
			l.TotalUSD.InexactFloat64(), l.DiscountUSD.InexactFloat64(), l.PaidUSD.InexactFloat64(),
			l.CostUSD.InexactFloat64(), l.ProfitUSD.InexactFloat64(),
			l.CommissionPct.InexactFloat64(), l.CommissionUSD.InexactFloat64(), l.PaymentCurrencyCode,
		})
	}
	if err := writeRows(f, sheetSales, salesRows); err != nil {
		return err
	}

	purchaseRows := make([][]any, 0, len(r.Purchases)+1)
	purchaseRows = append(purchaseRows, purchasesHeader)
	for _, p := range r.Purchases {
		purchaseRows = append(purchaseRows, []any{
			p.CreatedAt.Format(dateLayout), p.ProductName, p.Quantity,
			p.UnitCostUSD.InexactFloat64(), p.TotalUSD.InexactFloat64(), p.SupplierName,
		})
	}
	return writeRows(f, sheetPurchases, purchaseRows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
