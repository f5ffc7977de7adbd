package sales

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/core/security"
	"retailpos/internal/core/tx"
	"retailpos/internal/core/types"
	"retailpos/internal/domain"
	"retailpos/internal/domain/audit"
	"retailpos/internal/domain/auth"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/domain/settings"
	"retailpos/pkg/logger"
)

const (
	entityType   = "invoice"
	historyLimit = 100
)

var tracer = otel.Tracer("retailpos/sales")

// errPossibleDuplicate rolls back a create that hit the duplicate guard.
var errPossibleDuplicate = errors.New("possible duplicate invoice")

// ProductDirectory is the product access the invoice engine needs.
type ProductDirectory interface {
	LockForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error)
	AdjustStock(ctx context.Context, productID id.ID, delta int) (int, error)
}

// MovementRecorder appends ledger entries inside the caller's transaction.
type MovementRecorder interface {
	Record(ctx context.Context, movements []inventory.Movement) error
}

// RateResolver maps a currency code to units per USD.
type RateResolver interface {
	RateToUSD(ctx context.Context, code string) (decimal.Decimal, error)
}

// UserDirectory resolves sellers.
type UserDirectory interface {
	GetActiveUser(ctx context.Context, userID string) (*auth.User, error)
}

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Products  ProductDirectory
	Movements MovementRecorder
	Rates     RateResolver
	Settings  settings.Reader
	Users     UserDirectory
	TxManager tx.Manager
	Audit     audit.Recorder
	History   audit.Reader
	Locker    Locker

	// DuplicateWindow defaults to DefaultDuplicateWindow.
	DuplicateWindow time.Duration
}

// Service runs the invoice lifecycle. Every operation is one transaction.
type Service struct {
	repo            Repository
	products        ProductDirectory
	movements       MovementRecorder
	rates           RateResolver
	settings        settings.Reader
	users           UserDirectory
	txm             tx.Manager
	audit           audit.Recorder
	history         audit.Reader
	locker          Locker
	duplicateWindow time.Duration
	now             func() time.Time
}

// NewService creates the sales service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:            d.Repo,
		products:        d.Products,
		movements:       d.Movements,
		rates:           d.Rates,
		settings:        d.Settings,
		users:           d.Users,
		txm:             d.TxManager,
		audit:           d.Audit,
		history:         d.History,
		locker:          d.Locker,
		duplicateWindow: d.DuplicateWindow,
		now:             func() time.Time { return time.Now().UTC() },
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.locker == nil {
		s.locker = NopLocker{}
	}
	if s.duplicateWindow <= 0 {
		s.duplicateWindow = DefaultDuplicateWindow
	}
	return s
}

// Create prices and persists a new invoice, decrementing stock. When active
// invoices with the same total exist in the duplicate window and the caller did
// not confirm, nothing is written and the candidates are returned.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateOutcome, error) {
	ctx, span := tracer.Start(ctx, "sales.Create", trace.WithAttributes(attribute.Int("invoice.items", len(in.Items))))
	defer span.End()

	outcome, err := s.create(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return outcome, err
}

func (s *Service) create(ctx context.Context, in CreateInput) (*CreateOutcome, error) {
	actor := appctx.GetUserID(ctx)
	if in.ManualTotal != nil && !appctx.IsAdmin(ctx) {
		return nil, errManualTotalForbidden()
	}
	seller, err := s.resolveSeller(ctx, "", in.SellerUserID)
	if err != nil {
		return nil, err
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateAmounts(in.ManualTotal, in.PaymentAmount); err != nil {
		return nil, err
	}

	currencyCode := currency.NormalizeCode(in.CurrencyCode)
	if _, err := s.rates.RateToUSD(ctx, currencyCode); err != nil {
		return nil, err
	}
	payCode := currency.NormalizeCode(in.PaymentCurrencyCode)
	payRate, err := s.rates.RateToUSD(ctx, payCode)
	if err != nil {
		return nil, err
	}
	pricing, err := settings.LoadPricing(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	commissionPct, err := settings.LoadCommissionPct(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &Invoice{
		ID:           id.New(),
		Code:         newInvoiceCode(),
		CurrencyCode: currencyCode,
		SellerUserID: seller,
		SaleDate:     in.SaleDate,
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
	inv.setCustomer(in.Customer)

	outcome := &CreateOutcome{}
	release := func() {}
	defer func() { release() }()

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		required := quantitiesOf(in.Items)
		locked, err := s.products.LockForUpdate(ctx, inventory.SortedIDs(required))
		if err != nil {
			return err
		}
		if err := ensureSellable(locked, required); err != nil {
			return err
		}
		if err := inventory.CheckAvailability(locked, required); err != nil {
			return err
		}

		items := priceItems(in.Items, locked)
		discountPct := pricing.SuggestedDiscount(Subtotal(items))
		if in.DiscountPct != nil {
			discountPct = *in.DiscountPct
		}
		calc, err := Price(items, discountPct, pricing)
		if err != nil {
			return err
		}
		if in.ManualTotal != nil {
			original, err := ApplyOverride(calc, *in.ManualTotal)
			if err != nil {
				return err
			}
			inv.setOverride(calc.Total, original, actor, now)
		}
		inv.applyCalc(calc)
		if err := inv.applyPayment(payCode, payRate, in.PaymentAmount); err != nil {
			return err
		}
		inv.CommissionPct = commissionPct
		inv.CommissionUSD = AllocateCommission(inv.Lines, inv.PaymentAmountUSD, commissionPct)

		if !in.ConfirmPossibleDuplicate {
			unlock, err := s.obtainDuplicateLocks(ctx, inv.TotalUSD)
			if err != nil {
				return fmt.Errorf("obtain duplicate lock: %w", err)
			}
			release = unlock
			candidates, err := s.findDuplicates(ctx, inv.TotalUSD)
			if err != nil {
				return err
			}
			if len(candidates) > 0 {
				outcome.PossibleDuplicates = candidates
				return errPossibleDuplicate
			}
		}

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		deltas := make(map[id.ID]int, len(required))
		for pid, qty := range required {
			deltas[pid] = -qty
		}
		if outcome.StockChanges, err = s.moveStock(ctx, locked, deltas); err != nil {
			return err
		}
		movements := make([]inventory.Movement, 0, len(inv.Lines))
		for _, l := range inv.Lines {
			movements = append(movements, inventory.NewMovement(l.ProductID, inventory.TypeSale, -l.Quantity,
				inv.Code, fmt.Sprintf("Sale %s #%s", inv.Code, l.SKU), actor))
		}
		if err := s.movements.Record(ctx, movements); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, entityType, inv.Code, audit.ActionCreate, invoiceSnapshot(inv))
	})
	if errors.Is(err, errPossibleDuplicate) {
		logger.Warn(ctx, "possible duplicate invoice",
			"total_usd", inv.TotalUSD.StringFixed(2),
			"candidates", len(outcome.PossibleDuplicates),
		)
		return outcome, nil
	}
	if err != nil {
		return nil, err
	}

	outcome.Invoice = inv
	logger.Info(ctx, "invoice created",
		"invoice_code", inv.Code,
		"total_usd", inv.TotalUSD.StringFixed(2),
		"paid_usd", inv.PaymentAmountUSD.StringFixed(2),
		"commission_usd", inv.CommissionUSD.StringFixed(2),
		"lines", len(inv.Lines),
	)
	return outcome, nil
}

// Edit updates an invoice. Without items only header fields change; with items
// the line collection is replaced (administrators only).
func (s *Service) Edit(ctx context.Context, code string, in EditInput) (*EditOutcome, error) {
	code = normalizeCode(code)
	name := "sales.EditHeader"
	if in.Items != nil {
		name = "sales.ReplaceLines"
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("invoice.code", code)))
	defer span.End()

	var (
		outcome *EditOutcome
		err     error
	)
	if in.Items != nil {
		outcome, err = s.replaceLines(ctx, code, in)
	} else {
		outcome, err = s.editHeader(ctx, code, in)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return outcome, err
}

func (s *Service) editHeader(ctx context.Context, code string, in EditInput) (*EditOutcome, error) {
	actor := appctx.GetUserID(ctx)
	admin := appctx.IsAdmin(ctx)
	if in.ManualTotal != nil && !admin {
		return nil, errManualTotalForbidden()
	}
	if err := validateAmounts(in.ManualTotal, in.PaymentAmount); err != nil {
		return nil, err
	}
	commissionPct, err := settings.LoadCommissionPct(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err = s.repo.LockActive(ctx, code)
		if err != nil {
			return err
		}
		if !admin && !inv.IsOwnedBy(actor) {
			return apperror.NewForbidden("only the seller, the creator or an administrator can edit this invoice").
				WithDetail("invoice_code", code)
		}
		before := invoiceSnapshot(inv)
		previousTotal := inv.TotalUSD
		now := s.now()

		if err := s.applyHeader(ctx, inv, in); err != nil {
			return err
		}
		if in.ManualTotal != nil {
			calc := &Calc{Total: inv.TotalUSD, Lines: inv.Lines}
			original, err := ApplyOverride(calc, *in.ManualTotal)
			if err != nil {
				return err
			}
			inv.TotalUSD = calc.Total
			inv.setOverride(calc.Total, original, actor, now)
		}
		if err := s.settlePayment(ctx, inv, in, previousTotal); err != nil {
			return err
		}
		inv.CommissionPct = commissionPct
		inv.CommissionUSD = AllocateCommission(inv.Lines, inv.PaymentAmountUSD, commissionPct)
		inv.UpdatedAt = now
		inv.Version++

		if err := s.repo.UpdateHeader(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if changes := audit.Diff(before, invoiceSnapshot(inv)); len(changes) > 0 {
			return s.audit.LogChange(ctx, entityType, inv.Code, audit.ActionUpdate, changes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice header edited",
		"invoice_code", inv.Code,
		"total_usd", inv.TotalUSD.StringFixed(2),
		"commission_usd", inv.CommissionUSD.StringFixed(2),
	)
	return &EditOutcome{Invoice: inv}, nil
}

func (s *Service) replaceLines(ctx context.Context, code string, in EditInput) (*EditOutcome, error) {
	actor := appctx.GetUserID(ctx)
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only administrators can change invoice items").
			WithDetail("invoice_code", code)
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateAmounts(in.ManualTotal, in.PaymentAmount); err != nil {
		return nil, err
	}
	pricing, err := settings.LoadPricing(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	commissionPct, err := settings.LoadCommissionPct(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	var (
		inv     *Invoice
		changes []StockChange
	)
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err = s.repo.LockActive(ctx, code)
		if err != nil {
			return err
		}
		before := invoiceSnapshot(inv)
		previousTotal := inv.TotalUSD
		now := s.now()

		requested := quantitiesOf(in.Items)
		deltas := quantityDeltas(quantitiesOfLines(inv.Lines), requested)
		involved := make(map[id.ID]struct{}, len(requested)+len(deltas))
		for pid := range requested {
			involved[pid] = struct{}{}
		}
		for pid := range deltas {
			involved[pid] = struct{}{}
		}
		locked, err := s.products.LockForUpdate(ctx, inventory.SortedIDs(involved))
		if err != nil {
			return err
		}

		increases := make(map[id.ID]int)
		for pid, d := range deltas {
			if d > 0 {
				increases[pid] = d
			}
		}
		if err := ensureExists(locked, requested); err != nil {
			return err
		}
		if err := ensureSellable(locked, increases); err != nil {
			return err
		}
		if err := inventory.CheckAvailability(locked, increases); err != nil {
			return err
		}

		calc, err := Price(priceItems(in.Items, locked), inv.DiscountPct, pricing)
		if err != nil {
			return err
		}
		switch {
		case in.ManualTotal != nil:
			original, err := ApplyOverride(calc, *in.ManualTotal)
			if err != nil {
				return err
			}
			inv.setOverride(calc.Total, original, actor, now)
		case inv.ManualTotalOverride && inv.ManualTotalInputUSD.Valid:
			original, err := ApplyOverride(calc, inv.ManualTotalInputUSD.Decimal)
			if err != nil {
				return err
			}
			inv.ManualTotalOriginalUSD = decimal.NewNullDecimal(original)
		}

		if err := s.applyHeader(ctx, inv, in); err != nil {
			return err
		}
		inv.applyCalc(calc)
		if err := s.settlePayment(ctx, inv, in, previousTotal); err != nil {
			return err
		}
		inv.CommissionPct = commissionPct
		inv.CommissionUSD = AllocateCommission(inv.Lines, inv.PaymentAmountUSD, commissionPct)
		inv.UpdatedAt = now
		inv.Version++

		stockDeltas := make(map[id.ID]int, len(deltas))
		for pid, d := range deltas {
			stockDeltas[pid] = -d
		}
		if changes, err = s.moveStock(ctx, locked, stockDeltas); err != nil {
			return err
		}
		movements := make([]inventory.Movement, 0, len(changes))
		for _, c := range changes {
			movements = append(movements, inventory.NewMovement(c.ProductID, inventory.TypeSaleEditAdjustment, c.Delta,
				inv.Code, fmt.Sprintf("Sale edit %s #%s", inv.Code, c.SKU), actor))
		}
		if err := s.movements.Record(ctx, movements); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, inv); err != nil {
			return fmt.Errorf("replace invoice lines: %w", err)
		}
		return s.audit.LogChange(ctx, entityType, inv.Code, audit.ActionReplace, audit.Diff(before, invoiceSnapshot(inv)))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice lines replaced",
		"invoice_code", inv.Code,
		"total_usd", inv.TotalUSD.StringFixed(2),
		"stock_changes", len(changes),
	)
	return &EditOutcome{Invoice: inv, LinesChanged: true, StockChanges: changes}, nil
}

// Void voids one invoice and restores its stock. Administrators only.
func (s *Service) Void(ctx context.Context, code, reason string) (*VoidOutcome, error) {
	outcomes, err := s.VoidMany(ctx, []string{code}, reason)
	if err != nil {
		return nil, err
	}
	return &outcomes[0], nil
}

// VoidMany voids a batch of invoices in one transaction: either all of them
// are voided or none is. An unknown or already voided code is NotFound.
func (s *Service) VoidMany(ctx context.Context, codes []string, reason string) ([]VoidOutcome, error) {
	ctx, span := tracer.Start(ctx, "sales.Void", trace.WithAttributes(attribute.StringSlice("invoice.codes", codes)))
	defer span.End()

	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only administrators can void invoices")
	}
	codes = uniqueCodes(codes)
	if len(codes) == 0 {
		return nil, apperror.NewValidation("at least one invoice code is required").WithDetail("field", "invoiceCodes")
	}
	actor := appctx.GetUserID(ctx)
	reason = strings.TrimSpace(reason)

	var outcomes []VoidOutcome
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sorted := slices.Sorted(slices.Values(codes))
		invoices := make(map[string]*Invoice, len(sorted))
		involved := make(map[id.ID]struct{})
		for _, code := range sorted {
			inv, err := s.repo.LockActive(ctx, code)
			if err != nil {
				return err
			}
			invoices[code] = inv
			for _, l := range inv.Lines {
				involved[l.ProductID] = struct{}{}
			}
		}
		locked, err := s.products.LockForUpdate(ctx, inventory.SortedIDs(involved))
		if err != nil {
			return err
		}

		now := s.now()
		outcomes = make([]VoidOutcome, 0, len(codes))
		for _, code := range codes {
			inv := invoices[code]
			changes, err := s.moveStock(ctx, locked, quantitiesOfLines(inv.Lines))
			if err != nil {
				return err
			}
			movements := make([]inventory.Movement, 0, len(inv.Lines))
			for _, l := range inv.Lines {
				movements = append(movements, inventory.NewMovement(l.ProductID, inventory.TypeSaleReversal, l.Quantity,
					inv.Code, fmt.Sprintf("Void %s #%s", inv.Code, l.SKU), actor))
			}
			if err := s.movements.Record(ctx, movements); err != nil {
				return err
			}

			inv.IsVoided = true
			inv.VoidedAt = &now
			inv.VoidedBy = actor
			inv.VoidReason = reason
			inv.UpdatedAt = now
			if err := s.repo.MarkVoided(ctx, inv); err != nil {
				return fmt.Errorf("void invoice %s: %w", code, err)
			}
			if err := s.audit.LogChange(ctx, entityType, inv.Code, audit.ActionVoid, map[string]any{
				"isVoided":   map[string]any{"old": false, "new": true},
				"voidReason": reason,
			}); err != nil {
				return err
			}
			outcomes = append(outcomes, VoidOutcome{Code: code, StockChanges: changes})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	logger.Info(ctx, "invoices voided", "invoice_codes", codes, "reason", reason)
	return outcomes, nil
}

// InvoiceView is an invoice with the receipt settings needed to render it.
type InvoiceView struct {
	*Invoice
	Status       Status           `json:"status"`
	Company      settings.Company `json:"company"`
	ShowDiscount bool             `json:"showDiscount"`
	TaxEnabled   bool             `json:"taxEnabled"`
}

// Get returns an invoice with its lines and receipt header.
func (s *Service) Get(ctx context.Context, code string) (*InvoiceView, error) {
	code = normalizeCode(code)
	inv, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	company, err := settings.LoadCompany(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	pricing, err := settings.LoadPricing(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	return &InvoiceView{
		Invoice:      inv,
		Status:       inv.Status(),
		Company:      company,
		ShowDiscount: pricing.ShowDiscount,
		TaxEnabled:   pricing.TaxEnabled,
	}, nil
}

// List returns invoice headers. Voided invoices are excluded unless requested.
func (s *Service) List(ctx context.Context, f ListFilter) (domain.ListResult[Invoice], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[Invoice]{}, err
	}
	return domain.NewListResult(items, total, f.Page), nil
}

// History returns the audit trail of an invoice, newest first.
func (s *Service) History(ctx context.Context, code string) ([]audit.Entry, error) {
	code = normalizeCode(code)
	if _, err := s.repo.GetByCode(ctx, code); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []audit.Entry{}, nil
	}
	return s.history.GetEntityHistory(ctx, entityType, code, historyLimit)
}

// resolveSeller returns the seller for an invoice. An empty request keeps the
// current seller (or the caller on create). Naming another user requires the
// assign privilege and an active user.
func (s *Service) resolveSeller(ctx context.Context, current, requested string) (string, error) {
	actor := appctx.GetUserID(ctx)
	requested = strings.TrimSpace(requested)
	switch {
	case requested == "" && current != "":
		return current, nil
	case requested == "":
		return actor, nil
	case requested == current:
		return current, nil
	}
	if requested != actor && !appctx.HasPermission(ctx, security.PermSalesAssignOther) {
		return "", apperror.NewForbidden("not allowed to assign another seller").
			WithDetail("seller_user_id", requested)
	}
	if requested != actor && s.users != nil {
		if _, err := s.users.GetActiveUser(ctx, requested); err != nil {
			if apperror.IsNotFound(err) {
				return "", apperror.NewValidation("seller not found or inactive").
					WithDetail("seller_user_id", requested)
			}
			return "", err
		}
	}
	return requested, nil
}

// applyHeader copies customer, seller and sale date onto inv.
func (s *Service) applyHeader(ctx context.Context, inv *Invoice, in EditInput) error {
	seller, err := s.resolveSeller(ctx, inv.SellerUserID, in.SellerUserID)
	if err != nil {
		return err
	}
	inv.SellerUserID = seller
	inv.patchCustomer(in.Customer)
	if in.SaleDate != nil {
		inv.SaleDate = in.SaleDate
	}
	return nil
}

// settlePayment recomputes payment fields after an edit. The stored payment is
// kept when no amount is given and neither currency nor total changed;
// otherwise the amount defaults to the full total at the current rate.
func (s *Service) settlePayment(ctx context.Context, inv *Invoice, in EditInput, previousTotal decimal.Decimal) error {
	payCode := inv.PaymentCurrencyCode
	if strings.TrimSpace(in.PaymentCurrencyCode) != "" {
		payCode = in.PaymentCurrencyCode
	}
	payCode = currency.NormalizeCode(payCode)
	if in.PaymentAmount == nil && payCode == inv.PaymentCurrencyCode && inv.TotalUSD.Equal(previousTotal) {
		return nil
	}
	rate, err := s.rates.RateToUSD(ctx, payCode)
	if err != nil {
		return err
	}
	return inv.applyPayment(payCode, rate, in.PaymentAmount)
}

// moveStock applies signed deltas in lock order and reports the new balances.
func (s *Service) moveStock(ctx context.Context, locked map[id.ID]*product.Product, deltas map[id.ID]int) ([]StockChange, error) {
	changes := make([]StockChange, 0, len(deltas))
	for _, pid := range inventory.SortedIDs(deltas) {
		delta := deltas[pid]
		if delta == 0 {
			continue
		}
		p, ok := locked[pid]
		if !ok {
			return nil, apperror.NewNotFound("product", pid)
		}
		newStock, err := s.products.AdjustStock(ctx, pid, delta)
		if err != nil {
			return nil, err
		}
		p.Stock = newStock
		changes = append(changes, StockChange{ProductID: pid, SKU: p.SKU, Delta: delta, NewStock: newStock})
	}
	return changes, nil
}

func (inv *Invoice) setCustomer(c Customer) {
	inv.CustomerName = strings.TrimSpace(c.Name)
	inv.CustomerPhone = strings.TrimSpace(c.Phone)
	inv.CustomerAddress = strings.TrimSpace(c.Address)
	inv.CustomerTaxID = strings.TrimSpace(c.TaxID)
}

func (inv *Invoice) patchCustomer(p CustomerPatch) {
	patchField(&inv.CustomerName, p.Name)
	patchField(&inv.CustomerPhone, p.Phone)
	patchField(&inv.CustomerAddress, p.Address)
	patchField(&inv.CustomerTaxID, p.TaxID)
}

func patchField(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (inv *Invoice) setOverride(manual, original decimal.Decimal, actor string, at time.Time) {
	inv.ManualTotalOverride = true
	inv.ManualTotalInputUSD = decimal.NewNullDecimal(manual)
	inv.ManualTotalOriginalUSD = decimal.NewNullDecimal(original)
	inv.ManualTotalSetBy = actor
	inv.ManualTotalSetAt = &at
}

// applyCalc copies totals and fresh lines from calc.
func (inv *Invoice) applyCalc(calc *Calc) {
	inv.SubtotalUSD = calc.Subtotal
	inv.DiscountPct = calc.DiscountPct
	inv.DiscountAmountUSD = calc.DiscountAmount
	inv.TaxPct = calc.TaxPct
	inv.TaxAmountUSD = calc.TaxAmount
	inv.TotalUSD = calc.Total
	inv.Lines = calc.Lines
	for i := range inv.Lines {
		inv.Lines[i].ID = id.New()
		inv.Lines[i].InvoiceID = inv.ID
	}
}

// applyPayment sets the payment in code. A nil amount means the full total.
func (inv *Invoice) applyPayment(code string, rate decimal.Decimal, amount *decimal.Decimal) error {
	paid := types.Round2(inv.TotalUSD.Mul(rate))
	if amount != nil {
		paid = types.Round2(*amount)
	}
	if !paid.IsPositive() {
		return apperror.NewValidation("payment amount must be greater than zero").
			WithDetail("field", "paymentAmount")
	}
	inv.PaymentCurrencyCode = code
	inv.PaymentAmount = paid
	inv.PaymentRateToUSD = rate
	inv.PaymentAmountUSD = types.Round2(paid.Div(rate))
	return nil
}

func validateAmounts(manual, payment *decimal.Decimal) error {
	if manual != nil && !manual.IsPositive() {
		return apperror.NewValidation("manual invoice total must be greater than zero").
			WithDetail("field", "manualInvoiceTotal")
	}
	if payment != nil && !payment.IsPositive() {
		return apperror.NewValidation("payment amount must be greater than zero").
			WithDetail("field", "paymentAmount")
	}
	return nil
}

func errManualTotalForbidden() *apperror.AppError {
	return apperror.NewForbidden("only administrators can set a manual invoice total")
}

func ensureExists(locked map[id.ID]*product.Product, required map[id.ID]int) error {
	for _, pid := range inventory.SortedIDs(required) {
		if _, ok := locked[pid]; !ok {
			return apperror.NewNotFound("product", pid)
		}
	}
	return nil
}

func ensureSellable(locked map[id.ID]*product.Product, required map[id.ID]int) error {
	if err := ensureExists(locked, required); err != nil {
		return err
	}
	for _, pid := range inventory.SortedIDs(required) {
		if p := locked[pid]; !p.IsActive {
			return apperror.NewValidation("product is inactive").
				WithDetail("product_id", pid).
				WithDetail("sku", p.SKU)
		}
	}
	return nil
}

func priceItems(items []ItemInput, locked map[id.ID]*product.Product) []PriceItem {
	out := make([]PriceItem, len(items))
	for i, it := range items {
		p := locked[it.ProductID]
		out[i] = PriceItem{
			ProductID: it.ProductID,
			SKU:       p.SKU,
			Quantity:  it.Quantity,
			UnitPrice: p.FinalCustomerPrice,
			UnitCost:  p.CostUSD,
		}
	}
	return out
}

func quantitiesOf(items []ItemInput) map[id.ID]int {
	out := make(map[id.ID]int, len(items))
	for _, it := range items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

func quantitiesOfLines(lines []Line) map[id.ID]int {
	out := make(map[id.ID]int, len(lines))
	for _, l := range lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

// quantityDeltas returns next-prev per product, omitting zero deltas.
func quantityDeltas(prev, next map[id.ID]int) map[id.ID]int {
	out := make(map[id.ID]int)
	for pid, q := range next {
		if d := q - prev[pid]; d != 0 {
			out[pid] = d
		}
	}
	for pid, q := range prev {
		if _, ok := next[pid]; !ok {
			out[pid] = -q
		}
	}
	return out
}

// normalizeCode puts an invoice code in its stored form.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = normalizeCode(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func newInvoiceCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "FAC-" + strings.ToUpper(hex[:10])
}

func invoiceSnapshot(inv *Invoice) map[string]any {
	lines := make([]map[string]any, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, map[string]any{
			"productId": l.ProductID.String(),
			"sku":       l.SKU,
			"quantity":  l.Quantity,
			"totalUsd":  l.TotalUSD.StringFixed(2),
		})
	}
	snap := map[string]any{
		"customerName":        inv.CustomerName,
		"customerPhone":       inv.CustomerPhone,
		"customerAddress":     inv.CustomerAddress,
		"customerRif":         inv.CustomerTaxID,
		"sellerUserId":        inv.SellerUserID,
		"paymentCurrencyCode": inv.PaymentCurrencyCode,
		"paymentAmount":       inv.PaymentAmount.StringFixed(2),
		"paymentAmountUsd":    inv.PaymentAmountUSD.StringFixed(2),
		"subtotalUsd":         inv.SubtotalUSD.StringFixed(2),
		"discountAmountUsd":   inv.DiscountAmountUSD.StringFixed(2),
		"taxAmountUsd":        inv.TaxAmountUSD.StringFixed(2),
		"totalUsd":            inv.TotalUSD.StringFixed(2),
		"manualTotalOverride": inv.ManualTotalOverride,
		"commissionUsd":       inv.CommissionUSD.StringFixed(2),
		"lines":               lines,
	}
	if inv.SaleDate != nil {
		snap["saleDate"] = inv.SaleDate.Format(time.RFC3339)
	}
	return snap
}
