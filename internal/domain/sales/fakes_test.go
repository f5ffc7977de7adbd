package sales

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/core/security"
	"retailpos/internal/domain/audit"
	"retailpos/internal/domain/auth"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/domain/settings"
)

// world is an in-memory store shared by all fakes. Its transaction snapshots
// the state and restores it when the unit of work fails.
type world struct {
	products  map[id.ID]*product.Product
	opening   map[id.ID]int
	invoices  map[string]*Invoice
	movements []inventory.Movement
	audits    []audit.Action
}

func newWorld() *world {
	return &world{
		products: map[id.ID]*product.Product{},
		opening:  map[id.ID]int{},
		invoices: map[string]*Invoice{},
	}
}

func (w *world) addProduct(sku, price, cost string, stock int) id.ID {
	pid := id.New()
	w.products[pid] = &product.Product{
		ID:                 pid,
		SKU:                sku,
		Name:               sku,
		FinalCustomerPrice: decimal.RequireFromString(price),
		CostUSD:            decimal.RequireFromString(cost),
		Stock:              stock,
		IsActive:           true,
	}
	w.opening[pid] = stock
	return pid
}

func copyInvoice(inv *Invoice) *Invoice {
	cp := *inv
	cp.Lines = slices.Clone(inv.Lines)
	return &cp
}

func (w *world) snapshot() *world {
	s := &world{
		products:  make(map[id.ID]*product.Product, len(w.products)),
		opening:   maps.Clone(w.opening),
		invoices:  make(map[string]*Invoice, len(w.invoices)),
		movements: slices.Clone(w.movements),
		audits:    slices.Clone(w.audits),
	}
	for k, p := range w.products {
		cp := *p
		s.products[k] = &cp
	}
	for k, inv := range w.invoices {
		s.invoices[k] = copyInvoice(inv)
	}
	return s
}

func (w *world) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := w.snapshot()
	if err := fn(ctx); err != nil {
		*w = *saved
		return err
	}
	return nil
}

// ProductDirectory

func (w *world) LockForUpdate(_ context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	for _, pid := range ids {
		if p, ok := w.products[pid]; ok {
			cp := *p
			out[pid] = &cp
		}
	}
	return out, nil
}

func (w *world) AdjustStock(_ context.Context, pid id.ID, delta int) (int, error) {
	p, ok := w.products[pid]
	if !ok {
		return 0, apperror.NewNotFound("product", pid)
	}
	if p.Stock+delta < 0 {
		return 0, apperror.NewInsufficientStock(pid.String(), -delta, p.Stock)
	}
	p.Stock += delta
	return p.Stock, nil
}

// MovementRecorder

func (w *world) Record(_ context.Context, ms []inventory.Movement) error {
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	w.movements = append(w.movements, ms...)
	return nil
}

// audit.Recorder

func (w *world) LogChange(_ context.Context, _, _ string, action audit.Action, _ map[string]any) error {
	w.audits = append(w.audits, action)
	return nil
}

// Repository

func (w *world) Create(_ context.Context, inv *Invoice) error {
	w.invoices[inv.Code] = copyInvoice(inv)
	return nil
}

func (w *world) GetByCode(_ context.Context, code string) (*Invoice, error) {
	inv, ok := w.invoices[code]
	if !ok {
		return nil, apperror.NewNotFound("invoice", code)
	}
	return copyInvoice(inv), nil
}

func (w *world) LockActive(ctx context.Context, code string) (*Invoice, error) {
	inv, err := w.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv.IsVoided {
		return nil, apperror.NewNotFound("invoice", code)
	}
	return inv, nil
}

func (w *world) UpdateHeader(_ context.Context, inv *Invoice) error {
	w.invoices[inv.Code] = copyInvoice(inv)
	return nil
}

func (w *world) ReplaceLines(_ context.Context, inv *Invoice) error {
	w.invoices[inv.Code] = copyInvoice(inv)
	return nil
}

func (w *world) MarkVoided(_ context.Context, inv *Invoice) error {
	w.invoices[inv.Code] = copyInvoice(inv)
	return nil
}

func (w *world) FindRecentByTotal(_ context.Context, since time.Time, total, tolerance decimal.Decimal) ([]DuplicateCandidate, error) {
	var out []DuplicateCandidate
	for _, inv := range w.invoices {
		if inv.IsVoided || inv.CreatedAt.Before(since) {
			continue
		}
		if inv.TotalUSD.Sub(total).Abs().GreaterThan(tolerance) {
			continue
		}
		out = append(out, DuplicateCandidate{Code: inv.Code, TotalUSD: inv.TotalUSD, CustomerName: inv.CustomerName, CreatedAt: inv.CreatedAt})
	}
	return out, nil
}

func (w *world) List(_ context.Context, f ListFilter) ([]Invoice, int64, error) {
	var out []Invoice
	for _, inv := range w.invoices {
		if inv.IsVoided && !f.IncludeVoided {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

// stockFromLedger recomputes stock as opening balance plus movements.
func (w *world) stockFromLedger(pid id.ID) int {
	stock := w.opening[pid]
	for _, m := range w.movements {
		if m.ProductID == pid {
			stock += m.Quantity
		}
	}
	return stock
}

type memSettings map[string]string

func (m memSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memSettings) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memSettings) All(context.Context) (map[string]string, error) { return maps.Clone(m), nil }

type memRates map[string]decimal.Decimal

func (m memRates) RateToUSD(_ context.Context, code string) (decimal.Decimal, error) {
	if r, ok := m[code]; ok {
		return r, nil
	}
	return decimal.Zero, apperror.NewInvalidCurrency(code)
}

type memUsers map[string]bool

func (m memUsers) GetActiveUser(_ context.Context, userID string) (*auth.User, error) {
	if m[userID] {
		return &auth.User{Email: userID + "@shop.test", IsActive: true}, nil
	}
	return nil, apperror.NewNotFound("user", userID)
}

type recordingLocker struct{ keys []string }

func (l *recordingLocker) Obtain(_ context.Context, key string) (func(), error) {
	l.keys = append(l.keys, key)
	return func() {}, nil
}

type fixture struct {
	w        *world
	settings memSettings
	locker   *recordingLocker
	svc      *Service
	now      time.Time
}

func newFixture() *fixture {
	w := newWorld()
	f := &fixture{
		w:        w,
		settings: memSettings{settings.KeyCommissionPct: "10"},
		locker:   &recordingLocker{},
		now:      time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Deps{
		Repo:      w,
		Products:  w,
		Movements: w,
		Rates:     memRates{"USD": decimal.NewFromInt(1), "VES": decimal.NewFromInt(40)},
		Settings:  settings.NewStoreReader(f.settings),
		Users:     memUsers{"seller-2": true, "seller-gone": false},
		TxManager: w,
		Audit:     w,
		Locker:    f.locker,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func userCtx(userID, role string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      userID,
		Role:        role,
		Permissions: security.PermissionsFor(role),
		IsAdmin:     role == security.RoleAdmin,
	})
}

func adminCtx() context.Context   { return userCtx("admin-1", security.RoleAdmin) }
func sellerCtx() context.Context  { return userCtx("seller-1", security.RoleSeller) }
func managerCtx() context.Context { return userCtx("manager-1", security.RoleManager) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }
