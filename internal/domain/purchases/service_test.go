package purchases

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/domain/audit"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
)

type passThroughTx struct{}

func (passThroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubProducts struct {
	product.Repository
	items map[id.ID]*product.Product
}

func (s *stubProducts) LockForUpdate(_ context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := map[id.ID]*product.Product{}
	for _, pid := range ids {
		if p, ok := s.items[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

func (s *stubProducts) AdjustStock(_ context.Context, pid id.ID, delta int) (int, error) {
	s.items[pid].Stock += delta
	return s.items[pid].Stock, nil
}

type memRepo struct {
	rows []Purchase
}

func (m *memRepo) Create(_ context.Context, p *Purchase) error {
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memRepo) List(context.Context, ListFilter) ([]Purchase, int64, error) {
	return m.rows, int64(len(m.rows)), nil
}

type mockMovements struct{ mock.Mock }

func (m *mockMovements) Record(ctx context.Context, movements []inventory.Movement) error {
	return m.Called(ctx, movements).Error(0)
}

func TestCreatePurchaseRaisesStock(t *testing.T) {
	pid := id.New()
	products := &stubProducts{items: map[id.ID]*product.Product{pid: {ID: pid, SKU: "RIDAX-GEN-GEN-NA-00001", Stock: 2}}}
	repo := &memRepo{}
	movements := &mockMovements{}
	movements.On("Record", mock.Anything, mock.MatchedBy(func(ms []inventory.Movement) bool {
		return len(ms) == 1 && ms[0].Type == inventory.TypePurchase && ms[0].Quantity == 3 && ms[0].ProductID == pid
	})).Return(nil).Once()

	svc := NewService(repo, products, movements, passThroughTx{}, audit.Nop{})
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1"})

	p, err := svc.Create(ctx, CreateInput{ProductID: pid, Quantity: 3, UnitCostUSD: decimal.RequireFromString("4.335"), SupplierName: " ACME "})
	require.NoError(t, err)

	assert.Equal(t, "13.01", p.TotalUSD.StringFixed(2))
	assert.Equal(t, "ACME", p.SupplierName)
	assert.Equal(t, "u-1", p.CreatedBy)
	assert.Equal(t, 5, products.items[pid].Stock)
	assert.Len(t, repo.rows, 1)
	movements.AssertExpectations(t)
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc := NewService(&memRepo{}, &stubProducts{items: map[id.ID]*product.Product{}}, &mockMovements{}, passThroughTx{}, nil)
	ctx := context.Background()
	pid := id.New()

	_, err := svc.Create(ctx, CreateInput{ProductID: pid, Quantity: 0, UnitCostUSD: decimal.NewFromInt(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = svc.Create(ctx, CreateInput{ProductID: pid, Quantity: 1, UnitCostUSD: decimal.NewFromInt(-1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{ProductID: pid, Quantity: 1, UnitCostUSD: decimal.NewFromInt(1)})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreatePurchasePropagatesLedgerFailure(t *testing.T) {
	pid := id.New()
	products := &stubProducts{items: map[id.ID]*product.Product{pid: {ID: pid, Stock: 0}}}
	movements := &mockMovements{}
	movements.On("Record", mock.Anything, mock.Anything).Return(errors.New("copy failed"))

	svc := NewService(&memRepo{}, products, movements, passThroughTx{}, nil)
	_, err := svc.Create(context.Background(), CreateInput{ProductID: pid, Quantity: 1, UnitCostUSD: decimal.Zero})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy failed")
}
