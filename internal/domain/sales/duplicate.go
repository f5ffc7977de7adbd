package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/types"
)

// DefaultDuplicateWindow is how far back the duplicate guard looks.
const DefaultDuplicateWindow = 24 * time.Hour

var duplicateTolerance = decimal.New(1, -2)

// Locker serializes critical sections across processes.
type Locker interface {
	// Obtain acquires key and returns the function that releases it.
	Obtain(ctx context.Context, key string) (release func(), err error)
}

// NopLocker is used when no distributed lock backend is configured.
type NopLocker struct{}

func (NopLocker) Obtain(context.Context, string) (func(), error) { return func() {}, nil }

// duplicateLockKeys returns the keys of the cent buckets the guard compares
// total against, in ascending order. Two totals within the tolerance always
// share at least one key.
func duplicateLockKeys(total decimal.Decimal) []string {
	cents := types.Cents(total)
	return []string{
		fmt.Sprintf("sales:dup:%d", cents-1),
		fmt.Sprintf("sales:dup:%d", cents),
		fmt.Sprintf("sales:dup:%d", cents+1),
	}
}

// obtainDuplicateLocks acquires every key of duplicateLockKeys in order and
// returns a function releasing them in reverse.
func (s *Service) obtainDuplicateLocks(ctx context.Context, total decimal.Decimal) (func(), error) {
	var held []func()
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, key := range duplicateLockKeys(total) {
		release, err := s.locker.Obtain(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, release)
	}
	return releaseAll, nil
}

// findDuplicates returns the active invoices of the window whose total is
// within one cent of total.
func (s *Service) findDuplicates(ctx context.Context, total decimal.Decimal) ([]DuplicateCandidate, error) {
	since := s.now().Add(-s.duplicateWindow)
	candidates, err := s.repo.FindRecentByTotal(ctx, since, total, duplicateTolerance)
	if err != nil {
		return nil, fmt.Errorf("find duplicate invoices: %w", err)
	}
	return candidates, nil
}
