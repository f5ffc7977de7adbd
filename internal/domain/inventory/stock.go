package inventory

import (
	"slices"
	"strings"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/domain/catalogs/product"
)

// CheckAvailability verifies every required quantity against locked product rows.
// Products are checked in id order so the reported shortage is deterministic.
func CheckAvailability(locked map[id.ID]*product.Product, required map[id.ID]int) error {
	for _, pid := range SortedIDs(required) {
		qty := required[pid]
		if qty <= 0 {
			continue
		}
		p, ok := locked[pid]
		if !ok {
			return apperror.NewNotFound("product", pid)
		}
		if !p.HasStock(qty) {
			return apperror.NewInsufficientStock(pid.String(), qty, p.Stock).
				WithDetail("sku", p.SKU)
		}
	}
	return nil
}

// SortedIDs returns the keys of m in ascending order, the lock order of product rows.
func SortedIDs[V any](m map[id.ID]V) []id.ID {
	ids := make([]id.ID, 0, len(m))
	for k := range m {
		ids = append(ids, k)
	}
	slices.SortFunc(ids, func(a, b id.ID) int { return strings.Compare(a.String(), b.String()) })
	return ids
}
