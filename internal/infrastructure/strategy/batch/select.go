package batch

import (
	"sort"
	"time"

	"github.com/erp/perishables/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// filterEligibleBatches keeps allocatable batches of the product with stock
// that are still sellable on date (expiration strictly after date).
func filterEligibleBatches(batches []strategy.Batch, productID uuid.UUID, date time.Time) []strategy.Batch {
	filtered := make([]strategy.Batch, 0, len(batches))
	for _, b := range batches {
		if b.ProductID != productID || !b.Allocatable || b.AvailableQty <= 0 {
			continue
		}
		if !b.ExpiresOn.After(date) {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}

// sortBatches orders batches by key, breaking ties by ID so the order is stable across calls
func sortBatches(batches []strategy.Batch, key func(strategy.Batch) time.Time) {
	sort.SliceStable(batches, func(i, j int) bool {
		ki, kj := key(batches[i]), key(batches[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return batches[i].ID.String() < batches[j].ID.String()
	})
}

// selectFirstCovering returns the first batch in order whose stock covers the whole quantity
func selectFirstCovering(ordered []strategy.Batch, quantity int) strategy.BatchSelectionResult {
	result := strategy.BatchSelectionResult{EligibleCount: len(ordered)}
	for _, b := range ordered {
		if b.AvailableQty > result.LargestAvailable {
			result.LargestAvailable = b.AvailableQty
		}
	}
	for _, b := range ordered {
		if b.AvailableQty >= quantity {
			result.Selected = &strategy.BatchSelection{
				BatchID:      b.ID,
				Code:         b.Code,
				AvailableQty: b.AvailableQty,
				ExpiresOn:    b.ExpiresOn,
			}
			break
		}
	}
	return result
}
