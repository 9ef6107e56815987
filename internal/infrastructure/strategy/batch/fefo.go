package batch

import (
	"context"
	"time"

	"github.com/erp/perishables/internal/domain/shared/strategy"
)

// FEFOBatchStrategy implements First Expired First Out batch selection.
// The earliest-expiring eligible batch that can serve the whole request wins.
type FEFOBatchStrategy struct {
	strategy.Descriptor
}

// NewFEFOBatchStrategy creates a new FEFO batch strategy
func NewFEFOBatchStrategy() *FEFOBatchStrategy {
	return &FEFOBatchStrategy{
		Descriptor: strategy.NewDescriptor(
			"fefo",
			"First Expired First Out - selects the earliest expiring batch that covers the request",
		),
	}
}

// SelectBatch selects a single batch in FEFO order
func (s *FEFOBatchStrategy) SelectBatch(
	ctx context.Context,
	selCtx strategy.BatchSelectionContext,
	batches []strategy.Batch,
) (strategy.BatchSelectionResult, error) {
	if err := ctx.Err(); err != nil {
		return strategy.BatchSelectionResult{}, err
	}

	filtered := filterEligibleBatches(batches, selCtx.ProductID, selCtx.Date)
	sortBatches(filtered, func(b strategy.Batch) time.Time { return b.ExpiresOn })

	return selectFirstCovering(filtered, selCtx.Quantity), nil
}

// ConsidersExpiry returns true as FEFO orders by expiry dates
func (s *FEFOBatchStrategy) ConsidersExpiry() bool {
	return true
}

var _ strategy.BatchSelectionStrategy = (*FEFOBatchStrategy)(nil)
