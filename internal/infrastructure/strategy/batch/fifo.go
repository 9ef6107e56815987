package batch

import (
	"context"
	"time"

	"github.com/erp/perishables/internal/domain/shared/strategy"
)

// FIFOBatchStrategy selects the oldest produced batch that covers the request.
// Expired batches are still excluded, but expiration does not drive the order.
type FIFOBatchStrategy struct {
	strategy.Descriptor
}

// NewFIFOBatchStrategy creates a new FIFO batch strategy
func NewFIFOBatchStrategy() *FIFOBatchStrategy {
	return &FIFOBatchStrategy{
		Descriptor: strategy.NewDescriptor(
			"fifo",
			"First In First Out - selects the oldest produced batch that covers the request",
		),
	}
}

// SelectBatch selects a single batch in production-date order
func (s *FIFOBatchStrategy) SelectBatch(
	ctx context.Context,
	selCtx strategy.BatchSelectionContext,
	batches []strategy.Batch,
) (strategy.BatchSelectionResult, error) {
	if err := ctx.Err(); err != nil {
		return strategy.BatchSelectionResult{}, err
	}

	filtered := filterEligibleBatches(batches, selCtx.ProductID, selCtx.Date)
	sortBatches(filtered, func(b strategy.Batch) time.Time { return b.ProducedOn })

	return selectFirstCovering(filtered, selCtx.Quantity), nil
}

// ConsidersExpiry returns false as FIFO orders by production date
func (s *FIFOBatchStrategy) ConsidersExpiry() bool {
	return false
}

var _ strategy.BatchSelectionStrategy = (*FIFOBatchStrategy)(nil)
