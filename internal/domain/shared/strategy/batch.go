package strategy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Batch is the strategy-facing view of a production batch
type Batch struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	Code         string
	AvailableQty int
	ProducedOn   time.Time
	ExpiresOn    time.Time
	// Allocatable is false for batches whose lifecycle state forbids drawing
	// stock from them (in production, exhausted, blocked).
	Allocatable bool
}

// BatchSelection identifies the batch chosen to serve a request
type BatchSelection struct {
	BatchID      uuid.UUID
	Code         string
	AvailableQty int
	ExpiresOn    time.Time
}

// BatchSelectionContext provides context for batch selection
type BatchSelectionContext struct {
	ProductID uuid.UUID
	Quantity  int
	// Date is the civil date used for expiry checks (midnight UTC)
	Date time.Time
}

// BatchSelectionResult contains the result of batch selection.
// Selected is nil when no single eligible batch can serve the whole quantity.
type BatchSelectionResult struct {
	Selected *BatchSelection
	// EligibleCount is the number of batches that passed the eligibility filter
	EligibleCount int
	// LargestAvailable is the largest available quantity among eligible batches
	LargestAvailable int
}

// BatchSelectionStrategy picks the single batch that serves a stock request
type BatchSelectionStrategy interface {
	Named
	// SelectBatch chooses one batch able to serve the full requested quantity
	SelectBatch(ctx context.Context, selCtx BatchSelectionContext, batches []Batch) (BatchSelectionResult, error)
	// ConsidersExpiry returns true if the strategy orders by expiry dates
	ConsidersExpiry() bool
}
