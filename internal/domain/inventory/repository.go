package inventory

import (
	"context"
	"time"

	"github.com/erp/perishables/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchFilter narrows a batch listing. Zero-valued fields match every batch.
type BatchFilter struct {
	shared.PageRequest
	ProductID *uuid.UUID
	State     *BatchState
	// Search matches code or notes, case-insensitively
	Search string
	// InStock keeps only batches with available quantity
	InStock bool
}

// BatchRepository defines the interface for batch persistence.
// Lookups that find nothing return shared.ErrNotFound.
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByCode finds a batch by its unique code
	FindByCode(ctx context.Context, code string) (*Batch, error)

	// ExistsByCode checks whether a code is taken, ignoring excludeID when it is not uuid.Nil
	ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)

	// FindAll lists batches page by page
	FindAll(ctx context.Context, filter BatchFilter) ([]Batch, int64, error)

	// FindByProduct lists every batch of a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Batch, error)

	// FindByState lists every batch in the given state
	FindByState(ctx context.Context, state BatchState) ([]Batch, error)

	// FindAllocatable lists AVAILABLE batches of a product with stock that expire after the given date
	FindAllocatable(ctx context.Context, productID uuid.UUID, after time.Time) ([]Batch, error)

	// FindExpiringBefore lists AVAILABLE batches with stock whose expiration is before the given date
	FindExpiringBefore(ctx context.Context, before time.Time) ([]Batch, error)

	// ListAll returns every batch, unpaginated, for reporting
	ListAll(ctx context.Context) ([]Batch, error)

	// Create inserts a new batch. A taken code yields ErrDuplicateCode.
	Create(ctx context.Context, batch *Batch) error

	// SaveWithLock persists the batch only if the stored version is batch.Version-1.
	// A stale version yields shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, batch *Batch) error

	// DeleteWithLock removes the batch only if the stored version equals version.
	// A newer stored version yields shared.ErrConcurrencyConflict.
	DeleteWithLock(ctx context.Context, id uuid.UUID, version int) error
}

// Product is the catalog's view of a product
type Product struct {
	ID   uuid.UUID
	Name string
}

// ProductCatalog resolves product identity and display names
type ProductCatalog interface {
	// Exists reports whether a product with the ID exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// GetName returns the product name or shared.ErrNotFound
	GetName(ctx context.Context, id uuid.UUID) (string, error)

	// FindByIDs returns the products found among ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}
