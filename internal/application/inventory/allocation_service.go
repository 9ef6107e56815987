package inventory

import (
	"context"
	"fmt"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/domain/shared/strategy"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchStrategyProvider provides batch selection strategies by name
type BatchStrategyProvider interface {
	// GetBatchStrategy returns the strategy for the given name, or the default if name is empty
	GetBatchStrategy(name string) (strategy.BatchSelectionStrategy, error)
}

// AllocationService picks the batch that serves a stock request. It never mutates.
type AllocationService struct {
	repo     inventory.BatchRepository
	catalog  inventory.ProductCatalog
	strategy strategy.BatchSelectionStrategy
	logger   *zap.Logger
	metrics  *telemetry.BatchMetrics
	opts     Options
}

// NewAllocationService creates a new AllocationService using the given selection strategy
func NewAllocationService(
	repo inventory.BatchRepository,
	catalog inventory.ProductCatalog,
	selection strategy.BatchSelectionStrategy,
	opts Options,
) *AllocationService {
	return &AllocationService{
		repo:     repo,
		catalog:  catalog,
		strategy: selection,
		logger:   zap.NewNop(),
		opts:     opts.withDefaults(),
	}
}

// NewAllocationServiceFromProvider resolves the named strategy from provider
func NewAllocationServiceFromProvider(
	repo inventory.BatchRepository,
	catalog inventory.ProductCatalog,
	provider BatchStrategyProvider,
	strategyName string,
	opts Options,
) (*AllocationService, error) {
	selection, err := provider.GetBatchStrategy(strategyName)
	if err != nil {
		return nil, fmt.Errorf("batch strategy %q: %w", strategyName, err)
	}
	return NewAllocationService(repo, catalog, selection, opts), nil
}

// SetLogger sets the service logger
func (s *AllocationService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetMetrics enables allocation counters
func (s *AllocationService) SetMetrics(metrics *telemetry.BatchMetrics) {
	s.metrics = metrics
}

// StrategyName returns the name of the selection strategy in use
func (s *AllocationService) StrategyName() string {
	return s.strategy.Name()
}

// SelectBatch returns the single batch that can serve the whole quantity.
// Stock is never split across batches.
func (s *AllocationService) SelectBatch(ctx context.Context, productID uuid.UUID, quantity int) (*BatchRef, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError(inventory.CodeInvalidQuantity, "Requested quantity must be positive")
	}
	exists, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, productNotFound(productID)
	}

	today := s.opts.today()
	batches, err := s.repo.FindAllocatable(ctx, productID, today)
	if err != nil {
		return nil, err
	}

	result, err := s.strategy.SelectBatch(ctx, strategy.BatchSelectionContext{
		ProductID: productID,
		Quantity:  quantity,
		Date:      today,
	}, toStrategyBatches(batches))
	if err != nil {
		return nil, err
	}

	if result.Selected == nil {
		s.metrics.RecordAllocation(ctx, s.strategy.Name(), telemetry.ResultNoStock)
	}
	if result.EligibleCount == 0 {
		return nil, shared.NewDomainError(inventory.CodeNoBatchesAvailable,
			fmt.Sprintf("No batches available for product %s", productID))
	}
	if result.Selected == nil {
		return nil, shared.NewDomainError(inventory.CodeInsufficientStockAcrossBatches,
			fmt.Sprintf("No single batch holds %d units of product %s (largest batch has %d)",
				quantity, productID, result.LargestAvailable))
	}

	s.metrics.RecordAllocation(ctx, s.strategy.Name(), telemetry.ResultSelected)
	logger.L(ctx, s.logger).Debug("batch selected",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
		zap.String("batch_id", result.Selected.BatchID.String()),
		zap.String("strategy", s.strategy.Name()),
	)
	return &BatchRef{
		BatchID:      result.Selected.BatchID,
		Code:         result.Selected.Code,
		AvailableQty: result.Selected.AvailableQty,
		ExpiresOn:    result.Selected.ExpiresOn.Format(inventory.DateLayout),
	}, nil
}

// toStrategyBatches converts domain batches into the strategy view
func toStrategyBatches(batches []inventory.Batch) []strategy.Batch {
	out := make([]strategy.Batch, len(batches))
	for i, b := range batches {
		out[i] = strategy.Batch{
			ID:           b.ID,
			ProductID:    b.ProductID,
			Code:         b.Code,
			AvailableQty: b.AvailableQty,
			ProducedOn:   b.ProducedOn,
			ExpiresOn:    b.ExpiresOn,
			Allocatable:  b.State.IsAllocatable(),
		}
	}
	return out
}
