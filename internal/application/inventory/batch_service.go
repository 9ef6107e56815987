package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchService handles the batch lifecycle: registration, corrections,
// warehouse receipt, quality holds and deletion
type BatchService struct {
	repo    inventory.BatchRepository
	catalog inventory.ProductCatalog
	names   *productNameResolver
	writer  *batchWriter
	logger  *zap.Logger
	opts    Options
}

// NewBatchService creates a new BatchService
func NewBatchService(repo inventory.BatchRepository, catalog inventory.ProductCatalog, opts Options) *BatchService {
	opts = opts.withDefaults()
	return &BatchService{
		repo:    repo,
		catalog: catalog,
		names:   newProductNameResolver(catalog),
		writer:  newBatchWriter(repo, opts),
		logger:  zap.NewNop(),
		opts:    opts,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.writer.eventPublisher = publisher
}

// SetLogger sets the service logger
func (s *BatchService) SetLogger(logger *zap.Logger) {
	s.logger = logger
	s.writer.logger = logger
}

// SetMetrics enables batch counters
func (s *BatchService) SetMetrics(metrics *telemetry.BatchMetrics) {
	s.writer.metrics = metrics
}

// Create registers a new batch in IN_PRODUCTION
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	producedOn, err := parseDate("produced_on", req.ProducedOn)
	if err != nil {
		return nil, err
	}
	expiresOn, err := parseDate("expires_on", req.ExpiresOn)
	if err != nil {
		return nil, err
	}

	if err := s.ensureProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, req.Code, uuid.Nil); err != nil {
		return nil, err
	}

	today := s.opts.today()
	batch, err := inventory.NewBatch(req.Code, req.ProductID, producedOn, expiresOn, req.ProducedQty, req.Notes, today)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, err
	}
	s.writer.publish(ctx, batch)
	s.writer.metrics.RecordBatchCreated(ctx)

	logger.L(ctx, s.logger).Info("batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("code", batch.Code),
		zap.String("product_id", batch.ProductID.String()),
		zap.Int("produced_qty", batch.ProducedQty),
	)
	return s.toResponse(ctx, batch)
}

// GetByID retrieves a batch by ID
func (s *BatchService) GetByID(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.writer.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, batch)
}

// GetByCode retrieves a batch by its code
func (s *BatchService) GetByCode(ctx context.Context, code string) (*BatchResponse, error) {
	batch, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(inventory.CodeBatchNotFound, fmt.Sprintf("Batch with code %q not found", code))
		}
		return nil, err
	}
	return s.toResponse(ctx, batch)
}

// List returns a page of batches with the total count
func (s *BatchService) List(ctx context.Context, filter BatchListFilter) ([]BatchResponse, int64, error) {
	f := inventory.BatchFilter{
		PageRequest: shared.PageRequest{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			SortBy:   filter.OrderBy,
			SortDesc: filter.OrderDir == "desc",
		}.Normalize(),
		ProductID: filter.ProductID,
		Search:    filter.Search,
	}
	if f.SortBy == "" {
		f.SortBy = "expires_on"
	}
	if filter.State != "" {
		state, err := inventory.ParseBatchState(filter.State)
		if err != nil {
			return nil, 0, err
		}
		f.State = &state
	}

	batches, total, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	responses, err := s.toResponses(ctx, batches)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// ListByProduct returns every batch of a product
func (s *BatchService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]BatchResponse, error) {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, batches)
}

// ListByState returns every batch in a state
func (s *BatchService) ListByState(ctx context.Context, state string) ([]BatchResponse, error) {
	st, err := inventory.ParseBatchState(state)
	if err != nil {
		return nil, err
	}
	batches, err := s.repo.FindByState(ctx, st)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, batches)
}

// ListAvailable returns the AVAILABLE batches that still hold stock
func (s *BatchService) ListAvailable(ctx context.Context) ([]BatchResponse, error) {
	batches, err := s.repo.FindByState(ctx, inventory.BatchStateAvailable)
	if err != nil {
		return nil, err
	}
	withStock := batches[:0]
	for _, b := range batches {
		if b.HasStock() {
			withStock = append(withStock, b)
		}
	}
	return s.toResponses(ctx, withStock)
}

// Update applies a partial correction. An empty request changes nothing.
func (s *BatchService) Update(ctx context.Context, id uuid.UUID, req UpdateBatchRequest) (*BatchResponse, error) {
	patch, err := toPatch(req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	batch, err := s.writer.mutate(ctx, id, "update", func(b *inventory.Batch) error {
		if patch.ProductID != nil && *patch.ProductID != b.ProductID {
			if err := s.ensureProduct(ctx, *patch.ProductID); err != nil {
				return err
			}
		}
		if patch.Code != nil && strings.TrimSpace(*patch.Code) != b.Code {
			if err := s.ensureCodeFree(ctx, *patch.Code, b.ID); err != nil {
				return err
			}
		}
		return b.ApplyPatch(patch)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("batch updated",
		zap.String("batch_id", batch.ID.String()),
		zap.String("code", batch.Code),
		zap.String("reason", req.Reason),
	)
	return s.toResponse(ctx, batch)
}

// Delete removes a batch that never sold stock and is not AVAILABLE
func (s *BatchService) Delete(ctx context.Context, id uuid.UUID) error {
	batch, err := s.writer.remove(ctx, id, func(b *inventory.Batch) error {
		return b.CanDelete()
	})
	if err != nil {
		return err
	}

	batch.ClearDomainEvents()
	batch.AddDomainEvent(inventory.NewBatchDeletedEvent(batch))
	s.writer.publish(ctx, batch)

	logger.L(ctx, s.logger).Info("batch deleted",
		zap.String("batch_id", id.String()),
		zap.String("code", batch.Code),
	)
	return nil
}

// ReceiveIntoWarehouse makes the whole production of an IN_PRODUCTION batch available
func (s *BatchService) ReceiveIntoWarehouse(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	today := s.opts.today()
	batch, err := s.writer.mutate(ctx, id, "receive", func(b *inventory.Batch) error {
		return b.Receive(today)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("batch received into warehouse",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("available_qty", batch.AvailableQty),
	)
	return s.toResponse(ctx, batch)
}

// Block puts a batch on hold. The reason is appended to its notes.
func (s *BatchService) Block(ctx context.Context, id uuid.UUID, reason string) (*BatchResponse, error) {
	batch, err := s.writer.mutate(ctx, id, "block", func(b *inventory.Batch) error {
		return b.Block(reason)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("batch blocked",
		zap.String("batch_id", batch.ID.String()),
		zap.String("reason", reason),
	)
	return s.toResponse(ctx, batch)
}

// Unblock releases a hold. The batch becomes AVAILABLE, or EXHAUSTED without stock.
func (s *BatchService) Unblock(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	today := s.opts.today()
	batch, err := s.writer.mutate(ctx, id, "unblock", func(b *inventory.Batch) error {
		return b.Unblock(today)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("batch unblocked",
		zap.String("batch_id", batch.ID.String()),
		zap.String("state", batch.State.String()),
	)
	return s.toResponse(ctx, batch)
}

func (s *BatchService) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	exists, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return productNotFound(productID)
	}
	return nil
}

func (s *BatchService) ensureCodeFree(ctx context.Context, code string, excludeID uuid.UUID) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	taken, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return fmt.Errorf("check batch code: %w", err)
	}
	if taken {
		return shared.NewDomainError(inventory.CodeDuplicateCode, fmt.Sprintf("Batch code %q already in use", code))
	}
	return nil
}

func (s *BatchService) toResponse(ctx context.Context, b *inventory.Batch) (*BatchResponse, error) {
	name, err := s.names.Name(ctx, b.ProductID)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(b, name, s.opts.today(), s.opts.NearExpiryDays)
	return &resp, nil
}

func (s *BatchService) toResponses(ctx context.Context, batches []inventory.Batch) ([]BatchResponse, error) {
	ids := make([]uuid.UUID, len(batches))
	for i := range batches {
		ids[i] = batches[i].ProductID
	}
	names, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.opts.today()
	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i], names[batches[i].ProductID], today, s.opts.NearExpiryDays)
	}
	return responses, nil
}

// toPatch converts the request into a domain patch, parsing date strings
func toPatch(req UpdateBatchRequest) (inventory.BatchPatch, error) {
	patch := inventory.BatchPatch{
		Code:         req.Code,
		ProductID:    req.ProductID,
		ProducedQty:  req.ProducedQty,
		AvailableQty: req.AvailableQty,
		Notes:        req.Notes,
		Reason:       req.Reason,
	}
	if req.ProducedOn != nil {
		d, err := parseDate("produced_on", *req.ProducedOn)
		if err != nil {
			return patch, err
		}
		patch.ProducedOn = &d
	}
	if req.ExpiresOn != nil {
		d, err := parseDate("expires_on", *req.ExpiresOn)
		if err != nil {
			return patch, err
		}
		patch.ExpiresOn = &d
	}
	return patch, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := inventory.ParseCivilDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return d, nil
}
