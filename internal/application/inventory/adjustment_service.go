package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "batch-adjust:"

// AdjustmentService changes the available quantity of a batch.
// Every write is an optimistic compare-and-swap on the batch version.
type AdjustmentService struct {
	writer      *batchWriter
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
	opts        Options
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(repo inventory.BatchRepository, opts Options) *AdjustmentService {
	opts = opts.withDefaults()
	return &AdjustmentService{
		writer: newBatchWriter(repo, opts),
		logger: zap.NewNop(),
		opts:   opts,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdjustmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.writer.eventPublisher = publisher
}

// SetLogger sets the service logger
func (s *AdjustmentService) SetLogger(logger *zap.Logger) {
	s.logger = logger
	s.writer.logger = logger
}

// SetMetrics enables adjustment and conflict counters
func (s *AdjustmentService) SetMetrics(metrics *telemetry.BatchMetrics) {
	s.writer.metrics = metrics
}

// SetIdempotencyStore enables AdjustOnce
func (s *AdjustmentService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// Adjust consumes delta units from a batch. The stock check happens at commit
// time, so a batch emptied since selection yields INSUFFICIENT_STOCK.
// Reaching zero moves an AVAILABLE batch to EXHAUSTED.
func (s *AdjustmentService) Adjust(ctx context.Context, id uuid.UUID, delta int) (*inventory.Batch, error) {
	if delta <= 0 {
		return nil, inventory.ErrInvalidAdjustment
	}

	batch, err := s.writer.mutate(ctx, id, "adjust", func(b *inventory.Batch) error {
		return b.Consume(delta)
	})
	if err != nil {
		s.writer.metrics.RecordAdjustment(ctx, telemetry.ResultRejected, delta)
		return nil, err
	}
	s.writer.metrics.RecordAdjustment(ctx, telemetry.ResultApplied, delta)

	logger.L(ctx, s.logger).Info("batch stock adjusted",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("delta", -delta),
		zap.Int("available_qty", batch.AvailableQty),
		zap.String("state", batch.State.String()),
	)
	return batch, nil
}

// AdjustOnce is Adjust guarded by a caller-supplied request key. A key that was
// already applied yields DUPLICATE_REQUEST without touching the batch. A failed
// adjustment releases the key so the caller may retry.
func (s *AdjustmentService) AdjustOnce(ctx context.Context, key string, id uuid.UUID, delta int) (*inventory.Batch, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Idempotency key cannot be empty")
	}
	if s.idempotency == nil {
		return nil, fmt.Errorf("adjust once: no idempotency store configured")
	}

	storeKey := idempotencyKeyPrefix + key
	fresh, err := s.idempotency.MarkProcessed(ctx, storeKey, s.opts.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("adjust once: %w", err)
	}
	if !fresh {
		s.writer.metrics.RecordAdjustment(ctx, telemetry.ResultReplayed, delta)
		logger.L(ctx, s.logger).Info("duplicate adjustment request ignored",
			zap.String("idempotency_key", key),
			zap.String("batch_id", id.String()),
		)
		return nil, inventory.ErrDuplicateRequest
	}

	batch, err := s.Adjust(ctx, id, delta)
	if err != nil {
		if ferr := s.idempotency.Forget(context.WithoutCancel(ctx), storeKey); ferr != nil {
			logger.L(ctx, s.logger).Warn("failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(ferr),
			)
		}
		return nil, err
	}
	return batch, nil
}

// SetAvailableQty overwrites the available quantity for audits.
// The state is never changed by this operation.
func (s *AdjustmentService) SetAvailableQty(ctx context.Context, id uuid.UUID, qty int) (*inventory.Batch, error) {
	if qty < 0 {
		return nil, shared.NewDomainError(inventory.CodeInvalidQuantity, "Available quantity cannot be negative")
	}

	batch, err := s.writer.mutate(ctx, id, "set_available_qty", func(b *inventory.Batch) error {
		return b.SetAvailableQty(qty)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("batch available quantity set",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("available_qty", batch.AvailableQty),
	)
	return batch, nil
}
