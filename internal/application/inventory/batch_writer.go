package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// batchWriter performs read-modify-write cycles on a single batch.
// Each cycle reads the batch, applies a domain mutation and writes it back with
// an optimistic version check. Version conflicts re-run the whole cycle with
// exponential backoff until the retry budget is spent.
type batchWriter struct {
	repo           inventory.BatchRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	metrics        *telemetry.BatchMetrics
	opts           Options
}

func newBatchWriter(repo inventory.BatchRepository, opts Options) *batchWriter {
	return &batchWriter{
		repo:   repo,
		logger: zap.NewNop(),
		opts:   opts,
	}
}

// load fetches a batch, translating a missing row into ErrBatchNotFound
func (w *batchWriter) load(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	b, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, batchNotFound(err, id)
	}
	return b, nil
}

// mutate runs fn against a fresh copy of the batch and persists the result
func (w *batchWriter) mutate(ctx context.Context, id uuid.UUID, op string, fn func(b *inventory.Batch) error) (*inventory.Batch, error) {
	var saved *inventory.Batch
	err := w.retry(ctx, id, op, func() error {
		b, err := w.load(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(b); err != nil {
			return backoff.Permanent(err)
		}
		if err := w.repo.SaveWithLock(ctx, b); err != nil {
			return w.classify(ctx, err, id, op)
		}
		saved = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.publish(ctx, saved)
	return saved, nil
}

// remove deletes the batch once check accepts a fresh copy of it. The delete
// only matches the version check saw, so a concurrent write re-runs the check.
func (w *batchWriter) remove(ctx context.Context, id uuid.UUID, check func(b *inventory.Batch) error) (*inventory.Batch, error) {
	var removed *inventory.Batch
	err := w.retry(ctx, id, "delete", func() error {
		b, err := w.load(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := check(b); err != nil {
			return backoff.Permanent(err)
		}
		if err := w.repo.DeleteWithLock(ctx, b.ID, b.Version); err != nil {
			return w.classify(ctx, err, id, "delete")
		}
		removed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// classify keeps version conflicts retryable and stops on anything else
func (w *batchWriter) classify(ctx context.Context, err error, id uuid.UUID, op string) error {
	if shared.IsRetryable(err) {
		w.metrics.RecordWriteConflict(ctx, op)
		return err
	}
	return backoff.Permanent(batchNotFound(err, id))
}

// retry runs cycle until it succeeds, fails permanently or the budget is spent
func (w *batchWriter) retry(ctx context.Context, id uuid.UUID, op string, cycle func() error) error {
	attempt := 0
	counted := func() error {
		attempt++
		return cycle()
	}

	notify := func(err error, wait time.Duration) {
		logger.L(ctx, w.logger).Warn("batch write conflict, retrying",
			zap.String("operation", op),
			zap.String("batch_id", id.String()),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
	}

	err := backoff.RetryNotify(counted, w.retryPolicy(ctx), notify)
	if err != nil && shared.IsRetryable(err) {
		w.metrics.RecordRetriesExhausted(ctx, op)
		logger.L(ctx, w.logger).Error("batch write retries exhausted",
			zap.String("operation", op),
			zap.String("batch_id", id.String()),
			zap.Int("attempts", attempt),
		)
	}
	return err
}

func (w *batchWriter) retryPolicy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = w.opts.AdjustInitialBackoff
	exp.MaxInterval = w.opts.AdjustMaxBackoff
	exp.MaxElapsedTime = 0

	retries := w.opts.AdjustMaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// publish sends and clears the pending domain events of b
func (w *batchWriter) publish(ctx context.Context, b *inventory.Batch) {
	events := b.PullDomainEvents()
	if w.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := w.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx, w.logger).Warn("failed to publish batch events",
			zap.String("batch_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

// batchNotFound maps a repository not-found into the batch-specific error
func batchNotFound(err error, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(inventory.CodeBatchNotFound, fmt.Sprintf("Batch %s not found", id))
	}
	return err
}

// productNotFound builds the product-specific not-found error
func productNotFound(id uuid.UUID) error {
	return shared.NewDomainError(inventory.CodeProductNotFound, fmt.Sprintf("Product %s not found", id))
}
