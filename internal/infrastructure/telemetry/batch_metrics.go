package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Adjustment outcomes
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultReplayed = "replayed"
	ResultSelected = "selected"
	ResultNoStock  = "no_stock"
)

// BatchMetrics holds the inventory instruments. A nil *BatchMetrics records
// nothing, so services work unchanged when telemetry is not configured.
type BatchMetrics struct {
	created          *Counter
	adjustments      *Counter
	adjustedUnits    *Counter
	writeConflicts   *Counter
	retriesExhausted *Counter
	allocations      *Counter
	lowStock         *Gauge
	expiring         *Gauge
}

// NewBatchMetrics creates the inventory instruments on meter
func NewBatchMetrics(meter metric.Meter) (*BatchMetrics, error) {
	m := &BatchMetrics{}
	var err error

	if m.created, err = NewCounter(meter, "batches_created_total", "Batches registered", "{batch}"); err != nil {
		return nil, err
	}
	if m.adjustments, err = NewCounter(meter, "batch_adjustments_total", "Stock adjustments by outcome", "{adjustment}"); err != nil {
		return nil, err
	}
	if m.adjustedUnits, err = NewCounter(meter, "batch_adjusted_units_total", "Absolute units moved by applied adjustments", "{unit}"); err != nil {
		return nil, err
	}
	if m.writeConflicts, err = NewCounter(meter, "batch_write_conflicts_total", "Optimistic version conflicts on batch writes", "{conflict}"); err != nil {
		return nil, err
	}
	if m.retriesExhausted, err = NewCounter(meter, "batch_write_retries_exhausted_total", "Batch writes abandoned after the retry budget", "{write}"); err != nil {
		return nil, err
	}
	if m.allocations, err = NewCounter(meter, "batch_allocations_total", "Batch selections by strategy and outcome", "{allocation}"); err != nil {
		return nil, err
	}
	if m.lowStock, err = NewGauge(meter, "inventory_low_stock_products", "Products below the low stock threshold at the last report", "{product}"); err != nil {
		return nil, err
	}
	if m.expiring, err = NewGauge(meter, "inventory_expiring_batches", "Batches expiring within the report window at the last report", "{batch}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordBatchCreated counts a registered batch
func (m *BatchMetrics) RecordBatchCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.created.Inc(ctx)
}

// RecordAdjustment counts an adjustment outcome and, when applied, the units moved
func (m *BatchMetrics) RecordAdjustment(ctx context.Context, result string, delta int) {
	if m == nil {
		return
	}
	m.adjustments.Inc(ctx, AttrResult.String(result))
	if result != ResultApplied {
		return
	}
	if delta < 0 {
		delta = -delta
	}
	m.adjustedUnits.Add(ctx, int64(delta))
}

// RecordWriteConflict counts a version conflict hit by op
func (m *BatchMetrics) RecordWriteConflict(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.writeConflicts.Inc(ctx, AttrOperation.String(op))
}

// RecordRetriesExhausted counts a write of op that gave up on conflicts
func (m *BatchMetrics) RecordRetriesExhausted(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.retriesExhausted.Inc(ctx, AttrOperation.String(op))
}

// RecordAllocation counts a batch selection
func (m *BatchMetrics) RecordAllocation(ctx context.Context, strategy, result string) {
	if m == nil {
		return
	}
	m.allocations.Inc(ctx, AttrStrategy.String(strategy), AttrResult.String(result))
}

// RecordLowStockCount publishes how many products are under the threshold
func (m *BatchMetrics) RecordLowStockCount(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.lowStock.Record(ctx, int64(count))
}

// RecordExpiringCount publishes how many batches are close to expiry
func (m *BatchMetrics) RecordExpiringCount(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.expiring.Record(ctx, int64(count))
}
