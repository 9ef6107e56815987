package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const dbStartKey = "db_metrics:start"

// DBMetrics is a GORM plugin counting statements, their latency and the
// connection pool state
type DBMetrics struct {
	meter         metric.Meter
	queries       *Counter
	errors        *Counter
	slowQueries   *Counter
	duration      *Histogram
	slowThreshold time.Duration
}

// NewDBMetrics creates the database instruments on meter
func NewDBMetrics(meter metric.Meter, slowThreshold time.Duration) (*DBMetrics, error) {
	queries, err := NewCounter(meter, "db_query_total", "SQL statements executed", "{query}")
	if err != nil {
		return nil, err
	}
	errs, err := NewCounter(meter, "db_query_errors_total", "SQL statements that failed", "{query}")
	if err != nil {
		return nil, err
	}
	slow, err := NewCounter(meter, "db_slow_query_total", "SQL statements slower than the slow query threshold", "{query}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "SQL statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &DBMetrics{
		meter:         meter,
		queries:       queries,
		errors:        errs,
		slowQueries:   slow,
		duration:      duration,
		slowThreshold: slowThreshold,
	}, nil
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "perishables:db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(dbStartKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { m.record(tx, op) }
	}

	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("db_metrics:before_create", before),
		cb.Query().Before("gorm:query").Register("db_metrics:before_query", before),
		cb.Update().Before("gorm:update").Register("db_metrics:before_update", before),
		cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", before),
		cb.Row().Before("gorm:row").Register("db_metrics:before_row", before),
		cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", before),

		cb.Create().After("gorm:create").Register("db_metrics:after_create", after("create")),
		cb.Query().After("gorm:query").Register("db_metrics:after_query", after("query")),
		cb.Update().After("gorm:update").Register("db_metrics:after_update", after("update")),
		cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", after("delete")),
		cb.Row().After("gorm:row").Register("db_metrics:after_row", after("row")),
		cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", after("raw")),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}

	return m.observePool(db)
}

func (m *DBMetrics) record(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := []attribute.KeyValue{AttrOperation.String(op), AttrDBTable.String(tx.Statement.Table)}

	m.queries.Inc(ctx, attrs...)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		m.errors.Inc(ctx, attrs...)
	}

	v, ok := tx.InstanceGet(dbStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	m.duration.RecordDuration(ctx, elapsed, attrs...)
	if elapsed > m.slowThreshold {
		m.slowQueries.Inc(ctx, attrs...)
	}
}

// observePool reports sql.DB pool statistics on every collection
func (m *DBMetrics) observePool(db *gorm.DB) error {
	conns, err := m.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	waits, err := m.meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return err
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		sqlDB, err := db.DB()
		if err != nil {
			return nil
		}
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max_open")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, waits)
	return err
}
