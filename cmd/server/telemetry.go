package main

import (
	"context"
	"time"

	"github.com/erp/perishables/internal/infrastructure/config"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const meterName = "github.com/erp/perishables"

// observability bundles the telemetry providers started for one process
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	batches  *telemetry.BatchMetrics
}

// setupTelemetry starts every provider the [telemetry] section enables.
// With telemetry off all providers are no-ops and batches is nil.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*observability, error) {
	tc := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
	}

	o := &observability{}
	var err error
	if o.tracer, err = telemetry.NewTracerProvider(ctx, tc, log); err != nil {
		return nil, err
	}
	if o.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Config:         tc,
		ExportInterval: cfg.Telemetry.MetricsInterval,
	}, log); err != nil {
		return nil, err
	}
	if o.logs, err = telemetry.NewLoggerProvider(ctx, tc, cfg.Telemetry.LogsEnabled, log); err != nil {
		return nil, err
	}
	if o.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilerEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": Version},
	}, log); err != nil {
		return nil, err
	}
	if o.profiler.IsEnabled() {
		o.tracer.EnableSpanProfiles()
	}

	if cfg.Telemetry.Enabled {
		if o.batches, err = telemetry.NewBatchMetrics(o.meter.Meter(meterName)); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// logger tees log to the collector when log export is on
func (o *observability) logger(log *zap.Logger, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	return o.logs.Tee(log, "perishables", lvl)
}

// dbPlugins returns the GORM plugins for SQL spans and query metrics
func (o *observability) dbPlugins(cfg *config.Config) ([]gorm.Plugin, error) {
	if !cfg.Telemetry.Enabled {
		return nil, nil
	}

	plugins := []gorm.Plugin{}
	if tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.DBTraceEnabled,
		DBName:     cfg.Database.DBName,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}); tracing != nil {
		plugins = append(plugins, tracing)
	}

	dbMetrics, err := telemetry.NewDBMetrics(o.meter.Meter(meterName),
		time.Duration(cfg.Database.SlowQueryThresholdMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	return append(plugins, dbMetrics), nil
}

// shutdown flushes and stops every provider
func (o *observability) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := o.profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := o.meter.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down meter provider", zap.Error(err))
	}
	if err := o.logs.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down logger provider", zap.Error(err))
	}
}
