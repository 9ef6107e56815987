package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DBTracingConfig controls SQL spans
type DBTracingConfig struct {
	Enabled    bool
	DBName     string
	LogFullSQL bool // bound variables end up in span attributes
	Provider   trace.TracerProvider
}

// NewDBTracingPlugin returns an otelgorm plugin emitting one span per
// statement, or nil when SQL tracing is off
func NewDBTracingPlugin(cfg DBTracingConfig) gorm.Plugin {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.Provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.Provider))
	}
	return otelgorm.NewPlugin(opts...)
}
