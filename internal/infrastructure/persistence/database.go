package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/perishables/internal/infrastructure/config"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database owns the GORM handle and its connection pool
type Database struct {
	DB *gorm.DB
}

// NewDatabaseWithLogger connects to PostgreSQL and logs SQL through zap,
// flagging statements slower than cfg.SlowQueryThresholdMs
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel gormlogger.LogLevel, plugins ...gorm.Plugin) (*Database, error) {
	gl := logger.NewGormLogger(zapLogger, logLevel,
		logger.WithSlowThreshold(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond),
	)
	return Open(postgres.Open(cfg.DSN()), cfg, gl, plugins...)
}

// Open connects through any GORM dialector, applies the pool limits of cfg
// and verifies the connection. Unique violations are translated to
// gorm.ErrDuplicatedKey so repositories can map them to DUPLICATE_CODE.
// Nil plugins are skipped, so disabled telemetry plugins can be passed as is.
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, gl gormlogger.Interface, plugins ...gorm.Plugin) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, p := range plugins {
		if p == nil {
			continue
		}
		if err := db.Use(p); err != nil {
			return nil, fmt.Errorf("failed to register gorm plugin %s: %w", p.Name(), err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks that the database answers within the deadline of ctx
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
