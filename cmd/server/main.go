package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	inventoryapp "github.com/erp/perishables/internal/application/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/cache"
	"github.com/erp/perishables/internal/infrastructure/config"
	"github.com/erp/perishables/internal/infrastructure/event"
	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/persistence"
	"github.com/erp/perishables/internal/infrastructure/strategy"
	"github.com/erp/perishables/internal/interfaces/http/handler"
	"github.com/erp/perishables/internal/interfaces/http/middleware"
	"github.com/erp/perishables/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Version is overridden at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.ConfigFor(cfg.IsProduction(), cfg.Log.Level, cfg.Log.Format, cfg.Log.Output))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", Version),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry (no-op unless [telemetry] enabled = true)
	obs, err := setupTelemetry(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer obs.shutdown(log)
	log = obs.logger(log, cfg.Log.Level)

	// Initialize database
	dbPlugins, err := obs.dbPlugins(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database telemetry", zap.Error(err))
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level), dbPlugins...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Idempotency store for keyed stock adjustments and event handlers
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	idempotencyStore, err := storeFactory.CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	dedup := registerEventHandlers(eventBus, idempotencyStore, cfg, log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Failed to stop event bus", zap.Error(err))
		}
		for scope, h := range dedup {
			stats := h.Stats()
			log.Info("Event handler totals",
				zap.String("handler", scope),
				zap.Int64("processed", stats.EventsProcessed),
				zap.Int64("duplicate", stats.EventsDuplicate),
				zap.Int64("failed", stats.EventsFailed),
			)
		}
	}()

	// Initialize repositories
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	productCatalog := persistence.NewGormProductCatalog(db.DB)

	// Initialize strategies
	strategies, err := strategy.NewRegistryWithDefaults(cfg.Inventory.BatchStrategy)
	if err != nil {
		log.Fatal("Failed to initialize batch strategies", zap.Error(err))
	}

	// Initialize application services
	opts := inventoryapp.Options{
		NearExpiryDays:       cfg.Inventory.NearExpiryDays,
		AdjustMaxRetries:     cfg.Inventory.AdjustMaxRetries,
		AdjustInitialBackoff: cfg.Inventory.AdjustInitialBackoff,
		AdjustMaxBackoff:     cfg.Inventory.AdjustMaxBackoff,
		IdempotencyTTL:       cfg.Inventory.IdempotencyTTL,
		Clock:                shared.SystemClock{},
	}

	batchService := inventoryapp.NewBatchService(batchRepo, productCatalog, opts)
	batchService.SetEventPublisher(eventBus)
	batchService.SetLogger(log)
	batchService.SetMetrics(obs.batches)

	adjustmentService := inventoryapp.NewAdjustmentService(batchRepo, opts)
	adjustmentService.SetEventPublisher(eventBus)
	adjustmentService.SetLogger(log)
	adjustmentService.SetMetrics(obs.batches)
	adjustmentService.SetIdempotencyStore(idempotencyStore)

	allocationService, err := inventoryapp.NewAllocationServiceFromProvider(
		batchRepo, productCatalog, strategies, cfg.Inventory.BatchStrategy, opts,
	)
	if err != nil {
		log.Fatal("Failed to initialize allocation service", zap.Error(err))
	}
	allocationService.SetLogger(log)
	allocationService.SetMetrics(obs.batches)
	log.Info("Batch selection strategy",
		zap.String("strategy", allocationService.StrategyName()),
		zap.Any("available", strategies.Describe()),
	)

	reportService := inventoryapp.NewReportService(batchRepo, productCatalog, opts)
	reportService.SetMetrics(obs.batches)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version, db)
	if pinger, ok := idempotencyStore.(handler.Pinger); ok {
		systemHandler.WithCache(pinger)
	}

	// Initialize handlers
	handlers := router.Handlers{
		Batch: handler.NewBatchHandler(batchService),
		Stock: handler.NewStockHandler(adjustmentService, allocationService),
		Report: handler.NewReportHandler(reportService, handler.ReportDefaults{
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
			ExpiryWindowDays:  cfg.Inventory.NearExpiryDays,
		}),
		System: systemHandler,
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request ID, tracing, recovery, access log, security headers, CORS, body limit
	engine.Use(logger.RequestID())
	if obs.tracer.IsEnabled() {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, otel.GetTracerProvider())...)
	}
	if cfg.Telemetry.Enabled {
		httpMetrics, err := middleware.HTTPMetrics(obs.meter.Meter(meterName))
		if err != nil {
			log.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
		}
		engine.Use(httpMetrics)
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	router.RegisterInventory(r, handlers).Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// registerEventHandlers subscribes the batch alert and audit handlers.
// Both are wrapped so a redelivered event is handled once; the wrappers are
// returned by scope so their totals can be reported at shutdown.
func registerEventHandlers(bus *event.InMemoryEventBus, store shared.IdempotencyStore, cfg *config.Config, log *zap.Logger) map[string]*event.IdempotentHandler {
	idempotency := shared.IdempotencyConfig{
		TTL:     cfg.Inventory.IdempotencyTTL,
		Enabled: true,
	}

	alerts := inventoryapp.NewBatchAlertHandler(log, cfg.Inventory.LowStockThreshold).
		WithNotifier(inventoryapp.NewLoggingBatchAlertNotifier(log))
	serializer := event.NewBatchEventSerializer()
	audit := event.NewAuditLogHandler(serializer, log)

	wrapped := map[string]*event.IdempotentHandler{
		"alerts": event.NewIdempotentHandler(alerts, store, idempotency, log).WithScope("alerts"),
		"audit":  event.NewIdempotentHandler(audit, store, idempotency, log).WithScope("audit"),
	}
	bus.Subscribe(wrapped["alerts"], alerts.EventTypes()...)
	bus.Subscribe(wrapped["audit"], audit.EventTypes()...)

	log.Info("Event handlers registered",
		zap.Strings("alert_events", alerts.EventTypes()),
		zap.Strings("audited_events", serializer.RegisteredTypes()),
	)
	return wrapped
}
