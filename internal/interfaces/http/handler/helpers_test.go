package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	inventoryapp "github.com/erp/perishables/internal/application/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/cache"
	"github.com/erp/perishables/internal/infrastructure/config"
	"github.com/erp/perishables/internal/infrastructure/persistence"
	"github.com/erp/perishables/internal/infrastructure/persistence/models"
	batchstrategy "github.com/erp/perishables/internal/infrastructure/strategy/batch"
	"github.com/erp/perishables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var handlerToday = time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC)

// testServer wires the real services over an in-memory SQLite database
type testServer struct {
	engine  *gin.Engine
	catalog *persistence.GormProductCatalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := persistence.Open(sqlite.Open(dsn), &config.DatabaseConfig{MaxOpenConns: 1}, gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	db := database.DB
	require.NoError(t, db.AutoMigrate(&models.ProductModel{}, &models.BatchModel{}))

	repo := persistence.NewGormBatchRepository(db)
	catalog := persistence.NewGormProductCatalog(db)
	opts := inventoryapp.Options{
		NearExpiryDays:       60,
		AdjustMaxRetries:     3,
		AdjustInitialBackoff: time.Millisecond,
		AdjustMaxBackoff:     2 * time.Millisecond,
		IdempotencyTTL:       time.Hour,
		Clock:                shared.FixedClock{At: handlerToday},
	}

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	adjustment := inventoryapp.NewAdjustmentService(repo, opts)
	adjustment.SetIdempotencyStore(store)

	batchHandler := NewBatchHandler(inventoryapp.NewBatchService(repo, catalog, opts))
	stockHandler := NewStockHandler(adjustment,
		inventoryapp.NewAllocationService(repo, catalog, batchstrategy.NewFEFOBatchStrategy(), opts))
	reportHandler := NewReportHandler(inventoryapp.NewReportService(repo, catalog, opts),
		ReportDefaults{LowStockThreshold: 10, ExpiryWindowDays: 30})

	engine := gin.New()
	api := engine.Group("/api/v1")
	batches := api.Group("/batches")
	batches.POST("", batchHandler.Create)
	batches.GET("", batchHandler.List)
	batches.GET("/available", batchHandler.ListAvailable)
	batches.GET("/code/:code", batchHandler.GetByCode)
	batches.GET("/product/:product_id", batchHandler.ListByProduct)
	batches.GET("/state/:state", batchHandler.ListByState)
	batches.POST("/select", stockHandler.SelectBatch)
	batches.GET("/:id", batchHandler.GetByID)
	batches.PUT("/:id", batchHandler.Update)
	batches.DELETE("/:id", batchHandler.Delete)
	batches.POST("/:id/receive", batchHandler.Receive)
	batches.POST("/:id/block", batchHandler.Block)
	batches.POST("/:id/unblock", batchHandler.Unblock)
	batches.POST("/:id/adjust", stockHandler.Adjust)
	batches.PUT("/:id/available-qty", stockHandler.SetAvailableQty)

	reports := api.Group("/inventory/reports")
	reports.GET("/summary", reportHandler.Summary)
	reports.GET("/low-stock", reportHandler.LowStock)
	reports.GET("/expiring", reportHandler.Expiring)
	reports.GET("/dashboard", reportHandler.Dashboard)
	reports.GET("/products/:product_id/batches", reportHandler.StockByBatch)
	reports.GET("/products/:product_id/available", reportHandler.AvailableStock)

	return &testServer{engine: engine, catalog: catalog}
}

// addProduct registers a product in the catalog
func (s *testServer) addProduct(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.catalog.Create(context.Background(), id, name))
	return id
}

// do sends a request with an optional JSON body and extra headers
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// createBatch registers a batch through the API and returns it
func (s *testServer) createBatch(t *testing.T, code string, productID uuid.UUID, producedOn, expiresOn string, qty int) inventoryapp.BatchResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/batches", inventoryapp.CreateBatchRequest{
		Code:        code,
		ProductID:   productID,
		ProducedOn:  producedOn,
		ExpiresOn:   expiresOn,
		ProducedQty: qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var batch inventoryapp.BatchResponse
	decodeData(t, w, &batch)
	return batch
}

// availableBatch registers a batch and receives it into the warehouse
func (s *testServer) availableBatch(t *testing.T, code string, productID uuid.UUID, expiresOn string, qty int) inventoryapp.BatchResponse {
	t.Helper()
	batch := s.createBatch(t, code, productID, "2024-01-25", expiresOn, qty)
	w := s.do(t, http.MethodPost, "/api/v1/batches/"+batch.ID.String()+"/receive", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &batch)
	return batch
}

// decodeData unmarshals the data field of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// decodeEnvelope unmarshals the whole success response into out
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// decodeError unmarshals an error response
func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp
}
