package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReports builds two products with a mix of batch states
func seedReports(t *testing.T) (*testEnv, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	env := newTestEnv(day(2024, time.February, 1))
	yogurt := env.catalog.add("Yogurt")
	cheese := env.catalog.add("Cheese")

	createReceived(t, env, yogurt, "Y-2", "2024-01-20", "2024-02-20", 4)
	createReceived(t, env, yogurt, "Y-1", "2024-01-10", "2024-02-05", 3)
	createReceived(t, env, cheese, "C-1", "2024-01-05", "2024-06-01", 40)
	held := createReceived(t, env, cheese, "C-2", "2024-01-06", "2024-02-10", 10)
	_, err := env.batches.Block(ctx, held.ID, "hold")
	require.NoError(t, err)
	return env, yogurt, cheese
}

func TestReportService_SummarizeByProduct(t *testing.T) {
	env, yogurt, cheese := seedReports(t)
	before := env.catalog.batchCalls.Load()
	namesBefore := env.catalog.nameCalls.Load()

	summaries, err := env.reports.SummarizeByProduct(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "Cheese", summaries[0].ProductName)
	assert.Equal(t, cheese, summaries[0].ProductID)
	assert.Equal(t, 50, summaries[0].TotalAvailableQty)
	assert.Equal(t, 2, summaries[0].BatchCount)
	assert.Equal(t, "2024-02-10", summaries[0].NearestExpiration)

	assert.Equal(t, "Yogurt", summaries[1].ProductName)
	assert.Equal(t, yogurt, summaries[1].ProductID)
	assert.Equal(t, 7, summaries[1].TotalAvailableQty)
	assert.Equal(t, "2024-02-05", summaries[1].NearestExpiration)

	assert.Equal(t, int64(1), env.catalog.batchCalls.Load()-before)
	assert.Equal(t, namesBefore, env.catalog.nameCalls.Load())
}

func TestReportService_SummarizeByProduct_UnknownProduct(t *testing.T) {
	env, yogurt, _ := seedReports(t)
	env.catalog.mu.Lock()
	delete(env.catalog.products, yogurt)
	env.catalog.mu.Unlock()

	summaries, err := env.reports.SummarizeByProduct(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, UnknownProductName, summaries[1].ProductName)
}

func TestReportService_StockByBatch(t *testing.T) {
	env, yogurt, _ := seedReports(t)
	ctx := context.Background()

	rows, err := env.reports.StockByBatch(ctx, yogurt)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, BatchStockRow{Code: "Y-2", AvailableQty: 4, ExpiresOn: "2024-02-20", State: "AVAILABLE"}, rows[0])

	_, err = env.reports.StockByBatch(ctx, uuid.New())
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestReportService_LowStock(t *testing.T) {
	env, yogurt, _ := seedReports(t)
	ctx := context.Background()

	alerts, err := env.reports.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, yogurt, alerts[0].ProductID)
	assert.Equal(t, 7, alerts[0].TotalAvailableQty)
	assert.Equal(t, 10, alerts[0].Threshold)

	alerts, err = env.reports.LowStock(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = env.reports.LowStock(ctx, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestReportService_ExpiringWithin(t *testing.T) {
	env, _, _ := seedReports(t)
	ctx := context.Background()

	alerts, err := env.reports.ExpiringWithin(ctx, 30)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Y-1", alerts[0].Code)
	assert.Equal(t, 4, alerts[0].DaysToExpire)
	assert.Equal(t, "Yogurt", alerts[0].ProductName)
	assert.Equal(t, "Y-2", alerts[1].Code)

	t.Run("window is exclusive", func(t *testing.T) {
		alerts, err := env.reports.ExpiringWithin(ctx, 4)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("negative days", func(t *testing.T) {
		_, err := env.reports.ExpiringWithin(ctx, -1)
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	})
}

func TestReportService_AvailableStock(t *testing.T) {
	env, _, cheese := seedReports(t)

	resp, err := env.reports.AvailableStock(context.Background(), cheese)
	require.NoError(t, err)
	assert.Equal(t, 40, resp.AvailableQty)
	assert.Equal(t, 1, resp.BatchCount)
}

func TestReportService_Dashboard(t *testing.T) {
	env, _, _ := seedReports(t)

	report, err := env.reports.Dashboard(context.Background(), 0, 30)
	require.NoError(t, err)
	assert.Len(t, report.Summaries, 2)
	assert.Len(t, report.LowStock, 1)
	assert.Len(t, report.Expiring, 2)

	_, err = env.reports.Dashboard(context.Background(), 10, -1)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}
