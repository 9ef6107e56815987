package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBatchService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("derives fields from today", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")

		resp, err := env.batches.Create(ctx, CreateBatchRequest{
			Code: " L-001 ", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-02-21", ProducedQty: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, "L-001", resp.Code)
		assert.Equal(t, 20, resp.DaysToExpire)
		assert.True(t, resp.NearExpiry)
		assert.False(t, resp.IsExpired)
		assert.Equal(t, 10, resp.SoldQty)
		assert.Equal(t, 1, resp.Version)
		assert.Equal(t, []string{inventory.EventTypeBatchCreated}, env.publisher.types())
	})

	t.Run("duplicate code", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		req := CreateBatchRequest{Code: "DUP", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-03-20", ProducedQty: 10}

		_, err := env.batches.Create(ctx, req)
		require.NoError(t, err)
		_, err = env.batches.Create(ctx, req)
		assert.ErrorIs(t, err, inventory.ErrDuplicateCode)
	})

	t.Run("unknown product", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		_, err := env.batches.Create(ctx, CreateBatchRequest{
			Code: "X", ProductID: uuid.New(), ProducedOn: "2024-01-20", ExpiresOn: "2024-03-20", ProducedQty: 10,
		})
		assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")

		tests := []struct {
			name string
			req  CreateBatchRequest
			want error
		}{
			{
				name: "malformed date",
				req:  CreateBatchRequest{Code: "A", ProductID: productID, ProducedOn: "20-01-2024", ExpiresOn: "2024-03-20", ProducedQty: 1},
				want: shared.ErrInvalidInput,
			},
			{
				name: "zero quantity",
				req:  CreateBatchRequest{Code: "B", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-03-20", ProducedQty: 0},
				want: inventory.ErrInvalidQuantity,
			},
			{
				name: "expires before produced",
				req:  CreateBatchRequest{Code: "C", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-01-19", ProducedQty: 1},
				want: inventory.ErrInvalidDateRange,
			},
			{
				name: "produced in the future",
				req:  CreateBatchRequest{Code: "D", ProductID: productID, ProducedOn: "2024-02-02", ExpiresOn: "2024-03-20", ProducedQty: 1},
				want: shared.ErrInvalidInput,
			},
			{
				name: "blank code",
				req:  CreateBatchRequest{Code: "  ", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-03-20", ProducedQty: 1},
				want: shared.ErrInvalidInput,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.batches.Create(ctx, tt.req)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestBatchService_Get(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(day(2024, time.February, 1))
	productID := env.catalog.add("Queso")
	created := createReceived(t, env, productID, "GET-1", "2024-01-20", "2024-03-20", 10)

	t.Run("by code", func(t *testing.T) {
		got, err := env.batches.GetByCode(ctx, "GET-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := env.batches.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := env.batches.GetByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
	})

	t.Run("product removed from catalog shows placeholder name", func(t *testing.T) {
		env.catalog.mu.Lock()
		delete(env.catalog.products, productID)
		env.catalog.mu.Unlock()

		got, err := env.batches.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, UnknownProductName, got.ProductName)
	})
}

func TestBatchService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("empty request is a no-op", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "UPD-1", "2024-01-20", "2024-03-20", 10)

		got, err := env.batches.Update(ctx, created.ID, UpdateBatchRequest{})
		require.NoError(t, err)
		assert.Equal(t, created.Version, got.Version)
	})

	t.Run("partial correction keeps other fields", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "UPD-2", "2024-01-20", "2024-03-20", 10)

		got, err := env.batches.Update(ctx, created.ID, UpdateBatchRequest{
			ExpiresOn: ptr("2024-04-01"),
			Reason:    "label misprint",
		})
		require.NoError(t, err)
		assert.Equal(t, "2024-04-01", got.ExpiresOn)
		assert.Equal(t, "2024-01-20", got.ProducedOn)
		assert.Equal(t, 10, got.AvailableQty)
		assert.Contains(t, got.Notes, "CORRECTION: label misprint")
		assert.Equal(t, created.Version+1, got.Version)
	})

	t.Run("available above produced is rejected", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "UPD-3", "2024-01-20", "2024-03-20", 10)

		_, err := env.batches.Update(ctx, created.ID, UpdateBatchRequest{ProducedQty: ptr(5)})
		assert.ErrorIs(t, err, inventory.ErrInconsistentQuantities)
		assert.Equal(t, 10, env.repo.stored(created.ID).ProducedQty)
	})

	t.Run("code taken by another batch", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		createReceived(t, env, productID, "UPD-4", "2024-01-20", "2024-03-20", 10)
		other := createReceived(t, env, productID, "UPD-5", "2024-01-20", "2024-03-20", 10)

		_, err := env.batches.Update(ctx, other.ID, UpdateBatchRequest{Code: ptr("UPD-4")})
		assert.ErrorIs(t, err, inventory.ErrDuplicateCode)

		got, err := env.batches.Update(ctx, other.ID, UpdateBatchRequest{Code: ptr("UPD-5")})
		require.NoError(t, err)
		assert.Equal(t, "UPD-5", got.Code)
	})

	t.Run("moving to an unknown product", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "UPD-6", "2024-01-20", "2024-03-20", 10)

		_, err := env.batches.Update(ctx, created.ID, UpdateBatchRequest{ProductID: ptr(uuid.New())})
		assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	})

	t.Run("missing batch", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		_, err := env.batches.Update(ctx, uuid.New(), UpdateBatchRequest{Notes: ptr("x")})
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
	})
}

func TestBatchService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh batch counts its unreceived stock as sold", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created, err := env.batches.Create(ctx, CreateBatchRequest{
			Code: "DEL-1", ProductID: productID, ProducedOn: "2024-01-20", ExpiresOn: "2024-03-20", ProducedQty: 10,
		})
		require.NoError(t, err)

		// A fresh batch has no available stock, so it reads as fully sold until received
		err = env.batches.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrBatchHasSales)
	})

	t.Run("available batch must be blocked first", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "DEL-2", "2024-01-20", "2024-03-20", 10)

		err := env.batches.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrBatchCurrentlyAvailable)

		_, err = env.batches.Block(ctx, created.ID, "recall")
		require.NoError(t, err)
		require.NoError(t, env.batches.Delete(ctx, created.ID))

		_, err = env.batches.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
		assert.Contains(t, env.publisher.types(), inventory.EventTypeBatchDeleted)
	})

	t.Run("missing batch", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		err := env.batches.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
	})

	t.Run("unblock between read and delete keeps the stock", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "DEL-3", "2024-01-20", "2024-03-20", 20)
		_, err := env.batches.Block(ctx, created.ID, "label check")
		require.NoError(t, err)

		env.repo.afterNextFind(func(id uuid.UUID) {
			_, err := env.batches.Unblock(ctx, id)
			require.NoError(t, err)
		})

		err = env.batches.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrBatchCurrentlyAvailable)

		require.True(t, env.repo.exists(created.ID))
		stored := env.repo.stored(created.ID)
		assert.Equal(t, inventory.BatchStateAvailable, stored.State)
		assert.Equal(t, 20, stored.AvailableQty)
		assert.NotContains(t, env.publisher.types(), inventory.EventTypeBatchDeleted)
	})

	t.Run("unrelated write between read and delete is retried", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "DEL-4", "2024-01-20", "2024-03-20", 20)
		_, err := env.batches.Block(ctx, created.ID, "label check")
		require.NoError(t, err)

		env.repo.afterNextFind(func(id uuid.UUID) {
			_, err := env.batches.Update(ctx, id, UpdateBatchRequest{Notes: ptr("relabelled")})
			require.NoError(t, err)
		})

		require.NoError(t, env.batches.Delete(ctx, created.ID))
		assert.False(t, env.repo.exists(created.ID))
		assert.Contains(t, env.publisher.types(), inventory.EventTypeBatchDeleted)
	})
}

func TestBatchService_BlockUnblock(t *testing.T) {
	ctx := context.Background()

	t.Run("block requires a reason", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-1", "2024-01-20", "2024-03-20", 10)

		_, err := env.batches.Block(ctx, created.ID, "  ")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("block twice", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-2", "2024-01-20", "2024-03-20", 10)

		_, err := env.batches.Block(ctx, created.ID, "first")
		require.NoError(t, err)
		_, err = env.batches.Block(ctx, created.ID, "second")
		assert.ErrorIs(t, err, inventory.ErrAlreadyBlocked)
	})

	t.Run("exhausted batch cannot be blocked", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-3", "2024-01-20", "2024-03-20", 3)
		_, err := env.adjustment.Adjust(ctx, created.ID, 3)
		require.NoError(t, err)

		_, err = env.batches.Block(ctx, created.ID, "late recall")
		assert.ErrorIs(t, err, inventory.ErrCannotBlockExhausted)
	})

	t.Run("unblock a batch that is not blocked", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-4", "2024-01-20", "2024-03-20", 3)

		_, err := env.batches.Unblock(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrNotBlocked)
	})

	t.Run("unblock without stock exhausts", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-5", "2024-01-20", "2024-03-20", 3)
		_, err := env.adjustment.SetAvailableQty(ctx, created.ID, 0)
		require.NoError(t, err)
		_, err = env.batches.Block(ctx, created.ID, "count")
		require.NoError(t, err)

		got, err := env.batches.Unblock(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "EXHAUSTED", got.State)
	})

	t.Run("receive an expired batch", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created, err := env.batches.Create(ctx, CreateBatchRequest{
			Code: "BLK-6", ProductID: productID, ProducedOn: "2024-01-01", ExpiresOn: "2024-01-15", ProducedQty: 3,
		})
		require.NoError(t, err)

		_, err = env.batches.ReceiveIntoWarehouse(ctx, created.ID)
		assert.ErrorIs(t, err, inventory.ErrBatchExpired)
	})

	t.Run("receive twice", func(t *testing.T) {
		env := newTestEnv(day(2024, time.February, 1))
		productID := env.catalog.add("Queso")
		created := createReceived(t, env, productID, "BLK-7", "2024-01-20", "2024-03-20", 3)

		_, err := env.batches.ReceiveIntoWarehouse(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestBatchService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(day(2024, time.February, 1))
	cheese := env.catalog.add("Queso")
	milk := env.catalog.add("Leche")

	createReceived(t, env, cheese, "LST-1", "2024-01-20", "2024-03-20", 10)
	createReceived(t, env, cheese, "LST-2", "2024-01-21", "2024-03-21", 10)
	blocked := createReceived(t, env, milk, "LST-3", "2024-01-22", "2024-03-22", 10)
	_, err := env.batches.Block(ctx, blocked.ID, "hold")
	require.NoError(t, err)

	t.Run("pages with total", func(t *testing.T) {
		page, total, err := env.batches.List(ctx, BatchListFilter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, page, 2)
	})

	t.Run("by product", func(t *testing.T) {
		page, total, err := env.batches.List(ctx, BatchListFilter{ProductID: &cheese})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, b := range page {
			assert.Equal(t, "Queso", b.ProductName)
		}
	})

	t.Run("by state", func(t *testing.T) {
		page, _, err := env.batches.List(ctx, BatchListFilter{State: "blocked"})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "LST-3", page[0].Code)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, _, err := env.batches.List(ctx, BatchListFilter{State: "LOST"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("list helpers", func(t *testing.T) {
		byProduct, err := env.batches.ListByProduct(ctx, milk)
		require.NoError(t, err)
		assert.Len(t, byProduct, 1)

		_, err = env.batches.ListByProduct(ctx, uuid.New())
		assert.ErrorIs(t, err, inventory.ErrProductNotFound)

		available, err := env.batches.ListAvailable(ctx)
		require.NoError(t, err)
		assert.Len(t, available, 2)

		blockedList, err := env.batches.ListByState(ctx, "BLOCKED")
		require.NoError(t, err)
		assert.Len(t, blockedList, 1)
	})
}
