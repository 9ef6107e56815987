package batch

import (
	"context"
	"testing"
	"time"

	"github.com/erp/perishables/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBatch(productID uuid.UUID, code string, qty int, produced, expires time.Time) strategy.Batch {
	return strategy.Batch{
		ID:           uuid.New(),
		ProductID:    productID,
		Code:         code,
		AvailableQty: qty,
		ProducedOn:   produced,
		ExpiresOn:    expires,
		Allocatable:  true,
	}
}

func TestFEFOBatchStrategy_SelectBatch(t *testing.T) {
	s := NewFEFOBatchStrategy()
	ctx := context.Background()
	productID := uuid.New()
	today := day(2024, time.February, 1)

	late := newBatch(productID, "B1", 100, day(2024, time.January, 1), day(2024, time.June, 1))
	early := newBatch(productID, "B2", 50, day(2024, time.January, 15), day(2024, time.March, 1))
	batches := []strategy.Batch{late, early}

	t.Run("selects earliest expiring batch", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 30, Date: today}, batches)
		require.NoError(t, err)
		require.NotNil(t, result.Selected)
		assert.Equal(t, early.ID, result.Selected.BatchID)
		assert.Equal(t, "B2", result.Selected.Code)
		assert.Equal(t, 2, result.EligibleCount)
		assert.Equal(t, 100, result.LargestAvailable)
	})

	t.Run("skips earlier batch that cannot cover the whole request", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 60, Date: today}, batches)
		require.NoError(t, err)
		require.NotNil(t, result.Selected)
		assert.Equal(t, late.ID, result.Selected.BatchID)
	})

	t.Run("exact quantity is selectable", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 50, Date: today}, batches)
		require.NoError(t, err)
		require.NotNil(t, result.Selected)
		assert.Equal(t, early.ID, result.Selected.BatchID)
	})

	t.Run("does not split across batches", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 120, Date: today}, batches)
		require.NoError(t, err)
		assert.Nil(t, result.Selected)
		assert.Equal(t, 2, result.EligibleCount)
		assert.Equal(t, 100, result.LargestAvailable)
	})

	t.Run("excludes batch expiring today", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 10, Date: day(2024, time.March, 1)}, batches)
		require.NoError(t, err)
		require.NotNil(t, result.Selected)
		assert.Equal(t, late.ID, result.Selected.BatchID)
		assert.Equal(t, 1, result.EligibleCount)
	})

	t.Run("excludes non allocatable batches and other products", func(t *testing.T) {
		blocked := early
		blocked.Allocatable = false
		other := newBatch(uuid.New(), "X1", 500, day(2024, time.January, 1), day(2024, time.February, 10))
		empty := newBatch(productID, "B3", 0, day(2024, time.January, 1), day(2024, time.February, 5))

		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 10, Date: today},
			[]strategy.Batch{blocked, other, empty, late})
		require.NoError(t, err)
		require.NotNil(t, result.Selected)
		assert.Equal(t, late.ID, result.Selected.BatchID)
		assert.Equal(t, 1, result.EligibleCount)
	})

	t.Run("no eligible batches", func(t *testing.T) {
		result, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: uuid.New(), Quantity: 1, Date: today}, batches)
		require.NoError(t, err)
		assert.Nil(t, result.Selected)
		assert.Equal(t, 0, result.EligibleCount)
	})

	t.Run("ties on expiration break by id", func(t *testing.T) {
		a := newBatch(productID, "T1", 10, day(2024, time.January, 1), day(2024, time.April, 1))
		b := newBatch(productID, "T2", 10, day(2024, time.January, 1), day(2024, time.April, 1))
		want := a
		if b.ID.String() < a.ID.String() {
			want = b
		}

		for i := 0; i < 5; i++ {
			r1, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 5, Date: today}, []strategy.Batch{a, b})
			require.NoError(t, err)
			r2, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 5, Date: today}, []strategy.Batch{b, a})
			require.NoError(t, err)
			assert.Equal(t, want.ID, r1.Selected.BatchID)
			assert.Equal(t, want.ID, r2.Selected.BatchID)
		}
	})

	t.Run("does not reorder the caller's slice", func(t *testing.T) {
		input := []strategy.Batch{late, early}
		_, err := s.SelectBatch(ctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 1, Date: today}, input)
		require.NoError(t, err)
		assert.Equal(t, late.ID, input[0].ID)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.SelectBatch(cctx, strategy.BatchSelectionContext{ProductID: productID, Quantity: 1, Date: today}, batches)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFEFOBatchStrategy_Metadata(t *testing.T) {
	s := NewFEFOBatchStrategy()
	assert.Equal(t, "fefo", s.Name())
	assert.Contains(t, s.Description(), "First Expired First Out")
	assert.True(t, s.ConsidersExpiry())
}
