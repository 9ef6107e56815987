package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{inventory.CodeBatchNotFound, http.StatusNotFound},
		{inventory.CodeProductNotFound, http.StatusNotFound},
		{inventory.CodeDuplicateCode, http.StatusConflict},
		{inventory.CodeDuplicateRequest, http.StatusConflict},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{inventory.CodeInvalidDateRange, http.StatusBadRequest},
		{inventory.CodeInvalidQuantity, http.StatusBadRequest},
		{inventory.CodeInvalidAdjustment, http.StatusBadRequest},
		{inventory.CodeInconsistentQuantities, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{inventory.CodeInsufficientStockAcrossBatches, http.StatusUnprocessableEntity},
		{inventory.CodeNoBatchesAvailable, http.StatusUnprocessableEntity},
		{inventory.CodeBatchBlocked, http.StatusUnprocessableEntity},
		{inventory.CodeAlreadyBlocked, http.StatusUnprocessableEntity},
		{inventory.CodeNotBlocked, http.StatusUnprocessableEntity},
		{inventory.CodeCannotBlockExhausted, http.StatusUnprocessableEntity},
		{inventory.CodeBatchExpired, http.StatusUnprocessableEntity},
		{inventory.CodeBatchHasSales, http.StatusUnprocessableEntity},
		{inventory.CodeBatchCurrentlyAvailable, http.StatusUnprocessableEntity},
		{ErrCodeConcurrencyConflict, http.StatusServiceUnavailable},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(GetHTTPStatus(ErrCodeConcurrencyConflict)))
	assert.False(t, IsRetryableStatus(http.StatusConflict))
	assert.False(t, IsRetryableStatus(http.StatusInternalServerError))
}

func TestNewErrorResponseWithoutRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(inventory.CodeBatchNotFound, "Batch not found", "")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, inventory.CodeBatchNotFound, resp.Error.Code)
	assert.Equal(t, "Batch not found", resp.Error.Message)
	assert.Empty(t, resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", "req-123-456")

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123-456", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "code", Message: "This field is required"},
		{Field: "produced_qty", Message: "Must be at least 1"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "code", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(inventory.CodeDuplicateCode, "Batch code already in use", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"details"`)
	assert.NotContains(t, string(data), `"data"`)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, inventory.CodeDuplicateCode, decoded.Error.Code)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID(ErrCodeInternal, "Server error", "")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(after))
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"code": "L-1"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		page          int
		pageSize      int
		expectedPages int
		expectedSize  int
		expectedPage  int
	}{
		{100, 1, 10, 10, 10, 1},
		{101, 1, 10, 11, 10, 1},
		{0, 1, 10, 0, 10, 1},
		{9, 2, 10, 1, 10, 2},
		{100, 1, 0, 5, DefaultPageSize, 1},
		{100, 0, -1, 5, DefaultPageSize, 1},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, tt.page, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
		assert.Equal(t, tt.expectedPage, resp.Meta.Page)
		assert.Equal(t, tt.total, resp.Meta.Total)
	}
}
