package dto

import (
	"net/http"

	"github.com/erp/perishables/internal/domain/inventory"
)

// Transport-level error codes. Domain errors keep their own codes in responses.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable         = "SERVICE_UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Not found
	ErrCodeNotFound:               http.StatusNotFound,
	inventory.CodeBatchNotFound:   http.StatusNotFound,
	inventory.CodeProductNotFound: http.StatusNotFound,

	// Conflicts with existing data
	ErrCodeAlreadyExists:           http.StatusConflict,
	inventory.CodeDuplicateCode:    http.StatusConflict,
	inventory.CodeDuplicateRequest: http.StatusConflict,

	// Malformed or invalid input
	ErrCodeBadRequest:                    http.StatusBadRequest,
	ErrCodeValidation:                    http.StatusBadRequest,
	ErrCodeInvalidInput:                  http.StatusBadRequest,
	inventory.CodeInvalidDateRange:       http.StatusBadRequest,
	inventory.CodeInvalidQuantity:        http.StatusBadRequest,
	inventory.CodeInvalidAdjustment:      http.StatusBadRequest,
	inventory.CodeInconsistentQuantities: http.StatusBadRequest,

	// Business rules and state
	ErrCodeInvalidState:                          http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:                     http.StatusUnprocessableEntity,
	inventory.CodeInsufficientStockAcrossBatches: http.StatusUnprocessableEntity,
	inventory.CodeNoBatchesAvailable:             http.StatusUnprocessableEntity,
	inventory.CodeBatchBlocked:                   http.StatusUnprocessableEntity,
	inventory.CodeAlreadyBlocked:                 http.StatusUnprocessableEntity,
	inventory.CodeNotBlocked:                     http.StatusUnprocessableEntity,
	inventory.CodeCannotBlockExhausted:           http.StatusUnprocessableEntity,
	inventory.CodeBatchExpired:                   http.StatusUnprocessableEntity,
	inventory.CodeBatchHasSales:                  http.StatusUnprocessableEntity,
	inventory.CodeBatchCurrentlyAvailable:        http.StatusUnprocessableEntity,

	// Retryable: the optimistic lock kept losing after the service's own retries
	ErrCodeConcurrencyConflict: http.StatusServiceUnavailable,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryableStatus reports whether clients may repeat the request unchanged
func IsRetryableStatus(status int) bool {
	return status == http.StatusServiceUnavailable
}
