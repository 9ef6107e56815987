package inventory

import "github.com/erp/perishables/internal/domain/shared"

// Error codes raised by the batch domain
const (
	CodeBatchNotFound                  = "BATCH_NOT_FOUND"
	CodeProductNotFound                = "PRODUCT_NOT_FOUND"
	CodeDuplicateCode                  = "DUPLICATE_CODE"
	CodeInvalidDateRange               = "INVALID_DATE_RANGE"
	CodeInvalidQuantity                = "INVALID_QUANTITY"
	CodeInvalidAdjustment              = "INVALID_ADJUSTMENT"
	CodeInconsistentQuantities         = "INCONSISTENT_QUANTITIES"
	CodeInsufficientStockAcrossBatches = "INSUFFICIENT_STOCK_ACROSS_BATCHES"
	CodeNoBatchesAvailable             = "NO_BATCHES_AVAILABLE"
	CodeBatchBlocked                   = "BATCH_BLOCKED"
	CodeAlreadyBlocked                 = "ALREADY_BLOCKED"
	CodeNotBlocked                     = "NOT_BLOCKED"
	CodeCannotBlockExhausted           = "CANNOT_BLOCK_EXHAUSTED"
	CodeBatchExpired                   = "BATCH_EXPIRED"
	CodeBatchHasSales                  = "BATCH_HAS_SALES"
	CodeBatchCurrentlyAvailable        = "BATCH_CURRENTLY_AVAILABLE"
	CodeDuplicateRequest               = "DUPLICATE_REQUEST"
)

var (
	ErrBatchNotFound                  = shared.NewDomainError(CodeBatchNotFound, "Batch not found")
	ErrProductNotFound                = shared.NewDomainError(CodeProductNotFound, "Product not found")
	ErrDuplicateCode                  = shared.NewDomainError(CodeDuplicateCode, "Batch code already in use")
	ErrInvalidDateRange               = shared.NewDomainError(CodeInvalidDateRange, "Expiration date must be after production date")
	ErrInvalidQuantity                = shared.NewDomainError(CodeInvalidQuantity, "Invalid quantity")
	ErrInvalidAdjustment              = shared.NewDomainError(CodeInvalidAdjustment, "Adjustment quantity must be positive")
	ErrInconsistentQuantities         = shared.NewDomainError(CodeInconsistentQuantities, "Available quantity cannot exceed produced quantity")
	ErrInsufficientStockAcrossBatches = shared.NewDomainError(CodeInsufficientStockAcrossBatches, "No single batch holds the requested quantity")
	ErrNoBatchesAvailable             = shared.NewDomainError(CodeNoBatchesAvailable, "No batches available for product")
	ErrBatchBlocked                   = shared.NewDomainError(CodeBatchBlocked, "Batch is blocked")
	ErrAlreadyBlocked                 = shared.NewDomainError(CodeAlreadyBlocked, "Batch is already blocked")
	ErrNotBlocked                     = shared.NewDomainError(CodeNotBlocked, "Batch is not blocked")
	ErrCannotBlockExhausted           = shared.NewDomainError(CodeCannotBlockExhausted, "Exhausted batches cannot be blocked")
	ErrBatchExpired                   = shared.NewDomainError(CodeBatchExpired, "Batch has expired")
	ErrBatchHasSales                  = shared.NewDomainError(CodeBatchHasSales, "Batch has recorded sales and cannot be deleted")
	ErrBatchCurrentlyAvailable        = shared.NewDomainError(CodeBatchCurrentlyAvailable, "Available batches must be blocked or exhausted before deletion")
	ErrDuplicateRequest               = shared.NewDomainError(CodeDuplicateRequest, "Request was already processed")
)
