package inventory

import (
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/google/uuid"
)

// UnknownProductName is shown when the catalog cannot resolve a product
const UnknownProductName = "Product unavailable"

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProducedOn   string    `json:"produced_on"`
	ExpiresOn    string    `json:"expires_on"`
	ProducedQty  int       `json:"produced_qty"`
	AvailableQty int       `json:"available_qty"`
	SoldQty      int       `json:"sold_qty"`
	State        string    `json:"state"`
	Notes        string    `json:"notes"`
	DaysToExpire int       `json:"days_to_expire"`
	IsExpired    bool      `json:"is_expired"`
	NearExpiry   bool      `json:"near_expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// ToBatchResponse converts a domain batch into a response decorated with derived fields
func ToBatchResponse(b *inventory.Batch, productName string, today time.Time, nearExpiryDays int) BatchResponse {
	return BatchResponse{
		ID:           b.ID,
		Code:         b.Code,
		ProductID:    b.ProductID,
		ProductName:  productName,
		ProducedOn:   b.ProducedOn.Format(inventory.DateLayout),
		ExpiresOn:    b.ExpiresOn.Format(inventory.DateLayout),
		ProducedQty:  b.ProducedQty,
		AvailableQty: b.AvailableQty,
		SoldQty:      b.SoldQty(),
		State:        b.State.String(),
		Notes:        b.Notes,
		DaysToExpire: b.DaysToExpire(today),
		IsExpired:    b.IsExpired(today),
		NearExpiry:   b.IsNearExpiry(today, nearExpiryDays),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		Version:      b.Version,
	}
}

// CreateBatchRequest represents a request to register a new batch
type CreateBatchRequest struct {
	Code        string    `json:"code" binding:"required,notblank,max=50"`
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	ProducedOn  string    `json:"produced_on" binding:"required,datetime=2006-01-02"`
	ExpiresOn   string    `json:"expires_on" binding:"required,datetime=2006-01-02"`
	ProducedQty int       `json:"produced_qty" binding:"required,min=1"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// UpdateBatchRequest represents a partial correction; nil fields are left untouched
type UpdateBatchRequest struct {
	Code         *string    `json:"code" binding:"omitempty,max=50"`
	ProductID    *uuid.UUID `json:"product_id"`
	ProducedOn   *string    `json:"produced_on" binding:"omitempty,datetime=2006-01-02"`
	ExpiresOn    *string    `json:"expires_on" binding:"omitempty,datetime=2006-01-02"`
	ProducedQty  *int       `json:"produced_qty"`
	AvailableQty *int       `json:"available_qty"`
	Notes        *string    `json:"notes" binding:"omitempty,max=2000"`
	Reason       string     `json:"reason" binding:"max=500"`
}

// BlockBatchRequest represents a request to put a batch on hold
type BlockBatchRequest struct {
	Reason string `json:"reason" binding:"required,notblank,max=500"`
}

// AdjustStockRequest represents a consumption of stock from a batch
type AdjustStockRequest struct {
	Quantity int `json:"quantity"`
}

// SetAvailableQtyRequest represents an absolute stock correction
type SetAvailableQtyRequest struct {
	Quantity int `json:"quantity"`
}

// SelectBatchRequest asks for the batch that should serve a quantity of a product
type SelectBatchRequest struct {
	ProductID uuid.UUID `json:"product_id" form:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" form:"quantity"`
}

// BatchRef identifies the batch chosen to serve a request
type BatchRef struct {
	BatchID      uuid.UUID `json:"batch_id"`
	Code         string    `json:"code"`
	AvailableQty int       `json:"available_qty"`
	ExpiresOn    string    `json:"expires_on"`
}

// BatchListFilter represents filter options for the batch list
type BatchListFilter struct {
	Search    string     `form:"search"`
	ProductID *uuid.UUID `form:"product_id"`
	State     string     `form:"state" binding:"omitempty,batchstate"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by" binding:"omitempty,oneof=code expires_on produced_on created_at available_qty"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductSummary aggregates the batches of one product
type ProductSummary struct {
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	TotalAvailableQty int       `json:"total_available_qty"`
	BatchCount        int       `json:"batch_count"`
	NearestExpiration string    `json:"nearest_expiration"`
}

// BatchStockRow is one line of the per-product stock report
type BatchStockRow struct {
	Code         string `json:"code"`
	AvailableQty int    `json:"available_qty"`
	ExpiresOn    string `json:"expires_on"`
	State        string `json:"state"`
}

// ProductAlert flags a product whose total stock is under the threshold
type ProductAlert struct {
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	TotalAvailableQty int       `json:"total_available_qty"`
	Threshold         int       `json:"threshold"`
}

// ExpiryAlert flags a sellable batch close to its expiration
type ExpiryAlert struct {
	BatchID      uuid.UUID `json:"batch_id"`
	Code         string    `json:"code"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ExpiresOn    string    `json:"expires_on"`
	AvailableQty int       `json:"available_qty"`
	DaysToExpire int       `json:"days_to_expire"`
}

// AvailableStockResponse is the sellable stock of a product
type AvailableStockResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	AvailableQty int       `json:"available_qty"`
	BatchCount   int       `json:"batch_count"`
}

// AdjustmentResponse reports the stock of a batch after a quantity change
type AdjustmentResponse struct {
	BatchID      uuid.UUID `json:"batch_id"`
	Code         string    `json:"code"`
	ProducedQty  int       `json:"produced_qty"`
	AvailableQty int       `json:"available_qty"`
	SoldQty      int       `json:"sold_qty"`
	State        string    `json:"state"`
	Version      int       `json:"version"`
}

// ToAdjustmentResponse converts a domain batch into an AdjustmentResponse
func ToAdjustmentResponse(b *inventory.Batch) AdjustmentResponse {
	return AdjustmentResponse{
		BatchID:      b.ID,
		Code:         b.Code,
		ProducedQty:  b.ProducedQty,
		AvailableQty: b.AvailableQty,
		SoldQty:      b.SoldQty(),
		State:        b.State.String(),
		Version:      b.Version,
	}
}
