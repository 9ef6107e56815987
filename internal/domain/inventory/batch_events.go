package inventory

import (
	"time"

	"github.com/erp/perishables/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventTypeBatchCreated       = "BatchCreated"
	EventTypeBatchUpdated       = "BatchUpdated"
	EventTypeBatchStateChanged  = "BatchStateChanged"
	EventTypeBatchStockAdjusted = "BatchStockAdjusted"
	EventTypeBatchDeleted       = "BatchDeleted"
)

// BatchCreatedEvent is raised when a batch is registered
type BatchCreatedEvent struct {
	shared.BaseDomainEvent
	Code        string    `json:"code"`
	ProductID   uuid.UUID `json:"product_id"`
	ProducedOn  time.Time `json:"produced_on"`
	ExpiresOn   time.Time `json:"expires_on"`
	ProducedQty int       `json:"produced_qty"`
}

// NewBatchCreatedEvent creates a new BatchCreatedEvent
func NewBatchCreatedEvent(b *Batch) *BatchCreatedEvent {
	return &BatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCreated, AggregateTypeBatch, b.ID),
		Code:            b.Code,
		ProductID:       b.ProductID,
		ProducedOn:      b.ProducedOn,
		ExpiresOn:       b.ExpiresOn,
		ProducedQty:     b.ProducedQty,
	}
}

// BatchUpdatedEvent is raised when batch data is corrected
type BatchUpdatedEvent struct {
	shared.BaseDomainEvent
	Code         string `json:"code"`
	ProducedQty  int    `json:"produced_qty"`
	AvailableQty int    `json:"available_qty"`
}

// NewBatchUpdatedEvent creates a new BatchUpdatedEvent
func NewBatchUpdatedEvent(b *Batch) *BatchUpdatedEvent {
	return &BatchUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchUpdated, AggregateTypeBatch, b.ID),
		Code:            b.Code,
		ProducedQty:     b.ProducedQty,
		AvailableQty:    b.AvailableQty,
	}
}

// BatchStateChangedEvent is raised on every lifecycle transition
type BatchStateChangedEvent struct {
	shared.BaseDomainEvent
	Code      string     `json:"code"`
	ProductID uuid.UUID  `json:"product_id"`
	FromState BatchState `json:"from_state"`
	ToState   BatchState `json:"to_state"`
}

// NewBatchStateChangedEvent creates a new BatchStateChangedEvent
func NewBatchStateChangedEvent(b *Batch, from, to BatchState) *BatchStateChangedEvent {
	return &BatchStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchStateChanged, AggregateTypeBatch, b.ID),
		Code:            b.Code,
		ProductID:       b.ProductID,
		FromState:       from,
		ToState:         to,
	}
}

// BatchStockAdjustedEvent is raised when the available quantity changes.
// Delta is negative for consumption.
type BatchStockAdjustedEvent struct {
	shared.BaseDomainEvent
	Code         string    `json:"code"`
	ProductID    uuid.UUID `json:"product_id"`
	Delta        int       `json:"delta"`
	AvailableQty int       `json:"available_qty"`
}

// NewBatchStockAdjustedEvent creates a new BatchStockAdjustedEvent
func NewBatchStockAdjustedEvent(b *Batch, delta int) *BatchStockAdjustedEvent {
	return &BatchStockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchStockAdjusted, AggregateTypeBatch, b.ID),
		Code:            b.Code,
		ProductID:       b.ProductID,
		Delta:           delta,
		AvailableQty:    b.AvailableQty,
	}
}

// BatchDeletedEvent is raised after a batch is removed
type BatchDeletedEvent struct {
	shared.BaseDomainEvent
	Code      string    `json:"code"`
	ProductID uuid.UUID `json:"product_id"`
}

// NewBatchDeletedEvent creates a new BatchDeletedEvent
func NewBatchDeletedEvent(b *Batch) *BatchDeletedEvent {
	return &BatchDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchDeleted, AggregateTypeBatch, b.ID),
		Code:            b.Code,
		ProductID:       b.ProductID,
	}
}
