package models

import (
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/google/uuid"
)

// BatchModel is the persistence model for the Batch aggregate root.
type BatchModel struct {
	AggregateModel
	Code         string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_batches_code"`
	ProductID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_batches_product"`
	ProducedOn   time.Time            `gorm:"type:date;not null"`
	ExpiresOn    time.Time            `gorm:"type:date;not null;index:idx_batches_state_expires,priority:2"`
	ProducedQty  int                  `gorm:"not null"`
	AvailableQty int                  `gorm:"not null;default:0"`
	State        inventory.BatchState `gorm:"type:varchar(20);not null;default:'IN_PRODUCTION';index:idx_batches_state_expires,priority:1"`
	Notes        string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch.
// Dates are normalized to civil dates since drivers may attach a location.
func (m *BatchModel) ToDomain() *inventory.Batch {
	return &inventory.Batch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		ProductID:         m.ProductID,
		ProducedOn:        inventory.CivilDate(m.ProducedOn),
		ExpiresOn:         inventory.CivilDate(m.ExpiresOn),
		ProducedQty:       m.ProducedQty,
		AvailableQty:      m.AvailableQty,
		State:             m.State,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Batch.
func (m *BatchModel) FromDomain(b *inventory.Batch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Code = b.Code
	m.ProductID = b.ProductID
	m.ProducedOn = b.ProducedOn
	m.ExpiresOn = b.ExpiresOn
	m.ProducedQty = b.ProducedQty
	m.AvailableQty = b.AvailableQty
	m.State = b.State
	m.Notes = b.Notes
}

// BatchModelFromDomain creates a new persistence model from a domain Batch.
func BatchModelFromDomain(b *inventory.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}
