package models

import "github.com/erp/perishables/internal/domain/inventory"

// ProductModel is the persistence model for the product catalog.
// The batch engine only reads it.
type ProductModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a catalog entry.
func (m *ProductModel) ToDomain() inventory.Product {
	return inventory.Product{
		ID:   m.ID,
		Name: m.Name,
	}
}
