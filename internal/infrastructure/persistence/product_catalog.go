package persistence

import (
	"context"
	"errors"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductCatalog implements ProductCatalog over the products table
type GormProductCatalog struct {
	db *gorm.DB
}

// NewGormProductCatalog creates a new GormProductCatalog
func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// Exists checks if a product exists
func (c *GormProductCatalog) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetName returns the display name of a product
func (c *GormProductCatalog) GetName(ctx context.Context, id uuid.UUID) (string, error) {
	var model models.ProductModel
	if err := c.db.WithContext(ctx).Select("id", "name").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return model.Name, nil
}

// FindByIDs returns the products among ids that exist. Missing IDs are skipped.
func (c *GormProductCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Product, error) {
	if len(ids) == 0 {
		return []inventory.Product{}, nil
	}
	var rows []models.ProductModel
	if err := c.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]inventory.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products, nil
}

// Create inserts a product. Used by seeding and tests; the engine never writes products.
func (c *GormProductCatalog) Create(ctx context.Context, id uuid.UUID, name string) error {
	model := &models.ProductModel{Name: name}
	model.ID = id
	return c.db.WithContext(ctx).Create(model).Error
}

// Ensure GormProductCatalog implements ProductCatalog
var _ inventory.ProductCatalog = (*GormProductCatalog)(nil)
