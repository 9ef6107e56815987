package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a batch by its unique code
func (r *GormBatchRepository) FindByCode(ctx context.Context, code string) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks whether another batch already uses code.
// excludeID is ignored when it is uuid.Nil.
func (r *GormBatchRepository) ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BatchModel{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds batches matching the filter and returns the unpaged total
func (r *GormBatchRepository) FindAll(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BatchModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BatchModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BatchModel{}), filter)
	if err := r.applyPaginationAndSort(query, filter).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDomainBatches(rows), total, nil
}

// FindByProduct finds every batch of a product in creation order
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// FindByState finds every batch in a state, soonest expiration first
func (r *GormBatchRepository) FindByState(ctx context.Context, state inventory.BatchState) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("state = ?", state.String()).
		Order("expires_on ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// FindAllocatable finds the AVAILABLE batches of a product that hold stock and
// expire strictly after the given date, in FEFO order
func (r *GormBatchRepository) FindAllocatable(ctx context.Context, productID uuid.UUID, after time.Time) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND state = ? AND available_qty > 0", productID, inventory.BatchStateAvailable.String()).
		Where("expires_on > ?", inventory.CivilDate(after)).
		Order("expires_on ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// FindExpiringBefore finds AVAILABLE batches with stock expiring strictly before the given date
func (r *GormBatchRepository) FindExpiringBefore(ctx context.Context, before time.Time) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("state = ? AND available_qty > 0", inventory.BatchStateAvailable.String()).
		Where("expires_on < ?", inventory.CivilDate(before)).
		Order("expires_on ASC, code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// ListAll returns every batch in creation order
func (r *GormBatchRepository) ListAll(ctx context.Context) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// Create inserts a new batch. A code collision yields ErrDuplicateCode.
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	model := models.BatchModelFromDomain(batch)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version).
// The batch must carry the incremented version; the row must still hold Version-1.
func (r *GormBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"code":          batch.Code,
			"product_id":    batch.ProductID,
			"produced_on":   batch.ProducedOn,
			"expires_on":    batch.ExpiresOn,
			"produced_qty":  batch.ProducedQty,
			"available_qty": batch.AvailableQty,
			"state":         batch.State.String(),
			"notes":         batch.Notes,
			"version":       batch.Version,
			"updated_at":    batch.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return inventory.ErrDuplicateCode
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, batch.ID)
	}
	return nil
}

// DeleteWithLock removes the batch only while it still holds version
func (r *GormBatchRepository) DeleteWithLock(ctx context.Context, id uuid.UUID, version int) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", id, version).
		Delete(&models.BatchModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict explains a guarded write that matched no row: the batch is
// either gone or holds a newer version
func (r *GormBatchRepository) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BatchModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// batchSortColumns lists the columns a listing may be ordered by
var batchSortColumns = map[string]bool{
	"code":          true,
	"produced_on":   true,
	"expires_on":    true,
	"produced_qty":  true,
	"available_qty": true,
	"state":         true,
	"created_at":    true,
	"updated_at":    true,
}

// batchOrder builds the ORDER BY clause for a page. Unknown columns fall
// back to expires_on so user input never reaches the SQL text.
func batchOrder(page shared.PageRequest) string {
	column := strings.TrimSpace(page.SortBy)
	if !batchSortColumns[column] {
		column = "expires_on"
	}
	if page.SortDesc {
		return column + " DESC"
	}
	return column + " ASC"
}

// applyFilter narrows the query to the batches the filter matches
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter inventory.BatchFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", filter.State.String())
	}
	if filter.InStock {
		query = query.Where("available_qty > 0")
	}
	return query
}

// applyPaginationAndSort orders the query, with id as tie-breaker, and
// applies the page window when one is set
func (r *GormBatchRepository) applyPaginationAndSort(query *gorm.DB, filter inventory.BatchFilter) *gorm.DB {
	query = query.Order(batchOrder(filter.PageRequest)).Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func toDomainBatches(rows []models.BatchModel) []inventory.Batch {
	batches := make([]inventory.Batch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// isUniqueViolation reports whether err comes from a unique index.
// Drivers without error translation are matched on their message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
