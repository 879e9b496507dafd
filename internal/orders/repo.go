package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	"github.com/tallyhq/tally-backend/pkg/pagination"
)

// ListFilters narrows a merchant's order listing.
type ListFilters struct {
	Status *enums.OrderStatus
}

// ListResult carries one page of orders plus the cursor for the next.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts an order together with its item rows.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with items, scoped to its store.
func (r *Repository) FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ? AND store_id = ?", orderID, storeID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByReference loads an order by its gateway reference.
func (r *Repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "reference = ?", reference).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStore returns one page of the store's orders, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ?", storeID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Orders: rows, NextCursor: nextCursor}, nil
}

// ListByStoreSince loads all orders created at or after the cutoff, newest
// first. The dashboard aggregations consume this window in memory.
func (r *Repository) ListByStoreSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// UpdateStatus stamps a new lifecycle status, recording paid_at on the paid
// transition.
func (r *Repository) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error {
	updates := map[string]any{"status": status}
	if status == enums.OrderStatusPaid {
		updates["paid_at"] = at
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND store_id = ?", orderID, storeID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
