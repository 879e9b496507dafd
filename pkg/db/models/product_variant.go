package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/types"
)

// ProductVariant captures a purchasable option combination of a product, for
// example {"color": "black", "size": "XL"}. A nil price falls back to the
// parent product price.
type ProductVariant struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID     `gorm:"column:product_id;type:uuid;not null;index"`
	Name          string        `gorm:"column:name;not null"`
	Options       types.JSONMap `gorm:"column:options;type:jsonb"`
	PriceCents    *int          `gorm:"column:price_cents"`
	StockQuantity *int          `gorm:"column:stock_quantity"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
