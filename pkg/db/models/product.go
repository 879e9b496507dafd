package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tallyhq/tally-backend/pkg/enums"
)

// Product represents a storefront listing. Prices are stored in the store
// currency's minor unit.
type Product struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID             uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index;uniqueIndex:idx_products_store_slug,priority:1"`
	Title               string              `gorm:"column:title;not null"`
	Slug                string              `gorm:"column:slug;not null;uniqueIndex:idx_products_store_slug,priority:2"`
	Description         *string             `gorm:"column:description"`
	Category            *string             `gorm:"column:category"`
	Images              pq.StringArray      `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Status              enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	PriceCents          int                 `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int                `gorm:"column:compare_at_price_cents"`
	CostPerItemCents    *int                `gorm:"column:cost_per_item_cents"`
	StockQuantity       *int                `gorm:"column:stock_quantity"`
	Variants            []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
