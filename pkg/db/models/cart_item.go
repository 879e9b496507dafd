package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists a product-level snapshot tied to a Cart. The unit price is
// captured at add time and revalidated during checkout.
type CartItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Title          string     `gorm:"column:title;not null"`
	VariantName    *string    `gorm:"column:variant_name"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// LineSubtotalCents returns quantity times unit price.
func (i CartItem) LineSubtotalCents() int {
	return i.Quantity * i.UnitPriceCents
}
