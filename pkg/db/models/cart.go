package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/enums"
)

// Cart is the server-side cart a storefront customer builds before checkout.
// A customer holds at most one active cart, scoped to a single store; adding
// an item from another store requires the caller to explicitly replace the
// cart.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID     uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Currency    enums.Currency   `gorm:"column:currency;type:text;not null;default:'NGN'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
