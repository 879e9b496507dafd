package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/enums"
)

// Order represents a confirmed checkout for a single store. The reference is
// the identifier handed to the payment gateway and echoed in its callback.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	CartID        *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	Reference     string              `gorm:"column:reference;type:text;not null;uniqueIndex"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'NGN'"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	CustomerEmail string              `gorm:"column:customer_email;not null"`
	CustomerPhone *string             `gorm:"column:customer_phone"`
	DeliveryNote  *string             `gorm:"column:delivery_note"`
	SubtotalCents int                 `gorm:"column:subtotal_cents;not null"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
