package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
)

// UpdateStatusInput moves an order through its lifecycle.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped cancelled"`
}

// ListQuery carries the merchant order listing filters and cursor.
type ListQuery struct {
	Status string `json:"status" validate:"omitempty,oneof=pending paid shipped cancelled"`
	Limit  int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
	Cursor string `json:"cursor"`
}

// OrderItemDTO is the API projection of one order line.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Title          string     `json:"title"`
	VariantName    *string    `json:"variant_name,omitempty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Qty            int        `json:"qty"`
	TotalCents     int        `json:"total_cents"`
}

// OrderDTO is the API projection of an order with its items.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	StoreID       uuid.UUID           `json:"store_id"`
	Reference     string              `json:"reference"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Currency      enums.Currency      `json:"currency"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	CustomerPhone *string             `json:"customer_phone,omitempty"`
	DeliveryNote  *string             `json:"delivery_note,omitempty"`
	SubtotalCents int                 `json:"subtotal_cents"`
	TotalCents    int                 `json:"total_cents"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	Items         []OrderItemDTO      `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderListDTO is one page of orders plus the cursor for the next.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ToDTO converts an order model into its API projection.
func ToDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Title:          item.Title,
			VariantName:    item.VariantName,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
		})
	}
	return &OrderDTO{
		ID:            order.ID,
		StoreID:       order.StoreID,
		Reference:     order.Reference,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Currency:      order.Currency,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		DeliveryNote:  order.DeliveryNote,
		SubtotalCents: order.SubtotalCents,
		TotalCents:    order.TotalCents,
		PaidAt:        order.PaidAt,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
}
