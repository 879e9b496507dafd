package cart

import (
	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
)

// AddItemInput adds a product (optionally a specific variant) to the cart.
// Replace discards a cart held for another store instead of conflicting.
type AddItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"omitempty,gte=1,lte=999"`
	Replace   bool       `json:"replace"`
}

// UpdateItemInput sets a new quantity; anything below one removes the item.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,lte=999"`
}

// CartItemDTO is the API projection of one cart line.
type CartItemDTO struct {
	ID                uuid.UUID  `json:"id"`
	ProductID         uuid.UUID  `json:"product_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	Title             string     `json:"title"`
	VariantName       *string    `json:"variant_name,omitempty"`
	Quantity          int        `json:"quantity"`
	UnitPriceCents    int        `json:"unit_price_cents"`
	LineSubtotalCents int        `json:"line_subtotal_cents"`
}

// CartDTO is the API projection of the customer's cart. An empty cart has no
// id or store and zero totals.
type CartDTO struct {
	ID            *uuid.UUID     `json:"id,omitempty"`
	StoreID       *uuid.UUID     `json:"store_id,omitempty"`
	Currency      enums.Currency `json:"currency,omitempty"`
	Items         []CartItemDTO  `json:"items"`
	SubtotalCents int            `json:"subtotal_cents"`
	ItemCount     int            `json:"item_count"`
}

// ToDTO converts a cart model into its API projection, computing the running
// subtotal and item count.
func ToDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return &CartDTO{Items: []CartItemDTO{}}
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	subtotal := 0
	count := 0
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ID:                item.ID,
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			Title:             item.Title,
			VariantName:       item.VariantName,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			LineSubtotalCents: item.LineSubtotalCents(),
		})
		subtotal += item.LineSubtotalCents()
		count += item.Quantity
	}
	id := cart.ID
	storeID := cart.StoreID
	return &CartDTO{
		ID:            &id,
		StoreID:       &storeID,
		Currency:      cart.Currency,
		Items:         items,
		SubtotalCents: subtotal,
		ItemCount:     count,
	}
}
