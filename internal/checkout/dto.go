package checkout

import (
	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/internal/orders"
)

// LineInput is one cart line submitted at checkout. The id is the product
// id; unit pricing always comes from the product row, never the client.
type LineInput struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1,lte=999"`
}

// Input is the checkout request payload.
type Input struct {
	StoreID       uuid.UUID   `json:"store_id" validate:"required"`
	CartItems     []LineInput `json:"cart_items" validate:"required,min=1,dive"`
	Domain        string      `json:"domain" validate:"required"`
	PaymentMethod string      `json:"payment_method" validate:"required,oneof=card whatsapp"`
}

// Response is returned once the order is committed. Exactly one of
// WhatsAppURL and PaymentURL is set, matching the payment method.
type Response struct {
	Order       *orders.OrderDTO `json:"order"`
	WhatsApp    bool             `json:"whatsapp,omitempty"`
	WhatsAppURL string           `json:"whatsapp_url,omitempty"`
	PaymentURL  string           `json:"payment_url,omitempty"`
}

// VerifyResponse reports the gateway settlement state for an order
// reference. PaymentStatus is the gateway status verbatim.
type VerifyResponse struct {
	Order         *orders.OrderDTO `json:"order"`
	PaymentStatus string           `json:"payment_status"`
}
