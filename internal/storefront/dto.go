package storefront

import (
	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/internal/products"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
)

// StoreDTO is the public storefront projection of a store. The merchant's
// WhatsApp number is not exposed; only whether WhatsApp checkout is offered.
type StoreDTO struct {
	ID               uuid.UUID      `json:"id"`
	Slug             string         `json:"slug"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	LogoURL          *string        `json:"logo_url,omitempty"`
	BannerURL        *string        `json:"banner_url,omitempty"`
	AccentColor      *string        `json:"accent_color,omitempty"`
	Currency         enums.Currency `json:"currency"`
	WhatsAppCheckout bool           `json:"whatsapp_checkout"`
}

// CatalogDTO is the storefront landing payload.
type CatalogDTO struct {
	Store    StoreDTO              `json:"store"`
	Products []products.ProductDTO `json:"products"`
}

// ProductPageDTO is the storefront product detail payload.
type ProductPageDTO struct {
	Store   StoreDTO            `json:"store"`
	Product products.ProductDTO `json:"product"`
}

func toStoreDTO(store *models.Store) StoreDTO {
	return StoreDTO{
		ID:               store.ID,
		Slug:             store.Slug,
		Name:             store.Name,
		Description:      store.Description,
		LogoURL:          store.LogoURL,
		BannerURL:        store.BannerURL,
		AccentColor:      store.AccentColor,
		Currency:         store.Currency,
		WhatsAppCheckout: store.WhatsAppPhone != nil && *store.WhatsAppPhone != "",
	}
}
