package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
)

// CreateStoreInput captures the onboarding fields for a new store.
type CreateStoreInput struct {
	Slug          string  `json:"slug" validate:"required,min=3,max=63"`
	Name          string  `json:"name" validate:"required,min=2,max=120"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	WhatsAppPhone *string `json:"whatsapp_phone" validate:"omitempty,max=32"`
	Currency      string  `json:"currency" validate:"omitempty,oneof=NGN USD GHS KES ZAR"`
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	LogoURL       *string `json:"logo_url" validate:"omitempty,url"`
	BannerURL     *string `json:"banner_url" validate:"omitempty,url"`
	AccentColor   *string `json:"accent_color" validate:"omitempty,hexcolor"`
	WhatsAppPhone *string `json:"whatsapp_phone" validate:"omitempty,max=32"`
	Currency      *string `json:"currency" validate:"omitempty,oneof=NGN USD GHS KES ZAR"`
	IsPublished   *bool   `json:"is_published"`
}

// StoreDTO is the API projection of a store.
type StoreDTO struct {
	ID            uuid.UUID      `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	LogoURL       *string        `json:"logo_url,omitempty"`
	BannerURL     *string        `json:"banner_url,omitempty"`
	AccentColor   *string        `json:"accent_color,omitempty"`
	WhatsAppPhone *string        `json:"whatsapp_phone,omitempty"`
	Currency      enums.Currency `json:"currency"`
	IsPublished   bool           `json:"is_published"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ToDTO converts a store model into its API projection.
func ToDTO(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}
	return &StoreDTO{
		ID:            store.ID,
		Slug:          store.Slug,
		Name:          store.Name,
		Description:   store.Description,
		LogoURL:       store.LogoURL,
		BannerURL:     store.BannerURL,
		AccentColor:   store.AccentColor,
		WhatsAppPhone: store.WhatsAppPhone,
		Currency:      store.Currency,
		IsPublished:   store.IsPublished,
		CreatedAt:     store.CreatedAt,
	}
}
