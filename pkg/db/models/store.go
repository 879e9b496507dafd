package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/enums"
)

// Store represents the canonical tenant model. Each merchant owns exactly one
// store, and its slug doubles as the storefront subdomain.
type Store struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Slug          string         `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name          string         `gorm:"column:name;not null"`
	Description   *string        `gorm:"column:description"`
	LogoURL       *string        `gorm:"column:logo_url"`
	BannerURL     *string        `gorm:"column:banner_url"`
	AccentColor   *string        `gorm:"column:accent_color"`
	WhatsAppPhone *string        `gorm:"column:whatsapp_phone"`
	Currency      enums.Currency `gorm:"column:currency;type:text;not null;default:'NGN'"`
	IsPublished   bool           `gorm:"column:is_published;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
