package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	"github.com/tallyhq/tally-backend/pkg/types"
)

// VariantInput is one purchasable option combination supplied by the merchant.
type VariantInput struct {
	Name          string         `json:"name" validate:"required,min=1,max=120"`
	Options       map[string]any `json:"options,omitempty"`
	PriceCents    *int           `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	StockQuantity *int           `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
}

// CreateProductInput captures a new listing with its optional variants.
type CreateProductInput struct {
	Title               string         `json:"title" validate:"required,min=2,max=200"`
	Description         *string        `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category            *string        `json:"category,omitempty" validate:"omitempty,max=120"`
	Images              []string       `json:"images,omitempty" validate:"omitempty,dive,url"`
	Status              string         `json:"status,omitempty" validate:"omitempty,oneof=active draft archived"`
	PriceCents          int            `json:"price_cents" validate:"gte=0"`
	CompareAtPriceCents *int           `json:"compare_at_price_cents,omitempty" validate:"omitempty,gte=0"`
	CostPerItemCents    *int           `json:"cost_per_item_cents,omitempty" validate:"omitempty,gte=0"`
	StockQuantity       *int           `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Variants            []VariantInput `json:"variants,omitempty" validate:"omitempty,dive"`
}

// UpdateProductInput mutates a listing; nil fields are left unchanged. A
// non-nil Variants slice replaces the variant set wholesale.
type UpdateProductInput struct {
	Title               *string         `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description         *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category            *string         `json:"category,omitempty" validate:"omitempty,max=120"`
	Images              *[]string       `json:"images,omitempty" validate:"omitempty,dive,url"`
	Status              *string         `json:"status,omitempty" validate:"omitempty,oneof=active draft archived"`
	PriceCents          *int            `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	CompareAtPriceCents *int            `json:"compare_at_price_cents,omitempty" validate:"omitempty,gte=0"`
	CostPerItemCents    *int            `json:"cost_per_item_cents,omitempty" validate:"omitempty,gte=0"`
	StockQuantity       *int            `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Variants            *[]VariantInput `json:"variants,omitempty" validate:"omitempty,dive"`
}

// ListQuery carries the merchant listing filters and cursor.
type ListQuery struct {
	Query  string `json:"q"`
	Status string `json:"status" validate:"omitempty,oneof=active draft archived"`
	Limit  int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
	Cursor string `json:"cursor"`
}

// VariantDTO is the API projection of a product variant.
type VariantDTO struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Options       types.JSONMap `json:"options,omitempty"`
	PriceCents    *int          `json:"price_cents,omitempty"`
	StockQuantity *int          `json:"stock_quantity,omitempty"`
}

// ProductDTO is the API projection of a product with its variants.
type ProductDTO struct {
	ID                  uuid.UUID           `json:"id"`
	StoreID             uuid.UUID           `json:"store_id"`
	Title               string              `json:"title"`
	Slug                string              `json:"slug"`
	Description         *string             `json:"description,omitempty"`
	Category            *string             `json:"category,omitempty"`
	Images              []string            `json:"images"`
	Status              enums.ProductStatus `json:"status"`
	PriceCents          int                 `json:"price_cents"`
	CompareAtPriceCents *int                `json:"compare_at_price_cents,omitempty"`
	CostPerItemCents    *int                `json:"cost_per_item_cents,omitempty"`
	StockQuantity       *int                `json:"stock_quantity,omitempty"`
	Variants            []VariantDTO        `json:"variants"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// ProductListDTO is one page of products plus the cursor for the next.
type ProductListDTO struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ToDTO converts a product model into its API projection.
func ToDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	variants := make([]VariantDTO, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, VariantDTO{
			ID:            variant.ID,
			Name:          variant.Name,
			Options:       variant.Options,
			PriceCents:    variant.PriceCents,
			StockQuantity: variant.StockQuantity,
		})
	}
	images := product.Images
	if images == nil {
		images = []string{}
	}
	return &ProductDTO{
		ID:                  product.ID,
		StoreID:             product.StoreID,
		Title:               product.Title,
		Slug:                product.Slug,
		Description:         product.Description,
		Category:            product.Category,
		Images:              images,
		Status:              product.Status,
		PriceCents:          product.PriceCents,
		CompareAtPriceCents: product.CompareAtPriceCents,
		CostPerItemCents:    product.CostPerItemCents,
		StockQuantity:       product.StockQuantity,
		Variants:            variants,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
}
