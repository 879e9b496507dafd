package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/pagination"
	"github.com/tallyhq/tally-backend/pkg/types"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error
	Delete(ctx context.Context, storeID, productID uuid.UUID) error
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	SlugTaken(ctx context.Context, storeID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the merchant-facing product operations.
type Service interface {
	Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, storeID uuid.UUID, query ListQuery) (*ProductListDTO, error)
	Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, storeID, productID uuid.UUID) error
}

type service struct {
	repo     productRepository
	tx       txRunner
	repoInTx func(tx *gorm.DB) productRepository
}

// ServiceParams bundles the dependencies for the product service. RepoInTx
// defaults to a GORM repository bound to the transaction.
type ServiceParams struct {
	Repo     productRepository
	TxRunner txRunner
	RepoInTx func(tx *gorm.DB) productRepository
}

// NewService builds a product service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.RepoInTx == nil {
		params.RepoInTx = func(tx *gorm.DB) productRepository {
			return NewRepository(tx)
		}
	}
	return &service{repo: params.Repo, tx: params.TxRunner, repoInTx: params.RepoInTx}, nil
}

// Create writes the product and its variants in a single transaction.
func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	status := enums.ProductStatusActive
	if input.Status != "" {
		parsed, err := enums.ParseProductStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		status = parsed
	}

	slug, err := s.uniqueSlug(ctx, storeID, input.Title, nil)
	if err != nil {
		return nil, err
	}

	productID := uuid.New()
	product := &models.Product{
		ID:                  productID,
		StoreID:             storeID,
		Title:               strings.TrimSpace(input.Title),
		Slug:                slug,
		Description:         input.Description,
		Category:            input.Category,
		Images:              input.Images,
		Status:              status,
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		CostPerItemCents:    input.CostPerItemCents,
		StockQuantity:       input.StockQuantity,
		Variants:            buildVariants(productID, input.Variants),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repoInTx(tx).Create(ctx, product)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return ToDTO(product), nil
}

// Get loads one of the merchant's products with its variants.
func (s *service) Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return ToDTO(product), nil
}

// List pages through the merchant's products with optional search and status
// filters.
func (s *service) List(ctx context.Context, storeID uuid.UUID, query ListQuery) (*ProductListDTO, error) {
	filters := ListFilters{Query: query.Query}
	if query.Status != "" {
		parsed, err := enums.ParseProductStatus(query.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filters.Status = &parsed
	}

	result, err := s.repo.ListByStore(ctx, storeID, filters, pagination.Params{
		Limit:  query.Limit,
		Cursor: query.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	dtos := make([]ProductDTO, 0, len(result.Products))
	for i := range result.Products {
		dtos = append(dtos, *ToDTO(&result.Products[i]))
	}
	return &ProductListDTO{Products: dtos, NextCursor: result.NextCursor}, nil
}

// Update mutates the product; a non-nil variants slice replaces the variant
// set in the same transaction as the product row.
func (s *service) Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != product.Title {
		slug, err := s.uniqueSlug(ctx, storeID, *input.Title, &product.ID)
		if err != nil {
			return nil, err
		}
		product.Title = strings.TrimSpace(*input.Title)
		product.Slug = slug
	}
	applyUpdateToProduct(product, input)

	var variants []models.ProductVariant
	if input.Variants != nil {
		variants = buildVariants(product.ID, *input.Variants)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoInTx(tx)
		if err := repo.Update(ctx, product); err != nil {
			return err
		}
		if input.Variants != nil {
			return repo.ReplaceVariants(ctx, product.ID, variants)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}

	if input.Variants != nil {
		product.Variants = variants
	}
	return ToDTO(product), nil
}

// Delete removes the product; variant rows cascade.
func (s *service) Delete(ctx context.Context, storeID, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, storeID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) uniqueSlug(ctx context.Context, storeID uuid.UUID, title string, excludeID *uuid.UUID) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
	}
	taken, err := s.repo.SlugTaken(ctx, storeID, slug, excludeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking product slug")
	}
	if taken {
		slug = slug + "-" + uuid.NewString()[:8]
	}
	return slug, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.Status != nil {
		if parsed, err := enums.ParseProductStatus(*input.Status); err == nil {
			product.Status = parsed
		}
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		product.CompareAtPriceCents = input.CompareAtPriceCents
	}
	if input.CostPerItemCents != nil {
		product.CostPerItemCents = input.CostPerItemCents
	}
	if input.StockQuantity != nil {
		product.StockQuantity = input.StockQuantity
	}
}

func buildVariants(productID uuid.UUID, inputs []VariantInput) []models.ProductVariant {
	if len(inputs) == 0 {
		return nil
	}
	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, input := range inputs {
		variants = append(variants, models.ProductVariant{
			ID:            uuid.New(),
			ProductID:     productID,
			Name:          strings.TrimSpace(input.Name),
			Options:       types.JSONMap(input.Options),
			PriceCents:    input.PriceCents,
			StockQuantity: input.StockQuantity,
		})
	}
	return variants
}

// Slugify lowercases the title and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
