package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/internal/products"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

type storeResolver interface {
	GetBySlug(ctx context.Context, slug string) (*models.Store, error)
}

type catalogRepository interface {
	ListActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

// Service serves the customer-facing storefront reads.
type Service interface {
	Catalog(ctx context.Context, domain string) (*CatalogDTO, error)
	Product(ctx context.Context, domain string, productID uuid.UUID) (*ProductPageDTO, error)
	ResolveStore(ctx context.Context, domain string) (*models.Store, error)
}

type service struct {
	stores  storeResolver
	catalog catalogRepository
}

// NewService builds a storefront service with the provided dependencies.
func NewService(stores storeResolver, catalog catalogRepository) (Service, error) {
	if stores == nil {
		return nil, fmt.Errorf("store resolver required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{stores: stores, catalog: catalog}, nil
}

// ResolveStore maps a storefront hostname or slug to its published store.
// Unknown and unpublished tenants both surface as not found.
func (s *service) ResolveStore(ctx context.Context, domain string) (*models.Store, error) {
	slug := SlugFromHost(domain)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	store, err := s.stores.GetBySlug(ctx, slug)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, err
	}
	if !store.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return store, nil
}

// Catalog returns the store profile with its active products, newest first.
func (s *service) Catalog(ctx context.Context, domain string) (*CatalogDTO, error) {
	store, err := s.ResolveStore(ctx, domain)
	if err != nil {
		return nil, err
	}
	rows, err := s.catalog.ListActiveByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalog")
	}
	dtos := make([]products.ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *products.ToDTO(&rows[i]))
	}
	return &CatalogDTO{Store: toStoreDTO(store), Products: dtos}, nil
}

// Product returns a single active product; drafts and archived listings are
// hidden from the storefront.
func (s *service) Product(ctx context.Context, domain string, productID uuid.UUID) (*ProductPageDTO, error) {
	store, err := s.ResolveStore(ctx, domain)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.FindActiveByID(ctx, store.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &ProductPageDTO{Store: toStoreDTO(store), Product: *products.ToDTO(product)}, nil
}

// SlugFromHost extracts the tenant slug: the first label of the hostname,
// lowercased, with any port stripped. A bare slug passes through unchanged.
func SlugFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.IndexByte(host, '.'); idx >= 0 {
		host = host[:idx]
	}
	return host
}
