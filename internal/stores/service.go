package stores

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// reservedSlugs are subdomains that can never become storefronts.
var reservedSlugs = map[string]struct{}{
	"www":       {},
	"api":       {},
	"app":       {},
	"admin":     {},
	"dashboard": {},
	"mail":      {},
	"static":    {},
	"status":    {},
	"support":   {},
}

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, store *models.Store) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error)
	GetBySlug(ctx context.Context, slug string) (*models.Store, error)
	Update(ctx context.Context, ownerID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// Create provisions the merchant's store and claims its subdomain.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	slug, err := NormalizeSlug(input.Slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByOwner(ctx, ownerID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already has a store")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up existing store")
	}

	taken, err := s.repo.SlugTaken(ctx, slug, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking slug availability")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subdomain already taken")
	}

	currency := enums.CurrencyNGN
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		currency = parsed
	}

	store := &models.Store{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Slug:          slug,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		WhatsAppPhone: input.WhatsAppPhone,
		Currency:      currency,
		IsPublished:   true,
	}

	if err := s.repo.Create(ctx, store); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "subdomain already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating store")
	}

	return ToDTO(store), nil
}

// GetByOwner loads the caller's store.
func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}
	return ToDTO(store), nil
}

// GetBySlug loads a store by its subdomain slug.
func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	store, err := s.repo.FindBySlug(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}
	return store, nil
}

// Update mutates the caller's store settings.
func (s *service) Update(ctx context.Context, ownerID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}

	applyUpdateToStore(store, input)

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating store")
	}
	return ToDTO(store), nil
}

func applyUpdateToStore(store *models.Store, input UpdateStoreInput) {
	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		store.Description = input.Description
	}
	if input.LogoURL != nil {
		store.LogoURL = input.LogoURL
	}
	if input.BannerURL != nil {
		store.BannerURL = input.BannerURL
	}
	if input.AccentColor != nil {
		store.AccentColor = input.AccentColor
	}
	if input.WhatsAppPhone != nil {
		store.WhatsAppPhone = input.WhatsAppPhone
	}
	if input.Currency != nil {
		if parsed, err := enums.ParseCurrency(*input.Currency); err == nil {
			store.Currency = parsed
		}
	}
	if input.IsPublished != nil {
		store.IsPublished = *input.IsPublished
	}
}

// NormalizeSlug lowercases and validates a storefront subdomain label.
func NormalizeSlug(raw string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if !slugRe.MatchString(slug) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "subdomain must be 3-63 characters of lowercase letters, digits, and hyphens")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("subdomain %q is reserved", slug))
	}
	return slug, nil
}
