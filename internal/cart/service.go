package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

const crossStoreMessage = "cart holds items from another store"

type cartRepository interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cartID uuid.UUID) error
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
}

type productFinder interface {
	FindActiveAny(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the customer cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams bundles the dependencies for the cart service.
type ServiceParams struct {
	Repo     cartRepository
	Products productFinder
	Stores   storeLoader
	TxRunner txRunner
	RepoInTx func(tx *gorm.DB) cartRepository
}

type service struct {
	repo     cartRepository
	products productFinder
	stores   storeLoader
	tx       txRunner
	repoInTx func(tx *gorm.DB) cartRepository
}

// NewService builds a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.RepoInTx == nil {
		params.RepoInTx = func(tx *gorm.DB) cartRepository {
			return NewRepository(tx)
		}
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		stores:   params.Stores,
		tx:       params.TxRunner,
		repoInTx: params.RepoInTx,
	}, nil
}

// Get returns the customer's active cart, or an empty cart when none exists.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ToDTO(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return ToDTO(cart), nil
}

// AddItem snapshots the product price into the cart. Adding across stores
// without Replace conflicts and leaves the cart untouched.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.products.FindActiveAny(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	unitPrice := product.PriceCents
	var variantName *string
	if input.VariantID != nil {
		variant := findVariant(product, *input.VariantID)
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		name := variant.Name
		variantName = &name
		if variant.PriceCents != nil {
			unitPrice = *variant.PriceCents
		}
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	if cart != nil && cart.StoreID != product.StoreID {
		if !input.Replace {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, crossStoreMessage).
				WithDetails(map[string]any{"cart_store_id": cart.StoreID})
		}
		replaced, err := s.replaceCart(ctx, userID, cart.ID, product, input.VariantID, variantName, unitPrice, quantity)
		if err != nil {
			return nil, err
		}
		return ToDTO(replaced), nil
	}

	if cart == nil {
		created, err := s.createCart(ctx, userID, product, input.VariantID, variantName, unitPrice, quantity)
		if err != nil {
			return nil, err
		}
		return ToDTO(created), nil
	}

	if existing := findLine(cart, input.ProductID, input.VariantID); existing != nil {
		if err := s.repo.UpdateItemQuantity(ctx, cart.ID, existing.ID, existing.Quantity+quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
		}
	} else {
		item := newItem(cart.ID, product, input.VariantID, variantName, unitPrice, quantity)
		if err := s.repo.CreateItem(ctx, &item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
		}
	}
	return s.Get(ctx, userID)
}

// UpdateItemQuantity sets the quantity; values below one remove the line.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	if err := s.repo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
	}
	return s.Get(ctx, userID)
}

// RemoveItem deletes one line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.Get(ctx, userID)
}

// Clear discards the customer's active cart entirely.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.repo.Delete(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) requireCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

func (s *service) createCart(ctx context.Context, userID uuid.UUID, product *models.Product, variantID *uuid.UUID, variantName *string, unitPrice, quantity int) (*models.Cart, error) {
	currency, err := s.storeCurrency(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}
	cartID := uuid.New()
	cart := &models.Cart{
		ID:       cartID,
		UserID:   userID,
		StoreID:  product.StoreID,
		Status:   enums.CartStatusActive,
		Currency: currency,
		Items:    []models.CartItem{newItem(cartID, product, variantID, variantName, unitPrice, quantity)},
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return cart, nil
}

func (s *service) replaceCart(ctx context.Context, userID, oldCartID uuid.UUID, product *models.Product, variantID *uuid.UUID, variantName *string, unitPrice, quantity int) (*models.Cart, error) {
	currency, err := s.storeCurrency(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}
	cartID := uuid.New()
	cart := &models.Cart{
		ID:       cartID,
		UserID:   userID,
		StoreID:  product.StoreID,
		Status:   enums.CartStatusActive,
		Currency: currency,
		Items:    []models.CartItem{newItem(cartID, product, variantID, variantName, unitPrice, quantity)},
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoInTx(tx)
		if err := repo.Delete(ctx, oldCartID); err != nil {
			return err
		}
		return repo.Create(ctx, cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing cart")
	}
	return cart, nil
}

func (s *service) storeCurrency(ctx context.Context, storeID uuid.UUID) (enums.Currency, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}
	return store.Currency, nil
}

func newItem(cartID uuid.UUID, product *models.Product, variantID *uuid.UUID, variantName *string, unitPrice, quantity int) models.CartItem {
	return models.CartItem{
		ID:             uuid.New(),
		CartID:         cartID,
		ProductID:      product.ID,
		VariantID:      variantID,
		Title:          product.Title,
		VariantName:    variantName,
		Quantity:       quantity,
		UnitPriceCents: unitPrice,
	}
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

func findLine(cart *models.Cart, productID uuid.UUID, variantID *uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if item.VariantID != nil && *item.VariantID != *variantID {
			continue
		}
		return item
	}
	return nil
}
