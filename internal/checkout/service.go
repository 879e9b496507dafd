package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/internal/cart"
	"github.com/tallyhq/tally-backend/internal/orders"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/metrics"
	"github.com/tallyhq/tally-backend/pkg/money"
	"github.com/tallyhq/tally-backend/pkg/paystack"
	"github.com/tallyhq/tally-backend/pkg/whatsapp"
)

const (
	paymentFailedMessage   = "payment initialization failed"
	fallbackCustomerName   = "Valued Customer"
	missingWhatsAppMessage = "add a WhatsApp number in your store settings before using WhatsApp checkout"
)

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type productLoader interface {
	FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileLoader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
}

type orderFinalizer interface {
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error
}

type cartConverter interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a validated cart into a committed order plus a payment
// handle, either a Paystack hosted page or a WhatsApp deep link.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Response, error)
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
}

type service struct {
	stores        storeLoader
	products      productLoader
	users         userLoader
	profiles      profileLoader
	orders        orderFinalizer
	tx            txRunner
	orderRepoInTx func(tx *gorm.DB) orderWriter
	cartRepoInTx  func(tx *gorm.DB) cartConverter
	gateway       paystack.Gateway
	orderMetrics  *metrics.OrderMetrics
	mainDomain    string
	now           func() time.Time
}

// ServiceParams bundles the checkout Service dependencies.
type ServiceParams struct {
	Stores        storeLoader
	Products      productLoader
	Users         userLoader
	Profiles      profileLoader
	Orders        orderFinalizer
	TxRunner      txRunner
	OrderRepoInTx func(tx *gorm.DB) orderWriter
	CartRepoInTx  func(tx *gorm.DB) cartConverter
	Gateway       paystack.Gateway
	OrderMetrics  *metrics.OrderMetrics
	MainDomain    string
	Now           func() time.Time
}

// NewService builds a checkout Service and validates its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Stores == nil {
		return nil, errors.New("checkout: store loader is required")
	}
	if params.Products == nil {
		return nil, errors.New("checkout: product loader is required")
	}
	if params.Users == nil {
		return nil, errors.New("checkout: user loader is required")
	}
	if params.Profiles == nil {
		return nil, errors.New("checkout: profile loader is required")
	}
	if params.Orders == nil {
		return nil, errors.New("checkout: order repository is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("checkout: tx runner is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("checkout: payment gateway is required")
	}
	if params.MainDomain == "" {
		return nil, errors.New("checkout: main domain is required")
	}
	if params.OrderRepoInTx == nil {
		params.OrderRepoInTx = func(tx *gorm.DB) orderWriter { return orders.NewRepository(tx) }
	}
	if params.CartRepoInTx == nil {
		params.CartRepoInTx = func(tx *gorm.DB) cartConverter { return cart.NewRepository(tx) }
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		stores:        params.Stores,
		products:      params.Products,
		users:         params.Users,
		profiles:      params.Profiles,
		orders:        params.Orders,
		tx:            params.TxRunner,
		orderRepoInTx: params.OrderRepoInTx,
		cartRepoInTx:  params.CartRepoInTx,
		gateway:       params.Gateway,
		orderMetrics:  params.OrderMetrics,
		mainDomain:    params.MainDomain,
		now:           params.Now,
	}, nil
}

// Checkout re-prices every line from the live product rows, writes the order
// and its items in one transaction, then hands off to the chosen payment
// method. A gateway failure after the commit leaves the pending order in
// place so it can be retried or reconciled.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Response, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}

	if method == enums.PaymentMethodWhatsApp && storePhone(store) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, missingWhatsAppMessage)
	}

	items, total, err := s.priceLines(ctx, store.ID, input.CartItems)
	if err != nil {
		return nil, err
	}

	name, email, phone, err := s.customerSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:            uuid.New(),
		StoreID:       store.ID,
		UserID:        &userID,
		Reference:     newReference(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: method,
		Currency:      store.Currency,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: phone,
		SubtotalCents: total,
		TotalCents:    total,
		Items:         items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.cartRepoInTx(tx)
		active, err := carts.FindActiveByUser(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if active != nil && active.StoreID == store.ID {
			order.CartID = &active.ID
		}

		if err := s.orderRepoInTx(tx).Create(ctx, order); err != nil {
			return err
		}

		if order.CartID != nil {
			return carts.MarkConverted(ctx, *order.CartID, now)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	if s.orderMetrics != nil {
		s.orderMetrics.IncCreated(method.String())
	}

	if method == enums.PaymentMethodWhatsApp {
		return s.whatsappHandoff(store, order)
	}
	return s.cardHandoff(ctx, store, order, input.Domain)
}

// priceLines resolves every submitted line against the live catalog. A line
// whose product is missing, inactive, out of another store, or short on
// stock fails the whole checkout.
func (s *service) priceLines(ctx context.Context, storeID uuid.UUID, lines []LineInput) ([]models.OrderItem, int, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := 0
	for _, line := range lines {
		product, err := s.products.FindActiveByID(ctx, storeID, line.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "one or more items are no longer available").
					WithDetails(map[string]any{"product_id": line.ID})
			}
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if product.StockQuantity != nil && *product.StockQuantity < line.Quantity {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("not enough stock for %s", product.Title)).
				WithDetails(map[string]any{"product_id": product.ID, "available": *product.StockQuantity})
		}

		lineTotal := product.PriceCents * line.Quantity
		productID := product.ID
		items = append(items, models.OrderItem{
			ProductID:      &productID,
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
			Qty:            line.Quantity,
			TotalCents:     lineTotal,
		})
		total += lineTotal
	}
	return items, total, nil
}

func (s *service) customerSnapshot(ctx context.Context, userID uuid.UUID) (name, email string, phone *string, err error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return "", "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	name = fallbackCustomerName
	profile, err := s.profiles.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		if trimmed := strings.TrimSpace(profile.FullName); trimmed != "" {
			name = trimmed
		}
		phone = profile.Phone
	case errors.Is(err, gorm.ErrRecordNotFound):
		// snapshot falls back to the placeholder name
	default:
		return "", "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}

	return name, user.Email, phone, nil
}

func (s *service) whatsappHandoff(store *models.Store, order *models.Order) (*Response, error) {
	lines := make([]whatsapp.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		variant := ""
		if item.VariantName != nil {
			variant = *item.VariantName
		}
		lines = append(lines, whatsapp.OrderLine{Title: item.Title, Variant: variant, Quantity: item.Qty})
	}

	link, err := whatsapp.DeepLink(storePhone(store), whatsapp.OrderSummary{
		OrderID: order.ID.String(),
		Lines:   lines,
		Total:   money.FormatMinor(order.TotalCents, order.Currency),
	})
	if err != nil {
		return nil, err
	}

	return &Response{Order: orders.ToDTO(order), WhatsApp: true, WhatsAppURL: link}, nil
}

func (s *service) cardHandoff(ctx context.Context, store *models.Store, order *models.Order, domain string) (*Response, error) {
	callback := fmt.Sprintf("https://%s.%s/order-confirmation", strings.ToLower(strings.TrimSpace(domain)), s.mainDomain)

	auth, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeParams{
		Email:       order.CustomerEmail,
		AmountMinor: order.TotalCents,
		Currency:    order.Currency,
		Reference:   order.Reference,
		CallbackURL: callback,
		Metadata:    map[string]any{"order_id": order.ID.String()},
	})
	if err != nil {
		if s.orderMetrics != nil {
			s.orderMetrics.IncPaymentFailure(order.PaymentMethod.String())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, paymentFailedMessage)
	}

	return &Response{Order: orders.ToDTO(order), PaymentURL: auth.AuthorizationURL}, nil
}

// Verify confirms a card payment with the gateway after the buyer returns
// from the hosted page. A successful settlement moves the order to paid;
// verifying an already-paid order is a no-op, so the redirect can be
// replayed safely.
func (s *service) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	order, err := s.orders.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	txn, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment verification failed")
	}

	if !txn.Succeeded() || order.Status == enums.OrderStatusPaid {
		return &VerifyResponse{Order: orders.ToDTO(order), PaymentStatus: txn.Status}, nil
	}

	if !order.Status.CanTransitionTo(enums.OrderStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order is %s and cannot be marked paid", order.Status))
	}

	now := s.now().UTC()
	if err := s.orders.UpdateStatus(ctx, order.StoreID, order.ID, enums.OrderStatusPaid, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	order.Status = enums.OrderStatusPaid
	order.PaidAt = &now

	if s.orderMetrics != nil {
		s.orderMetrics.IncPaid(order.PaymentMethod.String())
	}

	return &VerifyResponse{Order: orders.ToDTO(order), PaymentStatus: txn.Status}, nil
}

func storePhone(store *models.Store) string {
	if store.WhatsAppPhone == nil {
		return ""
	}
	return strings.TrimSpace(*store.WhatsAppPhone)
}

// newReference builds the order reference echoed by the payment gateway.
func newReference() string {
	return "TLY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
