package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/paystack"
)

type fakeStoreLoader struct {
	byID map[uuid.UUID]*models.Store
}

func (f *fakeStoreLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

type fakeProductLoader struct {
	byID map[uuid.UUID]*models.Product
}

func (f *fakeProductLoader) FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, ok := f.byID[productID]
	if !ok || product.StoreID != storeID || product.Status != enums.ProductStatusActive {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type fakeUserLoader struct {
	user *models.User
}

func (f *fakeUserLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

type fakeProfileLoader struct {
	profile *models.Profile
}

func (f *fakeProfileLoader) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if f.profile == nil || f.profile.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.profile, nil
}

type fakeOrderWriter struct {
	created []*models.Order
	err     error
}

func (f *fakeOrderWriter) Create(ctx context.Context, order *models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, order)
	return nil
}

type fakeCartConverter struct {
	active    *models.Cart
	converted []uuid.UUID
}

func (f *fakeCartConverter) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if f.active == nil || f.active.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.active, nil
}

func (f *fakeCartConverter) MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	f.converted = append(f.converted, cartID)
	return nil
}

type fakeOrderFinalizer struct {
	byRef   map[string]*models.Order
	updated []enums.OrderStatus
	err     error
}

func (f *fakeOrderFinalizer) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	order, ok := f.byRef[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeOrderFinalizer) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, status)
	return nil
}

type fakeGateway struct {
	calls  int
	err    error
	lastIn paystack.InitializeParams

	verifyCalls int
	verifyTxn   *paystack.Transaction
	verifyErr   error
}

func (f *fakeGateway) InitializeTransaction(ctx context.Context, params paystack.InitializeParams) (*paystack.Authorization, error) {
	f.calls++
	f.lastIn = params
	if f.err != nil {
		return nil, f.err
	}
	return &paystack.Authorization{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		AccessCode:       "abc123",
		Reference:        params.Reference,
	}, nil
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyTxn != nil {
		return f.verifyTxn, nil
	}
	return &paystack.Transaction{Status: "success", Reference: reference}, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

type checkoutFixture struct {
	svc       Service
	stores    *fakeStoreLoader
	products  *fakeProductLoader
	writer    *fakeOrderWriter
	carts     *fakeCartConverter
	gateway   *fakeGateway
	finalizer *fakeOrderFinalizer

	storeID uuid.UUID
	userID  uuid.UUID
	dressID uuid.UUID
	toteID  uuid.UUID
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		storeID:   uuid.New(),
		userID:    uuid.New(),
		dressID:   uuid.New(),
		toteID:    uuid.New(),
		writer:    &fakeOrderWriter{},
		carts:     &fakeCartConverter{},
		gateway:   &fakeGateway{},
		finalizer: &fakeOrderFinalizer{byRef: map[string]*models.Order{}},
	}

	f.stores = &fakeStoreLoader{byID: map[uuid.UUID]*models.Store{
		f.storeID: {
			ID:            f.storeID,
			Name:          "Acme Fashion",
			Slug:          "acme",
			Currency:      enums.CurrencyNGN,
			WhatsAppPhone: strPtr("+234 801 234 5678"),
		},
	}}
	f.products = &fakeProductLoader{byID: map[uuid.UUID]*models.Product{
		f.dressID: {
			ID:            f.dressID,
			StoreID:       f.storeID,
			Title:         "Ankara Dress",
			Status:        enums.ProductStatusActive,
			PriceCents:    150000,
			StockQuantity: intPtr(5),
		},
		f.toteID: {
			ID:         f.toteID,
			StoreID:    f.storeID,
			Title:      "Tote Bag",
			Status:     enums.ProductStatusActive,
			PriceCents: 40000,
		},
	}}

	svc, err := NewService(ServiceParams{
		Stores:        f.stores,
		Products:      f.products,
		Users:         &fakeUserLoader{user: &models.User{ID: f.userID, Email: "amara@example.com", IsActive: true}},
		Profiles:      &fakeProfileLoader{profile: &models.Profile{ID: uuid.New(), UserID: f.userID, FullName: "Amara Obi", Phone: strPtr("+2348012345678")}},
		Orders:        f.finalizer,
		TxRunner:      passthroughTx{},
		OrderRepoInTx: func(tx *gorm.DB) orderWriter { return f.writer },
		CartRepoInTx:  func(tx *gorm.DB) cartConverter { return f.carts },
		Gateway:       f.gateway,
		MainDomain:    "tally.shop",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *checkoutFixture) input(method string) Input {
	return Input{
		StoreID: f.storeID,
		CartItems: []LineInput{
			{ID: f.dressID, Quantity: 2},
			{ID: f.toteID, Quantity: 1},
		},
		Domain:        "acme",
		PaymentMethod: method,
	}
}

func TestCheckoutCardCreatesOrderAndPaymentURL(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), f.userID, f.input("card"))
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if resp.PaymentURL != "https://checkout.paystack.com/abc123" {
		t.Fatalf("payment url = %q", resp.PaymentURL)
	}
	if resp.WhatsApp || resp.WhatsAppURL != "" {
		t.Fatalf("card checkout produced whatsapp handoff")
	}

	if len(f.writer.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(f.writer.created))
	}
	order := f.writer.created[0]
	if order.TotalCents != 2*150000+40000 {
		t.Fatalf("total = %d, want %d", order.TotalCents, 2*150000+40000)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if order.CustomerName != "Amara Obi" || order.CustomerEmail != "amara@example.com" {
		t.Fatalf("customer snapshot = %q / %q", order.CustomerName, order.CustomerEmail)
	}
	if order.UserID == nil || *order.UserID != f.userID {
		t.Fatalf("order not linked to customer")
	}

	in := f.gateway.lastIn
	if in.AmountMinor != order.TotalCents {
		t.Fatalf("gateway amount = %d, want %d", in.AmountMinor, order.TotalCents)
	}
	if in.CallbackURL != "https://acme.tally.shop/order-confirmation" {
		t.Fatalf("callback url = %q", in.CallbackURL)
	}
	if in.Metadata["order_id"] != order.ID.String() {
		t.Fatalf("metadata order_id = %v", in.Metadata["order_id"])
	}
}

func TestCheckoutPricesFromCatalogNotClient(t *testing.T) {
	f := newFixture(t)

	// client-side prices are never part of the payload; a single tote at the
	// catalog price is the only thing that can be charged
	resp, err := f.svc.Checkout(context.Background(), f.userID, Input{
		StoreID:       f.storeID,
		CartItems:     []LineInput{{ID: f.toteID, Quantity: 3}},
		Domain:        "acme",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if resp.Order.TotalCents != 3*40000 {
		t.Fatalf("total = %d, want %d", resp.Order.TotalCents, 3*40000)
	}
	if resp.Order.Items[0].UnitPriceCents != 40000 {
		t.Fatalf("unit price = %d, want 40000", resp.Order.Items[0].UnitPriceCents)
	}
}

func TestCheckoutWhatsAppSkipsGateway(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), f.userID, f.input("whatsapp"))
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !resp.WhatsApp {
		t.Fatalf("expected whatsapp flag")
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/2348012345678?text=") {
		t.Fatalf("whatsapp url = %q", resp.WhatsAppURL)
	}
	if resp.PaymentURL != "" {
		t.Fatalf("whatsapp checkout returned a payment url")
	}
	if f.gateway.calls != 0 {
		t.Fatalf("gateway called %d times, want 0", f.gateway.calls)
	}
	if len(f.writer.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(f.writer.created))
	}
}

func TestCheckoutWhatsAppRequiresStorePhone(t *testing.T) {
	f := newFixture(t)
	f.stores.byID[f.storeID].WhatsAppPhone = nil

	_, err := f.svc.Checkout(context.Background(), f.userID, f.input("whatsapp"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if len(f.writer.created) != 0 {
		t.Fatalf("order written despite missing phone")
	}
}

func TestCheckoutGatewayFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeDependency, "transaction initialize rejected")

	_, err := f.svc.Checkout(context.Background(), f.userID, f.input("card"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("error = %v, want internal", err)
	}
	if appErr.Message() != "payment initialization failed" {
		t.Fatalf("message = %q", appErr.Message())
	}
	if len(f.writer.created) != 1 {
		t.Fatalf("order should stay committed after gateway failure, created = %d", len(f.writer.created))
	}
}

func TestCheckoutRejectsInactiveOrForeignProduct(t *testing.T) {
	f := newFixture(t)
	f.products.byID[f.dressID].Status = enums.ProductStatusDraft

	_, err := f.svc.Checkout(context.Background(), f.userID, f.input("card"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if len(f.writer.created) != 0 {
		t.Fatalf("order written for inactive product")
	}
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{
		StoreID:       f.storeID,
		CartItems:     []LineInput{{ID: f.dressID, Quantity: 6}},
		Domain:        "acme",
		PaymentMethod: "card",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestCheckoutConvertsActiveCart(t *testing.T) {
	f := newFixture(t)
	cartID := uuid.New()
	f.carts.active = &models.Cart{ID: cartID, UserID: f.userID, StoreID: f.storeID, Status: enums.CartStatusActive}

	_, err := f.svc.Checkout(context.Background(), f.userID, f.input("card"))
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(f.carts.converted) != 1 || f.carts.converted[0] != cartID {
		t.Fatalf("cart not converted: %v", f.carts.converted)
	}
	if f.writer.created[0].CartID == nil || *f.writer.created[0].CartID != cartID {
		t.Fatalf("order not linked to cart")
	}
}

func (f *checkoutFixture) seedReference(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		StoreID:       f.storeID,
		Reference:     "TLY-TEST12345678",
		Status:        status,
		PaymentMethod: enums.PaymentMethodCard,
		Currency:      enums.CurrencyNGN,
		TotalCents:    150000,
	}
	f.finalizer.byRef[order.Reference] = order
	return order
}

func TestVerifyMarksPendingOrderPaid(t *testing.T) {
	f := newFixture(t)
	order := f.seedReference(enums.OrderStatusPending)

	resp, err := f.svc.Verify(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.PaymentStatus != "success" {
		t.Fatalf("payment status = %q", resp.PaymentStatus)
	}
	if resp.Order.Status != enums.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid", resp.Order.Status)
	}
	if len(f.finalizer.updated) != 1 || f.finalizer.updated[0] != enums.OrderStatusPaid {
		t.Fatalf("status updates = %v, want one paid transition", f.finalizer.updated)
	}
	if f.gateway.verifyCalls != 1 {
		t.Fatalf("gateway verify calls = %d, want 1", f.gateway.verifyCalls)
	}
}

func TestVerifyIsIdempotentForPaidOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedReference(enums.OrderStatusPaid)

	resp, err := f.svc.Verify(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.Order.Status != enums.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid", resp.Order.Status)
	}
	if len(f.finalizer.updated) != 0 {
		t.Fatalf("paid order re-transitioned: %v", f.finalizer.updated)
	}
}

func TestVerifyKeepsUnsettledOrderPending(t *testing.T) {
	f := newFixture(t)
	order := f.seedReference(enums.OrderStatusPending)
	f.gateway.verifyTxn = &paystack.Transaction{Status: "failed", Reference: order.Reference}

	resp, err := f.svc.Verify(context.Background(), order.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.PaymentStatus != "failed" {
		t.Fatalf("payment status = %q", resp.PaymentStatus)
	}
	if resp.Order.Status != enums.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", resp.Order.Status)
	}
	if len(f.finalizer.updated) != 0 {
		t.Fatalf("unsettled payment updated the order: %v", f.finalizer.updated)
	}
}

func TestVerifyRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedReference(enums.OrderStatusCancelled)

	_, err := f.svc.Verify(context.Background(), order.Reference)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestVerifyUnknownReferenceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), "TLY-MISSING")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
	if f.gateway.verifyCalls != 0 {
		t.Fatalf("gateway queried for unknown reference")
	}
}

func TestVerifyGatewayErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	order := f.seedReference(enums.OrderStatusPending)
	f.gateway.verifyErr = errors.New("verify endpoint timed out")

	_, err := f.svc.Verify(context.Background(), order.Reference)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("error = %v, want internal", err)
	}
	if len(f.finalizer.updated) != 0 {
		t.Fatalf("gateway error still updated the order: %v", f.finalizer.updated)
	}
}
