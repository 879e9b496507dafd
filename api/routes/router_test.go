package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/internal/analytics"
	"github.com/tallyhq/tally-backend/internal/auth"
	"github.com/tallyhq/tally-backend/internal/cart"
	checkoutsvc "github.com/tallyhq/tally-backend/internal/checkout"
	"github.com/tallyhq/tally-backend/internal/orders"
	"github.com/tallyhq/tally-backend/internal/products"
	"github.com/tallyhq/tally-backend/internal/profiles"
	"github.com/tallyhq/tally-backend/internal/storefront"
	"github.com/tallyhq/tally-backend/internal/stores"
	pkgAuth "github.com/tallyhq/tally-backend/pkg/auth"
	"github.com/tallyhq/tally-backend/pkg/auth/session"
	"github.com/tallyhq/tally-backend/pkg/config"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct {
	ok bool
}

func (s stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest, clientIP string) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest, clientIP string) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

type stubStoreService struct{}

func (stubStoreService) Create(ctx context.Context, ownerID uuid.UUID, input stores.CreateStoreInput) (*stores.StoreDTO, error) {
	panic("unimplemented")
}

func (stubStoreService) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*stores.StoreDTO, error) {
	panic("unimplemented")
}

func (stubStoreService) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	panic("unimplemented")
}

func (stubStoreService) Update(ctx context.Context, ownerID uuid.UUID, input stores.UpdateStoreInput) (*stores.StoreDTO, error) {
	panic("unimplemented")
}

type stubProfileService struct{}

func (stubProfileService) Get(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, error) {
	return &profiles.ProfileDTO{}, nil
}

func (stubProfileService) Upsert(ctx context.Context, userID uuid.UUID, input profiles.UpdateProfileInput) (*profiles.ProfileDTO, error) {
	panic("unimplemented")
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, storeID uuid.UUID, input products.CreateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) Get(ctx context.Context, storeID, productID uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, storeID uuid.UUID, query products.ListQuery) (*products.ProductListDTO, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, storeID, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, storeID, productID uuid.UUID) error {
	panic("unimplemented")
}

type stubStorefrontService struct{}

func (stubStorefrontService) Catalog(ctx context.Context, domain string) (*storefront.CatalogDTO, error) {
	return &storefront.CatalogDTO{}, nil
}

func (stubStorefrontService) Product(ctx context.Context, domain string, productID uuid.UUID) (*storefront.ProductPageDTO, error) {
	panic("unimplemented")
}

func (stubStorefrontService) ResolveStore(ctx context.Context, domain string) (*models.Store, error) {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*checkoutsvc.Response, error) {
	panic("unimplemented")
}

func (stubCheckoutService) Verify(ctx context.Context, reference string) (*checkoutsvc.VerifyResponse, error) {
	panic("unimplemented")
}

type stubOrderService struct{}

func (stubOrderService) List(ctx context.Context, storeID uuid.UUID, query orders.ListQuery) (*orders.OrderListDTO, error) {
	return &orders.OrderListDTO{}, nil
}

func (stubOrderService) Get(ctx context.Context, storeID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

type stubAnalyticsService struct{}

func (stubAnalyticsService) Summary(ctx context.Context, storeID uuid.UUID, days int) (*analytics.SummaryDTO, error) {
	panic("unimplemented")
}

func (stubAnalyticsService) Customers(ctx context.Context, storeID uuid.UUID) ([]analytics.CustomerDTO, error) {
	panic("unimplemented")
}

type stubGenerator struct{}

func (stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "generated", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", MainDomain: "tally.shop"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config, sessions stubSessionManager) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:           cfg,
		Logger:           logg,
		DB:               stubPinger{},
		Redis:            nil,
		SessionManager:   sessions,
		AuthService:      stubAuthService{},
		RegisterService:  stubRegisterService{},
		StoreService:     stubStoreService{},
		ProfileService:   stubProfileService{},
		ProductService:   stubProductService{},
		StorefrontSvc:    stubStorefrontService{},
		CartService:      stubCartService{},
		CheckoutService:  stubCheckoutService{},
		OrderService:     stubOrderService{},
		AnalyticsService: stubAnalyticsService{},
		Generator:        stubGenerator{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	storeID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		StoreID: &storeID,
		JTI:     session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), stubSessionManager{ok: true})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig(), stubSessionManager{ok: true})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestStorefrontIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), stubSessionManager{ok: true})
	req := httptest.NewRequest(http.MethodGet, "/storefront/acme.tally.shop", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for storefront catalog got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubSessionManager{ok: true})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedRouteAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubSessionManager{ok: true})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile got %d", resp.Code)
	}
}

func TestRevokedSessionRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubSessionManager{ok: false})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubSessionManager{ok: true})
	body := strings.NewReader(`{"store_id":"` + uuid.NewString() + `","cart_items":[],"domain":"acme","payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}
