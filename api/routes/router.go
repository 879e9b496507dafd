package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally-backend/api/controllers"
	"github.com/tallyhq/tally-backend/api/middleware"
	"github.com/tallyhq/tally-backend/internal/analytics"
	"github.com/tallyhq/tally-backend/internal/auth"
	"github.com/tallyhq/tally-backend/internal/cart"
	checkoutsvc "github.com/tallyhq/tally-backend/internal/checkout"
	"github.com/tallyhq/tally-backend/internal/orders"
	"github.com/tallyhq/tally-backend/internal/products"
	"github.com/tallyhq/tally-backend/internal/profiles"
	"github.com/tallyhq/tally-backend/internal/storefront"
	"github.com/tallyhq/tally-backend/internal/stores"
	"github.com/tallyhq/tally-backend/pkg/auth/session"
	"github.com/tallyhq/tally-backend/pkg/config"
	"github.com/tallyhq/tally-backend/pkg/gemini"
	"github.com/tallyhq/tally-backend/pkg/logger"
	"github.com/tallyhq/tally-backend/pkg/metrics"
	pkgredis "github.com/tallyhq/tally-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             pinger
	Redis          *pkgredis.Client
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTPMetrics

	AuthService      auth.Service
	RegisterService  auth.RegisterService
	StoreService     stores.Service
	ProfileService   profiles.Service
	ProductService   products.Service
	StorefrontSvc    storefront.Service
	CartService      cart.Service
	CheckoutService  checkoutsvc.Service
	OrderService     orders.Service
	AnalyticsService analytics.Service
	Generator        gemini.Generator
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.App.MainDomain),
		middleware.HostRouter(cfg.App, cfg.JWT, d.SessionManager),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/storefront/{domain}", func(r chi.Router) {
		r.Get("/", controllers.StorefrontCatalog(d.StorefrontSvc, logg))
		r.Get("/products/{productId}", controllers.StorefrontProduct(d.StorefrontSvc, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
			middleware.Idempotency(d.Redis, logg),
		).Post("/register", controllers.AuthRegister(d.RegisterService, logg))
		r.Post("/logout", controllers.AuthLogout(d.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.StoreCreate(d.StoreService, logg))
			r.Get("/me", controllers.StoreMine(d.StoreService, logg))
			r.Put("/me", controllers.StoreUpdate(d.StoreService, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(d.ProfileService, logg))
			r.Put("/", controllers.ProfileUpsert(d.ProfileService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.ProductService, logg))
			r.Post("/", controllers.ProductCreate(d.ProductService, logg))
			r.Get("/{productId}", controllers.ProductGet(d.ProductService, logg))
			r.Put("/{productId}", controllers.ProductUpdate(d.ProductService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(d.ProductService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.CartService, logg))
			r.Post("/items", controllers.CartAddItem(d.CartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(d.CartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(d.CartService, logg))
			r.Delete("/", controllers.CartClear(d.CartService, logg))
		})

		r.Post("/checkout", controllers.CheckoutCreate(d.CheckoutService, logg))
		r.Get("/checkout/verify/{reference}", controllers.CheckoutVerify(d.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(d.OrderService, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(d.OrderService, logg))
		})

		r.Get("/analytics", controllers.AnalyticsSummary(d.AnalyticsService, logg))
		r.Get("/customers", controllers.CustomerList(d.AnalyticsService, logg))

		r.Post("/ai/generate", controllers.AIGenerate(d.Generator, logg))
	})

	return r
}
