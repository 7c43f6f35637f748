package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/order"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// Services are the storefront services exposed over HTTP.
type Services struct {
	Catalog  *catalog.Pipeline
	Carts    *cart.Service
	Checkout *checkout.Service
	Orders   *order.Service
	Identity *identity.Service
}

// Options tune the router.
type Options struct {
	Currency           string
	CORS               middleware.CORSConfig
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	CatalogMaxAge      int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, opts Options, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	catalogHandler := NewCatalogHandler(svcs.Catalog, opts.Currency, logger)
	cartHandler := NewCartHandler(svcs.Carts, opts.Currency, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Carts, svcs.Checkout, opts.Currency, logger)
	orderHandler := NewOrderHandler(svcs.Orders, opts.Currency, logger)
	authHandler := NewAuthHandler(svcs.Identity, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(svcs.Identity.ValidateToken))
		r.Use(middleware.RequestLogger(logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(opts.CatalogMaxAge))

			r.Get("/home", catalogHandler.Home)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/suggest", catalogHandler.Suggest)
			r.Get("/products/{id}", catalogHandler.GetProduct)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.AuthRateLimitRPS, opts.AuthRateLimitBurst, logger))
			r.Use(middleware.NoStore)

			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/sign-in", authHandler.SignIn)
			r.With(middleware.RequireAuth).Post("/sign-out", authHandler.SignOut)
			r.With(middleware.RequireAuth).Get("/me", authHandler.Me)
		})

		// An anonymous GET /cart answers with an empty, signed-out cart.
		r.With(middleware.NoStore).Get("/cart", cartHandler.GetCart)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireAuth)

			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{id}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{id}", cartHandler.RemoveItem)

			r.Get("/checkout", checkoutHandler.Quote)
			r.Post("/checkout", checkoutHandler.PlaceOrder)

			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)
		})
	})

	return r
}
