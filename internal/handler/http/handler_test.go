package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/order"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type failingProducts struct {
	repository.ProductRepository
}

func (failingProducts) List(context.Context, repository.ProductQuery) ([]domain.Product, error) {
	return nil, errors.New("data service unreachable")
}

type routerOption func(*repository.Store, *Options)

func newTestRouter(t *testing.T, opts ...routerOption) http.Handler {
	t.Helper()
	db := memory.New()
	memory.Seed(db)
	store := db.Store()

	o := Options{
		Currency:           "USD",
		CORS:               middleware.DefaultCORSConfig(),
		AuthRateLimitRPS:   100,
		AuthRateLimitBurst: 100,
		CatalogMaxAge:      60,
	}
	for _, opt := range opts {
		opt(&store, &o)
	}

	logger := testLogger()
	publisher := event.Noop{}
	carts := cart.NewService(store.Carts, store.CartItems, publisher, logger)
	svcs := Services{
		Catalog:  catalog.NewPipeline(store.Products, store.Categories, logger),
		Carts:    carts,
		Checkout: checkout.NewService(carts, store.Orders, publisher, decimal.Zero, logger),
		Orders:   order.NewService(store.Orders, logger),
		Identity: identity.NewService(store.Users, identity.NewTokenIssuer("handler-test-secret-handler-test-secret", time.Hour),
			identity.NewMemorySessionStore(), logger).WithHashCost(bcrypt.MinCost),
	}
	return NewRouter(svcs, health.NewHandler(), o, logger)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type listBody struct {
	Title    string `json:"title"`
	Count    int    `json:"count"`
	Query    string `json:"query"`
	Degraded bool   `json:"degraded"`
	Products []struct {
		ID           string `json:"id"`
		Price        string `json:"price"`
		PriceDisplay string `json:"price_display"`
	} `json:"products"`
}

func productIDs(b listBody) []string {
	ids := make([]string, len(b.Products))
	for i, p := range b.Products {
		ids[i] = p.ID
	}
	return ids
}

func signUp(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"full_name": "Test User", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decodeData[struct {
		AccessToken string `json:"access_token"`
	}](t, env)
	require.NotEmpty(t, sess.AccessToken)
	return sess.AccessToken
}

// ============================================================================
// Catalog
// ============================================================================

func TestListProducts_NewestFirstByDefault(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeData[listBody](t, env)
	assert.Equal(t, "All Products", body.Title)
	assert.Equal(t, 6, body.Count)
	assert.Equal(t, []string{"prod-tee", "prod-speaker", "prod-kettle", "prod-charger", "prod-jacket", "prod-headphones"}, productIDs(body))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}

func TestListProducts_CategoryAndSort(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/products?category=electronics&sort=price-high", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeData[listBody](t, env)
	assert.Equal(t, "electronics", body.Title)
	assert.Equal(t, []string{"prod-headphones", "prod-speaker", "prod-charger"}, productIDs(body))
	assert.Equal(t, "129.99", body.Products[0].Price)
	assert.Equal(t, "$129.99", body.Products[0].PriceDisplay)
	assert.Equal(t, "category=electronics&sort=price-high", body.Query)
}

func TestListProducts_UnknownCategoryIsNoop(t *testing.T) {
	h := newTestRouter(t)

	_, env := do(t, h, http.MethodGet, "/api/v1/products?category=Garden", "", nil)
	body := decodeData[listBody](t, env)
	assert.Equal(t, 6, body.Count)
}

func TestListProducts_SearchAndFlags(t *testing.T) {
	h := newTestRouter(t)

	_, env := do(t, h, http.MethodGet, "/api/v1/products?search=CHARGER", "", nil)
	body := decodeData[listBody](t, env)
	assert.Equal(t, `Search: "CHARGER"`, body.Title)
	assert.Equal(t, []string{"prod-charger"}, productIDs(body))

	_, env = do(t, h, http.MethodGet, "/api/v1/products?featured=true&new=true", "", nil)
	body = decodeData[listBody](t, env)
	assert.Equal(t, []string{"prod-tee"}, productIDs(body))
}

func TestListProducts_FetchFailureIsDegraded(t *testing.T) {
	h := newTestRouter(t, func(s *repository.Store, _ *Options) {
		s.Products = failingProducts{ProductRepository: s.Products}
	})

	rec, env := do(t, h, http.MethodGet, "/api/v1/products?search=tee", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeData[listBody](t, env)
	assert.True(t, body.Degraded)
	assert.Equal(t, 0, body.Count)
	assert.Empty(t, body.Products)
}

func TestHome(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/home", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type ref struct {
		ID string `json:"id"`
	}
	home := decodeData[struct {
		Categories  []domain.Category `json:"categories"`
		Featured    []ref             `json:"featured"`
		NewArrivals []ref             `json:"new_arrivals"`
	}](t, env)
	assert.Len(t, home.Categories, 3)
	assert.Len(t, home.Featured, 3)
	assert.Len(t, home.NewArrivals, 2)
	assert.Equal(t, "prod-tee", home.Featured[0].ID)
}

func TestSuggest(t *testing.T) {
	h := newTestRouter(t)

	_, env := do(t, h, http.MethodGet, "/api/v1/products/suggest?q=e", "", nil)
	assert.JSONEq(t, `[]`, string(env.Data))

	_, env = do(t, h, http.MethodGet, "/api/v1/products/suggest?q=er", "", nil)
	got := decodeData[[]struct{ ID string }](t, env)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), catalog.SuggestLimit)
}

func TestGetProduct(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/products/prod-jacket", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeData[struct {
		ID           string `json:"id"`
		CategoryName string `json:"category_name"`
		InStock      bool   `json:"in_stock"`
	}](t, env)
	assert.Equal(t, "Clothing", p.CategoryName)
	assert.False(t, p.InStock)

	rec, env = do(t, h, http.MethodGet, "/api/v1/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

// ============================================================================
// Cart, checkout and orders
// ============================================================================

type cartBody struct {
	SignedIn        bool   `json:"signed_in"`
	State           string `json:"state"`
	ItemCount       int    `json:"item_count"`
	Subtotal        string `json:"subtotal"`
	SubtotalDisplay string `json:"subtotal_display"`
	Items           []struct {
		ID        string `json:"id"`
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func TestGetCart_AnonymousPrompt(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	c := decodeData[cartBody](t, env)
	assert.False(t, c.SignedIn)
	assert.Equal(t, "ready", c.State)
	assert.Empty(t, c.Items)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestCartMutations_RequireAuth(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/cart/items", "", map[string]any{"product_id": "prod-tee"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "shopper@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "prod-tee", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, env = do(t, h, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "prod-tee", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	c := decodeData[cartBody](t, env)
	assert.True(t, c.SignedIn)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString(c.Subtotal).Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "$120.00", c.SubtotalDisplay)

	// Add without a quantity adds one.
	_, env = do(t, h, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "prod-charger"})
	c = decodeData[cartBody](t, env)
	require.Len(t, c.Items, 2)
	chargerID := c.Items[1].ID
	assert.Equal(t, 1, c.Items[1].Quantity)

	_, env = do(t, h, http.MethodPut, "/api/v1/cart/items/"+chargerID, token, map[string]any{"quantity": 0})
	c = decodeData[cartBody](t, env)
	assert.Len(t, c.Items, 1)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/cart/items/"+chargerID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decodeData[struct {
		Quote struct {
			Total        string `json:"total"`
			TotalDisplay string `json:"total_display"`
			FreeShipping bool   `json:"free_shipping"`
		} `json:"quote"`
	}](t, env)
	assert.Equal(t, "$120.00", quote.Quote.TotalDisplay)
	assert.True(t, quote.Quote.FreeShipping)

	rec, env = do(t, h, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"shipping_address": "1 Main St", "city": "Springfield", "postal_code": "12345", "country": "US",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeData[struct {
		ID            string `json:"id"`
		ShortID       string `json:"short_id"`
		StatusDisplay string `json:"status_display"`
		TotalDisplay  string `json:"total_display"`
		Items         []struct {
			ProductName string `json:"product_name"`
			Quantity    int    `json:"quantity"`
		} `json:"items"`
	}](t, env)
	assert.Equal(t, "Pending", placed.StatusDisplay)
	assert.Len(t, placed.ShortID, 8)
	assert.Equal(t, "$120.00", placed.TotalDisplay)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "Organic Cotton Tee", placed.Items[0].ProductName)

	_, env = do(t, h, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Empty(t, decodeData[cartBody](t, env).Items)

	_, env = do(t, h, http.MethodGet, "/api/v1/orders", token, nil)
	orders := decodeData[[]struct {
		ID string `json:"id"`
	}](t, env)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/orders/"+placed.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := signUp(t, h, "someone-else@example.com")
	rec, _ = do(t, h, http.MethodGet, "/api/v1/orders/"+placed.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_EmptyCartAndValidation(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "empty@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"shipping_address": "1 Main St", "city": "Springfield", "postal_code": "12345", "country": "US",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "cart is empty", env.Error.Message)

	rec, env = do(t, h, http.MethodPost, "/api/v1/checkout", token, map[string]string{"city": "Springfield"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "shipping_address")
}

func TestAddItem_Validation(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "v@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "product_id")

	rec, _ = do(t, h, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "prod-missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Auth
// ============================================================================

func TestAuth_SignInMeSignOut(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "me@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email": "ME@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decodeData[struct {
		AccessToken string `json:"access_token"`
	}](t, env).AccessToken

	rec, env = do(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeData[map[string]any](t, env)
	assert.Equal(t, "me@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	rec, _ = do(t, h, http.MethodPost, "/api/v1/auth/sign-out", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_DuplicateAndWrongPassword(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "dup@example.com")

	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"full_name": "Again", "email": "dup@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "already registered")

	rec, _ = do(t, h, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email": "dup@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RateLimited(t *testing.T) {
	h := newTestRouter(t, func(_ *repository.Store, o *Options) {
		o.AuthRateLimitRPS = 0.001
		o.AuthRateLimitBurst = 1
	})
	creds := map[string]string{"email": "x@example.com", "password": "whatever"}

	rec, _ := do(t, h, http.MethodPost, "/api/v1/auth/sign-in", "", creds)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/auth/sign-in", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthLive(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
