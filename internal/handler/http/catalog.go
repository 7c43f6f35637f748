package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
)

// CatalogHandler handles the product listing, detail, search and home endpoints.
type CatalogHandler struct {
	presenter
	pipeline *catalog.Pipeline
	logger   *slog.Logger
}

// NewCatalogHandler creates a catalog HTTP handler.
func NewCatalogHandler(pipeline *catalog.Pipeline, currency string, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		presenter: presenter{currency: currency},
		pipeline:  pipeline,
		logger:    logger,
	}
}

type homeResponse struct {
	Categories  []domain.Category `json:"categories"`
	Featured    []productView     `json:"featured"`
	NewArrivals []productView     `json:"new_arrivals"`
}

type listResponse struct {
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	Products []productView  `json:"products"`
	Facets   catalog.Facets `json:"facets"`
	Query    string         `json:"query"`
	Degraded bool           `json:"degraded,omitempty"`
}

// Home handles GET /api/v1/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	home := h.pipeline.Home(r.Context())
	httputil.WriteData(w, http.StatusOK, homeResponse{
		Categories:  home.Categories,
		Featured:    h.products(home.Featured),
		NewArrivals: h.products(home.NewArrivals),
	})
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.pipeline.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// ListProducts handles GET /api/v1/products?category&search&featured&new&sort
//
// A failed fetch still answers 200 with an empty, degraded listing.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	facets := catalog.FacetsFromQuery(r.URL.Query())
	res := h.pipeline.Products(r.Context(), facets)

	httputil.WriteData(w, http.StatusOK, listResponse{
		Title:    res.Title,
		Count:    len(res.Products),
		Products: h.products(res.Products),
		Facets:   res.Facets,
		Query:    res.Facets.Query().Encode(),
		Degraded: res.Degraded,
	})
}

// Suggest handles GET /api/v1/products/suggest?q=
func (h *CatalogHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	products, err := h.pipeline.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.products(products))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.pipeline.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.product(*product))
}
