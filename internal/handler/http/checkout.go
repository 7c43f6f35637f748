package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/identity"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// CheckoutHandler handles the checkout quote and order placement.
type CheckoutHandler struct {
	presenter
	carts    *cart.Service
	checkout *checkout.Service
	logger   *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(carts *cart.Service, svc *checkout.Service, currency string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		presenter: presenter{currency: currency},
		carts:     carts,
		checkout:  svc,
		logger:    logger,
	}
}

type checkoutResponse struct {
	Cart  cartView  `json:"cart"`
	Quote quoteView `json:"quote"`
}

// Quote handles GET /api/v1/checkout
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Open(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, checkoutResponse{
		Cart:  h.cart(c),
		Quote: h.quote(h.checkout.Summary(c)),
	})
}

// PlaceOrder handles POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var form checkout.ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), identity.FromContext(r.Context()), form)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, h.order(*order))
}
