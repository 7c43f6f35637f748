package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/order"
	"github.com/utafrali/storefront/pkg/httputil"
)

// OrderHandler serves the order history endpoints.
type OrderHandler struct {
	presenter
	svc    *order.Service
	logger *slog.Logger
}

// NewOrderHandler creates an order HTTP handler.
func NewOrderHandler(orders *order.Service, currency string, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		presenter: presenter{currency: currency},
		svc:       orders,
		logger:    logger,
	}
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.orders(orders))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.order(*o))
}
