// Package checkout turns a signed-in user's cart into an order.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// ShippingForm is the destination entered on the checkout page.
type ShippingForm struct {
	Address    string `json:"shipping_address" validate:"required,notblank,max=300"`
	City       string `json:"city" validate:"required,notblank,max=100"`
	PostalCode string `json:"postal_code" validate:"required,notblank,max=20"`
	Country    string `json:"country" validate:"required,notblank,max=100"`
}

func (f ShippingForm) details() domain.ShippingDetails {
	return domain.ShippingDetails{
		Address:    strings.TrimSpace(f.Address),
		City:       strings.TrimSpace(f.City),
		PostalCode: strings.TrimSpace(f.PostalCode),
		Country:    strings.TrimSpace(f.Country),
	}
}

// Quote is the price breakdown shown before an order is placed.
type Quote struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// Service places orders.
type Service struct {
	carts     *cart.Service
	orders    repository.OrderRepository
	publisher event.Publisher
	shipping  decimal.Decimal
	logger    *slog.Logger
}

// NewService creates a checkout service charging a flat shipping amount per
// order. A zero amount means free shipping.
func NewService(carts *cart.Service, orders repository.OrderRepository, publisher event.Publisher, shipping decimal.Decimal, logger *slog.Logger) *Service {
	return &Service{
		carts:     carts,
		orders:    orders,
		publisher: publisher,
		shipping:  shipping,
		logger:    logger,
	}
}

// Summary quotes c at its current contents.
func (s *Service) Summary(c *cart.Cart) Quote {
	subtotal := c.Subtotal()
	return Quote{
		ItemCount: c.ItemCount(),
		Subtotal:  subtotal,
		Shipping:  s.shipping,
		Total:     subtotal.Add(s.shipping),
	}
}

// PlaceOrder snapshots the identity's cart into a pending order, then clears
// the cart. The cart must be confirmed empty before the order is returned.
func (s *Service) PlaceOrder(ctx context.Context, identity *domain.Identity, form ShippingForm) (*domain.Order, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("sign in to check out")
	}
	if err := validator.Validate(form); err != nil {
		return nil, err
	}

	c, err := s.carts.Open(ctx, identity)
	if err != nil {
		return nil, err
	}
	items := c.Items()
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	quote := s.Summary(c)
	order := &domain.Order{
		UserID:          identity.UserID,
		Status:          domain.OrderStatusPending,
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Total:           quote.Total,
		ShippingDetails: form.details(),
		Items:           make([]domain.OrderItem, len(items)),
	}
	for i, item := range items {
		order.Items[i] = domain.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.Product.Name,
			ProductPrice: item.Product.Price,
			Quantity:     item.Quantity,
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := c.ClearCart(ctx); err != nil {
		s.logger.ErrorContext(ctx, "order placed but cart was not cleared",
			slog.String("order_id", order.ID),
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("clear cart after order %s: %w", order.ID, err)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", identity.UserID),
		slog.Int("items", len(order.Items)),
		slog.String("total", order.Total.StringFixed(2)),
	)

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}
