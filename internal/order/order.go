// Package order serves a user's order history.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Service reads orders on behalf of their owner.
type Service struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewService creates an order service.
func NewService(orders repository.OrderRepository, logger *slog.Logger) *Service {
	return &Service{orders: orders, logger: logger}
}

// List returns the identity's orders, newest first, without items.
func (s *Service) List(ctx context.Context, identity *domain.Identity) ([]domain.Order, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("sign in to view your orders")
	}
	orders, err := s.orders.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order with its items. An order owned by someone else is
// reported as not found.
func (s *Service) Get(ctx context.Context, identity *domain.Identity, orderID string) (*domain.Order, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("sign in to view your orders")
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.UserID != identity.UserID {
		s.logger.WarnContext(ctx, "order requested by non-owner",
			slog.String("order_id", orderID),
			slog.String("user_id", identity.UserID),
		)
		return nil, apperrors.NotFound("order", orderID)
	}
	return o, nil
}
