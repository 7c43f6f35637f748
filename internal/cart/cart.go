// Package cart keeps a signed-in user's cart consistent with the remote cart
// record. Every mutation is followed by a full re-read of the item list, so
// the in-memory copy never holds state the data service has not confirmed.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// State is the lifecycle state of a Cart.
type State int

// Cart states.
const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Service opens carts.
type Service struct {
	carts     repository.CartRepository
	items     repository.CartItemRepository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewService creates a cart service.
func NewService(carts repository.CartRepository, items repository.CartItemRepository, publisher event.Publisher, logger *slog.Logger) *Service {
	return &Service{
		carts:     carts,
		items:     items,
		publisher: publisher,
		logger:    logger,
	}
}

// Open returns the cart of identity, loaded and Ready. A nil identity gets
// an empty Ready cart without touching the data service.
func (s *Service) Open(ctx context.Context, identity *domain.Identity) (*Cart, error) {
	c := &Cart{svc: s, identity: identity, items: []domain.CartItem{}}
	if identity == nil {
		c.state = StateReady
		return c, nil
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Cart is one user's cart as last read from the data service. It is safe
// for concurrent use; mutations are serialised.
type Cart struct {
	svc      *Service
	identity *domain.Identity

	mu     sync.Mutex
	state  State
	record *domain.Cart
	items  []domain.CartItem
}

// SignedIn reports whether the cart belongs to an authenticated user.
func (c *Cart) SignedIn() bool { return c.identity != nil }

// State returns the current lifecycle state.
func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID returns the remote cart ID, or "" for an anonymous cart.
func (c *Cart) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return ""
	}
	return c.record.ID
}

// Items returns a copy of the current items, oldest first.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CartItem{}, c.items...)
}

// Subtotal is Σ price × quantity over the current items.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Subtotal(c.items)
}

// ItemCount is the total quantity across items.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ItemCount(c.items)
}

// Reload re-reads the cart and its items.
func (c *Cart) Reload(ctx context.Context) error {
	if c.identity == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx)
}

func (c *Cart) reloadLocked(ctx context.Context) error {
	prev := c.state
	c.state = StateLoading

	if c.record == nil {
		record, err := c.svc.carts.GetOrCreate(ctx, c.identity.UserID)
		if err != nil {
			c.state = prev
			return fmt.Errorf("open cart: %w", err)
		}
		c.record = record
	}

	items, err := c.svc.items.List(ctx, c.record.ID)
	if err != nil {
		c.state = prev
		return fmt.Errorf("load cart items: %w", err)
	}
	c.items = items
	c.state = StateReady
	return nil
}

// mutate runs fn against the remote cart and re-reads the cart afterwards.
// A failed fn leaves the items as they were. When fn succeeds but the re-read
// fails, the local copy is dropped so the next read fetches the remote cart.
func (c *Cart) mutate(ctx context.Context, fn func(cartID string) error) error {
	if c.identity == nil {
		return apperrors.Unauthorized("sign in to change your cart")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.record == nil {
		if err := c.reloadLocked(ctx); err != nil {
			return err
		}
	}

	c.state = StateLoading
	if err := fn(c.record.ID); err != nil {
		c.state = StateReady
		return err
	}
	if err := c.reloadLocked(ctx); err != nil {
		c.record = nil
		c.items = nil
		c.state = StateReady
		return err
	}
	return nil
}

// AddToCart adds quantity of productID, incrementing the existing item when
// the product is already in the cart. A quantity below one adds one.
//
// There is no idempotency token: retrying a call whose response was lost
// adds the quantity again.
func (c *Cart) AddToCart(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	err := c.mutate(ctx, func(cartID string) error {
		return c.addItem(ctx, cartID, productID, quantity)
	})
	if err != nil {
		return err
	}

	c.svc.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", c.identity.UserID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	c.publishUpdated(ctx)
	return nil
}

func (c *Cart) addItem(ctx context.Context, cartID, productID string, quantity int) error {
	items := c.svc.items

	existing, err := items.FindByProduct(ctx, cartID, productID)
	switch {
	case err == nil:
		if err := items.UpdateQuantity(ctx, cartID, existing.ID, existing.Quantity+quantity); err != nil {
			return fmt.Errorf("increment cart item: %w", err)
		}
		return nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("find cart item: %w", err)
	}

	err = items.Create(ctx, &domain.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		// Another session created the item between the read and the insert.
		existing, err = items.FindByProduct(ctx, cartID, productID)
		if err != nil {
			return fmt.Errorf("find cart item: %w", err)
		}
		if err := items.UpdateQuantity(ctx, cartID, existing.ID, existing.Quantity+quantity); err != nil {
			return fmt.Errorf("increment cart item: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("create cart item: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of an item. A quantity of zero or less
// removes the item.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveFromCart(ctx, itemID)
	}

	err := c.mutate(ctx, func(cartID string) error {
		if err := c.svc.items.UpdateQuantity(ctx, cartID, itemID, quantity); err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.svc.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", c.identity.UserID),
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)
	c.publishUpdated(ctx)
	return nil
}

// RemoveFromCart deletes an item. Removing an item that is not in the cart
// returns a NOT_FOUND error.
func (c *Cart) RemoveFromCart(ctx context.Context, itemID string) error {
	err := c.mutate(ctx, func(cartID string) error {
		if err := c.svc.items.Delete(ctx, cartID, itemID); err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.svc.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", c.identity.UserID),
		slog.String("item_id", itemID),
	)
	c.publishUpdated(ctx)
	return nil
}

// ClearCart deletes every item and confirms by re-reading that the cart is
// empty before returning.
func (c *Cart) ClearCart(ctx context.Context) error {
	err := c.mutate(ctx, func(cartID string) error {
		if err := c.svc.items.DeleteByCart(ctx, cartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	remaining := len(c.items)
	record := c.record
	c.mu.Unlock()
	if remaining > 0 {
		return apperrors.Conflict(fmt.Sprintf("cart still holds %d items after clearing", remaining))
	}

	c.svc.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", c.identity.UserID))
	if err := c.svc.publisher.PublishCartCleared(ctx, record); err != nil {
		c.svc.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", c.identity.UserID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (c *Cart) publishUpdated(ctx context.Context) {
	c.mu.Lock()
	record := c.record
	items := append([]domain.CartItem{}, c.items...)
	c.mu.Unlock()

	if err := c.svc.publisher.PublishCartUpdated(ctx, record, items); err != nil {
		c.svc.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", c.identity.UserID),
			slog.String("error", err.Error()),
		)
	}
}
