package rest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartRepository reads and creates rows of the carts table.
type CartRepository struct{ c *Client }

// GetOrCreate returns the user's cart. A concurrent first use that loses the
// unique(user_id) race re-reads the winner's row.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.find(ctx, userID)
	if err != nil || cart != nil {
		return cart, err
	}

	var created []domain.Cart
	err = r.c.insert(ctx, "carts", map[string]string{"user_id": userID}, &created)
	switch {
	case errors.Is(err, apperrors.ErrAlreadyExists):
		cart, err = r.find(ctx, userID)
		if err == nil && cart == nil {
			return nil, apperrors.Conflict("cart for user " + userID + " is being created")
		}
		return cart, err
	case err != nil:
		return nil, fmt.Errorf("create cart: %w", err)
	case len(created) == 0:
		return nil, fmt.Errorf("create cart: empty representation")
	}
	return &created[0], nil
}

func (r *CartRepository) find(ctx context.Context, userID string) (*domain.Cart, error) {
	var carts []domain.Cart
	q := url.Values{"select": {"*"}, "user_id": {eq(userID)}, "limit": {"1"}}
	if err := r.c.get(ctx, "carts", q, &carts); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(carts) == 0 {
		return nil, nil
	}
	return &carts[0], nil
}

// CartItemRepository manages rows of the cart_items table.
type CartItemRepository struct{ c *Client }

const cartItemSelect = "id,cart_id,product_id,quantity,created_at,products(*)"

type cartItemRow struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cart_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Products  *domain.Product `json:"products"`
	CreatedAt time.Time       `json:"created_at"`
}

func (row cartItemRow) item() domain.CartItem {
	item := domain.CartItem{
		ID:        row.ID,
		CartID:    row.CartID,
		ProductID: row.ProductID,
		Quantity:  row.Quantity,
		CreatedAt: row.CreatedAt,
	}
	if row.Products != nil {
		item.Product = *row.Products
	}
	return item
}

// List returns the cart's items with their products, oldest first.
func (r *CartItemRepository) List(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	var rows []cartItemRow
	q := url.Values{
		"select":  {cartItemSelect},
		"cart_id": {eq(cartID)},
		"order":   {"created_at.asc"},
	}
	if err := r.c.get(ctx, "cart_items", q, &rows); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	items := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

// FindByProduct returns the item holding productID.
func (r *CartItemRepository) FindByProduct(ctx context.Context, cartID, productID string) (*domain.CartItem, error) {
	var rows []cartItemRow
	q := url.Values{
		"select":     {"id,cart_id,product_id,quantity,created_at"},
		"cart_id":    {eq(cartID)},
		"product_id": {eq(productID)},
		"limit":      {"1"},
	}
	if err := r.c.get(ctx, "cart_items", q, &rows); err != nil {
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}
	item := rows[0].item()
	return &item, nil
}

type cartItemInsert struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Create inserts a new item and fills in its ID.
func (r *CartItemRepository) Create(ctx context.Context, item *domain.CartItem) error {
	var created []cartItemRow
	body := cartItemInsert{CartID: item.CartID, ProductID: item.ProductID, Quantity: item.Quantity}
	if err := r.c.insert(ctx, "cart_items", body, &created); err != nil {
		return fmt.Errorf("create cart item: %w", err)
	}
	if len(created) == 0 {
		return fmt.Errorf("create cart item: empty representation")
	}
	item.ID = created[0].ID
	item.CreatedAt = created[0].CreatedAt
	return nil
}

// UpdateQuantity overwrites the stored quantity.
func (r *CartItemRepository) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	var updated []cartItemRow
	q := url.Values{"id": {eq(itemID)}, "cart_id": {eq(cartID)}, "select": {"id"}}
	if err := r.c.patch(ctx, "cart_items", q, map[string]int{"quantity": quantity}, &updated); err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if len(updated) == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// Delete removes one item.
func (r *CartItemRepository) Delete(ctx context.Context, cartID, itemID string) error {
	var deleted []cartItemRow
	q := url.Values{"id": {eq(itemID)}, "cart_id": {eq(cartID)}, "select": {"id"}}
	if err := r.c.remove(ctx, "cart_items", q, &deleted); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if len(deleted) == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// DeleteByCart removes every item of the cart.
func (r *CartItemRepository) DeleteByCart(ctx context.Context, cartID string) error {
	if err := r.c.remove(ctx, "cart_items", url.Values{"cart_id": {eq(cartID)}}, nil); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}
