package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartRepository implements repository.CartRepository.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreate upserts the user's cart row and returns it.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (cart *domain.Cart, err error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const query = `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at`

	ctx, end := database.TraceQuery(ctx, "GetOrCreateCart", query)
	defer func() { end(err) }()

	var c domain.Cart
	if err := r.pool.QueryRow(ctx, query, uuid.New().String(), userID).Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return &c, nil
}

// CartItemRepository implements repository.CartItemRepository.
type CartItemRepository struct {
	pool database.DBTX
}

// NewCartItemRepository creates a PostgreSQL-backed cart item repository.
func NewCartItemRepository(pool database.DBTX) *CartItemRepository {
	return &CartItemRepository{pool: pool}
}

// List returns the cart's items joined with their products, oldest first.
func (r *CartItemRepository) List(ctx context.Context, cartID string) (items []domain.CartItem, err error) {
	query := `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ` + productColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id`

	ctx, end := database.TraceQuery(ctx, "ListCartItems", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items = make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		productTargets, finish := productScanTargets(&item.Product)
		targets := append([]any{&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt}, productTargets...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		finish()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// FindByProduct returns the item for productID.
func (r *CartItemRepository) FindByProduct(ctx context.Context, cartID, productID string) (item *domain.CartItem, err error) {
	const query = `
		SELECT id, cart_id, product_id, quantity, created_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`

	ctx, end := database.TraceQuery(ctx, "FindCartItem", query)
	defer func() { end(err) }()

	var ci domain.CartItem
	if err := r.pool.QueryRow(ctx, query, cartID, productID).Scan(&ci.ID, &ci.CartID, &ci.ProductID, &ci.Quantity, &ci.CreatedAt); err != nil {
		if isNoRow(err) {
			return nil, apperrors.NotFound("cart item", productID)
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return &ci, nil
}

// Create inserts a new item.
func (r *CartItemRepository) Create(ctx context.Context, item *domain.CartItem) (err error) {
	const query = `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	ctx, end := database.TraceQuery(ctx, "CreateCartItem", query)
	defer func() { end(err) }()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.pool.QueryRow(ctx, query, item.ID, item.CartID, item.ProductID, item.Quantity).Scan(&item.CreatedAt); err != nil {
		switch pgErrorCode(err) {
		case uniqueViolation:
			return apperrors.AlreadyExists("cart item", "product_id", item.ProductID)
		case foreignKeyViolation, invalidText:
			return apperrors.InvalidInput("product " + item.ProductID + " does not exist")
		case checkViolation:
			return apperrors.InvalidInput("quantity must be positive")
		}
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// UpdateQuantity overwrites the stored quantity.
func (r *CartItemRepository) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (err error) {
	const query = `UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateCartItem", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, quantity, itemID, cartID)
	if err != nil {
		if isNoRow(err) {
			return apperrors.NotFound("cart item", itemID)
		}
		if pgErrorCode(err) == checkViolation {
			return apperrors.InvalidInput("quantity must be positive")
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// Delete removes one item.
func (r *CartItemRepository) Delete(ctx context.Context, cartID, itemID string) (err error) {
	const query = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`

	ctx, end := database.TraceQuery(ctx, "DeleteCartItem", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, itemID, cartID)
	if err != nil {
		if isNoRow(err) {
			return apperrors.NotFound("cart item", itemID)
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", itemID)
	}
	return nil
}

// DeleteByCart removes every item of the cart.
func (r *CartItemRepository) DeleteByCart(ctx context.Context, cartID string) (err error) {
	const query = `DELETE FROM cart_items WHERE cart_id = $1`

	ctx, end := database.TraceQuery(ctx, "ClearCartItems", query)
	defer func() { end(err) }()

	if _, err := r.pool.Exec(ctx, query, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}
