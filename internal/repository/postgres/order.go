package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const insertOrderQuery = `
	INSERT INTO orders (id, user_id, status, subtotal, shipping, total, shipping_address, city, postal_code, country)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at`

const insertOrderItemQuery = `
	INSERT INTO order_items (id, order_id, product_id, product_name, product_price, quantity)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Create inserts the order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderQuery)
	defer func() { end(err) }()

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, insertOrderQuery,
		o.ID,
		o.UserID,
		o.Status,
		o.Subtotal,
		o.Shipping,
		o.Total,
		o.Address,
		o.City,
		o.PostalCode,
		o.Country,
	).Scan(&o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = o.ID
		if _, err := tx.Exec(ctx, insertOrderItemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.ProductPrice,
			item.Quantity,
		); err != nil {
			if pgErrorCode(err) == foreignKeyViolation {
				return apperrors.InvalidInput("product " + item.ProductID + " does not exist")
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, status, subtotal, shipping, total, shipping_address, city, postal_code, country, created_at`

func orderScanTargets(o *domain.Order) []any {
	return []any{
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Shipping, &o.Total,
		&o.Address, &o.City, &o.PostalCode, &o.Country, &o.CreatedAt,
	}
}

// ListByUser returns the user's orders newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) (orders []domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(orderScanTargets(&o)...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// GetByID returns the order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (order *domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	const itemsQuery = `
		SELECT id, order_id, product_id, product_name, product_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name, id`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	var o domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(orderScanTargets(&o)...); err != nil {
		if isNoRow(err) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	o.Items = make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &o, nil
}
