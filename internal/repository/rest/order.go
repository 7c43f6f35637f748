package rest

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// OrderRepository manages the orders and order_items tables.
type OrderRepository struct{ c *Client }

type orderInsert struct {
	UserID   string          `json:"user_id"`
	Status   string          `json:"status"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	domain.ShippingDetails
}

type orderItemInsert struct {
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
}

type orderRow struct {
	domain.Order
	OrderItems []domain.OrderItem `json:"order_items"`
}

// Create inserts the order row and then its items. The data service offers no
// multi-table transaction over REST, so a failed item insert deletes the
// order row again before returning the error.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	var created []domain.Order
	body := orderInsert{
		UserID:          order.UserID,
		Status:          status,
		Subtotal:        order.Subtotal,
		Shipping:        order.Shipping,
		Total:           order.Total,
		ShippingDetails: order.ShippingDetails,
	}
	if err := r.c.insert(ctx, "orders", body, &created); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	if len(created) == 0 {
		return fmt.Errorf("create order: empty representation")
	}
	order.ID = created[0].ID
	order.Status = created[0].Status
	order.CreatedAt = created[0].CreatedAt

	if len(order.Items) == 0 {
		return nil
	}

	rows := make([]orderItemInsert, len(order.Items))
	for i, item := range order.Items {
		rows[i] = orderItemInsert{
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		}
	}

	var items []domain.OrderItem
	if err := r.c.insert(ctx, "order_items", rows, &items); err != nil {
		r.rollback(order.ID)
		return fmt.Errorf("create order items: %w", err)
	}
	order.Items = items
	return nil
}

// rollback runs detached from the request context, which may be the reason
// the item insert failed.
func (r *OrderRepository) rollback(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.c.remove(ctx, "orders", url.Values{"id": {eq(orderID)}}, nil)
}

// ListByUser returns the user's orders newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	q := url.Values{
		"select":  {"*"},
		"user_id": {eq(userID)},
		"order":   {"created_at.desc"},
	}
	if err := r.c.get(ctx, "orders", q, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// GetByID returns one order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	q := url.Values{"select": {"*,order_items(*)"}, "id": {eq(id)}}
	if err := r.c.getOne(ctx, "orders", q, &row); err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	order := row.Order
	order.Items = row.OrderItems
	return &order, nil
}
