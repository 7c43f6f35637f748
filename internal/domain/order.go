package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order status values.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidStatuses lists every order status.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus reports whether status is a known order status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ShippingDetails is the destination captured at checkout.
type ShippingDetails struct {
	Address    string `json:"shipping_address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is an immutable snapshot of a cart taken at checkout.
type Order struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Status   string          `json:"status"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	ShippingDetails
	Items     []OrderItem `json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem snapshots the product name and price at purchase time.
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
}

// LineTotal is the snapshot price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShortID is the first eight characters of the order ID, upper-cased, as
// shown on the order history page.
func (o Order) ShortID() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// DisplayStatus capitalises the status for presentation.
func (o Order) DisplayStatus() string {
	if o.Status == "" {
		return ""
	}
	return strings.ToUpper(o.Status[:1]) + o.Status[1:]
}
