package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the remote per-user cart record.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem pairs a product with a quantity inside one cart. There is at most
// one CartItem per (cart, product).
type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

// LineTotal is price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums LineTotal over items.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the quantities of items.
func ItemCount(items []CartItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
