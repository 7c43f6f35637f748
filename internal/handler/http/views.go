package http

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/money"
)

// presenter renders domain values for JSON responses. Every monetary amount
// is encoded as a decimal string with a formatted "*_display" sibling.
type presenter struct {
	currency string
}

type productView struct {
	domain.Product
	PriceDisplay         string `json:"price_display"`
	OriginalPriceDisplay string `json:"original_price_display,omitempty"`
	InStock              bool   `json:"in_stock"`
}

func (p presenter) product(prod domain.Product) productView {
	v := productView{Product: prod, PriceDisplay: money.Format(prod.Price, p.currency), InStock: prod.InStock()}
	if prod.OriginalPrice != nil {
		v.OriginalPriceDisplay = money.Format(*prod.OriginalPrice, p.currency)
	}
	return v
}

func (p presenter) products(ps []domain.Product) []productView {
	out := make([]productView, len(ps))
	for i, prod := range ps {
		out[i] = p.product(prod)
	}
	return out
}

type cartItemView struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         int             `json:"quantity"`
	Product          productView     `json:"product"`
	LineTotal        decimal.Decimal `json:"line_total"`
	LineTotalDisplay string          `json:"line_total_display"`
}

type cartView struct {
	SignedIn        bool            `json:"signed_in"`
	State           string          `json:"state"`
	Items           []cartItemView  `json:"items"`
	ItemCount       int             `json:"item_count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay string          `json:"subtotal_display"`
}

func (p presenter) cart(c *cart.Cart) cartView {
	items := c.Items()
	v := cartView{
		SignedIn:        c.SignedIn(),
		State:           c.State().String(),
		Items:           make([]cartItemView, len(items)),
		ItemCount:       domain.ItemCount(items),
		Subtotal:        domain.Subtotal(items),
		SubtotalDisplay: money.Format(domain.Subtotal(items), p.currency),
	}
	for i, item := range items {
		line := item.LineTotal()
		v.Items[i] = cartItemView{
			ID:               item.ID,
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			Product:          p.product(item.Product),
			LineTotal:        line,
			LineTotalDisplay: money.Format(line, p.currency),
		}
	}
	return v
}

type quoteView struct {
	checkout.Quote
	SubtotalDisplay string `json:"subtotal_display"`
	ShippingDisplay string `json:"shipping_display"`
	TotalDisplay    string `json:"total_display"`
	FreeShipping    bool   `json:"free_shipping"`
}

func (p presenter) quote(q checkout.Quote) quoteView {
	return quoteView{
		Quote:           q,
		SubtotalDisplay: money.Format(q.Subtotal, p.currency),
		ShippingDisplay: money.Format(q.Shipping, p.currency),
		TotalDisplay:    money.Format(q.Total, p.currency),
		FreeShipping:    q.Shipping.IsZero(),
	}
}

type orderItemView struct {
	domain.OrderItem
	ProductPriceDisplay string          `json:"product_price_display"`
	LineTotal           decimal.Decimal `json:"line_total"`
	LineTotalDisplay    string          `json:"line_total_display"`
}

type orderView struct {
	domain.Order
	Items           []orderItemView `json:"items,omitempty"`
	ShortID         string          `json:"short_id"`
	StatusDisplay   string          `json:"status_display"`
	SubtotalDisplay string          `json:"subtotal_display"`
	ShippingDisplay string          `json:"shipping_display"`
	TotalDisplay    string          `json:"total_display"`
}

func (p presenter) order(o domain.Order) orderView {
	v := orderView{
		Order:           o,
		ShortID:         o.ShortID(),
		StatusDisplay:   o.DisplayStatus(),
		SubtotalDisplay: money.Format(o.Subtotal, p.currency),
		ShippingDisplay: money.Format(o.Shipping, p.currency),
		TotalDisplay:    money.Format(o.Total, p.currency),
	}
	if len(o.Items) > 0 {
		v.Items = make([]orderItemView, len(o.Items))
		for i, item := range o.Items {
			line := item.LineTotal()
			v.Items[i] = orderItemView{
				OrderItem:           item,
				ProductPriceDisplay: money.Format(item.ProductPrice, p.currency),
				LineTotal:           line,
				LineTotalDisplay:    money.Format(line, p.currency),
			}
		}
	}
	return v
}

func (p presenter) orders(list []domain.Order) []orderView {
	out := make([]orderView, len(list))
	for i, o := range list {
		out[i] = p.order(o)
	}
	return out
}
