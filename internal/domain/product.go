package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a read-only projection of a catalog entry owned by the data service.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL        *string          `json:"image_url,omitempty"`
	IsFeatured      bool             `json:"is_featured"`
	IsNewArrival    bool             `json:"is_new_arrival"`
	DiscountPercent *int             `json:"discount_percent,omitempty"`
	Rating          *float64         `json:"rating,omitempty"`
	ReviewCount     *int             `json:"review_count,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	CategoryID      *string          `json:"category_id,omitempty"`
	// CategoryName is only populated on product detail reads.
	CategoryName *string   `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingOrZero returns the rating, treating an absent rating as zero.
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// InStock reports whether the product can be added to a cart. An unknown
// stock level is treated as available.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

// Category is a read-only product grouping.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}
