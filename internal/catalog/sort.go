package catalog

import (
	"sort"

	"github.com/utafrali/storefront/internal/domain"
)

// SortKey selects the local ordering applied after a fetch.
type SortKey string

// Sort keys.
const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// ParseSortKey returns the sort key named by s. Unknown or empty values fall
// back to SortNewest.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortNewest, SortPriceLow, SortPriceHigh, SortRating:
		return k
	default:
		return SortNewest
	}
}

// Sort returns a freshly sorted copy of products. Every key is a stable sort
// over the whole set, so products with equal keys keep their fetch order.
// SortNewest keeps the remote order as-is.
func Sort(products []domain.Product, key SortKey) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	switch key {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RatingOrZero() > out[j].RatingOrZero() })
	}
	return out
}
