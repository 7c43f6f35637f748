package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// Seed fills db with a small demo catalog for the development backend.
func Seed(db *DB) {
	electronics, clothing, home := "cat-electronics", "cat-clothing", "cat-home"
	db.AddCategories(
		domain.Category{ID: electronics, Name: "Electronics", Description: ptr("Phones, audio and accessories")},
		domain.Category{ID: clothing, Name: "Clothing", Description: ptr("Everyday wear")},
		domain.Category{ID: home, Name: "Home", Description: ptr("Kitchen and living")},
	)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return base.AddDate(0, 0, n) }

	db.AddProducts(
		domain.Product{
			ID: "prod-headphones", Name: "Wireless Headphones", Price: decimal.RequireFromString("129.99"),
			OriginalPrice: decPtr("159.99"), DiscountPercent: intPtr(19), Rating: floatPtr(4.6), ReviewCount: intPtr(212),
			Stock: intPtr(40), CategoryID: &electronics, IsFeatured: true, CreatedAt: day(1),
		},
		domain.Product{
			ID: "prod-speaker", Name: "Portable Speaker", Price: decimal.RequireFromString("59.00"),
			Rating: floatPtr(4.2), ReviewCount: intPtr(87), Stock: intPtr(15), CategoryID: &electronics,
			IsNewArrival: true, CreatedAt: day(20),
		},
		domain.Product{
			ID: "prod-charger", Name: "USB-C Charger", Price: decimal.RequireFromString("19.50"),
			Stock: intPtr(120), CategoryID: &electronics, CreatedAt: day(5),
		},
		domain.Product{
			ID: "prod-tee", Name: "Organic Cotton Tee", Price: decimal.RequireFromString("24.00"),
			Rating: floatPtr(4.8), ReviewCount: intPtr(54), Stock: intPtr(80), CategoryID: &clothing,
			IsFeatured: true, IsNewArrival: true, CreatedAt: day(25),
		},
		domain.Product{
			ID: "prod-jacket", Name: "Rain Jacket", Price: decimal.RequireFromString("89.90"),
			Rating: floatPtr(4.1), ReviewCount: intPtr(19), Stock: intPtr(0), CategoryID: &clothing, CreatedAt: day(3),
		},
		domain.Product{
			ID: "prod-kettle", Name: "Electric Kettle", Price: decimal.RequireFromString("34.75"),
			Rating: floatPtr(4.4), ReviewCount: intPtr(130), Stock: intPtr(22), CategoryID: &home,
			IsFeatured: true, CreatedAt: day(10),
		},
	)
}

func ptr(s string) *string        { return &s }
func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
