package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (categories []domain.Category, err error) {
	const query = `SELECT id, name, description, image_url FROM categories ORDER BY name`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories = make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `p.id, p.name, p.description, p.price, p.original_price, p.image_url,
	p.is_featured, p.is_new_arrival, p.discount_percent, p.rating, p.review_count,
	p.stock, p.category_id, p.created_at`

// productScanTargets returns the scan destinations for productColumns. The
// returned func copies nullable decimals into p after Scan.
func productScanTargets(p *domain.Product) ([]any, func()) {
	var original decimal.NullDecimal
	targets := []any{
		&p.ID, &p.Name, &p.Description, &p.Price, &original, &p.ImageURL,
		&p.IsFeatured, &p.IsNewArrival, &p.DiscountPercent, &p.Rating, &p.ReviewCount,
		&p.Stock, &p.CategoryID, &p.CreatedAt,
	}
	return targets, func() {
		if original.Valid {
			d := original.Decimal
			p.OriginalPrice = &d
		}
	}
}

// buildProductFilter translates q into a WHERE clause and its arguments.
func buildProductFilter(q repository.ProductQuery) (string, []any) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(q.Search)+"%")
		argIndex++
	}
	if q.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, q.CategoryID)
		argIndex++
	}
	if q.Featured {
		conditions = append(conditions, "p.is_featured")
	}
	if q.NewArrival {
		conditions = append(conditions, "p.is_new_arrival")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	if q.Limit > 0 {
		where += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d", argIndex)
		args = append(args, q.Limit)
	} else {
		where += " ORDER BY p.created_at DESC"
	}
	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns the products matching q, newest first.
func (r *ProductRepository) List(ctx context.Context, q repository.ProductQuery) (products []domain.Product, err error) {
	filter, args := buildProductFilter(q)
	query := "SELECT " + productColumns + " FROM products p" + filter

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		targets, finish := productScanTargets(&p)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		finish()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetByID returns one product joined with its category name.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (product *domain.Product, err error) {
	query := "SELECT " + productColumns + `, c.name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var p domain.Product
	targets, finish := productScanTargets(&p)
	targets = append(targets, &p.CategoryName)
	if err := r.pool.QueryRow(ctx, query, id).Scan(targets...); err != nil {
		if isNoRow(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	finish()
	return &p, nil
}
