package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// CategoryRepository reads the categories table.
type CategoryRepository struct{ c *Client }

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	q := url.Values{"select": {"*"}, "order": {"name.asc"}}
	if err := r.c.get(ctx, "categories", q, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// ProductRepository reads the products table.
type ProductRepository struct{ c *Client }

// productQuery translates q into PostgREST filters.
func productQuery(q repository.ProductQuery) url.Values {
	v := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	if q.Search != "" {
		v.Set("name", ilikeContains(q.Search))
	}
	if q.CategoryID != "" {
		v.Set("category_id", eq(q.CategoryID))
	}
	if q.Featured {
		v.Set("is_featured", eq("true"))
	}
	if q.NewArrival {
		v.Set("is_new_arrival", eq("true"))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// List returns the products matching q, newest first.
func (r *ProductRepository) List(ctx context.Context, q repository.ProductQuery) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.c.get(ctx, "products", productQuery(q), &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

type productDetailRow struct {
	domain.Product
	Categories *struct {
		Name string `json:"name"`
	} `json:"categories"`
}

// GetByID returns one product with the name of its category.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var row productDetailRow
	q := url.Values{"select": {"*,categories(name)"}, "id": {eq(id)}}
	if err := r.c.getOne(ctx, "products", q, &row); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p := row.Product
	if row.Categories != nil {
		name := row.Categories.Name
		p.CategoryName = &name
	}
	return &p, nil
}
