// Package catalog turns a facet selection into one remote product fetch
// followed by a local sort.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

const (
	// HomeSectionLimit caps the featured and new-arrival rows on the home page.
	HomeSectionLimit = 4
	// SuggestLimit caps search-as-you-type suggestions.
	SuggestLimit = 5
	// SuggestMinRunes is the shortest term that triggers a suggestion fetch.
	SuggestMinRunes = 2
)

// Result is one rendered product listing.
type Result struct {
	Facets   Facets           `json:"facets"`
	Title    string           `json:"title"`
	Products []domain.Product `json:"products"`
	// Degraded is set when the fetch failed and Products was cleared.
	Degraded bool `json:"degraded,omitempty"`
}

// Home is the landing page content.
type Home struct {
	Categories  []domain.Category `json:"categories"`
	Featured    []domain.Product  `json:"featured"`
	NewArrivals []domain.Product  `json:"new_arrivals"`
}

// Pipeline is the stateless catalog query path used by request handlers.
// Browser wraps it for long-lived page state.
type Pipeline struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewPipeline creates a catalog pipeline.
func NewPipeline(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *Pipeline {
	return &Pipeline{products: products, categories: categories, logger: logger}
}

// Categories lists every category.
func (p *Pipeline) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := p.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// fetch issues the single remote read for f. Results keep the remote order.
func (p *Pipeline) fetch(ctx context.Context, f Facets, categories []domain.Category) ([]domain.Product, error) {
	return p.products.List(ctx, BuildQuery(f, categories))
}

// Products runs the pipeline for f. The category list is only loaded when a
// category is selected, and a category-filtered fetch is never issued
// without it. Failures are logged and degrade to an empty result.
func (p *Pipeline) Products(ctx context.Context, f Facets) Result {
	res := Result{Facets: f, Title: f.Title(), Products: []domain.Product{}}

	var categories []domain.Category
	if f.Category != "" {
		var err error
		categories, err = p.categories.List(ctx)
		if err != nil {
			fetchTotal.WithLabelValues(outcomeError).Inc()
			p.logger.ErrorContext(ctx, "failed to load categories for product fetch",
				slog.String("category", f.Category),
				slog.String("error", err.Error()),
			)
			res.Degraded = true
			return res
		}
	}

	products, err := p.fetch(ctx, f, categories)
	if err != nil {
		fetchTotal.WithLabelValues(outcomeError).Inc()
		p.logger.ErrorContext(ctx, "failed to fetch products",
			slog.String("search", f.Search),
			slog.String("category", f.Category),
			slog.String("error", err.Error()),
		)
		res.Degraded = true
		return res
	}

	fetchTotal.WithLabelValues(outcomeOK).Inc()
	res.Products = Sort(products, f.Sort)
	return res
}

// Home loads the categories and the featured and new-arrival rows
// concurrently. A failed section is logged and left empty.
func (p *Pipeline) Home(ctx context.Context) Home {
	home := Home{
		Categories:  []domain.Category{},
		Featured:    []domain.Product{},
		NewArrivals: []domain.Product{},
	}

	var g errgroup.Group
	g.Go(func() error {
		categories, err := p.categories.List(ctx)
		if err != nil {
			p.logSectionError(ctx, "categories", err)
			return nil
		}
		home.Categories = categories
		return nil
	})
	g.Go(func() error {
		featured, err := p.products.List(ctx, repository.ProductQuery{Featured: true, Limit: HomeSectionLimit})
		if err != nil {
			p.logSectionError(ctx, "featured", err)
			return nil
		}
		home.Featured = featured
		return nil
	})
	g.Go(func() error {
		arrivals, err := p.products.List(ctx, repository.ProductQuery{NewArrival: true, Limit: HomeSectionLimit})
		if err != nil {
			p.logSectionError(ctx, "new_arrivals", err)
			return nil
		}
		home.NewArrivals = arrivals
		return nil
	})
	_ = g.Wait()

	return home
}

func (p *Pipeline) logSectionError(ctx context.Context, section string, err error) {
	p.logger.ErrorContext(ctx, "failed to load home section",
		slog.String("section", section),
		slog.String("error", err.Error()),
	)
}

// Suggest returns up to SuggestLimit products whose name contains term.
// Terms shorter than SuggestMinRunes return nothing without a fetch.
func (p *Pipeline) Suggest(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < SuggestMinRunes {
		return []domain.Product{}, nil
	}

	products, err := p.products.List(ctx, repository.ProductQuery{Search: term, Limit: SuggestLimit})
	if err != nil {
		return nil, fmt.Errorf("suggest products: %w", err)
	}
	return products, nil
}

// Product returns one product with its category name.
func (p *Pipeline) Product(ctx context.Context, id string) (*domain.Product, error) {
	product, err := p.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}
