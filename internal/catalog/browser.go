package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
)

// Snapshot is a consistent copy of a Browser's state.
type Snapshot struct {
	Facets           Facets
	Products         []domain.Product
	Categories       []domain.Category
	CategoriesLoaded bool
	Loading          bool
	// Pending is set while a category selection waits for the category list.
	Pending bool
}

// Browser holds the state of one product listing page across facet changes.
//
// Every fetch is tagged with a generation number taken when it is issued.
// A response whose generation is no longer current is dropped, so a slow
// response for an old selection never overwrites a newer one.
type Browser struct {
	pipeline *Pipeline
	logger   *slog.Logger

	mu               sync.Mutex
	facets           Facets
	fetched          []domain.Product // remote order of the current result set
	products         []domain.Product
	categories       []domain.Category
	categoriesLoaded bool
	loading          bool
	pending          bool
	generation       uint64
}

// NewBrowser creates a Browser with the default selection and no results.
func NewBrowser(pipeline *Pipeline, logger *slog.Logger) *Browser {
	return &Browser{
		pipeline: pipeline,
		logger:   logger,
		facets:   Facets{Sort: SortNewest},
		products: []domain.Product{},
	}
}

// Snapshot returns a copy of the current state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Facets:           b.facets,
		Products:         append([]domain.Product{}, b.products...),
		Categories:       append([]domain.Category{}, b.categories...),
		CategoriesLoaded: b.categoriesLoaded,
		Loading:          b.loading,
		Pending:          b.pending,
	}
}

// LoadCategories fetches the category list. A category selection made
// before the list arrived is fetched once it has loaded.
func (b *Browser) LoadCategories(ctx context.Context) error {
	categories, err := b.pipeline.Categories(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to load categories", slog.String("error", err.Error()))
		return fmt.Errorf("load categories: %w", err)
	}

	b.mu.Lock()
	b.categories = categories
	b.categoriesLoaded = true
	if !b.pending {
		b.mu.Unlock()
		return nil
	}
	b.pending = false
	gen, f := b.beginFetchLocked()
	b.mu.Unlock()

	b.runFetch(ctx, gen, f, categories)
	return nil
}

// SetFacets applies a new selection. A change of sort key alone re-sorts the
// current result set; any other change triggers a fetch unless it has to
// wait for the category list. SetFacets blocks until its fetch resolves.
func (b *Browser) SetFacets(ctx context.Context, f Facets) {
	f.Sort = ParseSortKey(string(f.Sort))

	b.mu.Lock()
	prev := b.facets
	b.facets = f

	if sameFilters(prev, f) && !b.pending && b.generation > 0 {
		b.products = Sort(b.fetched, f.Sort)
		b.mu.Unlock()
		return
	}

	if f.Category != "" && !b.categoriesLoaded {
		b.pending = true
		// Outdate any fetch still in flight for the previous selection.
		b.generation++
		b.loading = false
		b.fetched = nil
		b.products = []domain.Product{}
		b.mu.Unlock()
		return
	}
	b.pending = false
	gen, f := b.beginFetchLocked()
	categories := b.categories
	b.mu.Unlock()

	b.runFetch(ctx, gen, f, categories)
}

func sameFilters(a, b Facets) bool {
	a.Sort, b.Sort = "", ""
	return a == b
}

func (b *Browser) beginFetchLocked() (uint64, Facets) {
	b.generation++
	b.loading = true
	return b.generation, b.facets
}

func (b *Browser) runFetch(ctx context.Context, gen uint64, f Facets, categories []domain.Category) {
	products, err := b.pipeline.fetch(ctx, f, categories)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		fetchTotal.WithLabelValues(outcomeStale).Inc()
		b.logger.DebugContext(ctx, "discarding stale product fetch",
			slog.Uint64("generation", gen),
			slog.Uint64("current", b.generation),
		)
		return
	}

	b.loading = false
	if err != nil {
		fetchTotal.WithLabelValues(outcomeError).Inc()
		b.logger.ErrorContext(ctx, "failed to fetch products", slog.String("error", err.Error()))
		b.fetched = nil
		b.products = []domain.Product{}
		return
	}

	fetchTotal.WithLabelValues(outcomeOK).Inc()
	b.fetched = products
	// The sort key may have changed while the fetch was in flight.
	b.products = Sort(products, b.facets.Sort)
}
