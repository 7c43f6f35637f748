package catalog

import (
	"net/url"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// Query parameter names carrying a facet selection.
const (
	ParamCategory = "category"
	ParamSearch   = "search"
	ParamFeatured = "featured"
	ParamNew      = "new"
	ParamSort     = "sort"
)

// Facets is the user's current catalog selection. It is derived from, and
// written back to, navigational query parameters; nothing else persists it.
type Facets struct {
	// Category is a human-readable category name, matched case-insensitively.
	Category   string  `json:"category,omitempty"`
	Search     string  `json:"search,omitempty"`
	Featured   bool    `json:"featured,omitempty"`
	NewArrival bool    `json:"new,omitempty"`
	Sort       SortKey `json:"sort"`
}

// FacetsFromQuery reads a selection from URL query parameters. Flags are set
// only by the literal value "true".
func FacetsFromQuery(v url.Values) Facets {
	return Facets{
		Category:   strings.TrimSpace(v.Get(ParamCategory)),
		Search:     strings.TrimSpace(v.Get(ParamSearch)),
		Featured:   v.Get(ParamFeatured) == "true",
		NewArrival: v.Get(ParamNew) == "true",
		Sort:       ParseSortKey(v.Get(ParamSort)),
	}
}

// Query writes f back to query parameters, omitting defaults, so that
// FacetsFromQuery(f.Query()) reproduces f.
func (f Facets) Query() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set(ParamCategory, f.Category)
	}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	if f.Featured {
		v.Set(ParamFeatured, "true")
	}
	if f.NewArrival {
		v.Set(ParamNew, "true")
	}
	if f.Sort != "" && f.Sort != SortNewest {
		v.Set(ParamSort, string(f.Sort))
	}
	return v
}

// WithCategory returns f with the category replaced. An empty name clears it.
func (f Facets) WithCategory(name string) Facets {
	f.Category = strings.TrimSpace(name)
	return f
}

// Title is the heading shown for the selection.
func (f Facets) Title() string {
	switch {
	case f.Search != "":
		return `Search: "` + f.Search + `"`
	case f.Featured:
		return "Featured Products"
	case f.NewArrival:
		return "New Arrivals"
	case f.Category != "":
		return f.Category
	default:
		return "All Products"
	}
}

// ResolveCategory maps a category name to its ID by case-insensitive match
// against categories. No match returns "", which disables the filter.
func ResolveCategory(name string, categories []domain.Category) string {
	if name == "" {
		return ""
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID
		}
	}
	return ""
}

// BuildQuery translates f into the remote product filter.
func BuildQuery(f Facets, categories []domain.Category) repository.ProductQuery {
	return repository.ProductQuery{
		Search:     f.Search,
		CategoryID: ResolveCategory(f.Category, categories),
		Featured:   f.Featured,
		NewArrival: f.NewArrival,
	}
}
