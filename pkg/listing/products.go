package listing

import (
	"sort"
	"strings"

	"github.com/goliatone/go-editform/pkg/client"
)

// FallbackTypeLabel groups products whose type is unknown.
const FallbackTypeLabel = "Autre"

// FallbackTypeSlug keys categories whose type is unknown.
const FallbackTypeSlug = "autre"

// Sort orders a list alphabetically.
type Sort string

const (
	SortNone Sort = ""
	SortAsc  Sort = "asc"
	SortDesc Sort = "desc"
)

// ProductGroup is the products of one type, in list order.
type ProductGroup struct {
	Label    string
	Products []client.ProductSummary
}

// GroupProducts groups products by type label. Groups keep the order in
// which their first product appears.
func GroupProducts(products []client.ProductSummary) []ProductGroup {
	var out []ProductGroup
	index := make(map[string]int)
	for _, p := range products {
		label := FallbackTypeLabel
		if p.Type != nil && strings.TrimSpace(p.Type.Libelle) != "" {
			label = strings.TrimSpace(p.Type.Libelle)
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, ProductGroup{Label: label})
		}
		out[i].Products = append(out[i].Products, p)
	}
	return out
}

// SearchProducts keeps the products whose label or reference contains
// query, ignoring case. An empty query keeps everything.
func SearchProducts(products []client.ProductSummary, query string) []client.ProductSummary {
	q := normalize(query)
	if q == "" {
		return products
	}
	var out []client.ProductSummary
	for _, p := range products {
		if strings.Contains(normalize(p.Libelle), q) || strings.Contains(normalize(p.Ref), q) {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts returns a copy of products ordered by label.
func SortProducts(products []client.ProductSummary, order Sort) []client.ProductSummary {
	out := append([]client.ProductSummary(nil), products...)
	sortBy(out, order, func(p client.ProductSummary) string { return p.Libelle })
	return out
}

// SearchPages keeps the pages whose title contains query, ignoring case.
func SearchPages(pages []client.PageSummary, query string) []client.PageSummary {
	q := normalize(query)
	if q == "" {
		return pages
	}
	var out []client.PageSummary
	for _, p := range pages {
		if strings.Contains(normalize(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// SortPages returns a copy of pages ordered by title.
func SortPages(pages []client.PageSummary, order Sort) []client.PageSummary {
	out := append([]client.PageSummary(nil), pages...)
	sortBy(out, order, func(p client.PageSummary) string { return p.Title })
	return out
}

// CategoriesByType groups categories by the slug of their type.
func CategoriesByType(categories []client.Category) map[string][]client.Category {
	out := make(map[string][]client.Category)
	for _, c := range categories {
		key := FallbackTypeSlug
		if c.Type != nil && strings.TrimSpace(c.Type.Slug) != "" {
			key = strings.TrimSpace(c.Type.Slug)
		}
		out[key] = append(out[key], c)
	}
	return out
}

func sortBy[T any](items []T, order Sort, key func(T) string) {
	if order != SortAsc && order != SortDesc {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := normalize(key(items[i])), normalize(key(items[j]))
		if order == SortDesc {
			return a > b
		}
		return a < b
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
