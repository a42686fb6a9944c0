package catalog

import (
	"fmt"
	"sort"
	"strings"
)

const (
	SortPrice     = "price"
	SortName      = "name"
	SortCreatedAt = "createdAt"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	defaultPageSize = 12
)

// Query describes one listProducts call. Featured and InStock are tri-state:
// nil means "do not filter on this field".
type Query struct {
	Page          int
	Limit         int
	Category      string
	MinPriceCents int64
	MaxPriceCents int64 // 0 means no upper bound
	Featured      *bool
	InStock       *bool
	Search        string
	SortBy        string
	SortOrder     string
}

func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	switch q.SortBy {
	case SortPrice, SortName, SortCreatedAt:
	default:
		q.SortBy = SortCreatedAt
	}
	if q.SortOrder != OrderAsc {
		q.SortOrder = OrderDesc
	}
	return q
}

// CacheKey folds every field of the normalized query into the key, so two
// queries share an entry only if they are equivalent. Keys share the
// "products" prefix that mutation invalidation targets.
func (q Query) CacheKey() string {
	var b strings.Builder
	b.WriteString("products")
	fmt.Fprintf(&b, "|p=%d|l=%d", q.Page, q.Limit)
	fmt.Fprintf(&b, "|cat=%s", q.Category)
	fmt.Fprintf(&b, "|min=%d|max=%d", q.MinPriceCents, q.MaxPriceCents)
	fmt.Fprintf(&b, "|feat=%s|stock=%s", triState(q.Featured), triState(q.InStock))
	fmt.Fprintf(&b, "|q=%s", strings.ToLower(q.Search))
	fmt.Fprintf(&b, "|sort=%s|ord=%s", q.SortBy, q.SortOrder)
	return b.String()
}

func triState(v *bool) string {
	if v == nil {
		return "-"
	}
	if *v {
		return "t"
	}
	return "f"
}

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ApplyQuery evaluates a normalized query against an in-memory product list
// with the same semantics the remote applies server-side, so a fallback read
// answers exactly what the remote would have.
func ApplyQuery(products []Product, q Query) Page {
	filtered := filterProducts(products, q)
	sortProducts(filtered, q.SortBy, q.SortOrder)
	return paginate(filtered, q.Page, q.Limit)
}

func filterProducts(products []Product, q Query) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if p.PriceCents < q.MinPriceCents {
			continue
		}
		if q.MaxPriceCents > 0 && p.PriceCents > q.MaxPriceCents {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		if q.InStock != nil && p.InStock != *q.InStock {
			continue
		}
		if q.Search != "" && !matchesSearch(p, q.Search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p Product, query string) bool {
	needle := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}

func sortProducts(products []Product, sortBy, order string) {
	less := func(a, b Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch sortBy {
	case SortPrice:
		less = func(a, b Product) bool { return a.PriceCents < b.PriceCents }
	case SortName:
		less = func(a, b Product) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		if order == OrderDesc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func paginate(products []Product, page, limit int) Page {
	total := len(products)

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Page{
		Products: products[start:end],
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
	}
}
