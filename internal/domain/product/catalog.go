// internal/domain/product/catalog.go
package product

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Catalog filter values
const (
	CategoryAll     = "all"
	SortLowToHigh   = "low-to-high"
	SortHighToLow   = "high-to-low"
	DefaultPageSize = 12
)

// Filter selects and orders a page of the catalog
type Filter struct {
	Search    string `form:"search"`
	Category  string `form:"category"`
	PriceSort string `form:"sort"`
	Page      int    `form:"page"`
	PageSize  int    `form:"-"`
}

// Refinement narrows the admin product list
type Refinement struct {
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	MinDiscount decimal.NullDecimal
	MaxDiscount decimal.NullDecimal
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page is one page of a filtered catalog
type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
	Signature  string     `json:"signature"`
}

// Signature identifies the filter criteria, ignoring the page
func (f Filter) Signature() string {
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = CategoryAll
	}
	return strings.ToLower(strings.TrimSpace(f.Search)) + "|" + category + "|" + strings.TrimSpace(f.PriceSort)
}

// ResetPage sends the filter back to page 1 when its criteria differ from previous
func (f Filter) ResetPage(previous string) Filter {
	if previous != "" && previous != f.Signature() {
		f.Page = 1
	}
	return f
}

// Apply filters by name and category, sorts by discounted price and slices out the requested page.
// The input slice is not modified.
func Apply(products []Product, f Filter) Page {
	matched := make([]Product, 0, len(products))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)

	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		matched = append(matched, p)
	}

	switch f.PriceSort {
	case SortLowToHigh:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Price.LessThan(matched[j].Price)
		})
	case SortHighToLow:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Price.GreaterThan(matched[j].Price)
		})
	}

	return paginate(matched, f)
}

// Refine keeps the products whose base price and discount fall inside r. Bounds are inclusive; an
// absent discount counts as zero.
func Refine(products []Product, r Refinement) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if r.MinPrice.Valid && p.OldPrice.LessThan(r.MinPrice.Decimal) {
			continue
		}
		if r.MaxPrice.Valid && p.OldPrice.GreaterThan(r.MaxPrice.Decimal) {
			continue
		}
		discount := p.DiscountPercentage()
		if r.MinDiscount.Valid && discount.LessThan(r.MinDiscount.Decimal) {
			continue
		}
		if r.MaxDiscount.Valid && discount.GreaterThan(r.MaxDiscount.Decimal) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func paginate(products []Product, f Filter) Page {
	limit := f.PageSize
	if limit < 1 {
		limit = DefaultPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	total := len(products)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	items := []Product{}
	if start < total {
		end := min(start+limit, total)
		items = products[start:end]
	}

	return Page{
		Products: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      int64(total),
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
		Signature: f.Signature(),
	}
}
