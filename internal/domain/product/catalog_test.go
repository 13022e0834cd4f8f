package product

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogFixture() []Product {
	mk := func(id, name, category string, price int64) Product {
		return Product{ID: id, Name: name, Category: category, OldPrice: decimal.NewFromInt(price), Price: decimal.NewFromInt(price)}
	}
	return []Product{
		mk("1", "Inverter AC 1.5 Ton", "Air Conditioners", 150000),
		mk("2", "Ceiling Fan Deluxe", "Fans", 14500),
		mk("3", "Pedestal Fan", "Fans", 9800),
		mk("4", "Split AC 1 Ton", "Air Conditioners", 120000),
		mk("5", "Bracket Fan", "Fans", 9800),
	}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no criteria keeps catalog order", filter: Filter{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "search is case-insensitive", filter: Filter{Search: "  fAn "}, want: []string{"2", "3", "5"}},
		{name: "category all", filter: Filter{Category: CategoryAll}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "category exact", filter: Filter{Category: "Air Conditioners"}, want: []string{"1", "4"}},
		{name: "category is case-sensitive", filter: Filter{Category: "fans"}, want: []string{}},
		{name: "low to high is stable", filter: Filter{PriceSort: SortLowToHigh}, want: []string{"3", "5", "2", "4", "1"}},
		{name: "high to low is stable", filter: Filter{PriceSort: SortHighToLow}, want: []string{"1", "4", "2", "3", "5"}},
		{name: "unknown sort keeps order", filter: Filter{PriceSort: "newest"}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "search then sort", filter: Filter{Search: "fan", PriceSort: SortHighToLow}, want: []string{"2", "3", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Apply(catalogFixture(), tt.filter)
			assert.Equal(t, tt.want, ids(page.Products))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	products := catalogFixture()
	Apply(products, Filter{PriceSort: SortLowToHigh})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(products))
}

func TestApplyPaginates(t *testing.T) {
	var products []Product
	for i := 1; i <= 30; i++ {
		products = append(products, Product{ID: fmt.Sprint(i), Name: "Fan", Category: "Fans"})
	}

	first := Apply(products, Filter{})
	require.Len(t, first.Products, DefaultPageSize)
	assert.Equal(t, Pagination{Page: 1, Limit: 12, Total: 30, TotalPages: 3, HasNext: true}, first.Pagination)

	last := Apply(products, Filter{Page: 3})
	assert.Len(t, last.Products, 6)
	assert.Equal(t, "25", last.Products[0].ID)
	assert.False(t, last.Pagination.HasNext)
	assert.True(t, last.Pagination.HasPrev)

	beyond := Apply(products, Filter{Page: 9})
	assert.Empty(t, beyond.Products)
	assert.NotNil(t, beyond.Products)

	negative := Apply(products, Filter{Page: -2})
	assert.Equal(t, 1, negative.Pagination.Page)

	empty := Apply(nil, Filter{})
	assert.Equal(t, 0, empty.Pagination.TotalPages)
	assert.Empty(t, empty.Products)
}

func TestResetPage(t *testing.T) {
	f := Filter{Search: "fan", Page: 3}

	assert.Equal(t, 3, f.ResetPage("").Page, "first request keeps page")
	assert.Equal(t, 3, f.ResetPage(f.Signature()).Page, "same criteria keeps page")
	assert.Equal(t, 1, f.ResetPage(Filter{Search: "ac"}.Signature()).Page)
	assert.Equal(t, Filter{Category: ""}.Signature(), Filter{Category: CategoryAll}.Signature())
}

func TestRefine(t *testing.T) {
	products := catalogFixture()
	products[0].Discount = decimal.NewNullDecimal(decimal.NewFromInt(20))
	products[1].Discount = decimal.NewNullDecimal(decimal.NewFromInt(12))

	got := Refine(products, Refinement{
		MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(10000)),
	})
	assert.Equal(t, []string{"1", "2", "4"}, ids(got))

	got = Refine(products, Refinement{
		MinDiscount: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		MaxDiscount: decimal.NewNullDecimal(decimal.NewFromInt(15)),
	})
	assert.Equal(t, []string{"2"}, ids(got))

	got = Refine(products, Refinement{
		MaxDiscount: decimal.NewNullDecimal(decimal.Zero),
		MaxPrice:    decimal.NewNullDecimal(decimal.NewFromInt(9800)),
	})
	assert.Equal(t, []string{"3", "5"}, ids(got))
}
