// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Product is the snapshot of a catalog product taken when it is put in a cart
type Product struct {
	ID              string
	Name            string
	Image           string
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
}

// LineItem is one product held in a cart. ProductID is a weak reference; the price fields are
// captured when the line is first created and are not refreshed afterwards.
type LineItem struct {
	ProductID       string              `json:"productId"`
	Name            string              `json:"name"`
	Image           string              `json:"image,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discountedPrice"`
	Quantity        int                 `json:"quantity"`
	AddedAt         time.Time           `json:"addedAt"`
}

// UnitPrice is the discounted price when one was captured, else the base price
func (l LineItem) UnitPrice() decimal.Decimal {
	if l.DiscountedPrice.Valid {
		return l.DiscountedPrice.Decimal
	}
	return l.Price
}

// LineTotal is UnitPrice * Quantity
func (l LineItem) LineTotal() decimal.Decimal {
	return pricing.LineTotal(l.UnitPrice(), l.Quantity)
}

// Cart is the ordered set of line items of one shopper session
type Cart struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TotalItemCount is the sum of all quantities (the badge number)
func (c Cart) TotalItemCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums unit price * quantity over every line
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return pricing.Round(total)
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the line for productID
func (c Cart) Find(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

func (c Cart) index(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := Cart{UpdatedAt: c.UpdatedAt}
	if c.Items != nil {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
