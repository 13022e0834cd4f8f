package pdf

import (
	"testing"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHTML(t *testing.T) {
	svc := NewService(&config.Config{App: config.AppConfig{
		CompanyName:  "Orient Appliances",
		CompanyPhone: "042-111-000-111",
	}})
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }

	o := &order.Order{
		OrderNumber:    "ORD-20260314-00001",
		Buyer:          order.Buyer{Name: "Ayesha", Phone: "0300-1234567", Address: "House 12", City: "Lahore"},
		PaymentMethod:  order.PaymentCOD,
		Status:         order.StatusShipped,
		Subtotal:       decimal.RequireFromString("25520"),
		ShippingCharge: decimal.NewFromInt(200),
		Total:          decimal.RequireFromString("25720"),
		Currency:       "PKR",
		CreatedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Items: []order.Item{
			order.NewItem("fan-1", "Ceiling Fan Deluxe", "", decimal.NewFromInt(12760), 2),
		},
	}

	html, err := svc.GenerateHTML(o)
	require.NoError(t, err)

	assert.Contains(t, html, "INV-ORD-20260314-00001")
	assert.Contains(t, html, "March 15, 2026")
	assert.Contains(t, html, "March 14, 2026")
	assert.Contains(t, html, "Ceiling Fan Deluxe")
	assert.Contains(t, html, "PKR 12,760.00")
	assert.Contains(t, html, "PKR 25,520.00")
	assert.Contains(t, html, "PKR 25,720.00")
	assert.Contains(t, html, "Shipped")
	assert.Contains(t, html, "042-111-000-111")
}
