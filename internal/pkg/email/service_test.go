package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResendService(t *testing.T, status int) (*EmailService, *[]ResendEmailRequest) {
	t.Helper()
	var received []ResendEmailRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		var body ResendEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received = append(received, body)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ResendResponse{ID: "em_1"})
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		App: config.AppConfig{CompanyName: "Orient Appliances", CompanyWebsite: "https://orient.test"},
		Email: config.EmailConfig{
			Provider:  "resend",
			APIKey:    "re_test",
			FromEmail: "noreply@orient.test",
			FromName:  "Orient Appliances",
			NotifyTo:  []string{"orders@orient.test"},
		},
	}
	svc, err := NewEmailService(cfg, logger.Discard())
	require.NoError(t, err)
	svc.resendURL = srv.URL
	return svc, &received
}

func TestSendDealerCredentials(t *testing.T) {
	svc, received := newResendService(t, http.StatusOK)

	err := svc.SendDealerCredentials(context.Background(), "ali@traders.pk", "Ali Traders", "alitraders4821", "Kx7#pQ2mWz9a")
	require.NoError(t, err)

	require.Len(t, *received, 1)
	msg := (*received)[0]
	assert.Equal(t, []string{"ali@traders.pk"}, msg.To)
	assert.Equal(t, "Orient Appliances <noreply@orient.test>", msg.From)
	assert.Equal(t, "Your Orient Appliances dealer account", msg.Subject)
	assert.Contains(t, msg.HTML, "alitraders4821")
	assert.Contains(t, msg.HTML, "Kx7#pQ2mWz9a")
	assert.Contains(t, msg.HTML, "https://orient.test/dealer/login")
}

func TestOrderPlaced(t *testing.T) {
	svc, received := newResendService(t, http.StatusOK)

	o := &order.Order{
		OrderNumber:    "ORD-20260314-00001",
		Buyer:          order.Buyer{Name: "Ayesha", Phone: "0300-1234567", Address: "House 12", City: "Lahore"},
		PaymentMethod:  order.PaymentCOD,
		Subtotal:       decimal.RequireFromString("25520"),
		ShippingCharge: decimal.NewFromInt(200),
		Total:          decimal.RequireFromString("25720"),
		Currency:       "PKR",
		CreatedAt:      time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Items: []order.Item{
			order.NewItem("fan-1", "Ceiling Fan Deluxe", "", decimal.NewFromInt(12760), 2),
		},
	}

	require.NoError(t, svc.OrderPlaced(context.Background(), o))

	require.Len(t, *received, 1)
	msg := (*received)[0]
	assert.Equal(t, []string{"orders@orient.test"}, msg.To)
	assert.Equal(t, "New order ORD-20260314-00001 (PKR 25,720.00)", msg.Subject)
	assert.Contains(t, msg.HTML, "Ceiling Fan Deluxe")
	assert.Contains(t, msg.HTML, "PKR 12,760.00")
	assert.Contains(t, msg.HTML, "PKR 25,520.00")
}

func TestOrderPlacedWithoutRecipients(t *testing.T) {
	svc, received := newResendService(t, http.StatusOK)
	svc.config.Email.NotifyTo = nil

	require.NoError(t, svc.OrderPlaced(context.Background(), &order.Order{}))
	assert.Empty(t, *received)
}

func TestResendFailure(t *testing.T) {
	svc, _ := newResendService(t, http.StatusUnprocessableEntity)

	err := svc.SendDealerCredentials(context.Background(), "ali@traders.pk", "Ali", "ali1234", "pw")
	assert.ErrorContains(t, err, "status 422")
}

func TestUnsupportedProvider(t *testing.T) {
	svc, _ := newResendService(t, http.StatusOK)
	svc.config.Email.Provider = "pigeon"

	err := svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}})
	assert.ErrorContains(t, err, "unsupported email provider")

	svc.config.Email.Provider = "log"
	assert.NoError(t, svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}}))
}
