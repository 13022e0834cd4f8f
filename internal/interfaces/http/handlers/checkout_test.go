package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/checkout"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	*client
	placer *fakePlacer
}

func checkoutRouter(t *testing.T) checkoutFixture {
	t.Helper()
	cfg := testConfig()
	storage := cart.NewMemoryStorage()
	catalog := &catalogStub{products: map[string]*product.Product{"fan-1": fanProduct(t)}}
	placer := &fakePlacer{byKey: map[string]*order.Order{}}
	svc := checkout.NewService(placer, catalog, &memGuard{held: map[string]bool{}}, cfg, logger.Discard())

	cartHandler := NewCartHandler(storage, catalog, cfg, logger.Discard())
	h := NewCheckoutHandler(svc, storage, cfg, logger.Discard())

	r := gin.New()
	r.GET("/cart", cartHandler.GetCart)
	r.POST("/cart/items", cartHandler.AddItem)
	r.GET("/checkout/summary", h.GetSummary)
	r.POST("/checkout", h.Submit)
	return checkoutFixture{client: &client{t: t, router: r}, placer: placer}
}

func buyerForm() checkout.Form {
	return checkout.Form{Name: "Ayesha", Phone: "0300-1234567", Address: "House 12", City: "Lahore"}
}

func TestCheckoutSummary(t *testing.T) {
	f := checkoutRouter(t)
	f.do(http.MethodPost, "/cart/items", AddItemRequest{ProductID: "fan-1", Quantity: 2})

	w, env := f.do(http.MethodGet, "/checkout/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary checkout.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "PKR 25,520.00", summary.Display.Subtotal)
	assert.Equal(t, "PKR 25,720.00", summary.Display.Total)
}

func TestCheckoutSubmitClearsCart(t *testing.T) {
	f := checkoutRouter(t)
	f.do(http.MethodPost, "/cart/items", AddItemRequest{ProductID: "fan-1", Quantity: 2})

	w, env := f.do(http.MethodPost, "/checkout", checkout.Request{Form: buyerForm()})
	require.Equal(t, http.StatusCreated, w.Code)

	var result checkout.Result
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, checkout.StateSucceeded, result.State)
	assert.True(t, result.CartCleared)
	assert.Equal(t, "/", result.RedirectTo)
	assert.EqualValues(t, 2000, result.RedirectAfter)

	_, env = f.do(http.MethodGet, "/cart", nil)
	var page PageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Zero(t, page.ItemCount)
}

func TestCheckoutMissingFieldsEchoesForm(t *testing.T) {
	f := checkoutRouter(t)
	f.do(http.MethodPost, "/cart/items", AddItemRequest{ProductID: "fan-1"})

	form := buyerForm()
	form.City = " "
	w, env := f.do(http.MethodPost, "/checkout", checkout.Request{Form: form})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(checkout.StateCollecting), env.State)
	assert.JSONEq(t, `["city"]`, string(env.Details))

	var echoed checkout.Form
	require.NoError(t, json.Unmarshal(env.Form, &echoed))
	assert.Equal(t, "Ayesha", echoed.Name)
	assert.Empty(t, f.placer.drafts)

	_, env = f.do(http.MethodGet, "/cart", nil)
	var page PageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.ItemCount)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := checkoutRouter(t)
	w, env := f.do(http.MethodPost, "/checkout", checkout.Request{Form: buyerForm()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, checkout.ErrEmptyCart.Error(), env.Error)
}

func TestCheckoutIdempotencyKeyHeader(t *testing.T) {
	f := checkoutRouter(t)
	req := checkout.Request{
		Form:   buyerForm(),
		BuyNow: &checkout.BuyNow{ProductID: "fan-1", Quantity: 1},
	}

	w, _ := f.do(http.MethodPost, "/checkout", req, IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := f.do(http.MethodPost, "/checkout", req, IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order already placed", env.Message)

	require.Len(t, f.placer.drafts, 1)
	assert.Equal(t, "key-1", f.placer.drafts[0].IdempotencyKey)
}

func TestCheckoutCartReplayKeepsNewCart(t *testing.T) {
	f := checkoutRouter(t)
	f.do(http.MethodPost, "/cart/items", AddItemRequest{ProductID: "fan-1", Quantity: 2})

	w, env := f.do(http.MethodPost, "/checkout", checkout.Request{Form: buyerForm()}, IdempotencyHeader, "key-cart")
	require.Equal(t, http.StatusCreated, w.Code)
	var first checkout.Result
	require.NoError(t, json.Unmarshal(env.Data, &first))

	w, env = f.do(http.MethodPost, "/checkout", checkout.Request{Form: buyerForm()}, IdempotencyHeader, "key-cart")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order already placed", env.Message)

	f.do(http.MethodPost, "/cart/items", AddItemRequest{ProductID: "fan-1", Quantity: 1})
	w, env = f.do(http.MethodPost, "/checkout", checkout.Request{Form: buyerForm()}, IdempotencyHeader, "key-cart")
	require.Equal(t, http.StatusOK, w.Code)

	var replay checkout.Result
	require.NoError(t, json.Unmarshal(env.Data, &replay))
	assert.True(t, replay.Replayed)
	assert.False(t, replay.CartCleared)
	assert.Equal(t, first.Order.ID, replay.Order.ID)
	assert.Len(t, f.placer.drafts, 1)

	_, env = f.do(http.MethodGet, "/cart", nil)
	var page PageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.ItemCount)
}
