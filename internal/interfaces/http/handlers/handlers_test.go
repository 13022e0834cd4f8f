package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:           strings.Repeat("k", 32),
			AdminSessionTTL:  time.Hour,
			DealerSessionTTL: time.Hour,
		},
		Admin: config.AdminConfig{Email: "admin@orient.pk"},
		Security: config.SecurityConfig{BcryptCost: 4},
		Store: config.StoreConfig{
			Currency:       "PKR",
			ShippingCharge: "200",
			PageSize:       12,
			RedirectTo:     "/",
			RedirectDelay:  2 * time.Second,
			CartTTL:        time.Hour,
			CheckoutLock:   30 * time.Second,
		},
	}
}

func fanProduct(t *testing.T) *product.Product {
	t.Helper()
	p := &product.Product{
		ID:       "fan-1",
		Name:     "Ceiling Fan Deluxe",
		Category: "Fans",
		OldPrice: decimal.NewFromInt(14500),
		Discount: decimal.NewNullDecimal(decimal.NewFromInt(12)),
		Status:   product.StatusActive,
	}
	require.NoError(t, p.Reprice())
	return p
}

// catalogStub implements ProductService; unimplemented methods panic through the nil embed
type catalogStub struct {
	ProductService
	products   map[string]*product.Product
	lastFilter product.Filter
}

func (s *catalogStub) GetActive(_ context.Context, id string) (*product.Product, error) {
	if p, ok := s.products[id]; ok && p.IsActive() {
		return p, nil
	}
	return nil, product.ErrNotFound
}

func (s *catalogStub) Catalog(_ context.Context, f product.Filter) (*product.Page, error) {
	s.lastFilter = f
	all := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, *p)
	}
	page := product.Apply(all, f)
	return &page, nil
}

func (s *catalogStub) SetStatus(_ context.Context, id string, status product.Status) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if !status.Valid() {
		return nil, errors.New("unexpected")
	}
	p.Status = status
	return p, nil
}

type memGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

func (g *memGuard) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return nil, false, nil
	}
	g.held[key] = true
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.held, key)
	}, true, nil
}

type fakePlacer struct {
	mu     sync.Mutex
	drafts []order.Draft
	byKey  map[string]*order.Order
}

func (p *fakePlacer) Place(_ context.Context, d order.Draft) (*order.Order, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o, ok := p.byKey[d.IdempotencyKey]; ok && d.IdempotencyKey != "" {
		return o, true, nil
	}
	p.drafts = append(p.drafts, d)
	o := &order.Order{ID: uint(len(p.drafts)), Items: d.Items, Status: order.StatusPending}
	if d.IdempotencyKey != "" {
		p.byKey[d.IdempotencyKey] = o
	}
	return o, false, nil
}

func (p *fakePlacer) FindByIdempotencyKey(_ context.Context, key string) (*order.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o, ok := p.byKey[key]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Data    json.RawMessage `json:"data"`
	State   string          `json:"state"`
	Form    json.RawMessage `json:"form"`
}

// client replays the session cookie between requests
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
