// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCart is returned when checking out a cart without lines
var ErrEmptyCart = errors.New("cart is empty")

// Guard allows one submission per session at a time
type Guard interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// OrderPlacer creates orders
type OrderPlacer interface {
	Place(ctx context.Context, d order.Draft) (*order.Order, bool, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*order.Order, error)
}

// ProductLookup finds products shoppers can buy
type ProductLookup interface {
	GetActive(ctx context.Context, id string) (*product.Product, error)
}

// Service handles checkout business logic
type Service struct {
	orders   OrderPlacer
	products ProductLookup
	guard    Guard
	config   *config.Config
	log      *logrus.Logger
}

// NewService creates a new checkout service
func NewService(orders OrderPlacer, products ProductLookup, guard Guard, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		guard:    guard,
		config:   cfg,
		log:      log,
	}
}

// Form is the buyer details form
type Form struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	PaymentMethod  string `json:"paymentMethod"`
	Note           string `json:"note"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// BuyNow checks out a single product without touching the cart
type BuyNow struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Request is a checkout submission
type Request struct {
	Form   Form    `json:"form"`
	BuyNow *BuyNow `json:"buyNow,omitempty"`
}

// Result is what a successful submission hands back to the client
type Result struct {
	State         State        `json:"state"`
	Order         *order.Order `json:"order"`
	Replayed      bool         `json:"replayed"`
	CartCleared   bool         `json:"cartCleared"` // ordered lines were taken out of the cart
	RedirectTo    string       `json:"redirectTo"`
	RedirectAfter int64        `json:"redirectAfterMs"`
}

// PaymentOption represents available payment methods
type PaymentOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// Summary represents the pricing breakdown shown before submitting
type Summary struct {
	Items          []cart.LineItem `json:"items"`
	ItemCount      int             `json:"itemCount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Total          decimal.Decimal `json:"total"`
	Display        SummaryDisplay  `json:"display"`
	PaymentMethods []PaymentOption `json:"paymentMethods"`
}

// SummaryDisplay holds the formatted amounts
type SummaryDisplay struct {
	Subtotal       string `json:"subtotal"`
	ShippingCharge string `json:"shippingCharge"`
	Total          string `json:"total"`
}

// Summarize prices a cart for the checkout page
func (s *Service) Summarize(c cart.Cart) *Summary {
	shipping := s.config.Store.Shipping()
	subtotal := c.Subtotal()
	total := pricing.Round(subtotal.Add(shipping))
	currency := s.config.Store.Currency

	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}

	return &Summary{
		Items:          items,
		ItemCount:      c.TotalItemCount(),
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		Total:          total,
		Display: SummaryDisplay{
			Subtotal:       pricing.Display(currency, subtotal, nil),
			ShippingCharge: pricing.Display(currency, shipping, nil),
			Total:          pricing.Display(currency, total, nil),
		},
		PaymentMethods: s.PaymentMethods(),
	}
}

// PaymentMethods lists the payment methods shoppers can pick
func (s *Service) PaymentMethods() []PaymentOption {
	return []PaymentOption{
		{
			ID:          string(order.PaymentCOD),
			Name:        "Cash on Delivery",
			Description: "Pay cash when your order is delivered",
			Available:   true,
		},
	}
}

// Submit validates the form, places the order and takes the ordered lines out of the cart when
// the cart was the source. A submission whose idempotency key was already used returns the
// original order and leaves the cart alone. The returned flow reports where the submission
// ended; after a failure it is back in Collecting with the form intact and the cart untouched.
func (s *Service) Submit(ctx context.Context, store *cart.Store, sessionID string, req *Request) (*Flow, *Result, error) {
	flow := NewFlow(req.Form)

	if err := validateForm(req.Form); err != nil {
		return flow, nil, err
	}

	unlock, ok, err := s.guard.TryLock(ctx, lockKey(sessionID), s.config.Store.CheckoutLock)
	if err != nil {
		return flow, nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !ok {
		return flow, nil, ErrSubmissionInFlight
	}
	defer unlock()

	if key := strings.TrimSpace(req.Form.IdempotencyKey); key != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, key)
		if err == nil {
			if err := flow.Begin(); err != nil {
				return flow, nil, err
			}
			return s.succeed(flow, sessionID, s.result(existing, true))
		}
		if !errors.Is(err, order.ErrNotFound) {
			return flow, nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	items, ordered, err := s.items(ctx, store, req.BuyNow)
	if err != nil {
		return flow, nil, err
	}

	if err := flow.Begin(); err != nil {
		return flow, nil, err
	}

	o, replayed, err := s.orders.Place(ctx, order.Draft{
		IdempotencyKey: req.Form.IdempotencyKey,
		Buyer: order.Buyer{
			Name:    req.Form.Name,
			Phone:   req.Form.Phone,
			Address: req.Form.Address,
			City:    req.Form.City,
		},
		PaymentMethod: order.PaymentMethod(strings.TrimSpace(req.Form.PaymentMethod)),
		Note:          req.Form.Note,
		Items:         items,
	})
	if err != nil {
		if flowErr := flow.Fail(err); flowErr != nil {
			s.log.WithError(flowErr).WithField("session_id", sessionID).Error("checkout flow could not record failure")
		}
		s.log.WithError(err).WithField("session_id", sessionID).Warn("checkout failed")
		return flow, nil, err
	}

	result := s.result(o, replayed)
	if !replayed && len(ordered) > 0 {
		if _, err := store.RemoveOrdered(ctx, ordered); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("order placed but cart could not be cleared")
		} else {
			result.CartCleared = true
		}
	}

	return s.succeed(flow, sessionID, result)
}

func (s *Service) result(o *order.Order, replayed bool) *Result {
	return &Result{
		Order:         o,
		Replayed:      replayed,
		RedirectTo:    s.config.Store.RedirectTo,
		RedirectAfter: s.config.Store.RedirectDelay.Milliseconds(),
	}
}

// succeed finishes the flow. The order exists by now, so a flow error is only logged.
func (s *Service) succeed(flow *Flow, sessionID string, result *Result) (*Flow, *Result, error) {
	if err := flow.Succeed(); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"order_id":   result.Order.ID,
		}).Error("checkout flow could not record success")
	}
	result.State = flow.State()
	return flow, result, nil
}

// items resolves what is being ordered. For a cart checkout the second result is the cart lines
// the order was built from; it is nil for buy-now.
func (s *Service) items(ctx context.Context, store *cart.Store, buyNow *BuyNow) ([]order.Item, []cart.LineItem, error) {
	if buyNow != nil {
		if strings.TrimSpace(buyNow.ProductID) == "" {
			return nil, nil, apperror.Validation("missing required fields", "productId")
		}
		p, err := s.products.GetActive(ctx, buyNow.ProductID)
		if err != nil {
			return nil, nil, err
		}
		qty := max(buyNow.Quantity, 1)
		snap := p.Snapshot()
		unit := snap.Price
		if snap.DiscountedPrice.Valid {
			unit = snap.DiscountedPrice.Decimal
		}
		return []order.Item{order.NewItem(snap.ID, snap.Name, snap.Image, unit, qty)}, nil, nil
	}

	c := store.Cart()
	if c.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}
	items := make([]order.Item, len(c.Items))
	for i, line := range c.Items {
		items[i] = order.NewItem(line.ProductID, line.Name, line.Image, line.UnitPrice(), line.Quantity)
	}
	return items, c.Items, nil
}

func validateForm(f Form) error {
	if err := apperror.MissingFields(map[string]string{
		"name":    f.Name,
		"phone":   f.Phone,
		"address": f.Address,
		"city":    f.City,
	}, "name", "phone", "address", "city"); err != nil {
		return err
	}
	method := strings.TrimSpace(f.PaymentMethod)
	if method != "" && method != string(order.PaymentCOD) {
		return apperror.Validation("only cash on delivery is accepted", "paymentMethod")
	}
	return nil
}

func lockKey(sessionID string) string {
	return "checkout:" + sessionID
}
