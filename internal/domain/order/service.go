// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned when the stored status is not one the workflow knows
var ErrInvalidTransition = errors.New("invalid status transition")

// ProductFinder resolves the product a staff order refers to
type ProductFinder interface {
	Get(ctx context.Context, id string) (*product.Product, error)
}

// Service handles order business logic
type Service struct {
	repo      Repository
	products  ProductFinder
	publisher Publisher
	notifier  Notifier
	config    *config.Config
	log       *logrus.Logger
}

// NewService creates a new order service. A nil publisher or notifier disables that side effect.
func NewService(repo Repository, products ProductFinder, publisher Publisher, notifier Notifier, cfg *config.Config, log *logrus.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		repo:      repo,
		products:  products,
		publisher: publisher,
		notifier:  notifier,
		config:    cfg,
		log:       log,
	}
}

// Draft is a shopper order ready to be placed
type Draft struct {
	IdempotencyKey string
	Buyer          Buyer
	PaymentMethod  PaymentMethod
	Note           string
	Items          []Item
}

// StaffRequest is an order keyed in by shop staff with a manually agreed total
type StaffRequest struct {
	ProductID       string          `json:"product_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerContact string          `json:"customer_contact"`
	CustomerCity    string          `json:"customer_city"`
	Address         string          `json:"address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Note            string          `json:"note"`
	Quantity        int             `json:"quantity"`
	Total           decimal.Decimal `json:"total"`
	IdempotencyKey  string          `json:"idempotency_key"`
}

// UpdateStatusRequest represents a status change
type UpdateStatusRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// ListResponse represents orders with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
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

// Place creates a shopper order: subtotal is the sum of line totals and the flat shipping charge
// is added on top. When the draft carries an idempotency key that was already used, the original
// order is returned and replayed is true.
func (s *Service) Place(ctx context.Context, d Draft) (o *Order, replayed bool, err error) {
	if err := validateBuyer(d.Buyer); err != nil {
		return nil, false, err
	}
	if len(d.Items) == 0 {
		return nil, false, apperror.Validation("order has no items", "items")
	}
	for _, item := range d.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, false, apperror.Validation("invalid order item", "items")
		}
	}

	method := d.PaymentMethod
	if method == "" {
		method = PaymentCOD
	}
	if method != PaymentCOD {
		return nil, false, apperror.Validation("only cash on delivery is accepted", "paymentMethod")
	}

	subtotal := decimal.Zero
	items := make([]Item, len(d.Items))
	for i, item := range d.Items {
		items[i] = NewItem(item.ProductID, item.Name, item.Image, item.UnitPrice, item.Quantity)
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	shipping := s.config.Store.Shipping()

	o = &Order{
		Origin:         OriginShopper,
		Buyer:          trimBuyer(d.Buyer),
		PaymentMethod:  method,
		Note:           strings.TrimSpace(d.Note),
		Items:          items,
		Subtotal:       pricing.Round(subtotal),
		ShippingCharge: shipping,
		Total:          pricing.Round(subtotal.Add(shipping)),
		Currency:       s.config.Store.Currency,
		Status:         StatusPending,
	}
	o.AddStatusHistory(StatusPending, "Order placed", "")

	return s.create(ctx, o, d.IdempotencyKey)
}

// PlaceStaffOrder records an order taken by staff for one product at an agreed total
func (s *Service) PlaceStaffOrder(ctx context.Context, req *StaffRequest, actor string) (*Order, bool, error) {
	buyer := Buyer{
		Name:    req.CustomerName,
		Phone:   req.CustomerContact,
		Address: req.Address,
		City:    req.CustomerCity,
	}
	if err := apperror.MissingFields(map[string]string{
		"productId":       req.ProductID,
		"customerName":    buyer.Name,
		"customerContact": buyer.Phone,
		"customerCity":    buyer.City,
		"address":         buyer.Address,
	}, "productId", "customerName", "customerContact", "customerCity", "address"); err != nil {
		return nil, false, err
	}
	if req.Quantity < 1 {
		return nil, false, apperror.Validation("quantity must be at least 1", "quantity")
	}
	if !req.Total.IsPositive() {
		return nil, false, apperror.Validation("total must be greater than zero", "total")
	}

	method := req.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	if method != PaymentCash && method != PaymentCard {
		return nil, false, apperror.Validation("payment method must be Cash or Card", "paymentMethod")
	}

	p, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, false, apperror.Validation("unknown product", "productId")
		}
		return nil, false, err
	}

	total := pricing.Round(req.Total)
	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.PrimaryImage(),
		UnitPrice: pricing.Round(total.Div(decimal.NewFromInt(int64(req.Quantity)))),
		Quantity:  req.Quantity,
		LineTotal: total,
	}

	o := &Order{
		Origin:         OriginStaff,
		Buyer:          trimBuyer(buyer),
		PaymentMethod:  method,
		Note:           strings.TrimSpace(req.Note),
		Items:          []Item{item},
		Subtotal:       total,
		ShippingCharge: decimal.Zero,
		Total:          total,
		Currency:       s.config.Store.Currency,
		Status:         StatusPending,
		CreatedBy:      actor,
	}
	o.AddStatusHistory(StatusPending, "Order recorded by staff", actor)

	return s.create(ctx, o, req.IdempotencyKey)
}

func (s *Service) create(ctx context.Context, o *Order, key string) (*Order, bool, error) {
	key = strings.TrimSpace(key)
	if key != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		o.IdempotencyKey = &key
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateKey) && key != "" {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, key)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, true, nil
		}
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"origin":       o.Origin,
		"total":        o.Total.StringFixed(2),
	}).Info("order created")

	s.publish(ctx, NewEvent(EventCreated, o, o.CreatedBy))
	if err := s.notifier.OrderPlaced(ctx, o); err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("failed to send new order notice")
	}

	return o, false, nil
}

// FindByIdempotencyKey returns the order placed with key, or ErrNotFound
func (s *Service) FindByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByIdempotencyKey(ctx, key)
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, apperror.Validation("unknown order status", "status")
	}
	if req.Origin != "" && req.Origin != OriginShopper && req.Origin != OriginStaff {
		return nil, apperror.Validation("unknown order origin", "origin")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Get retrieves a single order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateStatus sets an order's status and records the change. Setting the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, actor string) (*Order, error) {
	if !req.Status.Valid() {
		return nil, apperror.Validation("unknown order status", "status")
	}

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == req.Status {
		return o, nil
	}
	if !CanTransition(o.Status, req.Status) {
		return nil, fmt.Errorf("%w from %s to %s", ErrInvalidTransition, o.Status, req.Status)
	}

	from := o.Status
	o.AddStatusHistory(req.Status, req.Comment, actor)
	entry := o.StatusHistory[len(o.StatusHistory)-1]
	if err := s.repo.UpdateStatus(ctx, o.ID, from, entry); err != nil {
		return nil, err
	}
	o.Status = req.Status

	s.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"from":     from,
		"to":       o.Status,
		"actor":    actor,
	}).Info("order status changed")

	s.publish(ctx, NewEvent(EventStatusChanged, o, actor))
	return o, nil
}

// Delete removes an order for good
func (s *Service) Delete(ctx context.Context, id uint, actor string) error {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"order_id": id, "actor": actor}).Info("order deleted")
	s.publish(ctx, NewEvent(EventDeleted, o, actor))
	return nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"type":     event.Type,
		}).Warn("failed to publish order event")
	}
}

func validateBuyer(b Buyer) error {
	return apperror.MissingFields(map[string]string{
		"name":    b.Name,
		"phone":   b.Phone,
		"address": b.Address,
		"city":    b.City,
	}, "name", "phone", "address", "city")
}

func trimBuyer(b Buyer) Buyer {
	return Buyer{
		Name:    strings.TrimSpace(b.Name),
		Phone:   strings.TrimSpace(b.Phone),
		Address: strings.TrimSpace(b.Address),
		City:    strings.TrimSpace(b.City),
	}
}
