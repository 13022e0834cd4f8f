package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepository struct {
	mu     sync.Mutex
	nextID uint
	orders map[uint]*Order
	keys   map[string]uint
	// beforeCreate runs inside Create, after the idempotency lookup has already missed
	beforeCreate func()
}

func newMemRepository() *memRepository {
	return &memRepository{orders: map[uint]*Order{}, keys: map[string]uint{}}
}

func (r *memRepository) Create(_ context.Context, o *Order) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.IdempotencyKey != nil {
		if _, taken := r.keys[*o.IdempotencyKey]; taken {
			return ErrDuplicateKey
		}
	}
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	o.OrderNumber = o.GenerateOrderNumber()
	stored := *o
	r.orders[o.ID] = &stored
	if o.IdempotencyKey != nil {
		r.keys[*o.IdempotencyKey] = o.ID
	}
	return nil
}

func (r *memRepository) FindByID(_ context.Context, id uint) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	r.mu.Lock()
	id, ok := r.keys[key]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *memRepository) List(_ context.Context, req *ListRequest) ([]Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for id := uint(1); id <= r.nextID; id++ {
		o, ok := r.orders[id]
		if !ok || (req.Status != "" && o.Status != req.Status) || (req.Origin != "" && o.Origin != req.Origin) {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *memRepository) UpdateStatus(_ context.Context, id uint, from Status, entry StatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return ErrStale
	}
	o.Status = entry.Status
	o.StatusHistory = append(o.StatusHistory, entry)
	return nil
}

func (r *memRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) OrderPlaced(context.Context, *Order) error {
	n.calls++
	return nil
}

type stubProducts map[string]*product.Product

func (s stubProducts) Get(_ context.Context, id string) (*product.Product, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, product.ErrNotFound
}

type fixture struct {
	svc       *Service
	repo      *memRepository
	publisher *recordingPublisher
	notifier  *countingNotifier
}

func newFixture(shipping string) fixture {
	cfg := &config.Config{Store: config.StoreConfig{Currency: "PKR", ShippingCharge: shipping}}
	f := fixture{
		repo:      newMemRepository(),
		publisher: &recordingPublisher{},
		notifier:  &countingNotifier{},
	}
	products := stubProducts{
		"fan-1": {ID: "fan-1", Name: "Ceiling Fan Deluxe", Images: []string{"https://cdn/fan.jpg"}},
	}
	f.svc = NewService(f.repo, products, f.publisher, f.notifier, cfg, logger.Discard())
	return f
}

func buyer() Buyer {
	return Buyer{Name: " Ayesha ", Phone: "0300-1234567", Address: "House 12, Street 4", City: "Lahore"}
}

func draft(key string) Draft {
	return Draft{
		IdempotencyKey: key,
		Buyer:          buyer(),
		Items: []Item{
			{ProductID: "fan-1", Name: "Ceiling Fan Deluxe", UnitPrice: decimal.NewFromInt(12760), Quantity: 2},
			{ProductID: "ac-1", Name: "Split AC", UnitPrice: decimal.RequireFromString("14417.38"), Quantity: 1},
		},
	}
}

func TestPlaceComputesTotals(t *testing.T) {
	f := newFixture("200")

	o, replayed, err := f.svc.Place(context.Background(), draft(""))
	require.NoError(t, err)

	assert.False(t, replayed)
	assert.Equal(t, "39937.38", o.Subtotal.StringFixed(2))
	assert.Equal(t, "200.00", o.ShippingCharge.StringFixed(2))
	assert.Equal(t, "40137.38", o.Total.StringFixed(2))
	assert.Equal(t, "25520.00", o.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, PaymentCOD, o.PaymentMethod)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, OriginShopper, o.Origin)
	assert.Equal(t, "Ayesha", o.Buyer.Name)
	assert.Equal(t, "ORD-20260314-00001", o.OrderNumber)
	assert.Equal(t, []string{EventCreated}, f.publisher.types())
	assert.Equal(t, 1, f.notifier.calls)
}

func TestPlaceWithZeroShipping(t *testing.T) {
	f := newFixture("0")
	o, _, err := f.svc.Place(context.Background(), draft(""))
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(o.Subtotal))
}

func TestPlaceValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
	}{
		{name: "missing city", mutate: func(d *Draft) { d.Buyer.City = "  " }},
		{name: "no items", mutate: func(d *Draft) { d.Items = nil }},
		{name: "zero quantity", mutate: func(d *Draft) { d.Items[0].Quantity = 0 }},
		{name: "card payment", mutate: func(d *Draft) { d.PaymentMethod = PaymentCard }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("200")
			d := draft("")
			tt.mutate(&d)

			_, _, err := f.svc.Place(context.Background(), d)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
			assert.Empty(t, f.repo.orders)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestPlaceIsIdempotent(t *testing.T) {
	f := newFixture("200")
	ctx := context.Background()

	first, replayed, err := f.svc.Place(ctx, draft("key-1"))
	require.NoError(t, err)
	require.False(t, replayed)

	second, replayed, err := f.svc.Place(ctx, draft("key-1"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.orders, 1)
	assert.Equal(t, 1, f.notifier.calls)

	_, _, err = f.svc.Place(ctx, draft("key-2"))
	require.NoError(t, err)
	assert.Len(t, f.repo.orders, 2)
}

func TestPlaceResolvesIdempotencyRace(t *testing.T) {
	f := newFixture("200")
	ctx := context.Background()

	// another request with the same key commits between lookup and insert
	f.repo.beforeCreate = func() {
		f.repo.beforeCreate = nil
		_, _, err := f.svc.Place(ctx, draft("key-1"))
		require.NoError(t, err)
	}

	o, replayed, err := f.svc.Place(ctx, draft("key-1"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, uint(1), o.ID)
	assert.Len(t, f.repo.orders, 1)
}

func TestPlaceStaffOrder(t *testing.T) {
	f := newFixture("200")
	req := &StaffRequest{
		ProductID:       "fan-1",
		CustomerName:    "Bilal",
		CustomerContact: "0321-7654321",
		CustomerCity:    "Multan",
		Address:         "Shop 3, Hussain Agahi",
		Quantity:        3,
		Total:           decimal.NewFromInt(36000),
	}

	o, _, err := f.svc.PlaceStaffOrder(context.Background(), req, "admin@orient.pk")
	require.NoError(t, err)

	assert.Equal(t, OriginStaff, o.Origin)
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Equal(t, "36000.00", o.Total.StringFixed(2))
	assert.True(t, o.ShippingCharge.IsZero())
	assert.Equal(t, "12000.00", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "https://cdn/fan.jpg", o.Items[0].Image)
	assert.Equal(t, "admin@orient.pk", o.CreatedBy)

	bad := *req
	bad.ProductID = "missing"
	_, _, err = f.svc.PlaceStaffOrder(context.Background(), &bad, "admin@orient.pk")
	assert.True(t, apperror.IsValidation(err))

	bad = *req
	bad.PaymentMethod = PaymentCOD
	_, _, err = f.svc.PlaceStaffOrder(context.Background(), &bad, "admin@orient.pk")
	assert.True(t, apperror.IsValidation(err))

	bad = *req
	bad.Total = decimal.Zero
	_, _, err = f.svc.PlaceStaffOrder(context.Background(), &bad, "admin@orient.pk")
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture("200")
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, draft(""))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, o.ID, &UpdateStatusRequest{Status: StatusShipped}, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, o.ID, &UpdateStatusRequest{Status: "Lost"}, "admin")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UpdateStatus(ctx, o.ID, &UpdateStatusRequest{Status: StatusDelivered}, "admin")
	require.NoError(t, err)

	same, err := f.svc.UpdateStatus(ctx, o.ID, &UpdateStatusRequest{Status: StatusDelivered}, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, same.Status)

	_, err = f.svc.UpdateStatus(ctx, 99, &UpdateStatusRequest{Status: StatusShipped}, "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{EventCreated, EventStatusChanged, EventStatusChanged}, f.publisher.types())
}

func TestUpdateStatusCorrectsMistakes(t *testing.T) {
	f := newFixture("200")
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, draft(""))
	require.NoError(t, err)

	for _, status := range []Status{StatusDelivered, StatusInRoute, StatusShipped, StatusPending} {
		updated, err := f.svc.UpdateStatus(ctx, o.ID, &UpdateStatusRequest{Status: status, Comment: "corrected"}, "admin")
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	stored, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusHistory, 5)
	assert.Equal(t, StatusPending, stored.StatusHistory[4].Status)
	assert.Equal(t, "admin", stored.StatusHistory[4].CreatedBy)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusDelivered))
	assert.True(t, CanTransition(StatusDelivered, StatusPending))
	assert.True(t, CanTransition(StatusInRoute, StatusShipped))
	assert.False(t, CanTransition(StatusShipped, StatusShipped))
	assert.False(t, CanTransition("Lost", StatusShipped))
}

func TestPublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture("200")
	f.publisher.err = errors.New("broker down")

	o, _, err := f.svc.Place(context.Background(), draft(""))
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
}

func TestListAndDelete(t *testing.T) {
	f := newFixture("200")
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, draft(""))
	require.NoError(t, err)

	list, err := f.svc.List(ctx, &ListRequest{Origin: OriginShopper})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 20, list.Pagination.Limit)

	_, err = f.svc.List(ctx, &ListRequest{Status: "Lost"})
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, f.svc.Delete(ctx, o.ID, "admin"))
	_, err = f.svc.Get(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, o.ID, "admin"), ErrNotFound)
}
