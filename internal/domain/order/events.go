package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published on the order topic
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
	EventDeleted       = "order.deleted"
)

// Event is published whenever an order is created or changes status
type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Origin      Origin    `json:"origin"`
	Status      Status    `json:"status"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	Actor       string    `json:"actor,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher ships order events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notifier tells the shop about new orders
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

// NewEvent builds an event of type for o
func NewEvent(eventType string, o *Order, actor string) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Origin:      o.Origin,
		Status:      o.Status,
		Total:       o.Total.StringFixed(2),
		Currency:    o.Currency,
		ItemCount:   o.ItemCount(),
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, *Order) error { return nil }
