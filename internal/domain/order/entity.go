// internal/domain/order/entity.go
package order

import (
	"fmt"
	"slices"
	"time"

	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Status represents the delivery status of an order
type Status string

const (
	StatusPending        Status = "Pending"
	StatusShipped        Status = "Shipped"
	StatusInRoute        Status = "In Route"
	StatusDelivered      Status = "Delivered"
	StatusFailedDelivery Status = "Failed Delivery"
)

// Statuses lists every status in workflow order
var Statuses = []Status{StatusPending, StatusShipped, StatusInRoute, StatusDelivered, StatusFailedDelivery}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Origin tells who placed the order
type Origin string

const (
	OriginShopper Origin = "shopper"
	OriginStaff   Origin = "staff"
)

// PaymentMethod of an order
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
)

// Buyer holds the delivery contact of an order
type Buyer struct {
	Name    string `gorm:"size:255;not null" json:"name"`
	Phone   string `gorm:"size:50;not null" json:"phone"`
	Address string `gorm:"size:500;not null" json:"address"`
	City    string `gorm:"size:100;not null" json:"city"`
}

// Order is an immutable snapshot of what was bought. Only the status changes after creation.
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"uniqueIndex;size:50" json:"order_number"`
	IdempotencyKey *string         `gorm:"uniqueIndex;size:100" json:"-"`
	Origin         Origin          `gorm:"not null;size:20;index" json:"origin"`
	Buyer          Buyer           `gorm:"embedded;embeddedPrefix:buyer_" json:"buyer"`
	PaymentMethod  PaymentMethod   `gorm:"not null;size:20" json:"payment_method"`
	Note           string          `gorm:"type:text" json:"note"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCharge decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_charge"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency       string          `gorm:"size:3;default:'PKR'" json:"currency"`
	Status         Status          `gorm:"not null;size:30;default:'Pending';index" json:"status"`
	CreatedBy      string          `gorm:"size:255" json:"created_by,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Relationships
	Items         []Item          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// Item is one frozen order line
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID string          `gorm:"not null;size:64;index" json:"product_id"`
	Name      string          `gorm:"not null;size:255" json:"name"`
	Image     string          `gorm:"size:500" json:"image,omitempty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// StatusHistory tracks order status changes
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"not null;size:30" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (Item) TableName() string          { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber formats the order number from the creation date and ID
func (o *Order) GenerateOrderNumber() string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", o.CreatedAt.Format("20060102"), o.ID)
}

// ItemCount is the number of units in the order
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// AddStatusHistory adds a new status change to history
func (o *Order) AddStatusHistory(status Status, comment, createdBy string) {
	o.StatusHistory = append(o.StatusHistory, StatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}

// NewItem freezes a line at unit price times quantity
func NewItem(productID, name, image string, unit decimal.Decimal, quantity int) Item {
	return Item{
		ProductID: productID,
		Name:      name,
		Image:     image,
		UnitPrice: pricing.Round(unit),
		Quantity:  quantity,
		LineTotal: pricing.LineTotal(unit, quantity),
	}
}

// CanTransition reports whether an administrator may move an order from one status to another.
// Any known status may follow any other.
func CanTransition(from, to Status) bool {
	return from != to && from.Valid() && to.Valid()
}
