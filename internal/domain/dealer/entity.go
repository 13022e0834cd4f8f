// internal/domain/dealer/entity.go
package dealer

import (
	"time"

	"github.com/lib/pq"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// MembershipStatus of a dealer application
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "Pending"
	MembershipAccepted MembershipStatus = "Accepted"
)

// Valid reports whether s is a known status
func (s MembershipStatus) Valid() bool {
	return s == MembershipPending || s == MembershipAccepted
}

// Membership is a shop's request to become a dealer
type Membership struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	DealerName string           `gorm:"not null;size:255" json:"dealer_name"`
	Phone      string           `gorm:"not null;size:50" json:"phone"`
	Email      string           `gorm:"not null;size:255;index" json:"email"`
	ShopPic    string           `gorm:"size:500" json:"shop_pic"`
	ShopCard   string           `gorm:"size:500" json:"shop_card"`
	Status     MembershipStatus `gorm:"not null;size:20;default:'Pending';index" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Dealer is an accepted member who can sign in to the dealer area
type Dealer struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	MembershipID uint       `gorm:"uniqueIndex;not null" json:"membership_id"`
	Name         string     `gorm:"not null;size:255" json:"name"`
	Email        string     `gorm:"not null;size:255" json:"email"`
	Phone        string     `gorm:"size:50" json:"phone"`
	Username     string     `gorm:"uniqueIndex;not null;size:50" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Membership *Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Product is an item offered to dealers at a dealer price
type Product struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	ProductName string              `gorm:"not null;size:255" json:"product_name"`
	NormalPrice decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"normal_price"`
	Discount    decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount"`
	DealerPrice decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"dealer_price"`
	MinOrder    int                 `gorm:"not null;default:1" json:"min_order"`
	Image       string              `gorm:"size:500" json:"image"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Deal is a bundle of products sold to dealers at one price
type Deal struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	DealName   string              `gorm:"not null;size:255" json:"deal_name"`
	Products   pq.StringArray      `gorm:"type:text[]" json:"products"`
	TotalPrice decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Discount   decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount"`
	FinalPrice decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"final_price"`
	MinOrder   int                 `gorm:"not null;default:1" json:"min_order"`
	Images     pq.StringArray      `gorm:"type:text[]" json:"images"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// TableName overrides
func (Membership) TableName() string { return "membership_requests" }
func (Dealer) TableName() string     { return "dealers" }
func (Product) TableName() string    { return "dealer_products" }
func (Deal) TableName() string       { return "dealer_deals" }

// Reprice derives DealerPrice from NormalPrice and Discount
func (p *Product) Reprice() error {
	price, err := reprice(p.NormalPrice, &p.Discount)
	if err != nil {
		return err
	}
	p.DealerPrice = price
	return nil
}

// Reprice derives FinalPrice from TotalPrice and Discount
func (d *Deal) Reprice() error {
	price, err := reprice(d.TotalPrice, &d.Discount)
	if err != nil {
		return err
	}
	d.FinalPrice = price
	return nil
}

func reprice(base decimal.Decimal, discount *decimal.NullDecimal) (decimal.Decimal, error) {
	if discount.Valid {
		discount.Decimal = pricing.ClampPercent(discount.Decimal)
	}
	return pricing.DiscountedPrice(decimal.NewNullDecimal(base), *discount)
}

// IsPending reports whether the membership still awaits a decision
func (m *Membership) IsPending() bool {
	return m.Status == MembershipPending
}
