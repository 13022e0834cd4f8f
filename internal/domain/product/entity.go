// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/lib/pq"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Status of a product in the catalog
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is the canonical catalog record. Price is always derived from OldPrice and Discount.
type Product struct {
	ID              string              `gorm:"primaryKey;type:uuid" json:"id"`
	Slug            string              `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Name            string              `gorm:"not null;size:255" json:"name"`
	Category        string              `gorm:"not null;size:100;index" json:"category"`
	Subcategory     string              `gorm:"size:100" json:"subcategory,omitempty"`
	OldPrice        decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"old_price"`
	Discount        decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount"`
	Price           decimal.Decimal     `gorm:"type:decimal(12,2);not null;index" json:"price"`
	Stock           int                 `gorm:"default:0" json:"stock"`
	Description     string              `gorm:"type:text" json:"description"`
	Features        pq.StringArray      `gorm:"type:text[]" json:"features"`
	Specs           Specs               `gorm:"type:jsonb" json:"specs"`
	Warranty        string              `gorm:"size:255" json:"warranty"`
	YoutubeURL      string              `gorm:"size:500" json:"youtube_url,omitempty"`
	Images          pq.StringArray      `gorm:"type:text[]" json:"images"`
	BannerImage     string              `gorm:"size:500" json:"banner_image,omitempty"`
	MetaTitle       string              `gorm:"size:255" json:"meta_title,omitempty"`
	MetaDescription string              `gorm:"size:500" json:"meta_description,omitempty"`
	MetaKeywords    pq.StringArray      `gorm:"type:text[]" json:"meta_keywords,omitempty"`
	Status          Status              `gorm:"not null;size:20;default:'Active';index" json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Featured pins a product to the top-selling showcase
type Featured struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID string    `gorm:"type:uuid;uniqueIndex;not null" json:"product_id"`
	Rank      int       `gorm:"not null;index" json:"rank"`
	CreatedAt time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Featured) TableName() string { return "top_selling_products" }

// Reprice derives Price from OldPrice and Discount. The stored discount is clamped to [0,100].
func (p *Product) Reprice() error {
	if p.Discount.Valid {
		p.Discount.Decimal = pricing.ClampPercent(p.Discount.Decimal)
	}
	price, err := pricing.DiscountedPrice(decimal.NewNullDecimal(p.OldPrice), p.Discount)
	if err != nil {
		return err
	}
	p.Price = price
	return nil
}

// IsActive reports whether the product is visible to shoppers
func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// IsInStock reports whether any units are left
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// PrimaryImage is the first gallery image, or empty
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Snapshot is the view of the product a cart line captures
func (p *Product) Snapshot() cart.Product {
	snap := cart.Product{
		ID:    p.ID,
		Name:  p.Name,
		Image: p.PrimaryImage(),
		Price: p.OldPrice,
	}
	if p.Discount.Valid {
		snap.DiscountedPrice = decimal.NewNullDecimal(p.Price)
	}
	return snap
}

// DiscountPercentage returns the discount as stored, zero when absent
func (p *Product) DiscountPercentage() decimal.Decimal {
	if !p.Discount.Valid {
		return decimal.Zero
	}
	return p.Discount.Decimal
}
