package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"    // Open, accepts mutations
	CartStatusConverted CartStatus = "CONVERTED" // Turned into an order or explicitly cleared
	CartStatusAbandoned CartStatus = "ABANDONED" // Swept after inactivity
)

// Terminal reports whether the cart can no longer be located for an identity.
func (s CartStatus) Terminal() bool {
	return s == CartStatusConverted || s == CartStatusAbandoned
}

type Cart struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string     `gorm:"index;type:varchar(128)" json:"user_id,omitempty"`
	SessionID string     `gorm:"index;type:varchar(128)" json:"session_id,omitempty"`
	Status    CartStatus `gorm:"type:VARCHAR(20);default:'ACTIVE';index" json:"status"`
	Currency  string     `gorm:"type:VARCHAR(3)" json:"currency"`
	Address   Address    `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`

	// Aggregates below are always re-derived from Items before being trusted.
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	DiscountTotal decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount_total"`
	TaxTotal      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax_total"`
	ShippingTotal decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"shipping_total"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"grand_total"`

	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CartID    string          `gorm:"index;type:varchar(36);not null" json:"cart_id"`
	VariantID string          `gorm:"index;type:varchar(64);not null" json:"variant_id"`
	Variant   *Variant        `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"` // Frozen at first add
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	Metadata  map[string]any  `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Address is the shipping destination used to pick a shipping zone.
type Address struct {
	Line1    string `json:"line1"`
	Area     string `json:"area"`
	District string `json:"district"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
}

// Localities returns the non-empty locality names, most specific first.
func (a Address) Localities() []string {
	var out []string
	for _, v := range []string{a.Area, a.District, a.City, a.Line1} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
