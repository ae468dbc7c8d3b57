package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingZone is a flat-rate zone. Exactly one zone should have IsDefault set;
// it is used for destinations that match no other zone.
type ShippingZone struct {
	ID            uint             `gorm:"primaryKey"`
	Name          string           `gorm:"not null;uniqueIndex"`
	Localities    []string         `gorm:"type:jsonb;serializer:json"` // Explicit override list matched in addition to Name
	Rate          decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0"`
	FreeThreshold *decimal.Decimal `gorm:"type:numeric(12,2)"`
	IsDefault     bool
	UpdatedAt     time.Time
}

type VATApplyOn string

const (
	VATOnSubtotal            VATApplyOn = "SUBTOTAL"              // After discount
	VATOnSubtotalAndShipping VATApplyOn = "SUBTOTAL_AND_SHIPPING" // After discount, plus shipping
)

// VATSettings is a single-row table; the most recently updated row wins.
type VATSettings struct {
	ID        uint            `gorm:"primaryKey"`
	RatePct   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Inclusive bool
	ApplyOn   VATApplyOn      `gorm:"type:VARCHAR(32);default:'SUBTOTAL'"`
	UpdatedAt time.Time
}

// PromotionApplication is an already-evaluated promotion amount attached to a cart
// by the promotions service.
type PromotionApplication struct {
	ID        uint            `gorm:"primaryKey"`
	CartID    string          `gorm:"index;type:varchar(36);not null"`
	Code      string          `gorm:"type:varchar(64)"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time
}
