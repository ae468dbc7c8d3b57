package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product and its variants are owned by the catalog service; the cart only reads them.
type Product struct {
	ID        string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title     string           `gorm:"not null" json:"title"`
	Handle    string           `gorm:"index" json:"handle"`
	SKU       string           `json:"sku"`
	Barcode   string           `json:"barcode"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Fabric    string           `json:"fabric"`
	Image     string           `json:"image"`
	Thumbnail string           `json:"thumbnail"`
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	SalePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	Variants  []Variant        `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

type Variant struct {
	ID         string   `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID  string   `gorm:"index;type:varchar(64);not null" json:"product_id"`
	Product    *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ExternalID *int64   `gorm:"uniqueIndex" json:"external_id,omitempty"` // Legacy numeric id from the old storefront
	SKU        string   `gorm:"index" json:"sku"`
	Barcode    string   `json:"barcode"`
	Title      string   `json:"title"`
	Size       string   `json:"size"`
	Color      string   `json:"color"`
	Fabric     string   `json:"fabric"`
	Image      string   `json:"image"`
	Thumbnail  string   `json:"thumbnail"`

	Price     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	SalePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	Prices    []VariantPrice   `gorm:"foreignKey:VariantID" json:"prices,omitempty"`

	// Stock hints written by the inventory sync; any of them may be missing.
	Available   *int `json:"available,omitempty"`
	OnHand      *int `json:"on_hand,omitempty"`
	Reserved    *int `json:"reserved,omitempty"`
	SafetyStock *int `json:"safety_stock,omitempty"`

	Inventory    []InventoryLevel     `gorm:"foreignKey:VariantID" json:"inventory,omitempty"`
	OptionValues []VariantOptionValue `gorm:"foreignKey:VariantID" json:"option_values,omitempty"`
	Metadata     map[string]any       `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VariantPrice is a per-currency price override.
type VariantPrice struct {
	ID        uint            `gorm:"primaryKey"`
	VariantID string          `gorm:"index;type:varchar(64);not null"`
	Currency  string          `gorm:"type:VARCHAR(3);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// InventoryLevel is one stock location row for a variant.
type InventoryLevel struct {
	ID          uint   `gorm:"primaryKey"`
	VariantID   string `gorm:"index;type:varchar(64);not null"`
	LocationID  string `gorm:"type:varchar(64)"`
	OnHand      int
	Reserved    int
	SafetyStock int
	UpdatedAt   time.Time
}

type VariantOptionValue struct {
	ID         uint   `gorm:"primaryKey"`
	VariantID  string `gorm:"index;type:varchar(64);not null"`
	OptionName string `gorm:"not null"`
	Value      string `gorm:"not null"`
}
