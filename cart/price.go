package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront-api/models"
)

// PriceSignal reads one candidate unit price for a variant.
type PriceSignal func(v *models.Variant, currency string) (decimal.Decimal, bool)

// currencyPrice matches a per-currency override row.
func currencyPrice(v *models.Variant, currency string) (decimal.Decimal, bool) {
	for _, p := range v.Prices {
		if strings.EqualFold(p.Currency, currency) {
			return p.Amount, true
		}
	}
	return decimal.Zero, false
}

func variantSalePrice(v *models.Variant, _ string) (decimal.Decimal, bool) {
	return deref(v.SalePrice)
}

func variantPrice(v *models.Variant, _ string) (decimal.Decimal, bool) {
	return deref(v.Price)
}

func productSalePrice(v *models.Variant, _ string) (decimal.Decimal, bool) {
	if v.Product == nil {
		return decimal.Zero, false
	}
	return deref(v.Product.SalePrice)
}

func productPrice(v *models.Variant, _ string) (decimal.Decimal, bool) {
	if v.Product == nil {
		return decimal.Zero, false
	}
	return deref(v.Product.Price)
}

func deref(d *decimal.Decimal) (decimal.Decimal, bool) {
	if d == nil {
		return decimal.Zero, false
	}
	return *d, true
}

// Pricer picks the unit price frozen onto a new line. The base price columns
// are denominated in the store currency, so they only apply to it.
type Pricer struct {
	baseCurrency string
	overrides    []PriceSignal
	base         []PriceSignal
}

func NewPricer(baseCurrency string) *Pricer {
	return &Pricer{
		baseCurrency: baseCurrency,
		overrides:    []PriceSignal{currencyPrice},
		base:         []PriceSignal{variantSalePrice, variantPrice, productSalePrice, productPrice},
	}
}

// Price returns the first positive candidate.
func (p *Pricer) Price(v *models.Variant, currency string) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}
	if currency == "" {
		currency = p.baseCurrency
	}
	signals := p.overrides
	if strings.EqualFold(currency, p.baseCurrency) {
		signals = append(append([]PriceSignal{}, p.overrides...), p.base...)
	}
	for _, sig := range signals {
		if amt, ok := sig(v, currency); ok && amt.IsPositive() {
			return amt.Round(2), true
		}
	}
	return decimal.Zero, false
}
