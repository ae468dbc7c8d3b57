// Package totals derives cart money totals from the current line set.
package totals

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront-api/models"
)

var hundred = decimal.NewFromInt(100)

// Zone is a flat-rate shipping zone.
type Zone struct {
	Name          string
	Localities    []string
	Rate          decimal.Decimal
	FreeThreshold *decimal.Decimal
	Default       bool
}

type ShippingConfig struct {
	Zones []Zone
}

// VATConfig charges no tax while RatePct is zero.
type VATConfig struct {
	RatePct   decimal.Decimal
	Inclusive bool
	ApplyOn   models.VATApplyOn
}

// Line is the part of a cart line the engine needs. Resolvable is false for
// lines whose variant no longer exists in the catalog.
type Line struct {
	Quantity   int
	UnitPrice  decimal.Decimal
	Resolvable bool
}

type Input struct {
	Lines      []Line
	Address    models.Address
	Promotions []decimal.Decimal
	Shipping   ShippingConfig
	VAT        VATConfig
}

type Totals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Shipping     decimal.Decimal
	Tax          decimal.Decimal
	Grand        decimal.Decimal
	Zone         string
	TaxInclusive bool
}

// Compute never reads persisted aggregates; everything is derived from in.Lines.
func Compute(in Input) Totals {
	var t Totals

	live := 0
	subtotal := decimal.Zero
	for _, l := range in.Lines {
		if !l.Resolvable || l.Quantity <= 0 {
			continue
		}
		live++
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	t.Subtotal = subtotal.Round(2)

	promo := decimal.Zero
	for _, p := range in.Promotions {
		if p.IsPositive() {
			promo = promo.Add(p)
		}
	}
	t.Discount = decimal.Min(t.Subtotal, promo).Round(2)
	afterDiscount := t.Subtotal.Sub(t.Discount)

	if live > 0 {
		if zone, ok := in.Shipping.Match(in.Address); ok {
			t.Zone = zone.Name
			t.Shipping = zone.Rate
			if zone.FreeThreshold != nil && afterDiscount.GreaterThanOrEqual(*zone.FreeThreshold) {
				t.Shipping = decimal.Zero
			}
		}
	}
	t.Shipping = t.Shipping.Round(2)

	if in.VAT.RatePct.IsPositive() {
		rate := in.VAT.RatePct.Div(hundred)
		base := afterDiscount
		if in.VAT.ApplyOn == models.VATOnSubtotalAndShipping {
			base = base.Add(t.Shipping)
		}
		if in.VAT.Inclusive {
			t.Tax = base.Mul(rate).Div(decimal.NewFromInt(1).Add(rate))
			t.TaxInclusive = true
		} else {
			t.Tax = base.Mul(rate)
		}
	}
	t.Tax = t.Tax.Round(2)

	t.Grand = afterDiscount.Add(t.Shipping)
	if !t.TaxInclusive {
		t.Grand = t.Grand.Add(t.Tax)
	}
	return t
}

// Match picks the zone for an address. Named zones match when any locality
// contains the zone name or one of its override localities, ignoring case.
// Addresses without localities get no zone, so no shipping is quoted.
func (c ShippingConfig) Match(addr models.Address) (Zone, bool) {
	locs := addr.Localities()
	if len(locs) == 0 {
		return Zone{}, false
	}
	var fallback *Zone
	for i := range c.Zones {
		z := c.Zones[i]
		if z.Default {
			if fallback == nil {
				fallback = &c.Zones[i]
			}
			continue
		}
		if zoneMatches(z, locs) {
			return z, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Zone{}, false
}

func zoneMatches(z Zone, locs []string) bool {
	needles := append([]string{z.Name}, z.Localities...)
	for _, loc := range locs {
		loc = strings.ToLower(strings.TrimSpace(loc))
		for _, n := range needles {
			n = strings.ToLower(strings.TrimSpace(n))
			if n != "" && strings.Contains(loc, n) {
				return true
			}
		}
	}
	return false
}

// Fixed renders an amount as a 2-decimal string.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
