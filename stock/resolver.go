// Package stock turns the heterogeneous inventory signal of a variant into a
// single available-to-promise quantity.
package stock

import (
	"math"
	"strconv"
	"strings"

	"github.com/junaidrashid-git/storefront-api/models"
)

// Signal reads one source of stock for a variant. ok is false when the source
// carries no information, which is different from a zero quantity.
type Signal func(v *models.Variant) (qty int, ok bool)

// UnknownPolicy decides what a ceiling looks like when no stock signal exists.
type UnknownPolicy int

const (
	// AllowUnknown treats missing stock as unbounded (fail open).
	AllowUnknown UnknownPolicy = iota
	// RejectUnknown treats missing stock as sold out (fail closed).
	RejectUnknown
)

func ParsePolicy(s string) UnknownPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "reject") {
		return RejectUnknown
	}
	return AllowUnknown
}

func (p UnknownPolicy) String() string {
	if p == RejectUnknown {
		return "reject"
	}
	return "allow"
}

// metadataKeys are the legacy field names the old inventory sync wrote into
// variant metadata, in priority order.
var metadataKeys = []string{"available", "availableQuantity", "available_quantity", "inventory_quantity", "stock", "quantity"}

// DefaultSignals is the ordered accessor list used by the resolver.
var DefaultSignals = []Signal{
	InventoryRows,
	VariantHints,
	VariantAvailable,
	MetadataAvailable,
}

// InventoryRows yields the best per-location net quantity.
func InventoryRows(v *models.Variant) (int, bool) {
	if len(v.Inventory) == 0 {
		return 0, false
	}
	best := math.MinInt
	for _, row := range v.Inventory {
		net := row.OnHand - row.Reserved - row.SafetyStock
		if net > best {
			best = net
		}
	}
	return best, true
}

// VariantHints uses on-hand/reserved/safety columns on the variant itself.
func VariantHints(v *models.Variant) (int, bool) {
	if v.OnHand == nil {
		return 0, false
	}
	net := *v.OnHand
	if v.Reserved != nil {
		net -= *v.Reserved
	}
	if v.SafetyStock != nil {
		net -= *v.SafetyStock
	}
	return net, true
}

func VariantAvailable(v *models.Variant) (int, bool) {
	if v.Available == nil {
		return 0, false
	}
	return *v.Available, true
}

func MetadataAvailable(v *models.Variant) (int, bool) {
	for _, key := range metadataKeys {
		raw, ok := v.Metadata[key]
		if !ok {
			continue
		}
		if n, ok := toInt(raw); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Floor(n)), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// Resolver computes available-to-promise quantities.
type Resolver struct {
	signals []Signal
	// maxLine caps every line regardless of stock; 0 disables it.
	maxLine int
}

func NewResolver(maxLineQuantity int, signals ...Signal) *Resolver {
	if len(signals) == 0 {
		signals = DefaultSignals
	}
	return &Resolver{signals: signals, maxLine: maxLineQuantity}
}

// Available returns the maximum net quantity across every signal found, floored
// at zero. A single fulfilling source is assumed to satisfy the order, so
// sources are never summed. known is false when the variant has no signal.
func (r *Resolver) Available(v *models.Variant) (qty int, known bool) {
	if v == nil {
		return 0, false
	}
	best := math.MinInt
	for _, sig := range r.signals {
		n, ok := sig(v)
		if !ok {
			continue
		}
		known = true
		if n > best {
			best = n
		}
	}
	if !known {
		return 0, false
	}
	if best < 0 {
		best = 0
	}
	return best, true
}

// Ceiling is the largest quantity a cart line for a variant may hold.
type Ceiling struct {
	Limit   int
	Limited bool // false means unbounded
	Known   bool // stock signal was present
}

// Clamp applies the ceiling to qty.
func (c Ceiling) Clamp(qty int) int {
	if c.Limited && qty > c.Limit {
		return c.Limit
	}
	return qty
}

// Ceiling combines the stock signal, the unknown-stock policy and the
// configured per-line maximum.
func (r *Resolver) Ceiling(v *models.Variant, policy UnknownPolicy) Ceiling {
	qty, known := r.Available(v)
	c := Ceiling{Limit: qty, Limited: known, Known: known}
	if !known && policy == RejectUnknown {
		c = Ceiling{Limit: 0, Limited: true}
	}
	if r.maxLine > 0 && (!c.Limited || c.Limit > r.maxLine) {
		c.Limit = r.maxLine
		c.Limited = true
	}
	return c
}
