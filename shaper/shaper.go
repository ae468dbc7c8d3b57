// Package shaper projects cart snapshots into the client-facing JSON shape.
package shaper

import (
	"fmt"
	"strings"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/totals"
)

type Line struct {
	ID        string  `json:"id"`
	VariantID string  `json:"variantId"`
	ProductID string  `json:"productId,omitempty"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice string  `json:"unitPrice"`
	Subtotal  string  `json:"subtotal"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Fabric    *string `json:"fabric"`
	SKU       *string `json:"sku"`
	Barcode   *string `json:"barcode"`
	Image     *string `json:"image"`
	Thumbnail *string `json:"thumbnail"`
}

type Totals struct {
	Subtotal      string `json:"subtotal"`
	DiscountTotal string `json:"discountTotal"`
	ShippingTotal string `json:"shippingTotal"`
	TaxTotal      string `json:"taxTotal"`
	GrandTotal    string `json:"grandTotal"`
	TaxInclusive  bool   `json:"taxInclusive"`
	ShippingZone  string `json:"shippingZone,omitempty"`
}

type Cart struct {
	ID        string             `json:"id,omitempty"`
	Status    models.CartStatus  `json:"status,omitempty"`
	Currency  string             `json:"currency"`
	Items     []Line             `json:"items"`
	ItemCount int                `json:"itemCount"`
	Totals    Totals             `json:"totals"`
	Address   *models.Address    `json:"shippingAddress,omitempty"`
	Dropped   []cart.DroppedLine `json:"dropped,omitempty"`
}

// Empty is the shape of a visitor without a cart.
func Empty(currency string) Cart {
	zero := totals.Fixed(totals.Totals{}.Subtotal)
	return Cart{
		Currency: currency,
		Items:    []Line{},
		Totals: Totals{
			Subtotal:      zero,
			DiscountTotal: zero,
			ShippingTotal: zero,
			TaxTotal:      zero,
			GrandTotal:    zero,
		},
	}
}

// Shape projects a snapshot. Lines with a non-positive quantity never reach
// the client.
func Shape(snap *cart.Snapshot, defaultCurrency string) Cart {
	if snap == nil || snap.Cart == nil {
		out := Empty(defaultCurrency)
		if snap != nil {
			out.Dropped = snap.Dropped
		}
		return out
	}
	c := snap.Cart
	out := Cart{
		ID:       c.ID,
		Status:   c.Status,
		Currency: c.Currency,
		Items:    make([]Line, 0, len(snap.Items)),
		Totals: Totals{
			Subtotal:      totals.Fixed(snap.Totals.Subtotal),
			DiscountTotal: totals.Fixed(snap.Totals.Discount),
			ShippingTotal: totals.Fixed(snap.Totals.Shipping),
			TaxTotal:      totals.Fixed(snap.Totals.Tax),
			GrandTotal:    totals.Fixed(snap.Totals.Grand),
			TaxInclusive:  snap.Totals.TaxInclusive,
			ShippingZone:  snap.Totals.Zone,
		},
		Dropped: snap.Dropped,
	}
	if out.Currency == "" {
		out.Currency = defaultCurrency
	}
	if c.Address != (models.Address{}) {
		addr := c.Address
		out.Address = &addr
	}
	for i := range snap.Items {
		it := &snap.Items[i]
		if it.Quantity <= 0 {
			continue
		}
		out.Items = append(out.Items, shapeLine(it))
		out.ItemCount += it.Quantity
	}
	return out
}

func shapeLine(it *models.CartItem) Line {
	l := Line{
		ID:        it.ID,
		VariantID: it.VariantID,
		Quantity:  it.Quantity,
		UnitPrice: totals.Fixed(it.UnitPrice),
		Subtotal:  totals.Fixed(it.Subtotal),
		Size:      resolve(it, sizeSources),
		Color:     resolve(it, colorSources),
		Fabric:    resolve(it, fabricSources),
		SKU:       resolve(it, skuSources),
		Barcode:   resolve(it, barcodeSources),
		Image:     resolve(it, imageSources),
		Thumbnail: resolve(it, thumbnailSources),
	}
	if v := it.Variant; v != nil {
		l.ProductID = v.ProductID
		l.Title = v.Title
		if p := v.Product; p != nil {
			switch {
			case l.Title == "":
				l.Title = p.Title
			case !strings.Contains(l.Title, p.Title):
				l.Title = p.Title + " - " + l.Title
			}
		}
	}
	return l
}

// source reads one candidate value for a display attribute.
type source func(it *models.CartItem) string

// resolve returns the first non-empty candidate, or nil.
func resolve(it *models.CartItem, sources []source) *string {
	for _, src := range sources {
		if v := strings.TrimSpace(src(it)); v != "" {
			return &v
		}
	}
	return nil
}

var (
	sizeSources = []source{
		meta("size"),
		variantField(func(v *models.Variant) string { return v.Size }),
		productField(func(p *models.Product) string { return p.Size }),
		optionValue("size"),
	}
	colorSources = []source{
		meta("color", "colour"),
		variantField(func(v *models.Variant) string { return v.Color }),
		productField(func(p *models.Product) string { return p.Color }),
		optionValue("color", "colour"),
	}
	fabricSources = []source{
		meta("fabric", "material"),
		variantField(func(v *models.Variant) string { return v.Fabric }),
		productField(func(p *models.Product) string { return p.Fabric }),
	}
	skuSources = []source{
		meta("sku"),
		variantField(func(v *models.Variant) string { return v.SKU }),
		productField(func(p *models.Product) string { return p.SKU }),
	}
	barcodeSources = []source{
		meta("barcode"),
		variantField(func(v *models.Variant) string { return v.Barcode }),
		productField(func(p *models.Product) string { return p.Barcode }),
	}
	imageSources = []source{
		meta("image", "imageUrl", "image_url"),
		variantField(func(v *models.Variant) string { return v.Image }),
		productField(func(p *models.Product) string { return p.Image }),
	}
	thumbnailSources = []source{
		meta("thumbnail"),
		variantField(func(v *models.Variant) string { return v.Thumbnail }),
		productField(func(p *models.Product) string { return p.Thumbnail }),
	}
)

func meta(keys ...string) source {
	return func(it *models.CartItem) string {
		for _, k := range keys {
			if v, ok := it.Metadata[k]; ok && v != nil {
				return fmt.Sprint(v)
			}
		}
		return ""
	}
}

func variantField(get func(*models.Variant) string) source {
	return func(it *models.CartItem) string {
		if it.Variant == nil {
			return ""
		}
		return get(it.Variant)
	}
}

func productField(get func(*models.Product) string) source {
	return func(it *models.CartItem) string {
		if it.Variant == nil || it.Variant.Product == nil {
			return ""
		}
		return get(it.Variant.Product)
	}
}

// optionValue scans option links whose name contains one of names.
func optionValue(names ...string) source {
	return func(it *models.CartItem) string {
		if it.Variant == nil {
			return ""
		}
		for _, ov := range it.Variant.OptionValues {
			opt := strings.ToLower(ov.OptionName)
			for _, n := range names {
				if strings.Contains(opt, n) && strings.TrimSpace(ov.Value) != "" {
					return ov.Value
				}
			}
		}
		return ""
	}
}
