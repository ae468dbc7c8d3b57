package shaper

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/totals"
)

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestShape_AttributeFallbacks(t *testing.T) {
	product := &models.Product{ID: "p1", Title: "Kurta", Fabric: "Cotton", Image: "p.jpg", SKU: "P-SKU"}
	variant := &models.Variant{
		ID:        "v1",
		ProductID: "p1",
		Product:   product,
		Title:     "Blue / M",
		Barcode:   "890123",
		OptionValues: []models.VariantOptionValue{
			{OptionName: "Shirt Size", Value: "M"},
			{OptionName: "Colour", Value: "Blue"},
		},
	}
	snap := &cart.Snapshot{
		Cart: &models.Cart{ID: "c1", Status: models.CartStatusActive, Currency: "BDT"},
		Items: []models.CartItem{{
			ID:        "l1",
			VariantID: "v1",
			Variant:   variant,
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(100),
			Subtotal:  decimal.NewFromInt(200),
			Metadata:  map[string]any{"image": "line.jpg"},
		}},
		Totals: totals.Totals{Subtotal: decimal.NewFromInt(200), Grand: decimal.NewFromInt(200)},
	}

	out := Shape(snap, "BDT")
	require.Len(t, out.Items, 1)
	l := out.Items[0]

	assert.Equal(t, "line.jpg", str(l.Image), "line metadata wins")
	assert.Equal(t, "890123", str(l.Barcode), "variant field")
	assert.Equal(t, "P-SKU", str(l.SKU), "product field")
	assert.Equal(t, "Cotton", str(l.Fabric))
	assert.Equal(t, "M", str(l.Size), "option values")
	assert.Equal(t, "Blue", str(l.Color))
	assert.Nil(t, l.Thumbnail, "no source means null, never a guess")
	assert.Equal(t, "Kurta - Blue / M", l.Title)
	assert.Equal(t, "p1", l.ProductID)
	assert.Equal(t, "100.00", l.UnitPrice)
	assert.Equal(t, "200.00", l.Subtotal)
	assert.Equal(t, 2, out.ItemCount)
	assert.Equal(t, "200.00", out.Totals.GrandTotal)
	assert.Nil(t, out.Address)
}

func TestShape_FiltersGhostLines(t *testing.T) {
	snap := &cart.Snapshot{
		Cart: &models.Cart{ID: "c1"},
		Items: []models.CartItem{
			{ID: "a", VariantID: "v1", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
			{ID: "b", VariantID: "v2", Quantity: 0},
			{ID: "c", VariantID: "v3", Quantity: -2},
		},
	}
	out := Shape(snap, "BDT")
	require.Len(t, out.Items, 1)
	assert.Equal(t, "a", out.Items[0].ID)
	assert.Equal(t, "BDT", out.Currency)
}

func TestShape_EmptyCart(t *testing.T) {
	for _, snap := range []*cart.Snapshot{nil, {}} {
		out := Shape(snap, "BDT")
		assert.Empty(t, out.ID)
		assert.NotNil(t, out.Items)
		assert.Equal(t, "0.00", out.Totals.Subtotal)
		assert.Equal(t, "0.00", out.Totals.GrandTotal)
	}

	data, err := json.Marshal(Empty("BDT"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"currency": "BDT",
		"items": [],
		"itemCount": 0,
		"totals": {
			"subtotal": "0.00",
			"discountTotal": "0.00",
			"shippingTotal": "0.00",
			"taxTotal": "0.00",
			"grandTotal": "0.00",
			"taxInclusive": false
		}
	}`, string(data))
}

func TestShape_NullAttributesSerialize(t *testing.T) {
	snap := &cart.Snapshot{
		Cart:  &models.Cart{ID: "c1", Address: models.Address{City: "Dhaka"}},
		Items: []models.CartItem{{ID: "a", VariantID: "v1", Quantity: 1}},
	}
	out := Shape(snap, "BDT")
	require.NotNil(t, out.Address)
	assert.Equal(t, "Dhaka", out.Address.City)

	data, err := json.Marshal(out.Items[0])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"size", "color", "fabric", "sku", "barcode", "image", "thumbnail"} {
		v, ok := m[k]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}
}
