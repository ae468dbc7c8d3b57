package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/junaidrashid-git/storefront-api/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

var dhakaShipping = ShippingConfig{Zones: []Zone{
	{Name: "Dhaka", Localities: []string{"Savar", "Keraniganj"}, Rate: d("60"), FreeThreshold: dp("2000")},
	{Name: "Outside Dhaka", Rate: d("120"), FreeThreshold: dp("5000"), Default: true},
}}

func line(qty int, price string) Line {
	return Line{Quantity: qty, UnitPrice: d(price), Resolvable: true}
}

func TestCompute_Subtotal(t *testing.T) {
	got := Compute(Input{Lines: []Line{
		line(2, "100.50"),
		line(1, "19.99"),
		line(0, "500"),
		line(-3, "500"),
		{Quantity: 4, UnitPrice: d("10"), Resolvable: false},
	}})

	assert.Equal(t, "220.99", Fixed(got.Subtotal))
	assert.Equal(t, "0.00", Fixed(got.Discount))
	assert.Equal(t, "0.00", Fixed(got.Shipping))
	assert.Equal(t, "0.00", Fixed(got.Tax))
	assert.Equal(t, "220.99", Fixed(got.Grand))
}

func TestCompute_EmptyCartIsZero(t *testing.T) {
	got := Compute(Input{
		Address:    models.Address{City: "Dhaka"},
		Promotions: []decimal.Decimal{d("50")},
		Shipping:   dhakaShipping,
		VAT:        VATConfig{RatePct: d("15")},
	})

	for _, v := range []decimal.Decimal{got.Subtotal, got.Discount, got.Shipping, got.Tax, got.Grand} {
		assert.Equal(t, "0.00", Fixed(v))
	}
}

func TestCompute_DiscountCappedAtSubtotal(t *testing.T) {
	got := Compute(Input{
		Lines:      []Line{line(1, "80")},
		Promotions: []decimal.Decimal{d("50"), d("60"), d("-10")},
	})

	assert.Equal(t, "80.00", Fixed(got.Discount))
	assert.Equal(t, "0.00", Fixed(got.Grand))
}

func TestCompute_Shipping(t *testing.T) {
	tests := []struct {
		name     string
		addr     models.Address
		price    string
		promo    string
		wantZone string
		wantShip string
	}{
		{"no address quotes nothing", models.Address{}, "100", "0", "", "0.00"},
		{"city substring match", models.Address{City: "dhaka north"}, "100", "0", "Dhaka", "60.00"},
		{"override locality", models.Address{District: "SAVAR"}, "100", "0", "Dhaka", "60.00"},
		{"default zone", models.Address{City: "Chattogram"}, "100", "0", "Outside Dhaka", "120.00"},
		{"free over threshold", models.Address{City: "Dhaka"}, "2000", "0", "Dhaka", "0.00"},
		{"threshold uses amount after discount", models.Address{City: "Dhaka"}, "2000", "1", "Dhaka", "60.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(Input{
				Lines:      []Line{line(1, tt.price)},
				Address:    tt.addr,
				Promotions: []decimal.Decimal{d(tt.promo)},
				Shipping:   dhakaShipping,
			})
			assert.Equal(t, tt.wantZone, got.Zone)
			assert.Equal(t, tt.wantShip, Fixed(got.Shipping))
		})
	}
}

func TestCompute_VATInclusiveIsNotAddedAgain(t *testing.T) {
	got := Compute(Input{
		Lines: []Line{line(1, "115")},
		VAT:   VATConfig{RatePct: d("15"), Inclusive: true, ApplyOn: models.VATOnSubtotal},
	})

	assert.Equal(t, "115.00", Fixed(got.Subtotal))
	assert.Equal(t, "15.00", Fixed(got.Tax))
	assert.True(t, got.TaxInclusive)
	assert.Equal(t, "115.00", Fixed(got.Grand))
}

func TestCompute_VATExclusive(t *testing.T) {
	vat := VATConfig{RatePct: d("15"), ApplyOn: models.VATOnSubtotal}

	got := Compute(Input{
		Lines:      []Line{line(2, "50")},
		Promotions: []decimal.Decimal{d("20")},
		Address:    models.Address{City: "Dhaka"},
		Shipping:   dhakaShipping,
		VAT:        vat,
	})
	// base 80, tax 12, grand 80 + 12 + 60
	assert.Equal(t, "12.00", Fixed(got.Tax))
	assert.Equal(t, "152.00", Fixed(got.Grand))

	vat.ApplyOn = models.VATOnSubtotalAndShipping
	got = Compute(Input{
		Lines:      []Line{line(2, "50")},
		Promotions: []decimal.Decimal{d("20")},
		Address:    models.Address{City: "Dhaka"},
		Shipping:   dhakaShipping,
		VAT:        vat,
	})
	// base 140, tax 21
	assert.Equal(t, "21.00", Fixed(got.Tax))
	assert.Equal(t, "161.00", Fixed(got.Grand))
}

func TestCompute_ZeroRateChargesNoVAT(t *testing.T) {
	got := Compute(Input{
		Lines: []Line{line(1, "100")},
		VAT:   VATConfig{RatePct: decimal.Zero, Inclusive: true},
	})
	assert.Equal(t, "0.00", Fixed(got.Tax))
	assert.Equal(t, "100.00", Fixed(got.Grand))
}
