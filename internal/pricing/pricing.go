package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/pkg/types"
)

// Fixed storefront pricing policy. Not configurable and not looked up from
// any tax table; the cart page and the checkout page must show identical
// numbers because both derive them from here.
var (
	taxRate               = decimal.RequireFromString("0.10")
	freeShippingThreshold = decimal.NewFromInt(1000)
	flatShippingFee       = decimal.NewFromInt(50)
)

// Priceable is the slice of a cart line the calculator needs.
type Priceable struct {
	Product  types.ProductSnapshot
	Quantity int
}

// Snapshot is a derived pricing breakdown. It is recomputed fresh on every
// Quote call and never stored.
type Snapshot struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Quote derives checkout totals from the given lines. All math is exact;
// rounding happens only when a value is formatted for display.
func Quote(lines []Priceable) Snapshot {
	subtotal := decimal.Zero
	for _, line := range lines {
		unit := line.Product.EffectivePrice()
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	tax := subtotal.Mul(taxRate)

	// Strictly greater than: a subtotal exactly at the threshold still pays
	// the flat fee.
	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Snapshot{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// FreeShipping reports whether the snapshot qualified for free shipping.
func (s Snapshot) FreeShipping() bool {
	return s.Shipping.IsZero()
}

// Format renders an amount for display, rounded to two decimal places.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
