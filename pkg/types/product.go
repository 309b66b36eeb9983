package types

import "github.com/shopspring/decimal"

// ProductSnapshot is the denormalized slice of a product a cart line carries:
// enough to display and price the line without refetching the product.
type ProductSnapshot struct {
	ID            string           `json:"id" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Images        []string         `json:"images,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

// EffectivePrice returns the unit price a buyer actually pays: the discount
// price when present and strictly below the list price, else the list price.
func (p ProductSnapshot) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}

// SizeOption is one stocked size of a product.
type SizeOption struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}
