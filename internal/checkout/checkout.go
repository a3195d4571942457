// Package checkout computes booking prices.  All arithmetic is done in
// decimal so that repeated cents never drift.
package checkout

import "github.com/shopspring/decimal"

// DefaultTaxRate is the flat tax applied to the subtotal.
const DefaultTaxRate = 0.06

// Draft is a booking being priced: unit price, seats, and an already
// validated discount amount (zero when no promo applies).
type Draft struct {
	Price    float64
	Quantity int
	Discount float64
}

// Quote is the priced form of a Draft.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Quote prices the draft.  Taxes are rounded to whole currency units on
// the subtotal; the discount is applied after taxes and the total never
// goes below zero.
func (d Draft) Quote(taxRate float64) Quote {
	subtotal := decimal.NewFromFloat(d.Price).Mul(decimal.NewFromInt(int64(d.Quantity)))
	taxes := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(0)
	discount := decimal.NewFromFloat(d.Discount)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	total := subtotal.Add(taxes).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Quote{
		Subtotal: subtotal.InexactFloat64(),
		Taxes:    taxes.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}
