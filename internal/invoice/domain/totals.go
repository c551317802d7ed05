package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the computed monetary summary of an invoice's line items.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals folds the line items into {subtotal, tax, total}.
//
// All arithmetic is exact decimal; nothing is rounded here, so
// Subtotal + Tax == Total and Total equals the sum of the per-line totals
// for any item count. Formatting happens only at the rendering boundary.
// An empty item list yields zero totals.
func ComputeTotals(items []LineItem) (Totals, error) {
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, item := range items {
		if err := ValidateLineItem(item); err != nil {
			return Totals{}, err
		}
		totals.Subtotal = totals.Subtotal.Add(item.Subtotal())
		totals.Tax = totals.Tax.Add(item.Tax())
	}

	totals.Total = totals.Subtotal.Add(totals.Tax)
	return totals, nil
}

// ValidateLineItem rejects items that must never reach the accumulator:
// empty description, non-positive quantity, negative price, negative VAT.
func ValidateLineItem(item LineItem) error {
	if strings.TrimSpace(item.Description) == "" {
		return ErrInvalidLineItem
	}
	if !item.Quantity.IsPositive() {
		return ErrInvalidLineItem
	}
	if item.UnitPrice.IsNegative() {
		return ErrInvalidLineItem
	}
	if item.VATRate.IsNegative() {
		return ErrInvalidLineItem
	}
	return nil
}
