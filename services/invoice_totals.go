package services

import "github.com/shopspring/decimal"

// InvoiceTotals is the result of CalcInvoiceTotals. All amounts are cents.
type InvoiceTotals struct {
	SubtotalCents int64   `json:"subtotalCents"`
	TaxPercent    float64 `json:"taxPercent"`
	TaxCents      int64   `json:"taxCents"`
	TotalCents    int64   `json:"totalCents"`
}

var hundred = decimal.NewFromInt(100)

// CalcInvoiceTotals computes tax and total for a subtotal.
// Tax is rounded half away from zero to whole cents.
// The editor preview and the renderer both call this.
func CalcInvoiceTotals(subtotalCents int64, taxPercent float64) InvoiceTotals {
	tax := decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromFloat(taxPercent)).
		Div(hundred).
		Round(0).
		IntPart()

	return InvoiceTotals{
		SubtotalCents: subtotalCents,
		TaxPercent:    taxPercent,
		TaxCents:      tax,
		TotalCents:    subtotalCents + tax,
	}
}

// CalcLineAmountCents returns hours × rate in cents, rounded to a whole cent.
func CalcLineAmountCents(hours, rate float64) int64 {
	return decimal.NewFromFloat(hours).
		Mul(decimal.NewFromFloat(rate)).
		Mul(hundred).
		Round(0).
		IntPart()
}

// SumLineItems adds up the amounts of all line items.
func SumLineItems(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.AmountCents
	}
	return total
}
