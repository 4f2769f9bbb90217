package services

import "testing"

func TestCalcInvoiceTotals(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		tax      float64
		wantTax  int64
		wantTot  int64
	}{
		{"no tax", 88000, 0, 0, 88000},
		{"ten percent", 80000, 10, 8000, 88000},
		{"half cent rounds up", 1005, 10, 101, 1106},
		{"fractional percent", 333, 7.5, 25, 358},
		{"rounds down", 12345, 8.25, 1018, 13363},
		{"full tax", 500, 100, 500, 1000},
		{"zero subtotal", 0, 15, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcInvoiceTotals(tt.subtotal, tt.tax)
			if got.SubtotalCents != tt.subtotal || got.TaxPercent != tt.tax {
				t.Errorf("inputs not echoed: %+v", got)
			}
			if got.TaxCents != tt.wantTax {
				t.Errorf("TaxCents = %d, want %d", got.TaxCents, tt.wantTax)
			}
			if got.TotalCents != tt.wantTot {
				t.Errorf("TotalCents = %d, want %d", got.TotalCents, tt.wantTot)
			}
		})
	}
}

func TestCalcLineAmountCents(t *testing.T) {
	tests := []struct {
		hours float64
		rate  float64
		want  int64
	}{
		{40, 32.5, 130000},
		{38, 41, 155800},
		{7.5, 24.01, 18008},
		{0, 50, 0},
		{1, 0.1, 10},
	}
	for _, tt := range tests {
		if got := CalcLineAmountCents(tt.hours, tt.rate); got != tt.want {
			t.Errorf("CalcLineAmountCents(%v, %v) = %d, want %d", tt.hours, tt.rate, got, tt.want)
		}
	}
}

func TestSumLineItems(t *testing.T) {
	items := []LineItem{{AmountCents: 100}, {AmountCents: 250}, {AmountCents: 5}}
	if got := SumLineItems(items); got != 355 {
		t.Errorf("SumLineItems = %d, want 355", got)
	}
	if got := SumLineItems(nil); got != 0 {
		t.Errorf("SumLineItems(nil) = %d", got)
	}
}
