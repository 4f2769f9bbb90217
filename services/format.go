package services

import (
	"strconv"
	"time"
)

// DefaultCurrencySymbol is used when no symbol is configured.
const DefaultCurrencySymbol = "$"

// FormatCurrency formats integer cents with the default symbol,
// e.g. 123456 → "$1,234.56".
func FormatCurrency(cents int64) string {
	return FormatMoney(cents, DefaultCurrencySymbol)
}

// FormatMoney formats integer cents as symbol + grouped units + two decimals.
func FormatMoney(cents int64, symbol string) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	units := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	result := symbol + applyThousandsGrouping(units) + "."
	if frac < 10 {
		result += "0"
	}
	result += strconv.FormatInt(frac, 10)

	if negative {
		result = "-" + result
	}
	return result
}

// applyThousandsGrouping inserts a comma every three digits from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "," + result
		remaining = remaining[:len(remaining)-3]
	}
	return remaining + "," + result
}

// FormatDate renders a date as year/month/day without zero padding.
func FormatDate(t time.Time) string {
	return t.Format("2006/1/2")
}

// FormatHours renders an hour count like "40h" or "7.5h".
func FormatHours(h float64) string {
	return formatNumber(h) + "h"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
