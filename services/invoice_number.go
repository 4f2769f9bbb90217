package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// formatInvoiceNumber constructs the invoice number from components.
func formatInvoiceNumber(agencyRef string, year, sequence int) string {
	return fmt.Sprintf("INV-%s-%d-%03d", agencyRef, year, sequence)
}

// NextInvoiceNumbers reserves n consecutive invoice numbers for an agency.
// Format: INV-{agency_ref}-{year}-{sequence}
//   - agency_ref: agency's reference (falls back to agency ID if empty)
//   - year: calendar year of now
//   - sequence: 3-digit zero-padded, per agency per year, continuing after
//     the highest number already stored
func NextInvoiceNumbers(app core.App, agencyID string, now time.Time, n int) ([]string, error) {
	agency, err := app.FindRecordById("agencies", agencyID)
	if err != nil {
		return nil, notFound("agency", agencyID)
	}

	agencyRef := agency.GetString("reference")
	if agencyRef == "" {
		agencyRef = agencyID
	}

	prefix := fmt.Sprintf("INV-%s-%d-", agencyRef, now.Year())

	existing, err := app.FindAllRecords("invoices",
		dbx.HashExp{"agency": agencyID},
		dbx.NewExp("invoice_number LIKE {:prefix}", dbx.Params{"prefix": prefix + "%"}),
	)
	if err != nil {
		return nil, fmt.Errorf("query invoice numbers: %w", err)
	}

	last := 0
	for _, r := range existing {
		seq, err := strconv.Atoi(strings.TrimPrefix(r.GetString("invoice_number"), prefix))
		if err == nil && seq > last {
			last = seq
		}
	}

	numbers := make([]string, n)
	for i := range numbers {
		numbers[i] = formatInvoiceNumber(agencyRef, now.Year(), last+i+1)
	}
	return numbers, nil
}
