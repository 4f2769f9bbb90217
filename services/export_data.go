package services

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// RegisterRow is one invoice in the agency register export.
type RegisterRow struct {
	InvoiceNumber string
	WorkerName    string
	CreatedDate   string
	Status        InvoiceStatus
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// RegisterData holds all data needed for the register export.
type RegisterData struct {
	Title          string
	AgencyName     string
	CreatedDate    string
	CurrencySymbol string
	Rows           []RegisterRow
	TotalBilled    int64
	TotalPaid      int64
	TotalOpen      int64
}

// BuildRegisterData collects an agency's invoices for export.
func BuildRegisterData(app core.App, agencyID string, now time.Time, opts DocumentOptions) (RegisterData, error) {
	agency, err := GetAgency(app, agencyID)
	if err != nil {
		return RegisterData{}, err
	}
	invoices, err := ListInvoices(app, agencyID, now, opts.DueDays)
	if err != nil {
		return RegisterData{}, err
	}

	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	data := RegisterData{
		Title:          "Invoice Register",
		AgencyName:     agency.Name,
		CreatedDate:    FormatDate(now),
		CurrencySymbol: symbol,
	}
	for _, inv := range invoices {
		data.Rows = append(data.Rows, RegisterRow{
			InvoiceNumber: inv.InvoiceNumber,
			WorkerName:    inv.WorkerName,
			CreatedDate:   FormatDate(inv.CreatedAt),
			Status:        inv.DisplayStatus,
			SubtotalCents: inv.SubtotalCents,
			TaxCents:      inv.TaxCents,
			TotalCents:    inv.AmountCents,
		})
		switch inv.Status {
		case StatusCancelled:
			continue
		case StatusPaid:
			data.TotalPaid += inv.AmountCents
		default:
			data.TotalOpen += inv.AmountCents
		}
		data.TotalBilled += inv.AmountCents
	}
	return data, nil
}
