package services

import (
	"sort"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// WorkerInfoFromRecord maps a workers record.
func WorkerInfoFromRecord(r *core.Record) WorkerInfo {
	return WorkerInfo{
		ID:           r.Id,
		AgencyID:     r.GetString("agency"),
		Name:         r.GetString("name"),
		Email:        r.GetString("email"),
		Phone:        r.GetString("phone"),
		Address:      r.GetString("address"),
		Role:         r.GetString("role"),
		Age:          r.GetInt("age"),
		WorkedHours:  r.GetFloat("worked_hours"),
		OverdueHours: r.GetFloat("overdue_hours"),
		HourlyRate:   r.GetFloat("hourly_rate"),
	}
}

// AgencyInfoFromRecord maps an agencies record.
func AgencyInfoFromRecord(r *core.Record) AgencyInfo {
	return AgencyInfo{
		ID:        r.Id,
		Name:      r.GetString("name"),
		Reference: r.GetString("reference"),
	}
}

// GetWorker loads a worker by id.
func GetWorker(app core.App, id string) (WorkerInfo, error) {
	r, err := app.FindRecordById("workers", id)
	if err != nil {
		return WorkerInfo{}, notFound("worker", id)
	}
	return WorkerInfoFromRecord(r), nil
}

// GetAgency loads an agency by id.
func GetAgency(app core.App, id string) (AgencyInfo, error) {
	r, err := app.FindRecordById("agencies", id)
	if err != nil {
		return AgencyInfo{}, notFound("agency", id)
	}
	return AgencyInfoFromRecord(r), nil
}

// ListAgencyWorkers returns the workers of an agency sorted by name.
func ListAgencyWorkers(app core.App, agencyID string) ([]WorkerInfo, error) {
	records, err := app.FindAllRecords("workers", dbx.HashExp{"agency": agencyID})
	if err != nil {
		return nil, err
	}
	out := make([]WorkerInfo, len(records))
	for i, r := range records {
		out[i] = WorkerInfoFromRecord(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DocumentOptions carries the per-deployment rendering settings.
type DocumentOptions struct {
	CurrencySymbol string
	DueDays        int
}

// WorkerLineItem bills the worker's regular hours at the hourly rate.
func WorkerLineItem(w WorkerInfo) LineItem {
	desc := w.Role
	if desc == "" {
		desc = "Services"
	}
	return LineItem{
		Description: desc,
		Worker:      w,
		AmountCents: CalcLineAmountCents(w.WorkedHours, w.HourlyRate),
	}
}

// BuildInvoiceDocument assembles the render input for one worker.
func BuildInvoiceDocument(tpl Template, w WorkerInfo, a AgencyInfo, invoiceNumber string, date time.Time, opts DocumentOptions) InvoiceDocument {
	items := []LineItem{WorkerLineItem(w)}
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return InvoiceDocument{
		Template: tpl,
		Context: InvoiceContext{
			Worker:  w,
			Agency:  a,
			Invoice: InvoiceInfo{ID: invoiceNumber, Date: date},
		},
		Items:          items,
		Totals:         CalcInvoiceTotals(SumLineItems(items), tpl.Tax),
		CurrencySymbol: symbol,
		DueDays:        opts.DueDays,
	}
}

// SampleWorker is the placeholder worker used by previews.
var SampleWorker = WorkerInfo{
	ID:           "sample",
	Name:         "Jane Doe",
	Email:        "jane.doe@example.com",
	Phone:        "555-0199",
	Address:      "42 Sample Road",
	Role:         "Technician",
	Age:          35,
	WorkedHours:  40,
	OverdueHours: 5,
	HourlyRate:   20,
}

// SampleInvoiceDocument renders tpl with placeholder data.
func SampleInvoiceDocument(tpl Template, agencyName string, date time.Time, opts DocumentOptions) InvoiceDocument {
	if agencyName == "" {
		agencyName = "Sample Agency"
	}
	return BuildInvoiceDocument(tpl, SampleWorker, AgencyInfo{ID: "sample", Name: agencyName, Reference: "SMP"}, "INV-SMP-0000-000", date, opts)
}
