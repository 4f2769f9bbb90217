package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// InvoiceStatus is the stored status of an invoice. StatusOverdue is only
// ever derived for display.
type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "Pending"
	StatusPaid      InvoiceStatus = "Paid"
	StatusCancelled InvoiceStatus = "Cancelled"
	StatusOverdue   InvoiceStatus = "Overdue"
)

// DefaultDueDays is the payment window printed on invoices.
const DefaultDueDays = 15

// ParseInvoiceStatus accepts the stored statuses only.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(s); st {
	case StatusPending, StatusPaid, StatusCancelled:
		return st, nil
	default:
		return "", invalid("status", "status must be Pending, Paid or Cancelled, got %q", s)
	}
}

// DisplayStatus shows Pending invoices older than the due window as Overdue.
// Every other status is shown as stored.
func DisplayStatus(status InvoiceStatus, created, now time.Time, dueDays int) InvoiceStatus {
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}
	if status == StatusPending && now.After(created.AddDate(0, 0, dueDays)) {
		return StatusOverdue
	}
	return status
}

// NewInvoice holds the fields of a freshly generated invoice.
type NewInvoice struct {
	InvoiceNumber string
	FileName      string
	WorkerID      string
	AgencyID      string
	TemplateName  string
	Totals        InvoiceTotals
	PaymentLink   PaymentLink
}

// InsertInvoice stores a Pending invoice and returns its id.
func InsertInvoice(app core.App, in NewInvoice) (string, error) {
	col, err := app.FindCollectionByNameOrId("invoices")
	if err != nil {
		return "", fmt.Errorf("invoices collection: %w", err)
	}

	r := core.NewRecord(col)
	r.Set("invoice_number", in.InvoiceNumber)
	r.Set("file_name", in.FileName)
	r.Set("worker", in.WorkerID)
	r.Set("agency", in.AgencyID)
	r.Set("template_name", in.TemplateName)
	r.Set("subtotal_cents", in.Totals.SubtotalCents)
	r.Set("tax_percent", in.Totals.TaxPercent)
	r.Set("tax_cents", in.Totals.TaxCents)
	r.Set("amount_cents", in.Totals.TotalCents)
	r.Set("status", string(StatusPending))
	r.Set("payment_link", in.PaymentLink.URL)
	r.Set("payment_link_id", in.PaymentLink.ID)

	if err := app.Save(r); err != nil {
		return "", fmt.Errorf("save invoice %s: %w", in.InvoiceNumber, err)
	}
	return r.Id, nil
}

// UpdateInvoiceStatus sets the stored status of an invoice.
func UpdateInvoiceStatus(app core.App, id string, status InvoiceStatus) error {
	if _, err := ParseInvoiceStatus(string(status)); err != nil {
		return err
	}
	r, err := app.FindRecordById("invoices", id)
	if err != nil {
		return notFound("invoice", id)
	}
	r.Set("status", string(status))
	if err := app.Save(r); err != nil {
		return fmt.Errorf("update invoice %s: %w", id, err)
	}
	return nil
}

// MarkInvoicePaidByPaymentLink resolves exactly one invoice by payment link
// id or URL and marks it Paid. It returns the invoice id.
func MarkInvoicePaidByPaymentLink(app core.App, linkID, linkURL string) (string, error) {
	if linkID == "" && linkURL == "" {
		return "", invalid("paymentLink", "payment link is required")
	}

	var exprs []dbx.Expression
	if linkID != "" {
		exprs = append(exprs, dbx.HashExp{"payment_link_id": linkID})
	}
	if linkURL != "" {
		exprs = append(exprs, dbx.HashExp{"payment_link": linkURL})
	}
	records, err := app.FindAllRecords("invoices", dbx.Or(exprs...))
	if err != nil {
		return "", fmt.Errorf("find invoice by payment link: %w", err)
	}

	switch len(records) {
	case 0:
		return "", notFound("invoice for payment link", linkID+linkURL)
	case 1:
	default:
		return "", fmt.Errorf("payment link %s matches %d invoices", linkID+linkURL, len(records))
	}

	r := records[0]
	if InvoiceStatus(r.GetString("status")) == StatusPaid {
		return r.Id, nil
	}
	r.Set("status", string(StatusPaid))
	if err := app.Save(r); err != nil {
		return "", fmt.Errorf("mark invoice %s paid: %w", r.Id, err)
	}
	return r.Id, nil
}

// InvoiceSummary is the listing view of an invoice.
type InvoiceSummary struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	FileName      string        `json:"fileName"`
	AgencyID      string        `json:"agencyId"`
	WorkerID      string        `json:"workerId"`
	WorkerName    string        `json:"workerName"`
	TemplateName  string        `json:"templateName"`
	SubtotalCents int64         `json:"subtotalCents"`
	TaxCents      int64         `json:"taxCents"`
	AmountCents   int64         `json:"amountCents"`
	Status        InvoiceStatus `json:"status"`
	DisplayStatus InvoiceStatus `json:"displayStatus"`
	PaymentLink   string        `json:"paymentLink"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func invoiceSummary(r *core.Record, workerName string, now time.Time, dueDays int) InvoiceSummary {
	status := InvoiceStatus(r.GetString("status"))
	created := r.GetDateTime("created").Time()
	return InvoiceSummary{
		ID:            r.Id,
		InvoiceNumber: r.GetString("invoice_number"),
		FileName:      r.GetString("file_name"),
		AgencyID:      r.GetString("agency"),
		WorkerID:      r.GetString("worker"),
		WorkerName:    workerName,
		TemplateName:  r.GetString("template_name"),
		SubtotalCents: int64(r.GetInt("subtotal_cents")),
		TaxCents:      int64(r.GetInt("tax_cents")),
		AmountCents:   int64(r.GetInt("amount_cents")),
		Status:        status,
		DisplayStatus: DisplayStatus(status, created, now, dueDays),
		PaymentLink:   r.GetString("payment_link"),
		CreatedAt:     created,
	}
}

// GetInvoice loads one invoice summary.
func GetInvoice(app core.App, id string, now time.Time, dueDays int) (InvoiceSummary, error) {
	r, err := app.FindRecordById("invoices", id)
	if err != nil {
		return InvoiceSummary{}, notFound("invoice", id)
	}
	name := ""
	if w, err := app.FindRecordById("workers", r.GetString("worker")); err == nil {
		name = w.GetString("name")
	}
	return invoiceSummary(r, name, now, dueDays), nil
}

// ListInvoices returns invoices newest first. An empty agencyID lists all.
func ListInvoices(app core.App, agencyID string, now time.Time, dueDays int) ([]InvoiceSummary, error) {
	var exprs []dbx.Expression
	if agencyID != "" {
		if _, err := app.FindRecordById("agencies", agencyID); err != nil {
			return nil, notFound("agency", agencyID)
		}
		exprs = append(exprs, dbx.HashExp{"agency": agencyID})
	}

	records, err := app.FindAllRecords("invoices", exprs...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	names := make(map[string]string)
	out := make([]InvoiceSummary, 0, len(records))
	for _, r := range records {
		wid := r.GetString("worker")
		name, ok := names[wid]
		if !ok {
			if w, err := app.FindRecordById("workers", wid); err == nil {
				name = w.GetString("name")
			}
			names[wid] = name
		}
		out = append(out, invoiceSummary(r, name, now, dueDays))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteInvoice removes the record, then the PDF. A failed file delete is
// logged and does not fail the call.
func DeleteInvoice(app core.App, files FileStore, id string) error {
	r, err := app.FindRecordById("invoices", id)
	if err != nil {
		return notFound("invoice", id)
	}
	fileName := r.GetString("file_name")
	if err := app.Delete(r); err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	if err := files.DeletePDF(fileName); err != nil {
		log.Printf("invoice_store: could not delete file %s of invoice %s: %v", fileName, id, err)
	}
	return nil
}

// InvoicePDF returns the stored PDF of an invoice and its number.
func InvoicePDF(app core.App, files FileStore, id string) ([]byte, string, error) {
	r, err := app.FindRecordById("invoices", id)
	if err != nil {
		return nil, "", notFound("invoice", id)
	}
	data, err := files.ReadPDF(r.GetString("file_name"))
	if err != nil {
		return nil, "", err
	}
	return data, r.GetString("invoice_number"), nil
}
