package services

import (
	"errors"
	"testing"
	"time"

	"invoicedesk/testhelpers"
)

func TestParseInvoiceStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    InvoiceStatus
		wantErr bool
	}{
		{"Pending", StatusPending, false},
		{"Paid", StatusPaid, false},
		{"Cancelled", StatusCancelled, false},
		{"Overdue", "", true},
		{"paid", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInvoiceStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  InvoiceStatus
		ageDays int
		dueDays int
		want    InvoiceStatus
	}{
		{"pending within window", StatusPending, 10, 15, StatusPending},
		{"pending past window", StatusPending, 16, 15, StatusOverdue},
		{"custom window", StatusPending, 16, 30, StatusPending},
		{"default window", StatusPending, 16, 0, StatusOverdue},
		{"paid never overdue", StatusPaid, 90, 15, StatusPaid},
		{"cancelled never overdue", StatusCancelled, 90, 15, StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := now.AddDate(0, 0, -tt.ageDays)
			if got := DisplayStatus(tt.status, created, now, tt.dueDays); got != tt.want {
				t.Errorf("DisplayStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertAndGetInvoice(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind Staffing", "NWS")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Alice Moreno", 40, 32.5)

	id, err := InsertInvoice(app, NewInvoice{
		InvoiceNumber: "INV-NWS-2026-001",
		FileName:      NewInvoiceFileName(),
		WorkerID:      worker.Id,
		AgencyID:      agency.Id,
		TemplateName:  "Standard Invoice",
		Totals:        CalcInvoiceTotals(130000, 10),
		PaymentLink:   PaymentLink{ID: "plink_1", URL: "https://pay.example.com/plink_1"},
	})
	if err != nil {
		t.Fatalf("InsertInvoice error: %v", err)
	}

	inv, err := GetInvoice(app, id, time.Now(), 15)
	if err != nil {
		t.Fatalf("GetInvoice error: %v", err)
	}
	if inv.InvoiceNumber != "INV-NWS-2026-001" || inv.WorkerName != "Alice Moreno" {
		t.Errorf("invoice = %+v", inv)
	}
	if inv.SubtotalCents != 130000 || inv.TaxCents != 13000 || inv.AmountCents != 143000 {
		t.Errorf("amounts = %d/%d/%d", inv.SubtotalCents, inv.TaxCents, inv.AmountCents)
	}
	if inv.Status != StatusPending || inv.DisplayStatus != StatusPending {
		t.Errorf("status = %q/%q", inv.Status, inv.DisplayStatus)
	}
	if inv.PaymentLink != "https://pay.example.com/plink_1" {
		t.Errorf("payment link = %q", inv.PaymentLink)
	}

	// a month later the unpaid invoice shows as overdue
	later, _ := GetInvoice(app, id, time.Now().AddDate(0, 1, 0), 15)
	if later.DisplayStatus != StatusOverdue || later.Status != StatusPending {
		t.Errorf("later status = %q/%q", later.Status, later.DisplayStatus)
	}

	if _, err := GetInvoice(app, "missing", time.Now(), 15); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing invoice: got %v", err)
	}
}

func TestUpdateInvoiceStatus(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Agency", "AG")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Worker", 1, 1)
	inv := testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-001", "Pending", "")

	if err := UpdateInvoiceStatus(app, inv.Id, StatusCancelled); err != nil {
		t.Fatalf("UpdateInvoiceStatus error: %v", err)
	}
	got, _ := app.FindRecordById("invoices", inv.Id)
	if got.GetString("status") != "Cancelled" {
		t.Errorf("status = %q", got.GetString("status"))
	}

	if err := UpdateInvoiceStatus(app, inv.Id, StatusOverdue); KindOf(err) != KindValidation {
		t.Errorf("Overdue is derived only, got %v", err)
	}
	if err := UpdateInvoiceStatus(app, "missing", StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing invoice: got %v", err)
	}
}

func TestMarkInvoicePaidByPaymentLink(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Agency", "AG")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Worker", 1, 1)
	inv := testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-001", "Pending", "plink_a")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-002", "Pending", "plink_dup")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-003", "Pending", "plink_dup")

	id, err := MarkInvoicePaidByPaymentLink(app, "plink_a", "")
	if err != nil {
		t.Fatalf("MarkInvoicePaidByPaymentLink error: %v", err)
	}
	if id != inv.Id {
		t.Errorf("id = %q, want %q", id, inv.Id)
	}
	got, _ := app.FindRecordById("invoices", inv.Id)
	if got.GetString("status") != "Paid" {
		t.Errorf("status = %q", got.GetString("status"))
	}

	// repeated delivery is harmless
	if again, err := MarkInvoicePaidByPaymentLink(app, "plink_a", ""); err != nil || again != inv.Id {
		t.Errorf("second delivery = %q, %v", again, err)
	}

	// lookup by URL
	if _, err := MarkInvoicePaidByPaymentLink(app, "", "https://pay.example.com/plink_a"); err != nil {
		t.Errorf("lookup by URL: %v", err)
	}

	if _, err := MarkInvoicePaidByPaymentLink(app, "plink_unknown", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown link: got %v", err)
	}
	if _, err := MarkInvoicePaidByPaymentLink(app, "", ""); KindOf(err) != KindValidation {
		t.Errorf("empty link: got %v", err)
	}
	if _, err := MarkInvoicePaidByPaymentLink(app, "plink_dup", ""); err == nil || KindOf(err) != KindInternal {
		t.Errorf("ambiguous link: got %v", err)
	}
}

func TestListInvoices(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.CreateTestAgency(t, app, "Agency A", "AA")
	b := testhelpers.CreateTestAgency(t, app, "Agency B", "BB")
	wa := testhelpers.CreateTestWorker(t, app, a.Id, "Alice", 1, 1)
	wb := testhelpers.CreateTestWorker(t, app, b.Id, "Bob", 1, 1)
	testhelpers.CreateTestInvoice(t, app, a.Id, wa.Id, "INV-AA-2026-001", "Pending", "")
	testhelpers.CreateTestInvoice(t, app, a.Id, wa.Id, "INV-AA-2026-002", "Paid", "")
	testhelpers.CreateTestInvoice(t, app, b.Id, wb.Id, "INV-BB-2026-001", "Pending", "")

	scoped, err := ListInvoices(app, a.Id, time.Now(), 15)
	if err != nil {
		t.Fatalf("ListInvoices error: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(scoped))
	}
	if scoped[0].InvoiceNumber != "INV-AA-2026-002" {
		t.Errorf("newest first: got %q", scoped[0].InvoiceNumber)
	}
	if scoped[0].WorkerName != "Alice" {
		t.Errorf("worker name = %q", scoped[0].WorkerName)
	}

	all, err := ListInvoices(app, "", time.Now(), 15)
	if err != nil {
		t.Fatalf("ListInvoices all error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 invoices, got %d", len(all))
	}

	if _, err := ListInvoices(app, "missing", time.Now(), 15); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing agency: got %v", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Agency", "AG")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Worker", 1, 1)
	inv := testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-001", "Pending", "")

	files := newMemFileStore()
	fileName := inv.GetString("file_name")
	files.files[fileName] = []byte("%PDF-1.3")

	if err := DeleteInvoice(app, files, inv.Id); err != nil {
		t.Fatalf("DeleteInvoice error: %v", err)
	}
	if _, err := app.FindRecordById("invoices", inv.Id); err == nil {
		t.Error("record still exists")
	}
	if files.count() != 0 {
		t.Error("file still exists")
	}

	if err := DeleteInvoice(app, files, inv.Id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestDeleteInvoice_FileErrorIsNotFatal(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Agency", "AG")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Worker", 1, 1)
	inv := testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-001", "Pending", "")

	files := newMemFileStore()
	files.failDelete = errors.New("disk full")

	if err := DeleteInvoice(app, files, inv.Id); err != nil {
		t.Fatalf("DeleteInvoice error: %v", err)
	}
	if _, err := app.FindRecordById("invoices", inv.Id); err == nil {
		t.Error("record still exists")
	}
}

func TestInvoicePDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Agency", "AG")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Worker", 1, 1)
	inv := testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-AG-2026-001", "Pending", "")

	files := newMemFileStore()
	if _, _, err := InvoicePDF(app, files, inv.Id); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v", err)
	}

	files.files[inv.GetString("file_name")] = []byte("%PDF-1.3 test")
	data, number, err := InvoicePDF(app, files, inv.Id)
	if err != nil {
		t.Fatalf("InvoicePDF error: %v", err)
	}
	if number != "INV-AG-2026-001" || string(data) != "%PDF-1.3 test" {
		t.Errorf("got %q, %q", number, data)
	}

	if _, _, err := InvoicePDF(app, files, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing invoice: got %v", err)
	}
}
