package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicedesk/testhelpers"
)

func TestBuildRegisterData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind Staffing", "NWS")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Alice Moreno", 40, 20)
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-001", "Pending", "")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-002", "Paid", "")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-003", "Cancelled", "")

	other := testhelpers.CreateTestAgency(t, app, "Other", "OT")
	ow := testhelpers.CreateTestWorker(t, app, other.Id, "Zed", 1, 1)
	testhelpers.CreateTestInvoice(t, app, other.Id, ow.Id, "INV-OT-2026-001", "Pending", "")

	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	data, err := BuildRegisterData(app, agency.Id, now, DocumentOptions{})
	if err != nil {
		t.Fatalf("BuildRegisterData error: %v", err)
	}

	if data.AgencyName != "Northwind Staffing" || data.CreatedDate != "2026/3/5" {
		t.Errorf("header = %q / %q", data.AgencyName, data.CreatedDate)
	}
	if data.CurrencySymbol != DefaultCurrencySymbol {
		t.Errorf("currency symbol = %q", data.CurrencySymbol)
	}
	if len(data.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(data.Rows))
	}
	for _, r := range data.Rows {
		if r.WorkerName != "Alice Moreno" {
			t.Errorf("row worker = %q", r.WorkerName)
		}
	}

	// cancelled invoices are listed but not billed
	if data.TotalBilled != 176000 || data.TotalPaid != 88000 || data.TotalOpen != 88000 {
		t.Errorf("totals billed=%d paid=%d open=%d", data.TotalBilled, data.TotalPaid, data.TotalOpen)
	}
}

func TestBuildRegisterData_UnknownAgency(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := BuildRegisterData(app, "missing", time.Now(), DocumentOptions{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func sampleRegister() RegisterData {
	return RegisterData{
		Title:          "Invoice Register",
		AgencyName:     "Northwind Staffing",
		CreatedDate:    "05/03/2026",
		CurrencySymbol: "$",
		Rows: []RegisterRow{
			{InvoiceNumber: "INV-NWS-2026-001", WorkerName: "Alice Moreno", CreatedDate: "01/03/2026", Status: StatusPending, SubtotalCents: 80000, TaxCents: 8000, TotalCents: 88000},
			{InvoiceNumber: "INV-NWS-2026-002", WorkerName: "=HYPERLINK(\"x\")", CreatedDate: "02/03/2026", Status: StatusPaid, SubtotalCents: 1000, TaxCents: 100, TotalCents: 1100},
		},
		TotalBilled: 89100,
		TotalPaid:   1100,
		TotalOpen:   88000,
	}
}

func TestGenerateRegisterExcel(t *testing.T) {
	data, err := GenerateRegisterExcel(sampleRegister())
	if err != nil {
		t.Fatalf("GenerateRegisterExcel error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	defer f.Close()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Invoice Register"},
		{"A2", "Agency: Northwind Staffing"},
		{"A5", "Invoice #"},
		{"G5", "Total"},
		{"A6", "INV-NWS-2026-001"},
		{"D6", "Pending"},
		{"G6", "$880.00"},
		{"B7", "'=HYPERLINK(\"x\")"},
		{"F9", "Total Billed:"},
		{"G9", "$891.00"},
		{"G11", "$880.00"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue("Invoices", tt.cell)
		if err != nil {
			t.Errorf("%s: %v", tt.cell, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Alice", "Alice"},
		{"=1+1", "'=1+1"},
		{"+61 400", "'+61 400"},
		{"-5", "'-5"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"|cmd", "'|cmd"},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.in); got != tt.want {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateRegisterPDF(t *testing.T) {
	data, err := GenerateRegisterPDF(sampleRegister())
	if err != nil {
		t.Fatalf("GenerateRegisterPDF error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	empty := sampleRegister()
	empty.Rows = nil
	if _, err := GenerateRegisterPDF(empty); err != nil {
		t.Errorf("empty register failed: %v", err)
	}
}
