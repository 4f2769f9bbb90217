package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoicedesk/services"
	"invoicedesk/testhelpers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Northwind Staffing", "Northwind-Staffing"},
		{"A/B\\C:D", "A-B-C-D"},
		{`Say "hi"`, "Say-hi"},
		{"INV-NWS-2026-001", "INV-NWS-2026-001"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegisterFilename(t *testing.T) {
	got := registerFilename("Northwind Staffing", "xlsx", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	if got != "Invoices_Northwind-Staffing_2026-03-05.xlsx" {
		t.Errorf("registerFilename = %q", got)
	}
}

func TestHandleInvoiceExport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind Staffing", "NWS")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Alice", 40, 20)
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-001", "Pending", "")
	opts := services.DocumentOptions{CurrencySymbol: "$"}

	tests := []struct {
		name        string
		contentType string
		magic       []byte
		ext         string
	}{
		{"excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte("PK"), ".xlsx"},
		{"pdf", "application/pdf", []byte("%PDF-"), ".pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", agency.Id)
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			var err error
			if tt.name == "excel" {
				err = HandleInvoiceExportExcel(app, opts)(e)
			} else {
				err = HandleInvoiceExportPDF(app, opts)(e)
			}
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
			}
			cd := rec.Header().Get("Content-Disposition")
			if !strings.Contains(cd, "Invoices_Northwind-Staffing_") || !strings.Contains(cd, tt.ext) {
				t.Errorf("disposition = %q", cd)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.magic) {
				t.Errorf("body does not start with %q", tt.magic)
			}
		})
	}
}

func TestHandleInvoiceExport_UnknownAgency(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	HandleInvoiceExportExcel(app, services.DocumentOptions{})(newTestRequestEvent(app, req, rec))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
