package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"invoicedesk/testhelpers"
)

func TestFormatInvoiceNumber(t *testing.T) {
	tests := []struct {
		ref  string
		year int
		seq  int
		want string
	}{
		{"NWS", 2026, 1, "INV-NWS-2026-001"},
		{"NWS", 2026, 42, "INV-NWS-2026-042"},
		{"AB", 2025, 1234, "INV-AB-2025-1234"},
	}
	for _, tt := range tests {
		if got := formatInvoiceNumber(tt.ref, tt.year, tt.seq); got != tt.want {
			t.Errorf("formatInvoiceNumber(%q, %d, %d) = %q, want %q", tt.ref, tt.year, tt.seq, got, tt.want)
		}
	}
}

func TestNextInvoiceNumbers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind Staffing", "NWS")
	worker := testhelpers.CreateTestWorker(t, app, agency.Id, "Alice", 1, 1)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := NextInvoiceNumbers(app, agency.Id, now, 3)
	if err != nil {
		t.Fatalf("NextInvoiceNumbers error: %v", err)
	}
	want := []string{"INV-NWS-2026-001", "INV-NWS-2026-002", "INV-NWS-2026-003"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// continues after the highest stored number of the same year
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-007", "Paid", "")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2026-003", "Pending", "")
	testhelpers.CreateTestInvoice(t, app, agency.Id, worker.Id, "INV-NWS-2025-050", "Paid", "")

	got, err = NextInvoiceNumbers(app, agency.Id, now, 1)
	if err != nil {
		t.Fatalf("NextInvoiceNumbers error: %v", err)
	}
	if got[0] != "INV-NWS-2026-008" {
		t.Errorf("next = %q, want INV-NWS-2026-008", got[0])
	}

	// a new year restarts the sequence
	got, _ = NextInvoiceNumbers(app, agency.Id, time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), 1)
	if got[0] != "INV-NWS-2027-001" {
		t.Errorf("new year = %q", got[0])
	}
}

func TestNextInvoiceNumbers_PerAgency(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.CreateTestAgency(t, app, "Agency A", "AA")
	b := testhelpers.CreateTestAgency(t, app, "Agency B", "BB")
	wa := testhelpers.CreateTestWorker(t, app, a.Id, "Alice", 1, 1)
	testhelpers.CreateTestInvoice(t, app, a.Id, wa.Id, "INV-AA-2026-005", "Pending", "")
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	got, _ := NextInvoiceNumbers(app, b.Id, now, 1)
	if got[0] != "INV-BB-2026-001" {
		t.Errorf("agency B = %q", got[0])
	}
}

func TestNextInvoiceNumbers_MissingReferenceUsesID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "No Ref", "")
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := NextInvoiceNumbers(app, agency.Id, now, 1)
	if err != nil {
		t.Fatalf("NextInvoiceNumbers error: %v", err)
	}
	if want := "INV-" + agency.Id + "-2026-001"; got[0] != want {
		t.Errorf("got %q, want %q", got[0], want)
	}

	if _, err := NextInvoiceNumbers(app, "missing", now, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing agency: got %v", err)
	}
}
