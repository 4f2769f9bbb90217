// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"invoicedesk/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestAgency creates an agency record with the given name and reference.
func CreateTestAgency(t *testing.T, app core.App, name, reference string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("agencies")
	if err != nil {
		t.Fatalf("failed to find agencies collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("reference", reference)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test agency: %v", err)
	}

	return record
}

// CreateTestWorker creates a worker linked to an agency with the given hours and rate.
func CreateTestWorker(t *testing.T, app core.App, agencyID, name string, workedHours, hourlyRate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("workers")
	if err != nil {
		t.Fatalf("failed to find workers collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("agency", agencyID)
	record.Set("name", name)
	record.Set("email", strings.ToLower(strings.ReplaceAll(name, " ", "."))+"@example.com")
	record.Set("phone", "555-0100")
	record.Set("address", "1 Test Street")
	record.Set("role", "Technician")
	record.Set("age", 30)
	record.Set("worked_hours", workedHours)
	record.Set("overdue_hours", 0)
	record.Set("hourly_rate", hourlyRate)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test worker: %v", err)
	}

	return record
}

// CreateTestTemplate stores definitionJSON as a template and links it to the agency.
func CreateTestTemplate(t *testing.T, app core.App, agencyID, name, definitionJSON string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("templates")
	if err != nil {
		t.Fatalf("failed to find templates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("description", "test template")
	record.Set("definition", types.JSONRaw(definitionJSON))
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test template: %v", err)
	}

	if agencyID != "" {
		agency, err := app.FindRecordById("agencies", agencyID)
		if err != nil {
			t.Fatalf("failed to find agency %s: %v", agencyID, err)
		}
		agency.Set("template", record.Id)
		if err := app.Save(agency); err != nil {
			t.Fatalf("failed to link template to agency: %v", err)
		}
	}

	return record
}

// CreateTestInvoice creates an invoice record with the given status and payment link.
func CreateTestInvoice(t *testing.T, app core.App, agencyID, workerID, number, status, paymentLinkID string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("invoices")
	if err != nil {
		t.Fatalf("failed to find invoices collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("invoice_number", number)
	record.Set("file_name", "invoice_00000000-0000-0000-0000-000000000000.pdf")
	record.Set("agency", agencyID)
	record.Set("worker", workerID)
	record.Set("template_name", "Test")
	record.Set("subtotal_cents", 80000)
	record.Set("tax_percent", 10)
	record.Set("tax_cents", 8000)
	record.Set("amount_cents", 88000)
	record.Set("status", status)
	record.Set("payment_link_id", paymentLinkID)
	if paymentLinkID != "" {
		record.Set("payment_link", "https://pay.example.com/"+paymentLinkID)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test invoice: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
