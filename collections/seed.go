package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// ── Definition structs ───────────────────────────────────────────────────

type workerDef struct {
	name         string
	email        string
	phone        string
	address      string
	role         string
	age          int
	workedHours  float64
	overdueHours float64
	hourlyRate   float64
}

type agencyDef struct {
	name      string
	reference string
	workers   []workerDef
}

// seedTemplateDefinition mirrors the editor's default layout with a
// horizontal contact block after the table.
const seedTemplateDefinition = `{
  "name": "Standard Invoice",
  "description": "Hours worked in the billing period",
  "tax": 10,
  "columns": [
    {"internalId": 1, "title": "REG Hours", "data": "worker.workedHours", "size": 1},
    {"internalId": 2, "title": "OT Hours", "data": "worker.overdueHours", "size": 1}
  ],
  "lines": [
    {"type": "text",
     "left": {"type": "vertical", "internalId": 1, "title": "Invoice Number", "field": "invoice.id", "locked": true},
     "right": {"type": "vertical", "internalId": 2, "title": "Invoice Date", "field": "invoice.date", "locked": true}},
    {"type": "text",
     "left": {"type": "vertical", "internalId": 3, "title": "Bill To", "field": "worker.name", "locked": true}},
    {"type": "items"},
    {"type": "text",
     "left": {"type": "horizontal", "internalId": 4, "keyValues": [
       {"key": "Email", "value": "worker.email"},
       {"key": "Phone", "value": "worker.phone"}
     ]}}
  ],
  "nextBlockId": 5,
  "nextColumnId": 3
}`

var seedAgencies = []agencyDef{
	{
		name:      "Northwind Staffing",
		reference: "NWS",
		workers: []workerDef{
			{name: "Alice Moreno", email: "alice@example.com", phone: "555-0101", address: "12 Harbor St, Portland", role: "Welder", age: 34, workedHours: 40, overdueHours: 4, hourlyRate: 32.5},
			{name: "Ben Okafor", email: "ben@example.com", phone: "555-0102", address: "88 Pine Ave, Salem", role: "Electrician", age: 41, workedHours: 38, overdueHours: 0, hourlyRate: 41},
			{name: "Chen Li", email: "chen@example.com", phone: "555-0103", address: "5 Elm Ct, Eugene", role: "Forklift Operator", age: 27, workedHours: 40, overdueHours: 6, hourlyRate: 24},
		},
	},
}

// Seed inserts a demo agency with workers and a template. It is safe to
// call on every startup because it returns early if any agency exists.
func Seed(app core.App) error {
	agenciesCol, err := app.FindCollectionByNameOrId("agencies")
	if err != nil {
		return fmt.Errorf("seed: could not find agencies collection: %w", err)
	}
	existing, err := app.FindAllRecords(agenciesCol)
	if err != nil {
		return fmt.Errorf("seed: could not query agencies: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: agencies collection is empty – inserting seed data …")

	templatesCol, err := app.FindCollectionByNameOrId("templates")
	if err != nil {
		return fmt.Errorf("seed: could not find templates collection: %w", err)
	}
	workersCol, err := app.FindCollectionByNameOrId("workers")
	if err != nil {
		return fmt.Errorf("seed: could not find workers collection: %w", err)
	}

	return app.RunInTransaction(func(txApp core.App) error {
		for _, a := range seedAgencies {
			tpl := core.NewRecord(templatesCol)
			tpl.Set("name", "Standard Invoice")
			tpl.Set("description", "Hours worked in the billing period")
			tpl.Set("tax", 10)
			tpl.Set("definition", types.JSONRaw(seedTemplateDefinition))
			if err := txApp.Save(tpl); err != nil {
				return fmt.Errorf("seed: template for %s: %w", a.name, err)
			}

			agency := core.NewRecord(agenciesCol)
			agency.Set("name", a.name)
			agency.Set("reference", a.reference)
			agency.Set("template", tpl.Id)
			if err := txApp.Save(agency); err != nil {
				return fmt.Errorf("seed: agency %s: %w", a.name, err)
			}

			for _, w := range a.workers {
				r := core.NewRecord(workersCol)
				r.Set("agency", agency.Id)
				r.Set("name", w.name)
				r.Set("email", w.email)
				r.Set("phone", w.phone)
				r.Set("address", w.address)
				r.Set("role", w.role)
				r.Set("age", w.age)
				r.Set("worked_hours", w.workedHours)
				r.Set("overdue_hours", w.overdueHours)
				r.Set("hourly_rate", w.hourlyRate)
				if err := txApp.Save(r); err != nil {
					return fmt.Errorf("seed: worker %s: %w", w.name, err)
				}
			}
			log.Printf("seed: created agency %q with %d workers", a.name, len(a.workers))
		}
		return nil
	})
}
