package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the templates, agencies, workers
// and invoices collections exist.
func Setup(app core.App) {
	templates := ensureCollection(app, "templates", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.NumberField{Name: "tax", Required: false})
		c.Fields.Add(&core.JSONField{Name: "definition", Required: true, MaxSize: 2 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	agencies := ensureCollection(app, "agencies", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference", Required: false})
		c.Fields.Add(&core.TextField{Name: "logo", Required: false})
		c.Fields.Add(&core.RelationField{
			Name:          "template",
			Required:      false,
			CollectionId:  templates.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	workers := ensureCollection(app, "workers", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "agency",
			Required:      true,
			CollectionId:  agencies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "email", Required: false})
		c.Fields.Add(&core.TextField{Name: "phone", Required: false})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.TextField{Name: "role", Required: false})
		c.Fields.Add(&core.NumberField{Name: "age", Required: false})
		c.Fields.Add(&core.NumberField{Name: "worked_hours", Required: false})
		c.Fields.Add(&core.NumberField{Name: "overdue_hours", Required: false})
		c.Fields.Add(&core.NumberField{Name: "hourly_rate", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "invoices", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "invoice_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "file_name", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:          "worker",
			Required:      true,
			CollectionId:  workers.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "agency",
			Required:      true,
			CollectionId:  agencies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "template_name", Required: false})
		c.Fields.Add(&core.NumberField{Name: "subtotal_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "tax_percent", Required: false})
		c.Fields.Add(&core.NumberField{Name: "tax_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "amount_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"Pending", "Paid", "Cancelled"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "payment_link", Required: false})
		c.Fields.Add(&core.TextField{Name: "payment_link_id", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_invoices_number", true, "invoice_number", "")
		c.AddIndex("idx_invoices_payment_link_id", false, "payment_link_id", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
