package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

func templateFromRecord(r *core.Record) (Template, error) {
	var t Template
	if err := r.UnmarshalJSONField("definition", &t); err != nil {
		// Corrupt stored data is an internal error, so the cause is not wrapped.
		return Template{}, fmt.Errorf("decode template %s: %v", r.Id, err)
	}
	t.Name = r.GetString("name")
	t.Description = r.GetString("description")
	t.Tax = r.GetFloat("tax")
	return t, nil
}

// GetTemplate loads a template by id.
func GetTemplate(app core.App, id string) (Template, error) {
	rec, err := app.FindRecordById("templates", id)
	if err != nil {
		return Template{}, notFound("template", id)
	}
	return templateFromRecord(rec)
}

// GetAgencyTemplate returns the template linked to an agency and its id.
// Agencies without a template, or linked to one that no longer exists,
// get DefaultTemplate and an empty id. A stored template that cannot be
// decoded is an error.
func GetAgencyTemplate(app core.App, agencyID string) (Template, string, error) {
	agency, err := app.FindRecordById("agencies", agencyID)
	if err != nil {
		return Template{}, "", notFound("agency", agencyID)
	}

	templateID := agency.GetString("template")
	if templateID == "" {
		return DefaultTemplate(), "", nil
	}

	t, err := GetTemplate(app, templateID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("template_store: agency %s links missing template %s, using default: %v", agencyID, templateID, err)
		return DefaultTemplate(), "", nil
	}
	if err != nil {
		return Template{}, "", err
	}
	return t, templateID, nil
}

// UpsertAgencyTemplate validates t and stores it for the agency. An agency
// without a template gets a new one linked to it; otherwise the linked
// template is overwritten in place. Concurrent saves are last-write-wins.
func UpsertAgencyTemplate(app core.App, agencyID string, t Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	definition, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}

	var templateID string
	err = app.RunInTransaction(func(txApp core.App) error {
		agency, err := txApp.FindRecordById("agencies", agencyID)
		if err != nil {
			return notFound("agency", agencyID)
		}

		var rec *core.Record
		if id := agency.GetString("template"); id != "" {
			rec, _ = txApp.FindRecordById("templates", id)
		}
		if rec == nil {
			col, err := txApp.FindCollectionByNameOrId("templates")
			if err != nil {
				return fmt.Errorf("templates collection: %w", err)
			}
			rec = core.NewRecord(col)
		}

		rec.Set("name", t.Name)
		rec.Set("description", t.Description)
		rec.Set("tax", t.Tax)
		rec.Set("definition", types.JSONRaw(definition))
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save template: %w", err)
		}

		if agency.GetString("template") != rec.Id {
			agency.Set("template", rec.Id)
			if err := txApp.Save(agency); err != nil {
				return fmt.Errorf("link template to agency: %w", err)
			}
		}
		templateID = rec.Id
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Printf("template_store: saved template %s for agency %s", templateID, agencyID)
	return templateID, nil
}
