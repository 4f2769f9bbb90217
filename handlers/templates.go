package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type templateResponse struct {
	ID       string            `json:"id"`
	Default  bool              `json:"default"`
	Template services.Template `json:"template"`
}

// HandleAgencyTemplateGet returns the agency's template, or the default
// template when none is stored yet.
func HandleAgencyTemplateGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "template_get", err)
		}
		tpl, id, err := services.GetAgencyTemplate(app, agency.ID)
		if err != nil {
			return respondError(e, "template_get", err)
		}
		return e.JSON(http.StatusOK, templateResponse{ID: id, Default: id == "", Template: tpl})
	}
}

func HandleAgencyTemplatePut(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "template_put", err)
		}
		var tpl services.Template
		if err := bindJSON(e, &tpl); err != nil {
			return respondError(e, "template_put", err)
		}

		id, err := services.UpsertAgencyTemplate(app, agency.ID, tpl)
		if err != nil {
			return respondError(e, "template_put", err)
		}
		return e.JSON(http.StatusOK, templateResponse{ID: id, Template: tpl})
	}
}

func HandleTemplateGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		tpl, err := services.GetTemplate(app, id)
		if err != nil {
			return respondError(e, "template_get", err)
		}
		return e.JSON(http.StatusOK, templateResponse{ID: id, Template: tpl})
	}
}

// HandleTemplateFields lists the fields and column sources the editor offers.
func HandleTemplateFields() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"fields":  services.FieldOptions,
			"columns": services.ColumnDataOptions,
		})
	}
}
