package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type agencyRequest struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

func HandleAgencyList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agencies, err := services.ListAgencies(app)
		if err != nil {
			return respondError(e, "agency_list", err)
		}
		if agencies == nil {
			agencies = []services.AgencyInfo{}
		}
		return e.JSON(http.StatusOK, agencies)
	}
}

func HandleAgencyCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req agencyRequest
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "agency_create", err)
		}

		agency, err := services.CreateAgency(app, services.AgencyInfo{Name: req.Name, Reference: req.Reference})
		if err != nil {
			return respondError(e, "agency_create", err)
		}
		return e.JSON(http.StatusCreated, agency)
	}
}

// HandleAgencyGet runs behind AgencyScopeMiddleware.
func HandleAgencyGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "agency_get", err)
		}
		return e.JSON(http.StatusOK, agency)
	}
}

func HandleAgencyDelete(app *pocketbase.PocketBase, files services.FileStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteAgency(app, files, e.Request.PathValue("id")); err != nil {
			return respondError(e, "agency_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
