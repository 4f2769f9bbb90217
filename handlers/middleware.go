package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type contextKey string

const AgencyKey contextKey = "agency"

// GetAgency extracts the agency loaded by AgencyScopeMiddleware.
func GetAgency(r *http.Request) (services.AgencyInfo, bool) {
	val, ok := r.Context().Value(AgencyKey).(services.AgencyInfo)
	return val, ok
}

// AgencyScopeMiddleware loads the agency named by the {id} path value and
// stores it in the request context. Unknown agencies stop the chain with 404.
func AgencyScopeMiddleware(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := services.GetAgency(app, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "agency_scope", err)
		}

		ctx := context.WithValue(e.Request.Context(), AgencyKey, agency)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// scopedAgency returns the agency from the context, falling back to a
// lookup when the handler runs without the middleware.
func scopedAgency(app *pocketbase.PocketBase, e *core.RequestEvent) (services.AgencyInfo, error) {
	if agency, ok := GetAgency(e.Request); ok {
		return agency, nil
	}
	return services.GetAgency(app, e.Request.PathValue("id"))
}
