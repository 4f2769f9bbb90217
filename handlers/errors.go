package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type errorBody struct {
	Kind    services.ErrorKind `json:"kind"`
	Message string             `json:"message"`
	Field   string             `json:"field,omitempty"`
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": {...}} with the status for its kind.
// Anything that is not a client error is logged under area.
func respondError(e *core.RequestEvent, area string, err error) error {
	kind := services.KindOf(err)
	body := errorBody{Kind: kind, Message: services.PublicMessage(err)}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if kind != services.KindNotFound && kind != services.KindValidation {
		log.Printf("%s: %v", area, err)
	}
	return e.JSON(statusForKind(kind), map[string]any{"error": body})
}

// bindJSON decodes the request body into dst. Malformed bodies are
// reported as validation errors.
func bindJSON(e *core.RequestEvent, dst any) error {
	if err := e.BindBody(dst); err != nil {
		return &services.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}
