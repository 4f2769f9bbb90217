package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

// maxWebhookBody bounds the payload read from the payment provider.
const maxWebhookBody = 64 << 10

// HandleStripeWebhook verifies and applies payment provider events.
// A completed checkout marks its invoice Paid. Unknown payment links and
// other event types are acknowledged so the provider stops retrying.
func HandleStripeWebhook(app *pocketbase.PocketBase, secret string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if secret == "" {
			log.Printf("webhook: received event but no webhook secret is configured")
			return e.JSON(http.StatusServiceUnavailable, map[string]any{"error": errorBody{
				Kind:    services.KindExternalService,
				Message: "webhooks are not configured",
			}})
		}

		payload, err := io.ReadAll(io.LimitReader(e.Request.Body, maxWebhookBody))
		if err != nil {
			return respondError(e, "webhook", &services.ValidationError{Field: "body", Message: "could not read body"})
		}

		event, err := services.ParseStripeWebhook(payload, e.Request.Header.Get("Stripe-Signature"), secret)
		if err != nil {
			return respondError(e, "webhook", err)
		}

		if event.Type != services.EventCheckoutCompleted || event.PaymentLinkID == "" {
			return e.JSON(http.StatusOK, map[string]any{"received": true})
		}

		invoiceID, err := services.MarkInvoicePaidByPaymentLink(app, event.PaymentLinkID, "")
		switch {
		case errors.Is(err, services.ErrNotFound):
			app.Logger().Warn("webhook for unknown payment link",
				"eventId", event.ID,
				"paymentLink", event.PaymentLinkID,
			)
			return e.JSON(http.StatusOK, map[string]any{"received": true})
		case err != nil:
			return respondError(e, "webhook", err)
		}

		app.Logger().Info("invoice paid",
			"eventId", event.ID,
			"invoiceId", invoiceID,
			"paymentLink", event.PaymentLinkID,
		)
		return e.JSON(http.StatusOK, map[string]any{"received": true, "invoiceId": invoiceID})
	}
}
