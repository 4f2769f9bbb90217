package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// PaymentLink is a hosted payment page created for one invoice.
type PaymentLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentProvider creates a one-off price and a payment link for it.
type PaymentProvider interface {
	CreatePriceAndLink(ctx context.Context, amountCents int64, description string) (PaymentLink, error)
}

func paymentError(err error) error {
	return &ExternalServiceError{Service: "payment provider", Err: err}
}

// StripeProvider creates prices and payment links through the Stripe API.
type StripeProvider struct {
	api      *client.API
	currency string

	// SuccessURL, when set, is where the customer lands after paying.
	SuccessURL string
}

// NewStripeProvider returns a provider using secretKey for all calls.
func NewStripeProvider(secretKey, currency string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, currency: currency}
}

func (p *StripeProvider) CreatePriceAndLink(ctx context.Context, amountCents int64, description string) (PaymentLink, error) {
	if amountCents <= 0 {
		return PaymentLink{}, invalid("amount", "amount must be positive, got %d", amountCents)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(p.currency),
		UnitAmount: stripe.Int64(amountCents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(description),
		},
	}
	priceParams.Context = ctx
	price, err := p.api.Prices.New(priceParams)
	if err != nil {
		return PaymentLink{}, paymentError(fmt.Errorf("create price: %w", err))
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(1)},
		},
	}
	if p.SuccessURL != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type:     stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{URL: stripe.String(p.SuccessURL)},
		}
	}
	linkParams.Context = ctx
	link, err := p.api.PaymentLinks.New(linkParams)
	if err != nil {
		return PaymentLink{}, paymentError(fmt.Errorf("create payment link: %w", err))
	}

	return PaymentLink{ID: link.ID, URL: link.URL}, nil
}

// UnconfiguredProvider fails every call; it is used when no API key is set.
type UnconfiguredProvider struct{}

func (UnconfiguredProvider) CreatePriceAndLink(context.Context, int64, string) (PaymentLink, error) {
	return PaymentLink{}, paymentError(errors.New("no API key configured"))
}

// PaymentEvent is the part of a provider webhook this app acts on.
type PaymentEvent struct {
	ID            string
	Type          string
	PaymentLinkID string
}

// EventCheckoutCompleted is sent when a payment link checkout succeeds.
const EventCheckoutCompleted = "checkout.session.completed"

// ParseStripeWebhook verifies the signature header and extracts the event.
func ParseStripeWebhook(payload []byte, signature, secret string) (PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return PaymentEvent{}, invalid("signature", "webhook verification failed: %v", err)
	}

	out := PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return PaymentEvent{}, invalid("payload", "decode checkout session: %v", err)
	}
	if session.PaymentLink != nil {
		out.PaymentLinkID = session.PaymentLink.ID
	}
	return out, nil
}
