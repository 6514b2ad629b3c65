// Package stripecard adapts the Stripe API to the core's card gateway port.
// The adapter is constructed once at process start with its credentials and
// injected into the reconciliation service; there is no package-level client
// state. Webhook signature verification is delegated to the Stripe SDK.
package stripecard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// Adapter implements app.CardGateway on top of the Stripe client.
type Adapter struct {
	api           *client.API
	webhookSecret string
}

var _ app.CardGateway = (*Adapter)(nil)

// New builds an adapter from the account's secret key and the registered
// webhook endpoint secret.
func New(secretKey, webhookSecret string) *Adapter {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Adapter{api: api, webhookSecret: webhookSecret}
}

// CreateIntent opens a payment intent for amountMinorUnits (cents) and tags
// it with the given metadata so webhook events can be correlated back to the
// internal order.
func (a *Adapter) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (app.CardIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := a.api.PaymentIntents.New(params)
	if err != nil {
		return app.CardIntent{}, domain.Gateway("card processor rejected payment intent creation", err)
	}
	return intentFromStripe(pi), nil
}

// RetrieveIntent fetches the current state of a payment intent.
func (a *Adapter) RetrieveIntent(ctx context.Context, id string) (app.CardIntent, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := a.api.PaymentIntents.Get(id, params)
	if err != nil {
		return app.CardIntent{}, domain.Gateway("card processor payment intent lookup failed", err)
	}
	return intentFromStripe(pi), nil
}

// VerifyWebhook validates the Stripe-Signature header against the endpoint
// secret and returns the typed event. Intent fields are only populated for
// payment-intent events; other event types carry just the type, which the
// caller acknowledges and ignores.
func (a *Adapter) VerifyWebhook(payload []byte, signatureHeader string) (app.CardEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, a.webhookSecret)
	if err != nil {
		return app.CardEvent{}, fmt.Errorf("stripe: verify webhook signature: %w", err)
	}

	out := app.CardEvent{Type: string(event.Type)}
	if !strings.HasPrefix(string(event.Type), "payment_intent.") {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return app.CardEvent{}, fmt.Errorf("stripe: decode payment intent from event: %w", err)
	}

	out.IntentID = pi.ID
	out.OrderID = pi.Metadata["orderId"]
	out.UserID = pi.Metadata["userId"]
	out.Status = string(pi.Status)
	out.ReceiptEmail = pi.ReceiptEmail
	out.AmountMinor = pi.Amount
	out.Currency = string(pi.Currency)
	return out, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) app.CardIntent {
	return app.CardIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		ReceiptEmail: pi.ReceiptEmail,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}
