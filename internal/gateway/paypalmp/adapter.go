// Package paypalmp adapts the PayPal REST API to the core's marketplace
// gateway port. OAuth token acquisition and refresh are handled by the
// PayPal client; webhook authenticity is checked through the processor's
// verify-webhook-signature endpoint, never by local crypto.
package paypalmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/plutov/paypal/v4"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

const verificationSuccess = "SUCCESS"

// Adapter implements app.MarketplaceGateway on top of the PayPal client.
type Adapter struct {
	client    *paypal.Client
	webhookID string
}

var _ app.MarketplaceGateway = (*Adapter)(nil)

// New builds an adapter for the given REST credentials. apiBase selects the
// sandbox or live environment; webhookID identifies the webhook registration
// deliveries are verified against.
func New(clientID, secret, apiBase, webhookID string) (*Adapter, error) {
	c, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal: new client: %w", err)
	}
	return &Adapter{client: c, webhookID: webhookID}, nil
}

// Authenticate obtains the initial OAuth access token. The client refreshes
// it on expiry afterwards. Call once at startup.
func (a *Adapter) Authenticate(ctx context.Context) error {
	if _, err := a.client.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal: get access token: %w", err)
	}
	return nil
}

// CreateOrder opens a processor-side order with CAPTURE intent for the given
// amount, carrying correlationID as the purchase unit's custom id so webhook
// events can be matched back to the internal order.
func (a *Adapter) CreateOrder(ctx context.Context, amount, currency, correlationID string) (string, error) {
	units := []paypal.PurchaseUnitRequest{{
		CustomID: correlationID,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: currency,
			Value:    amount,
		},
	}}

	order, err := a.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return "", domain.Gateway("marketplace processor rejected order creation", err)
	}
	return order.ID, nil
}

// CaptureOrder finalises the transfer of the approved funds and returns what
// the processor reports was captured.
func (a *Adapter) CaptureOrder(ctx context.Context, marketplaceOrderID string) (app.MarketplaceCapture, error) {
	res, err := a.client.CaptureOrder(ctx, marketplaceOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return app.MarketplaceCapture{}, domain.Gateway("marketplace processor capture failed", err)
	}

	if len(res.PurchaseUnits) == 0 || res.PurchaseUnits[0].Payments == nil || len(res.PurchaseUnits[0].Payments.Captures) == 0 {
		return app.MarketplaceCapture{}, domain.Gateway("marketplace capture response carries no capture", nil)
	}
	capture := res.PurchaseUnits[0].Payments.Captures[0]

	out := app.MarketplaceCapture{
		CaptureID: capture.ID,
		Status:    res.Status,
		// The capture response carries no update timestamp; record receipt time.
		UpdateTime: time.Now().UTC().Format(time.RFC3339),
	}
	if capture.Amount != nil {
		out.Amount = capture.Amount.Value
		out.Currency = capture.Amount.Currency
	}
	if res.Payer != nil {
		out.PayerEmail = res.Payer.EmailAddress
	}
	return out, nil
}

// VerifyWebhook submits the delivery's transmission headers and raw body to
// the processor's signature verification endpoint and, on success, returns
// the typed event parsed from the payload.
func (a *Adapter) VerifyWebhook(ctx context.Context, headers app.MarketplaceWebhookHeaders, payload []byte) (app.MarketplaceEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return app.MarketplaceEvent{}, fmt.Errorf("paypal: build verification request: %w", err)
	}
	req.Header.Set("Paypal-Transmission-Id", headers.TransmissionID)
	req.Header.Set("Paypal-Transmission-Time", headers.TransmissionTime)
	req.Header.Set("Paypal-Transmission-Sig", headers.TransmissionSig)
	req.Header.Set("Paypal-Cert-Url", headers.CertURL)
	req.Header.Set("Paypal-Auth-Algo", headers.AuthAlgo)

	res, err := a.client.VerifyWebhookSignature(ctx, req, a.webhookID)
	if err != nil {
		return app.MarketplaceEvent{}, fmt.Errorf("paypal: verify webhook signature: %w", err)
	}
	if res.VerificationStatus != verificationSuccess {
		return app.MarketplaceEvent{}, fmt.Errorf("paypal: webhook verification status %q", res.VerificationStatus)
	}

	return parseEvent(payload)
}

// captureEvent is the PAYMENT.CAPTURE.COMPLETED payload shape: the resource
// is a capture object carrying the purchase unit's custom id.
type captureEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		CustomID   string `json:"custom_id"`
		UpdateTime string `json:"update_time"`
		Amount     struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
		Payer struct {
			EmailAddress string `json:"email_address"`
		} `json:"payer"`
	} `json:"resource"`
}

func parseEvent(payload []byte) (app.MarketplaceEvent, error) {
	var ev captureEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return app.MarketplaceEvent{}, fmt.Errorf("paypal: decode webhook event: %w", err)
	}

	return app.MarketplaceEvent{
		Type:       ev.EventType,
		OrderID:    ev.Resource.CustomID,
		CaptureID:  ev.Resource.ID,
		Status:     ev.Resource.Status,
		UpdateTime: ev.Resource.UpdateTime,
		PayerEmail: ev.Resource.Payer.EmailAddress,
		Amount:     ev.Resource.Amount.Value,
		Currency:   ev.Resource.Amount.CurrencyCode,
	}, nil
}
