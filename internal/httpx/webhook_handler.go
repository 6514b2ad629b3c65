package httpx

import (
	"io"
	"net/http"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// maxWebhookBody bounds processor webhook payloads.
const maxWebhookBody = 1 << 16

// WebhookHandler terminates the asynchronous confirmation paths. Webhook
// requests carry no session; authentication is the processor signature on
// the raw body, verified by the gateway SDK before anything is parsed.
type WebhookHandler struct {
	orders *app.Service
}

func NewWebhookHandler(orders *app.Service) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(r.Context(), w, domain.InvalidPayload("unreadable webhook body"))
		return
	}

	if err := h.orders.HandleCardWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

func (h *WebhookHandler) PayPal(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(r.Context(), w, domain.InvalidPayload("unreadable webhook body"))
		return
	}

	headers := app.MarketplaceWebhookHeaders{
		TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
		TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		CertURL:          r.Header.Get("Paypal-Cert-Url"),
		AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
	}

	if err := h.orders.HandleMarketplaceWebhook(r.Context(), headers, payload); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
