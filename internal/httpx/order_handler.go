package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/httpx/middlewares"
)

// OrderHandler exposes the order lifecycle: checkout, payment initiation,
// the two client-driven confirmation paths, delivery and reporting.
type OrderHandler struct {
	orders *app.Service
}

func NewOrderHandler(orders *app.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middlewares.PrincipalFrom(r.Context())
	if !ok {
		writeError(r.Context(), w, domain.Unauthorized("not authenticated"))
	}
	return p, ok
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, domain.Validation("invalid request body"))
		return
	}

	items := make([]app.OrderItemInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, app.OrderItemInput{ProductID: it.Product, Qty: it.Qty})
	}

	order, err := h.orders.CreateOrder(r.Context(), p, app.CreateOrderInput{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(order))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	// Non-admins may only read their own orders.
	if !order.OwnedBy(p) && !p.IsAdmin {
		writeError(r.Context(), w, domain.Forbidden("you are not authorized to view this order"))
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(r.Context(), p)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *OrderHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.orders.CountOrders(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, TotalOrdersResponse{TotalOrders: count})
}

func (h *OrderHandler) TotalSales(w http.ResponseWriter, r *http.Request) {
	total, err := h.orders.TotalSales(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, TotalSalesResponse{TotalSales: total.StringFixed(2)})
}

func (h *OrderHandler) TotalSalesByDate(w http.ResponseWriter, r *http.Request) {
	rows, err := h.orders.TotalSalesByDate(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDailySales(rows))
}

func (h *OrderHandler) ChangePaymentMethod(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req PaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, domain.Validation("invalid request body"))
		return
	}

	order, err := h.orders.ChangePaymentMethod(r.Context(), p, chi.URLParam(r, "id"), req.PaymentMethod)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *OrderHandler) CreateStripePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateStripePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, domain.Validation("invalid request body"))
		return
	}

	clientSecret, err := h.orders.CreateCardPayment(r.Context(), p, chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateStripePaymentResponse{ClientSecret: clientSecret})
}

func (h *OrderHandler) VerifyStripePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req VerifyStripePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, domain.Validation("invalid request body"))
		return
	}

	order, err := h.orders.ConfirmCardPayment(r.Context(), p, chi.URLParam(r, "id"), req.PaymentIntentID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *OrderHandler) CreatePayPalOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	marketplaceOrderID, err := h.orders.CreateMarketplaceOrder(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatePayPalOrderResponse{OrderID: marketplaceOrderID})
}

func (h *OrderHandler) CapturePayPalOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CapturePayPalOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, domain.Validation("invalid request body"))
		return
	}

	order, err := h.orders.CaptureMarketplaceOrder(r.Context(), p, chi.URLParam(r, "id"), req.PayPalOrderID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	order, err := h.orders.MarkDelivered(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}
