package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/auth"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/httpx"
	"github.com/Mojahedhu/Mojahed-Store/internal/httpx/middlewares"
	"github.com/Mojahedhu/Mojahed-Store/internal/storage/memory"
)

type stubCardGateway struct {
	intents map[string]app.CardIntent
	event   app.CardEvent
	fail    bool
}

func (s *stubCardGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (app.CardIntent, error) {
	return app.CardIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (s *stubCardGateway) RetrieveIntent(ctx context.Context, id string) (app.CardIntent, error) {
	intent, ok := s.intents[id]
	if !ok {
		return app.CardIntent{}, domain.Gateway("no such payment_intent", errors.New("resource_missing"))
	}
	return intent, nil
}

func (s *stubCardGateway) VerifyWebhook(payload []byte, signatureHeader string) (app.CardEvent, error) {
	if s.fail {
		return app.CardEvent{}, errors.New("signature mismatch")
	}
	return s.event, nil
}

type stubMarketplaceGateway struct{}

func (stubMarketplaceGateway) CreateOrder(ctx context.Context, amount, currency, correlationID string) (string, error) {
	return "PP-1", nil
}

func (stubMarketplaceGateway) CaptureOrder(ctx context.Context, id string) (app.MarketplaceCapture, error) {
	return app.MarketplaceCapture{}, errors.New("not scripted")
}

func (stubMarketplaceGateway) VerifyWebhook(ctx context.Context, headers app.MarketplaceWebhookHeaders, payload []byte) (app.MarketplaceEvent, error) {
	return app.MarketplaceEvent{}, errors.New("not scripted")
}

type env struct {
	server   *httptest.Server
	card     *stubCardGateway
	products *memory.ProductStore
	product  *domain.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()

	orderStore := memory.NewOrderStore()
	productStore := memory.NewProductStore()
	categoryStore := memory.NewCategoryStore()
	userStore := memory.NewUserStore()
	card := &stubCardGateway{intents: map[string]app.CardIntent{}}

	product, err := productStore.Create(context.Background(), &domain.Product{
		Name:  "Desk Lamp",
		Price: decimal.RequireFromString("40.00"),
	})
	require.NoError(t, err)

	orders := app.NewService(orderStore, productStore, card, stubMarketplaceGateway{}, nil)
	users := app.NewUserService(userStore)
	catalog := app.NewCatalogService(productStore, categoryStore)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := httpx.NewRouter(httpx.Handlers{
		Orders:   httpx.NewOrderHandler(orders),
		Webhooks: httpx.NewWebhookHandler(orders),
		Users:    httpx.NewUserHandler(users, tokens),
		Catalog:  httpx.NewCatalogHandler(catalog),
		Auth:     middlewares.NewAuthenticator(tokens, userStore),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &env{server: server, card: card, products: productStore, product: product}
}

// register creates an account and returns its session cookie.
func (e *env) register(t *testing.T, email string) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": "tester",
		"email":    email,
		"password": "secret99",
	})
	resp, err := http.Post(e.server.URL+"/api/users", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (e *env) do(t *testing.T, method, path string, cookie *http.Cookie, payload any) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &body)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestOrdersRequireSession(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/api/orders/mine")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutAndCardConfirmation(t *testing.T) {
	e := newEnv(t)
	cookie := e.register(t, "buyer@example.com")

	resp := e.do(t, http.MethodPost, "/api/orders", cookie, map[string]any{
		"orderItems": []map[string]any{{"product": e.product.ID, "qty": 1}},
		"shippingAddress": map[string]string{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
		"paymentMethod": "Stripe",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[httpx.OrderResponse](t, resp)

	// 40 items + 10 shipping + 6 tax
	require.Equal(t, "56.00", order.TotalPrice)
	require.False(t, order.IsPaid)

	e.card.intents["pi_ok"] = app.CardIntent{
		ID:          "pi_ok",
		Status:      "succeeded",
		AmountMinor: 5600,
		Currency:    "usd",
	}

	resp = e.do(t, http.MethodPut, "/api/orders/"+order.ID+"/verify-stripe", cookie,
		map[string]string{"paymentIntentId": "pi_ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decode[httpx.OrderResponse](t, resp)
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaymentResult)
	require.Equal(t, "pi_ok", paid.PaymentResult.ID)
}

func TestCardConfirmationAmountMismatchIs400(t *testing.T) {
	e := newEnv(t)
	cookie := e.register(t, "buyer@example.com")

	resp := e.do(t, http.MethodPost, "/api/orders", cookie, map[string]any{
		"orderItems": []map[string]any{{"product": e.product.ID, "qty": 1}},
		"shippingAddress": map[string]string{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
		"paymentMethod": "Stripe",
	})
	order := decode[httpx.OrderResponse](t, resp)

	e.card.intents["pi_bad"] = app.CardIntent{
		ID:          "pi_bad",
		Status:      "succeeded",
		AmountMinor: 5599,
		Currency:    "usd",
	}

	resp = e.do(t, http.MethodPut, "/api/orders/"+order.ID+"/verify-stripe", cookie,
		map[string]string{"paymentIntentId": "pi_bad"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[httpx.ErrorResponse](t, resp)
	require.Equal(t, "amount_mismatch", body.Error)
}

func TestCardWebhookEndpoint(t *testing.T) {
	e := newEnv(t)
	cookie := e.register(t, "buyer@example.com")

	resp := e.do(t, http.MethodPost, "/api/orders", cookie, map[string]any{
		"orderItems": []map[string]any{{"product": e.product.ID, "qty": 1}},
		"shippingAddress": map[string]string{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
		"paymentMethod": "Stripe",
	})
	order := decode[httpx.OrderResponse](t, resp)

	e.card.event = app.CardEvent{
		Type:        app.EventCardPaymentSucceeded,
		IntentID:    "pi_hook",
		OrderID:     order.ID,
		Status:      "succeeded",
		AmountMinor: 5600,
		Currency:    "usd",
	}

	// Webhooks carry no session cookie.
	hook := e.do(t, http.MethodPost, "/api/webhooks/stripe", nil, map[string]string{})
	hook.Body.Close()
	require.Equal(t, http.StatusOK, hook.StatusCode)

	// Redelivery still acks 200.
	hook = e.do(t, http.MethodPost, "/api/webhooks/stripe", nil, map[string]string{})
	hook.Body.Close()
	require.Equal(t, http.StatusOK, hook.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/orders/"+order.ID, cookie, nil)
	paid := decode[httpx.OrderResponse](t, resp)
	require.True(t, paid.IsPaid)
}

func TestCardWebhookBadSignatureIs400(t *testing.T) {
	e := newEnv(t)
	e.card.fail = true

	resp := e.do(t, http.MethodPost, "/api/webhooks/stripe", nil, map[string]string{})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminGateOnProductWrites(t *testing.T) {
	e := newEnv(t)
	cookie := e.register(t, "buyer@example.com")

	resp := e.do(t, http.MethodPost, "/api/products", cookie, map[string]any{
		"name": "Sneaky", "category": "c", "price": "1.00",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Public reads stay open.
	list, err := http.Get(e.server.URL + "/api/products")
	require.NoError(t, err)
	list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)
}

func TestOrderReadIsOwnerScoped(t *testing.T) {
	e := newEnv(t)
	owner := e.register(t, "owner@example.com")
	other := e.register(t, "other@example.com")

	resp := e.do(t, http.MethodPost, "/api/orders", owner, map[string]any{
		"orderItems": []map[string]any{{"product": e.product.ID, "qty": 1}},
		"shippingAddress": map[string]string{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
		"paymentMethod": "PayPal",
	})
	order := decode[httpx.OrderResponse](t, resp)

	stolen := e.do(t, http.MethodGet, "/api/orders/"+order.ID, other, nil)
	stolen.Body.Close()
	require.Equal(t, http.StatusForbidden, stolen.StatusCode)
}
