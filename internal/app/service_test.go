package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/paymentlog"
	"github.com/Mojahedhu/Mojahed-Store/internal/storage/memory"
)

// fakeCardGateway returns scripted intents and webhook events.
type fakeCardGateway struct {
	intents   map[string]app.CardIntent
	event     app.CardEvent
	verifyErr error
}

func (f *fakeCardGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (app.CardIntent, error) {
	return app.CardIntent{ID: "pi_test", ClientSecret: "pi_test_secret", Status: "requires_payment_method", AmountMinor: amountMinor, Currency: currency}, nil
}

func (f *fakeCardGateway) RetrieveIntent(ctx context.Context, id string) (app.CardIntent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return app.CardIntent{}, domain.Gateway("no such payment_intent", errors.New("resource_missing"))
	}
	return intent, nil
}

func (f *fakeCardGateway) VerifyWebhook(payload []byte, signatureHeader string) (app.CardEvent, error) {
	if f.verifyErr != nil {
		return app.CardEvent{}, f.verifyErr
	}
	return f.event, nil
}

// fakeMarketplaceGateway returns scripted captures and webhook events.
type fakeMarketplaceGateway struct {
	capture    app.MarketplaceCapture
	captureErr error
	event      app.MarketplaceEvent
	verifyErr  error

	createdAmount        string
	createdCorrelationID string
}

func (f *fakeMarketplaceGateway) CreateOrder(ctx context.Context, amount, currency, correlationID string) (string, error) {
	f.createdAmount = amount
	f.createdCorrelationID = correlationID
	return "PP-ORDER-1", nil
}

func (f *fakeMarketplaceGateway) CaptureOrder(ctx context.Context, marketplaceOrderID string) (app.MarketplaceCapture, error) {
	if f.captureErr != nil {
		return app.MarketplaceCapture{}, f.captureErr
	}
	return f.capture, nil
}

func (f *fakeMarketplaceGateway) VerifyWebhook(ctx context.Context, headers app.MarketplaceWebhookHeaders, payload []byte) (app.MarketplaceEvent, error) {
	if f.verifyErr != nil {
		return app.MarketplaceEvent{}, f.verifyErr
	}
	return f.event, nil
}

// memRecorder collects payment log entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []paymentlog.Entry
}

func (r *memRecorder) Record(ctx context.Context, entry *paymentlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memRecorder) count(outcome paymentlog.Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Outcome == outcome {
			n++
		}
	}
	return n
}

type fixture struct {
	svc         *app.Service
	orders      *memory.OrderStore
	products    *memory.ProductStore
	card        *fakeCardGateway
	marketplace *fakeMarketplaceGateway
	plog        *memRecorder

	owner   domain.Principal
	admin   domain.Principal
	product *domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orders := memory.NewOrderStore()
	products := memory.NewProductStore()
	card := &fakeCardGateway{intents: map[string]app.CardIntent{}}
	marketplace := &fakeMarketplaceGateway{}
	plog := &memRecorder{}

	product, err := products.Create(context.Background(), &domain.Product{
		Name:  "Mechanical Keyboard",
		Image: "/images/keyboard.jpg",
		Price: decimal.RequireFromString("60.00"),
	})
	require.NoError(t, err)

	return &fixture{
		svc:         app.NewService(orders, products, card, marketplace, plog),
		orders:      orders,
		products:    products,
		card:        card,
		marketplace: marketplace,
		plog:        plog,
		owner:       domain.Principal{UserID: "user-1"},
		admin:       domain.Principal{UserID: "admin-1", IsAdmin: true},
		product:     product,
	}
}

func (f *fixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), f.owner, app.CreateOrderInput{
		Items: []app.OrderItemInput{{ProductID: f.product.ID, Qty: 2}},
		ShippingAddress: domain.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		PaymentMethod: "Stripe",
	})
	require.NoError(t, err)
	return order
}

// succeededIntent registers a scripted intent matching the order's total.
func (f *fixture) succeededIntent(order *domain.Order) string {
	const id = "pi_paid"
	f.card.intents[id] = app.CardIntent{
		ID:           id,
		Status:       "succeeded",
		ReceiptEmail: "buyer@example.com",
		AmountMinor:  order.Totals.TotalPrice.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:     "usd",
	}
	return id
}

func TestCreateOrderSnapshotsCatalogPrices(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	require.Len(t, order.Items, 1)
	require.Equal(t, "Mechanical Keyboard", order.Items[0].Name)
	require.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("60.00")))

	// 120 items + 0 shipping (over 100) + 18 tax
	require.Equal(t, "138.00", order.Totals.TotalPrice.StringFixed(2))
	require.False(t, order.IsPaid)

	// Later catalog edits must not leak into the snapshot.
	f.product.Price = decimal.RequireFromString("999.99")
	require.NoError(t, f.products.Update(context.Background(), f.product))

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, reloaded.Items[0].Price.Equal(decimal.RequireFromString("60.00")))
}

func TestCreateOrderUnknownProductCreatesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), f.owner, app.CreateOrderInput{
		Items: []app.OrderItemInput{
			{ProductID: f.product.ID, Qty: 1},
			{ProductID: "missing-id", Qty: 1},
		},
		ShippingAddress: domain.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		PaymentMethod: "Stripe",
	})
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))

	count, err := f.orders.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	address := domain.ShippingAddress{Address: "1 Main St", City: "x", PostalCode: "1", Country: "US"}

	cases := []struct {
		name string
		in   app.CreateOrderInput
	}{
		{"no items", app.CreateOrderInput{ShippingAddress: address, PaymentMethod: "Stripe"}},
		{"zero qty", app.CreateOrderInput{
			Items:           []app.OrderItemInput{{ProductID: f.product.ID, Qty: 0}},
			ShippingAddress: address,
			PaymentMethod:   "Stripe",
		}},
		{"missing address", app.CreateOrderInput{
			Items:         []app.OrderItemInput{{ProductID: f.product.ID, Qty: 1}},
			PaymentMethod: "Stripe",
		}},
		{"unknown method", app.CreateOrderInput{
			Items:           []app.OrderItemInput{{ProductID: f.product.ID, Qty: 1}},
			ShippingAddress: address,
			PaymentMethod:   "Bitcoin",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), f.owner, tc.in)
			require.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestConfirmCardPaymentMarksPaidOnce(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	intentID := f.succeededIntent(order)

	paid, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, intentID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	require.Equal(t, "pi_paid", paid.PaymentResult.TransactionID)
	require.Equal(t, "buyer@example.com", paid.PaymentResult.PayerEmail)
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomePaid))

	// Replay: idempotent, paidAt untouched.
	again, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, intentID)
	require.NoError(t, err)
	require.True(t, again.PaidAt.Equal(*paid.PaidAt))
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomePaid))
}

func TestConfirmCardPaymentOwnerOnly(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	intentID := f.succeededIntent(order)

	stranger := domain.Principal{UserID: "user-2"}
	_, err := f.svc.ConfirmCardPayment(context.Background(), stranger, order.ID, intentID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsPaid)
}

func TestConfirmCardPaymentRejectsWrongAmount(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.card.intents["pi_tampered"] = app.CardIntent{
		ID:          "pi_tampered",
		Status:      "succeeded",
		AmountMinor: 13799, // one cent short of 138.00
		Currency:    "usd",
	}

	_, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, "pi_tampered")
	require.Equal(t, domain.KindAmountMismatch, domain.KindOf(err))
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomeRejected))

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsPaid)
	require.Nil(t, reloaded.PaymentResult)
}

func TestConfirmCardPaymentIncompleteIntent(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.card.intents["pi_pending"] = app.CardIntent{ID: "pi_pending", Status: "requires_action"}

	_, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, "pi_pending")
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestConcurrentConfirmationsPayExactlyOnce(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	intentID := f.succeededIntent(order)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, intentID)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Exactly one confirmation wins; every other attempt either
	// short-circuits or lands on the duplicate path. Nothing is rejected.
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomePaid))
	require.Zero(t, f.plog.count(paymentlog.OutcomeRejected))

	paid, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
}

func TestCardWebhookSettlesOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.card.event = app.CardEvent{
		Type:         app.EventCardPaymentSucceeded,
		IntentID:     "pi_hook",
		OrderID:      order.ID,
		Status:       "succeeded",
		ReceiptEmail: "buyer@example.com",
		AmountMinor:  13800,
		Currency:     "usd",
	}

	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), []byte(`{}`), "sig"))

	paid, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, "pi_hook", paid.PaymentResult.TransactionID)

	// Redelivery acks without touching the order.
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), []byte(`{}`), "sig"))
	again, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, again.PaidAt.Equal(*paid.PaidAt))
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomePaid))
	require.Equal(t, 1, f.plog.count(paymentlog.OutcomeDuplicate))
}

func TestCardWebhookBadSignature(t *testing.T) {
	f := newFixture(t)
	f.card.verifyErr = errors.New("signature mismatch")

	err := f.svc.HandleCardWebhook(context.Background(), []byte(`{}`), "bad")
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCardWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.card.event = app.CardEvent{Type: "payment_intent.created", OrderID: order.ID}
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), []byte(`{}`), "sig"))

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsPaid)
	require.Empty(t, f.plog.entries)
}

func TestCardWebhookMissingCorrelation(t *testing.T) {
	f := newFixture(t)
	f.card.event = app.CardEvent{Type: app.EventCardPaymentSucceeded, AmountMinor: 13800}

	err := f.svc.HandleCardWebhook(context.Background(), []byte(`{}`), "sig")
	require.Equal(t, domain.KindInvalidPayload, domain.KindOf(err))
}

func TestMarketplaceCaptureFlow(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	id, err := f.svc.CreateMarketplaceOrder(context.Background(), f.owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, "PP-ORDER-1", id)
	require.Equal(t, "138.00", f.marketplace.createdAmount)
	require.Equal(t, order.ID, f.marketplace.createdCorrelationID)

	f.marketplace.capture = app.MarketplaceCapture{
		CaptureID:  "CAP-1",
		Status:     "COMPLETED",
		UpdateTime: "2026-08-29T10:00:00Z",
		PayerEmail: "buyer@example.com",
		Amount:     "138.00",
		Currency:   "USD",
	}

	paid, err := f.svc.CaptureMarketplaceOrder(context.Background(), f.owner, order.ID, id)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, "CAP-1", paid.PaymentResult.TransactionID)
	require.Equal(t, "2026-08-29T10:00:00Z", paid.PaymentResult.UpdateTime)
}

func TestMarketplaceCaptureRejectsWrongCurrency(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.marketplace.capture = app.MarketplaceCapture{
		CaptureID: "CAP-1",
		Status:    "COMPLETED",
		Amount:    "138.00",
		Currency:  "EUR",
	}

	_, err := f.svc.CaptureMarketplaceOrder(context.Background(), f.owner, order.ID, "PP-ORDER-1")
	require.Equal(t, domain.KindAmountMismatch, domain.KindOf(err))
}

func TestMarketplaceWebhookSettlesOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.marketplace.event = app.MarketplaceEvent{
		Type:       app.EventMarketplaceCaptureCompleted,
		OrderID:    order.ID,
		CaptureID:  "CAP-HOOK",
		Status:     "COMPLETED",
		UpdateTime: "2026-08-29T10:00:00Z",
		Amount:     "138.00",
		Currency:   "USD",
	}

	require.NoError(t, f.svc.HandleMarketplaceWebhook(context.Background(), app.MarketplaceWebhookHeaders{}, []byte(`{}`)))

	paid, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, "CAP-HOOK", paid.PaymentResult.TransactionID)
	// Missing payer email falls back to the sentinel value.
	require.Equal(t, "unknown", paid.PaymentResult.PayerEmail)
}

func TestMarketplaceWebhookAmountTamper(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	f.marketplace.event = app.MarketplaceEvent{
		Type:     app.EventMarketplaceCaptureCompleted,
		OrderID:  order.ID,
		Status:   "COMPLETED",
		Amount:   "49.99",
		Currency: "USD",
	}

	err := f.svc.HandleMarketplaceWebhook(context.Background(), app.MarketplaceWebhookHeaders{}, []byte(`{}`))
	require.Equal(t, domain.KindAmountMismatch, domain.KindOf(err))

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsPaid)
}

func TestChangePaymentMethodLockedAfterPayment(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	changed, err := f.svc.ChangePaymentMethod(context.Background(), f.owner, order.ID, "PayPal")
	require.NoError(t, err)
	require.Equal(t, domain.PaymentMethodPayPal, changed.PaymentMethod)

	intentID := f.succeededIntent(order)
	_, err = f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, intentID)
	require.NoError(t, err)

	_, err = f.svc.ChangePaymentMethod(context.Background(), f.owner, order.ID, "Stripe")
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestMarkDelivered(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.MarkDelivered(context.Background(), f.owner, order.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.svc.MarkDelivered(context.Background(), f.admin, order.ID)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))

	intentID := f.succeededIntent(order)
	_, err = f.svc.ConfirmCardPayment(context.Background(), f.owner, order.ID, intentID)
	require.NoError(t, err)

	delivered, err := f.svc.MarkDelivered(context.Background(), f.admin, order.ID)
	require.NoError(t, err)
	require.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
}

func TestDeleteOrderOwnerOrAdmin(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t)
	stranger := domain.Principal{UserID: "user-2"}
	err := f.svc.DeleteOrder(context.Background(), stranger, order.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	require.NoError(t, f.svc.DeleteOrder(context.Background(), f.owner, order.ID))

	other := f.createOrder(t)
	require.NoError(t, f.svc.DeleteOrder(context.Background(), f.admin, other.ID))
}

func TestReporting(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t)
	f.createOrder(t)

	intentID := f.succeededIntent(first)
	_, err := f.svc.ConfirmCardPayment(context.Background(), f.owner, first.ID, intentID)
	require.NoError(t, err)

	count, err := f.svc.CountOrders(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	total, err := f.svc.TotalSales(context.Background())
	require.NoError(t, err)
	require.Equal(t, "276.00", total.StringFixed(2))

	// Only the paid order contributes to the by-day report.
	byDay, err := f.svc.TotalSalesByDate(context.Background())
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	require.Equal(t, "138.00", byDay[0].Total.StringFixed(2))
}
