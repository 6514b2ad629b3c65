// Package app hosts the order reconciliation service: order creation with
// server-side price snapshots, payment initiation against the two external
// processors, and the confirmation protocol that marks an order paid exactly
// once — whether the confirmation arrives as a client capture call or as an
// asynchronous processor webhook.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/paymentlog"
	"github.com/Mojahedhu/Mojahed-Store/internal/pricing"
)

// Webhook event types that complete a payment. All other event types are
// acknowledged and ignored so the processor stops redelivering them.
const (
	EventCardPaymentSucceeded        = "payment_intent.succeeded"
	EventMarketplaceCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
)

const statusCompleted = "COMPLETED"

// Service orchestrates orders and their payment lifecycle.
type Service struct {
	orders      OrderStore
	catalog     ProductCatalog
	card        CardGateway
	marketplace MarketplaceGateway
	plog        paymentlog.Recorder // nil-safe: transition logging skipped if nil
}

// NewService wires the reconciliation service. plog may be nil — payment
// transitions are then not recorded to the audit log.
func NewService(orders OrderStore, catalog ProductCatalog, card CardGateway, marketplace MarketplaceGateway, plog paymentlog.Recorder) *Service {
	return &Service{
		orders:      orders,
		catalog:     catalog,
		card:        card,
		marketplace: marketplace,
		plog:        plog,
	}
}

// OrderItemInput is one requested line of a new order. The client supplies
// only the reference and quantity; price and name are never trusted.
type OrderItemInput struct {
	ProductID string
	Qty       int
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// CreateOrder resolves every product reference against the live catalog,
// snapshots name/price per item, computes totals and persists a new unpaid
// order. A single unresolvable reference fails the whole request; no partial
// order is ever created.
func (s *Service) CreateOrder(ctx context.Context, p domain.Principal, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.Validation("no order items")
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	method, err := domain.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return nil, domain.Validation("item quantity must be greater than zero")
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		prod, ok := byID[it.ProductID]
		if !ok {
			return nil, domain.NotFound("product not found: " + it.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID: prod.ID,
			Name:      prod.Name,
			Image:     prod.Image,
			Price:     prod.Price,
			Qty:       it.Qty,
		})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:          p.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		Totals:          pricing.ComputeTotals(items),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", created.ID,
		"user_id", p.UserID,
		"total", created.Totals.TotalPrice.StringFixed(2),
	)
	return created, nil
}

// GetOrder returns a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// ListOrders returns every order. The router gates this behind the admin role.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

// ListUserOrders returns the principal's own orders.
func (s *Service) ListUserOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	return s.orders.FindByUser(ctx, p.UserID)
}

// CountOrders returns the total number of orders.
func (s *Service) CountOrders(ctx context.Context) (int64, error) {
	return s.orders.Count(ctx)
}

// TotalSales returns the sum of all order totals.
func (s *Service) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	return s.orders.TotalSales(ctx)
}

// TotalSalesByDate returns paid order totals grouped by calendar day.
func (s *Service) TotalSalesByDate(ctx context.Context) ([]DailySales, error) {
	return s.orders.TotalSalesByDay(ctx)
}

// ChangePaymentMethod switches the processor an unpaid order will be paid
// through. Owner only; immutable once paid.
func (s *Service) ChangePaymentMethod(ctx context.Context, p domain.Principal, orderID, method string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, order); err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, domain.Validation("payment method cannot change after payment")
	}

	pm, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = pm
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateCardPayment opens a processor-side payment intent for the order and
// returns the client secret the browser completes the payment with. Nothing
// is recorded on the order yet; the order changes only on confirmed capture.
func (s *Service) CreateCardPayment(ctx context.Context, p domain.Principal, orderID, amount string) (string, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if err := requireOwner(p, order); err != nil {
		return "", err
	}

	value, err := decimal.NewFromString(amount)
	if err != nil || value.IsNegative() || value.IsZero() {
		return "", domain.Validation("invalid payment amount")
	}
	// The processor wants minor units (cents).
	minor := value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	intent, err := s.card.CreateIntent(ctx, minor, domain.Currency, map[string]string{
		"orderId": order.ID,
		"userId":  p.UserID,
	})
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

// ConfirmCardPayment is the synchronous card confirmation path: the client
// reports the payment-intent id, we retrieve its status from the processor
// and mark the order paid when the intent succeeded for the right amount.
// Replays while already paid return the paid order untouched.
func (s *Service) ConfirmCardPayment(ctx context.Context, p domain.Principal, orderID, paymentIntentID string) (*domain.Order, error) {
	if paymentIntentID == "" {
		return nil, domain.Validation("missing paymentIntentId")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, order); err != nil {
		return nil, err
	}
	if order.IsPaid {
		return order, nil
	}

	intent, err := s.card.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != "succeeded" {
		return nil, domain.Validation("payment not completed")
	}

	return s.settle(ctx, order.ID, paymentClaim{
		source:   paymentlog.SourceCardConfirm,
		amount:   decimal.New(intent.AmountMinor, -2).StringFixed(2),
		currency: strings.ToUpper(intent.Currency),
		result: domain.PaymentResult{
			TransactionID: intent.ID,
			Status:        intent.Status,
			UpdateTime:    time.Now().UTC().Format(time.RFC3339),
			PayerEmail:    emailOrUnknown(intent.ReceiptEmail),
		},
	})
}

// CreateMarketplaceOrder opens a processor-side order carrying the order's
// authoritative total and the internal order id as correlation id.
func (s *Service) CreateMarketplaceOrder(ctx context.Context, p domain.Principal, orderID string) (string, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if err := requireOwner(p, order); err != nil {
		return "", err
	}
	return s.marketplace.CreateOrder(ctx, order.Totals.TotalPrice.StringFixed(2), domain.Currency, order.ID)
}

// CaptureMarketplaceOrder is the synchronous marketplace confirmation path:
// capture the approved funds at the processor, then mark the order paid after
// re-verifying the captured amount against the order's total. Owner only;
// replays while already paid are idempotent no-ops.
func (s *Service) CaptureMarketplaceOrder(ctx context.Context, p domain.Principal, orderID, marketplaceOrderID string) (*domain.Order, error) {
	if marketplaceOrderID == "" {
		return nil, domain.Validation("missing marketplace order id")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, order); err != nil {
		return nil, err
	}
	if order.IsPaid {
		return order, nil
	}

	capture, err := s.marketplace.CaptureOrder(ctx, marketplaceOrderID)
	if err != nil {
		return nil, err
	}
	if capture.Status != statusCompleted {
		return nil, domain.Validation("payment not completed")
	}

	return s.settle(ctx, order.ID, paymentClaim{
		source:   paymentlog.SourceMarketplaceCapture,
		amount:   capture.Amount,
		currency: capture.Currency,
		result: domain.PaymentResult{
			TransactionID: capture.CaptureID,
			Status:        capture.Status,
			UpdateTime:    capture.UpdateTime,
			PayerEmail:    emailOrUnknown(capture.PayerEmail),
		},
	})
}

// HandleCardWebhook processes one raw card-processor webhook delivery:
// verify the signature, filter the event type, then settle the referenced
// order. A nil return means the delivery must be acknowledged with success.
func (s *Service) HandleCardWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.card.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return domain.Validation("webhook signature verification failed")
	}

	if event.Type != EventCardPaymentSucceeded {
		slog.DebugContext(ctx, "ignoring card webhook event", "type", event.Type)
		return nil
	}

	if event.OrderID == "" || event.AmountMinor <= 0 {
		return domain.InvalidPayload("card webhook payload missing order id or amount")
	}

	_, err = s.settle(ctx, event.OrderID, paymentClaim{
		source:   paymentlog.SourceCardWebhook,
		amount:   decimal.New(event.AmountMinor, -2).StringFixed(2),
		currency: strings.ToUpper(event.Currency),
		result: domain.PaymentResult{
			TransactionID: event.IntentID,
			Status:        event.Status,
			UpdateTime:    time.Now().UTC().Format(time.RFC3339),
			PayerEmail:    emailOrUnknown(event.ReceiptEmail),
		},
	})
	return err
}

// HandleMarketplaceWebhook processes one raw marketplace webhook delivery.
func (s *Service) HandleMarketplaceWebhook(ctx context.Context, headers MarketplaceWebhookHeaders, payload []byte) error {
	event, err := s.marketplace.VerifyWebhook(ctx, headers, payload)
	if err != nil {
		return domain.Validation("webhook signature verification failed")
	}

	if event.Type != EventMarketplaceCaptureCompleted {
		slog.DebugContext(ctx, "ignoring marketplace webhook event", "type", event.Type)
		return nil
	}

	if event.OrderID == "" || event.Amount == "" {
		return domain.InvalidPayload("marketplace webhook payload missing order id or amount")
	}

	_, err = s.settle(ctx, event.OrderID, paymentClaim{
		source:   paymentlog.SourceMarketplaceWebhook,
		amount:   event.Amount,
		currency: event.Currency,
		result: domain.PaymentResult{
			TransactionID: event.CaptureID,
			Status:        event.Status,
			UpdateTime:    event.UpdateTime,
			PayerEmail:    emailOrUnknown(event.PayerEmail),
		},
	})
	return err
}

// MarkDelivered records delivery. Admin only, and only after payment.
func (s *Service) MarkDelivered(ctx context.Context, p domain.Principal, orderID string) (*domain.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid {
		return nil, domain.Validation("order is not paid")
	}

	now := time.Now().UTC()
	order.IsDelivered = true
	order.DeliveredAt = &now
	order.UpdatedAt = now
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder hard-deletes an order. Owner or admin.
func (s *Service) DeleteOrder(ctx context.Context, p domain.Principal, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(p, order); err != nil {
		return err
	}
	return s.orders.Delete(ctx, order.ID)
}

// paymentClaim is one confirmation attempt: what the processor says was paid
// and where the claim came from.
type paymentClaim struct {
	source   paymentlog.Source
	amount   string
	currency string
	result   domain.PaymentResult
}

// settle is the single point where an order transitions to paid. It runs
// inside a storage transaction: load the order, short-circuit if already
// paid, verify the claimed amount and currency against the order's
// authoritative total, then conditionally mark paid. Losing a race with a
// concurrent confirmation degrades into the idempotent no-op path. Every
// attempt — won, duplicate or rejected — lands in the payment transition log.
func (s *Service) settle(ctx context.Context, orderID string, claim paymentClaim) (*domain.Order, error) {
	var (
		settled *domain.Order
		outcome paymentlog.Outcome
		detail  string
	)

	txErr := s.orders.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		// Idempotency guard: webhooks may be delivered more than once and
		// clients may retry. The first confirmation wins; the rest ack.
		if order.IsPaid {
			outcome, detail = paymentlog.OutcomeDuplicate, "order already paid"
			settled = order
			return nil
		}

		if err := verifyClaimAmount(order, claim); err != nil {
			return err
		}

		updated, err := s.orders.MarkPaid(ctx, order.ID, claim.result, time.Now().UTC())
		if errors.Is(err, domain.ErrAlreadyPaid) {
			// A concurrent confirmation won between our read and write.
			outcome, detail = paymentlog.OutcomeDuplicate, "order already paid"
			settled, err = s.orders.FindByID(ctx, order.ID)
			return err
		}
		if err != nil {
			return err
		}

		outcome, detail = paymentlog.OutcomePaid, claim.result.TransactionID
		settled = updated
		return nil
	})

	if txErr != nil {
		if domain.KindOf(txErr) == "" {
			txErr = domain.PaymentProcessing(txErr)
		}
		s.record(ctx, orderID, claim.source, paymentlog.OutcomeRejected, txErr.Error())
		return nil, txErr
	}

	s.record(ctx, orderID, claim.source, outcome, detail)
	if outcome == paymentlog.OutcomePaid {
		slog.InfoContext(ctx, "order marked paid",
			"order_id", orderID,
			"source", string(claim.source),
			"transaction_id", claim.result.TransactionID,
		)
	}
	return settled, nil
}

// verifyClaimAmount rejects a claim whose reported amount or currency
// disagrees with the order's authoritative total. A mismatch is treated as a
// potential tampering signal and logged distinctly.
func verifyClaimAmount(order *domain.Order, claim paymentClaim) error {
	reported, err := decimal.NewFromString(claim.amount)
	if err != nil {
		return domain.InvalidPayload("unparseable payment amount: " + claim.amount)
	}

	if !reported.Equal(order.Totals.TotalPrice) || claim.currency != domain.Currency {
		slog.Error("payment amount mismatch",
			"order_id", order.ID,
			"expected", order.Totals.TotalPrice.StringFixed(2)+" "+domain.Currency,
			"reported", claim.amount+" "+claim.currency,
			"source", string(claim.source),
		)
		return domain.AmountMismatch("payment amount mismatch")
	}
	return nil
}

// record appends to the payment transition log. Log failures are reported
// but never fail the payment flow itself.
func (s *Service) record(ctx context.Context, orderID string, source paymentlog.Source, outcome paymentlog.Outcome, detail string) {
	if s.plog == nil {
		return
	}
	entry := paymentlog.NewEntry(ctx, orderID, source, outcome, detail)
	if err := s.plog.Record(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "payment log write failed", "order_id", orderID, "error", err)
	}
}

func emailOrUnknown(email string) string {
	if email == "" {
		return "unknown"
	}
	return email
}
