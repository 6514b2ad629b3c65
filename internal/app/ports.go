package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// OrderStore is the persistence port for orders. Implementations must make
// WithTransaction + MarkPaid strong enough that two concurrent confirmations
// of the same order cannot both observe it unpaid and both mark it paid.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	Count(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
	TotalSalesByDay(ctx context.Context) ([]DailySales, error)

	// Save persists mutations of non-payment fields (payment method,
	// delivery state). Payment transitions go through MarkPaid.
	Save(ctx context.Context, order *domain.Order) error

	// MarkPaid sets isPaid/paidAt/paymentResult if and only if the order is
	// currently unpaid, and returns the updated order. When the order exists
	// but is already paid it returns domain.ErrAlreadyPaid — the losing side
	// of a confirmation race lands here.
	MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult, paidAt time.Time) (*domain.Order, error)

	Delete(ctx context.Context, orderID string) error

	// WithTransaction runs fn inside a storage transaction. Any error from
	// fn aborts the transaction before it propagates.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DailySales is one bucket of the paid-sales-by-day report.
type DailySales struct {
	Date  string // YYYY-MM-DD
	Total decimal.Decimal
}

// ProductCatalog resolves product references at order-creation time.
type ProductCatalog interface {
	// ResolveProducts returns exactly the catalog entries matching ids;
	// missing ids are simply absent from the result, letting the caller
	// detect them by set difference.
	ResolveProducts(ctx context.Context, ids []string) ([]domain.Product, error)
}

// ProductStore is the full catalog persistence port.
type ProductStore interface {
	ProductCatalog
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryStore persists product categories. Names are unique.
type CategoryStore interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// UserStore persists user accounts. Emails are unique.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// CardIntent is the processor-side payment intent the card gateway reports.
type CardIntent struct {
	ID           string
	ClientSecret string
	Status       string
	ReceiptEmail string
	AmountMinor  int64
	Currency     string
}

// CardEvent is a verified, parsed card-processor webhook event. For event
// types other than payment-intent events only Type is populated.
type CardEvent struct {
	Type         string
	IntentID     string
	OrderID      string // correlation id from the intent metadata
	UserID       string
	Status       string
	ReceiptEmail string
	AmountMinor  int64
	Currency     string
}

// CardGateway wraps the card processor (Stripe). Signature verification is
// delegated to the processor SDK; the core never does its own crypto.
type CardGateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (CardIntent, error)
	RetrieveIntent(ctx context.Context, id string) (CardIntent, error)

	// VerifyWebhook authenticates the raw payload against the registered
	// webhook secret and returns the typed event.
	VerifyWebhook(payload []byte, signatureHeader string) (CardEvent, error)
}

// MarketplaceCapture is the result of capturing funds at the marketplace
// processor.
type MarketplaceCapture struct {
	CaptureID  string
	Status     string
	UpdateTime string
	PayerEmail string
	Amount     string
	Currency   string
}

// MarketplaceWebhookHeaders are the transmission headers the marketplace
// processor signs its webhook deliveries with.
type MarketplaceWebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// MarketplaceEvent is a verified, parsed marketplace webhook event. For
// event types other than capture events only Type is populated.
type MarketplaceEvent struct {
	Type       string
	OrderID    string // correlation id (custom_id on the capture resource)
	CaptureID  string
	Status     string
	UpdateTime string
	PayerEmail string
	Amount     string
	Currency   string
}

// MarketplaceGateway wraps the marketplace processor (PayPal).
type MarketplaceGateway interface {
	// CreateOrder opens a processor-side order for amount (2-decimal string)
	// tagged with correlationID, and returns the processor order id.
	CreateOrder(ctx context.Context, amount, currency, correlationID string) (string, error)

	// CaptureOrder finalises the transfer of the approved funds.
	CaptureOrder(ctx context.Context, marketplaceOrderID string) (MarketplaceCapture, error)

	// VerifyWebhook authenticates the delivery against the registered
	// webhook id and returns the typed event.
	VerifyWebhook(ctx context.Context, headers MarketplaceWebhookHeaders, payload []byte) (MarketplaceEvent, error)
}
