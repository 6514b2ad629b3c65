package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the only settlement currency the store operates in.
// Multi-currency settlement is out of scope.
const Currency = "USD"

// PaymentMethod selects which external processor an order is paid through.
type PaymentMethod string

const (
	// PaymentMethodStripe — the card-processing gateway.
	PaymentMethodStripe PaymentMethod = "Stripe"
	// PaymentMethodPayPal — the marketplace gateway.
	PaymentMethodPayPal PaymentMethod = "PayPal"
)

// ParsePaymentMethod validates a client-supplied payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodStripe, PaymentMethodPayPal:
		return PaymentMethod(s), nil
	case "":
		return "", Validation("no payment method")
	default:
		return "", Validation("unknown payment method: " + s)
	}
}

// OrderItem is one line of an order. Name, price and image are snapshotted
// from the catalog at order-creation time and never re-read, so historical
// orders stay immutable regardless of later catalog edits.
type OrderItem struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal // unit price snapshot
	Qty       int
}

// ShippingAddress holds the free-form destination fields. All are required
// before an order can be placed.
type ShippingAddress struct {
	Address    string
	City       string
	PostalCode string
	Country    string
}

// Validate reports the first missing required field.
func (a ShippingAddress) Validate() error {
	switch {
	case a.Address == "":
		return Validation("shipping address is required")
	case a.City == "":
		return Validation("shipping city is required")
	case a.PostalCode == "":
		return Validation("shipping postal code is required")
	case a.Country == "":
		return Validation("shipping country is required")
	}
	return nil
}

// PaymentResult records what the processor reported when the order was paid.
// It is set if and only if IsPaid is true.
type PaymentResult struct {
	TransactionID string
	Status        string
	UpdateTime    string
	PayerEmail    string
}

// Totals are the derived monetary fields of an order. TotalPrice always
// equals ItemsPrice + ShippingPrice + TaxPrice; the fields are recomputed by
// the pricing engine, never edited independently.
type Totals struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Order is the aggregate recording a checkout's line items, shipping,
// payment state and delivery state. IsPaid transitions false→true exactly
// once; once true it is terminal.
type Order struct {
	ID              string
	UserID          string // owner; immutable after creation
	Items           []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	Totals          Totals
	IsPaid          bool
	PaidAt          *time.Time
	PaymentResult   *PaymentResult
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether the principal placed this order.
func (o *Order) OwnedBy(p Principal) bool {
	return o.UserID != "" && o.UserID == p.UserID
}
