package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can react on the class rather
// than on string matching. httpx maps each kind to an HTTP status.
type ErrorKind string

const (
	// KindValidation — malformed or incomplete input; no side effects occurred.
	KindValidation ErrorKind = "validation"
	// KindNotFound — a referenced order/product/user is absent.
	KindNotFound ErrorKind = "not_found"
	// KindUnauthorized — the caller is not authenticated.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindForbidden — the principal lacks the required relationship or role.
	KindForbidden ErrorKind = "forbidden"
	// KindAmountMismatch — processor-reported amount/currency disagrees with
	// the order's authoritative total. Treated as a potential tampering signal.
	KindAmountMismatch ErrorKind = "amount_mismatch"
	// KindGateway — an external processor call failed or returned garbage.
	KindGateway ErrorKind = "gateway"
	// KindPaymentProcessing — the transactional payment write failed. The
	// transaction is guaranteed aborted before this kind is returned.
	KindPaymentProcessing ErrorKind = "payment_processing"
	// KindInvalidPayload — a webhook payload is missing required correlation data.
	KindInvalidPayload ErrorKind = "invalid_payload"
)

// Error is the typed error returned by every core operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, or "" if err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func AmountMismatch(msg string) *Error { return &Error{Kind: KindAmountMismatch, Message: msg} }

// Gateway wraps a processor failure. msg is safe to log; err carries the
// processor detail and is never rendered to clients.
func Gateway(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Message: msg, Err: err}
}

// PaymentProcessing wraps a failure of the transactional payment write.
func PaymentProcessing(err error) *Error {
	return &Error{Kind: KindPaymentProcessing, Message: "order payment failed", Err: err}
}

func InvalidPayload(msg string) *Error { return &Error{Kind: KindInvalidPayload, Message: msg} }

// ErrAlreadyPaid is the internal signal that a paid transition lost the race:
// the order was already paid when the conditional write ran. Confirmation
// flows translate it into the idempotent no-op path, never into a failure.
var ErrAlreadyPaid = errors.New("order already paid")
