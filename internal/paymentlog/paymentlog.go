// Package paymentlog defines the payment transition log: a durable,
// append-only audit trail of every attempt to move an order into the paid
// state. Each row records where the attempt came from (webhook or client
// capture, per processor) and how it ended (paid, duplicate, rejected),
// together with the trace ids of the request that produced it, so a log row
// can be joined with business data and jumped to in the tracing backend.
package paymentlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Outcome is the result of one paid-transition attempt.
type Outcome string

const (
	// OutcomePaid — this attempt won: the order moved unpaid → paid.
	OutcomePaid Outcome = "PAID"
	// OutcomeDuplicate — the order was already paid; the attempt was
	// acknowledged as an idempotent no-op.
	OutcomeDuplicate Outcome = "DUPLICATE"
	// OutcomeRejected — signature, payload, amount or processor checks
	// failed; the order stayed unpaid.
	OutcomeRejected Outcome = "REJECTED"
)

// Source identifies which confirmation path produced the attempt.
type Source string

const (
	SourceCardConfirm        Source = "card_confirm"
	SourceCardWebhook        Source = "card_webhook"
	SourceMarketplaceCapture Source = "marketplace_capture"
	SourceMarketplaceWebhook Source = "marketplace_webhook"
)

// Entry is a single row in the payment transition log.
type Entry struct {
	// OrderID is the internal order the attempt targeted.
	OrderID string

	Source  Source
	Outcome Outcome

	// Detail carries the processor transaction id on success, or the
	// rejection reason otherwise.
	Detail string

	// TraceID and SpanID come from the OpenTelemetry span active when the
	// entry was written; empty when no span is active (e.g. unit tests).
	TraceID string
	SpanID  string

	CreatedAt time.Time
}

// Recorder is the port for persisting log entries. The table is append-only;
// every call adds a row.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
}

// NewEntry builds an Entry with the trace identifiers extracted from ctx.
func NewEntry(ctx context.Context, orderID string, source Source, outcome Outcome, detail string) *Entry {
	e := &Entry{
		OrderID:   orderID,
		Source:    source,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}
