// Package sqlite provides a SQLite-backed implementation of
// paymentlog.Recorder.
//
// WAL mode is enabled on Open so that readers never block writers — webhook
// handlers write while an operator may be querying the log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Mojahedhu/Mojahed-Store/internal/paymentlog"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps Docker builds on Alpine simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. The table is append-only:
// each row is an immutable event in an order's payment history.
const schema = `
CREATE TABLE IF NOT EXISTS payment_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Internal order id. Not UNIQUE: an order accumulates one row per
    -- confirmation attempt (duplicates and rejections included).
    order_id    TEXT NOT NULL,

    -- Confirmation path: card_confirm, card_webhook,
    -- marketplace_capture, marketplace_webhook.
    source      TEXT NOT NULL,

    -- PAID, DUPLICATE or REJECTED.
    outcome     TEXT NOT NULL,

    -- Processor transaction id on PAID, rejection reason otherwise.
    detail      TEXT NOT NULL DEFAULT '',

    -- W3C trace/span ids from the active OTel span, '' when absent.
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payment_log_order_id ON payment_log(order_id, created_at);
CREATE INDEX IF NOT EXISTS idx_payment_log_trace_id ON payment_log(trace_id);
`

// Repository is the SQLite implementation of paymentlog.Recorder.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*Repository, error) {
	// The pure-Go driver configures connection state via _pragma parameters.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Record inserts a new payment log entry. Safe for concurrent use.
func (r *Repository) Record(ctx context.Context, entry *paymentlog.Entry) error {
	const q = `
		INSERT INTO payment_log
			(order_id, source, outcome, detail, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		string(entry.Source),
		string(entry.Outcome),
		entry.Detail,
		entry.TraceID,
		entry.SpanID,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record payment log for %q: %w", entry.OrderID, err)
	}
	return nil
}

// History returns the attempts recorded for an order, oldest first.
func (r *Repository) History(ctx context.Context, orderID string) ([]paymentlog.Entry, error) {
	const q = `
		SELECT order_id, source, outcome, detail, trace_id, span_id, created_at
		FROM   payment_log
		WHERE  order_id = ?
		ORDER  BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []paymentlog.Entry
	for rows.Next() {
		var e paymentlog.Entry
		var createdAt string
		if err := rows.Scan(&e.OrderID, &e.Source, &e.Outcome, &e.Detail, &e.TraceID, &e.SpanID, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan payment log row: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse time %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
