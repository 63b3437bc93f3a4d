package port

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Filter restricts a subscription to rows whose named column equals Value.
// Values are compared as their JSON scalar text (numbers included), so
// Filter{Column: "conversation_id", Value: "42"} matches a row carrying
// either 42 or "42".
type Filter struct {
	Column string
	Value  string
}

// Matches reports whether the raw JSON row satisfies the filter. A nil
// filter matches everything. Rows that fail to decode never match.
func (f *Filter) Matches(row []byte) bool {
	if f == nil {
		return true
	}
	dec := json.NewDecoder(bytes.NewReader(row))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return false
	}
	v, ok := fields[f.Column]
	if !ok {
		return false
	}
	return fmt.Sprintf("%v", v) == f.Value
}

// Subscription is a live channel of inserted rows. Events is closed after
// Close is called (or the feed shuts down); Close is idempotent and must be
// called on every exit path of the consuming component so a switched-away
// view never keeps receiving rows it no longer reads.
type Subscription interface {
	Events() <-chan json.RawMessage
	Close()
}

// Feed delivers row-insert notifications per table. It abstracts the
// realtime change feed of the hosted backend: producers publish the inserted
// row after a successful write, consumers subscribe with an optional column
// filter. Delivery is at-least-once and may lag the write; consumers that
// combine a bulk load with a subscription must de-duplicate.
type Feed interface {
	// SubscribeInserts opens a subscription for inserts on table. filter may
	// be nil to receive every insert on the table.
	SubscribeInserts(ctx context.Context, table string, filter *Filter) (Subscription, error)

	// PublishInsert marshals row and delivers it to current subscribers of
	// the table.
	PublishInsert(ctx context.Context, table string, row any) error

	// Close shuts the feed down and closes all open subscriptions.
	Close() error
}
