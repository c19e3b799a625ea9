// Package relayer watches the chain for rebalance-related events and
// dispatches them to handlers, with a resumable cursor, exponential
// backoff reconnects, a bounded dedup window, and periodic health
// logging (C9).
package relayer

import "time"

// Event is a single on-chain event the relayer has decoded.
type Event struct {
	Type      string
	TxDigest  string
	EventSeq  int64
	Timestamp time.Time
	Payload   map[string]any
}

// Cursor is the resumable position in one event type's chain event
// stream, persisted to disk between relayer runs.
type Cursor struct {
	LastTxDigest string    `json:"last_tx_digest"`
	LastEventSeq int64     `json:"last_event_seq"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cursors is the persisted position of every configured event type,
// keyed by event type name. Each event type advances independently:
// processing an event for one type never moves another type's cursor.
type Cursors map[string]Cursor

// key uniquely identifies an event for dedup purposes.
type key struct {
	TxDigest string
	EventSeq int64
}

// Handler processes one decoded event. Returning an error does not
// stop the relayer; it is logged and counted.
type Handler func(ctx Event) error
