// Package fanout turns activity events into per-recipient notifications.
//
// Ingest validates an event, applies its side state (like counters),
// pushes content changes, resolves the recipient set, writes one
// notification per recipient keyed by (event_id, recipient_id) and pushes
// every newly written row to the recipient's live connections.
package fanout
