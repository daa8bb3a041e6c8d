// Package realtime routes pushes to live websocket connections.
//
// A Hub keeps the membership of user id to connections. Delivery is
// at-most-once: a message for a user without connections, or for a
// connection whose outbound buffer is full, is dropped and never retried.
// Clients recover missed state through the pull endpoints.
package realtime
