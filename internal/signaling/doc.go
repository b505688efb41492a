// Package signaling is the WebSocket transport surface in front of the
// relay core.
//
// It owns everything socket-shaped: the upgrade handshake, origin checks,
// read limits, keepalive, per-connection rate limiting, and the buffered
// outbound writer. Protocol semantics live in the relay package; this
// package only moves frames.
package signaling
