package relay

// Conn is the relay's non-owning handle to a client's bidirectional
// transport connection. The transport layer owns the socket; the relay only
// keys its registries by the handle and enqueues outbound messages on it.
type Conn interface {
	// Send enqueues one serialized message for best-effort delivery and
	// reports whether it was accepted. It must never block: a transport that
	// is closing, closed, or backlogged reports false and the message is
	// dropped. The relay treats a failed send the same as an absent member.
	Send(msg []byte) bool
}
