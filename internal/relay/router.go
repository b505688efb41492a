package relay

import (
	"github.com/google/uuid"

	"github.com/peermesh/peersignal/internal/metrics"
)

// HandleMessage decodes and dispatches one inbound message from conn.
//
// The caller must invoke it from a single goroutine per connection so a
// connection's messages are processed in arrival order, one at a time. No
// ordering holds across connections.
//
// Failures never propagate to the sender: malformed payloads, unknown
// types, and state-machine violations are counted, logged, and dropped
// while the connection stays open. The relay prefers staying alive for
// every other connection over reporting problems to a misbehaving one.
func (r *Relay) HandleMessage(conn Conn, data []byte) {
	msg, err := parseClientMessage(data)
	if err != nil {
		r.metrics.Inc(metrics.BadMessage)
		r.log.Debug("discarding malformed message", "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.registry.lookup(conn)
	if s == nil {
		// Already removed (e.g. a message raced a transport close). Treat as
		// absence, not an error.
		return
	}

	switch msg.Type {
	case messageTypeJoin:
		r.handleJoinLocked(conn, s, msg)
	case messageTypeSignal:
		r.handleSignalLocked(conn, s, msg)
	case messageTypeLeave:
		r.cleanupLocked(conn, true)
	default:
		// Permissive by design: an unknown future message type must not break
		// the relay, so it is recorded and otherwise ignored.
		r.metrics.Inc(metrics.ProtocolViolation)
		r.log.Warn("ignoring message with unrecognized type", "type", string(msg.Type), "state", s.state.String())
	}
}

func (r *Relay) handleJoinLocked(conn Conn, s *Session, msg clientMessage) {
	if s.state != stateUnidentified {
		r.metrics.Inc(metrics.ProtocolViolation)
		r.log.Warn("ignoring join from already-joined connection",
			"user_id", s.UserID,
			"room_id", s.RoomID,
			"requested_room_id", msg.RoomID,
		)
		return
	}

	if r.maxPeersPerRoom > 0 && len(r.rooms.members(msg.RoomID)) >= r.maxPeersPerRoom {
		r.metrics.Inc(metrics.RoomFull)
		r.log.Warn("ignoring join into full room", "room_id", msg.RoomID, "max_peers_per_room", r.maxPeersPerRoom)
		return
	}

	userID := uuid.NewString()

	// Snapshot the roster before adding the newcomer: the room-joined reply
	// carries the pre-existing members only.
	existing := r.rooms.roster(msg.RoomID)

	s = r.registry.bind(conn, userID, msg.Username, msg.RoomID)
	r.rooms.join(msg.RoomID, conn, s)

	r.metrics.Inc(metrics.SessionsJoined)
	r.log.Info("peer joined room",
		"user_id", userID,
		"username", msg.Username,
		"room_id", msg.RoomID,
		"room_size", len(r.rooms.members(msg.RoomID)),
	)

	r.sendLocked(conn, roomJoinedMessage{
		Type:   messageTypeRoomJoined,
		RoomID: msg.RoomID,
		UserID: userID,
		Users:  existing,
	})
	r.broadcastLocked(msg.RoomID, userJoinedMessage{
		Type:     messageTypeUserJoined,
		UserID:   userID,
		Username: msg.Username,
	}, conn)
	r.sendRosterLocked(msg.RoomID)
}

func (r *Relay) handleSignalLocked(conn Conn, s *Session, msg clientMessage) {
	if s.state != stateJoined {
		r.metrics.Inc(metrics.ProtocolViolation)
		r.log.Warn("ignoring signal from unidentified connection", "target_id", msg.TargetID)
		return
	}

	// Targets resolve within the sender's room only; anything else is
	// indistinguishable from a peer that already left and is dropped without
	// a reply (at-most-once delivery).
	target, _ := r.rooms.find(s.RoomID, msg.TargetID)
	if target == nil {
		r.metrics.Inc(metrics.UnknownSignalTarget)
		r.log.Debug("dropping signal for unknown target",
			"from_id", s.UserID,
			"target_id", msg.TargetID,
			"room_id", s.RoomID,
		)
		return
	}

	r.metrics.Inc(metrics.SignalsRelayed)
	r.sendLocked(target, signalMessage{
		Type:   messageTypeSignal,
		FromID: s.UserID,
		Signal: msg.Signal,
	})
}
