package relay

import (
	"encoding/json"

	"github.com/peermesh/peersignal/internal/metrics"
)

// broadcastLocked serializes v once and fans it out to every member of the
// room, skipping exclude when non-nil. A member whose transport refuses the
// enqueue (closing, closed, backlogged) is silently skipped: fire and
// forget, never queued, never retried.
func (r *Relay) broadcastLocked(roomID string, v any, exclude Conn) {
	members := r.rooms.members(roomID)
	if len(members) == 0 {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		// Server-built message types always marshal; treat a failure as a bug
		// worth logging, not a reason to tear anything down.
		r.log.Error("failed to encode broadcast", "err", err)
		return
	}

	for conn := range members {
		if conn == exclude {
			continue
		}
		if !conn.Send(payload) {
			r.metrics.Inc(metrics.SendDropped)
		}
	}
}

// sendRosterLocked recomputes the room's roster and broadcasts it to the
// whole room, newcomer included.
func (r *Relay) sendRosterLocked(roomID string) {
	if len(r.rooms.members(roomID)) == 0 {
		return
	}
	r.broadcastLocked(roomID, userListMessage{
		Type:  messageTypeUserList,
		Users: r.rooms.roster(roomID),
	}, nil)
}

// sendLocked delivers a single message to one connection, best effort.
func (r *Relay) sendLocked(conn Conn, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error("failed to encode message", "err", err)
		return
	}
	if !conn.Send(payload) {
		r.metrics.Inc(metrics.SendDropped)
	}
}
