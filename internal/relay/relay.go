package relay

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/peermesh/peersignal/internal/metrics"
)

// ErrTooManySessions is returned by Register when the configured session
// quota is exhausted.
var ErrTooManySessions = errors.New("too many sessions")

// Config wires the runtime dependencies and quotas for a Relay.
type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// MaxSessions bounds the number of registered connections. <= 0 means
	// unlimited.
	MaxSessions int

	// MaxPeersPerRoom bounds a single room's membership. <= 0 means
	// unlimited. An over-capacity join is dropped like any other protocol
	// violation; no error reaches the client.
	MaxPeersPerRoom int
}

// Relay is the signaling core: the connection/session registry, the room
// directory, the message router, and the broadcast engine, owned by one
// service instance.
//
// All registry and directory mutations happen under a single mutex. Nothing
// the relay does while holding it can block (sends are non-blocking
// enqueues per Conn), so the coarse lock keeps joins, leaves, and roster
// computation atomic without becoming a bottleneck.
type Relay struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	maxSessions     int
	maxPeersPerRoom int

	mu       sync.Mutex
	registry *registry
	rooms    *roomDirectory
}

func New(cfg Config) *Relay {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Relay{
		log:             log,
		metrics:         m,
		maxSessions:     cfg.MaxSessions,
		maxPeersPerRoom: cfg.MaxPeersPerRoom,
		registry:        newRegistry(),
		rooms:           newRoomDirectory(),
	}
}

// Metrics returns the relay's counter registry.
func (r *Relay) Metrics() *metrics.Metrics { return r.metrics }

// Register adds a newly accepted connection as unidentified (no identity,
// no room). It fails only when the session quota is exhausted; the caller
// owns closing the transport in that case.
func (r *Relay) Register(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && r.registry.len() >= r.maxSessions {
		if r.registry.lookup(conn) == nil {
			r.metrics.Inc(metrics.TooManySessions)
			return ErrTooManySessions
		}
	}
	r.registry.register(conn)
	return nil
}

// Disconnect runs the leave cleanup for a connection whose transport closed
// or errored. It is idempotent: close after error, close after explicit
// leave, and duplicate closes all collapse into at most one cleanup.
func (r *Relay) Disconnect(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupLocked(conn, false)
}

// ActiveSessions returns the number of registered connections, identified
// or not.
func (r *Relay) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.len()
}

// ActiveRooms returns the number of rooms with at least one member.
func (r *Relay) ActiveRooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms.len()
}

// AtCapacity reports whether a new Register would currently be refused.
// The transport layer uses it to reject upgrades early; Register remains
// the authoritative check.
func (r *Relay) AtCapacity() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxSessions > 0 && r.registry.len() >= r.maxSessions
}

// cleanupLocked destroys conn's session and repairs room membership and
// rosters. With rejoinable set (explicit leave), the connection stays
// registered as a fresh unidentified session so the client may join again;
// otherwise (transport close) the connection is forgotten entirely.
//
// A connection with no session makes every step a no-op, which is what
// keeps duplicate close/error events harmless.
func (r *Relay) cleanupLocked(conn Conn, rejoinable bool) {
	s := r.registry.remove(conn)
	if rejoinable {
		r.registry.register(conn)
	}
	if s == nil || s.state != stateJoined {
		return
	}

	r.rooms.leave(s.RoomID, conn)
	r.metrics.Inc(metrics.SessionsLeft)
	r.log.Info("peer left room",
		"user_id", s.UserID,
		"username", s.Username,
		"room_id", s.RoomID,
		"room_size", len(r.rooms.members(s.RoomID)),
	)

	// Remaining members learn about the departure, then get the refreshed
	// roster. An emptied room was already deleted by leave, so both fan-outs
	// are naturally skipped.
	r.broadcastLocked(s.RoomID, userLeftMessage{
		Type:     messageTypeUserLeft,
		UserID:   s.UserID,
		Username: s.Username,
	}, nil)
	r.sendRosterLocked(s.RoomID)
}
