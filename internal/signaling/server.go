package signaling

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peermesh/peersignal/internal/ratelimit"
	"github.com/peermesh/peersignal/internal/relay"
)

const (
	wsWriteWait = 1 * time.Second

	// outboundQueueSize bounds the per-connection send backlog. A client that
	// cannot drain signaling traffic this far behind is treated as absent and
	// its messages are dropped (best-effort delivery, no queuing beyond this).
	outboundQueueSize = 64
)

// Config wires together the runtime dependencies for the signaling surface.
type Config struct {
	Relay  *relay.Relay
	Logger *slog.Logger

	// AllowedOrigins lists acceptable Origin header values for the upgrade.
	// Empty allows any origin (dev posture, warned about at startup); "*"
	// allows any origin explicitly.
	AllowedOrigins []string

	// MaxMessageBytes caps a single inbound WebSocket message.
	MaxMessageBytes int64

	// MaxMessagesPerSecond caps inbound signaling messages per connection.
	MaxMessagesPerSecond int

	// IdleTimeout closes connections with no inbound traffic (pongs count).
	IdleTimeout time.Duration

	// PingInterval is how often the server pings an otherwise idle peer.
	PingInterval time.Duration
}

// Server terminates WebSocket connections on GET /ws and pumps frames
// between each socket and the relay core.
type Server struct {
	relay *relay.Relay
	log   *slog.Logger

	maxMessageBytes      int64
	maxMessagesPerSecond int
	idleTimeout          time.Duration
	pingInterval         time.Duration

	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*wsConn]struct{}
	closed bool
}

func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		relay:                cfg.Relay,
		log:                  log,
		maxMessageBytes:      cfg.MaxMessageBytes,
		maxMessagesPerSecond: cfg.MaxMessagesPerSecond,
		idleTimeout:          cfg.IdleTimeout,
		pingInterval:         cfg.PingInterval,
		conns:                make(map[*wsConn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: originChecker(cfg.AllowedOrigins),
	}
	return s
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
}

// Handler provides minimal routing for tests and simple deployments.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// Refuse early while the quota is exhausted; Register below remains the
	// authoritative check under the relay's lock.
	if s.relay.AtCapacity() {
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error (e.g. origin rejected).
		return
	}

	c := &wsConn{
		srv:  s,
		ws:   ws,
		log:  s.log.With("remote_addr", ws.RemoteAddr().String()),
		out:  make(chan []byte, outboundQueueSize),
		done: make(chan struct{}),
	}
	if s.maxMessagesPerSecond > 0 {
		c.limiter = ratelimit.NewTokenBucket(
			ratelimit.RealClock{},
			int64(s.maxMessagesPerSecond),
			int64(s.maxMessagesPerSecond),
		)
	}

	if err := s.relay.Register(c); err != nil {
		if errors.Is(err, relay.ErrTooManySessions) {
			c.closeWith(websocket.CloseTryAgainLater, "too many sessions")
		}
		_ = ws.Close()
		return
	}

	if !s.track(c) {
		s.relay.Disconnect(c)
		_ = ws.Close()
		return
	}

	c.run()
}

func (s *Server) track(c *wsConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	if s.conns != nil {
		delete(s.conns, c)
	}
	s.mu.Unlock()
}

// Close tears down every live connection. Used on shutdown after the HTTP
// listener stops accepting upgrades.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = nil
	s.closed = true
	s.mu.Unlock()

	for _, c := range conns {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
		c.close()
	}
}

func (s *Server) incMetric(name string) {
	if s.relay == nil {
		return
	}
	if m := s.relay.Metrics(); m != nil {
		m.Inc(name)
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin; the header only defends
			// against cross-site browser use.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
