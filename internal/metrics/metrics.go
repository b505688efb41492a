package metrics

import "sync"

// Event counter names. The relay's error policy is to stay silent on the
// wire (§ drop, never reply), so these counters are the only place dropped
// traffic becomes observable.
const (
	BadMessage          = "bad_message"
	ProtocolViolation   = "protocol_violation"
	UnknownSignalTarget = "unknown_signal_target"
	RateLimited         = "rate_limited"
	TooManySessions     = "too_many_sessions"
	RoomFull            = "room_full"
	SendDropped         = "send_dropped"

	SessionsJoined = "sessions_joined"
	SessionsLeft   = "sessions_left"
	SignalsRelayed = "signals_relayed"
)

// Metrics is a minimal, concurrency-safe counter registry.
//
// A production deployment is expected to scrape it via PrometheusHandler;
// the map-based registry keeps routing and broadcast logic testable without
// a metrics backend.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

func (m *Metrics) Add(name string, delta uint64) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters at a point in time.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
