package relay

// registry holds the set of live connections and each connection's session.
// It is not safe for concurrent use on its own: the owning Relay serializes
// all access under its mutex.
type registry struct {
	sessions map[Conn]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[Conn]*Session)}
}

// register adds conn with a fresh unidentified session. Registering an
// already-registered connection returns the existing session unchanged.
func (r *registry) register(conn Conn) *Session {
	if s, ok := r.sessions[conn]; ok {
		return s
	}
	s := &Session{state: stateUnidentified}
	r.sessions[conn] = s
	return s
}

// bind assigns identity and room to conn's session, moving it to joined.
func (r *registry) bind(conn Conn, userID, username, roomID string) *Session {
	s := r.register(conn)
	s.UserID = userID
	s.Username = username
	s.RoomID = roomID
	s.state = stateJoined
	return s
}

// lookup returns conn's session, or nil for an unregistered (or already
// removed) connection. Callers treat nil as a no-op, never an error, so
// duplicate close/error events stay idempotent.
func (r *registry) lookup(conn Conn) *Session {
	return r.sessions[conn]
}

// remove deletes conn and returns its former session, or nil if absent.
func (r *registry) remove(conn Conn) *Session {
	s, ok := r.sessions[conn]
	if !ok {
		return nil
	}
	delete(r.sessions, conn)
	return s
}

func (r *registry) len() int {
	return len(r.sessions)
}
