package relay

// sessionState is the per-connection protocol state. Making it explicit
// (rather than inferring it from a non-empty roomId) keeps handlers honest:
// every operation checks the state it requires before touching the
// registries.
type sessionState int

const (
	// stateUnidentified: registered, no identity, no room. The only
	// acceptable operation is join.
	stateUnidentified sessionState = iota

	// stateJoined: bound to a userId/username and a room.
	stateJoined
)

func (s sessionState) String() string {
	switch s {
	case stateUnidentified:
		return "unidentified"
	case stateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// Session binds a live connection to its identity and room. Exactly one
// Session exists per registered connection; it is created unidentified at
// register time, bound once by join, and destroyed by leave or close. A
// bound roomID is never reassigned (leave+rejoin allocates a fresh session
// and a fresh userId).
type Session struct {
	UserID   string
	Username string
	RoomID   string

	state sessionState
}

func (s *Session) user() User {
	return User{UserID: s.UserID, Username: s.Username}
}
