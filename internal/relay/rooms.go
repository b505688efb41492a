package relay

// roomDirectory maps roomId to the room's member set. A room exists in the
// directory if and only if it has at least one member: it is created lazily
// by the first join and deleted atomically with the departure of the last
// member. Like registry, it is serialized by the owning Relay's mutex.
type roomDirectory struct {
	rooms map[string]map[Conn]*Session
}

func newRoomDirectory() *roomDirectory {
	return &roomDirectory{rooms: make(map[string]map[Conn]*Session)}
}

// join adds conn to the room's member set, creating the room if absent.
func (d *roomDirectory) join(roomID string, conn Conn, s *Session) {
	members, ok := d.rooms[roomID]
	if !ok {
		members = make(map[Conn]*Session)
		d.rooms[roomID] = members
	}
	members[conn] = s
}

// leave removes conn from the room, deleting the room entry when the member
// set becomes empty. Leaving an absent room or a room conn is not in is a
// no-op.
func (d *roomDirectory) leave(roomID string, conn Conn) {
	members, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(d.rooms, roomID)
	}
}

// members returns the room's member set; an absent room yields an empty
// set, never an error. Iteration order is undefined: roster consumers must
// not rely on it.
func (d *roomDirectory) members(roomID string) map[Conn]*Session {
	return d.rooms[roomID]
}

// find resolves userID to a live connection within roomID only. The scan is
// scoped to the target room so a (improbably) globally duplicated userId
// can never match across rooms.
func (d *roomDirectory) find(roomID, userID string) (Conn, *Session) {
	for conn, s := range d.rooms[roomID] {
		if s.UserID == userID {
			return conn, s
		}
	}
	return nil, nil
}

// roster computes the {userId, username} list for the room's current
// members. The slice is freshly allocated and safe to retain; order is
// undefined.
func (d *roomDirectory) roster(roomID string) []User {
	members := d.rooms[roomID]
	users := make([]User, 0, len(members))
	for _, s := range members {
		users = append(users, s.user())
	}
	return users
}

func (d *roomDirectory) len() int {
	return len(d.rooms)
}
