package relay

import (
	"encoding/json"
	"fmt"
)

type messageType string

// Client -> server message types.
const (
	messageTypeJoin   messageType = "join"
	messageTypeSignal messageType = "signal"
	messageTypeLeave  messageType = "leave"
)

// Server -> client message types.
const (
	messageTypeRoomJoined messageType = "room-joined"
	messageTypeUserJoined messageType = "user-joined"
	messageTypeUserList   messageType = "user-list"
	messageTypeUserLeft   messageType = "user-left"
)

// User is one roster entry. userId is server-generated and unique per live
// session; username is client-supplied and carries no uniqueness guarantee.
type User struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// clientMessage is the envelope for everything a client sends. A single
// top-level `type` field dispatches all handling; fields not used by the
// given type are ignored. Unknown fields are tolerated so future client
// revisions do not break the relay.
type clientMessage struct {
	Type messageType `json:"type"`

	// join
	Username string `json:"username,omitempty"`
	RoomID   string `json:"roomId,omitempty"`

	// signal
	TargetID string          `json:"targetId,omitempty"`
	Signal   json.RawMessage `json:"signal,omitempty"`
}

func parseClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return clientMessage{}, err
	}
	if msg.Type == "" {
		return clientMessage{}, fmt.Errorf("message missing type")
	}
	switch msg.Type {
	case messageTypeJoin:
		if msg.Username == "" {
			return clientMessage{}, fmt.Errorf("join message missing username")
		}
		if msg.RoomID == "" {
			return clientMessage{}, fmt.Errorf("join message missing roomId")
		}
	case messageTypeSignal:
		if msg.TargetID == "" {
			return clientMessage{}, fmt.Errorf("signal message missing targetId")
		}
	}
	return msg, nil
}

type roomJoinedMessage struct {
	Type   messageType `json:"type"`
	RoomID string      `json:"roomId"`
	UserID string      `json:"userId"`
	Users  []User      `json:"users"`
}

type userJoinedMessage struct {
	Type     messageType `json:"type"`
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
}

type userListMessage struct {
	Type  messageType `json:"type"`
	Users []User      `json:"users"`
}

type userLeftMessage struct {
	Type     messageType `json:"type"`
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
}

type signalMessage struct {
	Type   messageType     `json:"type"`
	FromID string          `json:"fromId"`
	Signal json.RawMessage `json:"signal"`
}
