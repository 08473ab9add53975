package models

import "encoding/json"

// Board event kinds.
const (
	MessageTypeJoinRoom  = "join_room"
	MessageTypeLeaveRoom = "leave_room"
	MessageTypeChat      = "chat"
	MessageTypeErase     = "erase"
)

// Inbound is a frame sent by a client. Message carries a new shape for chat,
// Shape carries the shape being removed for erase.
type Inbound struct {
	Type    string `json:"type"`
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
	Shape   string `json:"shape"`
}

func (in Inbound) MarshalJSON() ([]byte, error) {
	return marshalFrame(in.Type, in.RoomID, in.Message, in.Shape)
}

// Outbound is a frame fanned out to room members.
type Outbound struct {
	Type    string `json:"type"`
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
	Shape   string `json:"shape"`
}

func (o Outbound) MarshalJSON() ([]byte, error) {
	return marshalFrame(o.Type, o.RoomID, o.Message, o.Shape)
}

type membershipFrame struct {
	Type   string `json:"type"`
	RoomID int64  `json:"roomId"`
}

type chatFrame struct {
	Type    string `json:"type"`
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

type eraseFrame struct {
	Type   string `json:"type"`
	RoomID int64  `json:"roomId"`
	Shape  string `json:"shape"`
}

// marshalFrame writes exactly the fields of the event kind: chat always
// carries message and erase always carries shape, even when empty.
func marshalFrame(kind string, roomID int64, message, shape string) ([]byte, error) {
	switch kind {
	case MessageTypeChat:
		return json.Marshal(chatFrame{Type: kind, RoomID: roomID, Message: message})
	case MessageTypeErase:
		return json.Marshal(eraseFrame{Type: kind, RoomID: roomID, Shape: shape})
	}
	return json.Marshal(membershipFrame{Type: kind, RoomID: roomID})
}
