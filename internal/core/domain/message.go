package domain

import "encoding/json"

// Envelope is a client-initiated call on the framed RPC transport. Every
// envelope carries a client-chosen Seq that the matching Ack echoes back.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Token   string          `json:"token,omitempty"`
	Version string          `json:"version,omitempty"`
	Role    string          `json:"role,omitempty"`
	To      string          `json:"to,omitempty"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope types accepted from clients.
const (
	TypeAuthentication   = "authentication"
	TypeMessage          = "message"
	TypeRoomJoin         = "room-join"
	TypeRoomLeave        = "room-leave"
	TypeConversationStop = "conversation-stop"
	TypeConversationDeny = "conversation-deny"
	TypeInstanceBind     = "instance-bind"
	TypeInstanceRelease  = "instance-release"
)

// RoleInstance marks an authenticating connection as a pooled backend worker.
const RoleInstance = "instance"

// Ack answers exactly one Envelope. Error is empty on success.
type Ack struct {
	Type     string `json:"type"`
	Seq      uint64 `json:"seq"`
	Error    Code   `json:"error,omitempty"`
	Code     int    `json:"code,omitempty"`
	Identity string `json:"identity,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Notice is a server-initiated notification. No ack is awaited.
type Notice struct {
	Type     string          `json:"type"`
	Identity string          `json:"identity,omitempty"`
	From     string          `json:"from,omitempty"`
	Peer     string          `json:"peer,omitempty"`
	Role     string          `json:"role,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	Code     int             `json:"code,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Server-initiated notification types.
const (
	NoticeAuthenticated = "server-authenticated"
	NoticeDisconnect    = "server-disconnect"
	NoticeMessage       = "message"
	NoticePeerWaiting   = "peer-waiting"
	NoticePeerPaired    = "peer-paired"
	NoticePeerStopped   = "peer-stopped"
	NoticeError         = "error"
)

// Pairing roles. Assignment is positional: the first occupant of a room
// answers, the second offers.
const (
	RoleAnswerer = "answerer"
	RoleOfferer  = "offerer"
)
