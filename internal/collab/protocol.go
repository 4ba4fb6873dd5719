package collab

import (
	"encoding/json"

	"github.com/refboard/refboard/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Raw input, applied by the board's controller in delivery order
	TypePointerDown = "input.pointerDown"
	TypePointerMove = "input.pointerMove"
	TypePointerUp   = "input.pointerUp"
	TypeWheel       = "input.wheel"
	TypeKey         = "input.key"
	TypeDrop        = "input.drop"
	TypePaste       = "input.paste"

	// Board commands
	TypeAddImage  = "board.addImage"
	TypeDelete    = "board.delete"
	TypeClear     = "board.clear"
	TypeSave      = "board.save"
	TypeLoad      = "board.load"
	TypeSelectAll = "board.selectAll"
	TypeResize    = "view.resize"

	// Server state
	TypeRender = "board.render"
)

type WelcomePayload struct {
	ClientID string       `json:"clientId"`
	BoardID  string       `json:"boardId"`
	State    engine.State `json:"state"`
}

// RenderPayload is broadcast after every state change. Commands are in
// screen space of the board's shared viewport.
type RenderPayload struct {
	State    engine.State         `json:"state"`
	Commands []engine.DrawCommand `json:"commands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"` // type of the message that failed
}

type AddImagePayload struct {
	Data  []byte  `json:"data"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale,omitempty"`
}

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PastePayload holds encoded images. Paths and text are not accepted from
// remote clients.
type PastePayload struct {
	Data [][]byte `json:"data"`
}

type DropPayload struct {
	Pos  engine.Point `json:"pos"`
	Data [][]byte     `json:"data"`
}

type PresencePayload struct {
	Name   string        `json:"name,omitempty"`
	Color  string        `json:"color,omitempty"`
	Cursor *engine.Point `json:"cursor,omitempty"` // scene coordinates
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

func newMessage(typ string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: typ, Payload: data}
}
