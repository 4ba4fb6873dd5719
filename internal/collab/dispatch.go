package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/refboard/refboard/internal/engine"
)

var errUnknownType = errors.New("unknown message type")

// handleMessage applies one client message to its board and broadcasts the
// resulting state. Runs on the hub goroutine.
func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.BoardID]
	if !ok {
		return
	}
	if _, ok := room.clients[sender.ClientID]; !ok {
		return
	}

	changed, err := h.apply(room, sender, msg)
	if err != nil {
		slog.Warn("board message failed", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: err.Error(), Ref: msg.Type}))
	}
	if changed {
		h.broadcastRender(room)
	}
}

func decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	return nil
}

// apply reports whether the render state may have changed. A partially
// successful ingest both changes the board and returns an error. Input goes
// to the sender's own controller so one client's hover or press never ends
// another client's gesture.
func (h *Hub) apply(room *Room, sender *Client, msg *Message) (bool, error) {
	eng := room.engine
	ctrl, ok := room.controllers[sender.ClientID]
	if !ok {
		return false, fmt.Errorf("client %s has no controller", sender.ClientID)
	}

	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var ev engine.PointerEvent
		if err := decode(msg, &ev); err != nil {
			return false, err
		}
		switch msg.Type {
		case TypePointerDown:
			ctrl.PointerDown(ev)
		case TypePointerMove:
			ctrl.PointerMove(ev)
			h.updateCursor(room, sender, ev.Pos)
		case TypePointerUp:
			ctrl.PointerUp(ev)
		}
		return true, nil

	case TypeWheel:
		var ev engine.WheelEvent
		if err := decode(msg, &ev); err != nil {
			return false, err
		}
		ctrl.Wheel(ev)
		return true, nil

	case TypeKey:
		var ev engine.KeyEvent
		if err := decode(msg, &ev); err != nil {
			return false, err
		}
		ctrl.Key(ev)
		return true, nil

	case TypeDrop:
		var p DropPayload
		if err := decode(msg, &p); err != nil {
			return false, err
		}
		handles, err := ctrl.Drop(context.Background(), engine.DropEvent{
			Pos:     p.Pos,
			Payload: engine.Payload{Data: p.Data},
		})
		return len(handles) > 0, err

	case TypePaste:
		var p PastePayload
		if err := decode(msg, &p); err != nil {
			return false, err
		}
		handles, err := ctrl.Paste(context.Background(), engine.Payload{Data: p.Data})
		return len(handles) > 0, err

	case TypeAddImage:
		var p AddImagePayload
		if err := decode(msg, &p); err != nil {
			return false, err
		}
		if p.Scale == 0 {
			p.Scale = 1
		}
		_, err := eng.AddImageFromBytes(p.Data, p.X, p.Y, p.Scale)
		return err == nil, err

	case TypeDelete:
		return ctrl.DeleteSelection() > 0, nil

	case TypeClear:
		room.resetGestures()
		eng.ClearBoard()
		return true, nil

	case TypeSelectAll:
		eng.SelectAll()
		return true, nil

	case TypeSave:
		return true, h.saveRoom(room, true)

	case TypeLoad:
		if err := eng.LoadBoardFrom(room.path); err != nil {
			return false, err
		}
		room.resetGestures()
		return true, nil

	case TypeResize:
		var p ResizePayload
		if err := decode(msg, &p); err != nil {
			return false, err
		}
		if !(p.Width > 0 && p.Height > 0) {
			return false, fmt.Errorf("invalid viewport size %vx%v", p.Width, p.Height)
		}
		eng.Viewport().Resize(p.Width, p.Height)
		return true, nil

	default:
		return false, fmt.Errorf("%w: %s", errUnknownType, msg.Type)
	}
}

func (h *Hub) updateCursor(room *Room, sender *Client, screen engine.Point) {
	scenePos := room.engine.Viewport().ScreenToScene(screen)
	p, ok := room.presence.MoveCursor(sender.ClientID, scenePos)
	if !ok {
		return
	}
	out := newMessage(TypePresenceUpdate, p)
	out.ClientID = sender.ClientID
	h.broadcastToRoom(room, out, sender.ClientID)
}
