package collab

import (
	"log/slog"

	"github.com/refboard/refboard/internal/engine"
)

var presenceColors = []string{"#e5484d", "#30a46c", "#f5d90a", "#8e4ec6", "#12a594", "#f76b15"}

// PresenceManager tracks the peers of one board. It is owned by the hub
// goroutine and needs no locking.
type PresenceManager struct {
	presences map[string]*PresencePayload // clientID -> presence
	joined    int
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Join registers a client and assigns it a cursor color.
func (pm *PresenceManager) Join(clientID, name string) *PresencePayload {
	p := &PresencePayload{
		Name:  name,
		Color: presenceColors[pm.joined%len(presenceColors)],
	}
	pm.joined++
	pm.presences[clientID] = p
	return p
}

// MoveCursor records the client's pointer in scene coordinates.
func (pm *PresenceManager) MoveCursor(clientID string, scenePos engine.Point) (*PresencePayload, bool) {
	p, ok := pm.presences[clientID]
	if !ok {
		return nil, false
	}
	p.Cursor = &scenePos
	return p, true
}

func (pm *PresenceManager) Remove(clientID string) {
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) Len() int { return len(pm.presences) }

func (pm *PresenceManager) StateMessage() *Message {
	all := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		cp := *v
		all[k] = &cp
	}
	msg := newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
	if msg.Payload == nil {
		slog.Error("marshal presence state")
		return nil
	}
	return msg
}
