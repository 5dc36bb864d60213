// Package ws implements the WebSocket push channel (spec.md §5's "WebSocket server" external
// collaborator): touchscreen clients open one connection each and receive UI/machine-state
// updates as they happen, instead of polling the REST surface. Grounded on the teacher's
// internal/infrastructure/websocket notifier (connection registry keyed by client id, broadcast
// on write failure removes the dead connection) adapted from per-customer addressing to
// per-display broadcast, since every connected kiosk display wants the same state.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/planogram"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// broadcast is the set of bus events pushed to every connected client.
var broadcast = []event.Type{
	event.TypeUIModelUpdated,
	event.TypeMachineStateChanged,
	event.TypeBrandInfoUpdated,
}

type pushMessage struct {
	Type event.Type `json:"type"`
	Data any        `json:"data"`
}

// Notifier manages WebSocket connections from kiosk displays and pushes UI-relevant events as
// they're posted on the bus.
type Notifier struct {
	mu          sync.RWMutex
	connections map[int]*websocket.Conn // display id -> connection
	log         logger.Logger
	sync        *planogram.Synchronizer
	upgrader    websocket.Upgrader
}

// New builds a Notifier. Subscribe must be called once the bus is constructed.
func New(log logger.Logger, sync *planogram.Synchronizer) *Notifier {
	return &Notifier{
		connections: make(map[int]*websocket.Conn),
		log:         log.Named("ws"),
		sync:        sync,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe wires the notifier to the bus's broadcast-worthy event types.
func (n *Notifier) Subscribe(bus *eventbus.Bus) {
	for _, t := range broadcast {
		evType := t
		bus.Subscribe(evType, func(ev event.Event) {
			n.broadcastEvent(evType, n.payloadFor(evType, ev))
		})
	}
}

// payloadFor resolves the body to push alongside evType. UI_MODEL_UPDATED and
// BRAND_INFO_UPDATED carry no bus body (the source rereads the current doc on demand), so the
// notifier pulls the current snapshot from the synchronizer at push time.
func (n *Notifier) payloadFor(evType event.Type, ev event.Event) any {
	switch evType {
	case event.TypeUIModelUpdated:
		return n.sync.CurrentUIModel()
	case event.TypeBrandInfoUpdated:
		return n.sync.CurrentBrandInfo()
	default:
		return ev.Body
	}
}

// HandleUpgrade upgrades an HTTP connection for the given display id, replacing any prior
// connection for that display, and blocks (in a background goroutine) reading frames until the
// client disconnects.
func (n *Notifier) HandleUpgrade(displayID int, w http.ResponseWriter, r *http.Request) error {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	n.mu.Lock()
	if old, ok := n.connections[displayID]; ok {
		_ = old.Close()
	}
	n.connections[displayID] = conn
	n.mu.Unlock()

	n.log.Info("websocket connection registered", "display_id", displayID)
	go n.readLoop(displayID, conn)
	return nil
}

func (n *Notifier) readLoop(displayID int, conn *websocket.Conn) {
	defer n.unregister(displayID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (n *Notifier) unregister(displayID int, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if current, ok := n.connections[displayID]; ok && current == conn {
		delete(n.connections, displayID)
		n.log.Info("websocket connection unregistered", "display_id", displayID)
	}
}

func (n *Notifier) broadcastEvent(evType event.Type, body any) {
	payload, err := json.Marshal(pushMessage{Type: evType, Data: body})
	if err != nil {
		n.log.Error("marshal websocket push failed", "event_type", evType, "error", err)
		return
	}

	n.mu.RLock()
	targets := make(map[int]*websocket.Conn, len(n.connections))
	for id, conn := range n.connections {
		targets[id] = conn
	}
	n.mu.RUnlock()

	for displayID, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			n.log.Warn("websocket push failed, dropping connection", "display_id", displayID, "error", err)
			n.unregister(displayID, conn)
		}
	}
}
