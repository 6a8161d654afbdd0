package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"realtime-service/internal/observability"
)

// Bridge fans an event out to other processes sharing the broadcast
// domain. Optional; single-process deployments run without one.
type Bridge interface {
	Relay(e Event)
}

// Hub maintains the active rooms: purely in-memory sets of subscribed
// clients, created on first join and destroyed when the last member
// leaves.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[RoomKey]map[*Client]bool
	memberships map[*Client]map[RoomKey]bool
	bridge      Bridge
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[RoomKey]map[*Client]bool),
		memberships: make(map[*Client]map[RoomKey]bool),
	}
}

// SetBridge installs a cross-process relay. Set once at startup.
func (h *Hub) SetBridge(b Bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = b
}

// Join subscribes a client to a room.
func (h *Hub) Join(room RoomKey, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	if _, ok := h.memberships[c]; !ok {
		h.memberships[c] = make(map[RoomKey]bool)
	}
	h.memberships[c][room] = true
}

// Leave removes a client from a room. Always succeeds; a client may
// leave any room it believes it is in.
func (h *Hub) Leave(room RoomKey, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, c)
}

func (h *Hub) leaveLocked(room RoomKey, c *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.memberships[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.memberships, c)
		}
	}
}

// Detach removes a client from every room it belongs to, immediately
// and unconditionally.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	for room := range h.memberships[c] {
		h.leaveLocked(room, c)
	}
	h.mu.Unlock()
	c.close()
}

// Rooms reports the client's current memberships.
func (h *Hub) Rooms(c *Client) []RoomKey {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]RoomKey, 0, len(h.memberships[c]))
	for room := range h.memberships[c] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Publish delivers the event to every member of its room and, when a
// bridge is configured, relays it to the other processes. Fan-out never
// crosses room boundaries.
func (h *Hub) Publish(e Event) {
	h.publishLocal(e)

	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()
	if bridge != nil {
		bridge.Relay(e)
	}
}

// publishLocal fans out to local room members only. On create events
// the author's own connections are skipped: the author reconciles
// through its HTTP response and optimistic entry, not through the bus.
// Updates have no optimistic path, so they go to every connection,
// including the author's other tabs and devices.
func (h *Hub) publishLocal(e Event) {
	payload, err := encodeEvent(e)
	if err != nil {
		log.Printf("bus encode event failed: %v", err)
		observability.IncBusPublish("dropped")
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[e.Room]))
	for c := range h.rooms[e.Room] {
		if e.Kind == EventCreate && c.Identity.ProfileID == e.Message.Member.ProfileID {
			continue
		}
		members = append(members, c)
	}
	h.mu.RUnlock()

	var stalled []*Client
	for _, c := range members {
		if c.enqueue(payload) {
			observability.IncBusPublish("delivered")
		} else {
			observability.IncBusPublish("dropped")
			stalled = append(stalled, c)
		}
	}

	for _, c := range stalled {
		log.Printf("socket send queue overflow, disconnecting conn=%s", c.ID)
		h.Detach(c)
		h.emitLifecycle(c, "ws_error", "send queue overflow")
	}
}

func (h *Hub) emitLifecycle(c *Client, event, reason string) {
	transport := c.Transport()
	observability.IncSocketEvent(transport, event)
	payload := map[string]interface{}{
		"socket": map[string]interface{}{
			"transport":   transport,
			"event":       event,
			"conn_id":     c.Info.ConnID,
			"duration_ms": time.Since(c.Info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"profile_id": c.Identity.ProfileID,
			"user_id":    c.Identity.UserID,
			"device_id":  c.Info.DeviceID,
			"ip":         c.Info.IP,
		},
	}
	headers := observability.BuildHeaders(c.Info.RequestID, c.Info.TraceID)
	_ = observability.PublishEvent(context.Background(), "socket_events", observability.EventEnvelope{
		EventType: "socket_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}

var defaultHub *Hub

// SetDefault installs the process-wide hub. Set once at startup, read
// thereafter; HTTP handlers reach the bus through Publish below.
func SetDefault(h *Hub) {
	defaultHub = h
}

// Default returns the process-wide hub, or nil when none started.
func Default() *Hub {
	return defaultHub
}

// Publish delivers through the process-wide hub. When no hub was
// initialized in this process it is a logged no-op: realtime delivery
// is best-effort and must never fail the mutation that triggered it.
func Publish(e Event) {
	h := defaultHub
	if h == nil {
		log.Printf("bus not initialized, dropping %s", e.WireName())
		observability.IncBusPublish("no_bus")
		return
	}
	h.Publish(e)
}
