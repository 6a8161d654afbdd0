// Package bus is the bidirectional, multiplexed event-channel server:
// it tracks room membership per connection and delivers change events
// to all members of a room, and no others.
package bus

import (
	"encoding/json"
	"strings"

	"realtime-service/internal/models"
)

const (
	roomPrefix = "chat:"
	roomSuffix = ":messages"
)

// RoomKey identifies a broadcast room for a channel or conversation.
// The wire shape is fixed: chat:{targetId}:messages. The zero value is
// invalid; construct through NewRoomKey or ParseRoomKey.
type RoomKey struct {
	target string
}

// NewRoomKey builds the room key for a channel or conversation id.
func NewRoomKey(targetID string) RoomKey {
	return RoomKey{target: targetID}
}

// ParseRoomKey validates and parses a wire room name.
func ParseRoomKey(raw string) (RoomKey, bool) {
	if !strings.HasPrefix(raw, roomPrefix) || !strings.HasSuffix(raw, roomSuffix) {
		return RoomKey{}, false
	}
	target := raw[len(roomPrefix) : len(raw)-len(roomSuffix)]
	if target == "" || strings.Contains(target, ":") {
		return RoomKey{}, false
	}
	return RoomKey{target: target}, true
}

func (k RoomKey) String() string { return roomPrefix + k.target + roomSuffix }

// TargetID returns the channel or conversation id the room is scoped to.
func (k RoomKey) TargetID() string { return k.target }

// IsZero reports whether the key was never constructed.
func (k RoomKey) IsZero() bool { return k.target == "" }

// EventKind is the closed set of change notifications. Internal logic
// branches on this tag; the wire string names exist only at the
// transport boundary.
type EventKind int

const (
	// EventCreate announces a new message: subscribers prepend it.
	EventCreate EventKind = iota
	// EventUpdate announces an edit or soft-delete: subscribers replace
	// the existing item by id.
	EventUpdate
)

// Event is a change notification published to one room. It is
// ephemeral: the relational store remains the source of truth.
type Event struct {
	Kind    EventKind
	Room    RoomKey
	Message models.MessageRecord
}

// WireName translates the event tag to its wire event name.
func (e Event) WireName() string {
	if e.Kind == EventUpdate {
		return e.Room.String() + ":update"
	}
	return e.Room.String()
}

// ParseWireName is the inverse of WireName.
func ParseWireName(name string) (RoomKey, EventKind, bool) {
	kind := EventCreate
	if trimmed, ok := strings.CutSuffix(name, ":update"); ok {
		kind = EventUpdate
		name = trimmed
	}
	room, ok := ParseRoomKey(name)
	if !ok {
		return RoomKey{}, 0, false
	}
	return room, kind, true
}

// Frame is the JSON envelope both directions share on the wire.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinMeta carries the caller-supplied authorization context for a join
// request: either {channelId, serverId} or {conversationId}.
type JoinMeta struct {
	ChannelID      string `json:"channelId,omitempty"`
	ServerID       string `json:"serverId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// JoinPayload is the join-channel event payload. A bare string room
// name is also accepted for backward compatibility.
type JoinPayload struct {
	Room string   `json:"room"`
	Meta JoinMeta `json:"meta"`
}

// Client event names.
const (
	eventJoin  = "join-channel"
	eventLeave = "leave-channel"
)

func encodeEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: e.WireName(), Data: data})
}
