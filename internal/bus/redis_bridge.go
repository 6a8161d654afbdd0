package bus

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"realtime-service/internal/models"
)

const bridgeChannel = "realtime:events"

type bridgeEnvelope struct {
	Origin  string               `json:"origin"`
	Kind    EventKind            `json:"kind"`
	Room    string               `json:"room"`
	Message models.MessageRecord `json:"message"`
}

// RedisBridge shares one broadcast domain across processes through
// Redis pub/sub. Each process tags relayed events with its origin id
// and ignores its own, so local members never see a duplicate.
type RedisBridge struct {
	hub    *Hub
	rdb    *redis.Client
	origin string
}

// NewRedisBridge connects the hub to a Redis relay and starts the
// subscriber loop.
func NewRedisBridge(ctx context.Context, hub *Hub, rdb *redis.Client) *RedisBridge {
	b := &RedisBridge{
		hub:    hub,
		rdb:    rdb,
		origin: uuid.NewString(),
	}
	go b.subscribe(ctx)
	return b
}

// Relay publishes a locally-originated event to the other processes.
// Failures are logged and dropped; delivery stays best-effort.
func (b *RedisBridge) Relay(e Event) {
	payload, err := json.Marshal(bridgeEnvelope{
		Origin:  b.origin,
		Kind:    e.Kind,
		Room:    e.Room.String(),
		Message: e.Message,
	})
	if err != nil {
		log.Printf("bridge encode failed: %v", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), bridgeChannel, payload).Err(); err != nil {
		log.Printf("bridge publish failed: %v", err)
	}
}

func (b *RedisBridge) subscribe(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope bridgeEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("bridge decode failed: %v", err)
			continue
		}
		if envelope.Origin == b.origin {
			continue
		}
		room, ok := ParseRoomKey(envelope.Room)
		if !ok {
			continue
		}
		b.hub.publishLocal(Event{Kind: envelope.Kind, Room: room, Message: envelope.Message})
	}
}
