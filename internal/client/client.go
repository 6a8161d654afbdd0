// Package client implements the consuming side of the event bus: a
// websocket subscriber that routes change events into per-room message
// caches, reconnects on transport failure, and degrades to interval
// polling when the bus is unreachable.
package client

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"realtime-service/internal/bus"
	"realtime-service/internal/cache"
	"realtime-service/internal/models"
)

const (
	reconnectAttempts = 3
	reconnectDelay    = 2 * time.Second
)

// Consumer maintains one bus connection and fans incoming events out to
// the caches of the rooms it has joined. Run owns the connection
// lifecycle; Subscribe may be called before or during Run.
type Consumer struct {
	url      string
	token    string
	dialer   *websocket.Dialer
	attempts int
	delay    time.Duration

	mu        sync.Mutex
	rooms     map[bus.RoomKey]roomSub
	conn      *websocket.Conn
	connected bool

	// wmu serializes writes to conn; gorilla/websocket supports at most
	// one concurrent writer.
	wmu sync.Mutex
}

type roomSub struct {
	cache *cache.MessageCache
	meta  bus.JoinMeta
}

// NewConsumer constructs a Consumer for the given socket endpoint.
func NewConsumer(url, token string) *Consumer {
	return &Consumer{
		url:      url,
		token:    token,
		dialer:   websocket.DefaultDialer,
		attempts: reconnectAttempts,
		delay:    reconnectDelay,
		rooms:    make(map[bus.RoomKey]roomSub),
	}
}

// Subscribe registers a room and its cache. When a connection is live
// the join frame is sent immediately; otherwise it is sent on the next
// (re)connect.
func (c *Consumer) Subscribe(room bus.RoomKey, mc *cache.MessageCache, meta bus.JoinMeta) {
	c.mu.Lock()
	c.rooms[room] = roomSub{cache: mc, meta: meta}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := c.sendJoin(conn, room, meta); err != nil {
			log.Printf("client: join %s failed: %v", room, err)
		}
	}
}

func (c *Consumer) sendJoin(conn *websocket.Conn, room bus.RoomKey, meta bus.JoinMeta) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return writeJoin(conn, room, meta)
}

// Connected reports whether a bus connection is currently live. The
// poll fallback consults this to stay quiet while push is working.
func (c *Consumer) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run connects and reads until ctx is cancelled. A transport failure
// triggers a bounded reconnect; when the attempts are exhausted, Run
// returns the last error and the consumer stays disconnected.
func (c *Consumer) Run(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= c.attempts; attempt++ {
		if attempt > 0 {
			log.Printf("client: reconnecting (attempt %d of %d)", attempt, c.attempts)
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.runOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		log.Printf("client: connection lost: %v", err)
	}
	return lastErr
}

func (c *Consumer) runOnce(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url+"?token="+c.token, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	rooms := make(map[bus.RoomKey]roomSub, len(c.rooms))
	for room, sub := range c.rooms {
		rooms[room] = sub
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.connected = false
		c.mu.Unlock()
	}()

	// Rejoin everything; a reconnect starts with no memberships.
	for room, sub := range rooms {
		if err := c.sendJoin(conn, room, sub.meta); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.route(payload)
	}
}

// route decodes one frame and applies it to the matching room cache.
// Frames for rooms we never joined, and frames that fail to decode,
// are dropped.
func (c *Consumer) route(payload []byte) {
	var frame bus.Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return
	}
	room, kind, ok := bus.ParseWireName(frame.Event)
	if !ok {
		return
	}

	c.mu.Lock()
	sub, found := c.rooms[room]
	c.mu.Unlock()
	if !found {
		return
	}

	var rec models.MessageRecord
	if err := json.Unmarshal(frame.Data, &rec); err != nil {
		log.Printf("client: bad payload on %s: %v", frame.Event, err)
		return
	}

	switch kind {
	case bus.EventCreate:
		sub.cache.ApplyCreate(rec)
	case bus.EventUpdate:
		sub.cache.ApplyUpdate(rec)
	}
}

func writeJoin(conn *websocket.Conn, room bus.RoomKey, meta bus.JoinMeta) error {
	data, err := json.Marshal(bus.JoinPayload{Room: room.String(), Meta: meta})
	if err != nil {
		return err
	}
	frame, err := json.Marshal(bus.Frame{Event: "join-channel", Data: data})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}
