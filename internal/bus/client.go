package bus

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"realtime-service/internal/tokens"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// sendQueueSize bounds the per-connection outbound buffer. A client
	// that cannot drain it in time is disconnected rather than allowed
	// to stall the fan-out.
	sendQueueSize = 64
)

// ConnInfo describes one live connection for lifecycle events.
type ConnInfo struct {
	ConnID      string
	ProfileID   string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Client is one live connection with an authenticated identity and a
// set of room memberships (held by the Hub). The same Client backs both
// the websocket and the polling framing, so an upgrade keeps the queue.
type Client struct {
	ID       string
	Identity tokens.Identity
	Info     ConnInfo

	send chan []byte
	done chan struct{}

	mu        sync.Mutex
	conn      *websocket.Conn
	transport string
	closed    bool
}

func newClient(identity tokens.Identity, transport string, info ConnInfo) *Client {
	id := info.ConnID
	if id == "" {
		id = uuid.NewString()
		info.ConnID = id
	}
	return &Client{
		ID:        id,
		Identity:  identity,
		Info:      info,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		transport: transport,
	}
}

// Transport reports the current framing ("websocket" or "polling").
func (c *Client) Transport() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// enqueue hands an encoded frame to the client. It reports false when
// the client is closed or its queue is full.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close makes the client unusable; idempotent.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// attachConn promotes the client onto a websocket connection. Frames
// queued while on the polling framing stay in the send channel and are
// flushed by the write pump, so the upgrade loses nothing.
func (c *Client) attachConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.transport = "websocket"
	c.mu.Unlock()
}

// writePump pumps queued frames onto the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client frames from the websocket connection and feeds
// them to dispatch. Malformed frames are dropped; a bad message must
// never take the bus down.
func (c *Client) readPump(dispatch func(*Client, Frame), onClose func(*Client, error)) {
	var closeErr error
	defer func() {
		if r := recover(); r != nil {
			log.Printf("socket read pump panic: %v", r)
		}
		c.close()
		onClose(c, closeErr)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				closeErr = err
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		dispatch(c, frame)
	}
}
