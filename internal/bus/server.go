package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/observability"
	"realtime-service/internal/tokens"
)

const authorizeTimeout = 5 * time.Second

// SocketHandler serves the /api/socket/io handshake for both framings
// and dispatches client events on established connections.
type SocketHandler struct {
	hub      *Hub
	tokens   *tokens.Service
	auth     Authorizer
	polling  *PollingManager
	upgrader websocket.Upgrader
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, tokenService *tokens.Service, auth Authorizer, allowedOrigins []string) *SocketHandler {
	h := &SocketHandler{
		hub:    hub,
		tokens: tokenService,
		auth:   auth,
	}
	h.polling = NewPollingManager(hub, h.dispatch)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := false
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		return set[origin]
	}
}

// Handle authenticates the handshake and hands the request to the
// requested framing. Rejection happens before any connection state is
// created.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("realtime-service/bus").Start(c.Request.Context(), "socket.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, ok := h.tokens.Verify(handshakeToken(c))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if c.Query("transport") == "polling" {
		h.polling.Handle(c, identity)
		return
	}

	h.handleWebsocket(c, identity, span.SpanContext().TraceID().String())
}

func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func (h *SocketHandler) handleWebsocket(c *gin.Context, identity tokens.Identity, traceID string) {
	// A polling session id may be presented here; the upgrade adopts
	// the session's queue and room memberships without frame loss.
	client, adopted := h.polling.Adopt(c.Query("sid"), identity)
	if !adopted {
		client = newClient(identity, "websocket", ConnInfo{
			ProfileID:   identity.ProfileID,
			DeviceID:    observability.DeviceIDFromRequest(c.Request),
			IP:          observability.IPFromRequest(c.Request),
			RequestID:   observability.RequestIDFromRequest(c.Request),
			TraceID:     traceID,
			ConnectedAt: time.Now(),
		})
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if adopted {
			h.hub.Detach(client)
		}
		return
	}
	client.attachConn(conn)

	observability.IncSocketActive("websocket")
	h.hub.emitLifecycle(client, "ws_connect", "")

	go client.writePump()
	go client.readPump(h.dispatch, func(cl *Client, readErr error) {
		h.hub.Detach(cl)
		observability.DecSocketActive("websocket")
		reason := ""
		if readErr != nil {
			reason = readErr.Error()
			h.hub.emitLifecycle(cl, "ws_error", reason)
		}
		h.hub.emitLifecycle(cl, "ws_disconnect", reason)
	})
}

// dispatch routes one client frame. Unknown events and malformed
// payloads are dropped silently; join denials emit nothing, so room
// existence never leaks.
func (h *SocketHandler) dispatch(c *Client, frame Frame) {
	switch frame.Event {
	case eventJoin:
		room, meta, ok := decodeJoin(frame.Data)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
		defer cancel()
		if !h.auth.Authorize(ctx, c.Identity, room, meta) {
			observability.IncSocketEvent(c.Transport(), "join_denied")
			return
		}
		h.hub.Join(room, c)
		observability.IncSocketEvent(c.Transport(), "join")

	case eventLeave:
		room, _, ok := decodeJoin(frame.Data)
		if !ok {
			return
		}
		h.hub.Leave(room, c)
		observability.IncSocketEvent(c.Transport(), "leave")
	}
}

// decodeJoin accepts either a bare room string or a {room, meta}
// object. Malformed room keys fail the decode.
func decodeJoin(data json.RawMessage) (RoomKey, JoinMeta, bool) {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		room, ok := ParseRoomKey(name)
		return room, JoinMeta{}, ok
	}

	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return RoomKey{}, JoinMeta{}, false
	}
	room, ok := ParseRoomKey(payload.Room)
	return room, payload.Meta, ok
}
