package bus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/observability"
	"realtime-service/internal/tokens"
)

const (
	// pollWait is how long a drain request blocks for the first frame.
	pollWait = 20 * time.Second
	// sessionTTL expires polling sessions that stop draining.
	sessionTTL   = 60 * time.Second
	reapInterval = 30 * time.Second
)

type pollingSession struct {
	client   *Client
	lastSeen time.Time
}

// PollingManager implements the higher-compatibility framing: a session
// whose queued frames are drained by repeated GETs and whose client
// events arrive by POST. Sessions share the Client type with the
// websocket framing so an upgrade keeps the queue.
type PollingManager struct {
	mu       sync.Mutex
	sessions map[string]*pollingSession
	hub      *Hub
	dispatch func(*Client, Frame)
}

// NewPollingManager constructs a PollingManager and starts its reaper.
func NewPollingManager(hub *Hub, dispatch func(*Client, Frame)) *PollingManager {
	pm := &PollingManager{
		sessions: make(map[string]*pollingSession),
		hub:      hub,
		dispatch: dispatch,
	}
	go pm.reap()
	return pm
}

// Handle serves an authenticated polling request.
func (pm *PollingManager) Handle(c *gin.Context, identity tokens.Identity) {
	sid := c.Query("sid")

	switch {
	case c.Request.Method == http.MethodPost:
		pm.handleFrames(c, sid, identity)
	case c.Request.Method == http.MethodDelete:
		pm.closeSession(sid, identity)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case sid == "":
		pm.handshake(c, identity)
	default:
		pm.drain(c, sid, identity)
	}
}

func (pm *PollingManager) handshake(c *gin.Context, identity tokens.Identity) {
	client := newClient(identity, "polling", ConnInfo{
		ProfileID:   identity.ProfileID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		ConnectedAt: time.Now(),
	})

	pm.mu.Lock()
	pm.sessions[client.ID] = &pollingSession{client: client, lastSeen: time.Now()}
	pm.mu.Unlock()

	observability.IncSocketActive("polling")
	pm.hub.emitLifecycle(client, "ws_connect", "")

	c.JSON(http.StatusOK, gin.H{
		"sid":          client.ID,
		"pollWaitMs":   pollWait.Milliseconds(),
		"sessionTtlMs": sessionTTL.Milliseconds(),
	})
}

func (pm *PollingManager) lookup(sid string, identity tokens.Identity) (*Client, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	session, ok := pm.sessions[sid]
	if !ok || session.client.Identity.ProfileID != identity.ProfileID {
		return nil, false
	}
	session.lastSeen = time.Now()
	return session.client, true
}

func (pm *PollingManager) handleFrames(c *gin.Context, sid string, identity tokens.Identity) {
	client, ok := pm.lookup(sid, identity)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	var frames []Frame
	if err := c.ShouldBindJSON(&frames); err != nil {
		// A single bad request must never take the session down.
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frames"})
		return
	}
	for _, frame := range frames {
		pm.dispatch(client, frame)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (pm *PollingManager) drain(c *gin.Context, sid string, identity tokens.Identity) {
	client, ok := pm.lookup(sid, identity)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	frames := make([]json.RawMessage, 0, 4)
	timer := time.NewTimer(pollWait)
	defer timer.Stop()

	select {
	case payload := <-client.send:
		frames = append(frames, payload)
	case <-client.done:
		c.JSON(http.StatusGone, gin.H{"error": "session closed"})
		return
	case <-c.Request.Context().Done():
		return
	case <-timer.C:
	}

	for {
		select {
		case payload := <-client.send:
			frames = append(frames, payload)
			continue
		default:
		}
		break
	}

	c.JSON(http.StatusOK, gin.H{"frames": frames})
}

func (pm *PollingManager) closeSession(sid string, identity tokens.Identity) {
	client, ok := pm.lookup(sid, identity)
	if !ok {
		return
	}
	pm.mu.Lock()
	delete(pm.sessions, sid)
	pm.mu.Unlock()

	pm.hub.Detach(client)
	observability.DecSocketActive("polling")
	pm.hub.emitLifecycle(client, "ws_disconnect", "")
}

// Adopt removes a polling session and hands its client over for a
// websocket upgrade. Queued frames and room memberships carry over.
func (pm *PollingManager) Adopt(sid string, identity tokens.Identity) (*Client, bool) {
	if sid == "" {
		return nil, false
	}
	pm.mu.Lock()
	session, ok := pm.sessions[sid]
	if ok && session.client.Identity.ProfileID == identity.ProfileID {
		delete(pm.sessions, sid)
	} else {
		ok = false
	}
	pm.mu.Unlock()

	if !ok {
		return nil, false
	}
	observability.DecSocketActive("polling")
	return session.client, true
}

func (pm *PollingManager) reap() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-sessionTTL)

		pm.mu.Lock()
		var expired []*Client
		for sid, session := range pm.sessions {
			if session.lastSeen.Before(cutoff) {
				expired = append(expired, session.client)
				delete(pm.sessions, sid)
			}
		}
		pm.mu.Unlock()

		for _, client := range expired {
			pm.hub.Detach(client)
			observability.DecSocketActive("polling")
			pm.hub.emitLifecycle(client, "ws_disconnect", "session expired")
		}
	}
}
