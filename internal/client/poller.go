package client

import (
	"context"
	"log"
	"sync"
	"time"

	"realtime-service/internal/bus"
	"realtime-service/internal/cache"
	"realtime-service/internal/models"
)

// pollInterval is the fixed re-fetch cadence while the bus is down.
const pollInterval = 5 * time.Second

// FetchFunc fetches the newest page for a room from the HTTP API.
type FetchFunc func(ctx context.Context, room bus.RoomKey) (models.MessagePage, error)

// ConnectionState reports whether push delivery is currently live.
type ConnectionState interface {
	Connected() bool
}

// Poller is the degraded-mode delivery path: while the consumer is
// disconnected it re-fetches each watched room's newest page on a fixed
// interval and merges it into the room cache. Push presence disables
// the interval, so the two paths are never active at the same time.
type Poller struct {
	state    ConnectionState
	fetch    FetchFunc
	interval time.Duration

	mu    sync.Mutex
	rooms map[bus.RoomKey]*cache.MessageCache
}

// NewPoller constructs a Poller over the given connection state.
func NewPoller(state ConnectionState, fetch FetchFunc) *Poller {
	return &Poller{
		state:    state,
		fetch:    fetch,
		interval: pollInterval,
		rooms:    make(map[bus.RoomKey]*cache.MessageCache),
	}
}

// Watch registers a room cache for fallback refreshing.
func (p *Poller) Watch(room bus.RoomKey, mc *cache.MessageCache) {
	p.mu.Lock()
	p.rooms[room] = mc
	p.mu.Unlock()
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if p.state.Connected() {
			continue
		}
		p.refresh(ctx)
	}
}

func (p *Poller) refresh(ctx context.Context) {
	p.mu.Lock()
	rooms := make(map[bus.RoomKey]*cache.MessageCache, len(p.rooms))
	for room, mc := range p.rooms {
		rooms[room] = mc
	}
	p.mu.Unlock()

	for room, mc := range rooms {
		page, err := p.fetch(ctx, room)
		if err != nil {
			log.Printf("client: poll %s failed: %v", room, err)
			continue
		}
		// The page is newest-first; apply oldest-first so records that
		// are new to the cache prepend in the right order. Records
		// already cached are refreshed in place, which also picks up
		// edits and soft-deletes missed while the bus was down.
		for i := len(page.Items) - 1; i >= 0; i-- {
			mc.ApplyCreate(page.Items[i])
		}
	}
}
