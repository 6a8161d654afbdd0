// Package cache holds the client-side message cache for one
// conversation: a keyed map of records plus an ordering index kept
// newest-first, matching the server's descending-creation-time pages.
// Optimistic sends, confirmations, edits and soft-deletes all reconcile
// through it, whether they arrive over the event bus or from a poll.
package cache

import (
	"sync"

	"realtime-service/internal/models"
)

// MessageCache reconciles one conversation's message list. All merge
// operations are id-keyed and idempotent, so the same record arriving
// twice (push plus poll racing each other) leaves the cache unchanged.
type MessageCache struct {
	mu      sync.Mutex
	records map[string]models.MessageRecord
	order   []string // newest first
	// pending tracks optimistic temp ids awaiting a confirmed id.
	pending    map[string]bool
	nextCursor string
	exhausted  bool
}

// NewMessageCache constructs an empty cache.
func NewMessageCache() *MessageCache {
	return &MessageCache{
		records: make(map[string]models.MessageRecord),
		pending: make(map[string]bool),
	}
}

// AddOptimistic inserts a locally-originated entry at the head under
// its temporary id. The entry stays pending until Confirm replaces it
// or Rollback removes it.
func (mc *MessageCache) AddOptimistic(rec models.MessageRecord) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.records[rec.ID]; ok {
		return
	}
	mc.records[rec.ID] = rec
	mc.order = append([]string{rec.ID}, mc.order...)
	mc.pending[rec.ID] = true
}

// Confirm replaces the pending entry under tempID with the confirmed
// record, re-keying it in place. It reports false when no such pending
// entry exists, in which case the record is merged as a create instead.
func (mc *MessageCache) Confirm(tempID string, rec models.MessageRecord) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !mc.pending[tempID] {
		mc.applyCreateLocked(rec)
		return false
	}
	mc.rekeyLocked(tempID, rec)
	return true
}

// ApplyCreate merges an incoming create event. If the id is already
// present the record replaces the existing entry in place. If a pending
// optimistic entry matches the author and content, it is the local send
// coming back over the bus and is re-keyed rather than duplicated.
// Otherwise the record is prepended.
func (mc *MessageCache) ApplyCreate(rec models.MessageRecord) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.applyCreateLocked(rec)
}

func (mc *MessageCache) applyCreateLocked(rec models.MessageRecord) {
	if _, ok := mc.records[rec.ID]; ok {
		mc.records[rec.ID] = rec
		return
	}
	if tempID, ok := mc.matchPendingLocked(rec); ok {
		mc.rekeyLocked(tempID, rec)
		return
	}
	mc.records[rec.ID] = rec
	mc.order = append([]string{rec.ID}, mc.order...)
}

// ApplyUpdate merges an edit or soft-delete. Records not loaded locally
// are dropped; the page fetch that would load them returns the
// up-to-date row anyway.
func (mc *MessageCache) ApplyUpdate(rec models.MessageRecord) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.records[rec.ID]; !ok {
		return
	}
	mc.records[rec.ID] = rec
}

// Rollback removes the optimistic entry under tempID after a failed
// send. Removing an unknown or already-confirmed id is a no-op.
func (mc *MessageCache) Rollback(tempID string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !mc.pending[tempID] {
		return
	}
	delete(mc.pending, tempID)
	delete(mc.records, tempID)
	mc.order = removeID(mc.order, tempID)
}

// MergePage appends an older page fetched from the store. Records
// already present keep their position and are refreshed in place, so
// re-fetching during a poll cycle never reorders the cache.
func (mc *MessageCache) MergePage(page models.MessagePage) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, rec := range page.Items {
		if _, ok := mc.records[rec.ID]; ok {
			mc.records[rec.ID] = rec
			continue
		}
		mc.records[rec.ID] = rec
		mc.order = append(mc.order, rec.ID)
	}
	mc.nextCursor = page.NextCursor
	if page.NextCursor == "" {
		mc.exhausted = true
	}
}

// Messages returns the cached records newest-first.
func (mc *MessageCache) Messages() []models.MessageRecord {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	out := make([]models.MessageRecord, 0, len(mc.order))
	for _, id := range mc.order {
		out = append(out, mc.records[id])
	}
	return out
}

// Get returns the record under id.
func (mc *MessageCache) Get(id string) (models.MessageRecord, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	rec, ok := mc.records[id]
	return rec, ok
}

// Len returns the number of cached records.
func (mc *MessageCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.order)
}

// NextCursor returns the cursor for the next older page, and whether
// more pages remain.
func (mc *MessageCache) NextCursor() (string, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.nextCursor, !mc.exhausted
}

// rekeyLocked moves the entry under tempID to rec.ID, preserving its
// position in the ordering index.
func (mc *MessageCache) rekeyLocked(tempID string, rec models.MessageRecord) {
	delete(mc.pending, tempID)
	delete(mc.records, tempID)
	mc.records[rec.ID] = rec
	for i, id := range mc.order {
		if id == tempID {
			mc.order[i] = rec.ID
			return
		}
	}
	mc.order = append([]string{rec.ID}, mc.order...)
}

func (mc *MessageCache) matchPendingLocked(rec models.MessageRecord) (string, bool) {
	for tempID := range mc.pending {
		local := mc.records[tempID]
		if local.MemberID == rec.MemberID && local.Content == rec.Content {
			return tempID, true
		}
	}
	return "", false
}

func removeID(order []string, id string) []string {
	for i, candidate := range order {
		if candidate == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
