package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/models"
)

func record(id, memberID, content string) models.MessageRecord {
	return models.MessageRecord{
		ID:        id,
		Content:   content,
		ChannelID: "chan1",
		MemberID:  memberID,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(mc *MessageCache) []string {
	msgs := mc.Messages()
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestOptimisticConfirmedByHTTPResponse(t *testing.T) {
	mc := NewMessageCache()
	mc.AddOptimistic(record("temp-1", "mem1", "hello"))

	replaced := mc.Confirm("temp-1", record("msg-1", "mem1", "hello"))
	assert.True(t, replaced)

	require.Equal(t, []string{"msg-1"}, ids(mc))
	_, ok := mc.Get("temp-1")
	assert.False(t, ok)
}

func TestOptimisticConfirmedByBroadcast(t *testing.T) {
	mc := NewMessageCache()
	mc.MergePage(models.MessagePage{Items: []models.MessageRecord{record("old", "mem2", "earlier")}})
	mc.AddOptimistic(record("temp-1", "mem1", "hello"))

	// The create event carries the permanent id and the same content.
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))

	assert.Equal(t, []string{"msg-1", "old"}, ids(mc), "confirmation replaces in place, no duplicate")
}

func TestCreateFromAnotherAuthorPrepends(t *testing.T) {
	mc := NewMessageCache()
	mc.MergePage(models.MessagePage{Items: []models.MessageRecord{record("old", "mem2", "earlier")}})
	mc.AddOptimistic(record("temp-1", "mem1", "hello"))

	mc.ApplyCreate(record("msg-9", "mem3", "hello"))

	assert.Equal(t, []string{"msg-9", "temp-1", "old"}, ids(mc),
		"same content from a different member is not a confirmation")
}

func TestCreateIsIdempotent(t *testing.T) {
	mc := NewMessageCache()
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))

	assert.Equal(t, []string{"msg-1"}, ids(mc))
}

func TestUpdateReplacesByID(t *testing.T) {
	mc := NewMessageCache()
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))

	edited := record("msg-1", "mem1", "hello, edited")
	mc.ApplyUpdate(edited)

	got, ok := mc.Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, "hello, edited", got.Content)
}

func TestUpdateForUnloadedMessageIsDropped(t *testing.T) {
	mc := NewMessageCache()
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))

	mc.ApplyUpdate(record("msg-404", "mem1", "never loaded"))

	assert.Equal(t, []string{"msg-1"}, ids(mc))
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	mc := NewMessageCache()
	mc.ApplyCreate(record("msg-1", "mem1", "hello"))

	deleted := record("msg-1", "mem1", models.DeletedPlaceholder)
	deleted.Deleted = true
	deleted.FileURL = nil

	mc.ApplyUpdate(deleted)
	first := mc.Messages()
	mc.ApplyUpdate(deleted)
	second := mc.Messages()

	assert.Equal(t, first, second, "applying the same update twice changes nothing")
	got, _ := mc.Get("msg-1")
	assert.True(t, got.Deleted)
	assert.Equal(t, models.DeletedPlaceholder, got.Content)
}

func TestRollbackRemovesOnlyTheFailedEntry(t *testing.T) {
	mc := NewMessageCache()
	mc.MergePage(models.MessagePage{Items: []models.MessageRecord{record("old", "mem2", "earlier")}})
	before := mc.Messages()

	mc.AddOptimistic(record("temp-1", "mem1", "will fail"))
	mc.Rollback("temp-1")

	assert.Equal(t, before, mc.Messages(), "rollback restores the pre-send snapshot")
}

func TestRollbackIgnoresConfirmedEntries(t *testing.T) {
	mc := NewMessageCache()
	mc.AddOptimistic(record("temp-1", "mem1", "hello"))
	mc.Confirm("temp-1", record("msg-1", "mem1", "hello"))

	// A late failure signal for an already-confirmed send is a no-op.
	mc.Rollback("temp-1")
	mc.Rollback("msg-1")

	assert.Equal(t, []string{"msg-1"}, ids(mc))
}

func TestMergePageAppendsOlderMessages(t *testing.T) {
	mc := NewMessageCache()
	mc.MergePage(models.MessagePage{
		Items:      []models.MessageRecord{record("msg-1", "mem1", "a"), record("msg-2", "mem1", "b"), record("msg-3", "mem1", "c")},
		NextCursor: "msg-3",
	})

	next, more := mc.NextCursor()
	assert.Equal(t, "msg-3", next)
	assert.True(t, more)

	mc.MergePage(models.MessagePage{
		Items: []models.MessageRecord{record("msg-4", "mem1", "d")},
	})

	assert.Equal(t, []string{"msg-1", "msg-2", "msg-3", "msg-4"}, ids(mc))
	_, more = mc.NextCursor()
	assert.False(t, more)
}

func TestMergePageRefreshInPlace(t *testing.T) {
	mc := NewMessageCache()
	mc.MergePage(models.MessagePage{Items: []models.MessageRecord{
		record("msg-1", "mem1", "a"), record("msg-2", "mem1", "b"),
	}})

	// A poll cycle re-fetches the same page with msg-2 now edited.
	updated := record("msg-2", "mem1", "b, edited")
	mc.MergePage(models.MessagePage{Items: []models.MessageRecord{record("msg-1", "mem1", "a"), updated}})

	assert.Equal(t, []string{"msg-1", "msg-2"}, ids(mc))
	got, _ := mc.Get("msg-2")
	assert.Equal(t, "b, edited", got.Content)
}

func TestManyOptimisticSendsKeepOrder(t *testing.T) {
	mc := NewMessageCache()
	for i := 0; i < 5; i++ {
		mc.AddOptimistic(record(fmt.Sprintf("temp-%d", i), "mem1", fmt.Sprintf("msg %d", i)))
	}

	assert.Equal(t, []string{"temp-4", "temp-3", "temp-2", "temp-1", "temp-0"}, ids(mc))
}
