package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/models"
	"realtime-service/internal/tokens"
)

func testClient(profileID string) *Client {
	return newClient(tokens.Identity{UserID: "user-" + profileID, ProfileID: profileID}, "websocket", ConnInfo{
		ProfileID:   profileID,
		ConnectedAt: time.Now(),
	})
}

func receivedFrames(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case payload := <-c.send:
			frames = append(frames, payload)
		default:
			return frames
		}
	}
}

func createEvent(room RoomKey, messageID, authorProfileID string) Event {
	return Event{
		Kind: EventCreate,
		Room: room,
		Message: models.MessageRecord{
			ID:      messageID,
			Content: "hello",
			Member:  models.Member{ProfileID: authorProfileID},
		},
	}
}

func TestHubJoinLeaveLifecycle(t *testing.T) {
	hub := NewHub()
	room := NewRoomKey("chan1")
	client := testClient("p1")

	hub.Join(room, client)
	assert.Len(t, hub.rooms, 1)
	assert.Equal(t, []RoomKey{room}, hub.Rooms(client))

	hub.Leave(room, client)
	assert.Len(t, hub.rooms, 0, "empty room must be destroyed")
	assert.Empty(t, hub.Rooms(client))

	// Leaving a room the client is not in is fine.
	hub.Leave(room, client)
}

func TestPublishRoomIsolation(t *testing.T) {
	hub := NewHub()
	room1 := NewRoomKey("chan1")
	room2 := NewRoomKey("chan2")

	a := testClient("pa")
	b := testClient("pb")
	hub.Join(room1, a)
	hub.Join(room2, b)

	hub.Publish(createEvent(room1, "m1", "author"))

	assert.Len(t, receivedFrames(a), 1)
	assert.Empty(t, receivedFrames(b), "fan-out must never cross room boundaries")
}

func TestPublishFanOutCount(t *testing.T) {
	hub := NewHub()
	room := NewRoomKey("chan1")

	sender := testClient("sender")
	other1 := testClient("p1")
	other2 := testClient("p2")
	for _, c := range []*Client{sender, other1, other2} {
		hub.Join(room, c)
	}

	hub.Publish(createEvent(room, "m1", "sender"))

	assert.Len(t, receivedFrames(other1), 1)
	assert.Len(t, receivedFrames(other2), 1)
	assert.Empty(t, receivedFrames(sender), "sender reconciles via its own response, not the bus")
}

func updateEvent(room RoomKey, messageID, authorProfileID string) Event {
	return Event{
		Kind: EventUpdate,
		Room: room,
		Message: models.MessageRecord{
			ID:      messageID,
			Content: "hello, edited",
			Member:  models.Member{ProfileID: authorProfileID},
		},
	}
}

func TestPublishUpdateReachesAuthorsOtherConnections(t *testing.T) {
	hub := NewHub()
	room := NewRoomKey("chan1")

	// The editing profile has two live connections; only creates are
	// reconciled out-of-band, so both must see the update.
	editorTab1 := testClient("editor")
	editorTab2 := testClient("editor")
	other := testClient("p1")
	for _, c := range []*Client{editorTab1, editorTab2, other} {
		hub.Join(room, c)
	}

	hub.Publish(updateEvent(room, "m1", "editor"))

	assert.Len(t, receivedFrames(other), 1)
	assert.Len(t, receivedFrames(editorTab1), 1, "author connections must see edits and soft-deletes")
	assert.Len(t, receivedFrames(editorTab2), 1, "author connections must see edits and soft-deletes")
}

func TestPublishOrderPerRoom(t *testing.T) {
	hub := NewHub()
	room := NewRoomKey("chan1")
	c := testClient("p1")
	hub.Join(room, c)

	hub.Publish(createEvent(room, "m1", "author"))
	hub.Publish(createEvent(room, "m2", "author"))
	hub.Publish(createEvent(room, "m3", "author"))

	frames := receivedFrames(c)
	require.Len(t, frames, 3)
	assert.Contains(t, string(frames[0]), `"m1"`)
	assert.Contains(t, string(frames[1]), `"m2"`)
	assert.Contains(t, string(frames[2]), `"m3"`)
}

func TestDetachRemovesEveryMembership(t *testing.T) {
	hub := NewHub()
	c := testClient("p1")
	hub.Join(NewRoomKey("chan1"), c)
	hub.Join(NewRoomKey("chan2"), c)

	hub.Detach(c)

	assert.Empty(t, hub.Rooms(c))
	assert.Len(t, hub.rooms, 0)

	// Publishing after detach reaches nobody and does not panic.
	hub.Publish(createEvent(NewRoomKey("chan1"), "m1", "author"))
}

func TestPublishWithoutDefaultHubIsNoOp(t *testing.T) {
	prev := Default()
	SetDefault(nil)
	defer SetDefault(prev)

	assert.NotPanics(t, func() {
		Publish(createEvent(NewRoomKey("chan1"), "m1", "author"))
	})
}

func TestPublishDisconnectsStalledClient(t *testing.T) {
	hub := NewHub()
	room := NewRoomKey("chan1")
	c := testClient("p1")
	hub.Join(room, c)

	for i := 0; i <= sendQueueSize; i++ {
		hub.Publish(createEvent(room, "m", "author"))
	}

	assert.Empty(t, hub.Rooms(c), "overflowing client must be detached")
	select {
	case <-c.done:
	default:
		t.Fatal("overflowing client must be closed")
	}
}
