package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcastToPoolReachesRoomOnly(t *testing.T) {
	hub := testHub()
	go hub.Run()

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "bolao-da-copa"}
	other := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "outro-bolao"}
	hub.Register <- inRoom
	// registrations are handled in order, so once this send completes the
	// first client is in its room
	hub.Register <- other

	hub.BroadcastToPool("bolao-da-copa", Message{
		Type:    MessageResultPosted,
		Payload: map[string]int{"match_id": 10},
	})

	select {
	case data := <-inRoom.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageResultPosted, msg.Type)
		assert.Equal(t, "bolao-da-copa", msg.PoolSlug)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast in the pool room")
	}

	select {
	case <-other.Send:
		t.Fatal("message leaked into another room")
	default:
	}
}

func TestBroadcastSkipsSlowClient(t *testing.T) {
	hub := testHub()

	slow := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "bolao-da-copa"}
	hub.rooms["bolao-da-copa"] = map[*Client]bool{slow: true}

	hub.BroadcastToPool("bolao-da-copa", Message{Type: MessageLeaderboardUpdated})
	hub.BroadcastToPool("bolao-da-copa", Message{Type: MessageLeaderboardUpdated})

	// the second message is dropped instead of blocking the broadcast
	assert.Len(t, slow.Send, 1)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := testHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "bolao-da-copa"}
	hub.Register <- client
	hub.Unregister <- client
	// fence: once this registration is accepted the unregister is done
	hub.Register <- &Client{Hub: hub, Send: make(chan []byte, 1), Room: "outro"}

	_, open := <-client.Send
	assert.False(t, open)
}
