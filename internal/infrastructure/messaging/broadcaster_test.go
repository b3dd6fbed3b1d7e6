package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastIsSessionScoped(t *testing.T) {
	b := NewSSEBroadcaster(10, nil)

	chA := b.AddClient("session-a")
	require.NotNil(t, chA)
	chB := b.AddClient("session-b")
	require.NotNil(t, chB)

	b.BroadcastToSession("session-a", EventForecastProgress, map[string]any{"percent": 40})

	select {
	case msg := <-chA:
		assert.Contains(t, msg, "event: forecast_progress\n")
		assert.Contains(t, msg, `"percent":40`)
	default:
		t.Fatal("session-a client received nothing")
	}

	select {
	case msg := <-chB:
		t.Fatalf("session-b client must not see session-a events, got %q", msg)
	default:
	}
}

func TestBroadcastFanOut(t *testing.T) {
	b := NewSSEBroadcaster(10, nil)

	first := b.AddClient("sess")
	second := b.AddClient("sess")
	assert.Equal(t, 2, b.ConnectionCount("sess"))

	b.BroadcastToSession("sess", EventHeartbeat, map[string]any{})
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestConnectionCapRejectsClients(t *testing.T) {
	b := NewSSEBroadcaster(2, nil)

	first := b.AddClient("a")
	require.NotNil(t, first)
	require.NotNil(t, b.AddClient("b"))
	assert.Nil(t, b.AddClient("c"), "cap is global across sessions")

	// Removing a client frees a slot.
	b.RemoveClient(first, "a")
	assert.NotNil(t, b.AddClient("c"))
	assert.Equal(t, 2, b.TotalConnections())
}

func TestRemoveClient(t *testing.T) {
	b := NewSSEBroadcaster(10, nil)

	ch := b.AddClient("sess")
	require.NotNil(t, ch)
	b.RemoveClient(ch, "sess")
	assert.Zero(t, b.ConnectionCount("sess"))

	// Removing an unknown channel is a no-op.
	b.RemoveClient(make(chan string), "sess")
	b.RemoveClient(ch, "never-seen")
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	b := NewSSEBroadcaster(10, nil)
	ch := b.AddClient("sess")
	require.NotNil(t, ch)

	// The channel buffer is finite; overfilling must not deadlock the sender.
	for i := 0; i < 50; i++ {
		b.BroadcastToSession("sess", EventForecastProgress, map[string]any{"i": i})
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestNotifySessionExpiredClosesClients(t *testing.T) {
	b := NewSSEBroadcaster(10, nil)
	ch := b.AddClient("sess")
	require.NotNil(t, ch)

	b.NotifySessionExpired("sess")

	msg, open := <-ch
	require.True(t, open, "the expiry event is delivered before the close")
	assert.Contains(t, msg, "event: session_expired\n")

	_, open = <-ch
	assert.False(t, open, "channel closed after notification")
	assert.Zero(t, b.ConnectionCount("sess"))
}
