package realtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub, _ := startHub(t)

	a := NewClient(hub, nil, "tournament_1")
	b := NewClient(hub, nil, "tournament_2")
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.RoomSize("tournament_1") == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom("tournament_1", []byte(`{"type":"team_enrolled"}`))

	select {
	case msg := <-a.send:
		assert.JSONEq(t, `{"type":"team_enrolled"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Empty(t, b.send)
}

func TestHub_BroadcastToEmptyRoom(t *testing.T) {
	hub, _ := startHub(t)
	assert.NotPanics(t, func() { hub.BroadcastToRoom("tournament_404", []byte("x")) })
}

func TestHub_FullBufferDropsMessage(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, "r")
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 1 }, time.Second, 10*time.Millisecond)

	for i := 0; i < sendBuffer+5; i++ {
		hub.BroadcastToRoom("r", []byte("m"))
	}
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, "r")
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 1 }, time.Second, 10*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, c.trySend([]byte("late")))
}

func TestHub_StopClosesAllAndRejectsRegister(t *testing.T) {
	hub, cancel := startHub(t)
	c := NewClient(hub, nil, "r")
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, hub.Register(NewClient(hub, nil, "r")))
}
