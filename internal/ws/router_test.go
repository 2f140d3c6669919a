package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/presence"
)

type recordingConn struct {
	mu       sync.Mutex
	payloads [][]byte
	full     bool
}

func (c *recordingConn) Enqueue(p []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.payloads = append(c.payloads, p)
	return true
}

func (c *recordingConn) envelopes(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, 0, len(c.payloads))
	for _, p := range c.payloads {
		var env Envelope
		require.NoError(t, json.Unmarshal(p, &env))
		out = append(out, env)
	}
	return out
}

func (c *recordingConn) eventsNamed(t *testing.T, name string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range c.envelopes(t) {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func newTestRouter() (*Router, *presence.Registry) {
	registry := presence.NewRegistry()
	return NewRouter(registry, zap.NewNop().Sugar()), registry
}

func TestNotifyDeliversToBoundConnection(t *testing.T) {
	router, registry := newTestRouter()
	conn := &recordingConn{}
	registry.Bind("bob", conn)

	router.Notify("bob", EventNewMessage, map[string]string{"id": "m1"})

	got := conn.eventsNamed(t, EventNewMessage)
	require.Len(t, got, 1)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(got[0].Data, &payload))
	assert.Equal(t, "m1", payload["id"])
}

func TestNotifyOfflineIsSilentNoop(t *testing.T) {
	router, _ := newTestRouter()
	// must not panic, error, or queue anything
	router.Notify("nobody", EventNewMessage, map[string]string{"id": "m1"})
}

func TestReplacedConnectionReceivesNoFurtherEvents(t *testing.T) {
	router, registry := newTestRouter()
	c1 := &recordingConn{}
	c2 := &recordingConn{}

	registry.Bind("alice", c1)
	registry.Bind("alice", c2)

	before := len(c1.eventsNamed(t, EventNewMessage))
	router.Notify("alice", EventNewMessage, map[string]string{"id": "m1"})

	assert.Len(t, c1.eventsNamed(t, EventNewMessage), before)
	assert.Len(t, c2.eventsNamed(t, EventNewMessage), 1)
}

func TestBindBroadcastsOnlineSnapshotToEveryone(t *testing.T) {
	_, registry := newTestRouter()
	c1 := &recordingConn{}
	c2 := &recordingConn{}

	registry.Bind("alice", c1)
	registry.Bind("bob", c2)

	snaps := c1.eventsNamed(t, EventOnlineUsers)
	require.NotEmpty(t, snaps)

	var ids []string
	require.NoError(t, json.Unmarshal(snaps[len(snaps)-1].Data, &ids))
	assert.Equal(t, []string{"alice", "bob"}, ids)

	registry.UnbindUser("bob")
	snaps = c1.eventsNamed(t, EventOnlineUsers)
	require.NoError(t, json.Unmarshal(snaps[len(snaps)-1].Data, &ids))
	assert.Equal(t, []string{"alice"}, ids)
}

func TestNotifyBackedUpConnectionDropsSilently(t *testing.T) {
	router, registry := newTestRouter()
	conn := &recordingConn{full: true}
	registry.Bind("bob", conn)

	// drop, not block or error
	router.Notify("bob", EventNewMessage, map[string]string{"id": "m1"})
	assert.Empty(t, conn.eventsNamed(t, EventNewMessage))
}
