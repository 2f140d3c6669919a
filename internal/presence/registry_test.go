package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	name string
}

func (f *fakeConn) Enqueue([]byte) bool { return true }

func TestBindLastWins(t *testing.T) {
	r := NewRegistry()
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}

	replaced := r.Bind("alice", c1)
	assert.Nil(t, replaced)

	replaced = r.Bind("alice", c2)
	assert.Same(t, c1, replaced)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)
}

func TestUnbindStaleConnKeepsNewerBinding(t *testing.T) {
	r := NewRegistry()
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}

	r.Bind("alice", c1)
	r.Bind("alice", c2)

	// the old connection's teardown races the new bind; it must not
	// evict the newer session
	r.UnbindConn("alice", c1)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)

	r.UnbindConn("alice", c2)
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestLookupAbsentIsNotAnError(t *testing.T) {
	r := NewRegistry()
	conn, ok := r.Lookup("nobody")
	assert.False(t, ok)
	assert.Nil(t, conn)
}

func TestOnChangeSnapshots(t *testing.T) {
	r := NewRegistry()
	var snapshots [][]string
	r.SetOnChange(func(online []string) {
		snapshots = append(snapshots, online)
	})

	r.Bind("bob", &fakeConn{})
	r.Bind("alice", &fakeConn{})
	r.UnbindUser("bob")

	require.Len(t, snapshots, 3)
	assert.Equal(t, []string{"bob"}, snapshots[0])
	assert.Equal(t, []string{"alice", "bob"}, snapshots[1])
	assert.Equal(t, []string{"alice"}, snapshots[2])
}

func TestUnbindUnknownUserNoSnapshot(t *testing.T) {
	r := NewRegistry()
	called := 0
	r.SetOnChange(func([]string) { called++ })

	r.UnbindUser("ghost")
	r.UnbindConn("ghost", &fakeConn{})
	assert.Zero(t, called)
}
