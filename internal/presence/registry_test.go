package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string
}

func (f *fakeConn) SendMessage(message interface{}) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "c1"}

	replaced := r.Register("user-1", c)
	require.Nil(t, replaced)

	got, ok := r.Lookup("user-1")
	require.True(t, ok)
	require.Same(t, c, got)
	require.True(t, r.Online("user-1"))
	require.False(t, r.Online("user-2"))
}

func TestRegisterLastConnectionWins(t *testing.T) {
	r := NewRegistry()
	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}

	r.Register("user-1", c1)
	replaced := r.Register("user-1", c2)
	require.Same(t, c1, replaced)

	got, ok := r.Lookup("user-1")
	require.True(t, ok)
	require.Same(t, c2, got)
}

func TestRegisterSameConnTwice(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "c1"}

	r.Register("user-1", c)
	replaced := r.Register("user-1", c)
	require.Nil(t, replaced)
}

// A delayed disconnect from an old connection must not evict the
// registration made by a newer connection for the same user.
func TestUnregisterStaleHandleKeepsReconnect(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{id: "old"}
	fresh := &fakeConn{id: "fresh"}

	r.Register("user-1", old)
	r.Register("user-1", fresh)

	_, removed := r.Unregister("user-1", old)
	require.False(t, removed)
	require.True(t, r.Online("user-1"))

	userID, removed := r.Unregister("user-1", fresh)
	require.True(t, removed)
	require.Equal(t, "user-1", userID)
	require.False(t, r.Online("user-1"))
}

func TestUnregisterUnknownUser(t *testing.T) {
	r := NewRegistry()

	_, removed := r.Unregister("ghost", &fakeConn{})
	require.False(t, removed)

	_, removed = r.Unregister("", &fakeConn{})
	require.False(t, removed)
}
