package seats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardgo/server/internal/protocol"
)

type fakeSink struct {
	mu       sync.Mutex
	received []*protocol.Envelope
}

func (f *fakeSink) Send(env *protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, env)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func TestRegisterResetsReadyButKeepsToken(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	tok := m.GetReconnectToken("p1")
	require.NotEmpty(t, tok)

	m.SetReady("p1", true)
	m.Register("p1", "Alice", &fakeSink{}) // fresh register

	assert.False(t, m.IsReady("p1"), "a fresh register must reset isReady")
	assert.Equal(t, tok, m.GetReconnectToken("p1"), "register must not mint a new token if one exists")
}

func TestMarkDisconnectedPreservesSeatAndToken(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	tok := m.GetReconnectToken("p1")

	m.MarkDisconnected("p1")
	assert.False(t, m.IsReadyToStart())
	assert.Equal(t, tok, m.GetReconnectToken("p1"), "token must survive disconnect")

	_, ok := m.Snapshot("p1")
	assert.True(t, ok, "disconnect must not destroy the seat")
}

func TestReconnectRestoresConnectivity(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	m.MarkDisconnected("p1")

	sink := &fakeSink{}
	m.Reconnect("p1", sink)
	seat, ok := m.Snapshot("p1")
	require.True(t, ok)
	assert.True(t, seat.IsConnected)

	env, err := protocol.Encode(protocol.TypePong, protocol.PongPayload{Timestamp: 1}, 0)
	require.NoError(t, err)
	m.Send("p1", env)
	assert.Equal(t, 1, sink.count())
}

func TestUnregisterDestroysSeat(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	m.Unregister("p1")
	_, ok := m.Snapshot("p1")
	assert.False(t, ok)
}

func TestFindPlayerByReconnectToken(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	tok := m.GetReconnectToken("p1")

	found, ok := m.FindPlayerByReconnectToken(tok)
	require.True(t, ok)
	assert.Equal(t, "p1", found)

	_, ok = m.FindPlayerByReconnectToken("unknown-token")
	assert.False(t, ok)
}

func TestIsReadyToStartRequiresAllConnectedReady(t *testing.T) {
	m := New(nil)
	assert.False(t, m.IsReadyToStart(), "no connected seats means not ready")

	m.Register("p1", "Alice", &fakeSink{})
	m.Register("p2", "Bob", &fakeSink{})
	assert.False(t, m.IsReadyToStart())

	m.SetReady("p1", true)
	assert.False(t, m.IsReadyToStart())

	m.SetReady("p2", true)
	assert.True(t, m.IsReadyToStart())

	m.MarkDisconnected("p2")
	assert.True(t, m.IsReadyToStart(), "a disconnected, unready seat must not block start")
}

func TestBroadcastExcludesPlayerAndSkipsDisconnected(t *testing.T) {
	m := New(nil)
	s1, s2, s3 := &fakeSink{}, &fakeSink{}, &fakeSink{}
	m.Register("p1", "Alice", s1)
	m.Register("p2", "Bob", s2)
	m.Register("p3", "Carol", s3)
	m.MarkDisconnected("p3")

	env, err := protocol.Encode(protocol.TypeLobbyState, m.BuildLobbyState(), 0)
	require.NoError(t, err)
	m.Broadcast(env, "p1")

	assert.Equal(t, 0, s1.count())
	assert.Equal(t, 1, s2.count())
	assert.Equal(t, 0, s3.count())
}

func TestBuildLobbyStateIncludesDisconnectedSeats(t *testing.T) {
	m := New(nil)
	m.Register("p1", "Alice", &fakeSink{})
	m.MarkDisconnected("p1")

	snap := m.BuildLobbyState()
	require.Len(t, snap.Players, 1)
	assert.False(t, snap.Players[0].IsConnected)
	assert.False(t, snap.CanStart)
}
