package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/protocol"
)

func newLoopbackConn(t *testing.T) (*websocket.Conn, *websocket.Conn, func()) {
	t.Helper()
	var serverConn *websocket.Conn
	upgrader := websocket.Upgrader{}
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		serverConn, err = upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
	}))

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	cleanup := func() {
		clientConn.Close()
		if serverConn != nil {
			serverConn.Close()
		}
		httpServer.Close()
	}
	return serverConn, clientConn, cleanup
}

func TestOutboundSinkDeliversEnvelope(t *testing.T) {
	serverConn, clientConn, cleanup := newLoopbackConn(t)
	defer cleanup()
	require.NotNil(t, serverConn)

	sink := newOutboundSink(serverConn, zap.NewNop())
	defer sink.close()

	env, err := protocol.Encode(protocol.TypePong, protocol.PongPayload{Timestamp: 99}, 0)
	require.NoError(t, err)
	require.NoError(t, sink.Send(env))

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received protocol.Envelope
	require.NoError(t, clientConn.ReadJSON(&received))
	require.Equal(t, protocol.TypePong, received.Type)
}

func TestOutboundSinkDropsWhenBufferFull(t *testing.T) {
	serverConn, _, cleanup := newLoopbackConn(t)
	defer cleanup()
	require.NotNil(t, serverConn)

	sink := &outboundSink{
		conn: serverConn,
		out:  make(chan *protocol.Envelope), // unbuffered and undrained: every Send takes the drop path
		log:  zap.NewNop(),
	}
	env, err := protocol.Encode(protocol.TypePong, protocol.PongPayload{}, 0)
	require.NoError(t, err)

	require.NoError(t, sink.Send(env))
	require.NoError(t, sink.Send(env))
}
