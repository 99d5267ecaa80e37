package server

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/protocol"
	"github.com/boardgo/server/internal/seats"
)

// connHandler is the per-socket half of a seat (spec §4.7.1): a read loop
// pumping inbound frames onto the session thread, paired with an
// outboundSink the session thread writes through. Grounded on
// alcamerone-pocket2s's listenForPlayerMessages — a blocking read loop
// started in its own goroutine per connection, generalized from a
// JSON-keyed table message to the envelope/payload split of spec §6.1.
type connHandler struct {
	srv  *Server
	ws   *websocket.Conn
	sink seats.Sink
	out  *outboundSink // concrete handle kept only to close the writer goroutine
	log  *zap.Logger

	mu       sync.Mutex
	playerID string
}

func newConnHandler(srv *Server, ws *websocket.Conn) *connHandler {
	out := newOutboundSink(ws, srv.log)
	return &connHandler{
		srv:  srv,
		ws:   ws,
		sink: out,
		out:  out,
		log:  srv.log,
	}
}

func (ch *connHandler) setPlayerID(playerID string) {
	ch.mu.Lock()
	ch.playerID = playerID
	ch.mu.Unlock()
}

func (ch *connHandler) getPlayerID() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.playerID
}

// readLoop blocks reading frames until the socket errors, then reports an
// orphaned seat to the session thread and tears down the writer goroutine.
// It must run on its own goroutine (spec §5: all I/O may be parallel;
// only state mutation is serialized).
func (ch *connHandler) readLoop(ctx context.Context) {
	defer func() {
		if ch.out != nil {
			ch.out.close()
		}
	}()
	for {
		_, raw, err := ch.ws.ReadMessage()
		if err != nil {
			if !isClosedConnectionError(err.Error()) {
				ch.log.Warn("error reading from connection", zap.Error(err))
			}
			playerID := ch.getPlayerID()
			ch.srv.dispatch(ctx, func() {
				ch.srv.onConnectionLost(playerID)
			})
			return
		}

		env, decodeErr := protocol.Decode(raw)
		if decodeErr != nil {
			ch.srv.dispatch(ctx, func() {
				ch.srv.sendErrorDirect(ch, decodeErr.Error())
			})
			continue
		}

		ch.srv.dispatch(ctx, func() {
			ch.srv.handleEnvelope(ch, env)
		})
	}
}

func isClosedConnectionError(errStr string) bool {
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "unexpected EOF") ||
		strings.Contains(errStr, "going away") ||
		strings.Contains(errStr, "connection reset by peer")
}
