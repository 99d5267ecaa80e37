package server

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/boardgo/server/internal/protocol"
	"github.com/boardgo/server/internal/seats"
)

// outboundBufferSize bounds how many frames can queue for a single slow
// connection before Send starts dropping them (spec §5, §9: "slow
// consumers are dropped at the channel boundary; the session thread must
// never block on a single client's backpressure").
const outboundBufferSize = 64

// outboundSink adapts a *websocket.Conn into a seats.Sink. It is grounded
// on alcamerone-pocket2s's retrySend: a dedicated writer drains a channel
// with bounded exponential backoff per message, so one stalled socket
// never blocks the session thread that called Send.
type outboundSink struct {
	conn *websocket.Conn
	out  chan *protocol.Envelope
	log  *zap.Logger
}

var _ seats.Sink = (*outboundSink)(nil)

func newOutboundSink(conn *websocket.Conn, log *zap.Logger) *outboundSink {
	s := &outboundSink{
		conn: conn,
		out:  make(chan *protocol.Envelope, outboundBufferSize),
		log:  log,
	}
	go s.run()
	return s
}

// Send enqueues env for delivery, never blocking — a full buffer means a
// persistently slow consumer, and the frame is dropped rather than
// stalling the caller (which, for in-pipeline calls, is the session
// thread).
func (s *outboundSink) Send(env *protocol.Envelope) error {
	select {
	case s.out <- env:
		return nil
	default:
		s.log.Warn("dropping frame for slow consumer", zap.String("type", string(env.Type)))
		return nil
	}
}

func (s *outboundSink) run() {
	for env := range s.out {
		s.writeWithRetry(env)
	}
}

func (s *outboundSink) writeWithRetry(env *protocol.Envelope) {
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt < 5; attempt++ {
		if err := s.conn.WriteJSON(env); err == nil {
			return
		} else if attempt == 4 {
			s.log.Warn("giving up on send after repeated errors", zap.Error(err))
			s.conn.Close()
			return
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}

// close stops the writer goroutine. Safe to call once the connection's
// read loop has exited.
func (s *outboundSink) close() {
	close(s.out)
}
