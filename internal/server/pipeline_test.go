package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardgo/server/internal/protocol"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/rules/simplecard"
	"github.com/boardgo/server/internal/session"
)

// fakeSink records every envelope sent to it, standing in for a real
// websocket connection in these session-thread-logic tests.
type fakeSink struct {
	sent []*protocol.Envelope
}

func (f *fakeSink) Send(env *protocol.Envelope) error {
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeSink) last() *protocol.Envelope {
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSink) ofType(t protocol.MessageType) []*protocol.Envelope {
	var out []*protocol.Envelope
	for _, e := range f.sent {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestServer() *Server {
	seed := int64(7)
	pack := simplecard.New().WithSeed(seed)
	return New("test-session", simplecard.PackID, []rules.GamePackRules{pack}, nil)
}

func newTestConn(s *Server) (*connHandler, *fakeSink) {
	sink := &fakeSink{}
	ch := &connHandler{srv: s, sink: sink, log: s.log}
	return ch, sink
}

func encodeEnvelope(t *testing.T, msgType protocol.MessageType, payload interface{}) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Encode(msgType, payload, 0)
	require.NoError(t, err)
	return env
}

func joinPlayer(t *testing.T, s *Server, playerID, nickname string) (*connHandler, *fakeSink) {
	t.Helper()
	ch, sink := newTestConn(s)
	s.handleJoin(ch, encodeEnvelope(t, protocol.TypeJoin, protocol.JoinPayload{
		PlayerID:    playerID,
		Event:       "join",
		DisplayName: nickname,
	}))
	return ch, sink
}

func TestHandleJoinAssignsSeatAndAcks(t *testing.T) {
	s := newTestServer()
	ch, sink := joinPlayer(t, s, "p1", "Alice")

	assert.Equal(t, "p1", ch.getPlayerID())
	acks := sink.ofType(protocol.TypeJoinRoomAck)
	require.Len(t, acks, 1)

	var ack protocol.JoinRoomAckPayload
	require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "p1", ack.PlayerID)
	assert.NotEmpty(t, ack.ReconnectToken)

	lobbies := sink.ofType(protocol.TypeLobbyState)
	require.Len(t, lobbies, 1)
}

func TestHandleJoinReconnectReclaimsSeat(t *testing.T) {
	s := newTestServer()
	_, sink1 := joinPlayer(t, s, "p1", "Alice")
	var ack protocol.JoinRoomAckPayload
	require.NoError(t, json.Unmarshal(sink1.ofType(protocol.TypeJoinRoomAck)[0].Payload, &ack))
	token := ack.ReconnectToken
	require.NotEmpty(t, token)

	s.onConnectionLost("p1")

	ch2, sink2 := newTestConn(s)
	s.handleJoin(ch2, encodeEnvelope(t, protocol.TypeJoin, protocol.JoinPayload{
		PlayerID:       "someone-else-entirely",
		Event:          "join",
		ReconnectToken: token,
	}))

	assert.Equal(t, "p1", ch2.getPlayerID())
	var ack2 protocol.JoinRoomAckPayload
	require.NoError(t, json.Unmarshal(sink2.ofType(protocol.TypeJoinRoomAck)[0].Payload, &ack2))
	assert.Equal(t, "p1", ack2.PlayerID)
}

func TestHandleJoinUnknownTokenFallsBackToFreshJoin(t *testing.T) {
	s := newTestServer()
	ch, sink := newTestConn(s)
	s.handleJoin(ch, encodeEnvelope(t, protocol.TypeJoin, protocol.JoinPayload{
		PlayerID:       "p9",
		Event:          "join",
		ReconnectToken: "not-a-real-token",
	}))
	assert.Equal(t, "p9", ch.getPlayerID())
	require.Len(t, sink.ofType(protocol.TypeJoinRoomAck), 1)
}

func readyUp(t *testing.T, s *Server, playerID string) {
	t.Helper()
	s.handleSetReady(&connHandler{srv: s, sink: &fakeSink{}}, encodeEnvelope(t, protocol.TypeSetReady, protocol.SetReadyPayload{
		PlayerID: playerID,
		IsReady:  true,
	}))
}

func startTwoPlayerGame(t *testing.T) (*Server, *connHandler, *connHandler) {
	t.Helper()
	s := newTestServer()
	ch1, _ := joinPlayer(t, s, "p1", "Alice")
	ch2, _ := joinPlayer(t, s, "p2", "Bob")
	readyUp(t, s, "p1")
	readyUp(t, s, "p2")
	require.NoError(t, s.startGameLocked(""))
	return s, ch1, ch2
}

func TestStartGameLockedRequiresEveryoneReady(t *testing.T) {
	s := newTestServer()
	joinPlayer(t, s, "p1", "Alice")
	joinPlayer(t, s, "p2", "Bob")
	err := s.startGameLocked("")
	assert.Error(t, err)
}

func TestStartGameLockedHydratesStateAndFansOutViews(t *testing.T) {
	s, ch1, _ := startTwoPlayerGame(t)
	assert.Equal(t, session.PhaseInGame, s.state.Phase)
	assert.Equal(t, []string{"p1", "p2"}, s.state.PlayerOrder)
	assert.NotNil(t, s.activePack)

	sink := ch1.sink.(*fakeSink)
	assert.Len(t, sink.ofType(protocol.TypeBoardView), 1)
	assert.Len(t, sink.ofType(protocol.TypePlayerView), 1)
}

func TestHandleActionAppliesAndFansOut(t *testing.T) {
	s, ch1, _ := startTwoPlayerGame(t)
	active := s.state.ActivePlayer()
	require.NotEmpty(t, active)

	allowed := s.activePack.GetAllowedActions(s.state, active)
	require.NotEmpty(t, allowed)

	var drawAction rules.AllowedAction
	for _, a := range allowed {
		if a.ActionType == simplecard.ActionDrawCard {
			drawAction = a
			break
		}
	}
	require.Equal(t, simplecard.ActionDrawCard, drawAction.ActionType)

	sink := ch1.sink.(*fakeSink)
	sink.sent = nil

	versionBefore := s.state.Version
	s.handleAction(ch1, encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
		PlayerID:       active,
		ActionType:     simplecard.ActionDrawCard,
		Data:           map[string]interface{}{},
		ClientActionID: "action-1",
	}))
	assert.Greater(t, s.state.Version, versionBefore)
	assert.Len(t, sink.ofType(protocol.TypeBoardView), 1)
	assert.Len(t, sink.ofType(protocol.TypePlayerView), 1)
}

func TestHandleActionRejectsDuplicateClientActionID(t *testing.T) {
	s, ch1, _ := startTwoPlayerGame(t)
	active := s.state.ActivePlayer()

	action := protocol.ActionPayload{
		PlayerID:       active,
		ActionType:     simplecard.ActionDrawCard,
		Data:           map[string]interface{}{},
		ClientActionID: "dup-1",
	}
	s.handleAction(ch1, encodeEnvelope(t, protocol.TypeAction, action))
	versionAfterFirst := s.state.Version

	sink := ch1.sink.(*fakeSink)
	sink.sent = nil
	s.handleAction(ch1, encodeEnvelope(t, protocol.TypeAction, action))

	assert.Equal(t, versionAfterFirst, s.state.Version)
	rejections := sink.ofType(protocol.TypeActionRejected)
	require.Len(t, rejections, 1)
	var rej protocol.ActionRejectedPayload
	require.NoError(t, json.Unmarshal(rejections[0].Payload, &rej))
	assert.Equal(t, protocol.CodeDuplicateAction, rej.Code)
}

func TestHandleActionRejectsWrongTurn(t *testing.T) {
	s, ch1, ch2 := startTwoPlayerGame(t)
	active := s.state.ActivePlayer()
	notActive := "p2"
	notActiveConn := ch2
	if active == "p2" {
		notActive = "p1"
		notActiveConn = ch1
	}

	sink := notActiveConn.sink.(*fakeSink)
	s.handleAction(notActiveConn, encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
		PlayerID:       notActive,
		ActionType:     simplecard.ActionDrawCard,
		Data:           map[string]interface{}{},
		ClientActionID: "wrong-turn-1",
	}))

	rejections := sink.ofType(protocol.TypeActionRejected)
	require.Len(t, rejections, 1)
	var rej protocol.ActionRejectedPayload
	require.NoError(t, json.Unmarshal(rejections[0].Payload, &rej))
	assert.Equal(t, protocol.CodeNotYourTurn, rej.Code)
}

func TestHandleActionRejectsPhaseMismatchBeforeGameStart(t *testing.T) {
	s := newTestServer()
	ch, sink := joinPlayer(t, s, "p1", "Alice")
	s.handleAction(ch, encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
		PlayerID:       "p1",
		ActionType:     simplecard.ActionDrawCard,
		Data:           map[string]interface{}{},
		ClientActionID: "too-early-1",
	}))
	rejections := sink.ofType(protocol.TypeActionRejected)
	require.Len(t, rejections, 1)
	var rej protocol.ActionRejectedPayload
	require.NoError(t, json.Unmarshal(rejections[0].Payload, &rej))
	assert.Equal(t, protocol.CodePhaseMismatch, rej.Code)
}

func TestHandleActionRejectsInvalidActionType(t *testing.T) {
	s, _, _ := startTwoPlayerGame(t)
	active := s.state.ActivePlayer()

	activeSink := &fakeSink{}
	activeConn := &connHandler{srv: s, sink: activeSink}

	s.handleAction(activeConn, encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
		PlayerID:       active,
		ActionType:     "NOT_A_REAL_ACTION",
		Data:           map[string]interface{}{},
		ClientActionID: "invalid-1",
	}))
	rejections := activeSink.ofType(protocol.TypeActionRejected)
	require.Len(t, rejections, 1)
	var rej protocol.ActionRejectedPayload
	require.NoError(t, json.Unmarshal(rejections[0].Payload, &rej))
	assert.Equal(t, protocol.CodeInvalidAction, rej.Code)
}

// TestHandleActionRejectsPlayCardNotInHand covers spec §4.5's "cardId must
// be in the active player's hand": PLAY_CARD is a currently-allowed
// actionType, but a cardId absent from the active player's hand must still
// be rejected rather than silently no-op through ApplyAction.
func TestHandleActionRejectsPlayCardNotInHand(t *testing.T) {
	s, ch1, ch2 := startTwoPlayerGame(t)
	active := s.state.ActivePlayer()
	conn := ch1
	if active == "p2" {
		conn = ch2
	}
	sink := conn.sink.(*fakeSink)

	versionBefore := s.state.Version
	s.handleAction(conn, encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
		PlayerID:       active,
		ActionType:     simplecard.ActionPlayCard,
		Data:           map[string]interface{}{"cardId": "not-a-real-card"},
		ClientActionID: "not-in-hand-1",
	}))

	assert.Equal(t, versionBefore, s.state.Version)
	rejections := sink.ofType(protocol.TypeActionRejected)
	require.Len(t, rejections, 1)
	var rej protocol.ActionRejectedPayload
	require.NoError(t, json.Unmarshal(rejections[0].Payload, &rej))
	assert.Equal(t, protocol.CodeInvalidAction, rej.Code)
}

func TestHandlePingEchoesClientTimestamp(t *testing.T) {
	s := newTestServer()
	ch, sink := joinPlayer(t, s, "p1", "Alice")
	s.handlePing(ch, encodeEnvelope(t, protocol.TypePing, protocol.PingPayload{Timestamp: 12345}))

	pongs := sink.ofType(protocol.TypePong)
	require.Len(t, pongs, 1)
	var pong protocol.PongPayload
	require.NoError(t, json.Unmarshal(pongs[0].Payload, &pong))
	assert.EqualValues(t, 12345, pong.Timestamp)
}

func TestHandleLeaveDestroysSeat(t *testing.T) {
	s := newTestServer()
	ch1, _ := joinPlayer(t, s, "p1", "Alice")
	_, sink2 := joinPlayer(t, s, "p2", "Bob")

	s.handleLeave(ch1, encodeEnvelope(t, protocol.TypeLeave, protocol.LeavePayload{PlayerID: "p1", Event: "leave"}))

	_, found := s.manager.Snapshot("p1")
	assert.False(t, found, "explicit LEAVE destroys the seat entirely")

	leaves := sink2.ofType(protocol.TypeLeave)
	require.Len(t, leaves, 1)
}

func TestOnConnectionLostKeepsSeatButMarksDisconnected(t *testing.T) {
	s := newTestServer()
	joinPlayer(t, s, "p1", "Alice")
	s.onConnectionLost("p1")

	seat, ok := s.manager.Snapshot("p1")
	require.True(t, ok)
	assert.False(t, seat.IsConnected)

	token := s.manager.GetReconnectToken("p1")
	id, found := s.manager.FindPlayerByReconnectToken(token)
	assert.True(t, found)
	assert.Equal(t, "p1", id)
}

func TestGameEndTransitionsToFinished(t *testing.T) {
	s, ch1, ch2 := startTwoPlayerGame(t)
	conns := map[string]*connHandler{"p1": ch1, "p2": ch2}

	for i := 0; i < 400 && s.state.Phase == session.PhaseInGame; i++ {
		active := s.state.ActivePlayer()
		allowed := s.activePack.GetAllowedActions(s.state, active)
		require.NotEmpty(t, allowed)
		action := allowed[len(allowed)-1]
		s.handleAction(conns[active], encodeEnvelope(t, protocol.TypeAction, protocol.ActionPayload{
			PlayerID:       active,
			ActionType:     action.ActionType,
			Data:           action.Params,
			ClientActionID: fmt.Sprintf("game-end-loop-%d", i),
		}))
	}
	assert.Equal(t, session.PhaseFinished, s.state.Phase)
}
