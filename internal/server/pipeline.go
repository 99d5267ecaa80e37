package server

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/boardgo/server/internal/protocol"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/session"
)

// handleEnvelope is the single dispatch switch for every inbound frame
// (spec §4.7). It always runs already on the session thread — callers
// reach it only through dispatch/dispatchSync — so every branch below can
// touch s.state and s.manager without further synchronization.
func (s *Server) handleEnvelope(ch *connHandler, env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypeJoin:
		s.handleJoin(ch, env)
	case protocol.TypeSetReady:
		s.handleSetReady(ch, env)
	case protocol.TypePing:
		s.handlePing(ch, env)
	case protocol.TypeLeave:
		s.handleLeave(ch, env)
	case protocol.TypeAction:
		s.handleAction(ch, env)
	case protocol.TypeStartGame:
		s.handleStartGameWire(ch, env)
	default:
		s.log.Warn("no session-thread handler for message type", zap.String("type", string(env.Type)))
	}
}

// handleJoin implements spec §4.7.2, including reconnection by token (spec
// §4.3, invariant T1): a recognized reconnectToken reattaches the existing
// seat under its original playerId regardless of the playerId the client
// supplied; an unrecognized or absent token always seats a fresh player
// (open question 1 — see DESIGN.md).
func (s *Server) handleJoin(ch *connHandler, env *protocol.Envelope) {
	var payload protocol.JoinPayload
	if err := env.DecodePayload(&payload); err != nil {
		s.sendErrorDirect(ch, "malformed JOIN payload")
		return
	}

	playerID := payload.PlayerID
	if payload.ReconnectToken != "" {
		if existingID, ok := s.manager.FindPlayerByReconnectToken(payload.ReconnectToken); ok {
			playerID = existingID
			s.manager.Reconnect(playerID, ch.sink)
		} else {
			s.manager.Register(playerID, payload.DisplayName, ch.sink)
		}
	} else {
		s.manager.Register(playerID, payload.DisplayName, ch.sink)
	}
	ch.setPlayerID(playerID)

	if seat, ok := s.state.Players[playerID]; ok {
		seat.IsConnected = true
		s.state = s.state.WithPlayer(seat)
	}

	token := s.manager.GetReconnectToken(playerID)
	s.sendEnvelope(playerID, protocol.TypeJoinRoomAck, protocol.JoinRoomAckPayload{
		Success:        true,
		PlayerID:       playerID,
		ReconnectToken: token,
	})

	if s.state.Phase == session.PhaseInGame && s.activePack != nil {
		s.sendCurrentViews(playerID)
		return
	}
	s.broadcastLobby()
}

func (s *Server) handleSetReady(ch *connHandler, env *protocol.Envelope) {
	var payload protocol.SetReadyPayload
	if err := env.DecodePayload(&payload); err != nil {
		s.sendErrorDirect(ch, "malformed SET_READY payload")
		return
	}
	s.manager.SetReady(payload.PlayerID, payload.IsReady)
	s.broadcastLobby()
}

// handlePing echoes the client's own timestamp back as PONG (spec §4.7.4):
// the server never originates a heartbeat of its own.
func (s *Server) handlePing(ch *connHandler, env *protocol.Envelope) {
	var payload protocol.PingPayload
	if err := env.DecodePayload(&payload); err != nil {
		s.sendErrorDirect(ch, "malformed PING payload")
		return
	}
	playerID := ch.getPlayerID()
	if playerID == "" {
		return
	}
	s.sendEnvelope(playerID, protocol.TypePong, protocol.PongPayload{Timestamp: payload.Timestamp})
}

// handleLeave tears a seat down entirely (spec §4.3: "a seat is destroyed
// only by explicit LEAVE", never by a dropped socket alone).
func (s *Server) handleLeave(ch *connHandler, env *protocol.Envelope) {
	playerID := ch.getPlayerID()
	if playerID == "" {
		return
	}
	s.teardownSeat(playerID)
}

func (s *Server) teardownSeat(playerID string) {
	s.manager.Unregister(playerID)
	if _, ok := s.state.Players[playerID]; ok {
		s.state = s.state.WithoutPlayer(playerID)
	}
	s.broadcastEnvelope(protocol.TypeLeave, protocol.LeavePayload{PlayerID: playerID, Event: "left"}, "")
	s.broadcastLobby()
}

// onConnectionLost handles a socket that closed without an explicit LEAVE
// (spec §4.3): the seat survives, marked disconnected, so a later JOIN with
// its reconnect token can reclaim it.
func (s *Server) onConnectionLost(playerID string) {
	if playerID == "" {
		return
	}
	s.manager.MarkDisconnected(playerID)
	if seat, ok := s.state.Players[playerID]; ok {
		seat.IsConnected = false
		s.state = s.state.WithPlayer(seat)
	}
	s.broadcastLobby()
}

func (s *Server) handleStartGameWire(ch *connHandler, env *protocol.Envelope) {
	var payload protocol.StartGamePayload
	_ = env.DecodePayload(&payload)
	if err := s.startGameLocked(payload.PackID); err != nil {
		s.sendErrorDirect(ch, err.Error())
	}
}

// startGameLocked implements spec §4.7.6. It must only ever be called on
// the session thread (directly, or via StartGame's dispatchSync).
func (s *Server) startGameLocked(packID string) error {
	if s.state.Phase != session.PhaseLobby {
		return fmt.Errorf("cannot start: session is not in Lobby phase")
	}
	if !s.manager.IsReadyToStart() {
		return fmt.Errorf("cannot start: not every connected player is ready")
	}
	pack, err := s.resolvePack(packID)
	if err != nil {
		return err
	}

	ids := s.manager.ConnectedPlayerIDs()
	next := s.state.Clone()
	next.PlayerOrder = ids
	for _, id := range ids {
		seat, ok := s.manager.Snapshot(id)
		if !ok {
			continue
		}
		next.Players[id] = session.PlayerSessionState{
			PlayerID:       seat.PlayerID,
			Nickname:       seat.Nickname,
			IsConnected:    seat.IsConnected,
			IsReady:        seat.IsReady,
			ReconnectToken: seat.ReconnectToken,
		}
	}

	s.state = pack.CreateInitialGameState(next)
	s.activePack = pack
	s.persist(s.state)
	s.fanOutViews()
	return nil
}

// handleAction runs the ten-step pipeline of spec §4.7.7.
func (s *Server) handleAction(ch *connHandler, env *protocol.Envelope) {
	var payload protocol.ActionPayload
	if err := env.DecodePayload(&payload); err != nil {
		s.sendErrorDirect(ch, "malformed ACTION payload")
		return
	}

	// 1. duplicate check
	if s.idem.Seen(payload.ClientActionID) {
		s.rejectAction(ch, payload.ClientActionID, protocol.CodeDuplicateAction, "clientActionId already processed")
		return
	}

	// 2. phase check
	if s.state.Phase != session.PhaseInGame || s.activePack == nil {
		s.rejectAction(ch, payload.ClientActionID, protocol.CodePhaseMismatch, "session is not in an active game")
		return
	}

	// 3. turn check
	if s.state.ActivePlayer() != payload.PlayerID {
		s.rejectAction(ch, payload.ClientActionID, protocol.CodeNotYourTurn, "it is not this player's turn")
		return
	}

	// 4. allowed-action check
	allowed := s.activePack.GetAllowedActions(s.state, payload.PlayerID)
	if !matchAllowedAction(allowed, payload.ActionType, payload.Data) {
		s.rejectAction(ch, payload.ClientActionID, protocol.CodeInvalidAction, fmt.Sprintf("action %q with the submitted params is not currently allowed", payload.ActionType))
		return
	}

	// 5. record
	s.idem.Add(payload.ClientActionID)

	// 6-7. apply + version bump (the rules pack bumps Version as part of
	// the single state transition it returns — see rules.GamePackRules).
	s.state = s.activePack.ApplyAction(s.state, payload.PlayerID, rules.Action{
		ActionType: payload.ActionType,
		Data:       payload.Data,
	})

	// 8. end-check
	if result := s.activePack.CheckGameEnd(s.state); result.Ended {
		s.state = s.state.Clone()
		s.state.Phase = session.PhaseFinished
		s.state = s.state.AppendLog(session.LogEntry{
			EventType:   "GAME_END",
			Description: fmt.Sprintf("game ended; winners: %s", strings.Join(result.WinnerIDs, ", ")),
		})
		s.state = s.state.BumpVersion()
	}

	// 9. fan-out
	s.fanOutViews()

	// 10. persist (fire-and-forget; see Server.persist)
	s.persist(s.state)
}

// matchAllowedAction reports whether data is consistent with at least one
// entry in allowed for actionType: every key in that entry's Params must be
// present in data with an equal value (spec §4.5, e.g. "cardId must be in
// the active player's hand" — GetAllowedActions only advertises cardIds
// actually in hand, so matching against it is exactly that check without
// the pipeline needing pack-specific knowledge of what "cardId" means).
func matchAllowedAction(allowed []rules.AllowedAction, actionType string, data map[string]interface{}) bool {
	for _, a := range allowed {
		if a.ActionType != actionType {
			continue
		}
		if paramsMatch(a.Params, data) {
			return true
		}
	}
	return false
}

func paramsMatch(want, got map[string]interface{}) bool {
	for key, wantValue := range want {
		gotValue, ok := got[key]
		if !ok || !reflect.DeepEqual(wantValue, gotValue) {
			return false
		}
	}
	return true
}

// rejectAction replies ACTION_REJECTED to the connection that sent the
// action, and to no one else.
func (s *Server) rejectAction(ch *connHandler, clientActionID string, code protocol.RejectionCode, reason string) {
	env, err := protocol.Encode(protocol.TypeActionRejected, protocol.ActionRejectedPayload{
		Reason:         reason,
		Code:           code,
		ClientActionID: clientActionID,
	}, s.now())
	if err != nil {
		return
	}
	_ = ch.sink.Send(env)
}

func (s *Server) sendErrorDirect(ch *connHandler, reason string) {
	env, err := protocol.Encode(protocol.TypeError, protocol.ErrorPayload{Reason: reason}, s.now())
	if err != nil {
		return
	}
	_ = ch.sink.Send(env)
}
