package server

import "github.com/boardgo/server/internal/protocol"

// broadcastLobby sends LOBBY_STATE to every connected seat (spec §4.7.9).
func (s *Server) broadcastLobby() {
	s.broadcastEnvelope(protocol.TypeLobbyState, s.manager.BuildLobbyState(), "")
}

// fanOutViews computes boardView once, broadcasts it to every connected
// seat, then sends each connected player their own PLAYER_VIEW (spec
// §4.7.8, invariant H1: BuildBoardView must never carry a field
// BuildPlayerView wouldn't also be allowed to repeat). Each connected
// player ends up with exactly one BOARD_VIEW and one PLAYER_VIEW per
// mutation — reconnect catch-up is handled separately by sendCurrentViews.
func (s *Server) fanOutViews() {
	if s.activePack == nil {
		return
	}
	s.broadcastEnvelope(protocol.TypeBoardView, protocol.BoardViewPayload{
		BoardView: s.activePack.BuildBoardView(s.state),
	}, "")
	for _, playerID := range s.manager.ConnectedPlayerIDs() {
		s.sendEnvelope(playerID, protocol.TypePlayerView, protocol.PlayerViewPayload{
			PlayerView: s.activePack.BuildPlayerView(s.state, playerID),
		})
	}
}

// sendCurrentViews sends playerID its own PLAYER_VIEW plus a fresh
// BOARD_VIEW. Only a JOIN during an in-progress game uses it, so the
// joining player catches up; fanOutViews does not call it.
func (s *Server) sendCurrentViews(playerID string) {
	if s.activePack == nil {
		return
	}
	s.sendEnvelope(playerID, protocol.TypeBoardView, protocol.BoardViewPayload{
		BoardView: s.activePack.BuildBoardView(s.state),
	})
	s.sendEnvelope(playerID, protocol.TypePlayerView, protocol.PlayerViewPayload{
		PlayerView: s.activePack.BuildPlayerView(s.state, playerID),
	})
}
