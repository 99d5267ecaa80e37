package protocol

// MessageType is the closed set of wire envelope types (spec §6.2).
type MessageType string

const (
	TypeAction        MessageType = "ACTION"
	TypeStateUpdate   MessageType = "STATE_UPDATE"
	TypeJoin          MessageType = "JOIN"
	TypeLeave         MessageType = "LEAVE"
	TypeError         MessageType = "ERROR"
	TypeJoinRoomAck   MessageType = "JOIN_ROOM_ACK"
	TypeLobbyState    MessageType = "LOBBY_STATE"
	TypeSetReady      MessageType = "SET_READY"
	TypePing          MessageType = "PING"
	TypePong          MessageType = "PONG"
	TypePlayerView    MessageType = "PLAYER_VIEW"
	TypeBoardView     MessageType = "BOARD_VIEW"
	TypeActionRejected MessageType = "ACTION_REJECTED"
	TypeStartGame     MessageType = "START_GAME"
)

var knownTypes = map[MessageType]bool{
	TypeAction:         true,
	TypeStateUpdate:    true,
	TypeJoin:           true,
	TypeLeave:          true,
	TypeError:          true,
	TypeJoinRoomAck:    true,
	TypeLobbyState:     true,
	TypeSetReady:       true,
	TypePing:           true,
	TypePong:           true,
	TypePlayerView:     true,
	TypeBoardView:      true,
	TypeActionRejected: true,
	TypeStartGame:      true,
}

// Valid reports whether t is one of the closed set of wire message types.
func (t MessageType) Valid() bool {
	return knownTypes[t]
}

// RejectionCode is the closed set of ACTION_REJECTED codes (spec §6.4).
type RejectionCode string

const (
	CodeDuplicateAction RejectionCode = "DUPLICATE_ACTION"
	CodePhaseMismatch   RejectionCode = "PHASE_MISMATCH"
	CodeNotYourTurn     RejectionCode = "NOT_YOUR_TURN"
	CodeInvalidAction   RejectionCode = "INVALID_ACTION"
)

// JoinAckErrorCode is the closed set of JOIN_ROOM_ACK failure codes (spec §6.3).
// ROOM_FULL and NICKNAME_TAKEN are defined for wire compatibility but the
// reference server never emits them (DESIGN.md open question 3).
type JoinAckErrorCode string

const (
	ErrRoomFull       JoinAckErrorCode = "ROOM_FULL"
	ErrInvalidToken   JoinAckErrorCode = "INVALID_TOKEN"
	ErrNicknameTaken  JoinAckErrorCode = "NICKNAME_TAKEN"
)

// JoinPayload is the C→S payload for JOIN (spec §6.3).
type JoinPayload struct {
	PlayerID        string `json:"playerId"`
	Event           string `json:"event"`
	DisplayName     string `json:"displayName,omitempty"`
	ReconnectToken  string `json:"reconnectToken,omitempty"`
}

// LeavePayload is the C→S / broadcast payload for LEAVE.
type LeavePayload struct {
	PlayerID string `json:"playerId"`
	Event    string `json:"event"`
}

// JoinRoomAckPayload is the S→C payload for JOIN_ROOM_ACK.
type JoinRoomAckPayload struct {
	Success        bool             `json:"success"`
	PlayerID       string           `json:"playerId,omitempty"`
	ReconnectToken string           `json:"reconnectToken,omitempty"`
	ErrorCode      JoinAckErrorCode `json:"errorCode,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
}

// SetReadyPayload is the C→S payload for SET_READY.
type SetReadyPayload struct {
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

// LobbyPlayer is one entry of LOBBY_STATE.players.
type LobbyPlayer struct {
	PlayerID    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	IsReady     bool   `json:"isReady"`
	IsConnected bool   `json:"isConnected"`
}

// LobbyStatePayload is the broadcast payload for LOBBY_STATE.
type LobbyStatePayload struct {
	Players  []LobbyPlayer `json:"players"`
	CanStart bool          `json:"canStart"`
}

// ActionPayload is the C→S payload for ACTION.
type ActionPayload struct {
	PlayerID        string                 `json:"playerId"`
	ActionType      string                 `json:"actionType"`
	Data            map[string]interface{} `json:"data"`
	ClientActionID  string                 `json:"clientActionId,omitempty"`
}

// ActionRejectedPayload is the sender-only payload for ACTION_REJECTED.
type ActionRejectedPayload struct {
	Reason         string        `json:"reason"`
	Code           RejectionCode `json:"code"`
	ClientActionID string        `json:"clientActionId,omitempty"`
}

// BoardViewPayload wraps a rules-pack-defined board view (spec §4.4, H1).
type BoardViewPayload struct {
	BoardView interface{} `json:"boardView"`
}

// PlayerViewPayload wraps a rules-pack-defined player view (spec §4.4, H1).
type PlayerViewPayload struct {
	PlayerView interface{} `json:"playerView"`
}

// PingPayload is the C→S payload for PING.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// PongPayload is the S→C echo payload for PONG.
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorPayload is the S→C payload for ERROR.
type ErrorPayload struct {
	Reason string `json:"reason"`
}

// StateUpdatePayload is the legacy lobby-phase fallback broadcast payload.
// Never emitted by the in-game pipeline (spec §4.7.8); kept only because the
// wire type is part of the closed set in §6.2.
type StateUpdatePayload struct {
	State       interface{} `json:"state"`
	TriggeredBy string      `json:"triggeredBy,omitempty"`
}

// StartGamePayload is the out-of-band control payload for START_GAME.
type StartGamePayload struct {
	PackID string `json:"packId,omitempty"`
}
