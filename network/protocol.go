package network

// Client -> server.
const (
	MsgTypeHeartbeat             = 1
	MsgTypeCreateGame            = 101
	MsgTypeJoinGame              = 102
	MsgTypeLeaveGame             = 103
	MsgTypeGetAvailableGames     = 104
	MsgTypeGetSupportedGameTypes = 105
	MsgTypeStartGame             = 201
	MsgTypePauseGame             = 202
	MsgTypeResumeGame            = 203
	MsgTypeMakeMove              = 204
	MsgTypeUseHint               = 205
	MsgTypePlaceShip             = 206
	MsgTypeResetBoard            = 207
	MsgTypeResetBattleship       = 208
	MsgTypeChatMessage           = 209
)

// Server -> client. Heartbeat and chat reuse their inbound ids.
const (
	MsgTypeGameCreated        = 301
	MsgTypeGameJoined         = 302
	MsgTypePlayerJoined       = 303
	MsgTypePlayerLeft         = 304
	MsgTypeHostChanged        = 305
	MsgTypeGameStarted        = 306
	MsgTypeGamePaused         = 307
	MsgTypeGameResumed        = 308
	MsgTypeGameFinished       = 309
	MsgTypeMoveUpdate         = 401
	MsgTypeHintUsed           = 402
	MsgTypeTicTacToeMove      = 403
	MsgTypeBoardReset         = 404
	MsgTypeShipPlaced         = 405
	MsgTypePlayerReady        = 406
	MsgTypeShotFired          = 407
	MsgTypeBattleshipReset    = 408
	MsgTypeTypingUpdate       = 409
	MsgTypeAvailableGames     = 501
	MsgTypeSupportedGameTypes = 502
	MsgTypeError              = 601
	MsgTypeInvalidMove        = 602
)

var outbound = map[string]uint16{
	"heartbeat":          MsgTypeHeartbeat,
	"chatMessage":        MsgTypeChatMessage,
	"gameCreated":        MsgTypeGameCreated,
	"gameJoined":         MsgTypeGameJoined,
	"playerJoined":       MsgTypePlayerJoined,
	"playerLeft":         MsgTypePlayerLeft,
	"hostChanged":        MsgTypeHostChanged,
	"gameStarted":        MsgTypeGameStarted,
	"gamePaused":         MsgTypeGamePaused,
	"gameResumed":        MsgTypeGameResumed,
	"gameFinished":       MsgTypeGameFinished,
	"moveUpdate":         MsgTypeMoveUpdate,
	"hintUsed":           MsgTypeHintUsed,
	"ticTacToeMove":      MsgTypeTicTacToeMove,
	"boardReset":         MsgTypeBoardReset,
	"shipPlaced":         MsgTypeShipPlaced,
	"playerReady":        MsgTypePlayerReady,
	"shotFired":          MsgTypeShotFired,
	"battleshipReset":    MsgTypeBattleshipReset,
	"typingUpdate":       MsgTypeTypingUpdate,
	"availableGames":     MsgTypeAvailableGames,
	"supportedGameTypes": MsgTypeSupportedGameTypes,
	"error":              MsgTypeError,
	"invalidMove":        MsgTypeInvalidMove,
}

var names = func() map[uint16]string {
	m := map[uint16]string{
		MsgTypeCreateGame:            "createGame",
		MsgTypeJoinGame:              "joinGame",
		MsgTypeLeaveGame:             "leaveGame",
		MsgTypeGetAvailableGames:     "getAvailableGames",
		MsgTypeGetSupportedGameTypes: "getSupportedGameTypes",
		MsgTypeStartGame:             "startGame",
		MsgTypePauseGame:             "pauseGame",
		MsgTypeResumeGame:            "resumeGame",
		MsgTypeMakeMove:              "makeMove",
		MsgTypeUseHint:               "useHint",
		MsgTypePlaceShip:             "placeShip",
		MsgTypeResetBoard:            "resetBoard",
		MsgTypeResetBattleship:       "resetBattleshipGame",
	}
	for name, id := range outbound {
		m[id] = name
	}
	return m
}()

// OutboundID returns the message id for an outbound event name.
func OutboundID(event string) (uint16, bool) {
	id, ok := outbound[event]
	return id, ok
}

// Name returns the event name for a message id, or "" when unknown.
func Name(msgID uint16) string {
	return names[msgID]
}
