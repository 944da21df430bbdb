package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/gamehub/game"
)

// Inbound event names.
const (
	EventCreateGame      = "createGame"
	EventJoinGame        = "joinGame"
	EventStartGame       = "startGame"
	EventPauseGame       = "pauseGame"
	EventResumeGame      = "resumeGame"
	EventMakeMove        = "makeMove"
	EventUseHint         = "useHint"
	EventPlaceShip       = "placeShip"
	EventResetBoard      = "resetBoard"
	EventResetBattleship = "resetBattleshipGame"
	EventLeaveGame       = "leaveGame"
	EventChatMessage     = "chatMessage"
)

// Outbound event names.
const (
	EventGameCreated        = "gameCreated"
	EventGameJoined         = "gameJoined"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventHostChanged        = "hostChanged"
	EventGameStarted        = "gameStarted"
	EventGamePaused         = "gamePaused"
	EventGameResumed        = "gameResumed"
	EventHintUsed           = "hintUsed"
	EventBoardReset         = "boardReset"
	EventShipPlaced         = "shipPlaced"
	EventPlayerReady        = "playerReady"
	EventBattleshipReset    = "battleshipReset"
	EventGameFinished       = "gameFinished"
	EventAvailableGames     = "availableGames"
	EventSupportedGameTypes = "supportedGameTypes"
	EventError              = "error"
	EventInvalidMove        = "invalidMove"
)

// Event is an inbound action addressed to the sender's current session.
type Event interface {
	Name() string
}

type StartGame struct{}
type PauseGame struct{}
type ResumeGame struct{}
type ResetBoard struct{}
type ResetBattleship struct{}

// MakeMove carries the raw move; it is decoded against the session's type.
type MakeMove struct {
	Data json.RawMessage
}

type UseHint struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type PlaceShip struct {
	ShipName    string `json:"shipName"`
	StartRow    int    `json:"startRow"`
	StartCol    int    `json:"startCol"`
	Orientation string `json:"orientation"`
}

type hintPayload struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type placePayload struct {
	ShipName    *string `json:"shipName"`
	StartRow    *int    `json:"startRow"`
	StartCol    *int    `json:"startCol"`
	Orientation *string `json:"orientation"`
}

// DecodeUseHint parses a useHint body. Absent coordinates are rejected
// rather than read as cell (0,0).
func DecodeUseHint(raw []byte) (UseHint, error) {
	var p hintPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return UseHint{}, fmt.Errorf("%w: %v", game.ErrInvalidRequest, err)
	}
	if p.Row == nil || p.Col == nil {
		return UseHint{}, fmt.Errorf("%w: row and col are required", game.ErrInvalidRequest)
	}
	return UseHint{Row: *p.Row, Col: *p.Col}, nil
}

// DecodePlaceShip parses a placeShip body; every field is required.
func DecodePlaceShip(raw []byte) (PlaceShip, error) {
	var p placePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PlaceShip{}, fmt.Errorf("%w: %v", game.ErrInvalidRequest, err)
	}
	if p.ShipName == nil || p.StartRow == nil || p.StartCol == nil || p.Orientation == nil {
		return PlaceShip{}, fmt.Errorf("%w: shipName, startRow, startCol and orientation are required", game.ErrInvalidRequest)
	}
	return PlaceShip{
		ShipName:    *p.ShipName,
		StartRow:    *p.StartRow,
		StartCol:    *p.StartCol,
		Orientation: *p.Orientation,
	}, nil
}

func (StartGame) Name() string       { return EventStartGame }
func (PauseGame) Name() string       { return EventPauseGame }
func (ResumeGame) Name() string      { return EventResumeGame }
func (ResetBoard) Name() string      { return EventResetBoard }
func (ResetBattleship) Name() string { return EventResetBattleship }
func (MakeMove) Name() string        { return EventMakeMove }
func (UseHint) Name() string         { return EventUseHint }
func (PlaceShip) Name() string       { return EventPlaceShip }

// hostOnly reports events that only the session host may send.
func hostOnly(e Event) bool {
	switch e.(type) {
	case StartGame, PauseGame, ResumeGame, ResetBoard, ResetBattleship:
		return true
	}
	return false
}

// SessionPayload answers gameCreated and gameJoined.
type SessionPayload struct {
	SessionID string        `json:"sessionId"`
	PlayerID  string        `json:"playerId"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

// PlayerPayload carries playerJoined and playerLeft.
type PlayerPayload struct {
	Player   game.Player   `json:"player"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type HostPayload struct {
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
}

// StatePayload carries lifecycle and reset events.
type StatePayload struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

// MovePayload carries a move, hint or shot result.
type MovePayload struct {
	PlayerID string        `json:"playerId"`
	Result   any           `json:"result"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type ReadyPayload struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type FinishedPayload struct {
	WinnerID   string        `json:"winnerId,omitempty"`
	WinnerName string        `json:"winnerName,omitempty"`
	Reason     string        `json:"reason"`
	Snapshot   game.Snapshot `json:"snapshot"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InvalidMovePayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

type ChatPayload struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}
