package game

import (
	"time"

	"github.com/wfunc/gamehub/state"
)

// Type tags a game variant.
type Type string

const (
	TypeSudoku     Type = "sudoku"
	TypeTicTacToe  Type = "tictactoe"
	TypeBattleship Type = "battleship"
	TypeTyping     Type = "typing"
)

// Session is one running game. Implementations are not safe for concurrent
// use; the registry serializes every call.
type Session interface {
	ID() string
	Type() Type
	State() state.Phase
	CreatedAt() time.Time

	HostID() string
	SetHost(playerID string) bool
	MinPlayers() int
	MaxPlayers() int
	PlayerCount() int
	PlayerIDs() []string
	Player(id string) (Player, bool)
	AddPlayer(id, name string) bool
	RemovePlayer(id string)
	Touch(id string, at time.Time)
	IdleSince(cutoff time.Time) bool

	Start() error
	Pause() error
	Resume() error
	MakeMove(playerID string, m Move) MoveResult
	CheckWinCondition() Outcome
	EndGame(winnerID string) error
	Winner() (Player, bool)

	Leaderboard() []Standing
	Summary() Summary
	Snapshot() Snapshot
	Result() Result
}

// Hinter is implemented by variants that offer hints.
type Hinter interface {
	UseHint(playerID string, row, col int) MoveResult
}

// ShipPlacer is implemented by variants with a private setup phase.
type ShipPlacer interface {
	PlaceShip(playerID, shipName string, row, col int, o Orientation) MoveResult
}

// Resetter is implemented by variants that can start a fresh round in the
// same session.
type Resetter interface {
	Reset() error
}

// Forfeiter is implemented by variants that settle their own scores when a
// game is abandoned mid-round.
type Forfeiter interface {
	Forfeit(winnerID string) error
}

// Deadliner is implemented by variants that end on a timer. Expire is a
// no-op unless the deadline is due and still relevant.
type Deadliner interface {
	Deadline() (time.Time, bool)
	Expire(now time.Time) bool
}

// Player is the roster entry shared by all variants.
type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	Score      int       `json:"score"`
	JoinedAt   time.Time `json:"joinedAt"`
	LastActive time.Time `json:"-"`
}

// Coord addresses a board cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// HistoryEntry is one accepted action.
type HistoryEntry struct {
	Seq      int       `json:"seq"`
	PlayerID string    `json:"playerId"`
	Action   string    `json:"action"`
	Data     any       `json:"data,omitempty"`
	At       time.Time `json:"at"`
}

// MoveResult reports a move; on failure Reason is set and nothing changed.
type MoveResult struct {
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
	Data     any    `json:"data,omitempty"`
	GameOver bool   `json:"gameOver,omitempty"`
}

func rejected(reason string) MoveResult {
	return MoveResult{Reason: reason}
}

// Outcome is a read-only evaluation of the board.
type Outcome struct {
	Over     bool    `json:"over"`
	WinnerID string  `json:"winnerId,omitempty"`
	Draw     bool    `json:"draw,omitempty"`
	Line     []Coord `json:"line,omitempty"`
}

// Standing is one leaderboard row. Only the fields a variant ranks by are set.
type Standing struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"playerId"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Completion float64 `json:"completion,omitempty"`
	ElapsedMs  int64   `json:"elapsedMs,omitempty"`
	HintsLeft  int     `json:"hintsLeft,omitempty"`
	Wins       int     `json:"wins,omitempty"`
	Losses     int     `json:"losses,omitempty"`
	Draws      int     `json:"draws,omitempty"`
	WinRate    float64 `json:"winRate,omitempty"`
	Hits       int     `json:"hits,omitempty"`
	Shots      int     `json:"shots,omitempty"`
	ShipsSunk  int     `json:"shipsSunk,omitempty"`
	Accuracy   float64 `json:"accuracy,omitempty"`
	WPM        float64 `json:"wpm,omitempty"`
	Progress   float64 `json:"progress,omitempty"`
	Finished   bool    `json:"finished,omitempty"`
}

// Summary is the public listing view; it never carries hidden state.
type Summary struct {
	SessionID   string      `json:"sessionId"`
	Type        Type        `json:"type"`
	HostName    string      `json:"hostName"`
	PlayerCount int         `json:"playerCount"`
	MaxPlayers  int         `json:"maxPlayers"`
	State       state.Phase `json:"state"`
	CreatedAt   time.Time   `json:"createdAt"`
	Details     any         `json:"details,omitempty"`
}

// Snapshot is the per-session broadcast payload.
type Snapshot struct {
	ID          string      `json:"id"`
	Type        Type        `json:"type"`
	State       state.Phase `json:"state"`
	HostID      string      `json:"hostId"`
	MinPlayers  int         `json:"minPlayers"`
	MaxPlayers  int         `json:"maxPlayers"`
	Players     []Player    `json:"players"`
	Leaderboard []Standing  `json:"leaderboard"`
	MoveCount   int         `json:"moveCount"`
	WinnerID    string      `json:"winnerId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	EndedAt     *time.Time  `json:"endedAt,omitempty"`
	Game        any         `json:"game,omitempty"`
}

// Result is an immutable record of a finished session.
type Result struct {
	SessionID string
	// Round counts starts of this session; replays archive separately.
	Round      int
	Type       Type
	WinnerID   string
	WinnerName string
	Standings  []Standing
	Moves      int
	StartedAt  time.Time
	EndedAt    time.Time
}
