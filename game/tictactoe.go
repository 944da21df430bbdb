package game

import (
	"fmt"
	"time"

	"github.com/wfunc/gamehub/state"
)

const (
	SymbolX = "X"
	SymbolO = "O"

	tttWinScore  = 10
	tttDrawScore = 2
)

// lines lists the 3 rows, 3 columns and 2 diagonals.
var lines = [8][3]Coord{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// TicTacToe is a two-player 3x3 game played over repeated rounds.
type TicTacToe struct {
	*base
	board   [3][3]string
	symbols map[string]string
	stats   map[string]*tttStats
	current string
	last    Outcome
}

type tttStats struct {
	wins, losses, draws, games int
}

// TicTacToeMoveData is the payload of a ticTacToeMove event.
type TicTacToeMoveData struct {
	PlayerID      string  `json:"playerId"`
	Row           int     `json:"row"`
	Col           int     `json:"col"`
	Symbol        string  `json:"symbol"`
	CurrentPlayer string  `json:"currentPlayer,omitempty"`
	Outcome       Outcome `json:"outcome"`
}

type tttView struct {
	Board         [3][3]string      `json:"board"`
	Symbols       map[string]string `json:"symbols"`
	CurrentPlayer string            `json:"currentPlayer,omitempty"`
	Round         int               `json:"round"`
	LastOutcome   *Outcome          `json:"lastOutcome,omitempty"`
}

func NewTicTacToe(id string, clock func() time.Time) *TicTacToe {
	t := &TicTacToe{
		base:    newBase(id, TypeTicTacToe, 2, 2, clock),
		symbols: make(map[string]string),
		stats:   make(map[string]*tttStats),
	}
	t.standings = t.computeLeaderboard
	t.machine.AddTransition(state.Finished, state.Waiting, nil)
	t.machine.OnEnter(state.Playing, func(from state.Phase) {
		if from == state.Waiting {
			t.current = t.holder(SymbolX)
		}
	})
	return t
}

// AddPlayer gives X to the first player and O to the second.
func (t *TicTacToe) AddPlayer(id, name string) bool {
	if _, ok := t.addPlayer(id, name); !ok {
		return false
	}
	sym := SymbolX
	if t.holder(SymbolX) != "" {
		sym = SymbolO
	}
	t.symbols[id] = sym
	t.stats[id] = &tttStats{}
	return true
}

func (t *TicTacToe) RemovePlayer(id string) {
	if !t.removePlayer(id) {
		return
	}
	delete(t.symbols, id)
	delete(t.stats, id)
	if t.current == id {
		t.current = ""
	}
}

func (t *TicTacToe) holder(symbol string) string {
	for _, id := range t.order {
		if t.symbols[id] == symbol {
			return id
		}
	}
	return ""
}

func (t *TicTacToe) Symbol(playerID string) string {
	return t.symbols[playerID]
}

func (t *TicTacToe) CurrentPlayer() string {
	return t.current
}

func (t *TicTacToe) MakeMove(playerID string, m Move) MoveResult {
	mv, ok := m.(MarkMove)
	if !ok {
		return rejected("invalid move for tic-tac-toe")
	}
	if !t.machine.Is(state.Playing) {
		return rejected("game is not in progress")
	}
	if _, ok := t.players[playerID]; !ok {
		return rejected("player not in game")
	}
	if t.current != playerID {
		return rejected("not your turn")
	}
	if mv.Row < 0 || mv.Row > 2 || mv.Col < 0 || mv.Col > 2 {
		return rejected("cell out of bounds")
	}
	if t.board[mv.Row][mv.Col] != "" {
		return rejected("cell is already taken")
	}

	sym := t.symbols[playerID]
	t.board[mv.Row][mv.Col] = sym
	data := TicTacToeMoveData{PlayerID: playerID, Row: mv.Row, Col: mv.Col, Symbol: sym}
	t.record(playerID, "move", Coord{mv.Row, mv.Col})

	outcome := t.CheckWinCondition()
	data.Outcome = outcome
	if outcome.Over {
		t.settle(outcome)
		t.current = ""
		_ = t.EndGame(outcome.WinnerID)
		return MoveResult{Success: true, Data: data, GameOver: true}
	}

	t.current = t.opponent(playerID)
	data.CurrentPlayer = t.current
	return MoveResult{Success: true, Data: data}
}

func (t *TicTacToe) opponent(id string) string {
	for _, pid := range t.order {
		if pid != id {
			return pid
		}
	}
	return ""
}

// CheckWinCondition scans every line for three equal symbols; a full board
// without one is a draw.
func (t *TicTacToe) CheckWinCondition() Outcome {
	for _, line := range lines {
		a := t.board[line[0].Row][line[0].Col]
		if a == "" {
			continue
		}
		if a == t.board[line[1].Row][line[1].Col] && a == t.board[line[2].Row][line[2].Col] {
			return Outcome{Over: true, WinnerID: t.holder(a), Line: line[:]}
		}
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if t.board[r][c] == "" {
				return Outcome{}
			}
		}
	}
	return Outcome{Over: true, Draw: true}
}

func (t *TicTacToe) settle(o Outcome) {
	t.last = o
	for id, st := range t.stats {
		st.games++
		switch {
		case o.Draw:
			st.draws++
			t.players[id].Score += tttDrawScore
		case id == o.WinnerID:
			st.wins++
			t.players[id].Score += tttWinScore
		default:
			st.losses++
		}
	}
}

// Forfeit ends the round in winnerID's favour and counts it in the series
// stats like a won round.
func (t *TicTacToe) Forfeit(winnerID string) error {
	if cur := t.machine.Current(); cur != state.Playing && cur != state.Paused {
		return fmt.Errorf("%w: cannot forfeit a %s game", ErrInvalidState, cur)
	}
	t.settle(Outcome{Over: true, WinnerID: winnerID})
	t.current = ""
	return t.EndGame(winnerID)
}

// Reset starts another round: the board is cleared, symbols swap and play
// resumes immediately when both players are seated.
func (t *TicTacToe) Reset() error {
	switch cur := t.machine.Current(); cur {
	case state.Finished:
		if err := t.transition(state.Waiting); err != nil {
			return err
		}
	case state.Waiting:
	default:
		return fmt.Errorf("%w: cannot reset a %s game", ErrInvalidState, cur)
	}

	t.board = [3][3]string{}
	t.resetRound()
	t.current = ""
	for id, sym := range t.symbols {
		if sym == SymbolX {
			t.symbols[id] = SymbolO
		} else {
			t.symbols[id] = SymbolX
		}
	}
	if len(t.players) == t.maxPlayers {
		return t.Start()
	}
	return nil
}

func (t *TicTacToe) computeLeaderboard() []Standing {
	rows := make([]Standing, 0, len(t.order))
	for _, id := range t.order {
		st := t.stats[id]
		row := standingFor(t.players[id])
		row.Wins, row.Losses, row.Draws = st.wins, st.losses, st.draws
		row.WinRate = ratio(st.wins, st.games)
		rows = append(rows, row)
	}
	return rank(rows, func(a, b *Standing) int {
		return chain(
			desc(a.Wins, b.Wins),
			desc(a.Score, b.Score),
			desc(a.WinRate, b.WinRate),
		)
	})
}

func (t *TicTacToe) Summary() Summary {
	return t.summary(map[string]any{"round": t.round})
}

func (t *TicTacToe) Snapshot() Snapshot {
	view := tttView{
		Board:         t.board,
		Symbols:       make(map[string]string, len(t.symbols)),
		CurrentPlayer: t.current,
		Round:         t.round,
	}
	for id, sym := range t.symbols {
		view.Symbols[id] = sym
	}
	if t.last.Over {
		last := t.last
		view.LastOutcome = &last
	}
	return t.snapshot(view)
}
