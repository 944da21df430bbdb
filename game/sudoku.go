package game

import (
	"time"

	"github.com/wfunc/gamehub/puzzle"
	"github.com/wfunc/gamehub/state"
)

const (
	sudokuMaxPlayers   = 4
	sudokuHints        = 3
	sudokuCorrectScore = 10
	sudokuWrongPenalty = 2
	sudokuHintPenalty  = 5
)

// Sudoku is a race on a shared puzzle; each player fills a private copy.
type Sudoku struct {
	*base
	puzzle   *puzzle.Puzzle
	progress map[string]*sudokuProgress
}

type sudokuProgress struct {
	grid        puzzle.Grid
	hintsLeft   int
	correct     int
	incorrect   int
	completedAt time.Time
}

// SudokuMoveData is the payload of a moveUpdate or hintUsed event.
type SudokuMoveData struct {
	PlayerID   string  `json:"playerId"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Value      int     `json:"value"`
	Correct    bool    `json:"correct"`
	Score      int     `json:"score"`
	Completion float64 `json:"completion"`
	HintsLeft  int     `json:"hintsLeft"`
	// Conflicts lists cells of the player's grid that repeat a value in
	// their row, column or box.
	Conflicts []puzzle.Cell `json:"conflicts,omitempty"`
}

type sudokuPlayerView struct {
	Completion float64 `json:"completion"`
	HintsLeft  int     `json:"hintsLeft"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Empty      int     `json:"empty"`
	Completed  bool    `json:"completed"`
}

type sudokuView struct {
	Difficulty puzzle.Difficulty            `json:"difficulty"`
	Board      puzzle.Grid                  `json:"board"`
	Solution   *puzzle.Grid                 `json:"solution,omitempty"`
	Players    map[string]*sudokuPlayerView `json:"players"`
}

func NewSudoku(id string, p *puzzle.Puzzle, clock func() time.Time) *Sudoku {
	s := &Sudoku{
		base:     newBase(id, TypeSudoku, 1, sudokuMaxPlayers, clock),
		puzzle:   p,
		progress: make(map[string]*sudokuProgress),
	}
	s.standings = s.computeLeaderboard
	return s
}

func (s *Sudoku) AddPlayer(id, name string) bool {
	if _, ok := s.addPlayer(id, name); !ok {
		return false
	}
	s.progress[id] = &sudokuProgress{grid: s.puzzle.Board, hintsLeft: sudokuHints}
	return true
}

func (s *Sudoku) RemovePlayer(id string) {
	if s.removePlayer(id) {
		delete(s.progress, id)
	}
}

func (s *Sudoku) MakeMove(playerID string, m Move) MoveResult {
	mv, ok := m.(CellMove)
	if !ok {
		return rejected("invalid move for sudoku")
	}
	p, prog, reason := s.actor(playerID, mv.Row, mv.Col)
	if reason != "" {
		return rejected(reason)
	}
	if mv.Value < 1 || mv.Value > puzzle.Size {
		return rejected("value must be between 1 and 9")
	}
	if prog.grid[mv.Row][mv.Col] == mv.Value {
		return rejected("cell already holds that value")
	}

	prog.grid[mv.Row][mv.Col] = mv.Value
	correct := mv.Value == s.puzzle.Solution[mv.Row][mv.Col]
	if correct {
		p.Score += sudokuCorrectScore
		prog.correct++
	} else {
		p.Score = max(0, p.Score-sudokuWrongPenalty)
		prog.incorrect++
	}

	data := s.moveData(p, prog, mv.Row, mv.Col, mv.Value, correct)
	s.record(playerID, "move", data)
	return s.afterWrite(p, prog, data)
}

// UseHint fills the correct value for a cell at a flat score cost.
func (s *Sudoku) UseHint(playerID string, row, col int) MoveResult {
	p, prog, reason := s.actor(playerID, row, col)
	if reason != "" {
		return rejected(reason)
	}
	want := s.puzzle.Solution[row][col]
	if prog.grid[row][col] == want {
		return rejected("cell is already correct")
	}
	if prog.hintsLeft <= 0 {
		return rejected("no hints remaining")
	}

	prog.grid[row][col] = want
	prog.hintsLeft--
	p.Score = max(0, p.Score-sudokuHintPenalty)

	data := s.moveData(p, prog, row, col, want, true)
	s.record(playerID, "hint", data)
	return s.afterWrite(p, prog, data)
}

// actor resolves the mover and checks the target cell is writable.
func (s *Sudoku) actor(playerID string, row, col int) (*Player, *sudokuProgress, string) {
	if !s.machine.Is(state.Playing) {
		return nil, nil, "game is not in progress"
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, nil, "player not in game"
	}
	if row < 0 || row >= puzzle.Size || col < 0 || col >= puzzle.Size {
		return nil, nil, "cell out of bounds"
	}
	if s.puzzle.IsClue(row, col) {
		return nil, nil, "cannot change a clue cell"
	}
	return p, s.progress[playerID], ""
}

func (s *Sudoku) afterWrite(p *Player, prog *sudokuProgress, data SudokuMoveData) MoveResult {
	res := MoveResult{Success: true, Data: data}
	if prog.grid == s.puzzle.Solution {
		prog.completedAt = s.clock()
		_ = s.EndGame(p.ID)
		res.GameOver = true
	}
	return res
}

func (s *Sudoku) moveData(p *Player, prog *sudokuProgress, row, col, value int, correct bool) SudokuMoveData {
	return SudokuMoveData{
		PlayerID:   p.ID,
		Row:        row,
		Col:        col,
		Value:      value,
		Correct:    correct,
		Score:      p.Score,
		Completion: s.completion(prog),
		HintsLeft:  prog.hintsLeft,
		Conflicts:  puzzle.Validate(&prog.grid),
	}
}

// completion is the percentage of cells matching the solution, clues included.
func (s *Sudoku) completion(prog *sudokuProgress) float64 {
	n := 0
	for r := 0; r < puzzle.Size; r++ {
		for c := 0; c < puzzle.Size; c++ {
			if prog.grid[r][c] == s.puzzle.Solution[r][c] {
				n++
			}
		}
	}
	return 100 * ratio(n, puzzle.Size*puzzle.Size)
}

// CheckWinCondition reports the earliest player whose grid is solved.
func (s *Sudoku) CheckWinCondition() Outcome {
	if s.machine.Is(state.Finished) {
		return Outcome{Over: true, WinnerID: s.winnerID}
	}
	var winner string
	var at time.Time
	for _, id := range s.order {
		prog := s.progress[id]
		if prog.grid != s.puzzle.Solution {
			continue
		}
		if winner == "" || prog.completedAt.Before(at) {
			winner, at = id, prog.completedAt
		}
	}
	return Outcome{Over: winner != "", WinnerID: winner}
}

func (s *Sudoku) computeLeaderboard() []Standing {
	now := s.now()
	rows := make([]Standing, 0, len(s.order))
	for _, id := range s.order {
		p, prog := s.players[id], s.progress[id]
		row := standingFor(p)
		row.Completion = s.completion(prog)
		row.HintsLeft = prog.hintsLeft
		end := now
		if !prog.completedAt.IsZero() {
			end = prog.completedAt
			row.Finished = true
		}
		row.ElapsedMs = s.elapsed(end).Milliseconds()
		rows = append(rows, row)
	}
	return rank(rows, func(a, b *Standing) int {
		return chain(
			desc(a.Completion, b.Completion),
			desc(a.Score, b.Score),
			asc(a.ElapsedMs, b.ElapsedMs),
		)
	})
}

func (s *Sudoku) Summary() Summary {
	return s.summary(map[string]any{"difficulty": s.puzzle.Difficulty})
}

// Snapshot exposes the solution only after the game has ended.
func (s *Sudoku) Snapshot() Snapshot {
	view := sudokuView{
		Difficulty: s.puzzle.Difficulty,
		Board:      s.puzzle.Board,
		Players:    make(map[string]*sudokuPlayerView, len(s.progress)),
	}
	if s.machine.Is(state.Finished) {
		sol := s.puzzle.Solution
		view.Solution = &sol
	}
	for id, prog := range s.progress {
		view.Players[id] = &sudokuPlayerView{
			Completion: s.completion(prog),
			HintsLeft:  prog.hintsLeft,
			Correct:    prog.correct,
			Incorrect:  prog.incorrect,
			Empty:      puzzle.CountZeros(&prog.grid),
			Completed:  !prog.completedAt.IsZero(),
		}
	}
	return s.snapshot(view)
}

// Progress returns a copy of the player's grid.
func (s *Sudoku) Progress(playerID string) (puzzle.Grid, bool) {
	prog, ok := s.progress[playerID]
	if !ok {
		return puzzle.Grid{}, false
	}
	return prog.grid, true
}

// Puzzle returns the shared puzzle.
func (s *Sudoku) Puzzle() *puzzle.Puzzle {
	return s.puzzle
}
