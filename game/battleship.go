package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/wfunc/gamehub/state"
)

const (
	BoardSize = 10

	hitScore  = 10
	sinkScore = 50
)

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ParseOrientation accepts the long names and h/v.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "horizontal", "h", "H":
		return Horizontal, nil
	case "vertical", "v", "V":
		return Vertical, nil
	}
	return "", fmt.Errorf("%w: unknown orientation %q", ErrInvalidRequest, s)
}

// ShipSpec names a ship and its length.
type ShipSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Fleet is the set of ships every player places.
var Fleet = []ShipSpec{
	{"carrier", 5},
	{"battleship", 4},
	{"cruiser", 3},
	{"submarine", 3},
	{"destroyer", 2},
}

func shipSize(name string) (int, bool) {
	for _, s := range Fleet {
		if s.Name == name {
			return s.Size, true
		}
	}
	return 0, false
}

// ShipCells expands an anchor and orientation into coordinates.
func ShipCells(size, row, col int, o Orientation) []Coord {
	cells := make([]Coord, size)
	for i := range cells {
		if o == Vertical {
			cells[i] = Coord{row + i, col}
		} else {
			cells[i] = Coord{row, col + i}
		}
	}
	return cells
}

type ship struct {
	name  string
	cells []Coord
	hits  map[Coord]bool
}

func (s *ship) sunk() bool {
	return len(s.hits) == len(s.cells)
}

// Board is one player's private fleet plus the shots that player fired.
type Board struct {
	ships    map[string]*ship
	occupied map[Coord]string
	shots    map[Coord]bool // coord -> hit
	hits     int
	misses   int
	sunk     int
	lastShot time.Time
}

func NewBoard() *Board {
	return &Board{
		ships:    make(map[string]*ship),
		occupied: make(map[Coord]string),
		shots:    make(map[Coord]bool),
	}
}

// CanPlaceShip reports whether a ship of size fits at the anchor without
// leaving the board or touching a ship already placed on it.
func (b *Board) CanPlaceShip(size, row, col int, o Orientation) bool {
	if size <= 0 {
		return false
	}
	for _, c := range ShipCells(size, row, col, o) {
		if c.Row < 0 || c.Row >= BoardSize || c.Col < 0 || c.Col >= BoardSize {
			return false
		}
		if _, taken := b.occupied[c]; taken {
			return false
		}
	}
	return true
}

func (b *Board) place(name string, cells []Coord) {
	s := &ship{name: name, cells: cells, hits: make(map[Coord]bool)}
	b.ships[name] = s
	for _, c := range cells {
		b.occupied[c] = name
	}
}

func (b *Board) ready() bool {
	return len(b.ships) == len(Fleet)
}

func (b *Board) destroyed() bool {
	if !b.ready() {
		return false
	}
	for _, s := range b.ships {
		if !s.sunk() {
			return false
		}
	}
	return true
}

// Battleship is two-player naval combat: private setup, then alternating
// shots where a hit keeps the turn.
type Battleship struct {
	*base
	boards  map[string]*Board
	current string
	rng     *rand.Rand
}

// PlacementData is the payload of a shipPlaced event; only the owner sees it.
type PlacementData struct {
	Ship          string   `json:"ship"`
	Cells         []Coord  `json:"cells"`
	Ready         bool     `json:"ready"`
	Remaining     []string `json:"remaining"`
	BattleStarted bool     `json:"battleStarted"`
}

// ShotData is the payload of a shotFired event.
type ShotData struct {
	PlayerID      string `json:"playerId"`
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	Hit           bool   `json:"hit"`
	Sunk          string `json:"sunk,omitempty"`
	Score         int    `json:"score"`
	CurrentPlayer string `json:"currentPlayer,omitempty"`
}

type shotView struct {
	Row int  `json:"row"`
	Col int  `json:"col"`
	Hit bool `json:"hit"`
}

type fleetView struct {
	Ready     bool               `json:"ready"`
	Placed    []string           `json:"placed"`
	Shots     []shotView         `json:"shots"`
	SunkShips []string           `json:"sunkShips"`
	Ships     map[string][]Coord `json:"ships,omitempty"`
}

type battleshipView struct {
	Phase         string                `json:"phase"`
	BoardSize     int                   `json:"boardSize"`
	Fleet         []ShipSpec            `json:"fleet"`
	CurrentPlayer string                `json:"currentPlayer,omitempty"`
	Players       map[string]*fleetView `json:"players"`
}

func NewBattleship(id string, rng *rand.Rand, clock func() time.Time) *Battleship {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Battleship{
		base:   newBase(id, TypeBattleship, 2, 2, clock),
		boards: make(map[string]*Board),
		rng:    rng,
	}
	b.standings = b.computeLeaderboard
	b.startGuard = b.fleetsReady
	b.machine.AddTransition(state.Finished, state.Waiting, nil)
	b.machine.OnEnter(state.Playing, func(from state.Phase) {
		if from == state.Waiting {
			b.current = b.order[b.rng.Intn(len(b.order))]
		}
	})
	return b
}

func (b *Battleship) AddPlayer(id, name string) bool {
	if _, ok := b.addPlayer(id, name); !ok {
		return false
	}
	b.boards[id] = NewBoard()
	return true
}

func (b *Battleship) RemovePlayer(id string) {
	if !b.removePlayer(id) {
		return
	}
	delete(b.boards, id)
	if b.current == id {
		b.current = ""
	}
}

func (b *Battleship) fleetsReady() error {
	for _, id := range b.order {
		if !b.boards[id].ready() {
			return fmt.Errorf("%w: fleets are not ready", ErrInvalidState)
		}
	}
	return nil
}

// Phase names the nested combat phase.
func (b *Battleship) Phase() string {
	switch b.machine.Current() {
	case state.Waiting:
		return "setup"
	case state.Finished:
		return "over"
	default:
		return "battle"
	}
}

func (b *Battleship) CurrentPlayer() string {
	return b.current
}

// PlaceShip puts one of the player's ships on their board. The battle starts
// on its own once both fleets are complete.
func (b *Battleship) PlaceShip(playerID, shipName string, row, col int, o Orientation) MoveResult {
	if !b.machine.Is(state.Waiting) {
		return rejected("ships can only be placed during setup")
	}
	board, ok := b.boards[playerID]
	if !ok {
		return rejected("player not in game")
	}
	size, ok := shipSize(shipName)
	if !ok {
		return rejected("unknown ship " + shipName)
	}
	if _, placed := board.ships[shipName]; placed {
		return rejected(shipName + " is already placed")
	}
	if o != Horizontal && o != Vertical {
		return rejected("orientation must be horizontal or vertical")
	}
	if !board.CanPlaceShip(size, row, col, o) {
		return rejected("ship does not fit there")
	}

	cells := ShipCells(size, row, col, o)
	board.place(shipName, cells)
	b.record(playerID, "place", shipName)

	data := PlacementData{Ship: shipName, Cells: cells, Ready: board.ready()}
	for _, s := range Fleet {
		if _, placed := board.ships[s.Name]; !placed {
			data.Remaining = append(data.Remaining, s.Name)
		}
	}
	if data.Ready && len(b.players) == b.maxPlayers && b.Start() == nil {
		data.BattleStarted = true
	}
	return MoveResult{Success: true, Data: data}
}

func (b *Battleship) opponent(id string) string {
	for _, pid := range b.order {
		if pid != id {
			return pid
		}
	}
	return ""
}

// MakeMove fires a shot at the opponent's board.
func (b *Battleship) MakeMove(playerID string, m Move) MoveResult {
	mv, ok := m.(ShotMove)
	if !ok {
		return rejected("invalid move for battleship")
	}
	if !b.machine.Is(state.Playing) {
		return rejected("battle is not in progress")
	}
	mine, ok := b.boards[playerID]
	if !ok {
		return rejected("player not in game")
	}
	if b.current != playerID {
		return rejected("not your turn")
	}
	if mv.Row < 0 || mv.Row >= BoardSize || mv.Col < 0 || mv.Col >= BoardSize {
		return rejected("target out of bounds")
	}
	target := Coord{mv.Row, mv.Col}
	if _, fired := mine.shots[target]; fired {
		return rejected("already fired at that cell")
	}
	oppID := b.opponent(playerID)
	theirs := b.boards[oppID]

	data := ShotData{PlayerID: playerID, Row: mv.Row, Col: mv.Col}
	mine.lastShot = b.clock()
	name, hit := theirs.occupied[target]
	mine.shots[target] = hit
	if hit {
		s := theirs.ships[name]
		s.hits[target] = true
		mine.hits++
		data.Hit = true
		if s.sunk() {
			mine.sunk++
			data.Sunk = name
		}
	} else {
		mine.misses++
		b.current = oppID
	}

	p := b.players[playerID]
	p.Score = mine.hits*hitScore + mine.sunk*sinkScore
	data.Score = p.Score
	b.record(playerID, "shot", data)

	if theirs.destroyed() {
		b.current = ""
		_ = b.EndGame(playerID)
		return MoveResult{Success: true, Data: data, GameOver: true}
	}
	data.CurrentPlayer = b.current
	return MoveResult{Success: true, Data: data}
}

// CheckWinCondition reports a win for whoever destroyed the other fleet.
func (b *Battleship) CheckWinCondition() Outcome {
	for _, id := range b.order {
		opp := b.opponent(id)
		if opp != "" && b.boards[opp].destroyed() {
			return Outcome{Over: true, WinnerID: id}
		}
	}
	return Outcome{}
}

// Reset clears both fleets and returns to setup.
func (b *Battleship) Reset() error {
	switch cur := b.machine.Current(); cur {
	case state.Finished:
		if err := b.transition(state.Waiting); err != nil {
			return err
		}
	case state.Waiting:
	default:
		return fmt.Errorf("%w: cannot reset a %s game", ErrInvalidState, cur)
	}
	b.resetRound()
	b.current = ""
	for id, p := range b.players {
		b.boards[id] = NewBoard()
		p.Score = 0
	}
	return nil
}

func (b *Battleship) computeLeaderboard() []Standing {
	rows := make([]Standing, 0, len(b.order))
	for _, id := range b.order {
		board := b.boards[id]
		row := standingFor(b.players[id])
		row.Hits = board.hits
		row.Shots = board.hits + board.misses
		row.ShipsSunk = board.sunk
		row.Accuracy = 100 * ratio(board.hits, row.Shots)
		if !board.lastShot.IsZero() {
			row.ElapsedMs = b.elapsed(board.lastShot).Milliseconds()
		}
		rows = append(rows, row)
	}
	return rank(rows, func(x, y *Standing) int {
		return chain(
			desc(x.Score, y.Score),
			desc(x.Accuracy, y.Accuracy),
			asc(x.ElapsedMs, y.ElapsedMs),
		)
	})
}

func (b *Battleship) Summary() Summary {
	ready := 0
	for _, board := range b.boards {
		if board.ready() {
			ready++
		}
	}
	return b.summary(map[string]any{"phase": b.Phase(), "readyPlayers": ready})
}

// Snapshot hides ship positions until the game is over.
func (b *Battleship) Snapshot() Snapshot {
	view := battleshipView{
		Phase:         b.Phase(),
		BoardSize:     BoardSize,
		Fleet:         Fleet,
		CurrentPlayer: b.current,
		Players:       make(map[string]*fleetView, len(b.boards)),
	}
	reveal := b.machine.Is(state.Finished)
	for id, board := range b.boards {
		fv := &fleetView{Ready: board.ready(), Placed: []string{}, Shots: []shotView{}, SunkShips: []string{}}
		for _, s := range Fleet {
			placed, ok := board.ships[s.Name]
			if !ok {
				continue
			}
			fv.Placed = append(fv.Placed, s.Name)
			if placed.sunk() {
				fv.SunkShips = append(fv.SunkShips, s.Name)
			}
			if reveal {
				if fv.Ships == nil {
					fv.Ships = make(map[string][]Coord)
				}
				fv.Ships[s.Name] = placed.cells
			}
		}
		for c, hit := range board.shots {
			fv.Shots = append(fv.Shots, shotView{Row: c.Row, Col: c.Col, Hit: hit})
		}
		sortShots(fv.Shots)
		view.Players[id] = fv
	}
	return b.snapshot(view)
}

func sortShots(shots []shotView) {
	sort.Slice(shots, func(i, j int) bool {
		if shots[i].Row != shots[j].Row {
			return shots[i].Row < shots[j].Row
		}
		return shots[i].Col < shots[j].Col
	})
}
