package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/wfunc/gamehub/state"
)

// base carries the roster, lifecycle and history shared by every variant.
// Variants embed it and fill in the hooks.
type base struct {
	id         string
	kind       Type
	machine    *state.Machine
	players    map[string]*Player
	order      []string // join order
	hostID     string
	minPlayers int
	maxPlayers int
	round      int

	history   []HistoryEntry
	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
	winnerID  string
	final     []Standing

	clock      func() time.Time
	standings  func() []Standing
	startGuard func() error
}

func newBase(id string, kind Type, minPlayers, maxPlayers int, clock func() time.Time) *base {
	if clock == nil {
		clock = time.Now
	}
	b := &base{
		id:         id,
		kind:       kind,
		machine:    state.NewLifecycle(),
		players:    make(map[string]*Player),
		minPlayers: minPlayers,
		maxPlayers: maxPlayers,
		createdAt:  clock(),
		clock:      clock,
	}
	b.machine.OnEnter(state.Playing, func(from state.Phase) {
		if from == state.Waiting {
			b.round++
			b.startedAt = b.clock()
		}
	})
	return b
}

func (b *base) ID() string           { return b.id }
func (b *base) Type() Type           { return b.kind }
func (b *base) State() state.Phase   { return b.machine.Current() }
func (b *base) CreatedAt() time.Time { return b.createdAt }
func (b *base) HostID() string       { return b.hostID }
func (b *base) MinPlayers() int      { return b.minPlayers }
func (b *base) MaxPlayers() int      { return b.maxPlayers }
func (b *base) PlayerCount() int     { return len(b.players) }

// PlayerIDs returns the roster in join order.
func (b *base) PlayerIDs() []string {
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

func (b *base) Player(id string) (Player, bool) {
	p, ok := b.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// addPlayer inserts a roster entry; the first player becomes host.
func (b *base) addPlayer(id, name string) (*Player, bool) {
	if _, exists := b.players[id]; exists {
		return nil, false
	}
	if len(b.players) >= b.maxPlayers {
		return nil, false
	}
	now := b.clock()
	p := &Player{ID: id, Name: name, JoinedAt: now, LastActive: now}
	b.players[id] = p
	b.order = append(b.order, id)
	if b.hostID == "" {
		b.SetHost(id)
	}
	return p, true
}

// removePlayer deletes id and hands the host role to the next-joined player.
func (b *base) removePlayer(id string) bool {
	if _, exists := b.players[id]; !exists {
		return false
	}
	delete(b.players, id)
	for i, pid := range b.order {
		if pid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.hostID == id {
		b.hostID = ""
		if len(b.order) > 0 {
			b.SetHost(b.order[0])
		}
	}
	return true
}

func (b *base) SetHost(playerID string) bool {
	p, ok := b.players[playerID]
	if !ok {
		return false
	}
	if old, ok := b.players[b.hostID]; ok {
		old.IsHost = false
	}
	p.IsHost = true
	b.hostID = playerID
	return true
}

func (b *base) Touch(id string, at time.Time) {
	if p, ok := b.players[id]; ok {
		p.LastActive = at
	}
}

// IdleSince reports whether no player has been active since cutoff.
func (b *base) IdleSince(cutoff time.Time) bool {
	for _, p := range b.players {
		if !p.LastActive.Before(cutoff) {
			return false
		}
	}
	return true
}

func (b *base) transition(to state.Phase) error {
	from := b.machine.Current()
	if err := b.machine.ChangeState(to); err != nil {
		return fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidState, from, to)
	}
	return nil
}

func (b *base) Start() error {
	if cur := b.machine.Current(); cur != state.Waiting {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, cur)
	}
	if len(b.players) < b.minPlayers {
		return fmt.Errorf("%w: need at least %d players", ErrInvalidState, b.minPlayers)
	}
	if b.startGuard != nil {
		if err := b.startGuard(); err != nil {
			return err
		}
	}
	return b.transition(state.Playing)
}

func (b *base) Pause() error {
	if cur := b.machine.Current(); cur != state.Playing {
		return fmt.Errorf("%w: cannot pause a %s game", ErrInvalidState, cur)
	}
	return b.transition(state.Paused)
}

func (b *base) Resume() error {
	if cur := b.machine.Current(); cur != state.Paused {
		return fmt.Errorf("%w: cannot resume a %s game", ErrInvalidState, cur)
	}
	return b.transition(state.Playing)
}

// EndGame finishes the session and freezes the leaderboard. winnerID may be
// empty for a draw; unknown ids are treated as no winner.
func (b *base) EndGame(winnerID string) error {
	switch b.machine.Current() {
	case state.Finished:
		return nil
	case state.Paused:
		if err := b.transition(state.Playing); err != nil {
			return err
		}
	case state.Waiting:
		return fmt.Errorf("%w: game has not started", ErrInvalidState)
	}

	if _, ok := b.players[winnerID]; !ok {
		winnerID = ""
	}
	b.winnerID = winnerID
	b.endedAt = b.clock()
	if err := b.transition(state.Finished); err != nil {
		b.winnerID = ""
		b.endedAt = time.Time{}
		return err
	}
	b.final = b.standings()
	return nil
}

func (b *base) Winner() (Player, bool) {
	if b.winnerID == "" {
		return Player{}, false
	}
	return b.Player(b.winnerID)
}

// Leaderboard returns the frozen standings once finished.
func (b *base) Leaderboard() []Standing {
	if b.machine.Is(state.Finished) && b.final != nil {
		out := make([]Standing, len(b.final))
		copy(out, b.final)
		return out
	}
	return b.standings()
}

// resetRound clears per-round state before a replay.
func (b *base) resetRound() {
	b.history = nil
	b.winnerID = ""
	b.startedAt = time.Time{}
	b.endedAt = time.Time{}
	b.final = nil
}

func (b *base) record(playerID, action string, data any) {
	b.history = append(b.history, HistoryEntry{
		Seq:      len(b.history) + 1,
		PlayerID: playerID,
		Action:   action,
		Data:     data,
		At:       b.clock(),
	})
}

// elapsed is the running time of the round at t.
func (b *base) elapsed(t time.Time) time.Duration {
	if b.startedAt.IsZero() || t.Before(b.startedAt) {
		return 0
	}
	return t.Sub(b.startedAt)
}

// now returns the end time once finished so standings stop moving.
func (b *base) now() time.Time {
	if !b.endedAt.IsZero() {
		return b.endedAt
	}
	return b.clock()
}

func (b *base) summary(details any) Summary {
	host := ""
	if p, ok := b.players[b.hostID]; ok {
		host = p.Name
	}
	return Summary{
		SessionID:   b.id,
		Type:        b.kind,
		HostName:    host,
		PlayerCount: len(b.players),
		MaxPlayers:  b.maxPlayers,
		State:       b.machine.Current(),
		CreatedAt:   b.createdAt,
		Details:     details,
	}
}

func (b *base) snapshot(game any) Snapshot {
	players := make([]Player, 0, len(b.order))
	for _, id := range b.order {
		players = append(players, *b.players[id])
	}
	return Snapshot{
		ID:          b.id,
		Type:        b.kind,
		State:       b.machine.Current(),
		HostID:      b.hostID,
		MinPlayers:  b.minPlayers,
		MaxPlayers:  b.maxPlayers,
		Players:     players,
		Leaderboard: b.Leaderboard(),
		MoveCount:   len(b.history),
		WinnerID:    b.winnerID,
		CreatedAt:   b.createdAt,
		StartedAt:   timePtr(b.startedAt),
		EndedAt:     timePtr(b.endedAt),
		Game:        game,
	}
}

func (b *base) Result() Result {
	r := Result{
		SessionID: b.id,
		Round:     b.round,
		Type:      b.kind,
		WinnerID:  b.winnerID,
		Standings: b.Leaderboard(),
		Moves:     len(b.history),
		StartedAt: b.startedAt,
		EndedAt:   b.endedAt,
	}
	if p, ok := b.players[b.winnerID]; ok {
		r.WinnerName = p.Name
	}
	return r
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// rank sorts rows with cmp and assigns ranks. Rows must arrive in join
// order, which breaks any tie cmp leaves.
func rank(rows []Standing, cmp func(a, b *Standing) int) []Standing {
	sort.SliceStable(rows, func(i, j int) bool {
		return cmp(&rows[i], &rows[j]) < 0
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// desc orders larger values first; chain with the next key when it returns 0.
func desc[T int | int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func asc[T int | int64 | float64](a, b T) int {
	return -desc(a, b)
}

// chain returns the first non-zero comparison.
func chain(results ...int) int {
	for _, r := range results {
		if r != 0 {
			return r
		}
	}
	return 0
}

// standingFor seeds a row with the shared player fields.
func standingFor(p *Player) Standing {
	return Standing{PlayerID: p.ID, Name: p.Name, Score: p.Score}
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
