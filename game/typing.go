package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/wfunc/gamehub/state"
)

type TypingMode string

const (
	TextRace   TypingMode = "text-race"
	WordSprint TypingMode = "word-sprint"

	typingMaxPlayers      = 6
	DefaultSprintDuration = 60 * time.Second
)

// ParseTypingMode maps an option value to a mode; "" means TextRace.
func ParseTypingMode(s string) (TypingMode, error) {
	switch TypingMode(s) {
	case "":
		return TextRace, nil
	case TextRace, WordSprint:
		return TypingMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown typing mode %q", ErrInvalidRequest, s)
}

// Typing races players over shared content. A text race ends when the first
// player types the passage exactly; a word sprint ends when its deadline passes.
type Typing struct {
	*base
	mode     TypingMode
	content  []rune
	racers   map[string]*racer
	sprint   time.Duration
	deadline time.Time
	pausedAt time.Time
}

type racer struct {
	input      []rune
	position   int
	keystrokes int
	correct    int
	wpm        float64
	accuracy   float64
	finished   bool
	finishedAt time.Time
	startedAt  time.Time
}

// TypingUpdate is the payload of a typingUpdate event.
type TypingUpdate struct {
	PlayerID    string     `json:"playerId"`
	Position    int        `json:"position"`
	Progress    float64    `json:"progress"`
	WPM         float64    `json:"wpm"`
	Accuracy    float64    `json:"accuracy"`
	Finished    bool       `json:"finished"`
	Leaderboard []Standing `json:"leaderboard"`
}

type racerView struct {
	Position int     `json:"position"`
	Progress float64 `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
	Finished bool    `json:"finished"`
}

type typingView struct {
	Mode        TypingMode            `json:"mode"`
	Content     string                `json:"content"`
	Deadline    *time.Time            `json:"deadline,omitempty"`
	RemainingMs int64                 `json:"remainingMs,omitempty"`
	Racers      map[string]*racerView `json:"racers"`
}

func NewTyping(id string, mode TypingMode, rng *rand.Rand, sprint time.Duration, clock func() time.Time) *Typing {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if sprint <= 0 {
		sprint = DefaultSprintDuration
	}
	content := pickPassage(rng)
	if mode == WordSprint {
		content = sprintWords(rng, sprintWordCount)
	}
	t := &Typing{
		base:    newBase(id, TypeTyping, 2, typingMaxPlayers, clock),
		mode:    mode,
		content: []rune(content),
		racers:  make(map[string]*racer),
		sprint:  sprint,
	}
	t.standings = t.computeLeaderboard
	t.machine.OnEnter(state.Playing, t.onPlaying)
	t.machine.OnEnter(state.Paused, func(state.Phase) { t.pausedAt = t.clock() })
	return t
}

// onPlaying stamps every racer's baseline at the start and shifts clocks by
// the paused time on resume.
func (t *Typing) onPlaying(from state.Phase) {
	now := t.clock()
	switch from {
	case state.Waiting:
		for _, r := range t.racers {
			r.startedAt = now
		}
		if t.mode == WordSprint {
			t.deadline = now.Add(t.sprint)
		}
	case state.Paused:
		paused := now.Sub(t.pausedAt)
		for _, r := range t.racers {
			if !r.finished {
				r.startedAt = r.startedAt.Add(paused)
			}
		}
		if !t.deadline.IsZero() {
			t.deadline = t.deadline.Add(paused)
		}
		t.pausedAt = time.Time{}
	}
}

func (t *Typing) AddPlayer(id, name string) bool {
	if _, ok := t.addPlayer(id, name); !ok {
		return false
	}
	t.racers[id] = &racer{}
	return true
}

func (t *Typing) RemovePlayer(id string) {
	if t.removePlayer(id) {
		delete(t.racers, id)
	}
}

func (t *Typing) Mode() TypingMode { return t.mode }
func (t *Typing) Content() string  { return string(t.content) }

// MakeMove scores the player's full typed text against the content.
func (t *Typing) MakeMove(playerID string, m Move) MoveResult {
	mv, ok := m.(TypingMove)
	if !ok {
		return rejected("invalid move for typing race")
	}
	if !t.machine.Is(state.Playing) {
		return rejected("race is not in progress")
	}
	r, ok := t.racers[playerID]
	if !ok {
		return rejected("player not in game")
	}
	if r.finished {
		return rejected("you already finished")
	}

	now := t.clock()
	if deadline, ok := t.Deadline(); ok && !now.Before(deadline) {
		return rejected("time is up")
	}

	input := []rune(mv.Input)
	if len(input) > len(t.content) {
		return rejected("input is longer than the text")
	}
	t.score(r, input, now)

	p := t.players[playerID]
	p.Score = int(math.Round(r.wpm))
	t.record(playerID, "type", r.position)

	res := MoveResult{Success: true}
	if r.finished && t.mode == TextRace {
		_ = t.EndGame(playerID)
		res.GameOver = true
	}
	res.Data = TypingUpdate{
		PlayerID:    playerID,
		Position:    r.position,
		Progress:    t.progress(r),
		WPM:         r.wpm,
		Accuracy:    r.accuracy,
		Finished:    r.finished,
		Leaderboard: t.Leaderboard(),
	}
	return res
}

// score updates the racer from a new full input. Added characters count as
// keystrokes and are correct when they extend the matching prefix; deleted
// characters count as keystrokes that are never correct.
func (t *Typing) score(r *racer, input []rune, now time.Time) {
	prefix := 0
	for prefix < len(input) && input[prefix] == t.content[prefix] {
		prefix++
	}

	if added := len(input) - len(r.input); added > 0 {
		r.keystrokes += added
		if gained := prefix - r.position; gained > 0 {
			r.correct += min(gained, added)
		}
	} else if added < 0 {
		r.keystrokes -= added
	}

	r.input = input
	r.position = prefix
	if r.keystrokes > 0 {
		r.accuracy = 100 * ratio(r.correct, r.keystrokes)
	}
	if minutes := now.Sub(r.startedAt).Minutes(); minutes > 0 {
		r.wpm = math.Round(float64(prefix)/5/minutes*100) / 100
	}
	if prefix == len(t.content) {
		r.finished = true
		r.finishedAt = now
	}
}

func (t *Typing) progress(r *racer) float64 {
	return 100 * ratio(r.position, len(t.content))
}

// CheckWinCondition reports the first finisher of a text race, or the WPM
// leader once a sprint's deadline has passed.
func (t *Typing) CheckWinCondition() Outcome {
	if t.machine.Is(state.Finished) {
		return Outcome{Over: true, WinnerID: t.winnerID}
	}
	switch t.mode {
	case TextRace:
		var winner string
		var at time.Time
		for _, id := range t.order {
			r := t.racers[id]
			if r.finished && (winner == "" || r.finishedAt.Before(at)) {
				winner, at = id, r.finishedAt
			}
		}
		return Outcome{Over: winner != "", WinnerID: winner}
	case WordSprint:
		if t.machine.Is(state.Playing) && !t.clock().Before(t.deadline) {
			return Outcome{Over: true, WinnerID: t.leader()}
		}
	}
	return Outcome{}
}

func (t *Typing) leader() string {
	board := t.computeLeaderboard()
	if len(board) == 0 {
		return ""
	}
	return board[0].PlayerID
}

// Deadline returns the sprint end while a sprint is running.
func (t *Typing) Deadline() (time.Time, bool) {
	if t.mode != WordSprint || !t.machine.Is(state.Playing) {
		return time.Time{}, false
	}
	return t.deadline, true
}

// Expire ends a sprint whose deadline has passed, crowning the WPM leader.
func (t *Typing) Expire(now time.Time) bool {
	deadline, ok := t.Deadline()
	if !ok || now.Before(deadline) {
		return false
	}
	return t.EndGame(t.leader()) == nil
}

func (t *Typing) computeLeaderboard() []Standing {
	rows := make([]Standing, 0, len(t.order))
	for _, id := range t.order {
		r := t.racers[id]
		row := standingFor(t.players[id])
		row.WPM = r.wpm
		row.Accuracy = r.accuracy
		row.Progress = t.progress(r)
		row.Finished = r.finished
		rows = append(rows, row)
	}
	return rank(rows, func(a, b *Standing) int {
		return chain(
			desc(a.WPM, b.WPM),
			desc(a.Accuracy, b.Accuracy),
		)
	})
}

func (t *Typing) Summary() Summary {
	return t.summary(map[string]any{"mode": t.mode, "length": len(t.content)})
}

func (t *Typing) Snapshot() Snapshot {
	view := typingView{
		Mode:    t.mode,
		Content: string(t.content),
		Racers:  make(map[string]*racerView, len(t.racers)),
	}
	if deadline, ok := t.Deadline(); ok {
		view.Deadline = &deadline
		if left := deadline.Sub(t.clock()); left > 0 {
			view.RemainingMs = left.Milliseconds()
		}
	}
	for id, r := range t.racers {
		view.Racers[id] = &racerView{
			Position: r.position,
			Progress: t.progress(r),
			WPM:      r.wpm,
			Accuracy: r.accuracy,
			Finished: r.finished,
		}
	}
	return t.snapshot(view)
}
