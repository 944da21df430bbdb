package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/gamehub/puzzle"
)

// Options are the createGame options; each variant reads the ones it knows.
type Options struct {
	Difficulty string `json:"difficulty,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// TypeInfo describes a supported game type for the catalog.
type TypeInfo struct {
	Type       Type                `json:"type"`
	Name       string              `json:"name"`
	MinPlayers int                 `json:"minPlayers"`
	MaxPlayers int                 `json:"maxPlayers"`
	Options    map[string][]string `json:"options,omitempty"`
}

var catalog = []TypeInfo{
	{
		Type:       TypeSudoku,
		Name:       "Sudoku",
		MinPlayers: 1,
		MaxPlayers: sudokuMaxPlayers,
		Options:    map[string][]string{"difficulty": {string(puzzle.Easy), string(puzzle.Medium), string(puzzle.Hard)}},
	},
	{
		Type:       TypeTicTacToe,
		Name:       "Tic-Tac-Toe",
		MinPlayers: 2,
		MaxPlayers: 2,
	},
	{
		Type:       TypeBattleship,
		Name:       "Battleship",
		MinPlayers: 2,
		MaxPlayers: 2,
	},
	{
		Type:       TypeTyping,
		Name:       "Typing Race",
		MinPlayers: 2,
		MaxPlayers: typingMaxPlayers,
		Options:    map[string][]string{"mode": {string(TextRace), string(WordSprint)}},
	},
}

// FactoryConfig seeds a Factory. Zero values pick sensible defaults.
type FactoryConfig struct {
	Seed           int64
	Clock          func() time.Time
	SprintDuration time.Duration
}

// Factory builds sessions by type tag.
type Factory struct {
	mu      sync.Mutex
	rng     *rand.Rand
	puzzles *puzzle.Generator
	clock   func() time.Time
	sprint  time.Duration
}

func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SprintDuration <= 0 {
		cfg.SprintDuration = DefaultSprintDuration
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Factory{
		rng:     rng,
		puzzles: puzzle.NewGenerator(rng.Int63()),
		clock:   cfg.Clock,
		sprint:  cfg.SprintDuration,
	}
}

// Catalog lists the supported game types.
func (f *Factory) Catalog() []TypeInfo {
	out := make([]TypeInfo, len(catalog))
	copy(out, catalog)
	return out
}

func (f *Factory) Supports(t Type) bool {
	_, ok := Lookup(t)
	return ok
}

// Lookup returns the catalog entry for t.
func Lookup(t Type) (TypeInfo, bool) {
	for _, info := range catalog {
		if info.Type == t {
			return info, true
		}
	}
	return TypeInfo{}, false
}

// New builds an empty session of type t.
func (f *Factory) New(ctx context.Context, id string, t Type, opts Options) (Session, error) {
	switch t {
	case TypeSudoku:
		d, err := puzzle.ParseDifficulty(opts.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		p, err := f.puzzles.Generate(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%w: generate puzzle: %v", ErrInternal, err)
		}
		return NewSudoku(id, p, f.clock), nil

	case TypeTicTacToe:
		return NewTicTacToe(id, f.clock), nil

	case TypeBattleship:
		return NewBattleship(id, f.childRand(), f.clock), nil

	case TypeTyping:
		mode, err := ParseTypingMode(opts.Mode)
		if err != nil {
			return nil, err
		}
		return NewTyping(id, mode, f.childRand(), f.sprint, f.clock), nil
	}
	return nil, fmt.Errorf("%w: unsupported game type %q", ErrInvalidRequest, t)
}

func (f *Factory) childRand() *rand.Rand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rand.New(rand.NewSource(f.rng.Int63()))
}

// MoveEvent names the outbound event that carries a move result for t.
func MoveEvent(t Type) string {
	switch t {
	case TypeSudoku:
		return "moveUpdate"
	case TypeTicTacToe:
		return "ticTacToeMove"
	case TypeBattleship:
		return "shotFired"
	case TypeTyping:
		return "typingUpdate"
	}
	return "moveUpdate"
}
