package game

import (
	"context"
	"testing"
	"time"

	"github.com/wfunc/gamehub/puzzle"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPuzzle(t *testing.T, d puzzle.Difficulty) *puzzle.Puzzle {
	t.Helper()
	p, err := puzzle.NewGenerator(7).Generate(context.Background(), d)
	if err != nil {
		t.Fatalf("generate puzzle: %v", err)
	}
	return p
}

// emptyCells lists the cells the puzzle left blank, in row-major order.
func emptyCells(p *puzzle.Puzzle) []Coord {
	var cells []Coord
	for r := 0; r < puzzle.Size; r++ {
		for c := 0; c < puzzle.Size; c++ {
			if !p.IsClue(r, c) {
				cells = append(cells, Coord{r, c})
			}
		}
	}
	return cells
}

func clueCell(p *puzzle.Puzzle) Coord {
	for r := 0; r < puzzle.Size; r++ {
		for c := 0; c < puzzle.Size; c++ {
			if p.IsClue(r, c) {
				return Coord{r, c}
			}
		}
	}
	return Coord{-1, -1}
}

// wrongValue returns a value different from want.
func wrongValue(want int) int {
	if want == 9 {
		return 1
	}
	return want + 1
}
