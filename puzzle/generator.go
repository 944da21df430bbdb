// Package puzzle builds Sudoku solutions by randomized backtracking and
// derives puzzles from them by blanking cells.
//
// Cells are removed uniformly at random; the resulting puzzle is not checked
// for a unique solution.
package puzzle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

const Size = 9

// Grid is a 9x9 board; 0 marks an empty cell.
type Grid [Size][Size]int

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// CellsToRemove returns how many cells a puzzle of difficulty d has blanked.
func CellsToRemove(d Difficulty) int {
	switch d {
	case Easy:
		return 35
	case Hard:
		return 52
	default:
		return 45
	}
}

// ParseDifficulty maps an option value to a Difficulty; "" means Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case "":
		return Medium, nil
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Puzzle pairs a partially blanked board with its full solution.
type Puzzle struct {
	Difficulty Difficulty
	Board      Grid
	Solution   Grid
}

// IsClue reports whether the cell was given by the generator.
func (p *Puzzle) IsClue(r, c int) bool {
	return p.Board[r][c] != 0
}

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate fills a random solution and blanks CellsToRemove(d) distinct cells.
func (g *Generator) Generate(ctx context.Context, d Difficulty) (*Puzzle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var full Grid
	if !fillRandom(ctx, g.rng, &full) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no solution found")
	}
	if !IsSolved(&full) {
		return nil, fmt.Errorf("generated grid breaks a constraint")
	}

	board := full
	positions := g.rng.Perm(Size * Size)
	for _, pos := range positions[:CellsToRemove(d)] {
		board[pos/Size][pos%Size] = 0
	}

	return &Puzzle{Difficulty: d, Board: board, Solution: full}, nil
}

// fillRandom solves an empty grid into a full valid solution by random ordering.
func fillRandom(ctx context.Context, rng *rand.Rand, grid *Grid) bool {
	var nums [Size]int
	for i := range nums {
		nums[i] = i + 1
	}
	var dfs func(int, int) bool
	dfs = func(r, c int) bool {
		if ctx.Err() != nil {
			return false
		}
		if r == Size {
			return true
		}
		nr, nc := r, c+1
		if nc == Size {
			nr, nc = r+1, 0
		}
		order := nums
		rng.Shuffle(Size, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, v := range order {
			if Allowed(grid, r, c, v) {
				grid[r][c] = v
				if dfs(nr, nc) {
					return true
				}
				grid[r][c] = 0
			}
		}
		return false
	}
	return dfs(0, 0)
}

// Allowed reports whether v can be written at (r, c) without a row, column
// or box conflict. The cell itself is ignored.
func Allowed(b *Grid, r, c, v int) bool {
	for i := 0; i < Size; i++ {
		if (i != c && b[r][i] == v) || (i != r && b[i][c] == v) {
			return false
		}
	}
	br, bc := (r/3)*3, (c/3)*3
	for dr := 0; dr < 3; dr++ {
		for dc := 0; dc < 3; dc++ {
			rr, cc := br+dr, bc+dc
			if (rr != r || cc != c) && b[rr][cc] == v {
				return false
			}
		}
	}
	return true
}
