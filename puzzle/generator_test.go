package puzzle

import (
	"context"
	"testing"
	"time"
)

func TestGenerateAllDifficulties(t *testing.T) {
	cases := []struct {
		name  string
		diff  Difficulty
		zeros int
	}{
		{"easy", Easy, 35},
		{"medium", Medium, 45},
		{"hard", Hard, 52},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			for seed := int64(1); seed <= 5; seed++ {
				p, err := NewGenerator(seed).Generate(ctx, tc.diff)
				if err != nil {
					t.Fatalf("Generate(%s, seed=%d) failed: %v", tc.name, seed, err)
				}
				if !IsSolved(&p.Solution) {
					t.Fatalf("solution for seed %d is not a valid sudoku", seed)
				}
				if got := CountZeros(&p.Board); got != tc.zeros {
					t.Fatalf("expected %d zeroed cells, got %d", tc.zeros, got)
				}
				for r := 0; r < Size; r++ {
					for c := 0; c < Size; c++ {
						if v := p.Board[r][c]; v != 0 && v != p.Solution[r][c] {
							t.Fatalf("clue (%d,%d)=%d differs from solution %d", r, c, v, p.Solution[r][c])
						}
					}
				}
			}
		})
	}
}

func TestGenerate_SolutionPermutations(t *testing.T) {
	p, err := NewGenerator(42).Generate(context.Background(), Easy)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i := 0; i < Size; i++ {
		var row, col, box [Size + 1]bool
		for j := 0; j < Size; j++ {
			row[p.Solution[i][j]] = true
			col[p.Solution[j][i]] = true
			box[p.Solution[(i/3)*3+j/3][(i%3)*3+j%3]] = true
		}
		for v := 1; v <= Size; v++ {
			if !row[v] || !col[v] || !box[v] {
				t.Fatalf("unit %d is missing value %d", i, v)
			}
		}
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGenerator(1).Generate(ctx, Easy); err == nil {
		t.Fatal("expected an error from a canceled context")
	}
}

func TestValidate_FindsConflicts(t *testing.T) {
	var g Grid
	g[0][0] = 5
	g[0][8] = 5 // same row
	g[4][4] = 7
	g[5][5] = 7 // same box

	conf := Validate(&g)
	if len(conf) != 2 {
		t.Fatalf("expected 2 conflicts, got %v", conf)
	}
	if IsSolved(&g) {
		t.Fatal("a partial grid must not count as solved")
	}
}

func TestAllowed(t *testing.T) {
	var g Grid
	g[0][0] = 3
	if Allowed(&g, 0, 5, 3) {
		t.Error("3 is already in row 0")
	}
	if Allowed(&g, 7, 0, 3) {
		t.Error("3 is already in column 0")
	}
	if Allowed(&g, 2, 2, 3) {
		t.Error("3 is already in the top-left box")
	}
	if !Allowed(&g, 0, 0, 3) {
		t.Error("a cell should not conflict with itself")
	}
	if !Allowed(&g, 4, 4, 3) {
		t.Error("3 should be allowed in the center")
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, err := ParseDifficulty(""); err != nil || d != Medium {
		t.Errorf("empty difficulty should default to medium, got %s %v", d, err)
	}
	if _, err := ParseDifficulty("nightmare"); err == nil {
		t.Error("unknown difficulty should fail")
	}
}
