package game

import (
	"errors"
	"testing"

	"github.com/wfunc/gamehub/state"
)

func newStartedTicTacToe(t *testing.T) *TicTacToe {
	t.Helper()
	g := NewTicTacToe("ttt", newFakeClock().Now)
	g.AddPlayer("p1", "Ada")
	g.AddPlayer("p2", "Bob")
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return g
}

func play(t *testing.T, g *TicTacToe, moves ...[3]int) MoveResult {
	t.Helper()
	var res MoveResult
	for _, m := range moves {
		id := "p1"
		if m[0] == 2 {
			id = "p2"
		}
		res = g.MakeMove(id, MarkMove{m[1], m[2]})
		if !res.Success {
			t.Fatalf("move %v rejected: %s", m, res.Reason)
		}
	}
	return res
}

func TestTicTacToe_SymbolsAndFirstTurn(t *testing.T) {
	g := newStartedTicTacToe(t)
	if g.Symbol("p1") != SymbolX || g.Symbol("p2") != SymbolO {
		t.Fatalf("Expected p1=X p2=O, got %s %s", g.Symbol("p1"), g.Symbol("p2"))
	}
	if g.CurrentPlayer() != "p1" {
		t.Fatalf("X should move first, got %q", g.CurrentPlayer())
	}
}

func TestTicTacToe_TurnOwnership(t *testing.T) {
	g := newStartedTicTacToe(t)

	if res := g.MakeMove("p2", MarkMove{0, 0}); res.Success || res.Reason != "not your turn" {
		t.Fatalf("out-of-turn move must be rejected, got %+v", res)
	}
	play(t, g, [3]int{1, 0, 0})
	if res := g.MakeMove("p1", MarkMove{1, 1}); res.Success {
		t.Fatal("p1 may not move twice in a row")
	}
	if res := g.MakeMove("p2", MarkMove{0, 0}); res.Success || res.Reason != "cell is already taken" {
		t.Fatalf("occupied cell must be rejected, got %+v", res)
	}
	if res := g.MakeMove("p2", MarkMove{3, 0}); res.Success {
		t.Fatal("out-of-bounds cell must be rejected")
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("rejections must not change the turn, got %q", g.CurrentPlayer())
	}
}

// X takes the top row.
func TestTicTacToe_Win(t *testing.T) {
	g := newStartedTicTacToe(t)
	res := play(t, g,
		[3]int{1, 0, 0}, [3]int{2, 1, 0},
		[3]int{1, 0, 1}, [3]int{2, 1, 1},
		[3]int{1, 0, 2},
	)

	if !res.GameOver {
		t.Fatal("winning move should end the game")
	}
	out := g.CheckWinCondition()
	if !out.Over || out.Draw || out.WinnerID != "p1" {
		t.Fatalf("Expected p1 win, got %+v", out)
	}
	if len(out.Line) != 3 || out.Line[0] != (Coord{0, 0}) || out.Line[2] != (Coord{0, 2}) {
		t.Errorf("Unexpected winning line %v", out.Line)
	}
	if g.State() != state.Finished {
		t.Fatalf("Expected finished, got %s", g.State())
	}
	w, ok := g.Winner()
	if !ok || w.ID != "p1" || w.Score != tttWinScore {
		t.Errorf("Unexpected winner %+v", w)
	}
	lb := g.Leaderboard()
	if lb[0].PlayerID != "p1" || lb[0].Wins != 1 || lb[1].Losses != 1 {
		t.Errorf("Unexpected leaderboard %+v", lb)
	}
	if res := g.MakeMove("p2", MarkMove{2, 2}); res.Success {
		t.Error("moves after the end must be rejected")
	}
}

// X O X / X O O / O X X fills the board without a line.
func TestTicTacToe_DrawIsExclusive(t *testing.T) {
	g := newStartedTicTacToe(t)
	res := play(t, g,
		[3]int{1, 0, 0}, [3]int{2, 0, 1},
		[3]int{1, 0, 2}, [3]int{2, 1, 1},
		[3]int{1, 1, 0}, [3]int{2, 1, 2},
		[3]int{1, 2, 1}, [3]int{2, 2, 0},
		[3]int{1, 2, 2},
	)

	if !res.GameOver {
		t.Fatal("full board should end the game")
	}
	out := g.CheckWinCondition()
	if !out.Draw || out.WinnerID != "" {
		t.Fatalf("Expected a draw with no winner, got %+v", out)
	}
	if _, ok := g.Winner(); ok {
		t.Fatal("a draw has no winner")
	}
	for _, id := range []string{"p1", "p2"} {
		p, _ := g.Player(id)
		if p.Score != tttDrawScore {
			t.Errorf("%s: expected draw score %d, got %d", id, tttDrawScore, p.Score)
		}
	}
	if lb := g.Leaderboard(); lb[0].Draws != 1 || lb[1].Draws != 1 {
		t.Errorf("both players should record a draw: %+v", lb)
	}
}

func TestTicTacToe_ResetSwapsSymbols(t *testing.T) {
	g := newStartedTicTacToe(t)
	if err := g.Reset(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reset mid-round should fail, got %v", err)
	}

	play(t, g,
		[3]int{1, 0, 0}, [3]int{2, 1, 0},
		[3]int{1, 0, 1}, [3]int{2, 1, 1},
		[3]int{1, 0, 2},
	)
	if err := g.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if g.State() != state.Playing {
		t.Fatalf("reset with two players should restart, got %s", g.State())
	}
	if g.Symbol("p1") != SymbolO || g.Symbol("p2") != SymbolX {
		t.Fatalf("symbols should swap, got p1=%s p2=%s", g.Symbol("p1"), g.Symbol("p2"))
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("new X holder should move first, got %q", g.CurrentPlayer())
	}
	snap := g.Snapshot()
	if snap.MoveCount != 0 || snap.WinnerID != "" {
		t.Errorf("history and winner should be cleared: %+v", snap)
	}
	if view := snap.Game.(tttView); view.Board != ([3][3]string{}) || view.Round != 2 {
		t.Errorf("board should be empty in round 2: %+v", view)
	}
	if r := g.Result(); r.Round != 2 {
		t.Errorf("result should carry round 2, got %d", r.Round)
	}
	// Cumulative stats survive the reset.
	if lb := g.Leaderboard(); lb[0].PlayerID != "p1" || lb[0].Wins != 1 {
		t.Errorf("stats should carry over: %+v", lb)
	}
}

func TestTicTacToe_ResetWaitsForOpponent(t *testing.T) {
	g := newStartedTicTacToe(t)
	play(t, g,
		[3]int{1, 0, 0}, [3]int{2, 1, 0},
		[3]int{1, 0, 1}, [3]int{2, 1, 1},
		[3]int{1, 0, 2},
	)
	g.RemovePlayer("p2")

	if err := g.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if g.State() != state.Waiting {
		t.Fatalf("reset with one player should wait, got %s", g.State())
	}
}

func TestTicTacToe_Forfeit(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, g *TicTacToe)
		err   error
	}{
		{"while playing", func(t *testing.T, g *TicTacToe) { play(t, g, [3]int{1, 0, 0}) }, nil},
		{"while paused", func(t *testing.T, g *TicTacToe) { g.Pause() }, nil},
		{"after finishing", func(t *testing.T, g *TicTacToe) {
			play(t, g,
				[3]int{1, 0, 0}, [3]int{2, 1, 0},
				[3]int{1, 0, 1}, [3]int{2, 1, 1},
				[3]int{1, 0, 2},
			)
		}, ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newStartedTicTacToe(t)
			tc.setup(t, g)
			g.RemovePlayer("p1")

			err := g.Forfeit("p2")
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("Expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("forfeit: %v", err)
			}
			if g.State() != state.Finished || g.CurrentPlayer() != "" {
				t.Fatalf("forfeit should end the round, got %s turn=%q", g.State(), g.CurrentPlayer())
			}
			lb := g.Leaderboard()
			if len(lb) != 1 || lb[0].Wins != 1 || lb[0].Score != tttWinScore || lb[0].WinRate != 1 {
				t.Fatalf("forfeit winner should be credited a win, got %+v", lb)
			}
			if w, ok := g.Winner(); !ok || w.ID != "p2" {
				t.Errorf("Expected p2 to win, got %+v", w)
			}
		})
	}
}
