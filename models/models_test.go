package models

import "testing"

func TestTally(t *testing.T) {
	records := []GameRecord{
		{GameType: "tictactoe", DurationSeconds: 30, Players: []PlayerInfo{
			{Name: "ada", Score: 10, Outcome: OutcomeWin}, {Name: "bob", Outcome: OutcomeLose},
		}},
		{GameType: "tictactoe", DurationSeconds: 20, Players: []PlayerInfo{
			{Name: "ada", Score: 2, Outcome: OutcomeDraw}, {Name: "bob", Score: 2, Outcome: OutcomeDraw},
		}},
		{GameType: "sudoku", DurationSeconds: 300, Players: []PlayerInfo{
			{Name: "bob", Score: 350, Outcome: OutcomeWin},
		}},
	}

	ada := Tally("ada", records)
	if ada.TotalGames != 2 || ada.Wins != 1 || ada.Draws != 1 || ada.Losses != 0 {
		t.Fatalf("unexpected stats for ada: %+v", ada)
	}
	if ada.BestScore != 10 || ada.PlayTime != 50 || ada.ByType["tictactoe"] != 2 {
		t.Errorf("unexpected aggregates for ada: %+v", ada)
	}

	bob := Tally("bob", records)
	if bob.TotalGames != 3 || bob.Wins != 1 || bob.Losses != 1 || bob.BestScore != 350 {
		t.Errorf("unexpected stats for bob: %+v", bob)
	}

	if nobody := Tally("cy", records); nobody.TotalGames != 0 {
		t.Errorf("unknown player should have no games: %+v", nobody)
	}
}

func TestGormRoundTrip(t *testing.T) {
	r := &GameRecord{SessionID: "s1", Round: 3, GameType: "battleship", WinnerName: "ada", Players: []PlayerInfo{
		{PlayerID: "c1", Name: "ada", Rank: 1, Outcome: OutcomeWin},
		{PlayerID: "c2", Name: "bob", Rank: 2, Outcome: OutcomeLose},
	}}
	g := NewGormGameRecord(r)
	if len(g.Participants) != 2 || g.Participants[1].Name != "bob" {
		t.Fatalf("participants not derived: %+v", g.Participants)
	}
	back := g.Record()
	if back.SessionID != "s1" || back.Round != 3 || len(back.Players) != 2 {
		t.Fatalf("unexpected record %+v", back)
	}
}
