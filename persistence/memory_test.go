package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wfunc/gamehub/config"
	"github.com/wfunc/gamehub/models"
)

func record(session string, ended time.Time, players ...models.PlayerInfo) *models.GameRecord {
	return &models.GameRecord{
		SessionID:       session,
		Round:           1,
		GameType:        "ticTacToe",
		Players:         players,
		DurationSeconds: 30,
		EndedAt:         ended,
	}
}

func TestMemorySaveAndHistory(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	alice := models.PlayerInfo{PlayerID: "a", Name: "alice", Outcome: models.OutcomeWin, Score: 1}
	bob := models.PlayerInfo{PlayerID: "b", Name: "bob", Outcome: models.OutcomeLose}

	for i, s := range []string{"g1", "g2", "g3"} {
		if err := db.SaveGameRecord(ctx, record(s, base.Add(time.Duration(i)*time.Minute), alice, bob)); err != nil {
			t.Fatalf("save %s: %v", s, err)
		}
	}

	if err := db.SaveGameRecord(ctx, record("g1", base, alice)); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("expected ErrDuplicateRecord, got %v", err)
	}
	// 同一房间的下一回合单独存档
	replay := record("g1", base.Add(-time.Minute), alice, bob)
	replay.Round = 2
	if err := db.SaveGameRecord(ctx, replay); err != nil {
		t.Errorf("a later round should be stored, got %v", err)
	}

	history, err := db.ListPlayerRecords(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].SessionID != "g3" || history[1].SessionID != "g2" {
		t.Errorf("expected newest first, got %s, %s", history[0].SessionID, history[1].SessionID)
	}

	none, err := db.ListPlayerRecords(ctx, "carol", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty slice, got %v", none)
	}
}

func TestMemoryStats(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()
	now := time.Now()

	_ = db.SaveGameRecord(ctx, record("g1", now,
		models.PlayerInfo{Name: "alice", Outcome: models.OutcomeWin, Score: 5},
		models.PlayerInfo{Name: "bob", Outcome: models.OutcomeLose}))
	_ = db.SaveGameRecord(ctx, record("g2", now,
		models.PlayerInfo{Name: "alice", Outcome: models.OutcomeDraw, Score: 9},
		models.PlayerInfo{Name: "bob", Outcome: models.OutcomeDraw}))

	stats, err := db.GetPlayerStats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalGames != 2 || stats.Wins != 1 || stats.Draws != 1 || stats.Losses != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.BestScore != 9 || stats.PlayTime != 60 || stats.ByType["ticTacToe"] != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if _, err := db.GetPlayerStats(ctx, "carol"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: DefaultHistoryLimit, -1: DefaultHistoryLimit, 5: 5, 100: 100, 101: DefaultHistoryLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	for _, driver := range []string{"", "memory"} {
		db, err := Open(config.DatabaseConfig{Driver: driver})
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if _, ok := db.(*Memory); !ok {
			t.Errorf("Open(%q) returned %T, want *Memory", driver, db)
		}
	}
	if _, err := Open(config.DatabaseConfig{Driver: "mongo"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
