package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/models"
	"github.com/wfunc/gamehub/registry"
	"github.com/wfunc/gamehub/state"
)

type mockGames struct {
	filter game.Type
}

func (m *mockGames) ListAvailable(filter game.Type) []game.Summary {
	m.filter = filter
	return []game.Summary{{SessionID: "g1", Type: game.TypeTicTacToe, PlayerCount: 1, MaxPlayers: 2, State: state.Waiting}}
}

func (m *mockGames) Catalog() []game.TypeInfo {
	return []game.TypeInfo{{Type: game.TypeSudoku}, {Type: game.TypeTicTacToe}}
}

func (m *mockGames) Stats() registry.Stats {
	return registry.Stats{Sessions: 3, OnlinePlayers: 5}
}

type mockRecords struct {
	limit int
	err   error
}

func (m *mockRecords) History(_ context.Context, name string, limit int) ([]models.GameRecord, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []models.GameRecord{{SessionID: "g0", WinnerName: name}}, nil
}

func (m *mockRecords) PlayerStats(_ context.Context, name string) (*models.PlayerStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.PlayerStats{Name: name, TotalGames: 4, Wins: 2}, nil
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndStats(t *testing.T) {
	s := New(&mockGames{}, &mockRecords{}, nil)

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	rec = get(t, s, "/stats")
	var st registry.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Sessions != 3 || st.OnlinePlayers != 5 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestGames(t *testing.T) {
	games := &mockGames{}
	s := New(games, nil, nil)

	rec := get(t, s, "/games?type=tictactoe")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []game.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || games.filter != game.TypeTicTacToe {
		t.Errorf("unexpected list %+v (filter %q)", list, games.filter)
	}

	if rec := get(t, s, "/games?type=chess"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", rec.Code)
	}

	rec = get(t, s, "/games/types")
	var types []game.TypeInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("expected 2 types, got %d", len(types))
	}
}

func TestPlayerRoutes(t *testing.T) {
	records := &mockRecords{}
	s := New(&mockGames{}, records, nil)

	rec := get(t, s, "/players/alice/history?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var history []models.GameRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 1 || history[0].WinnerName != "alice" || records.limit != 5 {
		t.Errorf("unexpected history %+v (limit %d)", history, records.limit)
	}

	if rec := get(t, s, "/players/alice/history?limit=x"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = get(t, s, "/players/alice/stats")
	var stats models.PlayerStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Name != "alice" || stats.Wins != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	records.err = errors.New("db down")
	if rec := get(t, s, "/players/alice/stats"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHistoryUnavailable(t *testing.T) {
	s := New(&mockGames{}, nil, nil)
	if rec := get(t, s, "/players/bob/history"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("gamehub_online_players 0\n"))
	})
	s := New(&mockGames{}, nil, metrics)

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK || rec.Body.String() != "gamehub_online_players 0\n" {
		t.Errorf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, s, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
