package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wfunc/gamehub/state"
)

func newRace(t *testing.T, mode TypingMode, clock *fakeClock) *Typing {
	t.Helper()
	g := NewTyping("race", mode, rand.New(rand.NewSource(3)), time.Minute, clock.Now)
	g.AddPlayer("p1", "Ada")
	g.AddPlayer("p2", "Bob")
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return g
}

func typed(input string) TypingMove {
	return TypingMove{Input: input}
}

// Scenario: the first exact match ends a text race with that winner.
func TestTyping_TextRaceExactMatchWins(t *testing.T) {
	clock := newFakeClock()
	g := newRace(t, TextRace, clock)
	text := g.Content()

	clock.Advance(30 * time.Second)
	half := text[:len(text)/2]
	if res := g.MakeMove("p2", typed(half)); !res.Success || res.GameOver {
		t.Fatalf("partial input should be accepted without ending: %+v", res)
	}

	clock.Advance(30 * time.Second)
	res := g.MakeMove("p1", typed(text))
	if !res.Success || !res.GameOver {
		t.Fatalf("exact match should end the race: %+v", res)
	}
	upd := res.Data.(TypingUpdate)
	if !upd.Finished || upd.Progress != 100 {
		t.Errorf("Unexpected update %+v", upd)
	}
	if g.State() != state.Finished {
		t.Fatalf("Expected finished, got %s", g.State())
	}
	if w, ok := g.Winner(); !ok || w.ID != "p1" {
		t.Fatalf("Expected p1 to win, got %+v", w)
	}
	if res := g.MakeMove("p2", typed(text)); res.Success {
		t.Error("moves after the end must be rejected")
	}
}

func TestTyping_Metrics(t *testing.T) {
	clock := newFakeClock()
	g := newRace(t, TextRace, clock)
	text := []rune(g.Content())

	clock.Advance(time.Minute)
	// Ten correct characters followed by a typo.
	input := string(text[:10]) + "#"
	if text[10] == '#' {
		t.Skip("passage happens to contain '#'")
	}
	res := g.MakeMove("p1", typed(input))
	upd := res.Data.(TypingUpdate)
	if upd.Position != 10 {
		t.Fatalf("Expected prefix position 10, got %d", upd.Position)
	}
	if upd.WPM != 2 {
		t.Errorf("Expected 10/5/1 = 2 wpm, got %v", upd.WPM)
	}
	want := 100 * 10.0 / 11.0
	if upd.Accuracy < want-0.01 || upd.Accuracy > want+0.01 {
		t.Errorf("Expected accuracy %.2f, got %v", want, upd.Accuracy)
	}

	if res := g.MakeMove("p1", typed(string(text)+"extra")); res.Success {
		t.Error("input longer than the text must be rejected")
	}
	if res := g.MakeMove("p1", MarkMove{}); res.Success {
		t.Error("wrong move type must be rejected")
	}
}

func TestTyping_SprintEndsAtDeadline(t *testing.T) {
	clock := newFakeClock()
	g := newRace(t, WordSprint, clock)
	words := []rune(g.Content())

	deadline, ok := g.Deadline()
	if !ok || !deadline.Equal(clock.Now().Add(time.Minute)) {
		t.Fatalf("Expected a deadline one minute out, got %v %v", deadline, ok)
	}

	clock.Advance(20 * time.Second)
	g.MakeMove("p1", typed(string(words[:5])))
	g.MakeMove("p2", typed(string(words[:20])))

	if g.Expire(clock.Now()) {
		t.Fatal("Expire before the deadline must be a no-op")
	}
	if g.State() != state.Playing {
		t.Fatalf("sprint should still be running, got %s", g.State())
	}

	clock.Advance(40 * time.Second)
	if !g.Expire(clock.Now()) {
		t.Fatal("Expire at the deadline should end the sprint")
	}
	if w, ok := g.Winner(); !ok || w.ID != "p2" {
		t.Fatalf("Expected the WPM leader p2 to win, got %+v", w)
	}
	if g.Expire(clock.Now()) {
		t.Error("a second Expire must be a no-op")
	}
	if _, ok := g.Deadline(); ok {
		t.Error("finished sprint has no deadline")
	}
}

func TestTyping_SprintRejectsLateInput(t *testing.T) {
	clock := newFakeClock()
	g := newRace(t, WordSprint, clock)
	words := []rune(g.Content())

	clock.Advance(10 * time.Second)
	if res := g.MakeMove("p1", typed(string(words[:5]))); !res.Success {
		t.Fatalf("input before the deadline rejected: %s", res.Reason)
	}

	// 截止后、Expire 之前的输入不计分
	clock.Advance(50 * time.Second)
	res := g.MakeMove("p2", typed(string(words[:40])))
	if res.Success || res.Reason != "time is up" {
		t.Fatalf("Expected late input to be rejected, got %+v", res)
	}
	if !g.Expire(clock.Now()) {
		t.Fatal("sprint should end at the deadline")
	}
	if w, ok := g.Winner(); !ok || w.ID != "p1" {
		t.Fatalf("late input must not change the winner, got %+v", w)
	}
}

func TestTyping_PauseShiftsDeadline(t *testing.T) {
	clock := newFakeClock()
	g := newRace(t, WordSprint, clock)
	before, _ := g.Deadline()

	clock.Advance(10 * time.Second)
	if err := g.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, ok := g.Deadline(); ok {
		t.Fatal("a paused sprint reports no deadline")
	}
	clock.Advance(15 * time.Second)
	if err := g.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}

	after, ok := g.Deadline()
	if !ok || !after.Equal(before.Add(15*time.Second)) {
		t.Fatalf("Expected the deadline to move by 15s, got %v (was %v)", after, before)
	}
	clock.Advance(45 * time.Second)
	if g.Expire(clock.Now()) {
		t.Error("sprint should still have time left after the shift")
	}
}

func TestTyping_LeaderboardOrder(t *testing.T) {
	clock := newFakeClock()
	g := NewTyping("race", TextRace, rand.New(rand.NewSource(3)), 0, clock.Now)
	for _, id := range []string{"p1", "p2", "p3"} {
		g.AddPlayer(id, id)
	}
	_ = g.Start()
	text := []rune(g.Content())

	clock.Advance(time.Minute)
	g.MakeMove("p3", typed(string(text[:15])))
	g.MakeMove("p1", typed(string(text[:10])))
	g.MakeMove("p2", typed(string(text[:10])))

	lb := g.Leaderboard()
	want := []string{"p3", "p1", "p2"}
	for i, id := range want {
		if lb[i].PlayerID != id {
			t.Fatalf("position %d: expected %s, got %+v", i, id, lb)
		}
	}
}

func TestParseTypingMode(t *testing.T) {
	if m, err := ParseTypingMode(""); err != nil || m != TextRace {
		t.Fatalf("empty mode should default to text-race, got %v %v", m, err)
	}
	if _, err := ParseTypingMode("marathon"); err == nil {
		t.Fatal("unknown mode should fail")
	}
}
