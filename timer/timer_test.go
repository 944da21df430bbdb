package timer

import (
	"context"
	"testing"
	"time"
)

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestScheduler_EveryRepeatsWithoutBurst(t *testing.T) {
	clock := &manualClock{t: time.Unix(1000, 0)}
	s := NewScheduler(clock.Now, time.Millisecond)

	var seen []time.Time
	s.Every(time.Second, func(now time.Time) { seen = append(seen, now) })

	clock.Advance(time.Second)
	s.RunDue(clock.Now())
	clock.Advance(5 * time.Second)
	s.RunDue(clock.Now())
	clock.Advance(time.Second)
	s.RunDue(clock.Now())

	if len(seen) != 3 {
		t.Fatalf("Expected 3 firings, got %d", len(seen))
	}
	if !seen[2].Equal(clock.Now()) {
		t.Errorf("callback should receive the run time, got %v", seen[2])
	}
}

func TestScheduler_OrderAndLen(t *testing.T) {
	clock := &manualClock{t: time.Unix(1000, 0)}
	s := NewScheduler(clock.Now, time.Millisecond)

	var order []string
	s.Every(2*time.Second, func(time.Time) { order = append(order, "b") })
	s.Every(time.Second, func(time.Time) { order = append(order, "a") })
	s.Every(time.Second, func(time.Time) { order = append(order, "c") })

	clock.Advance(3 * time.Second)
	if n := s.RunDue(clock.Now()); n != 3 {
		t.Fatalf("Expected 3 due tasks, got %d", n)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "c" || order[2] != "b" {
		t.Fatalf("Expected [a c b], got %v", order)
	}
	if s.Len() != 3 {
		t.Errorf("periodic tasks should stay queued, %d pending", s.Len())
	}
}

func TestScheduler_PanicDoesNotStopOthers(t *testing.T) {
	clock := &manualClock{t: time.Unix(1000, 0)}
	s := NewScheduler(clock.Now, time.Millisecond)

	ran := false
	s.Every(time.Second, func(time.Time) { panic("boom") })
	s.Every(time.Second, func(time.Time) { ran = true })
	clock.Advance(time.Second)
	s.RunDue(clock.Now())

	if !ran {
		t.Fatal("a panicking task must not block later tasks")
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := NewScheduler(nil, time.Millisecond)
	fired := make(chan struct{}, 1)
	s.Every(time.Millisecond, func(time.Time) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
