package state

import (
	"testing"
)

func TestMachine_InitialState(t *testing.T) {
	sm := NewLifecycle()

	if sm.Current() != Waiting {
		t.Errorf("Expected initial phase waiting, got %s", sm.Current())
	}
}

func TestMachine_LifecycleEdges(t *testing.T) {
	sm := NewLifecycle()

	steps := []struct {
		to      Phase
		allowed bool
	}{
		{Paused, false},
		{Finished, false},
		{Playing, true},
		{Waiting, false},
		{Paused, true},
		{Finished, false},
		{Playing, true},
		{Finished, true},
		{Playing, false},
		{Waiting, false},
	}

	for i, step := range steps {
		from := sm.Current()
		err := sm.ChangeState(step.to)
		if step.allowed && err != nil {
			t.Fatalf("step %d: expected %s -> %s to be allowed, got %v", i, from, step.to, err)
		}
		if !step.allowed {
			if err != ErrTransitionNotAllowed {
				t.Fatalf("step %d: expected ErrTransitionNotAllowed for %s -> %s, got %v", i, from, step.to, err)
			}
			if sm.Current() != from {
				t.Fatalf("step %d: phase changed on a rejected transition", i)
			}
		}
	}
}

func TestMachine_AddAndUseTransition(t *testing.T) {
	sm := NewLifecycle()
	ready := false
	sm.AddTransition(Waiting, Playing, func() bool { return ready })

	if sm.CanChange(Playing) {
		t.Error("CanChange should report false while the guard is false")
	}
	if err := sm.ChangeState(Playing); err != ErrTransitionNotAllowed {
		t.Errorf("Expected guard to block the transition, got %v", err)
	}

	ready = true
	if err := sm.ChangeState(Playing); err != nil {
		t.Errorf("Expected transition to be allowed once the guard passes, got %v", err)
	}
}

func TestMachine_OnEnter(t *testing.T) {
	sm := NewLifecycle()
	sm.AddTransition(Finished, Waiting, nil)

	var entered []Phase
	sm.OnEnter(Waiting, func(from Phase) { entered = append(entered, from) })

	_ = sm.ChangeState(Playing)
	_ = sm.ChangeState(Finished)
	if err := sm.ChangeState(Waiting); err != nil {
		t.Fatalf("replay edge should be allowed: %v", err)
	}

	if len(entered) != 1 || entered[0] != Finished {
		t.Errorf("Expected one OnEnter(waiting) call from finished, got %v", entered)
	}
}
