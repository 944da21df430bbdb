package state

import (
	"errors"
	"sync"
)

// Phase is a lifecycle state of a game session.
type Phase string

const (
	Waiting  Phase = "waiting"
	Playing  Phase = "playing"
	Paused   Phase = "paused"
	Finished Phase = "finished"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 状态机接口
type StateMachine interface {
	ChangeState(to Phase) error
	Current() Phase
	AddTransition(from, to Phase, condition func() bool)
}

// Machine only moves along registered edges. An edge may carry a guard
// condition; OnEnter hooks run after the phase has changed.
type Machine struct {
	current     Phase
	transitions map[Phase]map[Phase]func() bool // fromState -> toState -> condition
	onEnter     map[Phase][]func(from Phase)
	mutex       sync.RWMutex
}

func NewMachine(initial Phase) *Machine {
	return &Machine{
		current:     initial,
		transitions: make(map[Phase]map[Phase]func() bool),
		onEnter:     make(map[Phase][]func(from Phase)),
	}
}

// NewLifecycle returns a machine in Waiting with the shared session edges:
// waiting -> playing <-> paused, playing -> finished.
func NewLifecycle() *Machine {
	m := NewMachine(Waiting)
	m.AddTransition(Waiting, Playing, nil)
	m.AddTransition(Playing, Paused, nil)
	m.AddTransition(Paused, Playing, nil)
	m.AddTransition(Playing, Finished, nil)
	return m
}

func (sm *Machine) ChangeState(to Phase) error {
	sm.mutex.Lock()
	from := sm.current

	conditions, exists := sm.transitions[from]
	if !exists {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}
	condition, exists := conditions[to]
	if !exists || (condition != nil && !condition()) {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}

	sm.current = to
	hooks := sm.onEnter[to]
	sm.mutex.Unlock()

	for _, hook := range hooks {
		hook(from)
	}
	return nil
}

// CanChange reports whether ChangeState(to) would succeed right now.
func (sm *Machine) CanChange(to Phase) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	condition, exists := sm.transitions[sm.current][to]
	return exists && (condition == nil || condition())
}

func (sm *Machine) Current() Phase {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.current
}

func (sm *Machine) Is(p Phase) bool {
	return sm.Current() == p
}

func (sm *Machine) AddTransition(from, to Phase, condition func() bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Phase]func() bool)
	}
	sm.transitions[from][to] = condition
}

// OnEnter registers a hook that runs every time the machine enters p.
func (sm *Machine) OnEnter(p Phase, hook func(from Phase)) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onEnter[p] = append(sm.onEnter[p], hook)
}
