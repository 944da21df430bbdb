package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/state"
)

const (
	DefaultGracePeriod = 30 * time.Second
	maxChatLength      = 500
	archiveTimeout     = 5 * time.Second
)

// Options configures a Registry. Only Factory is required.
type Options struct {
	Factory     *game.Factory
	Broadcaster Broadcaster
	Recorder    Recorder
	Archiver    Archiver
	Clock       func() time.Time
	GracePeriod time.Duration
	NewID       func() string
}

// Registry owns every live session and the connection to session index.
// All mutations happen under mu; outbound messages are collected during an
// operation and delivered after mu is released, in operation order.
type Registry struct {
	mu       sync.Mutex
	sendMu   sync.Mutex
	sessions map[string]*entry
	members  map[string]string // connID -> sessionID

	factory     *game.Factory
	broadcaster Broadcaster
	recorder    Recorder
	archiver    Archiver
	clock       func() time.Time
	grace       time.Duration
	newID       func() string
}

type entry struct {
	session  game.Session
	deleteAt time.Time
}

func New(opts Options) *Registry {
	r := &Registry{
		sessions:    make(map[string]*entry),
		members:     make(map[string]string),
		factory:     opts.Factory,
		broadcaster: opts.Broadcaster,
		recorder:    opts.Recorder,
		archiver:    opts.Archiver,
		clock:       opts.Clock,
		grace:       opts.GracePeriod,
		newID:       opts.NewID,
	}
	if r.factory == nil {
		r.factory = game.NewFactory(game.FactoryConfig{Clock: opts.Clock})
	}
	if r.broadcaster == nil {
		r.broadcaster = nopBroadcaster{}
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}
	if r.archiver == nil {
		r.archiver = nopArchiver{}
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.grace <= 0 {
		r.grace = DefaultGracePeriod
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// outbox collects the side effects of one operation.
type outbox struct {
	msgs    []envelope
	results []game.Result
}

type envelope struct {
	to  string
	msg Message
}

func (o *outbox) unicast(connID, event string, data any) {
	o.msgs = append(o.msgs, envelope{connID, Message{Event: event, Data: data}})
}

// broadcast sends to every member of s except those listed in skip.
func (o *outbox) broadcast(s game.Session, event string, data any, skip ...string) {
	for _, id := range s.PlayerIDs() {
		if contains(skip, id) {
			continue
		}
		o.unicast(id, event, data)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// rejection is a move the session refused; it is reported as invalidMove.
type rejection struct {
	event  string
	reason string
}

func (e *rejection) Error() string { return e.reason }
func (e *rejection) Unwrap() error { return game.ErrInvalidRequest }

// do runs fn under the registry lock. On failure everything fn queued is
// dropped and replyTo, when set, gets a single error or invalidMove reply.
func (r *Registry) do(op, replyTo string, fn func(out *outbox) error) error {
	started := time.Now()
	out := &outbox{}

	r.mu.Lock()
	err := r.safely(op, out, fn)
	if err != nil {
		out = &outbox{}
		if replyTo != "" {
			out.unicast(replyTo, replyEvent(err), replyPayload(err))
		}
	}
	r.refreshGauges()
	r.sendMu.Lock()
	r.mu.Unlock()

	for _, env := range out.msgs {
		if serr := r.broadcaster.Send(env.to, env.msg); serr != nil {
			logger.Log.Debugf("send %s to %s failed: %v", env.msg.Event, env.to, serr)
		}
	}
	r.sendMu.Unlock()

	for _, res := range out.results {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		if aerr := r.archiver.Archive(ctx, res); aerr != nil {
			logger.Log.Errorf("archive session %s: %v", res.SessionID, aerr)
		}
		cancel()
	}

	outcome := "ok"
	if err != nil {
		outcome = game.Code(err)
	}
	r.recorder.ObserveEvent(op, outcome, time.Since(started))
	return err
}

func (r *Registry) safely(op string, out *outbox, fn func(out *outbox) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.Errorf("panic handling %s: %v", op, p)
			err = fmt.Errorf("%w: %v", game.ErrInternal, p)
		}
	}()
	err = fn(out)
	switch {
	case err == nil:
	case game.IsInternal(err):
		logger.Log.Errorf("%s failed: %v", op, err)
	default:
		logger.Log.Debugf("%s rejected: %v", op, err)
	}
	return err
}

func replyEvent(err error) string {
	var rej *rejection
	if errors.As(err, &rej) {
		return EventInvalidMove
	}
	return EventError
}

func replyPayload(err error) any {
	var rej *rejection
	if errors.As(err, &rej) {
		return InvalidMovePayload{Event: rej.event, Reason: rej.reason}
	}
	msg := err.Error()
	if game.IsInternal(err) {
		msg = "internal server error"
	}
	return ErrorPayload{Code: game.Code(err), Message: msg}
}

// refreshGauges must be called with mu held.
func (r *Registry) refreshGauges() {
	counts := make(map[game.Type]int)
	for _, e := range r.sessions {
		counts[e.session.Type()]++
	}
	r.recorder.SetSessions(counts)
	r.recorder.SetOnlinePlayers(len(r.members))
}

// CreateSession builds a session of type t with connID as its host. A
// connection that is already in a session leaves it first.
func (r *Registry) CreateSession(ctx context.Context, connID string, t game.Type, displayName string, opts game.Options) (string, game.Snapshot, error) {
	var (
		id   string
		snap game.Snapshot
	)
	name := strings.TrimSpace(displayName)
	err := r.do(EventCreateGame, connID, func(out *outbox) error {
		if name == "" {
			return fmt.Errorf("%w: display name is required", game.ErrInvalidRequest)
		}
		if !r.factory.Supports(t) {
			return fmt.Errorf("%w: unsupported game type %q", game.ErrInvalidRequest, t)
		}
		id = r.newID()
		s, err := r.factory.New(ctx, id, t, opts)
		if err != nil {
			return err
		}
		if _, ok := r.members[connID]; ok {
			r.removeLocked(connID, false, out)
		}
		if !s.AddPlayer(connID, name) {
			return fmt.Errorf("%w: could not seat host", game.ErrInternal)
		}
		r.sessions[id] = &entry{session: s}
		r.members[connID] = id
		snap = s.Snapshot()
		out.unicast(connID, EventGameCreated, SessionPayload{SessionID: id, PlayerID: connID, Snapshot: snap})
		logger.Log.Infof("session %s created: type=%s host=%s", id, t, connID)
		return nil
	})
	if err != nil {
		return "", game.Snapshot{}, err
	}
	return id, snap, nil
}

// JoinSession seats connID in a waiting session and cancels any pending
// deletion.
func (r *Registry) JoinSession(connID, sessionID, displayName string) (game.Snapshot, error) {
	var snap game.Snapshot
	name := strings.TrimSpace(displayName)
	err := r.do(EventJoinGame, connID, func(out *outbox) error {
		if name == "" {
			return fmt.Errorf("%w: display name is required", game.ErrInvalidRequest)
		}
		e, ok := r.sessions[sessionID]
		if !ok {
			return fmt.Errorf("%w: game %s", game.ErrNotFound, sessionID)
		}
		s := e.session
		if r.members[connID] == sessionID {
			return fmt.Errorf("%w: already in this game", game.ErrInvalidRequest)
		}
		if st := s.State(); st != state.Waiting {
			return fmt.Errorf("%w: game is %s", game.ErrInvalidState, st)
		}
		if s.PlayerCount() >= s.MaxPlayers() {
			return fmt.Errorf("%w: game is full", game.ErrFull)
		}
		if _, ok := r.members[connID]; ok {
			r.removeLocked(connID, false, out)
		}
		if !s.AddPlayer(connID, name) {
			return fmt.Errorf("%w: could not seat player", game.ErrInternal)
		}
		e.deleteAt = time.Time{}
		r.members[connID] = sessionID

		snap = s.Snapshot()
		p, _ := s.Player(connID)
		out.unicast(connID, EventGameJoined, SessionPayload{SessionID: sessionID, PlayerID: connID, Snapshot: snap})
		out.broadcast(s, EventPlayerJoined, PlayerPayload{Player: p, Snapshot: snap}, connID)
		logger.Log.Infof("player %s joined session %s", connID, sessionID)
		return nil
	})
	if err != nil {
		return game.Snapshot{}, err
	}
	return snap, nil
}

// Dispatch routes an event to the sender's session.
func (r *Registry) Dispatch(connID string, ev Event) error {
	return r.do(ev.Name(), connID, func(out *outbox) error {
		sessionID, ok := r.members[connID]
		if !ok {
			return fmt.Errorf("%w: not in a game", game.ErrNotFound)
		}
		e, ok := r.sessions[sessionID]
		if !ok {
			return fmt.Errorf("%w: game %s", game.ErrNotFound, sessionID)
		}
		s := e.session
		if hostOnly(ev) && s.HostID() != connID {
			return fmt.Errorf("%w: only the host can %s", game.ErrUnauthorized, ev.Name())
		}
		s.Touch(connID, r.clock())
		return r.apply(e, connID, ev, out)
	})
}

func (r *Registry) apply(e *entry, connID string, ev Event, out *outbox) error {
	s := e.session
	switch ev := ev.(type) {
	case StartGame:
		if err := s.Start(); err != nil {
			return err
		}
		out.broadcast(s, EventGameStarted, StatePayload{Snapshot: s.Snapshot()})
		logger.Log.Infof("session %s started", s.ID())

	case PauseGame:
		if err := s.Pause(); err != nil {
			return err
		}
		out.broadcast(s, EventGamePaused, StatePayload{Snapshot: s.Snapshot()})

	case ResumeGame:
		if err := s.Resume(); err != nil {
			return err
		}
		out.broadcast(s, EventGameResumed, StatePayload{Snapshot: s.Snapshot()})

	case MakeMove:
		mv, err := game.DecodeMove(s.Type(), ev.Data)
		if err != nil {
			return err
		}
		res := s.MakeMove(connID, mv)
		return r.moved(e, connID, ev.Name(), game.MoveEvent(s.Type()), res, out)

	case UseHint:
		h, ok := s.(game.Hinter)
		if !ok {
			return fmt.Errorf("%w: %s has no hints", game.ErrInvalidRequest, s.Type())
		}
		res := h.UseHint(connID, ev.Row, ev.Col)
		return r.moved(e, connID, ev.Name(), EventHintUsed, res, out)

	case PlaceShip:
		return r.placeShip(s, connID, ev, out)

	case ResetBoard:
		return r.reset(s, game.TypeTicTacToe, EventBoardReset, out)

	case ResetBattleship:
		return r.reset(s, game.TypeBattleship, EventBattleshipReset, out)

	default:
		return fmt.Errorf("%w: unknown event %s", game.ErrInvalidRequest, ev.Name())
	}
	return nil
}

// moved broadcasts an accepted move and finishes the session when it ended.
func (r *Registry) moved(e *entry, connID, inbound, outbound string, res game.MoveResult, out *outbox) error {
	if !res.Success {
		return &rejection{event: inbound, reason: res.Reason}
	}
	s := e.session
	out.broadcast(s, outbound, MovePayload{PlayerID: connID, Result: res.Data, Snapshot: s.Snapshot()})
	if res.GameOver {
		reason := "win"
		if _, ok := s.Winner(); !ok {
			reason = "draw"
		}
		r.finishLocked(e, reason, out)
	}
	return nil
}

func (r *Registry) placeShip(s game.Session, connID string, ev PlaceShip, out *outbox) error {
	placer, ok := s.(game.ShipPlacer)
	if !ok {
		return fmt.Errorf("%w: %s has no ships", game.ErrInvalidRequest, s.Type())
	}
	o, err := game.ParseOrientation(ev.Orientation)
	if err != nil {
		return err
	}
	res := placer.PlaceShip(connID, ev.ShipName, ev.StartRow, ev.StartCol, o)
	if !res.Success {
		return &rejection{event: ev.Name(), reason: res.Reason}
	}
	out.unicast(connID, EventShipPlaced, res.Data)
	data, _ := res.Data.(game.PlacementData)
	if data.Ready {
		out.broadcast(s, EventPlayerReady, ReadyPayload{PlayerID: connID, Ready: true})
	}
	if data.BattleStarted {
		out.broadcast(s, EventGameStarted, StatePayload{Snapshot: s.Snapshot()})
		logger.Log.Infof("session %s started", s.ID())
	}
	return nil
}

func (r *Registry) reset(s game.Session, want game.Type, event string, out *outbox) error {
	rs, ok := s.(game.Resetter)
	if !ok || s.Type() != want {
		return fmt.Errorf("%w: %s cannot be reset this way", game.ErrInvalidRequest, s.Type())
	}
	if err := rs.Reset(); err != nil {
		return err
	}
	out.broadcast(s, event, StatePayload{Snapshot: s.Snapshot()})
	return nil
}

// finishLocked announces a finished session and queues its archive record.
func (r *Registry) finishLocked(e *entry, reason string, out *outbox) {
	s := e.session
	payload := FinishedPayload{Reason: reason, Snapshot: s.Snapshot()}
	if w, ok := s.Winner(); ok {
		payload.WinnerID, payload.WinnerName = w.ID, w.Name
	}
	out.broadcast(s, EventGameFinished, payload)
	out.results = append(out.results, s.Result())
	r.recorder.GameFinished(s.Type(), reason)
	logger.Log.Infof("session %s finished: reason=%s winner=%s", s.ID(), reason, payload.WinnerID)
}

// Leave removes connID from its session; an emptied session is deleted at once.
func (r *Registry) Leave(connID string) error {
	return r.do(EventLeaveGame, connID, func(out *outbox) error {
		if _, ok := r.members[connID]; !ok {
			return fmt.Errorf("%w: not in a game", game.ErrNotFound)
		}
		r.removeLocked(connID, false, out)
		return nil
	})
}

// Disconnect removes connID if it was seated; an emptied session survives
// for the grace period so players can come back.
func (r *Registry) Disconnect(connID string) {
	_ = r.do("disconnect", "", func(out *outbox) error {
		if _, ok := r.members[connID]; ok {
			r.removeLocked(connID, true, out)
		}
		return nil
	})
}

func (r *Registry) removeLocked(connID string, disconnect bool, out *outbox) {
	sessionID := r.members[connID]
	delete(r.members, connID)
	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	s := e.session
	p, _ := s.Player(connID)
	wasHost := s.HostID() == connID
	s.RemovePlayer(connID)

	if s.PlayerCount() == 0 {
		if disconnect {
			e.deleteAt = r.clock().Add(r.grace)
			logger.Log.Infof("session %s empty, deleting after %s", sessionID, r.grace)
		} else {
			r.deleteLocked(sessionID, "empty")
		}
		return
	}

	out.broadcast(s, EventPlayerLeft, PlayerPayload{Player: p, Snapshot: s.Snapshot()})
	if wasHost {
		host, _ := s.Player(s.HostID())
		out.broadcast(s, EventHostChanged, HostPayload{HostID: host.ID, HostName: host.Name})
	}
	if st := s.State(); (st == state.Playing || st == state.Paused) && s.PlayerCount() < s.MinPlayers() {
		if err := forfeit(s, s.PlayerIDs()[0]); err == nil {
			r.finishLocked(e, "forfeit", out)
		}
	}
}

// forfeit awards the game to winnerID, letting the session settle its own
// scores when it knows how.
func forfeit(s game.Session, winnerID string) error {
	if f, ok := s.(game.Forfeiter); ok {
		return f.Forfeit(winnerID)
	}
	return s.EndGame(winnerID)
}

func (r *Registry) deleteLocked(sessionID, reason string) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	for _, id := range e.session.PlayerIDs() {
		if r.members[id] == sessionID {
			delete(r.members, id)
		}
	}
	delete(r.sessions, sessionID)
	logger.Log.Infof("session %s deleted: %s", sessionID, reason)
}

// Tick fires every deadline due at now: grace deletions of empty sessions
// and timed round ends. Deadlines are re-checked here, so a stale one does
// nothing.
func (r *Registry) Tick(now time.Time) {
	_ = r.do("tick", "", func(out *outbox) error {
		for id, e := range r.sessions {
			if !e.deleteAt.IsZero() && !now.Before(e.deleteAt) && e.session.PlayerCount() == 0 {
				r.deleteLocked(id, "grace period elapsed")
				continue
			}
			if d, ok := e.session.(game.Deadliner); ok && d.Expire(now) {
				r.finishLocked(e, "timeout", out)
			}
		}
		return nil
	})
}

// SweepIdle deletes every unfinished session in which nobody has been
// active for idle. Empty sessions waiting out their grace period are left to
// Tick. It returns the number of sessions removed.
func (r *Registry) SweepIdle(now time.Time, idle time.Duration) int {
	removed := 0
	_ = r.do("sweepIdle", "", func(out *outbox) error {
		cutoff := now.Add(-idle)
		for id, e := range r.sessions {
			s := e.session
			// 宽限期内的空对局只由 Tick 删除
			if !e.deleteAt.IsZero() && s.PlayerCount() == 0 {
				continue
			}
			if s.State() == state.Finished || !s.IdleSince(cutoff) {
				continue
			}
			out.broadcast(s, EventError, ErrorPayload{
				Code:    game.Code(game.ErrNotFound),
				Message: "game closed after inactivity",
			})
			r.deleteLocked(id, "idle")
			removed++
		}
		return nil
	})
	return removed
}

// Chat relays a message to every member of the sender's session.
func (r *Registry) Chat(connID, text string) error {
	return r.do(EventChatMessage, connID, func(out *outbox) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("%w: empty message", game.ErrInvalidRequest)
		}
		if runes := []rune(text); len(runes) > maxChatLength {
			text = string(runes[:maxChatLength])
		}
		sessionID, ok := r.members[connID]
		if !ok {
			return fmt.Errorf("%w: not in a game", game.ErrNotFound)
		}
		s := r.sessions[sessionID].session
		now := r.clock()
		s.Touch(connID, now)
		p, _ := s.Player(connID)
		out.broadcast(s, EventChatMessage, ChatPayload{PlayerID: connID, Name: p.Name, Text: text, At: now})
		return nil
	})
}

// Touch records activity for connID, e.g. on heartbeat.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID, ok := r.members[connID]; ok {
		r.sessions[sessionID].session.Touch(connID, r.clock())
	}
}

// ListAvailable returns joinable sessions, oldest first. An empty filter
// matches every type.
func (r *Registry) ListAvailable(filter game.Type) []game.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]game.Summary, 0)
	for _, e := range r.sessions {
		s := e.session
		if filter != "" && s.Type() != filter {
			continue
		}
		if s.State() != state.Waiting || s.PlayerCount() >= s.MaxPlayers() || !e.deleteAt.IsZero() {
			continue
		}
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// Catalog lists the supported game types.
func (r *Registry) Catalog() []game.TypeInfo {
	return r.factory.Catalog()
}

// Get returns the snapshot of a live session.
func (r *Registry) Get(sessionID string) (game.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return game.Snapshot{}, false
	}
	return e.session.Snapshot(), true
}

// SessionOf returns the session connID is seated in.
func (r *Registry) SessionOf(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.members[connID]
	return id, ok
}

// Stats is a point-in-time count of live sessions and players.
type Stats struct {
	Sessions      int                 `json:"sessions"`
	OnlinePlayers int                 `json:"onlinePlayers"`
	ByType        map[game.Type]int   `json:"byType"`
	ByState       map[state.Phase]int `json:"byState"`
	PendingDelete int                 `json:"pendingDelete"`
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{
		Sessions:      len(r.sessions),
		OnlinePlayers: len(r.members),
		ByType:        make(map[game.Type]int),
		ByState:       make(map[state.Phase]int),
	}
	for _, e := range r.sessions {
		st.ByType[e.session.Type()]++
		st.ByState[e.session.State()]++
		if !e.deleteAt.IsZero() {
			st.PendingDelete++
		}
	}
	return st
}
