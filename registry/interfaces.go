package registry

import (
	"context"
	"time"

	"github.com/wfunc/gamehub/game"
)

// Message is one outbound event addressed to a single connection.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Broadcaster delivers messages to client connections. Send is called in
// delivery order while the registry holds its send lock, so it must only
// queue the message and never wait on the client.
// It is defined here so transport packages can depend on the registry
// without the registry importing them.
type Broadcaster interface {
	Send(connID string, msg Message) error
}

// Recorder receives operational metrics.
type Recorder interface {
	ObserveEvent(event, outcome string, d time.Duration)
	SetSessions(counts map[game.Type]int)
	SetOnlinePlayers(n int)
	GameFinished(t game.Type, reason string)
}

// Archiver stores the result of a finished session.
type Archiver interface {
	Archive(ctx context.Context, r game.Result) error
}

type nopBroadcaster struct{}

func (nopBroadcaster) Send(string, Message) error { return nil }

type nopRecorder struct{}

func (nopRecorder) ObserveEvent(string, string, time.Duration) {}
func (nopRecorder) SetSessions(map[game.Type]int)              {}
func (nopRecorder) SetOnlinePlayers(int)                       {}
func (nopRecorder) GameFinished(game.Type, string)             {}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context, game.Result) error { return nil }
