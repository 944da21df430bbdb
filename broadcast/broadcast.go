// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/gamehub/network"
	"github.com/wfunc/gamehub/registry"
	"github.com/wfunc/gamehub/session"
)

var (
	ErrNotConnected = errors.New("connection not found")
	ErrUnknownEvent = errors.New("unknown outbound event")
)

// 基于客户端连接的广播器
type ClientBroadcaster struct {
	sessionManager *session.Manager
}

var _ registry.Broadcaster = (*ClientBroadcaster)(nil)

func NewClientBroadcaster(sessionManager *session.Manager) *ClientBroadcaster {
	return &ClientBroadcaster{sessionManager: sessionManager}
}

// Encode turns a registry message into a packet id and JSON body.
func Encode(msg registry.Message) (uint16, []byte, error) {
	msgID, ok := network.OutboundID(msg.Event)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownEvent, msg.Event)
	}
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", msg.Event, err)
	}
	return msgID, data, nil
}

func (b *ClientBroadcaster) Send(connID string, msg registry.Message) error {
	s, exists := b.sessionManager.Get(connID)
	if !exists {
		return ErrNotConnected
	}
	msgID, data, err := Encode(msg)
	if err != nil {
		return err
	}
	return s.Send(msgID, data)
}

// BroadcastToAll sends msg to every connected client and returns the first
// send error.
func (b *ClientBroadcaster) BroadcastToAll(msg registry.Message) error {
	msgID, data, err := Encode(msg)
	if err != nil {
		return err
	}
	var first error
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil && first == nil {
			// 发送失败的连接由读循环负责清理
			first = err
		}
	}
	return first
}
