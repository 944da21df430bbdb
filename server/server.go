package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/gamehub/broadcast"
	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/network"
	"github.com/wfunc/gamehub/registry"
	"github.com/wfunc/gamehub/session"
)

const DefaultHeartbeat = 30 * time.Second

// ClientGauge tracks open connections; monitor.Monitor implements it.
type ClientGauge interface {
	IncConnectedClients()
	DecConnectedClients()
}

type Options struct {
	Registry       *registry.Registry
	SessionManager *session.Manager
	Broadcaster    *broadcast.ClientBroadcaster
	Clients        ClientGauge
	Heartbeat      time.Duration
}

// GameServer is the websocket gateway: it owns client connections and turns
// their packets into registry calls.
type GameServer struct {
	upgrader       websocket.Upgrader
	registry       *registry.Registry
	sessionManager *session.Manager
	broadcaster    *broadcast.ClientBroadcaster
	clients        ClientGauge
	heartbeat      time.Duration

	wg           sync.WaitGroup
	mutex        sync.Mutex
	closed       bool
	shutdownChan chan struct{}
}

func NewGameServer(opts Options) *GameServer {
	s := &GameServer{
		registry:       opts.Registry,
		sessionManager: opts.SessionManager,
		broadcaster:    opts.Broadcaster,
		clients:        opts.Clients,
		heartbeat:      opts.Heartbeat,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	if s.sessionManager == nil {
		s.sessionManager = session.NewManager()
	}
	if s.broadcaster == nil {
		s.broadcaster = broadcast.NewClientBroadcaster(s.sessionManager)
	}
	if s.heartbeat <= 0 {
		s.heartbeat = DefaultHeartbeat
	}
	return s
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (s *GameServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.heartbeat)
	s.ServeConn(wsConn)
}

// ServeConn runs the read loop for one client connection.
func (s *GameServer) ServeConn(conn network.Connection) {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		conn.Close()
		return
	}
	s.wg.Add(1)
	s.mutex.Unlock()
	defer s.wg.Done()

	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	if s.clients != nil {
		s.clients.IncConnectedClients()
	}
	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.registry.Disconnect(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		if s.clients != nil {
			s.clients.DecConnectedClients()
		}
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}
		packet, err := conn.ReadPacket()
		if err != nil {
			return
		}
		if packet == nil {
			continue
		}
		sess.Touch()
		s.handlePacket(sess, packet)
	}
}

// Shutdown closes every client connection and waits for the read loops to
// finish or ctx to expire.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	if !s.closed {
		s.closed = true
		close(s.shutdownChan)
	}
	s.mutex.Unlock()
	s.sessionManager.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type createGameReq struct {
	DisplayName string       `json:"displayName"`
	Type        game.Type    `json:"type"`
	Options     game.Options `json:"options"`
}

type joinGameReq struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

type availableGamesReq struct {
	Type game.Type `json:"type"`
}

type chatReq struct {
	Text string `json:"text"`
}

type availableGamesRes struct {
	Games []game.Summary `json:"games"`
}

type supportedTypesRes struct {
	Types []game.TypeInfo `json:"types"`
}

type heartbeatRes struct {
	ServerTime time.Time `json:"serverTime"`
	SessionID  string    `json:"sessionId,omitempty"`
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	id := sess.GetID()
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		s.registry.Touch(id)
		res := heartbeatRes{ServerTime: time.Now()}
		res.SessionID, _ = s.registry.SessionOf(id)
		s.reply(id, "heartbeat", res)

	case network.MsgTypeCreateGame:
		var req createGameReq
		if s.decode(sess, packet, &req) {
			s.registry.CreateSession(context.Background(), id, req.Type, req.DisplayName, req.Options)
		}

	case network.MsgTypeJoinGame:
		var req joinGameReq
		if s.decode(sess, packet, &req) {
			s.registry.JoinSession(id, req.SessionID, req.DisplayName)
		}

	case network.MsgTypeLeaveGame:
		s.registry.Leave(id)

	case network.MsgTypeGetAvailableGames:
		var req availableGamesReq
		if len(packet.Data) > 0 && !s.decode(sess, packet, &req) {
			return
		}
		if req.Type != "" {
			if _, ok := game.Lookup(req.Type); !ok {
				s.replyError(id, fmt.Errorf("%w: unsupported game type %q", game.ErrInvalidRequest, req.Type))
				return
			}
		}
		s.reply(id, registry.EventAvailableGames, availableGamesRes{Games: s.registry.ListAvailable(req.Type)})

	case network.MsgTypeGetSupportedGameTypes:
		s.reply(id, registry.EventSupportedGameTypes, supportedTypesRes{Types: s.registry.Catalog()})

	case network.MsgTypeStartGame:
		s.registry.Dispatch(id, registry.StartGame{})
	case network.MsgTypePauseGame:
		s.registry.Dispatch(id, registry.PauseGame{})
	case network.MsgTypeResumeGame:
		s.registry.Dispatch(id, registry.ResumeGame{})
	case network.MsgTypeResetBoard:
		s.registry.Dispatch(id, registry.ResetBoard{})
	case network.MsgTypeResetBattleship:
		s.registry.Dispatch(id, registry.ResetBattleship{})

	case network.MsgTypeMakeMove:
		data := make(json.RawMessage, len(packet.Data))
		copy(data, packet.Data)
		s.registry.Dispatch(id, registry.MakeMove{Data: data})

	case network.MsgTypeUseHint:
		ev, err := registry.DecodeUseHint(packet.Data)
		if err != nil {
			s.replyError(id, err)
			return
		}
		s.registry.Dispatch(id, ev)

	case network.MsgTypePlaceShip:
		ev, err := registry.DecodePlaceShip(packet.Data)
		if err != nil {
			s.replyError(id, err)
			return
		}
		s.registry.Dispatch(id, ev)

	case network.MsgTypeChatMessage:
		var req chatReq
		if s.decode(sess, packet, &req) {
			s.registry.Chat(id, req.Text)
		}

	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.replyError(id, fmt.Errorf("%w: unknown message type %d", game.ErrInvalidRequest, packet.MsgID))
	}
}

// decode unmarshals the packet body and answers malformed input with an
// error reply.
func (s *GameServer) decode(sess *session.Session, packet *network.Packet, v any) bool {
	if err := json.Unmarshal(packet.Data, v); err != nil {
		logger.Log.Debugf("session %s sent malformed %s: %v", sess.GetID(), network.Name(packet.MsgID), err)
		s.replyError(sess.GetID(), fmt.Errorf("%w: malformed %s payload", game.ErrInvalidRequest, network.Name(packet.MsgID)))
		return false
	}
	return true
}

func (s *GameServer) reply(connID, event string, data any) {
	if err := s.broadcaster.Send(connID, registry.Message{Event: event, Data: data}); err != nil {
		logger.Log.Debugf("reply %s to %s failed: %v", event, connID, err)
	}
}

func (s *GameServer) replyError(connID string, err error) {
	s.reply(connID, registry.EventError, registry.ErrorPayload{Code: game.Code(err), Message: err.Error()})
}
