package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/models"
)

const (
	ServiceName  = "CatalogService"
	queryTimeout = 5 * time.Second
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server listening on addr.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes svc's methods under ServiceName.
func (s *Server) Register(svc *CatalogService) error {
	return s.rpc.RegisterName(ServiceName, svc)
}

// Addr is the bound listener address.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Lister is the read-only registry view the service needs.
type Lister interface {
	ListAvailable(filter game.Type) []game.Summary
	Catalog() []game.TypeInfo
}

// HistoryReader reads archived matches.
type HistoryReader interface {
	History(ctx context.Context, name string, limit int) ([]models.GameRecord, error)
}

// CatalogService is the struct that exposes RPC methods.
// Methods follow the net/rpc signature: exported args, pointer reply, error return.
type CatalogService struct {
	games   Lister
	history HistoryReader
}

func NewCatalogService(games Lister, history HistoryReader) *CatalogService {
	return &CatalogService{games: games, history: history}
}

type ListGamesArgs struct {
	Type string
}

// GameInfo is the gob-friendly form of game.Summary; type specific details
// are flattened to strings.
type GameInfo struct {
	SessionID   string
	Type        string
	HostName    string
	PlayerCount int
	MaxPlayers  int
	State       string
	CreatedAt   time.Time
	Details     map[string]string
}

type ListGamesReply struct {
	Games []GameInfo
}

func gameInfo(s game.Summary) GameInfo {
	info := GameInfo{
		SessionID:   s.SessionID,
		Type:        string(s.Type),
		HostName:    s.HostName,
		PlayerCount: s.PlayerCount,
		MaxPlayers:  s.MaxPlayers,
		State:       string(s.State),
		CreatedAt:   s.CreatedAt,
	}
	if details, ok := s.Details.(map[string]any); ok {
		info.Details = make(map[string]string, len(details))
		for k, v := range details {
			info.Details[k] = fmt.Sprint(v)
		}
	}
	return info
}

func (cs *CatalogService) ListGames(args *ListGamesArgs, reply *ListGamesReply) error {
	t := game.Type(args.Type)
	if t != "" {
		if _, ok := game.Lookup(t); !ok {
			return fmt.Errorf("%w: unsupported game type %q", game.ErrInvalidRequest, t)
		}
	}
	for _, summary := range cs.games.ListAvailable(t) {
		reply.Games = append(reply.Games, gameInfo(summary))
	}
	return nil
}

// SupportedTypesArgs narrows the catalog to one type when Type is set.
type SupportedTypesArgs struct {
	Type string
}

type SupportedTypesReply struct {
	Types []game.TypeInfo
}

func (cs *CatalogService) SupportedTypes(args *SupportedTypesArgs, reply *SupportedTypesReply) error {
	for _, info := range cs.games.Catalog() {
		if args.Type == "" || string(info.Type) == args.Type {
			reply.Types = append(reply.Types, info)
		}
	}
	return nil
}

type HistoryArgs struct {
	Name  string
	Limit int
}

type HistoryReply struct {
	Records []models.GameRecord
}

func (cs *CatalogService) History(args *HistoryArgs, reply *HistoryReply) error {
	if cs.history == nil {
		return errors.New("match history is not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	records, err := cs.history.History(ctx, args.Name, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}
