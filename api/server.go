package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	mc "github.com/saeidalz13/battleship-arena/models/connection"
	"github.com/saeidalz13/battleship-arena/models/session"
)

const (
	StageProd = "prod"
	StageDev  = "dev"

	defaultAddr        = "0.0.0.0:9191"
	defaultBoardHeight = 11
	defaultBoardWidth  = 18
	readHeaderTimeout  = time.Second * 5
	RouteWebsocket     = "GET /battleship"
	RouteListSessions  = "GET /sessions"
)

type Server struct {
	addr   string
	stage  string
	logger *zap.Logger

	analytics     Analytics
	boardHeight   int
	boardWidth    int
	sessions      session.SessionManager
	clientManager *mc.ClientManager

	httpServer *http.Server
}

type Option func(*Server) error

func NewServer(sessions session.SessionManager, optFuncs ...Option) (*Server, error) {
	server := Server{
		addr:        defaultAddr,
		stage:       StageDev,
		logger:      zap.NewNop(),
		analytics:   NoopAnalytics{},
		boardHeight: defaultBoardHeight,
		boardWidth:  defaultBoardWidth,
		sessions:    sessions,
	}
	for _, opt := range optFuncs {
		if err := opt(&server); err != nil {
			return nil, err
		}
	}

	server.clientManager = mc.NewClientManager(server.logger)
	server.httpServer = &http.Server{
		Addr:              server.addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return &server, nil
}

func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != StageProd && stage != StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

func WithAnalytics(analytics Analytics) Option {
	return func(s *Server) error {
		if analytics != nil {
			s.analytics = analytics
		}
		return nil
	}
}

// WithDefaultBoard sets the size used when a create request omits it.
func WithDefaultBoard(height, width int) Option {
	return func(s *Server) error {
		if height < 1 || width < 1 {
			return fmt.Errorf("invalid default board %dx%d", height, width)
		}
		s.boardHeight = height
		s.boardWidth = width
		return nil
	}
}

func (s *Server) Handler() http.Handler {
	rp := NewRequestProcessor(s.sessions, s.clientManager, s.analytics, s.logger, s.boardHeight, s.boardWidth)

	mux := http.NewServeMux()
	mux.Handle(RouteWebsocket, rp)
	mux.HandleFunc(RouteListSessions, s.handleListSessions)
	return mux
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mc.RespListSessions{SessionIDs: s.sessions.ListSessions()}); err != nil {
		s.logger.Warn("writing session list", zap.Error(err))
	}
}

// Start blocks serving http until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.addr), zap.String("stage", s.stage))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops accepting requests and closes the open websockets, which
// ends their read loops.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.clientManager.CloseAll()
	return err
}

func (s *Server) ConnectedClients() int {
	return s.clientManager.Count()
}
