package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

const (
	sessionIdLength = 6

	DefaultMaxBoardHeight = 100
	DefaultMaxBoardWidth  = 100
)

// SessionManager is the entry point the transport layer uses to reach
// sessions. Every method is safe for concurrent use.
type SessionManager interface {
	CreateSession(height, width int) (string, error)
	ListSessions() []string
	GetSession(sessionId string) (*Handler, error)
	RemoveSession(sessionId string) error

	Apply(sessionId string, cmd Command) ([]Event, error)
	Subscribe(sessionId string) (*Subscription, error)
	Snapshot(sessionId string) (mb.Snapshot, error)
}

// Registry maps session ids to handlers. Lookups share a read lock;
// insert and remove take the write lock. Commands are routed to the
// handler outside the registry lock, so sessions never wait on each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handler

	bufferSize     int
	maxBoardHeight int
	maxBoardWidth  int
	logger         *zap.Logger
	newId          func() string
}

var _ SessionManager = (*Registry)(nil)

type Option func(*Registry)

func WithSubscriberBuffer(size int) Option {
	return func(r *Registry) {
		r.bufferSize = size
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxBoard caps the board a session may be created with. Boards are
// allocated up front, so the cap bounds the memory one request can take.
func WithMaxBoard(height, width int) Option {
	return func(r *Registry) {
		if height > 0 && width > 0 {
			r.maxBoardHeight = height
			r.maxBoardWidth = width
		}
	}
}

// WithIdGenerator replaces the default short uuid ids.
func WithIdGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newId = gen
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:       make(map[string]*Handler, 10),
		bufferSize:     DefaultSubscriberBuffer,
		maxBoardHeight: DefaultMaxBoardHeight,
		maxBoardWidth:  DefaultMaxBoardWidth,
		logger:         zap.NewNop(),
		newId:          func() string { return uuid.NewString()[:sessionIdLength] },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) CreateSession(height, width int) (string, error) {
	if height > r.maxBoardHeight || width > r.maxBoardWidth {
		return "", cerr.ErrBoardTooLarge(height, width, r.maxBoardHeight, r.maxBoardWidth)
	}
	game, err := mb.NewGame(height, width)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// short ids can collide, keep drawing until one is free
	id := r.newId()
	for {
		if _, exists := r.sessions[id]; !exists {
			break
		}
		id = r.newId()
	}

	r.sessions[id] = NewHandler(id, game, r.bufferSize, r.logger)
	r.logger.Info("session created",
		zap.String("session_id", id),
		zap.Int("height", height),
		zap.Int("width", width),
	)
	return id, nil
}

func (r *Registry) ListSessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) GetSession(sessionId string) (*Handler, error) {
	r.mu.RLock()
	h, prs := r.sessions[sessionId]
	r.mu.RUnlock()
	if !prs {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}
	return h, nil
}

// RemoveSession drops the session and detaches its subscribers.
func (r *Registry) RemoveSession(sessionId string) error {
	r.mu.Lock()
	h, prs := r.sessions[sessionId]
	if !prs {
		r.mu.Unlock()
		return cerr.ErrSessionNotFound(sessionId)
	}
	delete(r.sessions, sessionId)
	r.mu.Unlock()

	h.Close()
	r.logger.Info("session removed", zap.String("session_id", sessionId))
	return nil
}

func (r *Registry) Apply(sessionId string, cmd Command) ([]Event, error) {
	h, err := r.GetSession(sessionId)
	if err != nil {
		return nil, err
	}
	return h.Apply(cmd)
}

func (r *Registry) Subscribe(sessionId string) (*Subscription, error) {
	h, err := r.GetSession(sessionId)
	if err != nil {
		return nil, err
	}
	return h.Subscribe(), nil
}

func (r *Registry) Snapshot(sessionId string) (mb.Snapshot, error) {
	h, err := r.GetSession(sessionId)
	if err != nil {
		return mb.Snapshot{}, err
	}
	return h.Snapshot(), nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CleanupPeriodically removes sessions that saw no successful command
// for longer than ttl. It returns when ctx is done.
func (r *Registry) CleanupPeriodically(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := r.cleanup(now, ttl)
			if len(removed) > 0 {
				r.logger.Info("cleaned up idle sessions", zap.Strings("session_ids", removed))
			}
		}
	}
}

func (r *Registry) cleanup(now time.Time, ttl time.Duration) []string {
	r.mu.Lock()
	stale := make([]*Handler, 0, 5)
	for id, h := range r.sessions {
		if now.Sub(h.LastActivity()) > ttl {
			stale = append(stale, h)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	removed := make([]string, 0, len(stale))
	for _, h := range stale {
		h.Close()
		removed = append(removed, h.ID())
		r.logger.Debug("session expired",
			zap.String("session_id", h.ID()),
			zap.Duration("age", now.Sub(h.CreatedAt())),
		)
	}
	return removed
}
