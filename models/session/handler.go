package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

// Handler owns one game and serializes every command applied to it.
// Events are published while the lock is still held so subscribers see
// them in exactly the order the mutations happened.
type Handler struct {
	id          string
	broadcaster *Broadcaster
	logger      *zap.Logger
	createdAt   time.Time

	mu           sync.Mutex
	game         *mb.Game
	seq          uint64
	lastActivity time.Time
}

func NewHandler(id string, game *mb.Game, bufferSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now()
	return &Handler{
		id:           id,
		game:         game,
		broadcaster:  NewBroadcaster(bufferSize),
		logger:       logger.With(zap.String("session_id", id)),
		createdAt:    now,
		lastActivity: now,
	}
}

func (h *Handler) ID() string {
	return h.id
}

func (h *Handler) CreatedAt() time.Time {
	return h.createdAt
}

// Apply runs cmd against the game. On failure the game is untouched,
// nothing is published and the error is returned as is.
func (h *Handler) Apply(cmd Command) ([]Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drafts, err := cmd.apply(h.game)
	if err != nil {
		h.logger.Debug("command rejected",
			zap.String("command", cmd.CommandName()),
			zap.Error(err),
		)
		return nil, err
	}

	h.lastActivity = time.Now()
	snapshot := h.game.Snapshot()

	events := make([]Event, 0, len(drafts))
	for _, d := range drafts {
		h.seq++
		ev := Event{
			SessionID: h.id,
			Seq:       h.seq,
			Kind:      d.kind,
			Payload:   d.payload,
			Snapshot:  snapshot,
		}
		h.broadcaster.Publish(ev)
		events = append(events, ev)
	}

	h.logger.Debug("command applied",
		zap.String("command", cmd.CommandName()),
		zap.Int("events", len(events)),
		zap.Uint64("seq", h.seq),
	)
	return events, nil
}

func (h *Handler) Subscribe() *Subscription {
	return h.broadcaster.Subscribe()
}

func (h *Handler) SubscriberCount() int {
	return h.broadcaster.SubscriberCount()
}

func (h *Handler) Snapshot() mb.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.game.Snapshot()
}

func (h *Handler) StateName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.game.State().Name()
}

func (h *Handler) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

// Close detaches every subscriber. The game itself is left as is.
func (h *Handler) Close() {
	h.broadcaster.Close()
}
