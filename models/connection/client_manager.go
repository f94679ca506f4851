package connection

import (
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

// ClientManager tracks the live websocket connections so they can be
// found by id and closed together on shutdown.
type ClientManager struct {
	clients map[string]*Client
	logger  *zap.Logger
	mu      sync.RWMutex
}

func NewClientManager(logger *zap.Logger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientManager{
		clients: make(map[string]*Client, 10),
		logger:  logger,
	}
}

func (cm *ClientManager) GenerateNewClient(conn *websocket.Conn) *Client {
	clientId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
	client := NewClient(clientId, conn, cm.logger)

	cm.mu.Lock()
	cm.clients[clientId] = client
	cm.mu.Unlock()

	return client
}

func (cm *ClientManager) FindClient(clientId string) (*Client, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	client, prs := cm.clients[clientId]
	if !prs {
		return nil, cerr.ErrNotFound.AddDesc("client does not exist: " + clientId)
	}
	return client, nil
}

func (cm *ClientManager) TerminateClient(clientId string) {
	cm.mu.Lock()
	client, prs := cm.clients[clientId]
	delete(cm.clients, clientId)
	cm.mu.Unlock()

	if prs {
		_ = client.Close()
	}
}

func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// CloseAll closes every tracked connection.
func (cm *ClientManager) CloseAll() {
	cm.mu.Lock()
	clients := cm.clients
	cm.clients = make(map[string]*Client, 10)
	cm.mu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
	cm.logger.Info("closed all clients", zap.Int("count", len(clients)))
}
