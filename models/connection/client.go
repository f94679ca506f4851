package connection

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxWsRetries  uint8         = 2
	backOffFactor time.Duration = time.Millisecond * 250
	writeTimeout  time.Duration = time.Second * 10
)

// Client is one websocket connection. Writes are serialized because the
// request loop and the event forwarders share the connection.
type Client struct {
	id        string
	conn      *websocket.Conn
	logger    *zap.Logger
	createdAt time.Time

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(id string, conn *websocket.Conn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		id:        id,
		conn:      conn,
		logger:    logger.With(zap.String("client_id", id), zap.String("remote_addr", conn.RemoteAddr().String())),
		createdAt: time.Now(),
		closed:    make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) CreatedAt() time.Time {
	return c.createdAt
}

// Closed is closed once the connection has been shut down.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

func (c *Client) onConnErr(err error) uint8 {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.logger.Warn("timeout error", zap.Error(err))
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		c.logger.Warn("high server load/traffic error", zap.Error(err))
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		c.logger.Debug("close error", zap.Error(err))
		return ConnLoopBreak
	}

	/*
		CloseUnsupportedData and CloseInvalidFramePayloadData most likely mean
		the client is not ours. Breaking so invalid payloads cannot keep the
		loop busy.
	*/
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation) {
		c.logger.Info("non-critical error", zap.Error(err))
		return ConnLoopBreak
	}

	c.logger.Debug("unexpected error", zap.Error(err))
	return ConnLoopBreak
}

// WriteJSON writes msg to the connection, retrying timeouts with a
// growing back off.
func (c *Client) WriteJSON(msg interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var retries uint8
	for {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteJSON(msg)
		if err == nil {
			return nil
		}

		switch c.onConnErr(err) {
		case ConnLoopRetry:
			if retries < maxWsRetries {
				retries++
				c.logger.Debug("writing json failed; retrying", zap.Uint8("retry", retries))
				time.Sleep(time.Duration(retries) * backOffFactor)
				continue
			}
			return NewConnErr(ConnLoopBreak, "write", err).WithRetries(retries)

		default:
			return NewConnErr(ConnLoopBreak, "write", err).WithRetries(retries)
		}
	}
}

// ReadMessage returns the next text or binary frame payload. Read errors
// are final for a gorilla connection, so there is nothing to retry.
func (c *Client) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, NewConnErr(c.onConnErr(err), "read", err)
	}
	return payload, nil
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
