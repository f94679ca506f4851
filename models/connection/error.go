package connection

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// What the read and write loops do after a websocket error.
const (
	ConnLoopBreak uint8 = iota
	ConnLoopRetry
)

// ConnErr is returned once a connection can no longer be used. The
// websocket error that ended it is available through errors.As/Unwrap.
type ConnErr struct {
	code    uint8
	op      string
	retries uint8
	cause   error
}

func NewConnErr(code uint8, op string, cause error) ConnErr {
	return ConnErr{code: code, op: op, cause: cause}
}

func (c ConnErr) WithRetries(retries uint8) ConnErr {
	c.retries = retries
	return c
}

func (c ConnErr) Error() string {
	return fmt.Sprintf("ws %s failed after %d retries: %v", c.op, c.retries, c.cause)
}

func (c ConnErr) Unwrap() error {
	return c.cause
}

func (c ConnErr) Code() uint8 {
	return c.code
}

// PeerClosed reports whether the other side hung up cleanly.
func (c ConnErr) PeerClosed() bool {
	return websocket.IsCloseError(c.cause, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
