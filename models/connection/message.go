package connection

import (
	"errors"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

// RespErr.Message for failures that are not game errors, such as
// malformed payloads.
const ErrMessageInvalidRequest = "invalid request"

type NoPayload bool

type Message[T any] struct {
	Code    uint8    `json:"code"`
	Payload T        `json:"payload,omitempty"`
	Error   *RespErr `json:"error,omitempty"`
}

func NewMessage[T any](code uint8) Message[T] {
	return Message[T]{Code: code}
}

func (m *Message[T]) AddPayload(payload T) {
	m.Payload = payload
}

func (m *Message[T]) AddError(errorDetails, message string) {
	m.Error = NewRespErr(errorDetails, message)
}

// AddErr fills the error field from err. For game errors Message holds the
// error kind, so clients can branch on it without parsing the details.
func (m *Message[T]) AddErr(err error) {
	var gameErr cerr.GameErr
	if errors.As(err, &gameErr) {
		m.AddError(err.Error(), gameErr.Kind().String())
		return
	}
	m.AddError(err.Error(), ErrMessageInvalidRequest)
}

func (m *Message[T]) Failed() bool {
	return m.Error != nil
}
