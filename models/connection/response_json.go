package connection

import (
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

type RespClientID struct {
	ClientID string `json:"client_id"`
}

type RespCreateSession struct {
	SessionID string `json:"session_id"`
}

type RespListSessions struct {
	SessionIDs []string `json:"session_ids"`
}

type RespJoinSession struct {
	SessionID string       `json:"session_id"`
	Player    mb.PlayerIdx `json:"player"`
	Token     string       `json:"token"`
}

type RespSnapshot struct {
	SessionID string      `json:"session_id"`
	Snapshot  mb.Snapshot `json:"snapshot"`
}

type RespFire struct {
	SessionID string        `json:"session_id"`
	Result    mb.FireResult `json:"result"`
}

type RespSession struct {
	SessionID string `json:"session_id"`
}

type RespErr struct {
	ErrorDetails string `json:"error_details,omitempty"`
	Message      string `json:"message,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{
		ErrorDetails: errorDetails,
		Message:      message,
	}
}
