package connection

import (
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

// Zero height or width falls back to the server's default board size.
type ReqCreateSession struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

type ReqSession struct {
	SessionID string `json:"session_id"`
}

type ReqJoinSession struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type ReqPlaceShip struct {
	SessionID string  `json:"session_id"`
	Token     string  `json:"token"`
	Ship      mb.Ship `json:"ship"`
}

type ReqFire struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}
