package session

import (
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

type EventKind string

const (
	EventPlayerAdded EventKind = "player-added"
	EventShipPlaced  EventKind = "ship-placed"
	EventGameStarted EventKind = "game-started"
	EventFired       EventKind = "fired"
	EventEliminated  EventKind = "eliminated"
	EventFinished    EventKind = "finished"
)

// Event is what subscribers of a session receive. Seq increases by one
// for every event of the session, in mutation order. Snapshot is the
// game right after the command that produced the event; it is shared
// between the events of that command and must be treated as read-only.
type Event struct {
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Kind      EventKind   `json:"kind"`
	Payload   any         `json:"payload,omitempty"`
	Snapshot  mb.Snapshot `json:"snapshot"`
}

type PlayerAddedPayload struct {
	Player mb.PlayerIdx `json:"player"`
	Name   string       `json:"name"`
}

type ShipPlacedPayload struct {
	Player mb.PlayerIdx `json:"player"`
	Code   uint8        `json:"code"`
	Nodes  int          `json:"nodes"`
}

type GameStartedPayload struct {
	Players  int          `json:"players"`
	NextTurn mb.PlayerIdx `json:"next_turn"`
}

type EliminatedPayload struct {
	Player mb.PlayerIdx `json:"player"`
}

type FinishedPayload struct {
	EliminatedOrder []mb.PlayerIdx `json:"eliminated_order"`
}
