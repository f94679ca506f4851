package api

import (
	"encoding/json"

	"github.com/google/uuid"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
	"github.com/saeidalz13/battleship-arena/models/session"
)

// Request wraps one incoming websocket frame. Every handler returns the
// message to send back to the requesting client; failures travel in the
// message's error field.
type Request struct {
	payload []byte
}

func NewRequest(payload ...[]byte) Request {
	var req Request
	if len(payload) != 0 {
		req.payload = payload[0]
	}
	return req
}

func decodePayload[T any](raw []byte) (T, error) {
	var msg mc.Message[T]
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg.Payload, cerr.ErrInvalidPayload(err.Error())
	}
	return msg.Payload, nil
}

func errMessage[T any](code uint8, err error) mc.Message[T] {
	msg := mc.NewMessage[T](code)
	msg.AddErr(err)
	return msg
}

func (r Request) HandleCreateSession(sm session.SessionManager, defaultHeight, defaultWidth int) mc.Message[mc.RespCreateSession] {
	req, err := decodePayload[mc.ReqCreateSession](r.payload)
	if err != nil {
		return errMessage[mc.RespCreateSession](mc.CodeCreateSession, err)
	}
	if req.Height == 0 {
		req.Height = defaultHeight
	}
	if req.Width == 0 {
		req.Width = defaultWidth
	}

	sessionId, err := sm.CreateSession(req.Height, req.Width)
	if err != nil {
		return errMessage[mc.RespCreateSession](mc.CodeCreateSession, err)
	}

	resp := mc.NewMessage[mc.RespCreateSession](mc.CodeCreateSession)
	resp.AddPayload(mc.RespCreateSession{SessionID: sessionId})
	return resp
}

func (r Request) HandleListSessions(sm session.SessionManager) mc.Message[mc.RespListSessions] {
	resp := mc.NewMessage[mc.RespListSessions](mc.CodeListSessions)
	resp.AddPayload(mc.RespListSessions{SessionIDs: sm.ListSessions()})
	return resp
}

// HandleJoinSession adds a player and hands out the token that
// authorizes its later commands.
func (r Request) HandleJoinSession(sm session.SessionManager) mc.Message[mc.RespJoinSession] {
	req, err := decodePayload[mc.ReqJoinSession](r.payload)
	if err != nil {
		return errMessage[mc.RespJoinSession](mc.CodeJoinSession, err)
	}

	token := uuid.NewString()
	events, err := sm.Apply(req.SessionID, session.AddPlayer{Name: req.Name, Token: token})
	if err != nil {
		return errMessage[mc.RespJoinSession](mc.CodeJoinSession, err)
	}
	added := events[0].Payload.(session.PlayerAddedPayload)

	resp := mc.NewMessage[mc.RespJoinSession](mc.CodeJoinSession)
	resp.AddPayload(mc.RespJoinSession{SessionID: req.SessionID, Player: added.Player, Token: token})
	return resp
}

func (r Request) HandlePlaceShip(sm session.SessionManager) mc.Message[mc.RespSession] {
	req, err := decodePayload[mc.ReqPlaceShip](r.payload)
	if err != nil {
		return errMessage[mc.RespSession](mc.CodePlaceShip, err)
	}

	if _, err := sm.Apply(req.SessionID, session.PlaceShip{Token: req.Token, Ship: req.Ship}); err != nil {
		return errMessage[mc.RespSession](mc.CodePlaceShip, err)
	}

	resp := mc.NewMessage[mc.RespSession](mc.CodePlaceShip)
	resp.AddPayload(mc.RespSession{SessionID: req.SessionID})
	return resp
}

func (r Request) HandleStartGame(sm session.SessionManager) mc.Message[mc.RespSession] {
	req, err := decodePayload[mc.ReqSession](r.payload)
	if err != nil {
		return errMessage[mc.RespSession](mc.CodeStartGame, err)
	}

	if _, err := sm.Apply(req.SessionID, session.Start{}); err != nil {
		return errMessage[mc.RespSession](mc.CodeStartGame, err)
	}

	resp := mc.NewMessage[mc.RespSession](mc.CodeStartGame)
	resp.AddPayload(mc.RespSession{SessionID: req.SessionID})
	return resp
}

// HandleFire reports whether this shot finished the game so the caller
// can record it exactly once.
func (r Request) HandleFire(sm session.SessionManager) (mc.Message[mc.RespFire], bool) {
	req, err := decodePayload[mc.ReqFire](r.payload)
	if err != nil {
		return errMessage[mc.RespFire](mc.CodeFire, err), false
	}
	// an empty token would otherwise fall back to firing as player 0
	if req.Token == "" {
		return errMessage[mc.RespFire](mc.CodeFire, cerr.ErrPlayerNotExist("empty token")), false
	}

	events, err := sm.Apply(req.SessionID, session.Fire{Token: req.Token, Row: req.Row, Col: req.Col})
	if err != nil {
		return errMessage[mc.RespFire](mc.CodeFire, err), false
	}
	result := events[0].Payload.(mb.FireResult)

	resp := mc.NewMessage[mc.RespFire](mc.CodeFire)
	resp.AddPayload(mc.RespFire{SessionID: req.SessionID, Result: result})
	return resp, result.Finished
}

func (r Request) HandleSnapshot(sm session.SessionManager) mc.Message[mc.RespSnapshot] {
	req, err := decodePayload[mc.ReqSession](r.payload)
	if err != nil {
		return errMessage[mc.RespSnapshot](mc.CodeSnapshot, err)
	}

	snap, err := sm.Snapshot(req.SessionID)
	if err != nil {
		return errMessage[mc.RespSnapshot](mc.CodeSnapshot, err)
	}

	resp := mc.NewMessage[mc.RespSnapshot](mc.CodeSnapshot)
	resp.AddPayload(mc.RespSnapshot{SessionID: req.SessionID, Snapshot: snap})
	return resp
}
