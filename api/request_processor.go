package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
	"github.com/saeidalz13/battleship-arena/models/session"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: time.Second * 5,
	ReadBufferSize:   2048,
	WriteBufferSize:  2048,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// RequestProcessor upgrades requests to websockets and runs one read loop
// per connection, routing every signal to the session registry.
type RequestProcessor struct {
	sessionManager session.SessionManager
	clientManager  *mc.ClientManager
	analytics      Analytics
	logger         *zap.Logger

	defaultHeight int
	defaultWidth  int
}

func NewRequestProcessor(
	sessionManager session.SessionManager,
	clientManager *mc.ClientManager,
	analytics Analytics,
	logger *zap.Logger,
	defaultHeight, defaultWidth int,
) *RequestProcessor {
	if analytics == nil {
		analytics = NoopAnalytics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestProcessor{
		sessionManager: sessionManager,
		clientManager:  clientManager,
		analytics:      analytics,
		logger:         logger,
		defaultHeight:  defaultHeight,
		defaultWidth:   defaultWidth,
	}
}

func (rp *RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		rp.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := rp.clientManager.GenerateNewClient(conn)
	rp.logger.Info("new connection", zap.String("client_id", client.Id()), zap.String("remote_addr", conn.RemoteAddr().String()))
	rp.processClientRequests(r.Context(), client)
}

// subscriptions are the event streams a single connection follows.
type subscriptions struct {
	mu   sync.Mutex
	subs map[string]*session.Subscription
	wg   sync.WaitGroup
}

func (rp *RequestProcessor) processClientRequests(ctx context.Context, client *mc.Client) {
	ctx, cancel := context.WithCancel(ctx)
	subs := &subscriptions{subs: make(map[string]*session.Subscription)}

	defer func() {
		cancel()
		subs.mu.Lock()
		for _, sub := range subs.subs {
			sub.Close()
		}
		subs.mu.Unlock()
		subs.wg.Wait()
		rp.clientManager.TerminateClient(client.Id())
		rp.logger.Info("connection closed",
			zap.String("client_id", client.Id()),
			zap.Duration("connected_for", time.Since(client.CreatedAt())),
		)
	}()

	resp := mc.NewMessage[mc.RespClientID](mc.CodeClientID)
	resp.AddPayload(mc.RespClientID{ClientID: client.Id()})
	if err := client.WriteJSON(resp); err != nil {
		return
	}

clientLoop:
	for {
		payload, err := client.ReadMessage()
		if err != nil {
			var connErr mc.ConnErr
			if errors.As(err, &connErr) && !connErr.PeerClosed() {
				rp.logger.Debug("read loop stopped", zap.String("client_id", client.Id()), zap.Error(err))
			}
			break clientLoop
		}

		var signal mc.Signal
		if err := json.Unmarshal(payload, &signal); err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err := client.WriteJSON(msg); err != nil {
				break clientLoop
			}
			continue clientLoop
		}

		var respMsg any
		req := NewRequest(payload)

		switch signal.Code {
		case mc.CodeCreateSession:
			msg := req.HandleCreateSession(rp.sessionManager, rp.defaultHeight, rp.defaultWidth)
			if !msg.Failed() {
				rp.analytics.SessionCreated(ctx)
			}
			respMsg = msg

		case mc.CodeListSessions:
			respMsg = req.HandleListSessions(rp.sessionManager)

		case mc.CodeJoinSession:
			respMsg = req.HandleJoinSession(rp.sessionManager)

		case mc.CodePlaceShip:
			respMsg = req.HandlePlaceShip(rp.sessionManager)

		case mc.CodeStartGame:
			respMsg = req.HandleStartGame(rp.sessionManager)

		case mc.CodeFire:
			msg, finished := req.HandleFire(rp.sessionManager)
			if finished {
				rp.analytics.GameFinished(ctx)
			}
			respMsg = msg

		case mc.CodeSnapshot:
			respMsg = req.HandleSnapshot(rp.sessionManager)

		case mc.CodeSubscribe:
			respMsg = rp.handleSubscribe(ctx, req, client, subs)

		case mc.CodeUnsubscribe:
			respMsg = rp.handleUnsubscribe(req, subs)

		default:
			msg := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			msg.AddError("", "invalid code in the incoming payload")
			respMsg = msg
		}

		if err := client.WriteJSON(respMsg); err != nil {
			break clientLoop
		}
	}
}

// handleSubscribe starts forwarding the session's events to the client.
// Subscribing twice to the same session is a no-op.
func (rp *RequestProcessor) handleSubscribe(ctx context.Context, req Request, client *mc.Client, subs *subscriptions) mc.Message[mc.RespSession] {
	body, err := decodePayload[mc.ReqSession](req.payload)
	if err != nil {
		return errMessage[mc.RespSession](mc.CodeSubscribe, err)
	}

	resp := mc.NewMessage[mc.RespSession](mc.CodeSubscribe)
	resp.AddPayload(mc.RespSession{SessionID: body.SessionID})

	subs.mu.Lock()
	defer subs.mu.Unlock()
	if _, prs := subs.subs[body.SessionID]; prs {
		return resp
	}

	sub, err := rp.sessionManager.Subscribe(body.SessionID)
	if err != nil {
		return errMessage[mc.RespSession](mc.CodeSubscribe, err)
	}
	subs.subs[body.SessionID] = sub

	subs.wg.Add(1)
	go func() {
		defer subs.wg.Done()
		rp.forwardEvents(ctx, body.SessionID, sub, client, subs)
	}()
	return resp
}

func (rp *RequestProcessor) handleUnsubscribe(req Request, subs *subscriptions) mc.Message[mc.RespSession] {
	body, err := decodePayload[mc.ReqSession](req.payload)
	if err != nil {
		return errMessage[mc.RespSession](mc.CodeUnsubscribe, err)
	}

	subs.mu.Lock()
	sub, prs := subs.subs[body.SessionID]
	delete(subs.subs, body.SessionID)
	subs.mu.Unlock()
	if prs {
		sub.Close()
	}

	resp := mc.NewMessage[mc.RespSession](mc.CodeUnsubscribe)
	resp.AddPayload(mc.RespSession{SessionID: body.SessionID})
	return resp
}

// forwardEvents runs until the subscription is closed (unsubscribe,
// session removal), the connection goes away or a write fails. When the
// session itself went away the client gets an unsolicited CodeUnsubscribe
// carrying a not found error, so it knows no more events will come.
func (rp *RequestProcessor) forwardEvents(ctx context.Context, sessionId string, sub *session.Subscription, client *mc.Client, subs *subscriptions) {
	defer func() {
		subs.mu.Lock()
		endedByServer := subs.subs[sessionId] == sub && ctx.Err() == nil
		if subs.subs[sessionId] == sub {
			delete(subs.subs, sessionId)
		}
		subs.mu.Unlock()
		sub.Close()

		if endedByServer {
			msg := mc.NewMessage[mc.RespSession](mc.CodeUnsubscribe)
			msg.AddPayload(mc.RespSession{SessionID: sessionId})
			msg.AddErr(cerr.ErrSessionNotFound(sessionId))
			_ = client.WriteJSON(msg)
		}
	}()

	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, session.ErrSubscriptionClosed) && !errors.Is(err, context.Canceled) {
				rp.logger.Debug("event stream stopped", zap.String("session_id", sessionId), zap.Error(err))
			}
			return
		}

		msg := mc.NewMessage[session.Event](mc.CodeEvent)
		msg.AddPayload(ev)
		if err := client.WriteJSON(msg); err != nil {
			// the write loop is gone, so there is no one to notify
			subs.mu.Lock()
			if subs.subs[sessionId] == sub {
				delete(subs.subs, sessionId)
			}
			subs.mu.Unlock()
			return
		}
	}
}
