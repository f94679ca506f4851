package connection

const (
	// Sent by the server right after the websocket is upgraded
	CodeClientID uint8 = iota

	CodeCreateSession
	CodeListSessions
	CodeJoinSession
	CodePlaceShip
	CodeStartGame
	CodeFire
	CodeSnapshot

	// Start or stop receiving the event stream of a session. The server also
	// sends CodeUnsubscribe on its own when a followed session is removed.
	CodeSubscribe
	CodeUnsubscribe

	// Pushed by the server for every event of a subscribed session
	CodeEvent

	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent
)

type Signal struct {
	Code uint8 `json:"code"`
}

func NewSignal(code uint8) Signal {
	return Signal{Code: code}
}
