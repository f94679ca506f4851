package battleship

const (
	StateWaitingForPlayers = "waiting_for_players"
	StatePlaying           = "playing"
	StateFinished          = "finished"
)

// GameState is a closed sum type. The only implementations are
// WaitingForPlayers, Playing and Finished.
type GameState interface {
	Name() string
	isGameState()
}

type WaitingForPlayers struct{}

type Playing struct {
	NextTurn        PlayerIdx
	EliminatedOrder []PlayerIdx
}

type Finished struct {
	EliminatedOrder []PlayerIdx
}

func (WaitingForPlayers) Name() string { return StateWaitingForPlayers }
func (Playing) Name() string           { return StatePlaying }
func (Finished) Name() string          { return StateFinished }

func (WaitingForPlayers) isGameState() {}
func (Playing) isGameState()           {}
func (Finished) isGameState()          {}

func cloneState(s GameState) GameState {
	switch st := s.(type) {
	case Playing:
		return Playing{NextTurn: st.NextTurn, EliminatedOrder: clonePlayerIdxs(st.EliminatedOrder)}
	case Finished:
		return Finished{EliminatedOrder: clonePlayerIdxs(st.EliminatedOrder)}
	default:
		return WaitingForPlayers{}
	}
}
