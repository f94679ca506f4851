package session

import (
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

// Command is a mutation addressed to one session. The set of commands
// is closed; the handler dispatches on the concrete type.
type Command interface {
	CommandName() string
	apply(g *mb.Game) ([]draft, error)
}

// draft is an event before the handler stamps it with session id,
// sequence number and snapshot.
type draft struct {
	kind    EventKind
	payload any
}

type AddPlayer struct {
	Name  string
	Token string
}

type Start struct{}

// Fire identifies the acting player by Token. When Token is empty the
// roster index in Player is used instead.
type Fire struct {
	Token  string
	Player mb.PlayerIdx
	Row    int
	Col    int
}

type PlaceShip struct {
	Token string
	Ship  mb.Ship
}

func (AddPlayer) CommandName() string { return "add_player" }
func (Start) CommandName() string     { return "start" }
func (Fire) CommandName() string      { return "fire" }
func (PlaceShip) CommandName() string { return "place_ship" }

func (c AddPlayer) apply(g *mb.Game) ([]draft, error) {
	idx, err := g.AddPlayer(c.Name, c.Token)
	if err != nil {
		return nil, err
	}
	return []draft{{kind: EventPlayerAdded, payload: PlayerAddedPayload{Player: idx, Name: c.Name}}}, nil
}

func (Start) apply(g *mb.Game) ([]draft, error) {
	if err := g.Start(); err != nil {
		return nil, err
	}
	return []draft{{kind: EventGameStarted, payload: GameStartedPayload{Players: g.PlayerCount(), NextTurn: 0}}}, nil
}

func (c Fire) apply(g *mb.Game) ([]draft, error) {
	var (
		res mb.FireResult
		err error
	)
	if c.Token != "" {
		res, err = g.FireByToken(c.Token, c.Row, c.Col)
	} else {
		res, err = g.Fire(c.Player, c.Row, c.Col)
	}
	if err != nil {
		return nil, err
	}

	drafts := make([]draft, 0, 2+len(res.Eliminated))
	drafts = append(drafts, draft{kind: EventFired, payload: res})
	for _, p := range res.Eliminated {
		drafts = append(drafts, draft{kind: EventEliminated, payload: EliminatedPayload{Player: p}})
	}
	if res.Finished {
		if st, ok := g.State().(mb.Finished); ok {
			drafts = append(drafts, draft{kind: EventFinished, payload: FinishedPayload{EliminatedOrder: st.EliminatedOrder}})
		}
	}
	return drafts, nil
}

func (c PlaceShip) apply(g *mb.Game) ([]draft, error) {
	idx, err := g.PlaceShipByToken(c.Token, c.Ship)
	if err != nil {
		return nil, err
	}
	// coordinates stay private to the owner
	return []draft{{kind: EventShipPlaced, payload: ShipPlacedPayload{Player: idx, Code: c.Ship.Code, Nodes: c.Ship.Nodes()}}}, nil
}
