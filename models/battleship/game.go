package battleship

import (
	"fmt"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

// FireResult describes what a successful Fire changed.
type FireResult struct {
	Player          PlayerIdx   `json:"player"`
	Row             int         `json:"row"`
	Col             int         `json:"col"`
	AlreadyRevealed bool        `json:"already_revealed"`
	Hit             bool        `json:"hit"`
	Eliminated      []PlayerIdx `json:"eliminated,omitempty"`
	Finished        bool        `json:"finished"`
}

// Game owns the roster, the board and the lifecycle state. It is not
// safe for concurrent use; the session handler serializes access.
type Game struct {
	players []Player
	board   *Board
	state   GameState

	// per player asset bookkeeping, indexed by PlayerIdx
	seeded    []int
	remaining []int
}

func NewGame(height, width int) (*Game, error) {
	board, err := NewBoard(height, width)
	if err != nil {
		return nil, err
	}

	return &Game{
		players:   make([]Player, 0, 4),
		board:     board,
		state:     WaitingForPlayers{},
		seeded:    make([]int, 0, 4),
		remaining: make([]int, 0, 4),
	}, nil
}

func (g *Game) State() GameState {
	return cloneState(g.state)
}

func (g *Game) Board() *Board {
	return g.board
}

func (g *Game) Players() []Player {
	players := make([]Player, len(g.players))
	copy(players, g.players)
	return players
}

func (g *Game) PlayerCount() int {
	return len(g.players)
}

func (g *Game) isValidIdx(idx PlayerIdx) bool {
	return idx >= 0 && int(idx) < len(g.players)
}

// PlayerByToken resolves the roster index of the player holding token.
func (g *Game) PlayerByToken(token string) (PlayerIdx, error) {
	for i, p := range g.players {
		if p.token == token {
			return PlayerIdx(i), nil
		}
	}
	return -1, cerr.ErrPlayerNotExist("token does not match any player")
}

// RemainingNodes reports how many of the player's asset nodes are still hidden.
func (g *Game) RemainingNodes(idx PlayerIdx) (int, error) {
	if !g.isValidIdx(idx) {
		return 0, cerr.ErrPlayerNotExist(fmt.Sprintf("index %d", idx))
	}
	return g.remaining[idx], nil
}

func (g *Game) AddPlayer(name, token string) (PlayerIdx, error) {
	if _, ok := g.state.(WaitingForPlayers); !ok {
		return -1, cerr.ErrActionNotAllowed("adding a player", g.state.Name())
	}

	g.players = append(g.players, NewPlayer(name, token))
	g.seeded = append(g.seeded, 0)
	g.remaining = append(g.remaining, 0)

	return PlayerIdx(len(g.players) - 1), nil
}

// PlaceShip seeds the ship's nodes for the given player. Either every
// cell is placed or none is.
func (g *Game) PlaceShip(idx PlayerIdx, ship Ship) error {
	if _, ok := g.state.(WaitingForPlayers); !ok {
		return cerr.ErrActionNotAllowed("placing a ship", g.state.Name())
	}
	if !g.isValidIdx(idx) {
		return cerr.ErrPlayerNotExist(fmt.Sprintf("index %d", idx))
	}
	for _, c := range ship.Cells {
		if !g.board.InBounds(c.Row, c.Col) {
			return cerr.ErrCellOutOfBounds(c.Row, c.Col)
		}
	}

	for _, c := range ship.Cells {
		// bounds were checked above
		_ = g.board.PlaceNode(c.Row, c.Col, idx)
	}
	g.seeded[idx] += ship.Nodes()
	g.remaining[idx] += ship.Nodes()

	return nil
}

// PlaceShipByToken checks the state before resolving token, so a stale
// token against a started game reports InvalidState.
func (g *Game) PlaceShipByToken(token string, ship Ship) (PlayerIdx, error) {
	if _, ok := g.state.(WaitingForPlayers); !ok {
		return -1, cerr.ErrActionNotAllowed("placing a ship", g.state.Name())
	}
	idx, err := g.PlayerByToken(token)
	if err != nil {
		return -1, err
	}
	return idx, g.PlaceShip(idx, ship)
}

func (g *Game) Start() error {
	if _, ok := g.state.(WaitingForPlayers); !ok {
		return cerr.ErrActionNotAllowed("starting the game", g.state.Name())
	}
	if len(g.players) < 2 {
		return cerr.ErrTooFewPlayers(len(g.players))
	}

	g.state = Playing{
		NextTurn:        0,
		EliminatedOrder: []PlayerIdx{},
	}
	return nil
}

// Fire is the acting player's turn. Every validation happens before the
// board is touched so a rejected shot leaves the game unchanged.
func (g *Game) Fire(actor PlayerIdx, row, col int) (FireResult, error) {
	playing, ok := g.state.(Playing)
	if !ok {
		return FireResult{}, cerr.ErrActionNotAllowed("firing", g.state.Name())
	}
	if !g.isValidIdx(actor) {
		return FireResult{}, cerr.ErrPlayerNotExist(fmt.Sprintf("index %d", actor))
	}
	if actor != playing.NextTurn {
		return FireResult{}, cerr.ErrOutOfTurn(int(actor), int(playing.NextTurn))
	}
	if !g.board.InBounds(row, col) {
		return FireResult{}, cerr.ErrCellOutOfBounds(row, col)
	}

	result := FireResult{Player: actor, Row: row, Col: col}

	result.AlreadyRevealed, _ = g.board.RevealCell(row, col)
	nodes, _ := g.board.NodesAt(row, col)

	for _, owner := range nodes {
		if owner != actor {
			result.Hit = true
			break
		}
	}
	if result.Hit {
		_ = g.board.RecordHit(row, col, actor)
	}

	order := clonePlayerIdxs(playing.EliminatedOrder)

	// nodes are destroyed once, on the first reveal of their cell
	if !result.AlreadyRevealed && len(nodes) > 0 {
		touched := make(map[PlayerIdx]bool, len(nodes))
		for _, owner := range nodes {
			g.remaining[owner]--
			touched[owner] = true
		}

		for i := range g.players {
			p := PlayerIdx(i)
			if !touched[p] || g.remaining[p] > 0 || g.seeded[p] == 0 {
				continue
			}
			if containsPlayerIdx(order, p) {
				continue
			}
			order = append(order, p)
			result.Eliminated = append(result.Eliminated, p)
		}
	}

	active := g.activePlayers(order)
	if len(active) <= 1 {
		order = append(order, active...)
		g.state = Finished{EliminatedOrder: order}
		result.Finished = true
		return result, nil
	}

	g.state = Playing{
		NextTurn:        g.nextActiveAfter(actor, order),
		EliminatedOrder: order,
	}
	return result, nil
}

// FireByToken is Fire with the actor looked up by token once the game is
// known to be playing.
func (g *Game) FireByToken(token string, row, col int) (FireResult, error) {
	if _, ok := g.state.(Playing); !ok {
		return FireResult{}, cerr.ErrActionNotAllowed("firing", g.state.Name())
	}
	actor, err := g.PlayerByToken(token)
	if err != nil {
		return FireResult{}, err
	}
	return g.Fire(actor, row, col)
}

func (g *Game) activePlayers(eliminated []PlayerIdx) []PlayerIdx {
	active := make([]PlayerIdx, 0, len(g.players))
	for i := range g.players {
		if !containsPlayerIdx(eliminated, PlayerIdx(i)) {
			active = append(active, PlayerIdx(i))
		}
	}
	return active
}

// nextActiveAfter walks the roster in ascending order starting after
// current, wrapping past the end. At least two active players must exist.
func (g *Game) nextActiveAfter(current PlayerIdx, eliminated []PlayerIdx) PlayerIdx {
	n := len(g.players)
	for step := 1; step <= n; step++ {
		candidate := PlayerIdx((int(current) + step) % n)
		if !containsPlayerIdx(eliminated, candidate) {
			return candidate
		}
	}
	return current
}

func containsPlayerIdx(s []PlayerIdx, idx PlayerIdx) bool {
	for _, v := range s {
		if v == idx {
			return true
		}
	}
	return false
}
