package battleship

type PlayerSnapshot struct {
	Name string `json:"name"`
}

// CellSnapshot exposes asset owners only once the cell is revealed.
type CellSnapshot struct {
	Revealed bool        `json:"revealed"`
	Hits     []PlayerIdx `json:"hits"`
	Nodes    []PlayerIdx `json:"nodes,omitempty"`
}

type StateSnapshot struct {
	Name            string      `json:"name"`
	NextTurn        *PlayerIdx  `json:"next_turn,omitempty"`
	EliminatedOrder []PlayerIdx `json:"eliminated_order"`
}

// Snapshot is a deep copy of a game, safe to hand to other goroutines.
type Snapshot struct {
	Players []PlayerSnapshot `json:"players"`
	Height  int              `json:"height"`
	Width   int              `json:"width"`
	Cells   [][]CellSnapshot `json:"cells"`
	State   StateSnapshot    `json:"state"`
}

func (g *Game) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, len(g.players))
	for i, p := range g.players {
		players[i] = PlayerSnapshot{Name: p.name}
	}

	cells := make([][]CellSnapshot, g.board.height)
	for r := 0; r < g.board.height; r++ {
		cells[r] = make([]CellSnapshot, g.board.width)
		for c := 0; c < g.board.width; c++ {
			cell := &g.board.cells[r][c]
			cs := CellSnapshot{
				Revealed: cell.revealed,
				Hits:     clonePlayerIdxs(cell.hits),
			}
			if cell.revealed && len(cell.nodes) > 0 {
				cs.Nodes = clonePlayerIdxs(cell.nodes)
			}
			cells[r][c] = cs
		}
	}

	return Snapshot{
		Players: players,
		Height:  g.board.height,
		Width:   g.board.width,
		Cells:   cells,
		State:   snapshotState(g.state),
	}
}

func snapshotState(s GameState) StateSnapshot {
	ss := StateSnapshot{Name: s.Name(), EliminatedOrder: []PlayerIdx{}}

	switch st := s.(type) {
	case Playing:
		next := st.NextTurn
		ss.NextTurn = &next
		ss.EliminatedOrder = clonePlayerIdxs(st.EliminatedOrder)
	case Finished:
		ss.EliminatedOrder = clonePlayerIdxs(st.EliminatedOrder)
	}
	return ss
}
