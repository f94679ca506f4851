package battleship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

// newStartedGame is Tim and Avi on an 11x18 board, already playing.
func newStartedGame(t *testing.T) *Game {
	t.Helper()
	g, err := NewGame(11, 18)
	require.NoError(t, err)

	_, err = g.AddPlayer("Tim", "cookie1")
	require.NoError(t, err)
	_, err = g.AddPlayer("Avi", "cookie2")
	require.NoError(t, err)

	require.NoError(t, g.Start())
	return g
}

func TestNewGame_InvalidDimensions(t *testing.T) {
	_, err := NewGame(0, 10)
	assert.ErrorIs(t, err, cerr.ErrInvalidDimensions)
}

func TestGame_StartTwoPlayers(t *testing.T) {
	g := newStartedGame(t)

	assert.Equal(t, Playing{NextTurn: 0, EliminatedOrder: []PlayerIdx{}}, g.State())
	assert.Equal(t, 2, g.PlayerCount())
}

func TestGame_StartNotEnoughPlayers(t *testing.T) {
	g, err := NewGame(5, 5)
	require.NoError(t, err)

	assert.ErrorIs(t, g.Start(), cerr.ErrNotEnoughPlayers)

	_, err = g.AddPlayer("Tim", "cookie1")
	require.NoError(t, err)
	assert.ErrorIs(t, g.Start(), cerr.ErrNotEnoughPlayers)
	assert.Equal(t, WaitingForPlayers{}, g.State())
}

func TestGame_StartTwice(t *testing.T) {
	g := newStartedGame(t)
	assert.ErrorIs(t, g.Start(), cerr.ErrInvalidState)
	assert.Equal(t, StatePlaying, g.State().Name())
}

func TestGame_FireOutOfTurn(t *testing.T) {
	g := newStartedGame(t)
	before := g.Snapshot()

	_, err := g.Fire(1, 0, 0)
	assert.ErrorIs(t, err, cerr.ErrNotYourTurn)
	assert.Equal(t, before, g.Snapshot())
}

func TestGame_FireAdvancesTurn(t *testing.T) {
	g := newStartedGame(t)

	res, err := g.Fire(0, 5, 5)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRevealed)
	assert.False(t, res.Hit)
	assert.False(t, res.Finished)

	revealed, err := g.Board().IsRevealed(5, 5)
	require.NoError(t, err)
	assert.True(t, revealed)
	assert.Equal(t, Playing{NextTurn: 1, EliminatedOrder: []PlayerIdx{}}, g.State())

	_, err = g.Fire(1, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, Playing{NextTurn: 0, EliminatedOrder: []PlayerIdx{}}, g.State())
}

func TestGame_FireOutOfBounds(t *testing.T) {
	g := newStartedGame(t)
	before := g.Snapshot()

	_, err := g.Fire(0, 11, 0)
	assert.ErrorIs(t, err, cerr.ErrOutOfBounds)
	assert.Equal(t, before, g.Snapshot())
}

func TestGame_FireUnknownPlayer(t *testing.T) {
	g := newStartedGame(t)
	_, err := g.Fire(7, 0, 0)
	assert.ErrorIs(t, err, cerr.ErrNotFound)
}

func TestGame_FireBeforeStart(t *testing.T) {
	g, err := NewGame(4, 4)
	require.NoError(t, err)
	_, err = g.AddPlayer("Tim", "cookie1")
	require.NoError(t, err)

	_, err = g.Fire(0, 0, 0)
	assert.ErrorIs(t, err, cerr.ErrInvalidState)
}

func TestGame_AddPlayerAfterStart(t *testing.T) {
	g := newStartedGame(t)

	_, err := g.AddPlayer("Late", "cookie3")
	assert.ErrorIs(t, err, cerr.ErrInvalidState)
	assert.Equal(t, 2, g.PlayerCount())
}

func TestGame_PlaceShip(t *testing.T) {
	g, err := NewGame(4, 4)
	require.NoError(t, err)
	p, err := g.AddPlayer("Tim", "cookie1")
	require.NoError(t, err)

	err = g.PlaceShip(p, NewShip(ShipCodeDestroyer, NewCoordinates(0, 0), NewCoordinates(0, 4)))
	assert.ErrorIs(t, err, cerr.ErrOutOfBounds)
	nodes, _ := g.Board().NodesAt(0, 0)
	assert.Empty(t, nodes, "a rejected ship must not place any node")

	require.NoError(t, g.PlaceShip(p, NewShip(ShipCodeDestroyer, NewCoordinates(0, 0), NewCoordinates(0, 1))))
	remaining, err := g.RemainingNodes(p)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	assert.ErrorIs(t, g.PlaceShip(5, NewShip(ShipCodeDestroyer)), cerr.ErrNotFound)
}

func TestGame_EliminationFinishesTwoPlayerGame(t *testing.T) {
	g, err := NewGame(11, 18)
	require.NoError(t, err)
	tim, _ := g.AddPlayer("Tim", "cookie1")
	avi, _ := g.AddPlayer("Avi", "cookie2")
	require.NoError(t, g.PlaceShip(avi, NewShip(ShipCodeDestroyer, NewCoordinates(3, 3), NewCoordinates(3, 4))))
	require.NoError(t, g.PlaceShip(tim, NewShip(ShipCodeDestroyer, NewCoordinates(8, 8))))
	require.NoError(t, g.Start())

	res, err := g.Fire(tim, 3, 3)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Empty(t, res.Eliminated)

	_, err = g.Fire(avi, 0, 0)
	require.NoError(t, err)

	res, err = g.Fire(tim, 3, 4)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Equal(t, []PlayerIdx{avi}, res.Eliminated)
	assert.True(t, res.Finished)
	assert.Equal(t, Finished{EliminatedOrder: []PlayerIdx{avi, tim}}, g.State())

	hits, _ := g.Board().CellHits(3, 4)
	assert.Equal(t, []PlayerIdx{tim}, hits)

	_, err = g.Fire(avi, 0, 1)
	assert.ErrorIs(t, err, cerr.ErrInvalidState)
	_, err = g.AddPlayer("Late", "cookie3")
	assert.ErrorIs(t, err, cerr.ErrInvalidState)
	assert.ErrorIs(t, g.Start(), cerr.ErrInvalidState)
}

func TestGame_RepeatedBombardment(t *testing.T) {
	g, err := NewGame(5, 5)
	require.NoError(t, err)
	tim, _ := g.AddPlayer("Tim", "cookie1")
	avi, _ := g.AddPlayer("Avi", "cookie2")
	cal, _ := g.AddPlayer("Cal", "cookie3")
	require.NoError(t, g.PlaceShip(cal, NewShip(ShipCodeCruiser, NewCoordinates(1, 1), NewCoordinates(1, 2))))
	require.NoError(t, g.Start())

	_, err = g.Fire(tim, 1, 1)
	require.NoError(t, err)
	res, err := g.Fire(avi, 1, 1)
	require.NoError(t, err)
	assert.True(t, res.AlreadyRevealed)
	assert.True(t, res.Hit)
	assert.Empty(t, res.Eliminated)

	hits, _ := g.Board().CellHits(1, 1)
	assert.Equal(t, []PlayerIdx{tim, avi}, hits)

	// the second shot on the same cell destroys nothing new
	remaining, _ := g.RemainingNodes(cal)
	assert.Equal(t, 1, remaining)
}

func TestGame_TurnSkipsEliminated(t *testing.T) {
	g, err := NewGame(5, 5)
	require.NoError(t, err)
	a, _ := g.AddPlayer("A", "a")
	b, _ := g.AddPlayer("B", "b")
	c, _ := g.AddPlayer("C", "c")
	require.NoError(t, g.PlaceShip(a, NewShip(ShipCodeDestroyer, NewCoordinates(4, 4))))
	require.NoError(t, g.PlaceShip(b, NewShip(ShipCodeDestroyer, NewCoordinates(0, 0))))
	require.NoError(t, g.PlaceShip(c, NewShip(ShipCodeDestroyer, NewCoordinates(2, 2))))
	require.NoError(t, g.Start())

	res, err := g.Fire(a, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []PlayerIdx{b}, res.Eliminated)
	assert.Equal(t, Playing{NextTurn: c, EliminatedOrder: []PlayerIdx{b}}, g.State())

	_, err = g.Fire(c, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, Playing{NextTurn: a, EliminatedOrder: []PlayerIdx{b}}, g.State())
}

func TestGame_SelfElimination(t *testing.T) {
	g, err := NewGame(5, 5)
	require.NoError(t, err)
	a, _ := g.AddPlayer("A", "a")
	b, _ := g.AddPlayer("B", "b")
	c, _ := g.AddPlayer("C", "c")
	require.NoError(t, g.PlaceShip(a, NewShip(ShipCodeDestroyer, NewCoordinates(1, 1))))
	require.NoError(t, g.Start())

	res, err := g.Fire(a, 1, 1)
	require.NoError(t, err)
	assert.False(t, res.Hit, "own nodes do not count as a hit")
	assert.Equal(t, []PlayerIdx{a}, res.Eliminated)
	assert.Equal(t, Playing{NextTurn: b, EliminatedOrder: []PlayerIdx{a}}, g.State())
	_ = c
}

func TestGame_SimultaneousEliminationOfLastTwo(t *testing.T) {
	g, err := NewGame(3, 3)
	require.NoError(t, err)
	a, _ := g.AddPlayer("A", "a")
	b, _ := g.AddPlayer("B", "b")
	require.NoError(t, g.PlaceShip(a, NewShip(ShipCodeDestroyer, NewCoordinates(1, 1))))
	require.NoError(t, g.PlaceShip(b, NewShip(ShipCodeDestroyer, NewCoordinates(1, 1))))
	require.NoError(t, g.Start())

	res, err := g.Fire(a, 1, 1)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, []PlayerIdx{a, b}, res.Eliminated)
	assert.Equal(t, Finished{EliminatedOrder: []PlayerIdx{a, b}}, g.State())
}

func TestGame_PlayerByToken(t *testing.T) {
	g := newStartedGame(t)

	idx, err := g.PlayerByToken("cookie2")
	require.NoError(t, err)
	assert.Equal(t, PlayerIdx(1), idx)

	_, err = g.PlayerByToken("nope")
	assert.ErrorIs(t, err, cerr.ErrNotFound)
}

func TestGame_SnapshotHidesUnrevealedNodes(t *testing.T) {
	g, err := NewGame(3, 3)
	require.NoError(t, err)
	a, _ := g.AddPlayer("A", "a")
	b, _ := g.AddPlayer("B", "b")
	require.NoError(t, g.PlaceShip(b, NewShip(ShipCodeCruiser, NewCoordinates(0, 0), NewCoordinates(0, 1))))
	require.NoError(t, g.Start())

	snap := g.Snapshot()
	assert.Nil(t, snap.Cells[0][0].Nodes)

	_, err = g.Fire(a, 0, 0)
	require.NoError(t, err)

	snap = g.Snapshot()
	assert.Equal(t, []PlayerIdx{b}, snap.Cells[0][0].Nodes)
	assert.Nil(t, snap.Cells[0][1].Nodes)
	assert.Equal(t, []PlayerIdx{a}, snap.Cells[0][0].Hits)
	require.NotNil(t, snap.State.NextTurn)
	assert.Equal(t, b, *snap.State.NextTurn)
	assert.Equal(t, []PlayerSnapshot{{Name: "A"}, {Name: "B"}}, snap.Players)
}

func stateRank(s GameState) int {
	switch s.(type) {
	case WaitingForPlayers:
		return 0
	case Playing:
		return 1
	default:
		return 2
	}
}

func checkInvariants(t *rapid.T, g *Game) {
	n := g.PlayerCount()
	valid := func(idx PlayerIdx) bool { return idx >= 0 && int(idx) < n }

	var order []PlayerIdx
	switch st := g.State().(type) {
	case Playing:
		order = st.EliminatedOrder
		if !valid(st.NextTurn) {
			t.Fatalf("next_turn %d out of range [0,%d)", st.NextTurn, n)
		}
		if containsPlayerIdx(order, st.NextTurn) {
			t.Fatalf("next_turn %d is eliminated: %v", st.NextTurn, order)
		}
	case Finished:
		order = st.EliminatedOrder
	}

	if len(order) > n {
		t.Fatalf("eliminated_order longer than roster: %v", order)
	}
	seen := make(map[PlayerIdx]bool, len(order))
	for _, idx := range order {
		if !valid(idx) {
			t.Fatalf("eliminated index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate index %d in eliminated_order %v", idx, order)
		}
		seen[idx] = true
	}

	for r := 0; r < g.Board().Height(); r++ {
		for c := 0; c < g.Board().Width(); c++ {
			hits, _ := g.Board().CellHits(r, c)
			for _, idx := range hits {
				if !valid(idx) {
					t.Fatalf("hit index %d out of range at (%d,%d)", idx, r, c)
				}
			}
		}
	}
}

func TestGame_InvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		height := rapid.IntRange(1, 6).Draw(t, "height")
		width := rapid.IntRange(1, 6).Draw(t, "width")
		g, err := NewGame(height, width)
		if err != nil {
			t.Fatalf("new game: %v", err)
		}

		numPlayers := rapid.IntRange(0, 5).Draw(t, "num_players")
		for i := 0; i < numPlayers; i++ {
			p, err := g.AddPlayer("p", string(rune('a'+i)))
			if err != nil {
				t.Fatalf("add player: %v", err)
			}
			numShips := rapid.IntRange(0, 2).Draw(t, "num_ships")
			for s := 0; s < numShips; s++ {
				row := rapid.IntRange(0, height-1).Draw(t, "ship_row")
				col := rapid.IntRange(0, width-1).Draw(t, "ship_col")
				if err := g.PlaceShip(p, NewShip(ShipCodeDestroyer, NewCoordinates(row, col))); err != nil {
					t.Fatalf("place ship: %v", err)
				}
			}
		}

		if err := g.Start(); err != nil {
			if numPlayers >= 2 {
				t.Fatalf("start with %d players: %v", numPlayers, err)
			}
			return
		}
		checkInvariants(t, g)

		rank := stateRank(g.State())
		numShots := rapid.IntRange(0, 40).Draw(t, "num_shots")
		for i := 0; i < numShots; i++ {
			actor := PlayerIdx(rapid.IntRange(0, numPlayers-1).Draw(t, "actor"))
			row := rapid.IntRange(-1, height).Draw(t, "row")
			col := rapid.IntRange(-1, width).Draw(t, "col")

			before := g.Snapshot()
			_, err := g.Fire(actor, row, col)
			if err != nil {
				after := g.Snapshot()
				if !assert.ObjectsAreEqual(before, after) {
					t.Fatalf("rejected fire changed the game: %v", err)
				}
			}

			checkInvariants(t, g)
			next := stateRank(g.State())
			if next < rank {
				t.Fatalf("state moved backwards: %d -> %d", rank, next)
			}
			rank = next
		}
	})
}
