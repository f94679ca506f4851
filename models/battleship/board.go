package battleship

import (
	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

type Coordinates struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewCoordinates(row, col int) Coordinates {
	return Coordinates{Row: row, Col: col}
}

// BoardCell keeps who owns an asset on the cell (nodes) and who has
// scored a hit there (hits), both in insertion order.
type BoardCell struct {
	revealed bool
	nodes    []PlayerIdx
	hits     []PlayerIdx
}

// Board is a fixed height x width grid. It does no locking; Game is the
// only caller and serializes access.
type Board struct {
	height int
	width  int
	cells  [][]BoardCell
}

func NewBoard(height, width int) (*Board, error) {
	if height <= 0 || width <= 0 {
		return nil, cerr.ErrBoardDimensions(height, width)
	}

	cells := make([][]BoardCell, height)
	for i := 0; i < height; i++ {
		cells[i] = make([]BoardCell, width)
	}

	return &Board{
		height: height,
		width:  width,
		cells:  cells,
	}, nil
}

func (b *Board) Height() int {
	return b.height
}

func (b *Board) Width() int {
	return b.width
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.height && col >= 0 && col < b.width
}

func (b *Board) cell(row, col int) (*BoardCell, error) {
	if !b.InBounds(row, col) {
		return nil, cerr.ErrCellOutOfBounds(row, col)
	}
	return &b.cells[row][col], nil
}

// RevealCell marks the cell as revealed and reports whether it already was.
func (b *Board) RevealCell(row, col int) (bool, error) {
	c, err := b.cell(row, col)
	if err != nil {
		return false, err
	}

	alreadyRevealed := c.revealed
	c.revealed = true
	return alreadyRevealed, nil
}

// RecordHit appends playerIdx to the cell hits. Repeated hits are kept.
func (b *Board) RecordHit(row, col int, playerIdx PlayerIdx) error {
	c, err := b.cell(row, col)
	if err != nil {
		return err
	}

	c.hits = append(c.hits, playerIdx)
	return nil
}

func (b *Board) CellHits(row, col int) ([]PlayerIdx, error) {
	c, err := b.cell(row, col)
	if err != nil {
		return nil, err
	}
	return clonePlayerIdxs(c.hits), nil
}

// PlaceNode seeds an asset node owned by owner on the cell.
func (b *Board) PlaceNode(row, col int, owner PlayerIdx) error {
	c, err := b.cell(row, col)
	if err != nil {
		return err
	}

	c.nodes = append(c.nodes, owner)
	return nil
}

func (b *Board) NodesAt(row, col int) ([]PlayerIdx, error) {
	c, err := b.cell(row, col)
	if err != nil {
		return nil, err
	}
	return clonePlayerIdxs(c.nodes), nil
}

func (b *Board) IsRevealed(row, col int) (bool, error) {
	c, err := b.cell(row, col)
	if err != nil {
		return false, err
	}
	return c.revealed, nil
}

func clonePlayerIdxs(src []PlayerIdx) []PlayerIdx {
	if len(src) == 0 {
		return []PlayerIdx{}
	}
	dst := make([]PlayerIdx, len(src))
	copy(dst, src)
	return dst
}
