package battleship

// Ship codes mirror the classic fleet. The code is informational only;
// a ship is whatever set of cells the caller places.
const (
	ShipCodeDestroyer uint8 = iota + 2
	ShipCodeCruiser
	ShipCodeBattleship
)

type Ship struct {
	Code  uint8         `json:"code"`
	Cells []Coordinates `json:"cells"`
}

func NewShip(code uint8, cells ...Coordinates) Ship {
	return Ship{Code: code, Cells: cells}
}

// Nodes returns how many asset nodes the ship adds to its owner.
func (sh Ship) Nodes() int {
	return len(sh.Cells)
}
