package error

import "fmt"

type Kind uint8

const (
	KindInvalidDimensions Kind = iota + 1
	KindOutOfBounds
	KindInvalidState
	KindNotEnoughPlayers
	KindNotYourTurn
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDimensions:
		return "invalid dimensions"
	case KindOutOfBounds:
		return "out of bounds"
	case KindInvalidState:
		return "invalid state"
	case KindNotEnoughPlayers:
		return "not enough players"
	case KindNotYourTurn:
		return "not your turn"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// GameErr is the error returned by every board, game and session
// operation. Two GameErr values match under errors.Is when their kinds
// match, so callers compare against the sentinels below regardless of
// the description attached.
type GameErr struct {
	kind Kind
	desc string
}

func NewGameErr(kind Kind) GameErr {
	return GameErr{kind: kind}
}

func (g GameErr) AddDesc(desc string) GameErr {
	g.desc = desc
	return g
}

func (g GameErr) Kind() Kind {
	return g.kind
}

func (g GameErr) Error() string {
	if g.desc == "" {
		return g.kind.String()
	}
	return fmt.Sprintf("%s: %s", g.kind, g.desc)
}

func (g GameErr) Is(target error) bool {
	t, ok := target.(GameErr)
	if !ok {
		return false
	}
	return t.kind == g.kind
}

var (
	ErrInvalidDimensions = NewGameErr(KindInvalidDimensions)
	ErrOutOfBounds       = NewGameErr(KindOutOfBounds)
	ErrInvalidState      = NewGameErr(KindInvalidState)
	ErrNotEnoughPlayers  = NewGameErr(KindNotEnoughPlayers)
	ErrNotYourTurn       = NewGameErr(KindNotYourTurn)
	ErrNotFound          = NewGameErr(KindNotFound)
)

func ErrBoardDimensions(height, width int) error {
	return ErrInvalidDimensions.AddDesc(fmt.Sprintf("board dimensions must be positive\theight: %d\twidth: %d", height, width))
}

func ErrBoardTooLarge(height, width, maxHeight, maxWidth int) error {
	return ErrInvalidDimensions.AddDesc(fmt.Sprintf("board exceeds %dx%d\theight: %d\twidth: %d", maxHeight, maxWidth, height, width))
}

func ErrCellOutOfBounds(row, col int) error {
	return ErrOutOfBounds.AddDesc(fmt.Sprintf("incoming row or col is out of board bound\trow: %d\tcol: %d", row, col))
}

func ErrActionNotAllowed(action, state string) error {
	return ErrInvalidState.AddDesc(fmt.Sprintf("%s is not allowed while game is %s", action, state))
}

func ErrTooFewPlayers(count int) error {
	return ErrNotEnoughPlayers.AddDesc(fmt.Sprintf("at least 2 players are needed to start, have %d", count))
}

func ErrOutOfTurn(player, nextTurn int) error {
	return ErrNotYourTurn.AddDesc(fmt.Sprintf("player %d fired but it is player %d's turn", player, nextTurn))
}

func ErrSessionNotFound(sessionId string) error {
	return ErrNotFound.AddDesc(fmt.Sprintf("session with this id does not exist, id: %s", sessionId))
}

func ErrPlayerNotExist(player string) error {
	return ErrNotFound.AddDesc(fmt.Sprintf("player does not exist in this game: %s", player))
}

// ErrInvalidPayload is a transport level error; it never reaches game code.
func ErrInvalidPayload(reason string) error {
	return fmt.Errorf("invalid request payload: %s", reason)
}
