package battleship

// PlayerIdx is a position in the game's roster. It is only meaningful
// for the Game that issued it.
type PlayerIdx int

type Player struct {
	name  string
	token string
}

func NewPlayer(name, token string) Player {
	return Player{name: name, token: token}
}

func (p Player) Name() string {
	return p.name
}

// Token is the opaque capability issued to the player when they joined.
// Its format is never inspected.
func (p Player) Token() string {
	return p.token
}
