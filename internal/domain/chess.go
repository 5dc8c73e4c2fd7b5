package domain

// Color identifies a chess side. NoColor marks an empty square occupant.
type Color uint8

const (
	NoColor Color = iota
	Black
	White
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// ParseColor accepts the feed's lowercase color names.
func ParseColor(s string) (Color, bool) {
	switch s {
	case "white":
		return White, true
	case "black":
		return Black, true
	default:
		return NoColor, false
	}
}

// PlayerIdentity is fixed for the life of a game. Title is nil when the feed omits it.
type PlayerIdentity struct {
	Name  string
	Title *string
	ID    string
}

type PlayerState struct {
	Identity PlayerIdentity
	Color    Color
	Rating   int
	Seconds  int
}
