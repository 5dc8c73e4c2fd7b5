package feed

import "github.com/park285/cheese-tv/internal/domain"

// Message is either *Feature or *Update.
type Message interface {
	Type() string
	Position() string
}

// Feature is the full snapshot sent when a new game becomes the broadcast target.
type Feature struct {
	ID          string
	Orientation domain.Color
	White       domain.PlayerState
	Black       domain.PlayerState
	Placement   string
}

func (f *Feature) Type() string     { return TypeFeature }
func (f *Feature) Position() string { return f.Placement }

// Update is sent on every ply. Placement already has the side-to-move suffix removed.
type Update struct {
	Placement    string
	LastMove     string
	WhiteSeconds int
	BlackSeconds int
}

func (u *Update) Type() string     { return TypeUpdate }
func (u *Update) Position() string { return u.Placement }

const (
	TypeFeature = "featured"
	TypeUpdate  = "fen"
)

// Errors
var (
	ErrSyntax        = staticErr("feed: invalid json")
	ErrUnknownType   = staticErr("feed: unknown message type")
	ErrMissingField  = staticErr("feed: missing field")
	ErrPayload       = staticErr("feed: invalid payload")
	ErrColor         = staticErr("feed: invalid player colors")
	ErrShortPosition = staticErr("feed: position shorter than suffix")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
