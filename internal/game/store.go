// Package game holds the single record of what the viewer currently displays.
package game

import (
	"github.com/park285/cheese-tv/internal/domain"
	"github.com/park285/cheese-tv/internal/feed"
)

// View is the canonical in-memory record of the displayed game.
// White.Color is always domain.White and Black.Color always domain.Black.
type View struct {
	GameID      string
	Orientation domain.Color
	White       domain.PlayerState
	Black       domain.PlayerState
	Position    string
	LastMove    string
}

// Store is owned by the controller; it is not safe for concurrent use.
type Store struct {
	view View
}

func NewStore() *Store {
	return &Store{view: View{
		White: domain.PlayerState{Color: domain.White},
		Black: domain.PlayerState{Color: domain.Black},
	}}
}

// ApplyFeature replaces the whole view.
func (s *Store) ApplyFeature(f *feed.Feature) {
	if f == nil {
		return
	}
	s.view = View{
		GameID:      f.ID,
		Orientation: f.Orientation,
		White:       f.White,
		Black:       f.Black,
		Position:    f.Placement,
	}
	s.view.White.Color = domain.White
	s.view.Black.Color = domain.Black
}

// ApplyUpdate sets the position, last move and both clocks. Identities and ratings are kept.
func (s *Store) ApplyUpdate(u *feed.Update) {
	if u == nil {
		return
	}
	s.view.Position = u.Placement
	s.view.LastMove = u.LastMove
	s.view.White.Seconds = u.WhiteSeconds
	s.view.Black.Seconds = u.BlackSeconds
}

// Apply dispatches on the message type.
func (s *Store) Apply(msg feed.Message) {
	switch m := msg.(type) {
	case *feed.Feature:
		s.ApplyFeature(m)
	case *feed.Update:
		s.ApplyUpdate(m)
	}
}

// View returns a copy of the current view.
func (s *Store) View() View {
	return s.view
}
