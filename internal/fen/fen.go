// Package fen decodes the piece-placement field of a position string into an 8x8 grid.
package fen

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-tv/internal/domain"
)

const (
	Size          = 8
	rankSeparator = "/"
)

// ErrMalformedPosition is wrapped by every decode failure.
var ErrMalformedPosition = staticErr("malformed position")

type staticErr string

func (e staticErr) Error() string { return string(e) }

// Placement is one decoded square: the piece glyph and its occupant color.
// Empty squares have an empty Glyph and domain.NoColor.
type Placement struct {
	Glyph string
	Color domain.Color
}

func (p Placement) Empty() bool { return p.Color == domain.NoColor }

// Grid rows follow the input order of the rank segments.
type Grid [Size][Size]Placement

var glyphs = map[rune]string{
	'r': "♜",
	'n': "♞",
	'b': "♝",
	'q': "♛",
	'k': "♚",
	'p': "♟",
}

// Decode expands a placement string such as "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR".
func Decode(position string) (Grid, error) {
	var grid Grid
	ranks := strings.Split(strings.TrimSpace(position), rankSeparator)
	if len(ranks) != Size {
		return grid, fmt.Errorf("%w: %d ranks", ErrMalformedPosition, len(ranks))
	}
	for row, rank := range ranks {
		if err := decodeRank(rank, &grid[row]); err != nil {
			return Grid{}, fmt.Errorf("%w: rank %d %q: %v", ErrMalformedPosition, row+1, rank, err)
		}
	}
	return grid, nil
}

func decodeRank(rank string, out *[Size]Placement) error {
	col := 0
	for _, ch := range rank {
		if col >= Size {
			break
		}
		if ch >= '0' && ch <= '9' {
			n := int(ch - '0')
			for i := 0; i < n && col < Size; i++ {
				out[col] = Placement{}
				col++
			}
			continue
		}
		p, ok := lookup(ch)
		if !ok {
			return fmt.Errorf("unrecognized piece %q", ch)
		}
		out[col] = p
		col++
	}
	if col < Size {
		return fmt.Errorf("%d columns", col)
	}
	return nil
}

func lookup(ch rune) (Placement, bool) {
	lower := ch
	color := domain.Black
	if ch >= 'A' && ch <= 'Z' {
		lower = ch + ('a' - 'A')
		color = domain.White
	}
	g, ok := glyphs[lower]
	if !ok {
		return Placement{}, false
	}
	return Placement{Glyph: g, Color: color}, true
}
