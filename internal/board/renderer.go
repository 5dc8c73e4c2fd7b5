// Package board turns a game view into a drawable frame: an 8x8 grid of
// styled cells plus the two player panels.
package board

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-tv/internal/domain"
	"github.com/park285/cheese-tv/internal/fen"
	"github.com/park285/cheese-tv/internal/game"
	"github.com/park285/cheese-tv/internal/msgcat"
)

type Cell struct {
	Glyph     string
	Square    domain.Color
	Piece     domain.Color
	Highlight bool
}

type Panel struct {
	Identity string
	Clock    string
}

// Frame is everything the terminal needs to draw one screen.
type Frame struct {
	Layout Layout
	Files  []string
	Top    Panel
	Bottom Panel
	Cells  [fen.Size][fen.Size]Cell
}

// Drawer is the terminal side of rendering.
type Drawer interface {
	Draw(f Frame) error
}

type Renderer struct {
	layout  Layout
	drawer  Drawer
	catalog *msgcat.Catalog
	files   []string
}

func NewRenderer(layout Layout, drawer Drawer, catalog *msgcat.Catalog) *Renderer {
	if catalog == nil {
		catalog = msgcat.Default()
	}
	return &Renderer{
		layout:  layout,
		drawer:  drawer,
		catalog: catalog,
		files:   fileLabels(catalog),
	}
}

// Render draws one complete frame. Draw failures are returned unchanged.
func (r *Renderer) Render(v game.View) error {
	f, err := r.Frame(v)
	if err != nil {
		return err
	}
	return r.drawer.Draw(f)
}

// Frame builds the frame for v without drawing it. An empty position yields an empty board.
func (r *Renderer) Frame(v game.View) (Frame, error) {
	f := Frame{
		Layout: r.layout,
		Files:  r.files,
		Top:    r.panel(v.White),
		Bottom: r.panel(v.Black),
	}

	var grid fen.Grid
	if strings.TrimSpace(v.Position) != "" {
		var err error
		grid, err = fen.Decode(v.Position)
		if err != nil {
			return Frame{}, fmt.Errorf("decode position: %w", err)
		}
	}

	for row := 0; row < fen.Size; row++ {
		for col := 0; col < fen.Size; col++ {
			p := grid[row][col]
			f.Cells[row][col] = Cell{
				Glyph:  p.Glyph,
				Square: SquareColor(row, col),
				Piece:  p.Color,
			}
		}
	}
	if from, to, ok := lastMoveSquares(v.LastMove); ok {
		f.Cells[from.row][from.col].Highlight = true
		f.Cells[to.row][to.col].Highlight = true
	}
	return f, nil
}

// SquareColor depends on (row, col) only: even sums are dark, odd sums light.
func SquareColor(row, col int) domain.Color {
	if (row+col)%2 == 0 {
		return domain.Black
	}
	return domain.White
}

func (r *Renderer) panel(p domain.PlayerState) Panel {
	title := ""
	if p.Identity.Title != nil {
		title = *p.Identity.Title
	}
	identity, err := r.catalog.Render("panel.identity", map[string]any{
		"Title":  title,
		"Name":   p.Identity.Name,
		"Rating": p.Rating,
	})
	if err != nil {
		identity = fmt.Sprintf("%s:%s (%d)", title, p.Identity.Name, p.Rating)
	}
	clock, err := r.catalog.Render("panel.clock", map[string]any{"Seconds": p.Seconds})
	if err != nil {
		clock = fmt.Sprintf("Time:%ds", p.Seconds)
	}
	return Panel{Identity: identity, Clock: clock}
}

func fileLabels(c *msgcat.Catalog) []string {
	s, err := c.Render("board.files", nil)
	if err != nil || len([]rune(s)) != fen.Size {
		s = "ABCDEFGH"
	}
	out := make([]string, 0, fen.Size)
	for _, ch := range s {
		out = append(out, string(ch))
	}
	return out
}

type gridPos struct{ row, col int }

// squareIndex maps "a8".."h1" to grid coordinates; rank 8 is row 0, as in the
// first segment of a position string.
var squareIndex = func() map[string]gridPos {
	ranks := []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
	m := make(map[string]gridPos, len(ranks)*len(files))
	for row, rank := range ranks {
		for col, file := range files {
			m[nchess.NewSquare(file, rank).String()] = gridPos{row: row, col: col}
		}
	}
	return m
}()

// lastMoveSquares reads a UCI move such as "a8a1" or "e7e8q".
func lastMoveSquares(lm string) (from, to gridPos, ok bool) {
	lm = strings.ToLower(strings.TrimSpace(lm))
	if len(lm) < 4 {
		return from, to, false
	}
	from, okFrom := squareIndex[lm[0:2]]
	to, okTo := squareIndex[lm[2:4]]
	return from, to, okFrom && okTo
}
