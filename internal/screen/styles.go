package screen

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/park285/cheese-tv/internal/board"
	"github.com/park285/cheese-tv/internal/domain"
)

const clockWidth = 10

// Theme holds the hex colors used for squares and pieces.
type Theme struct {
	DarkSquare  string
	LightSquare string
	WhitePiece  string
	BlackPiece  string
	Highlight   string
}

func DefaultTheme() Theme {
	return Theme{
		DarkSquare:  "#AC7D58",
		LightSquare: "#EED3AC",
		WhitePiece:  "#FFFFFF",
		BlackPiece:  "#000001",
		Highlight:   "#CDD26A",
	}
}

// Styler converts frames into printable lines. It has no terminal state of
// its own; the color profile comes from the lipgloss renderer it wraps.
type Styler struct {
	r     *lipgloss.Renderer
	theme Theme

	identity lipgloss.Style
	clock    lipgloss.Style
	label    lipgloss.Style
	file     lipgloss.Style
	square   lipgloss.Style
}

func NewStyler(r *lipgloss.Renderer, theme Theme) *Styler {
	nameWidth := board.ContentWidth - clockWidth
	return &Styler{
		r:        r,
		theme:    theme,
		identity: r.NewStyle().Width(nameWidth).MaxWidth(nameWidth).MaxHeight(1),
		clock:    r.NewStyle().Width(clockWidth).MaxWidth(clockWidth).MaxHeight(1).Align(lipgloss.Right),
		label:    r.NewStyle().Width(board.LabelWidth).Height(board.RowHeight),
		file:     r.NewStyle().Width(board.CellWidth).Align(lipgloss.Center),
		square:   r.NewStyle().Width(board.CellWidth).Height(board.RowHeight).Bold(true),
	}
}

// Lines renders f as board.Layout.Lines() lines, each padded to board.ContentWidth.
func (s *Styler) Lines(f board.Frame) []string {
	lines := make([]string, 0, f.Layout.Lines())
	lines = append(lines, s.panel(f.Top))
	lines = append(lines, s.header(f.Files), "")
	for row := range f.Cells {
		cols := make([]string, 0, len(f.Cells[row])+1)
		cols = append(cols, s.label.Render(strconv.Itoa(row+1)))
		for col := range f.Cells[row] {
			cols = append(cols, s.cell(f.Cells[row][col]))
		}
		rank := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
		lines = append(lines, strings.Split(rank, "\n")...)
	}
	lines = append(lines, s.panel(f.Bottom))
	for i, l := range lines {
		lines[i] = s.r.PlaceHorizontal(board.ContentWidth, lipgloss.Left, l)
	}
	return lines
}

func (s *Styler) panel(p board.Panel) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.identity.Render(p.Identity), s.clock.Render(p.Clock))
}

func (s *Styler) header(files []string) string {
	cols := make([]string, 0, len(files)+1)
	cols = append(cols, s.r.NewStyle().Width(board.LabelWidth).Render(""))
	for _, f := range files {
		cols = append(cols, s.file.Render(f))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (s *Styler) cell(c board.Cell) string {
	bg := s.theme.LightSquare
	if c.Square == domain.Black {
		bg = s.theme.DarkSquare
	}
	if c.Highlight {
		bg = s.theme.Highlight
	}
	fg := s.theme.WhitePiece
	if c.Piece == domain.Black {
		fg = s.theme.BlackPiece
	}
	glyph := ""
	if c.Glyph != "" {
		glyph = " " + c.Glyph + " "
	}
	return s.square.
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg)).
		Render(glyph)
}
