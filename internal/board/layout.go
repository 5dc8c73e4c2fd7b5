package board

// Fixed geometry of the board column, in terminal cells.
const (
	ContentWidth = 40
	LabelWidth   = 4
	CellWidth    = 4
	RowHeight    = 2

	// header row + its bottom margin + 8 ranks
	boardLines = 2 + 8*RowHeight
	// top panel + board + bottom panel
	frameLines = 1 + boardLines + 1
)

// Layout positions the content column inside the terminal. It is computed
// once from the size reported at startup and reused for every frame.
type Layout struct {
	Width  int
	Height int
	Left   int
	Top    int
}

func NewLayout(width, height int) Layout {
	l := Layout{Width: width, Height: height}
	if width > ContentWidth {
		l.Left = (width - ContentWidth) / 2
	}
	if height > frameLines {
		l.Top = (height - frameLines) / 2
	}
	return l
}

// Lines is the number of terminal lines a frame occupies.
func (l Layout) Lines() int { return frameLines }
