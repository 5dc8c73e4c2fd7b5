// Package screen owns the terminal: raw mode, the alternate screen and
// drawing board frames, plus the keyboard poller used for the stop command.
package screen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/park285/cheese-tv/internal/board"
)

var ErrNotTerminal = errors.New("screen: stdin/stdout is not a terminal")

// Screen is acquired by Open and must be released with Close on every exit path.
type Screen struct {
	in     *os.File
	out    io.Writer
	output *termenv.Output
	styler *Styler
	state  *term.State

	width  int
	height int

	closeOnce sync.Once
	closeErr  error
}

// Open enters raw mode and the alternate screen and hides the cursor.
func Open(theme Theme) (*Screen, error) {
	in, out := os.Stdin, os.Stdout
	if !term.IsTerminal(int(in.Fd())) || !term.IsTerminal(int(out.Fd())) {
		return nil, ErrNotTerminal
	}
	w, h, err := term.GetSize(int(out.Fd()))
	if err != nil {
		return nil, fmt.Errorf("terminal size: %w", err)
	}
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	output := termenv.NewOutput(out)
	output.AltScreen()
	output.HideCursor()
	output.ClearScreen()

	renderer := lipgloss.NewRenderer(out)
	return &Screen{
		in:     in,
		out:    out,
		output: output,
		styler: NewStyler(renderer, theme),
		state:  state,
		width:  w,
		height: h,
	}, nil
}

// Size reports the dimensions measured at Open.
func (s *Screen) Size() (width, height int) { return s.width, s.height }

// Draw writes the frame at its layout position in a single write.
func (s *Screen) Draw(f board.Frame) error {
	payload := composeFrame(s.styler.Lines(f), f.Layout)
	if _, err := io.WriteString(s.out, payload); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}

// Close leaves the alternate screen, shows the cursor and restores the
// previous terminal mode. Safe to call more than once.
func (s *Screen) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.output.ExitAltScreen()
		s.output.ShowCursor()
		s.closeErr = term.Restore(int(s.in.Fd()), s.state)
	})
	return s.closeErr
}

// composeFrame prefixes every line with an absolute cursor move so a frame
// overwrites the previous one without clearing the screen.
func composeFrame(lines []string, l board.Layout) string {
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(termenv.CSI)
		fmt.Fprintf(&b, termenv.CursorPositionSeq, l.Top+i+1, l.Left+1)
		b.WriteString(line)
	}
	return b.String()
}
