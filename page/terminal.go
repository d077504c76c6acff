package page

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// Terminal is a [Page] that writes one line per event to an [io.Writer].
//
// A terminal cannot take back lines it already printed, so Reset prints a
// separator and restarts numbering. Entries are sanitized: control
// characters (including ESC) are replaced so a result cannot inject terminal
// escape sequences.
type Terminal struct {
	w     io.Writer
	count int

	statusStyle lipgloss.Style
	indexStyle  lipgloss.Style
	ruleStyle   lipgloss.Style
}

// NewTerminal returns a [Terminal] writing to w.
//
// Colors are chosen by lipgloss from w's capabilities; plain writers such as
// files and buffers receive unstyled text.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:           w,
		statusStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		indexStyle:  r.NewStyle().Faint(true),
		ruleStyle:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// SetStatus implements [Page].
func (t *Terminal) SetStatus(text string) error {
	_, err := fmt.Fprintln(t.w, t.statusStyle.Render(Sanitize(text)))
	return err
}

// Reset implements [Page].
func (t *Terminal) Reset() error {
	t.count = 0
	_, err := fmt.Fprintln(t.w, t.ruleStyle.Render(strings.Repeat("─", 40)))
	return err
}

// HideInput implements [Page]. A terminal has no input area.
func (t *Terminal) HideInput() error {
	return nil
}

// Append implements [Page].
func (t *Terminal) Append(entries ...string) error {
	for _, e := range entries {
		t.count++
		index := t.indexStyle.Render(fmt.Sprintf("%4d.", t.count))
		if _, err := fmt.Fprintf(t.w, "%s %s\n", index, Sanitize(e)); err != nil {
			return err
		}
	}
	return nil
}

// Sanitize replaces control characters other than tab with U+FFFD.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r != '\t' && unicode.IsControl(r) {
			return unicode.ReplacementChar
		}
		return r
	}, s)
}
