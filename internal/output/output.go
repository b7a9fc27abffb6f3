// Package output provides consistent CLI output formatting, including
// styled search result rendering with match highlighting.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/opencivic/civicsearch/internal/search"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	title     lipgloss.Style
	meta      lipgloss.Style
	highlight lipgloss.Style
	dim       lipgloss.Style
}

// New creates a Writer. Color is enabled only when out is an
// interactive terminal and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	w := &Writer{out: out}
	w.useColor = isTerminal(out) && !noColorEnv()
	if w.useColor {
		w.title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
		w.meta = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		w.highlight = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	}
	return w
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func noColorEnv() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Status prints a status message with an icon.
// Write errors are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Results renders ranked search results: one block per hit with the
// title line, metadata line, and highlighted snippet.
func (w *Writer) Results(results []search.Result) {
	if len(results) == 0 {
		w.Status("", "No results.")
		return
	}

	for i, r := range results {
		title := fmt.Sprintf("%d. %s", i+1, r.Title)
		if w.useColor {
			title = w.title.Render(title)
		}
		_, _ = fmt.Fprintln(w.out, title)

		meta := fmt.Sprintf("   clip %d · %s · %s", r.ClipID, r.Date, r.MeetingBody)
		if len(r.Topics) > 0 {
			meta += " · " + strings.Join(r.Topics, ", ")
		}
		if r.IsExactMatch {
			meta += " · exact"
		}
		if w.useColor {
			meta = w.meta.Render(meta)
		}
		_, _ = fmt.Fprintln(w.out, meta)

		if r.Snippet != nil {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.renderSnippet(r))
		}
		_, _ = fmt.Fprintln(w.out)
	}
}

// renderSnippet renders the snippet with the matched span emphasized.
func (w *Writer) renderSnippet(r search.Result) string {
	s := r.Snippet
	match := s.Text[s.MatchStart:s.MatchEnd]
	if w.useColor {
		match = w.highlight.Render(match)
	} else {
		match = "[" + match + "]"
	}

	var b strings.Builder
	if s.Prefix != "" {
		b.WriteString(w.dimText(s.Prefix))
	}
	b.WriteString(s.Text[:s.MatchStart])
	b.WriteString(match)
	b.WriteString(s.Text[s.MatchEnd:])
	if s.Suffix != "" {
		b.WriteString(w.dimText(s.Suffix))
	}
	return b.String()
}

func (w *Writer) dimText(s string) string {
	if w.useColor {
		return w.dim.Render(s)
	}
	return s
}
