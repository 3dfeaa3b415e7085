// Package output renders command results as styled text, markdown, or JSON.
// Auto mode picks styled text on a terminal and markdown when piped, so both
// humans and scripts get a useful default.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeJSON     Mode = "json"
	ModeMarkdown Mode = "markdown"
)

// ParseMode normalizes a user-supplied format string. Unrecognized values
// fall back to auto.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return ModeText
	case "json":
		return ModeJSON
	case "markdown", "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer bound to the given writers. Styles are
// resolved against out, so colors degrade automatically when out is not a
// terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	lr := lipgloss.NewRenderer(out, termenv.WithColorCache(true))
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   ParseMode(string(mode)),
		styles: newStyles(lr),
	}
}

// EffectiveMode resolves auto to a concrete mode: text when out is a
// terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Writer returns the destination for primary output.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the destination for diagnostics.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Styles returns the style set resolved for the output writer.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to the output writer.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a styled section header. Level 1 is a page title, level 2 a
// section title.
func (r *Renderer) Header(level int, text string) {
	switch level {
	case 1:
		r.Println(r.styles.Header1.Render(text))
	default:
		r.Println(r.styles.Header2.Render(text))
	}
}

// Success writes a confirmation line with a check mark.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.StatusSuccess.String() + " " + msg)
}

// Warning writes a warning line to the error writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("!")+" "+msg)
}

// JSON writes v as indented JSON to the output writer.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader renders a markdown header line.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue renders a markdown key/value bullet.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}
