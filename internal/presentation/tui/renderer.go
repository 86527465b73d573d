package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/strata/pkg/model"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Output formats accepted by Render.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Renderer writes evaluated nodes to a terminal or a pipe.
type Renderer struct {
	w     io.Writer
	out   *termenv.Output
	tty   bool
	style string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithStyle forces a glamour style ("dark", "light", "notty", ...) for
// markdown output, which is otherwise only styled on terminals.
func WithStyle(style string) RendererOption {
	return func(r *Renderer) {
		r.style = style
	}
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{w: w, out: termenv.NewOutput(w), tty: IsTerminal(w)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render writes entries in format.
func (r *Renderer) Render(format string, entries []model.Entry) error {
	switch format {
	case "", FormatText:
		return r.Text(entries)
	case FormatJSON:
		return r.JSON(entries)
	case FormatMarkdown:
		return r.Markdown(entries)
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", format)
	}
}

// Text writes one "label = value" line per entry, highlighting fixed values.
func (r *Renderer) Text(entries []model.Entry) error {
	for _, e := range entries {
		value := formatValue(e.Value)
		suffix := ""
		if e.Fixed {
			suffix = " (fixed)"
			if r.tty {
				value = r.out.String(value).Foreground(r.out.Color("#fbc02d")).Bold().String()
			}
		}
		if _, err := fmt.Fprintf(r.w, "%s = %s%s\n", e.Label, value, suffix); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes entries as an indented JSON array.
func (r *Renderer) JSON(entries []model.Entry) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// Markdown writes entries as a table, rendered with glamour on terminals.
func (r *Renderer) Markdown(entries []model.Entry) error {
	md := Table(entries)
	if !r.tty && r.style == "" {
		_, err := io.WriteString(r.w, md)
		return err
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if r.style != "" {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(r.w, out)
	return err
}

// Table formats entries as a markdown table.
func Table(entries []model.Entry) string {
	var sb strings.Builder
	sb.WriteString("| Node | Value | State |\n")
	sb.WriteString("|---|---|---|\n")
	for _, e := range entries {
		state := "computed"
		if e.Fixed {
			state = "fixed"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(e.Label), escapeCell(formatValue(e.Value)), state)
	}
	return sb.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
