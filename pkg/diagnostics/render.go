package diagnostics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Renderer formats diagnostics for a terminal.
type Renderer struct {
	// Styled enables ANSI styling. When false the output is plain text.
	Styled bool
	source []byte
	lines  []string
}

// NewRenderer creates a renderer over the given source.
func NewRenderer(source []byte, styled bool) *Renderer {
	return &Renderer{
		Styled: styled,
		source: source,
		lines:  strings.Split(string(source), "\n"),
	}
}

// Render formats one diagnostic, including source excerpts for its labels.
func (r *Renderer) Render(d *Diagnostic) string {
	d.ResolveSpans(r.source)

	var sb strings.Builder

	head := d.Severity.String()
	if d.Code != "" {
		head += "[" + d.Code + "]"
	}
	sb.WriteString(r.style(severityStyle(d.Severity), head))
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	for _, label := range d.Labels {
		r.renderLabel(&sb, label)
	}
	if d.Help != "" {
		fmt.Fprintf(&sb, "  %s help: %s\n", r.style(gutterStyle, "="), d.Help)
	}
	if d.Note != "" {
		fmt.Fprintf(&sb, "  %s note: %s\n", r.style(gutterStyle, "="), d.Note)
	}

	return sb.String()
}

// RenderAll formats every diagnostic in the bag plus a summary line.
func (r *Renderer) RenderAll(b *Bag) string {
	var sb strings.Builder
	for _, d := range b.Diagnostics() {
		sb.WriteString(r.Render(d))
	}
	if n := b.ErrorCount(); n > 0 {
		fmt.Fprintf(&sb, "\n%d error(s)\n", n)
	} else if n := b.WarningCount(); n > 0 {
		fmt.Fprintf(&sb, "\n%d warning(s)\n", n)
	}
	return sb.String()
}

func (r *Renderer) renderLabel(sb *strings.Builder, label Label) {
	span := label.Span
	fmt.Fprintf(sb, "  %s %s:%d:%d\n", r.style(gutterStyle, "-->"), label.File, span.StartLine, span.StartColumn)

	if span.StartLine < 1 || span.StartLine > len(r.lines) {
		return
	}
	line := r.lines[span.StartLine-1]
	gutter := fmt.Sprintf("%4d", span.StartLine)

	fmt.Fprintf(sb, "%s %s\n", r.style(gutterStyle, strings.Repeat(" ", len(gutter))+" |"), "")
	fmt.Fprintf(sb, "%s %s\n", r.style(gutterStyle, gutter+" |"), line)

	width := span.EndColumn - span.StartColumn
	if span.EndLine != span.StartLine || width < 1 {
		width = 1
	}
	marker := strings.Repeat("^", width)
	style := caretStyle
	if !label.Primary {
		marker = strings.Repeat("-", width)
		style = dashStyle
	}
	underline := strings.Repeat(" ", span.StartColumn-1) + r.style(style, marker)
	if label.Message != "" {
		underline += " " + r.style(style, label.Message)
	}
	fmt.Fprintf(sb, "%s %s\n", r.style(gutterStyle, strings.Repeat(" ", len(gutter))+" |"), underline)
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.Styled {
		return text
	}
	return s.Render(text)
}

func severityStyle(s Severity) lipgloss.Style {
	switch s {
	case Warning:
		return warningStyle
	case Info:
		return infoStyle
	case Hint:
		return hintStyle
	default:
		return errorStyle
	}
}
