// Package diagnostics defines the diagnostic model shared by the parser, the
// evaluator, and the evaluation API, plus terminal rendering.
package diagnostics

import "unicode/utf8"

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// MarshalText makes Severity serialize as its lowercase name in both JSON and
// MessagePack payloads.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a lowercase severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*s = Warning
	case "info":
		*s = Info
	case "hint":
		*s = Hint
	default:
		*s = Error
	}
	return nil
}

// TextSpan is a half-open byte range with resolved 1-based line/column
// positions. Columns count Unicode scalar values, not bytes.
type TextSpan struct {
	StartByte   int `json:"start_byte" msgpack:"start_byte"`
	EndByte     int `json:"end_byte" msgpack:"end_byte"`
	StartLine   int `json:"start_line" msgpack:"start_line"`
	StartColumn int `json:"start_column" msgpack:"start_column"`
	EndLine     int `json:"end_line" msgpack:"end_line"`
	EndColumn   int `json:"end_column" msgpack:"end_column"`
}

// Label points at a source location related to a diagnostic. The primary
// label marks the main site of the issue; secondary labels add context.
type Label struct {
	File    string   `json:"file" msgpack:"file"`
	Span    TextSpan `json:"span" msgpack:"span"`
	Message string   `json:"message,omitempty" msgpack:"message,omitempty"`
	Primary bool     `json:"primary" msgpack:"primary"`
}

// Diagnostic is a message from the parser or runtime, stable enough to
// serialize across the evaluation boundary.
type Diagnostic struct {
	Severity Severity `json:"severity" msgpack:"severity"`
	Code     string   `json:"code,omitempty" msgpack:"code,omitempty"`
	Message  string   `json:"message" msgpack:"message"`
	Labels   []Label  `json:"labels" msgpack:"labels"`
	Help     string   `json:"help,omitempty" msgpack:"help,omitempty"`
	Note     string   `json:"note,omitempty" msgpack:"note,omitempty"`
}

// NewError creates an error diagnostic with the given code and message.
func NewError(code, message string) *Diagnostic {
	return &Diagnostic{Severity: Error, Code: code, Message: message}
}

// NewWarning creates a warning diagnostic with the given code and message.
func NewWarning(code, message string) *Diagnostic {
	return &Diagnostic{Severity: Warning, Code: code, Message: message}
}

// WithLabel adds a label for the byte range [start, end) in file. Line and
// column fields are resolved later against the source by ResolveSpans.
func (d *Diagnostic) WithLabel(file string, start, end int, message string, primary bool) *Diagnostic {
	d.Labels = append(d.Labels, Label{
		File:    file,
		Span:    TextSpan{StartByte: start, EndByte: end},
		Message: message,
		Primary: primary,
	})
	return d
}

// WithPrimaryLabel adds the main label for the diagnostic.
func (d *Diagnostic) WithPrimaryLabel(file string, start, end int, message string) *Diagnostic {
	return d.WithLabel(file, start, end, message, true)
}

// WithSecondaryLabel adds a context label.
func (d *Diagnostic) WithSecondaryLabel(file string, start, end int, message string) *Diagnostic {
	return d.WithLabel(file, start, end, message, false)
}

// WithHelp sets a suggestion for fixing the issue.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithNote attaches additional information.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Note = note
	return d
}

// ResolveSpans fills in line and column positions for every label from the
// source bytes the spans index into.
func (d *Diagnostic) ResolveSpans(source []byte) {
	for i := range d.Labels {
		span := &d.Labels[i].Span
		span.StartLine, span.StartColumn = lineColumn(source, span.StartByte)
		span.EndLine, span.EndColumn = lineColumn(source, span.EndByte)
	}
}

// lineColumn resolves a byte offset to a 1-based line and column, counting
// columns in Unicode scalar values.
func lineColumn(source []byte, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	line, col := 1, 1
	for i := 0; i < offset; {
		r, size := utf8.DecodeRune(source[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return line, col
}
