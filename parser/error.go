package parser

import (
	"log/slog"
	"strconv"
	"strings"
)

// Error is a template syntax error.
type Error struct {
	Path string
	Pos  Pos
	Msg  string
	// Err is the underlying cause, such as an expression syntax error.
	Err error

	line string
}

// Error returns "[path:]line:column: message[: cause]". Only the first line of
// a multi-line cause is included; see [Error.Snippet] for source context.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteByte(':')
	}

	sb.WriteString(strconv.Itoa(e.Pos.Line))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(e.Pos.Column))
	sb.WriteString(": ")
	sb.WriteString(e.Msg)

	if e.Err != nil {
		cause, _, _ := strings.Cut(e.Err.Error(), "\n")
		sb.WriteString(": ")
		sb.WriteString(cause)
	}

	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Snippet renders the offending source line with a caret under the error
// column:
//
//	  3 | {% if %}
//	      ^
func (e *Error) Snippet() string {
	if e.Pos.Line <= 0 {
		return ""
	}

	var sb strings.Builder

	num := strconv.Itoa(e.Pos.Line)

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(e.line)
	sb.WriteByte('\n')
	// 2 leading spaces + " | "
	sb.WriteString(strings.Repeat(" ", len(num)+5+max(e.Pos.Column-1, 0)))
	sb.WriteString("^\n")

	return sb.String()
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", e.Msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	}

	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}
