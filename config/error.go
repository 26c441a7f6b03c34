package config

import (
	"errors"
	"log/slog"
	"strconv"
)

// Error kinds. Every *Error returned by this package matches exactly one of
// them with [errors.Is]. Template parse errors are returned unchanged from the
// parser and are not *Error values.
var (
	ErrConfigParse = newKind("invalid configuration text")
	ErrValidation  = newKind("invalid configuration")
	ErrNotFound    = newKind("template not found")
	ErrIO          = newKind("i/o error")
)

// Span is a 1-based line and column within a configuration file.
type Span struct {
	Line   int
	Column int
}

// Error is a configuration or template lookup failure.
//
// Its message embeds the offending literal. The configuration file it relates
// to, and the location within that file when known, are available through
// [Error.File] and [Error.Span] and are included in [Error.LogValue].
type Error struct {
	kind  *Error
	msg   string
	err   error // cause, for errors.Is/As
	file  string
	span  *Span
	attrs []slog.Attr
}

func newKind(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// newError creates an error of the given kind with message msg.
func newError(kind *Error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string { return e.msg }

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && (t == e || t == e.kind)
}

// File returns the configuration file the error relates to, if known.
func (e *Error) File() string { return e.file }

// Span returns the location within [Error.File], if known.
func (e *Error) Span() (Span, bool) {
	if e.span == nil {
		return Span{}, false
	}

	return *e.span, true
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)
	attrs = append(attrs, slog.String("error", e.msg))

	if e.kind != nil && e.kind != e {
		attrs = append(attrs, slog.String("kind", e.kind.msg))
	}

	if e.file != "" {
		attrs = append(attrs, slog.String("file", e.file))
	}

	if e.span != nil {
		attrs = append(attrs,
			slog.String("at", strconv.Itoa(e.span.Line)+":"+strconv.Itoa(e.span.Column)))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to the error.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

func (e *Error) wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

func (e *Error) in(file string) *Error {
	c := *e
	c.file = file

	return &c
}

func (e *Error) at(line, column int) *Error {
	if line <= 0 {
		return e
	}

	c := *e
	c.span = &Span{Line: line, Column: column}

	return &c
}

func (e *Error) with(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(append(make([]slog.Attr, 0, len(e.attrs)+len(attrs)), e.attrs...), attrs...)

	return &c
}

// asError returns err as an *Error of kind, converting foreign errors.
func asError(err error, kind *Error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return newError(kind, err.Error()).wrap(err)
}
