package syntax

import (
	"errors"
	"fmt"
	"log/slog"
)

// Rules violated by an invalid delimiter set. Use with [errors.Is].
var (
	ErrTooShort   = errors.New("delimiter too short")
	ErrWhitespace = errors.New("delimiter contains whitespace")
	ErrPrefix     = errors.New("opening delimiter is a prefix of another")
)

// Error describes the first delimiter rule violated by a [Syntax].
type Error struct {
	// Rule is one of [ErrTooShort], [ErrWhitespace], or [ErrPrefix].
	Rule error
	// Delimiter names the offending delimiter, e.g. "opening block".
	// For [ErrPrefix] it names the shorter of the clashing pair, e.g. "block".
	Delimiter string
	Value     string
	// Other and OtherValue name the longer delimiter of an [ErrPrefix] clash.
	Other      string
	OtherValue string
}

func (e *Error) Error() string {
	switch e.Rule {
	case ErrTooShort:
		return fmt.Sprintf(
			"delimiters must be at least two characters long. "+
				"The %s delimiter (%q) is too short",
			e.Delimiter, e.Value,
		)
	case ErrWhitespace:
		return fmt.Sprintf(
			"delimiters may not contain white spaces. "+
				"The %s delimiter (%q) contains white spaces",
			e.Delimiter, e.Value,
		)
	case ErrPrefix:
		return fmt.Sprintf(
			"an opening delimiter may not be the prefix of another delimiter. "+
				"The %s delimiter (%q) clashes with the %s delimiter (%q)",
			e.Delimiter, e.Value, e.Other, e.OtherValue,
		)
	default:
		return fmt.Sprintf("invalid %s delimiter (%q)", e.Delimiter, e.Value)
	}
}

func (e *Error) Unwrap() error { return e.Rule }

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("delimiter", e.Delimiter),
		slog.String("value", e.Value),
	}

	if e.Other != "" {
		attrs = append(attrs,
			slog.String("other", e.Other),
			slog.String("other_value", e.OtherValue))
	}

	return slog.GroupValue(attrs...)
}
