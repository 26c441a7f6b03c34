package syntax

import (
	"fmt"
	"iter"
)

// Whitespace is the policy applied to whitespace adjacent to template tags.
type Whitespace int

const (
	// Preserve keeps whitespace verbatim.
	Preserve Whitespace = iota
	// Suppress removes all adjacent whitespace.
	Suppress
	// Minimize collapses adjacent whitespace to a single newline or space.
	Minimize
)

var whitespaceNames = [...]string{
	Preserve: "preserve",
	Suppress: "suppress",
	Minimize: "minimize",
}

func (w Whitespace) String() string {
	if w >= 0 && int(w) < len(whitespaceNames) {
		return whitespaceNames[w]
	}

	return fmt.Sprintf("Whitespace(%d)", int(w))
}

// Whitespaces returns an iterator over the accepted policy names.
func Whitespaces() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range whitespaceNames {
			if !yield(name) {
				return
			}
		}
	}
}

// ParseWhitespace parses one of "preserve", "suppress", or "minimize".
// Matching is exact.
func ParseWhitespace(s string) (Whitespace, bool) {
	for i, name := range whitespaceNames {
		if s == name {
			return Whitespace(i), true
		}
	}

	return Preserve, false
}

// MarshalText implements [encoding.TextMarshaler].
func (w Whitespace) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
