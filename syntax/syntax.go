// Package syntax defines template delimiter sets and the rules that make a
// delimiter set unambiguous.
package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default delimiters.
const (
	DefaultBlockStart   = "{%"
	DefaultBlockEnd     = "%}"
	DefaultExprStart    = "{{"
	DefaultExprEnd      = "}}"
	DefaultCommentStart = "{#"
	DefaultCommentEnd   = "#}"
)

// MinDelimiterLen is the minimum number of characters in any delimiter.
const MinDelimiterLen = 2

// Syntax is a validated set of six template delimiters.
//
// The zero value is not valid; obtain one from [Default] or [Builder.Build].
type Syntax struct {
	BlockStart   string `json:"block_start"   yaml:"block_start"`
	BlockEnd     string `json:"block_end"     yaml:"block_end"`
	ExprStart    string `json:"expr_start"    yaml:"expr_start"`
	ExprEnd      string `json:"expr_end"      yaml:"expr_end"`
	CommentStart string `json:"comment_start" yaml:"comment_start"`
	CommentEnd   string `json:"comment_end"   yaml:"comment_end"`
}

// Default returns the default delimiter set: "{% %}", "{{ }}", "{# #}".
func Default() Syntax {
	return Syntax{
		BlockStart:   DefaultBlockStart,
		BlockEnd:     DefaultBlockEnd,
		ExprStart:    DefaultExprStart,
		ExprEnd:      DefaultExprEnd,
		CommentStart: DefaultCommentStart,
		CommentEnd:   DefaultCommentEnd,
	}
}

// Builder holds a named, partially specified delimiter set.
// Nil fields take the corresponding default delimiter.
type Builder struct {
	Name         string
	BlockStart   *string
	BlockEnd     *string
	ExprStart    *string
	ExprEnd      *string
	CommentStart *string
	CommentEnd   *string
}

// Build fills unset delimiters from [Default] and validates the result.
//
// Each delimiter is checked in the order block, expression, comment (opening
// before closing) for length and then whitespace; afterwards every pair of
// opening delimiters is checked for prefix clashes. The first violation is
// returned as an [*Error].
func (b Builder) Build() (Syntax, error) {
	def := Default()
	or := func(p *string, d string) string {
		if p != nil {
			return *p
		}

		return d
	}

	s := Syntax{
		BlockStart:   or(b.BlockStart, def.BlockStart),
		BlockEnd:     or(b.BlockEnd, def.BlockEnd),
		ExprStart:    or(b.ExprStart, def.ExprStart),
		ExprEnd:      or(b.ExprEnd, def.ExprEnd),
		CommentStart: or(b.CommentStart, def.CommentStart),
		CommentEnd:   or(b.CommentEnd, def.CommentEnd),
	}

	if err := s.Validate(); err != nil {
		return Syntax{}, err
	}

	return s, nil
}

// Validate reports the first rule violated by s, or nil.
func (s Syntax) Validate() error {
	for _, d := range s.delimiters() {
		if utf8.RuneCountInString(d.value) < MinDelimiterLen {
			return &Error{Rule: ErrTooShort, Delimiter: d.kind, Value: d.value}
		}

		if strings.IndexFunc(d.value, unicode.IsSpace) >= 0 {
			return &Error{Rule: ErrWhitespace, Delimiter: d.kind, Value: d.value}
		}
	}

	open := s.openers()
	for i := range open {
		for j := i + 1; j < len(open); j++ {
			a, b := open[i], open[j]
			if !strings.HasPrefix(a.value, b.value) && !strings.HasPrefix(b.value, a.value) {
				continue
			}

			// Name the shorter delimiter first. Equal openers keep declaration order.
			if len(a.value) > len(b.value) {
				a, b = b, a
			}

			return &Error{
				Rule:       ErrPrefix,
				Delimiter:  a.kind,
				Value:      a.value,
				Other:      b.kind,
				OtherValue: b.value,
			}
		}
	}

	return nil
}

// Openers returns the three opening delimiters in block, expression, comment
// order.
func (s Syntax) Openers() [3]string {
	return [3]string{s.BlockStart, s.ExprStart, s.CommentStart}
}

type delimiter struct {
	kind  string
	value string
}

func (s Syntax) delimiters() []delimiter {
	return []delimiter{
		{"opening block", s.BlockStart},
		{"closing block", s.BlockEnd},
		{"opening expression", s.ExprStart},
		{"closing expression", s.ExprEnd},
		{"opening comment", s.CommentStart},
		{"closing comment", s.CommentEnd},
	}
}

func (s Syntax) openers() []delimiter {
	return []delimiter{
		{"block", s.BlockStart},
		{"expression", s.ExprStart},
		{"comment", s.CommentStart},
	}
}
