package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ardnew/tmplc/syntax"
)

// RawConfig is the decoded, unvalidated form of a configuration file.
//
// In TOML:
//
//	[general]
//	dirs = ["templates", "partials"]
//	default_syntax = "angle"
//	whitespace = "suppress"
//
//	[[syntax]]
//	name = "angle"
//	block_start = "<%"
//	block_end = "%>"
//
//	[[escaper]]
//	path = "example.com/filters.Js"
//	extensions = ["js"]
type RawConfig struct {
	General RawGeneral   `json:"general"           toml:"general"           yaml:"general"`
	Syntax  []RawSyntax  `json:"syntax,omitempty"  toml:"syntax,omitempty"  validate:"dive" yaml:"syntax,omitempty"`
	Escaper []RawEscaper `json:"escaper,omitempty" toml:"escaper,omitempty" validate:"dive" yaml:"escaper,omitempty"`
}

// RawGeneral holds the [general] table. Empty fields are absent.
type RawGeneral struct {
	// Dirs are template search directories relative to the resolver root.
	// Nil means the default, "templates".
	Dirs []string `json:"dirs,omitempty"           toml:"dirs,omitempty"           yaml:"dirs,omitempty"`
	// DefaultSyntax is nil when absent. A present empty name is looked up
	// like any other.
	DefaultSyntax *string `json:"default_syntax,omitempty" toml:"default_syntax,omitempty" yaml:"default_syntax,omitempty"`
	Whitespace    string  `json:"whitespace,omitempty"     toml:"whitespace,omitempty"     yaml:"whitespace,omitempty"`
}

// RawSyntax is one named delimiter set. Nil delimiters take the default.
type RawSyntax struct {
	Name         string  `json:"name"                    toml:"name"                    validate:"required" yaml:"name"`
	BlockStart   *string `json:"block_start,omitempty"   toml:"block_start,omitempty"   yaml:"block_start,omitempty"`
	BlockEnd     *string `json:"block_end,omitempty"     toml:"block_end,omitempty"     yaml:"block_end,omitempty"`
	ExprStart    *string `json:"expr_start,omitempty"    toml:"expr_start,omitempty"    yaml:"expr_start,omitempty"`
	ExprEnd      *string `json:"expr_end,omitempty"      toml:"expr_end,omitempty"      yaml:"expr_end,omitempty"`
	CommentStart *string `json:"comment_start,omitempty" toml:"comment_start,omitempty" yaml:"comment_start,omitempty"`
	CommentEnd   *string `json:"comment_end,omitempty"   toml:"comment_end,omitempty"   yaml:"comment_end,omitempty"`
}

// RawEscaper maps file extensions to an escaper reference.
type RawEscaper struct {
	Path       string   `json:"path"       toml:"path"       validate:"required"                 yaml:"path"`
	Extensions []string `json:"extensions" toml:"extensions" validate:"min=1,dive,extension"         yaml:"extensions"`
}

// DefaultRawConfig returns the configuration equivalent to empty text, with
// every general setting spelled out.
func DefaultRawConfig() RawConfig {
	defaultSyntax := DefaultSyntaxName

	return RawConfig{
		General: RawGeneral{
			Dirs:          []string{DefaultTemplateDir},
			DefaultSyntax: &defaultSyntax,
			Whitespace:    syntax.Preserve.String(),
		},
	}
}

func (s RawSyntax) builder() syntax.Builder {
	return syntax.Builder{
		Name:         s.Name,
		BlockStart:   s.BlockStart,
		BlockEnd:     s.BlockEnd,
		ExprStart:    s.ExprStart,
		ExprEnd:      s.ExprEnd,
		CommentStart: s.CommentStart,
		CommentEnd:   s.CommentEnd,
	}
}

// Format is a configuration text encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf selects the encoding of a configuration file by its extension.
// Anything other than .yaml, .yml, or .hcl is TOML.
func FormatOf(file string) Format {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatTOML
	}
}

// label is used in error messages ("invalid TOML in ...").
func (f Format) label() string { return strings.ToUpper(string(f)) }

//nolint:gochecknoglobals
var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	// Extensions are matched without their leading dot; "" matches files
	// without an extension.
	_ = v.RegisterValidation("extension", func(fl validator.FieldLevel) bool {
		ext := fl.Field().String()

		return !strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, `/\`)
	})

	return v
})

// Validate checks the structural requirements of raw that decoding cannot
// express: every syntax has a name, and every escaper has a path and at least
// one well-formed extension.
func (raw *RawConfig) Validate() error {
	err := validate().Struct(raw)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return newError(ErrValidation, err.Error()).wrap(err)
	}

	fe := verrs[0]

	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		field = fe.Namespace()
	}

	var msg string

	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("`%s` is required", field)
	case "min":
		msg = fmt.Sprintf("`%s` must not be empty", field)
	case "extension":
		msg = fmt.Sprintf("invalid extension in `%s`: %q (write extensions without a leading dot)",
			field, fe.Value())
	default:
		msg = fmt.Sprintf("invalid value for `%s`: failed %q", field, fe.Tag())
	}

	return newError(ErrValidation, msg).wrap(err)
}
