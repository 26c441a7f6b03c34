//go:build !noconfig

package config

import (
	"errors"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/pelletier/go-toml/v2"
)

// StructuredConfig reports whether configuration text decoding is compiled in.
const StructuredConfig = true

// decodeRaw decodes non-empty configuration text read from file, choosing the
// encoding by the file's extension.
func decodeRaw(file, text string) (RawConfig, error) {
	format := FormatOf(file)

	var (
		raw RawConfig
		err *Error
	)

	switch format {
	case FormatYAML:
		raw, err = decodeYAML(text)
	case FormatHCL:
		raw, err = decodeHCL(file, text)
	default:
		raw, err = decodeTOML(text)
	}

	if err != nil {
		return RawConfig{}, newError(ErrConfigParse,
			"invalid "+format.label()+" in "+file+": "+err.msg).
			wrap(err.err).at(spanOf(err)).in(file)
	}

	return raw, nil
}

func spanOf(e *Error) (int, int) {
	if s, ok := e.Span(); ok {
		return s.Line, s.Column
	}

	return 0, 0
}

func decodeTOML(text string) (RawConfig, *Error) {
	var raw RawConfig

	err := toml.Unmarshal([]byte(text), &raw)
	if err == nil {
		return raw, nil
	}

	e := newError(ErrConfigParse, err.Error()).wrap(err)

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		e = e.at(derr.Position())
	}

	return RawConfig{}, e
}

func decodeYAML(text string) (RawConfig, *Error) {
	var raw RawConfig

	err := yaml.Unmarshal([]byte(text), &raw)
	if err == nil {
		return raw, nil
	}

	msg := strings.TrimSpace(yaml.FormatError(err, false, false))

	return RawConfig{}, newError(ErrConfigParse, msg).wrap(err)
}

type hclConfig struct {
	General *hclGeneral  `hcl:"general,block"`
	Syntax  []hclSyntax  `hcl:"syntax,block"`
	Escaper []hclEscaper `hcl:"escaper,block"`
}

type hclGeneral struct {
	Dirs          []string `hcl:"dirs,optional"`
	DefaultSyntax *string  `hcl:"default_syntax,optional"`
	Whitespace    string   `hcl:"whitespace,optional"`
}

type hclSyntax struct {
	Name         string  `hcl:"name,label"`
	BlockStart   *string `hcl:"block_start,optional"`
	BlockEnd     *string `hcl:"block_end,optional"`
	ExprStart    *string `hcl:"expr_start,optional"`
	ExprEnd      *string `hcl:"expr_end,optional"`
	CommentStart *string `hcl:"comment_start,optional"`
	CommentEnd   *string `hcl:"comment_end,optional"`
}

type hclEscaper struct {
	Path       string   `hcl:"path"`
	Extensions []string `hcl:"extensions"`
}

// decodeHCL decodes the block form:
//
//	general { dirs = ["templates"] }
//	syntax "angle" { block_start = "<%" }
//	escaper { path = "example.com/filters.Js", extensions = ["js"] }
func decodeHCL(file, text string) (RawConfig, *Error) {
	var doc hclConfig

	err := hclsimple.Decode(file, []byte(text), nil, &doc)
	if err != nil {
		e := newError(ErrConfigParse, err.Error()).wrap(err)

		var diags hcl.Diagnostics
		if errors.As(err, &diags) && len(diags) > 0 && diags[0].Subject != nil {
			e = e.at(diags[0].Subject.Start.Line, diags[0].Subject.Start.Column)
		}

		return RawConfig{}, e
	}

	var raw RawConfig

	if g := doc.General; g != nil {
		raw.General = RawGeneral{
			Dirs:          g.Dirs,
			DefaultSyntax: g.DefaultSyntax,
			Whitespace:    g.Whitespace,
		}
	}

	for _, s := range doc.Syntax {
		raw.Syntax = append(raw.Syntax, RawSyntax(s))
	}

	for _, e := range doc.Escaper {
		raw.Escaper = append(raw.Escaper, RawEscaper(e))
	}

	return raw, nil
}

// Encode renders raw as configuration text in format.
func (raw RawConfig) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(raw)
	case FormatHCL:
		return encodeHCL(raw), nil
	default:
		return toml.Marshal(raw)
	}
}

func encodeHCL(raw RawConfig) []byte {
	doc := hclConfig{
		General: &hclGeneral{
			Dirs:          raw.General.Dirs,
			DefaultSyntax: raw.General.DefaultSyntax,
			Whitespace:    raw.General.Whitespace,
		},
	}

	for _, s := range raw.Syntax {
		doc.Syntax = append(doc.Syntax, hclSyntax(s))
	}

	for _, e := range raw.Escaper {
		doc.Escaper = append(doc.Escaper, hclEscaper(e))
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(&doc, f.Body())

	return f.Bytes()
}
