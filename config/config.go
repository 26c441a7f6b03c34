package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/parser"
	"github.com/ardnew/tmplc/syntax"
)

// DefaultSyntaxName names the syntax that is always present.
const DefaultSyntaxName = "default"

// DefaultTemplateDir is the search directory used when none is configured.
const DefaultTemplateDir = "templates"

// Built-in escaper references.
const (
	EscaperHTML = "github.com/ardnew/tmplc/filters.Html"
	EscaperText = "github.com/ardnew/tmplc/filters.Text"
)

// Escaper maps a set of file extensions to an escaper reference.
type Escaper struct {
	Extensions []string `json:"extensions" yaml:"extensions"`
	Path       string   `json:"path"       yaml:"path"`
}

func builtinEscapers() []Escaper {
	return []Escaper{
		{
			Extensions: []string{"html", "htm", "j2", "jinja", "jinja2", "tmplc", "svg", "xml"},
			Path:       EscaperHTML,
		},
		{
			Extensions: []string{"md", "none", "txt", "yml", ""},
			Path:       EscaperText,
		},
	}
}

// Config is a resolved, validated configuration. It is immutable and lives as
// long as the [Resolver] that produced it; all methods are safe for
// concurrent use.
type Config struct {
	key           Key
	dirs          []string
	syntaxes      map[string]*SyntaxCache
	defaultSyntax string
	escapers      []Escaper
	whitespace    syntax.Whitespace
	fs            afero.Fs
	logger        log.Logger
}

// Key returns the identity this Config was resolved from.
func (c *Config) Key() Key { return c.key }

// Dirs returns the template search directories in lookup order.
func (c *Config) Dirs() []string { return slices.Clone(c.dirs) }

// Syntax returns the named syntax.
func (c *Config) Syntax(name string) (*SyntaxCache, bool) {
	s, ok := c.syntaxes[name]

	return s, ok
}

// SyntaxNames returns the names of all syntaxes, sorted.
func (c *Config) SyntaxNames() []string {
	return slices.Sorted(maps.Keys(c.syntaxes))
}

// DefaultSyntaxName returns the name of the syntax used when a template does
// not select one.
func (c *Config) DefaultSyntaxName() string { return c.defaultSyntax }

// DefaultSyntax returns the syntax used when a template does not select one.
func (c *Config) DefaultSyntax() *SyntaxCache { return c.syntaxes[c.defaultSyntax] }

// Lookup returns the named syntax, or the default syntax when name is empty.
func (c *Config) Lookup(name string) (*SyntaxCache, error) {
	if name == "" {
		return c.DefaultSyntax(), nil
	}

	sc, ok := c.syntaxes[name]
	if !ok {
		return nil, unknownSyntax("syntax", name, c.SyntaxNames())
	}

	return sc, nil
}

// Escapers returns the escaper table: configured entries first, then the
// built-in HTML and text entries.
func (c *Config) Escapers() []Escaper {
	out := make([]Escaper, len(c.escapers))
	for i, e := range c.escapers {
		out[i] = Escaper{Extensions: slices.Clone(e.Extensions), Path: e.Path}
	}

	return out
}

// EscaperFor returns the first escaper whose extensions include ext.
// ext is given without its leading dot.
func (c *Config) EscaperFor(ext string) (string, bool) {
	for _, e := range c.escapers {
		if slices.Contains(e.Extensions, ext) {
			return e.Path, true
		}
	}

	return "", false
}

// Whitespace returns the effective whitespace policy.
func (c *Config) Whitespace() syntax.Whitespace { return c.whitespace }

// FindTemplate locates the template file named path.
//
// When anchor (the path of the file requesting the template) is non-empty,
// the directory containing anchor is searched first. The configured
// directories follow in order. The first existing file wins.
func (c *Config) FindTemplate(path, anchor string) (string, error) {
	var tried []string

	if anchor != "" {
		tried = append(tried, filepath.Join(filepath.Dir(anchor), path))
	}

	for _, dir := range c.dirs {
		tried = append(tried, filepath.Join(dir, path))
	}

	for _, candidate := range tried {
		ok, err := afero.Exists(c.fs, candidate)
		if err != nil {
			return "", newError(ErrIO,
				fmt.Sprintf("unable to access %s: %v", candidate, err)).wrap(err)
		}

		if ok {
			c.logger.Trace("found template",
				slog.String("path", path),
				slog.String("file", candidate))

			return candidate, nil
		}
	}

	return "", newError(ErrNotFound,
		fmt.Sprintf("template %q not found in directories %q", path, tried)).
		with(slog.String("path", path), slog.Any("tried", tried))
}

// ReadTemplate returns the contents of the template file at path.
func (c *Config) ReadTemplate(path string) (string, error) {
	b, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", newError(ErrIO, fmt.Sprintf("unable to read %s: %v", path, err)).wrap(err)
	}

	return string(b), nil
}

// Load locates, reads, and parses the template named path using the named
// syntax, or the default syntax when syntaxName is empty.
func (c *Config) Load(ctx context.Context, path, anchor, syntaxName string) (*parser.AST, error) {
	sc, err := c.Lookup(syntaxName)
	if err != nil {
		return nil, err
	}

	file, err := c.FindTemplate(path, anchor)
	if err != nil {
		return nil, err
	}

	source, err := c.ReadTemplate(file)
	if err != nil {
		return nil, err
	}

	return sc.Parse(ctx, source, FromPath(file))
}
