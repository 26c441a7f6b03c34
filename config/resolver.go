package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/afero"

	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/oncemap"
	"github.com/ardnew/tmplc/parser"
	"github.com/ardnew/tmplc/pkg"
	"github.com/ardnew/tmplc/syntax"
)

// FileName is the configuration file read from the root when no path is
// given.
const FileName = pkg.Name + ".toml"

// Resolver turns configuration text into canonical [Config] values and keeps
// every one it has produced for its own lifetime. Resolving byte-identical
// inputs returns the same *Config.
//
// A Resolver is safe for concurrent use and is never emptied.
type Resolver struct {
	root    string
	fs      afero.Fs
	parse   parser.Func
	logger  log.Logger
	configs oncemap.Map[Key, *Config]
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithRoot sets the project root that configuration paths and template
// directories are relative to.
func WithRoot(dir string) Option {
	return func(r *Resolver) { r.root = dir }
}

// WithFs sets the filesystem used to read configuration and template files.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithLogger sets the logger for resolution and cache activity.
func WithLogger(l log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithParser replaces the template parser used by every [SyntaxCache].
func WithParser(fn parser.Func) Option {
	return func(r *Resolver) { r.parse = fn }
}

// NewResolver returns a Resolver rooted at [pkg.Root] on the OS filesystem
// unless overridden by opts.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.root == "" {
		r.root = pkg.Root()
	}

	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}

	if r.parse == nil {
		r.parse = parser.Parse
	}

	if r.logger.Logger == nil {
		r.logger = log.Default()
	}

	r.logger = r.logger.With(slog.String("root", r.root))

	return r
}

// Default returns the process-wide Resolver, created on first use.
//
//nolint:gochecknoglobals
var Default = sync.OnceValue(func() *Resolver { return NewResolver() })

// Root returns the project root.
func (r *Resolver) Root() string { return r.root }

// Fs returns the filesystem the resolver reads from.
func (r *Resolver) Fs() afero.Fs { return r.fs }

// Stats returns the configuration cache counters.
func (r *Resolver) Stats() oncemap.Stats { return r.configs.Stats() }

// Resolve returns the Config for the configuration text source, optionally
// read from a file and optionally overriding the whitespace policy.
//
// The Config is built at most once per distinct input; failures are not
// remembered.
func (r *Resolver) Resolve(ctx context.Context, source string, opts ...KeyOption) (*Config, error) {
	key := MakeKey(source, opts...)

	return r.configs.GetOrTryInsert(key, func(k Key) (Key, *Config, error) {
		owned := k.clone()

		cfg, err := r.build(ctx, owned)
		if err != nil {
			r.logger.DebugContext(ctx, "configuration rejected", slog.Any("error", err))

			return k, nil, err
		}

		r.logger.DebugContext(ctx, "configuration resolved",
			slog.Any("dirs", cfg.dirs),
			slog.Any("syntaxes", cfg.SyntaxNames()),
			slog.String("whitespace", cfg.whitespace.String()))

		return owned, cfg, nil
	})
}

// ResolveFile reads the configuration file at configPath (or [FileName] when
// configPath is empty) and resolves it.
func (r *Resolver) ResolveFile(ctx context.Context, configPath string, opts ...KeyOption) (*Config, error) {
	source, err := r.ReadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		opts = append([]KeyOption{WithConfigPath(configPath)}, opts...)
	}

	return r.Resolve(ctx, source, opts...)
}

// ReadConfigFile returns the text of the configuration file configPath,
// relative to the root.
//
// An empty configPath selects [FileName], and a missing [FileName] yields
// empty text. A named file that does not exist is an error.
func (r *Resolver) ReadConfigFile(configPath string) (string, error) {
	file := r.Abs(FileName)
	if configPath != "" {
		file = r.Abs(configPath)
	}

	ok, err := afero.Exists(r.fs, file)
	if err != nil {
		return "", newError(ErrIO, fmt.Sprintf("unable to read %s: %v", file, err)).wrap(err).in(file)
	}

	if !ok {
		if configPath != "" {
			return "", newError(ErrIO, fmt.Sprintf("`%s` does not exist", file)).in(file)
		}

		return "", nil
	}

	b, err := afero.ReadFile(r.fs, file)
	if err != nil {
		return "", newError(ErrIO, fmt.Sprintf("unable to read %s: %v", file, err)).wrap(err).in(file)
	}

	return string(b), nil
}

// Abs resolves path against the root. Absolute paths are kept.
func (r *Resolver) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(r.root, path)
}

// build constructs the Config for key.
func (r *Resolver) build(ctx context.Context, key Key) (*Config, error) {
	file := FileName
	if p, ok := key.ConfigPath(); ok {
		file = p
	}

	var raw RawConfig

	if key.source != "" {
		var err error

		if raw, err = decodeRaw(file, key.source); err != nil {
			return nil, err
		}

		if err = raw.Validate(); err != nil {
			return nil, asError(err, ErrValidation).in(file)
		}
	}

	cfg := &Config{
		key:    key,
		fs:     r.fs,
		logger: r.logger,
	}

	if raw.General.Dirs == nil {
		cfg.dirs = []string{r.Abs(DefaultTemplateDir)}
	} else {
		cfg.dirs = make([]string, 0, len(raw.General.Dirs))
		for _, dir := range raw.General.Dirs {
			cfg.dirs = append(cfg.dirs, r.Abs(dir))
		}
	}

	cfg.defaultSyntax = DefaultSyntaxName
	if name := raw.General.DefaultSyntax; name != nil {
		cfg.defaultSyntax = *name
	}

	ws, werr := whitespace(raw.General.Whitespace, key)
	if werr != nil {
		return nil, werr.in(file)
	}

	cfg.whitespace = ws

	cfg.syntaxes = map[string]*SyntaxCache{
		DefaultSyntaxName: newSyntaxCache(DefaultSyntaxName, syntax.Default(), r.parse, r.logger),
	}

	for _, rs := range raw.Syntax {
		if _, dup := cfg.syntaxes[rs.Name]; dup {
			return nil, newError(ErrValidation,
				fmt.Sprintf("syntax %q is already defined", rs.Name)).in(file)
		}

		s, err := rs.builder().Build()
		if err != nil {
			return nil, newError(ErrValidation, err.Error()).wrap(err).in(file).
				with(slog.String("syntax", rs.Name))
		}

		cfg.syntaxes[rs.Name] = newSyntaxCache(rs.Name, s, r.parse, r.logger)
	}

	if _, ok := cfg.syntaxes[cfg.defaultSyntax]; !ok {
		return nil, unknownSyntax("default syntax", cfg.defaultSyntax, cfg.SyntaxNames()).in(file)
	}

	for _, e := range raw.Escaper {
		cfg.escapers = append(cfg.escapers, Escaper{
			Extensions: slices.Clone(e.Extensions),
			Path:       e.Path,
		})
	}

	cfg.escapers = append(cfg.escapers, builtinEscapers()...)

	r.logger.TraceContext(ctx, "configuration built", slog.String("file", file))

	return cfg, nil
}

// whitespace returns the effective policy: the per-call override when
// present, else the configured value, else [syntax.Preserve]. A configured
// value is validated even when an override replaces it.
func whitespace(configured string, key Key) (syntax.Whitespace, *Error) {
	ws := syntax.Preserve

	if configured != "" {
		var err *Error
		if ws, err = parseWhitespace(configured); err != nil {
			return syntax.Preserve, err
		}
	}

	if value, override := key.Whitespace(); override {
		return parseWhitespace(value)
	}

	return ws, nil
}

func parseWhitespace(value string) (syntax.Whitespace, *Error) {
	ws, ok := syntax.ParseWhitespace(value)
	if !ok {
		e := newError(ErrValidation, fmt.Sprintf("invalid value for `whitespace`: %q", value))
		if s, found := suggest(value, slices.Collect(syntax.Whitespaces())); found {
			e = e.with(slog.String("suggestion", s))
		}

		return syntax.Preserve, e
	}

	return ws, nil
}

func unknownSyntax(label, name string, known []string) *Error {
	e := newError(ErrValidation, fmt.Sprintf("%s %q not found", label, name)).
		with(slog.Any("available", known))

	if s, ok := suggest(name, known); ok {
		e = e.with(slog.String("suggestion", s))
	}

	return e
}

// suggest returns the best fuzzy match for input among candidates.
func suggest(input string, candidates []string) (string, bool) {
	if input == "" {
		return "", false
	}

	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return "", false
	}

	return matches[0].Str, true
}
