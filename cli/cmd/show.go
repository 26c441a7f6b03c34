package cmd

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/pkg"
	"github.com/ardnew/tmplc/syntax"
)

// Show prints the resolved configuration.
type Show struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Output format." short:"o"`
}

type configView struct {
	Root          string                   `json:"root" yaml:"root"`
	File          string                   `json:"file" yaml:"file"`
	Dirs          []string                 `json:"dirs" yaml:"dirs"`
	DefaultSyntax string                   `json:"default_syntax" yaml:"default_syntax"`
	Whitespace    string                   `json:"whitespace" yaml:"whitespace"`
	Syntaxes      map[string]syntax.Syntax `json:"syntaxes" yaml:"syntaxes"`
	Escapers      []config.Escaper         `json:"escapers" yaml:"escapers"`
}

func makeConfigView(root, file string, cfg *config.Config) configView {
	v := configView{
		Root:          root,
		File:          file,
		Dirs:          cfg.Dirs(),
		DefaultSyntax: cfg.DefaultSyntaxName(),
		Whitespace:    cfg.Whitespace().String(),
		Syntaxes:      make(map[string]syntax.Syntax),
		Escapers:      cfg.Escapers(),
	}

	for _, name := range cfg.SyntaxNames() {
		sc, _ := cfg.Syntax(name)
		v.Syntaxes[name] = sc.Syntax()
	}

	return v
}

// Run executes the show command.
func (s *Show) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sess := sessionFrom(ctx)

	cfg, err := sess.config(ctx)
	if err != nil {
		return err
	}

	view := makeConfigView(sess.Resolver.Root(), sess.configFile(), cfg)

	var out []byte

	switch s.Format {
	case "json":
		out, err = json.MarshalIndent(view, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		out = append(out, '\n')

	case "yaml":
		out, err = yaml.MarshalContext(ctx, view)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

	default:
		return pkg.ErrInvalidFormat.Wrapf("%q", s.Format)
	}

	if _, err = sess.Out.Write(out); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}

// logAttrs describes a resolved configuration for debug logs.
func logAttrs(cfg *config.Config) []slog.Attr {
	return []slog.Attr{
		slog.Any("dirs", cfg.Dirs()),
		slog.String("default_syntax", cfg.DefaultSyntaxName()),
		slog.String("whitespace", cfg.Whitespace().String()),
	}
}
