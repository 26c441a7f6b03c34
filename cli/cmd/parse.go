package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/parser"
	"github.com/ardnew/tmplc/pkg"
)

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// Parse parses a template and prints a summary of its structure.
type Parse struct {
	Path   string `arg:"" default:"-" help:"Template name, or '-' to read source from stdin." name:"path"`
	Syntax string `                   help:"Syntax to parse with (default: the configured default)." short:"s"`
	Deps   bool   `                   help:"Locate and parse included, extended, and imported templates." short:"d"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sess := sessionFrom(ctx)

	cfg, err := sess.config(ctx)
	if err != nil {
		return err
	}

	sc, err := cfg.Lookup(p.Syntax)
	if err != nil {
		return err
	}

	var ast *parser.AST

	if p.Path == stdinSource {
		source, err := readAll(sess.In)
		if err != nil {
			return err
		}

		ast, err = sc.Parse(ctx, source)
		if err != nil {
			return err
		}
	} else {
		ast, err = cfg.Load(ctx, p.Path, "", sc.Name())
		if err != nil {
			return err
		}
	}

	t := tree{
		cfg:    cfg,
		syntax: sc.Name(),
		deps:   p.Deps,
		out:    sess.Out,
		seen:   make(map[string]bool),
	}

	return t.print(ctx, ast, 0)
}

func readAll(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return "", pkg.ErrReadInput.Wrap(err)
	}

	return string(b), nil
}

// tree prints an AST and, optionally, the ASTs it depends on.
type tree struct {
	cfg    *config.Config
	syntax string
	deps   bool
	out    io.Writer
	seen   map[string]bool
}

func (t *tree) print(ctx context.Context, ast *parser.AST, depth int) error {
	indent := strings.Repeat("  ", depth)

	name := ast.Path
	if name == "" {
		name = stdinSource
	}

	t.seen[ast.Path] = true

	if err := t.printf("%s%s (%d nodes)\n", indent, name, len(ast.Nodes)); err != nil {
		return err
	}

	for _, dep := range ast.Deps {
		if !t.deps {
			if err := t.printf("%s  %s %q\n", indent, dep.Kind, dep.Target); err != nil {
				return err
			}

			continue
		}

		child, err := t.cfg.Load(ctx, dep.Target, ast.Path, t.syntax)
		if err != nil {
			return ErrLoadTemplate.
				With(slog.String("from", name), slog.Int("line", dep.Line)).
				Wrap(err)
		}

		log.DebugContext(ctx, "resolved dependency",
			slog.String("kind", dep.Kind),
			slog.String("target", dep.Target),
			slog.String("file", child.Path))

		if err := t.printf("%s  %s %q -> %s\n", indent, dep.Kind, dep.Target, child.Path); err != nil {
			return err
		}

		if t.seen[child.Path] {
			continue
		}

		if err := t.print(ctx, child, depth+2); err != nil {
			return err
		}
	}

	return nil
}

func (t *tree) printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(t.out, format, args...); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}
