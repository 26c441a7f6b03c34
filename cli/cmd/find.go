package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/pkg"
)

// Find prints the file a template name resolves to.
type Find struct {
	Path string `arg:"" help:"Template name, as written in an include."      name:"path"`
	From string `       help:"Path of the requesting template, searched first." short:"f" type:"path"`
}

// Run executes the find command.
func (f *Find) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sess := sessionFrom(ctx)

	cfg, err := sess.config(ctx)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "find template",
		append(logAttrs(cfg), slog.String("path", f.Path), slog.String("from", f.From))...)

	file, err := cfg.FindTemplate(f.Path, f.From)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintln(sess.Out, file); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}
