package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/pkg"
)

// configFileMode is the permission mode of a generated configuration file.
const configFileMode = 0o644

// Init writes a configuration file containing the default settings.
//
// The encoding follows the file extension of --config, as when reading.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sess := sessionFrom(ctx)
	fs := sess.Resolver.Fs()
	file := sess.Resolver.Abs(sess.configFile())
	format := config.FormatOf(file)

	exists, err := afero.Exists(fs, file)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", file)).Wrap(err)
	}

	if exists && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", file)).
			With(slog.Bool("exists", true)).
			Wrap(pkg.ErrExists.Wrapf("use --force to overwrite %s", file))
	}

	data, err := config.DefaultRawConfig().Encode(format)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", file), slog.String("format", string(format))).
			Wrap(err)
	}

	if err = afero.WriteFile(fs, file, data, configFileMode); err != nil {
		return ErrWriteConfig.With(slog.String("file", file)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", file),
		slog.String("format", string(format)))

	return nil
}
