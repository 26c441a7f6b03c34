package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tmplc/cli/cmd"
	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/pkg"
	"github.com/ardnew/tmplc/syntax"
)

// CLI is the top-level command-line interface for tmplc.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Root       string `default:"${root}"                help:"Project root for configuration and template paths." short:"C" type:"path"`
	Config     string `                                 help:"Configuration file relative to the root (default ${config})." short:"c"`
	Whitespace string `default:"" enum:",${whitespace}" help:"Override the configured whitespace policy."          short:"w"`

	Show    cmd.Show    `cmd:"" default:"1" help:"Print the resolved configuration"`
	Find    cmd.Find    `cmd:""            help:"Locate a template file"`
	Parse   cmd.Parse   `cmd:""            help:"Parse a template and summarize its structure"`
	Init    cmd.Init    `cmd:""            help:"Write a default configuration file"`
	Version cmd.Version `cmd:""            help:"Print version information"`
}

// Run executes the tmplc CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, exit, os.Stdin, os.Stdout, args)
}

func run(
	ctx context.Context,
	exit func(code int),
	in io.Reader,
	out io.Writer,
	args []string,
) error {
	var cli CLI

	vars := kong.Vars{
		cmd.RootIdentifier:   pkg.Root(),
		cmd.ConfigIdentifier: config.FileName,
		"whitespace":         strings.Join(slices.Collect(syntax.Whitespaces()), ","),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(out, os.Stderr),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, filepath.Join(pkg.Root(), config.FileName)),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithSession(ctx, &cmd.Session{
		Resolver: config.NewResolver(
			config.WithRoot(cli.Root),
			config.WithLogger(log.Default()),
		),
		ConfigPath: cli.Config,
		Whitespace: cli.Whitespace,
		In:         in,
		Out:        out,
	})

	return ktx.Run(ctx, &cli)
}
