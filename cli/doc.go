// Package cli contains the command line interface for tmplc.
//
// # Usage
//
//	tmplc [flags] <command>
//
// Commands:
//
//   - show: print the resolved configuration as YAML or JSON (default command)
//   - find: print the file a template name resolves to
//   - parse: parse a template (or stdin) and summarize its nodes and
//     dependencies; --deps locates and parses them recursively
//   - init: write a configuration file with the default settings
//   - version: print version information
//
// # Global Options
//
//   - --root, -C: project root (default $TMPLC_ROOT or the working directory)
//   - --config, -c: configuration file relative to the root (default
//     tmplc.toml); .yaml, .yml, and .hcl files are decoded accordingly
//   - --whitespace, -w: override the configured whitespace policy
//
// Flag defaults may be set in the [cli] table of tmplc.toml in the working
// root:
//
//	[cli]
//	log_level = "debug"
//	whitespace = "suppress"
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tmplc .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/tmplc/pprof)
package cli
