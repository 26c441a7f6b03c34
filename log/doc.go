// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are created with [Make] and configured using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithCaller(true))
//
// Every method accepts typed [slog.Attr] values rather than loose key/value
// pairs. Attributes bound with [Logger.With] are included in each record.
//
// Levels extend slog with [LevelTrace], used for per-lookup cache activity.
//
// When pretty output is enabled (the default), records are styled with
// lipgloss; styling is dropped automatically when the output is not a
// terminal.
//
// The package also maintains a default logger, reconfigured with [Config] and
// used by the package-level functions [Trace], [Debug], [Info], [Warn], and
// [Error].
package log
