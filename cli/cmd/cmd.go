package cmd

import (
	"context"
	"io"
	"os"

	"github.com/ardnew/tmplc/config"
)

type sessionKey struct{}

// Session carries the global flag values every command resolves its
// configuration with.
type Session struct {
	Resolver *config.Resolver
	// ConfigPath is the configuration file relative to the resolver root.
	// Empty selects [config.FileName].
	ConfigPath string
	// Whitespace overrides the configured whitespace policy when non-empty.
	Whitespace string

	In  io.Reader
	Out io.Writer
}

// WithSession returns a new context.Context containing s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom returns the Session stored in ctx, or one using the default
// resolver and the process's standard streams.
func sessionFrom(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		s = &Session{}
	}

	if s.Resolver == nil {
		s.Resolver = config.Default()
	}

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	return s
}

// config resolves the session's configuration.
func (s *Session) config(ctx context.Context) (*config.Config, error) {
	var opts []config.KeyOption
	if s.Whitespace != "" {
		opts = append(opts, config.WithWhitespace(s.Whitespace))
	}

	return s.Resolver.ResolveFile(ctx, s.ConfigPath, opts...)
}

// configFile returns the path of the session's configuration file.
func (s *Session) configFile() string {
	name := s.ConfigPath
	if name == "" {
		name = config.FileName
	}

	return name
}
