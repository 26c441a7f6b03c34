package config

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/oncemap"
	"github.com/ardnew/tmplc/parser"
	"github.com/ardnew/tmplc/syntax"
)

// SyntaxCache pairs a named, validated delimiter set with the memo of every
// template parsed under it.
type SyntaxCache struct {
	name   string
	syntax syntax.Syntax
	parse  parser.Func
	logger log.Logger
	asts   oncemap.Map[sourceKey, *parser.AST]
}

type sourceKey struct {
	source  string
	path    string
	hasPath bool
}

// SourceOption sets an optional component of a parse request.
type SourceOption func(sourceKey) sourceKey

// FromPath records the file a template source was read from.
func FromPath(path string) SourceOption {
	return func(k sourceKey) sourceKey {
		k.path, k.hasPath = path, true

		return k
	}
}

func newSyntaxCache(name string, s syntax.Syntax, parse parser.Func, logger log.Logger) *SyntaxCache {
	return &SyntaxCache{
		name:   name,
		syntax: s,
		parse:  parse,
		logger: logger.With(slog.String("syntax", name)),
	}
}

// Name returns the syntax name.
func (c *SyntaxCache) Name() string { return c.name }

// Syntax returns the delimiter set.
func (c *SyntaxCache) Syntax() syntax.Syntax { return c.syntax }

// Parse returns the AST of source under this syntax, invoking the parser only
// if the same source (and path) has not been parsed successfully before.
// Every caller requesting the same input receives the same *parser.AST.
//
// Parse errors are returned exactly as produced by the parser and are not
// remembered; a later call parses again.
func (c *SyntaxCache) Parse(
	ctx context.Context,
	source string,
	opts ...SourceOption,
) (*parser.AST, error) {
	key := sourceKey{source: source}

	for _, opt := range opts {
		if opt != nil {
			key = opt(key)
		}
	}

	c.logger.TraceContext(ctx, "parse cache lookup",
		slog.String("path", key.path),
		slog.Int("len", len(key.source)))

	return c.asts.GetOrTryInsert(key, func(k sourceKey) (sourceKey, *parser.AST, error) {
		owned := sourceKey{
			source:  strings.Clone(k.source),
			path:    strings.Clone(k.path),
			hasPath: k.hasPath,
		}

		// Only misses are hashed.
		hash := slog.String("hash", strconv.FormatUint(xxh3.HashString(owned.source), 16))

		ast, err := c.parse(owned.source, owned.path, c.syntax)
		if err != nil {
			c.logger.DebugContext(ctx, "parse failed", hash, slog.Any("error", err))

			return k, nil, err
		}

		c.logger.DebugContext(ctx, "parsed template", hash,
			slog.String("path", owned.path),
			slog.Int("nodes", len(ast.Nodes)))

		return owned, ast, nil
	})
}

// Len returns the number of cached ASTs.
func (c *SyntaxCache) Len() int { return c.asts.Len() }

// Stats returns the parse cache counters.
func (c *SyntaxCache) Stats() oncemap.Stats { return c.asts.Stats() }
