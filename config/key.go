package config

import "strings"

// Key identifies one resolved [Config]: the configuration text, the optional
// path it was read from, and the optional per-call whitespace override.
//
// Keys compare by value. An absent path or override differs from an empty
// one.
type Key struct {
	source        string
	configPath    string
	whitespace    string
	hasConfigPath bool
	hasWhitespace bool
}

// KeyOption sets an optional component of a [Key].
type KeyOption func(Key) Key

// WithConfigPath records the configuration file path, relative to the
// resolver root, that the text was read from.
func WithConfigPath(path string) KeyOption {
	return func(k Key) Key {
		k.configPath, k.hasConfigPath = path, true

		return k
	}
}

// WithWhitespace sets a whitespace policy that overrides the one in the
// configuration text.
func WithWhitespace(ws string) KeyOption {
	return func(k Key) Key {
		k.whitespace, k.hasWhitespace = ws, true

		return k
	}
}

// MakeKey returns the key for source and opts.
func MakeKey(source string, opts ...KeyOption) Key {
	k := Key{source: source}

	for _, opt := range opts {
		if opt != nil {
			k = opt(k)
		}
	}

	return k
}

// Source returns the configuration text.
func (k Key) Source() string { return k.source }

// ConfigPath returns the configuration file path, if one was given.
func (k Key) ConfigPath() (string, bool) { return k.configPath, k.hasConfigPath }

// Whitespace returns the whitespace override, if one was given.
func (k Key) Whitespace() (string, bool) { return k.whitespace, k.hasWhitespace }

// clone returns an equal key that shares no memory with the caller's strings.
func (k Key) clone() Key {
	k.source = strings.Clone(k.source)
	k.configPath = strings.Clone(k.configPath)
	k.whitespace = strings.Clone(k.whitespace)

	return k
}
