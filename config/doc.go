// Package config resolves template-engine configuration into immutable,
// shared [Config] values.
//
// A [Resolver] decodes configuration text (TOML by default, YAML or HCL by
// file extension), validates it, and memoizes the result by its exact input.
// Every [Config] owns one [SyntaxCache] per named delimiter set, and each
// SyntaxCache memoizes parsed templates by source. Nothing is ever evicted:
// values live as long as the Resolver that produced them, so callers may
// compare them by pointer.
//
// Build with the noconfig tag to omit the structured-text decoders. Empty
// configuration text still resolves to the defaults.
package config
