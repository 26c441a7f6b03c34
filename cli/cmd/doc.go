// Package cmd implements the tmplc subcommands.
//
// Commands read their global settings from the [Session] stored in the
// context by the cli package, and write results to [Session.Out].
package cmd

var (
	// RootIdentifier is the kong variable identifier containing the default
	// project root.
	RootIdentifier = "root"

	// ConfigIdentifier is the kong variable identifier containing the name of
	// the default configuration file.
	ConfigIdentifier = "config"
)
