package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/pkg"
)

// Version prints the program version.
type Version struct{}

// Run executes the version command.
func (Version) Run(ctx context.Context) error {
	sess := sessionFrom(ctx)

	features := "structured-config"
	if !config.StructuredConfig {
		features = "noconfig"
	}

	if _, err := fmt.Fprintf(sess.Out, "%s %s (%s)\n", pkg.Name, pkg.Version, features); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}
