package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml/v2"
)

// cliTable is the table of the configuration file holding flag defaults.
const cliTable = "cli"

// resolve is a [kong.ConfigurationLoader] that reads flag defaults from the
// [cli] table of a TOML configuration file:
//
//	[cli]
//	log_level = "debug"
//	log_pretty = false
//	whitespace = "suppress"
//
// Flag names with hyphens may be written with underscores. Command-line flags
// override file values. The template settings in the same file are read by
// the config package, which ignores this table.
func resolve(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		// A malformed file is reported by the command that resolves it.
		return flagDefaults{}, nil
	}

	table, ok := doc[cliTable].(map[string]any)
	if !ok {
		return flagDefaults{}, nil
	}

	return flagDefaults(flatten(table)), nil
}

// flagDefaults implements [kong.Resolver].
type flagDefaults map[string]any

// Validate implements [kong.Resolver].
func (flagDefaults) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r flagDefaults) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil //nolint:nilnil
}

// flatten converts decoded TOML values to the forms kong parses. Nested tables
// are dropped.
func flatten(table map[string]any) map[string]any {
	result := make(map[string]any, len(table))

	for key, value := range table {
		switch v := value.(type) {
		case int64:
			// Kong requires numbers as strings for parsing
			result[key] = strconv.FormatInt(v, 10)
		case float64:
			result[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case []any:
			parts := make([]string, 0, len(v))
			for _, elem := range v {
				if s, ok := elem.(string); ok {
					parts = append(parts, s)
				}
			}

			result[key] = strings.Join(parts, ",")
		case map[string]any:
			continue
		default:
			result[key] = v
		}
	}

	return result
}
