package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// RootEnv names the environment variable that overrides the project root.
const RootEnv = "TMPLC_ROOT"

// Prefix returns the base name of the running executable, used to construct
// the cache directory path.
//
// Two substitutions are applied:
//   - "__debug_bin" (default output of the dlv debugger): replaced with Name
//   - "^\.+" (dot-prefixed names): remove the dot prefix
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		exe, err := os.Executable()
		if err == nil {
			id = exe
		}

		ext := filepath.Ext(filepath.Base(id))
		id = strings.TrimSuffix(filepath.Base(id), ext)

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d+$`): Name,
			regexp.MustCompile(`^\.+`):             "",
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			id = Name
		}

		return id
	},
)

// Root returns the project root against which configuration files and
// template directories are resolved.
//
// It is the value of [RootEnv] when set, otherwise the working directory,
// otherwise ".".
func Root() string {
	if dir := strings.TrimSpace(os.Getenv(RootEnv)); dir != "" {
		return dir
	}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	return dir
}

// CacheDir returns the cache directory path used for transient files.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir, err = os.UserHomeDir()
			if err == nil {
				dir = filepath.Join(dir, ".cache")
			} else {
				dir = os.TempDir()
			}
		}

		return filepath.Join(dir, Prefix())
	},
)
