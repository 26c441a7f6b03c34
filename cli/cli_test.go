//go:build !noconfig

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/pkg"
)

func runArgs(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	exit := func(code int) { t.Fatalf("unexpected exit(%d)", code) }

	err := run(context.Background(), exit, strings.NewReader(stdin), &out,
		append([]string{"--log-level", "error"}, args...))

	return out.String(), err
}

func TestRunVersion(t *testing.T) {
	out, err := runArgs(t, "", "version")
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}

	if !strings.HasPrefix(out, pkg.Name+" "+pkg.Version) {
		t.Errorf("run(version) = %q", out)
	}
}

func TestRunFindAndParse(t *testing.T) {
	root := t.TempDir()

	tpl := filepath.Join(root, "tpl")
	if err := os.MkdirAll(tpl, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, config.FileName),
		[]byte("[general]\ndirs = [\"tpl\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(tpl, "a.html"), []byte("{{ a }}"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runArgs(t, "", "--root", root, "find", "a.html")
	if err != nil {
		t.Fatalf("run(find) error = %v", err)
	}

	if want := filepath.Join(tpl, "a.html"); strings.TrimSpace(out) != want {
		t.Errorf("run(find) = %q, want %q", out, want)
	}

	out, err = runArgs(t, "{% include \"a.html\" %}", "--root", root, "parse", "--deps", "-")
	if err != nil {
		t.Fatalf("run(parse) error = %v", err)
	}

	if !strings.Contains(out, "include \"a.html\" -> "+filepath.Join(tpl, "a.html")) {
		t.Errorf("run(parse --deps) output:\n%s", out)
	}
}

func TestRunShowDefault(t *testing.T) {
	root := t.TempDir()

	out, err := runArgs(t, "", "--root", root, "-w", "suppress")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if !strings.Contains(out, "whitespace: suppress") {
		t.Errorf("run() output:\n%s", out)
	}
}

func TestRunMissingConfig(t *testing.T) {
	root := t.TempDir()

	_, err := runArgs(t, "", "--root", root, "--config", "missing.toml", "show")
	if err == nil {
		t.Fatal("run() succeeded with a missing --config file")
	}

	want := "`" + filepath.Join(root, "missing.toml") + "` does not exist"
	if err.Error() != want {
		t.Errorf("run() error = %q, want %q", err.Error(), want)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		flag  string
		want  any
	}{
		{
			name:  "string_value",
			input: "[cli]\nlog_level = \"debug\"\n",
			flag:  "log-level",
			want:  "debug",
		},
		{
			name:  "bool_value",
			input: "[cli]\nlog_pretty = false\n",
			flag:  "log-pretty",
			want:  false,
		},
		{
			name:  "hyphenated_key",
			input: "[cli]\n\"log-format\" = \"json\"\n",
			flag:  "log-format",
			want:  "json",
		},
		{
			name:  "integer_as_string",
			input: "[cli]\ndepth = 3\n",
			flag:  "depth",
			want:  "3",
		},
		{
			name:  "other_tables_ignored",
			input: "[general]\ndirs = [\"tpl\"]\n",
			flag:  "dirs",
			want:  nil,
		},
		{
			name:  "malformed_file",
			input: "[cli\n",
			flag:  "log-level",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestLogConfigScan(t *testing.T) {
	var f logConfig

	f.scan([]string{"--log-pretty=false", "--log-caller", "--no-log-caller=false", "show"})

	if f.Pretty {
		t.Error("scan(--log-pretty=false) left Pretty set")
	}

	if !f.Caller {
		t.Error("scan(--no-log-caller=false) cleared Caller")
	}

	f.scan([]string{"--log-level", "debug", "--log-format=json"})

	if f.Level != "debug" || f.Format != "json" {
		t.Errorf("scan() level = %q, format = %q", f.Level, f.Format)
	}

	f.scan([]string{"--log-level", "error", "--log-format", "text", "--log-pretty"})
}
