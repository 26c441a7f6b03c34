//go:build !noconfig

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/tmplc/config"
	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/pkg"
)

// project creates a project root containing files, keyed by path relative to
// the root, and returns a context holding a Session for it.
func project(t *testing.T, files map[string]string) (context.Context, *Session, *bytes.Buffer) {
	t.Helper()

	root := t.TempDir()

	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer

	sess := &Session{
		Resolver: config.NewResolver(config.WithRoot(root), config.WithLogger(log.Discard())),
		Out:      &out,
	}

	return WithSession(context.Background(), sess), sess, &out
}

func TestShowRun(t *testing.T) {
	t.Parallel()

	ctx, sess, out := project(t, map[string]string{
		config.FileName: "[general]\ndirs = [\"views\"]\n\n[[syntax]]\nname = \"angle\"\nblock_start = \"<%\"\n",
	})

	if err := (&Show{Format: "json"}).Run(ctx); err != nil {
		t.Fatalf("Show.Run() error = %v", err)
	}

	var view configView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out.String())
	}

	if want := filepath.Join(sess.Resolver.Root(), "views"); len(view.Dirs) != 1 || view.Dirs[0] != want {
		t.Errorf("dirs = %v, want [%s]", view.Dirs, want)
	}

	if got := view.Syntaxes["angle"].BlockStart; got != "<%" {
		t.Errorf("angle block_start = %q, want %q", got, "<%")
	}

	if view.Whitespace != "preserve" {
		t.Errorf("whitespace = %q, want %q", view.Whitespace, "preserve")
	}

	out.Reset()

	if err := (&Show{Format: "yaml"}).Run(ctx); err != nil {
		t.Fatalf("Show.Run() error = %v", err)
	}

	if !strings.Contains(out.String(), "default_syntax: default") {
		t.Errorf("YAML output missing default_syntax:\n%s", out.String())
	}
}

func TestShowRunWhitespaceOverride(t *testing.T) {
	t.Parallel()

	ctx, sess, out := project(t, nil)
	sess.Whitespace = "minimize"

	if err := (&Show{Format: "json"}).Run(ctx); err != nil {
		t.Fatalf("Show.Run() error = %v", err)
	}

	if !strings.Contains(out.String(), `"whitespace": "minimize"`) {
		t.Errorf("override not applied:\n%s", out.String())
	}

	sess.Whitespace = "trim"

	err := (&Show{Format: "json"}).Run(ctx)
	if err == nil || err.Error() != "invalid value for `whitespace`: \"trim\"" {
		t.Errorf("Show.Run() error = %v, want invalid whitespace", err)
	}
}

func TestFindRun(t *testing.T) {
	t.Parallel()

	ctx, sess, out := project(t, map[string]string{
		"templates/a.html":     "a",
		"templates/sub/b.html": "b",
		"templates/sub/c.html": "c",
	})

	root := sess.Resolver.Root()

	tests := []struct {
		name    string
		find    Find
		want    string
		wantErr error
	}{
		{
			name: "configured_dir",
			find: Find{Path: "a.html"},
			want: filepath.Join(root, "templates", "a.html"),
		},
		{
			name: "relative_to_from",
			find: Find{Path: "c.html", From: filepath.Join(root, "templates", "sub", "b.html")},
			want: filepath.Join(root, "templates", "sub", "c.html"),
		},
		{
			name:    "missing",
			find:    Find{Path: "nope.html"},
			wantErr: config.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()

			err := tt.find.Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Find.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Find.Run() error = %v", err)
			}

			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("Find.Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRun(t *testing.T) {
	t.Parallel()

	ctx, sess, out := project(t, map[string]string{
		"templates/page.html":         "{% extends \"base.html\" %}{% block body %}{% include \"part/x.html\" %}{% endblock %}",
		"templates/base.html":         "<body>{% block body %}{% endblock %}</body>",
		"templates/part/x.html":       "{% include \"y.html\" %}{{ x }}",
		"templates/part/y.html":       "{% include \"../page.html\" %}",
		"templates/stdin_target.html": "{{ z }}",
	})

	root := sess.Resolver.Root()

	if err := (&Parse{Path: "page.html"}).Run(ctx); err != nil {
		t.Fatalf("Parse.Run() error = %v", err)
	}

	want := filepath.Join(root, "templates", "page.html") + " (2 nodes)\n" +
		"  extends \"base.html\"\n" +
		"  include \"part/x.html\"\n"
	if out.String() != want {
		t.Errorf("Parse.Run() output:\n%s\nwant:\n%s", out.String(), want)
	}

	out.Reset()

	if err := (&Parse{Path: "page.html", Deps: true}).Run(ctx); err != nil {
		t.Fatalf("Parse.Run(--deps) error = %v", err)
	}

	for _, line := range []string{
		"extends \"base.html\" -> " + filepath.Join(root, "templates", "base.html"),
		"include \"part/x.html\" -> " + filepath.Join(root, "templates", "part", "x.html"),
		"include \"y.html\" -> " + filepath.Join(root, "templates", "part", "y.html"),
		"include \"../page.html\" -> " + filepath.Join(root, "templates", "page.html"),
	} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("Parse.Run(--deps) output missing %q:\n%s", line, out.String())
		}
	}

	if n := strings.Count(out.String(), filepath.Join(root, "templates", "page.html")+" ("); n != 1 {
		t.Errorf("page.html printed %d times, want 1 (cycle not detected)", n)
	}
}

func TestParseRunStdin(t *testing.T) {
	t.Parallel()

	ctx, sess, out := project(t, nil)
	sess.In = strings.NewReader("hello {{ name }}{# note #}")

	if err := (&Parse{Path: "-"}).Run(ctx); err != nil {
		t.Fatalf("Parse.Run() error = %v", err)
	}

	if want := "- (3 nodes)\n"; out.String() != want {
		t.Errorf("Parse.Run() = %q, want %q", out.String(), want)
	}

	sess.In = strings.NewReader("{{ x }}")

	err := (&Parse{Path: "-", Syntax: "nope"}).Run(ctx)
	if err == nil || err.Error() != `syntax "nope" not found` {
		t.Errorf("Parse.Run() error = %v, want unknown syntax", err)
	}
}

func TestParseRunError(t *testing.T) {
	t.Parallel()

	ctx, sess, _ := project(t, nil)
	sess.In = strings.NewReader("{% if x %}")

	if err := (&Parse{Path: "-"}).Run(ctx); err == nil {
		t.Fatal("Parse.Run() succeeded on unterminated if")
	}
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		force   bool
		setup   bool
		wantErr bool
	}{
		{name: "create_new_config", file: config.FileName},
		{name: "create_yaml_config", file: "tmplc.yaml"},
		{name: "create_hcl_config", file: "tmplc.hcl"},
		{name: "overwrite_existing_with_force", file: config.FileName, force: true, setup: true},
		{name: "fail_without_force", file: config.FileName, setup: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files := map[string]string{}
			if tt.setup {
				files[tt.file] = "existing content"
			}

			ctx, sess, _ := project(t, files)
			sess.ConfigPath = tt.file

			err := (&Init{Force: tt.force}).Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init.Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				if !errors.Is(err, pkg.ErrExists) {
					t.Errorf("Init.Run() error = %v, want %v", err, pkg.ErrExists)
				}

				if !errors.Is(err, ErrWriteConfig) {
					t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
				}

				return
			}

			// The generated file must resolve to the defaults.
			cfg, err := sess.config(ctx)
			if err != nil {
				t.Fatalf("generated config does not resolve: %v", err)
			}

			if got := cfg.DefaultSyntaxName(); got != config.DefaultSyntaxName {
				t.Errorf("default syntax = %q, want %q", got, config.DefaultSyntaxName)
			}

			want := filepath.Join(sess.Resolver.Root(), config.DefaultTemplateDir)
			if dirs := cfg.Dirs(); len(dirs) != 1 || dirs[0] != want {
				t.Errorf("dirs = %v, want [%s]", dirs, want)
			}
		})
	}
}

func TestVersionRun(t *testing.T) {
	t.Parallel()

	ctx, _, out := project(t, nil)

	if err := (Version{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out.String(), pkg.Name+" "+pkg.Version) {
		t.Errorf("Version.Run() = %q", out.String())
	}
}
