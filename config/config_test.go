//go:build !noconfig

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/ardnew/tmplc/log"
	"github.com/ardnew/tmplc/parser"
	"github.com/ardnew/tmplc/syntax"
)

func templateFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("{{ name }}\n"), 0o644))
	}

	return fs
}

func TestFindTemplate(t *testing.T) {
	t.Parallel()

	tpl := filepath.Join(testRoot, "templates")
	fs := templateFs(t,
		filepath.Join(tpl, "a.html"),
		filepath.Join(tpl, "sub", "b.html"),
		filepath.Join(tpl, "sub", "c.html"),
		filepath.Join(tpl, "sub", "sub1", "d.html"),
		filepath.Join(tpl, "x.html"),
		filepath.Join(tpl, "sub", "x.html"),
	)

	cfg, err := newTestResolver(t, WithFs(fs)).Resolve(context.Background(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		anchor string
		want   string
	}{
		{
			name: "absolute",
			path: "a.html",
			want: filepath.Join(tpl, "a.html"),
		},
		{
			name: "nested",
			path: "sub/b.html",
			want: filepath.Join(tpl, "sub", "b.html"),
		},
		{
			name:   "relative",
			path:   "c.html",
			anchor: filepath.Join(tpl, "sub", "b.html"),
			want:   filepath.Join(tpl, "sub", "c.html"),
		},
		{
			name:   "relative_sub",
			path:   "sub1/d.html",
			anchor: filepath.Join(tpl, "sub", "b.html"),
			want:   filepath.Join(tpl, "sub", "sub1", "d.html"),
		},
		{
			name:   "anchor_falls_back_to_dirs",
			path:   "a.html",
			anchor: filepath.Join(tpl, "sub", "b.html"),
			want:   filepath.Join(tpl, "a.html"),
		},
		{
			name:   "anchor_before_dirs",
			path:   "x.html",
			anchor: filepath.Join(tpl, "sub", "b.html"),
			want:   filepath.Join(tpl, "sub", "x.html"),
		},
		{
			name: "dirs_without_anchor",
			path: "x.html",
			want: filepath.Join(tpl, "x.html"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := cfg.FindTemplate(tt.path, tt.anchor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindTemplate_DirOrder(t *testing.T) {
	t.Parallel()

	fs := templateFs(t,
		filepath.Join(testRoot, "first", "x.html"),
		filepath.Join(testRoot, "second", "x.html"),
		filepath.Join(testRoot, "second", "y.html"),
	)

	cfg, err := newTestResolver(t, WithFs(fs)).
		Resolve(context.Background(), "[general]\ndirs = [\"first\", \"second\"]\n")
	require.NoError(t, err)

	got, err := cfg.FindTemplate("x.html", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, "first", "x.html"), got)

	got, err = cfg.FindTemplate("y.html", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, "second", "y.html"), got)
}

func TestFindTemplate_NotFound(t *testing.T) {
	t.Parallel()

	cfg, err := newTestResolver(t).Resolve(context.Background(), "")
	require.NoError(t, err)

	anchor := filepath.Join(testRoot, "templates", "sub", "b.html")

	_, err = cfg.FindTemplate("missing.html", anchor)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	tried := []string{
		filepath.Join(testRoot, "templates", "sub", "missing.html"),
		filepath.Join(testRoot, "templates", "missing.html"),
	}
	assert.Equal(t,
		fmt.Sprintf("template %q not found in directories %q", "missing.html", tried),
		err.Error())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testRoot, "templates", "page.html"),
		[]byte("<% include \"part.html\" %>{{ title }}"), 0o644))

	cfg, err := newTestResolver(t, WithFs(fs)).Resolve(context.Background(),
		"[[syntax]]\nname = \"angle\"\nblock_start = \"<%\"\nblock_end = \"%>\"\n")
	require.NoError(t, err)

	ast, err := cfg.Load(context.Background(), "page.html", "", "angle")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, "templates", "page.html"), ast.Path)
	require.Len(t, ast.Deps, 1)
	assert.Equal(t, "part.html", ast.Deps[0].Target)

	again, err := cfg.Load(context.Background(), "page.html", "", "angle")
	require.NoError(t, err)
	assert.Same(t, ast, again)

	_, err = cfg.Load(context.Background(), "page.html", "", "angel")
	require.Error(t, err)
	assert.Equal(t, `syntax "angel" not found`, err.Error())
}

func TestSyntaxCache_ParsesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	counting := func(source, path string, s syntax.Syntax) (*parser.AST, error) {
		calls.Inc()

		return parser.Parse(source, path, s)
	}

	cfg, err := newTestResolver(t, WithParser(counting)).Resolve(context.Background(), "")
	require.NoError(t, err)

	sc := cfg.DefaultSyntax()
	ctx := context.Background()

	const n = 8

	var (
		wg   sync.WaitGroup
		asts [n]*parser.AST
	)

	for i := range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			asts[i], _ = sc.Parse(ctx, "{{ a }} and {{ b }}")
		}()
	}

	wg.Wait()

	require.NotNil(t, asts[0])

	for i := range n {
		assert.Same(t, asts[0], asts[i])
	}

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1, sc.Len())

	withPath, err := sc.Parse(ctx, "{{ a }} and {{ b }}", FromPath("x.html"))
	require.NoError(t, err)
	assert.NotSame(t, asts[0], withPath)
	assert.Equal(t, "x.html", withPath.Path)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSyntaxCache_HashesOnlyMisses(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false))

	cfg, err := newTestResolver(t, WithLogger(logger)).Resolve(context.Background(), "")
	require.NoError(t, err)

	sc := cfg.DefaultSyntax()
	ctx := context.Background()

	for range 3 {
		_, err = sc.Parse(ctx, "{{ a }}")
		require.NoError(t, err)
	}

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, `"msg":"parse cache lookup"`))
	assert.Equal(t, 1, strings.Count(out, `"hash":`), out)
	assert.EqualValues(t, 2, sc.Stats().Hits)
}

func TestSyntaxCache_ErrorNotCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	counting := func(source, path string, s syntax.Syntax) (*parser.AST, error) {
		calls.Inc()

		return parser.Parse(source, path, s)
	}

	cfg, err := newTestResolver(t, WithParser(counting)).Resolve(context.Background(), "")
	require.NoError(t, err)

	sc := cfg.DefaultSyntax()

	_, err1 := sc.Parse(context.Background(), "{% if x %}", FromPath("bad.html"))
	require.Error(t, err1)

	var perr *parser.Error
	require.True(t, errors.As(err1, &perr), "parse errors are returned unchanged")
	assert.NotErrorIs(t, err1, ErrValidation)

	_, err2 := sc.Parse(context.Background(), "{% if x %}", FromPath("bad.html"))
	require.Error(t, err2)

	assert.Equal(t, err1.Error(), err2.Error())
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 0, sc.Len())
}

func TestSyntaxCache_PerSyntax(t *testing.T) {
	t.Parallel()

	cfg, err := newTestResolver(t).Resolve(context.Background(),
		"[[syntax]]\nname = \"angle\"\nexpr_start = \"<<\"\nexpr_end = \">>\"\n")
	require.NoError(t, err)

	angle, ok := cfg.Syntax("angle")
	require.True(t, ok)

	src := "<< x >>{{ y }}"

	a, err := angle.Parse(context.Background(), src)
	require.NoError(t, err)

	d, err := cfg.DefaultSyntax().Parse(context.Background(), src)
	require.NoError(t, err)

	assert.NotSame(t, a, d)
	assert.Equal(t, "angle", angle.Name())
	assert.Equal(t, "<<", a.Syntax.ExprStart)
	assert.Equal(t, syntax.Default(), d.Syntax)
}
