package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_DefaultConfiguration(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if got := logger.Level(); got != DefaultLevel {
		t.Errorf("expected default level %v, got %v", DefaultLevel, got)
	}

	if got := logger.Format(); got != DefaultFormat {
		t.Errorf("expected default format %v, got %v", DefaultFormat, got)
	}

	if logger.caller {
		t.Error("expected caller disabled by default")
	}
}

func TestMake_LevelFiltersMessages(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false))
	logger.Trace("trace message")

	if !strings.Contains(buf.String(), "trace message") {
		t.Fatalf("trace message not logged at Trace level: %s", buf.String())
	}

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE level name, got: %s", buf.String())
	}

	buf.Reset()

	logger = Make(&buf, WithLevel(LevelError), WithPretty(false))
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Errorf("info message logged at Error level: %s", buf.String())
	}
}

func TestMake_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	logger.Info("hello", slog.String("key", "value"), slog.Int("n", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if rec["msg"] != "hello" || rec["key"] != "value" || rec["n"] != float64(3) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestWithTimeLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		want   func(string) bool
	}{
		{"none disables time", "none", func(s string) bool { return !strings.Contains(s, "time=") }},
		{"empty disables time", "  ", func(s string) bool { return !strings.Contains(s, "time=") }},
		{"named layout", "RFC3339", func(s string) bool { return strings.Contains(s, "time=") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithTimeLayout(tt.layout), WithPretty(false)).Info("x")

			if !tt.want(buf.String()) {
				t.Errorf("unexpected output for layout %q: %s", tt.layout, buf.String())
			}
		})
	}
}

func TestWithCaller_ReportsCallSite(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("where")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected caller to be this test file, got: %s", buf.String())
	}
}

func TestLogger_With_KeepsAttributes(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		logger := Make(&buf, WithPretty(pretty)).With(slog.String("component", "cache"))
		logger.Info("lookup")

		if !strings.Contains(buf.String(), "component") ||
			!strings.Contains(buf.String(), "cache") {
			t.Errorf("pretty=%v: expected attribute in output, got: %s", pretty, buf.String())
		}
	}
}

func TestLogger_Wrap_OverridesBase(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("base level changed to %v", base.Level())
	}

	if wrapped.Level() != LevelDebug {
		t.Errorf("expected wrapped level debug, got %v", wrapped.Level())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var logger Logger

	logger.Info("dropped")
	logger = logger.With(slog.String("k", "v"))

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level for zero logger, got %v", logger.Level())
	}
}

func TestPrettyJSON_Output(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))
	logger.WithGroup("g").Warn("careful", slog.Bool("ok", false))

	out := buf.String()
	for _, want := range []string{`"msg": careful`, `"level": WARN`, `"g.ok": false`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	logger := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithPretty(false))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.With(slog.Int("worker", i)).Info("tick")
		}()
	}

	wg.Wait()

	if got := strings.Count(buf.String(), "tick"); got != 16 {
		t.Errorf("expected 16 records, got %d", got)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{
		"trace": LevelTrace,
		"TRACE": LevelTrace,
		"debug": LevelDebug,
		"warn":  LevelWarn,
		"bogus": DefaultLevel,
	}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("?") != DefaultFormat {
		t.Error("ParseFormat returned unexpected results")
	}
}

func TestPackage_Default(t *testing.T) {
	original := Default()
	defer func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	}()

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelDebug), WithPretty(false))
	Debug("from package", slog.String("key", "value"))

	if !strings.Contains(buf.String(), "from package") ||
		!strings.Contains(buf.String(), "key=value") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
