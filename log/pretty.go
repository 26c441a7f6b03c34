package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers.
// Styles are bound to the handler's writer so that color is only emitted when
// that writer is a terminal.
type palette struct {
	key, str, num, yes, no, dur, stamp lipgloss.Style
	trace, debug, info, warn, err      lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		yes:   fg("2"),
		no:    fg("1"),
		dur:   fg("5"),
		stamp: fg("4"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3"),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyHandler is shared state of the text and JSON pretty handlers.
type prettyHandler struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	mu         *sync.Mutex
	w          io.Writer
	style      palette
	attrs      []slog.Attr
	group      string
}

func makePrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) prettyHandler {
	return prettyHandler{
		opts:       *opts,
		formatTime: formatTime,
		mu:         &sync.Mutex{},
		w:          w,
		style:      makePalette(w),
	}
}

func (h prettyHandler) enabled(level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h prettyHandler) withAttrs(attrs []slog.Attr) prettyHandler {
	scoped := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	scoped = append(scoped, h.attrs...)

	for _, a := range attrs {
		scoped = append(scoped, slog.Attr{Key: h.group + a.Key, Value: a.Value})
	}

	h.attrs = scoped

	return h
}

func (h prettyHandler) withGroup(name string) prettyHandler {
	if name != "" {
		h.group += name + "."
	}

	return h
}

// fields returns the ordered header fields followed by all attributes of r.
func (h prettyHandler) fields(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			out = append(out, slog.String(slog.TimeKey, ts))
		}
	}

	out = append(out, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			out = append(out,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	out = append(out, slog.String(slog.MessageKey, r.Message))
	out = append(out, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		out = append(out, slog.Attr{Key: h.group + a.Key, Value: a.Value})

		return true
	})

	return out
}

func (h prettyHandler) value(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return h.style.str.Render(v.String())
	case slog.KindInt64:
		return h.style.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return h.style.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return h.style.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return h.style.yes.Render("true")
		}

		return h.style.no.Render("false")
	case slog.KindDuration:
		return h.style.dur.Render(v.Duration().String())
	case slog.KindTime:
		return h.style.stamp.Render(h.formatTime(v.Time()))
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, h.style.key.Render(a.Key)+"="+h.value(a.Value))
		}

		return "{" + strings.Join(parts, " ") + "}"
	}

	if level, ok := v.Any().(slog.Level); ok {
		return h.style.level(level).Render(strings.ToUpper(Level(level).String()))
	}

	if err, ok := v.Any().(error); ok {
		return h.style.no.Render(err.Error())
	}

	return h.style.str.Render(v.String())
}

func (h prettyHandler) write(buf *bytes.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes one colorized key=value line per record.
type prettyTextHandler struct{ prettyHandler }

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyTextHandler {
	return &prettyTextHandler{makePrettyHandler(w, opts, formatTime)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for i, a := range h.fields(r) {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.value(a.Value))
	}

	buf.WriteByte('\n')

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

// prettyJSONHandler writes an indented, colorized JSON-like object per record.
type prettyJSONHandler struct{ prettyHandler }

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyJSONHandler {
	return &prettyJSONHandler{makePrettyHandler(w, opts, formatTime)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	buf.WriteString("{\n")

	for i, a := range h.fields(r) {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.style.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")
		buf.WriteString(h.value(a.Value))
	}

	buf.WriteString("\n}\n")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}
