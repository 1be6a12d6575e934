package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Sink receives error-level events for persistence outside the process.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Options configures New.
type Options struct {
	Level      slog.Leveler
	BufferSize int
	Stdout     io.Writer // text output, defaults to os.Stdout
	Stderr     io.Writer // JSON output, defaults to os.Stderr
	Sinks      []Sink
}

// New builds the application logger. Records are mirrored to the console,
// kept in a bounded in-memory buffer, and error-level records are also
// written to every sink. The returned buffer exposes recent events.
func New(opts Options) (*slog.Logger, *Buffer) {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	console := slog.NewMultiHandler(
		slog.NewTextHandler(opts.Stdout, handlerOpts),
		slog.NewJSONHandler(opts.Stderr, handlerOpts),
	)

	buffer := NewBuffer(opts.BufferSize)
	return slog.New(NewHandler(console, buffer, opts.Level, opts.Sinks...)), buffer
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Handler is a slog.Handler that records into a Buffer and fans error
// records out to sinks before delegating to the next handler.
type Handler struct {
	next   slog.Handler
	buffer *Buffer
	level  slog.Leveler
	sinks  []Sink
	attrs  []slog.Attr
	group  string
}

func NewHandler(next slog.Handler, buffer *Buffer, level slog.Leveler, sinks ...Sink) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{next: next, buffer: buffer, level: level, sinks: sinks}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	e := h.event(r)
	h.buffer.Add(e)

	if r.Level >= slog.LevelError {
		for _, sink := range h.sinks {
			if err := sink.Write(ctx, e); err != nil {
				h.reportSinkError(ctx, sink, err)
			}
		}
	}

	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), prefixed(h.group, attrs)...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	if h.group == "" {
		clone.group = name
	} else {
		clone.group = h.group + "." + name
	}
	return &clone
}

// reportSinkError goes straight to the console handler so that a failing
// sink can neither recurse nor replace the original record.
func (h *Handler) reportSinkError(ctx context.Context, sink Sink, err error) {
	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log sink write failed", 0)
	rec.AddAttrs(
		slog.String("sink", fmt.Sprintf("%T", sink)),
		slog.String("error", err.Error()),
	)
	_ = h.next.Handle(ctx, rec)
}

func (h *Handler) event(r slog.Record) Event {
	e := Event{
		Time:    r.Time.UTC(),
		Level:   r.Level,
		Message: r.Message,
	}
	if len(h.attrs) == 0 && r.NumAttrs() == 0 {
		return e
	}

	e.Attrs = make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(e.Attrs, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(e.Attrs, h.group, a)
		return true
	})
	return e
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	v := a.Value.Any()
	switch tv := v.(type) {
	case error:
		v = tv.Error()
	case time.Duration:
		v = tv.String()
	}
	dst[key] = v
}

func prefixed(group string, attrs []slog.Attr) []slog.Attr {
	if group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: group + "." + a.Key, Value: a.Value}
	}
	return out
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// LevelName returns the level label used in persisted logs.
func LevelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
