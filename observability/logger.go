// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing and health checks for hrref.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

// Logger writes mtlog message templates such as
// "Built {Category} mapping with {Count} entries". Every call takes the
// request or build context so the entry can be tied to the active span.
type Logger interface {
	DebugContext(ctx context.Context, messageTemplate string, args ...any)
	InfoContext(ctx context.Context, messageTemplate string, args ...any)
	WarnContext(ctx context.Context, messageTemplate string, args ...any)
	ErrorContext(ctx context.Context, messageTemplate string, args ...any)

	// ForContext returns a child logger that adds key=value to every entry.
	ForContext(key string, value any) Logger
}

// LogLevel is the minimum level a logger emits.
type LogLevel int

const (
	VerboseLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// levelNames maps accepted config spellings to levels.
var levelNames = map[string]LogLevel{
	"verbose":     VerboseLevel,
	"trace":       VerboseLevel,
	"debug":       DebugLevel,
	"":            InfoLevel,
	"info":        InfoLevel,
	"information": InfoLevel,
	"warn":        WarnLevel,
	"warning":     WarnLevel,
	"error":       ErrorLevel,
}

// ParseLogLevel reads the log.level setting.
func ParseLogLevel(s string) (LogLevel, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func (l LogLevel) option() mtlog.Option {
	switch l {
	case VerboseLevel:
		return mtlog.Verbose()
	case DebugLevel:
		return mtlog.Debug()
	case WarnLevel:
		return mtlog.Warning()
	case ErrorLevel:
		return mtlog.Error()
	default:
		return mtlog.Information()
	}
}

// NewLogger returns a console logger on w. hrref writes diagnostics to
// stderr so they never mix with list output.
func NewLogger(w io.Writer, level LogLevel) Logger {
	return mtlogLogger{mtlog.New(
		mtlog.WithSink(sinks.NewConsoleSinkWithWriter(w)),
		mtlog.WithTimestamp(),
		level.option(),
	)}
}

type mtlogLogger struct{ l core.Logger }

func (m mtlogLogger) DebugContext(ctx context.Context, tmpl string, args ...any) {
	m.l.DebugContext(ctx, tmpl, args...)
}

func (m mtlogLogger) InfoContext(ctx context.Context, tmpl string, args ...any) {
	m.l.InfoContext(ctx, tmpl, args...)
}

func (m mtlogLogger) WarnContext(ctx context.Context, tmpl string, args ...any) {
	m.l.WarnContext(ctx, tmpl, args...)
}

func (m mtlogLogger) ErrorContext(ctx context.Context, tmpl string, args ...any) {
	m.l.ErrorContext(ctx, tmpl, args...)
}

func (m mtlogLogger) ForContext(key string, value any) Logger {
	return mtlogLogger{m.l.ForContext(key, value)}
}

// NewNullLogger discards everything. Library types default to it.
func NewNullLogger() Logger { return nullLogger{} }

type nullLogger struct{}

func (nullLogger) DebugContext(context.Context, string, ...any) {}
func (nullLogger) InfoContext(context.Context, string, ...any)  {}
func (nullLogger) WarnContext(context.Context, string, ...any)  {}
func (nullLogger) ErrorContext(context.Context, string, ...any) {}
func (n nullLogger) ForContext(string, any) Logger              { return n }
