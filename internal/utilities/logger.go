package utilities

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antonio-alexander/go-employee-records/internal"

	"github.com/rs/zerolog"
)

const fieldCorrelationId string = "correlation_id"

type Logger interface {
	Error(ctx context.Context, format string, v ...any)
	Info(ctx context.Context, format string, v ...any)
	Debug(ctx context.Context, format string, v ...any)
	Trace(ctx context.Context, format string, v ...any)
}

type logger struct {
	zerolog.Logger
	writer io.Writer
	config struct {
		Level  zerolog.Level
		Pretty bool
	}
}

func atoLogLevel(a string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(a)) {
	default:
		return zerolog.ErrorLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	}
}

// NewLogger creates a zerolog backed logger, it writes to stdout unless an
// io.Writer is provided
func NewLogger(parameters ...any) interface {
	internal.Configurer
	Logger
} {
	var w io.Writer = os.Stdout

	for _, p := range parameters {
		switch p := p.(type) {
		case io.Writer:
			w = p
		}
	}
	l := &logger{writer: w}
	l.config.Level = zerolog.ErrorLevel
	l.Logger = zerolog.New(w).With().Timestamp().Logger().Level(l.config.Level)
	return l
}

func (l *logger) Configure(envs map[string]string) error {
	l.config.Level = zerolog.ErrorLevel
	if logLevel, ok := envs["LOG_LEVEL"]; ok {
		l.config.Level = atoLogLevel(logLevel)
	}
	if logPretty, ok := envs["LOG_PRETTY"]; ok {
		l.config.Pretty = strings.EqualFold(logPretty, "true")
	}
	w := l.writer
	if l.config.Pretty {
		w = zerolog.ConsoleWriter{Out: l.writer}
	}
	l.Logger = zerolog.New(w).With().Timestamp().Logger().Level(l.config.Level)
	return nil
}

func (l *logger) event(ctx context.Context, e *zerolog.Event, format string, v ...any) {
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		e = e.Str(fieldCorrelationId, correlationId)
	}
	e.Msg(fmt.Sprintf(format, v...))
}

func (l *logger) Error(ctx context.Context, format string, v ...any) {
	l.event(ctx, l.Logger.Error(), format, v...)
}

func (l *logger) Info(ctx context.Context, format string, v ...any) {
	l.event(ctx, l.Logger.Info(), format, v...)
}

func (l *logger) Debug(ctx context.Context, format string, v ...any) {
	l.event(ctx, l.Logger.Debug(), format, v...)
}

func (l *logger) Trace(ctx context.Context, format string, v ...any) {
	l.event(ctx, l.Logger.Trace(), format, v...)
}

type nullLogger struct{}

// NewNullLogger returns a logger that discards everything
func NewNullLogger() Logger {
	return nullLogger{}
}

func (nullLogger) Error(context.Context, string, ...any) {}
func (nullLogger) Info(context.Context, string, ...any)  {}
func (nullLogger) Debug(context.Context, string, ...any) {}
func (nullLogger) Trace(context.Context, string, ...any) {}
