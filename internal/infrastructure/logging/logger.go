// Package logging adapts zerolog to ports.Logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

const defaultLayer = "infrastructure"

// Options configures New.
type Options struct {
	// Writer defaults to stderr.
	Writer io.Writer
	// Level is one of debug, info, warn or error; empty means info.
	Level string
	// HumanReadable switches from JSON lines to zerolog's console format.
	HumanReadable bool
	Layer         string
	Component     string
}

// Logger implements ports.Logger on top of zerolog. Every entry carries a
// layer field and, when the context has one, a correlation_id.
type Logger struct {
	logger zerolog.Logger
	fields []interface{}
}

// New creates a Logger.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	if opts.HumanReadable {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	layer := opts.Layer
	if layer == "" {
		layer = defaultLayer
	}
	fields := []interface{}{"layer", layer}
	if opts.Component != "" {
		fields = append(fields, "component", opts.Component)
	}

	return &Logger{
		logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
		fields: fields,
	}, nil
}

// Debug implements ports.Logger.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, zerolog.DebugLevel, msg, fields)
}

// Info implements ports.Logger.
func (l *Logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, zerolog.InfoLevel, msg, fields)
}

// Warn implements ports.Logger.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, zerolog.WarnLevel, msg, fields)
}

// Error implements ports.Logger.
func (l *Logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, zerolog.ErrorLevel, msg, fields)
}

// With returns a child logger. A key given again replaces the parent's value.
func (l *Logger) With(fields ...interface{}) ports.Logger {
	if l == nil {
		return Discard()
	}
	return &Logger{
		logger: l.logger,
		fields: append(append([]interface{}{}, l.fields...), fields...),
	}
}

func (l *Logger) log(ctx context.Context, level zerolog.Level, msg string, fields []interface{}) {
	if l == nil || level < l.logger.GetLevel() {
		return
	}

	pairs := append(append([]interface{}{}, l.fields...), fields...)
	if id := ports.GetCorrelationID(ctx); id != "" {
		pairs = append(pairs, "correlation_id", id)
	}

	event := l.logger.WithLevel(level)
	for _, key := range lastWins(pairs) {
		switch value := key.value.(type) {
		case error:
			event = event.AnErr(key.name, value)
		case time.Duration:
			event = event.Dur(key.name, value)
		default:
			event = event.Interface(key.name, value)
		}
	}
	event.Msg(msg)
}

type field struct {
	name  string
	value interface{}
}

// lastWins collapses repeated keys, keeping the first position and the last
// value. Pairs with a non-string key are skipped.
func lastWins(pairs []interface{}) []field {
	out := make([]field, 0, len(pairs)/2)
	index := make(map[string]int, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok || name == "" {
			continue
		}
		if at, seen := index[name]; seen {
			out[at].value = pairs[i+1]
			continue
		}
		index[name] = len(out)
		out = append(out, field{name: name, value: pairs[i+1]})
	}
	return out
}

var _ ports.Logger = (*Logger)(nil)
