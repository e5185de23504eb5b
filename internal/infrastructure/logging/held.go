package logging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

const defaultHeldLimit = 1000

type heldEntry struct {
	ctx    context.Context
	level  zerolog.Level
	msg    string
	fields []interface{}
}

// Held collects log entries while the terminal UI owns the screen and hands
// them to a real logger once the UI has exited. When the limit is reached the
// oldest entries are dropped.
type Held struct {
	mu      sync.Mutex
	limit   int
	entries []heldEntry
	dropped int
}

// NewHeld creates a Held with room for limit entries (1000 when limit <= 0).
func NewHeld(limit int) *Held {
	if limit <= 0 {
		limit = defaultHeldLimit
	}
	return &Held{limit: limit}
}

// Logger returns a ports.Logger that records into h.
func (h *Held) Logger() ports.Logger {
	return &heldLogger{held: h}
}

// Len reports how many entries are waiting.
func (h *Held) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *Held) add(entry heldEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.limit {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = entry
		h.dropped++
		return
	}
	h.entries = append(h.entries, entry)
}

// Release replays the held entries, oldest first, and empties h. Entries
// below to's level are filtered by to as usual.
func (h *Held) Release(to ports.Logger) {
	if to == nil {
		return
	}
	h.mu.Lock()
	entries := h.entries
	dropped := h.dropped
	h.entries = nil
	h.dropped = 0
	h.mu.Unlock()

	if dropped > 0 {
		to.Warn(context.Background(), "log entries dropped while the terminal ui was running", "dropped", dropped)
	}
	for _, entry := range entries {
		switch entry.level {
		case zerolog.DebugLevel:
			to.Debug(entry.ctx, entry.msg, entry.fields...)
		case zerolog.WarnLevel:
			to.Warn(entry.ctx, entry.msg, entry.fields...)
		case zerolog.ErrorLevel:
			to.Error(entry.ctx, entry.msg, entry.fields...)
		default:
			to.Info(entry.ctx, entry.msg, entry.fields...)
		}
	}
}

type heldLogger struct {
	held   *Held
	fields []interface{}
}

func (l *heldLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, zerolog.DebugLevel, msg, fields)
}

func (l *heldLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, zerolog.InfoLevel, msg, fields)
}

func (l *heldLogger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, zerolog.WarnLevel, msg, fields)
}

func (l *heldLogger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.record(ctx, zerolog.ErrorLevel, msg, fields)
}

func (l *heldLogger) With(fields ...interface{}) ports.Logger {
	return &heldLogger{held: l.held, fields: append(append([]interface{}{}, l.fields...), fields...)}
}

func (l *heldLogger) record(ctx context.Context, level zerolog.Level, msg string, fields []interface{}) {
	l.held.add(heldEntry{
		ctx:    ctx,
		level:  level,
		msg:    msg,
		fields: append(append([]interface{}{}, l.fields...), fields...),
	})
}
