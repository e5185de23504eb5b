package logging

import (
	"context"

	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

type discard struct{}

func (discard) Debug(context.Context, string, ...interface{}) {}
func (discard) Info(context.Context, string, ...interface{}) {}
func (discard) Warn(context.Context, string, ...interface{}) {}
func (discard) Error(context.Context, string, ...interface{}) {}
func (d discard) With(...interface{}) ports.Logger { return d }

// Discard returns a logger that drops every entry. Components fall back to it
// when no logger is configured.
func Discard() ports.Logger {
	return discard{}
}
