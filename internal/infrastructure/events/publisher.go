// Package events delivers application events to the log and to in-process
// subscribers.
package events

import (
	"context"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// Publisher logs every event under its type and then runs the handlers
// subscribed to that type in subscription order. Failed checks are logged at
// warn level, failed engine loads at error level, completed checks at info
// and everything else at debug.
type Publisher struct {
	logger ports.Logger

	mu       sync.RWMutex
	handlers map[string][]*handler
}

type handler struct {
	fn ports.EventHandler
}

// NewPublisher creates a Publisher writing to logger.
func NewPublisher(logger ports.Logger) *Publisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Publisher{
		logger:   logger.With("component", "events"),
		handlers: make(map[string][]*handler),
	}
}

// Publish implements ports.EventPublisher. Handler errors are logged and do
// not stop delivery.
func (p *Publisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	if p == nil || event == nil {
		return nil
	}
	eventType := event.EventType()
	p.logFor(eventType)(ctx, eventType, eventFields(event)...)

	p.mu.RLock()
	handlers := append([]*handler(nil), p.handlers[eventType]...)
	p.mu.RUnlock()

	for _, h := range handlers {
		if err := h.fn(ctx, event); err != nil {
			p.logger.Warn(ctx, "event handler failed", "event_type", eventType, "error", err)
		}
	}
	return nil
}

// Subscribe implements ports.EventPublisher.
func (p *Publisher) Subscribe(eventType string, fn ports.EventHandler) (ports.Subscription, error) {
	if p == nil || fn == nil {
		return unsubscribeFunc(func() {}), nil
	}
	h := &handler{fn: fn}
	p.mu.Lock()
	p.handlers[eventType] = append(p.handlers[eventType], h)
	p.mu.Unlock()

	var once sync.Once
	return unsubscribeFunc(func() {
		once.Do(func() { p.remove(eventType, h) })
	}), nil
}

func (p *Publisher) remove(eventType string, target *handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	handlers := p.handlers[eventType]
	for i, h := range handlers {
		if h == target {
			p.handlers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

func (p *Publisher) logFor(eventType string) func(context.Context, string, ...interface{}) {
	switch eventType {
	case ports.EventCheckFailed:
		return p.logger.Warn
	case ports.EventEngineLoadFailed:
		return p.logger.Error
	case ports.EventCheckCompleted:
		return p.logger.Info
	}
	return p.logger.Debug
}

// eventFields flattens a map payload into sorted key/value pairs.
func eventFields(event ports.DomainEvent) []interface{} {
	fields := []interface{}{"event_type", event.EventType()}
	switch payload := event.Payload().(type) {
	case nil:
	case map[string]interface{}:
		keys := make([]string, 0, len(payload))
		for key := range payload {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fields = append(fields, key, payload[key])
		}
	default:
		fields = append(fields, "payload", payload)
	}
	return fields
}

type unsubscribeFunc func()

func (f unsubscribeFunc) Unsubscribe() { f() }
