package ports

import "context"

const (
	// EventCheckStarted is emitted when a model-checking request begins.
	EventCheckStarted = "check.started"
	// EventCheckCompleted is emitted after a verdict has been computed or
	// served from the cache.
	EventCheckCompleted = "check.completed"
	// EventCheckFailed is emitted when a request terminates with an error.
	EventCheckFailed = "check.failed"
	// EventEngineLoaded is emitted when a front-end finishes binding the engine.
	EventEngineLoaded = "engine.loaded"
	// EventEngineLoadFailed is emitted when the engine could not be loaded.
	EventEngineLoadFailed = "engine.load_failed"
)

// DomainEvent represents a significant occurrence within the application
// layer. Events carry structured payloads that downstream subscribers can use
// for logging, UI updates, or integrations.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous: Publish blocks until all handlers run, so observability
// signals appear before the process exits. Handlers may spawn goroutines for
// async processing if work should continue in the background. Implementations
// must be thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Handlers should avoid
// panicking; failures should be surfaced via returned errors so publishers can
// log diagnostics and continue delivering to remaining subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}

// Event is a DomainEvent with a map payload, the shape LoggingPublisher
// expands into log fields.
type Event struct {
	Type   string
	Fields map[string]interface{}
}

// EventType implements DomainEvent.
func (e Event) EventType() string { return e.Type }

// Payload implements DomainEvent.
func (e Event) Payload() interface{} { return e.Fields }
