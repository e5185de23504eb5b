// Package adapter binds a front-end's input, output and control handles to a
// model-checking engine that is loaded asynchronously.
//
// An Adapter starts Unbound. Load resolves the engine in the background and,
// on success, attaches exactly one click handler to the solve control and
// moves to Bound. A failed load is reported to the diagnostic logger and the
// adapter stays Unbound for good, so the control never reacts.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

// Keys naming the four handles in diagnostics and front-ends.
const (
	KeyModel   = "lcgs-model"
	KeyFormula = "atl-formula"
	KeySolve   = "solve"
	KeyResult  = "result"
)

// TextInput is a handle whose current text can be read.
type TextInput interface {
	Value() string
}

// TextOutput is a handle whose text can be replaced.
type TextOutput interface {
	SetText(text string)
}

// Control is a clickable handle.
type Control interface {
	OnClick(handler func())
}

// Handles groups the front-end elements the adapter works with.
type Handles struct {
	Model   TextInput
	Formula TextInput
	Solve   Control
	Result  TextOutput
}

func (h Handles) validate() error {
	missing := map[string]bool{
		KeyModel:   h.Model == nil,
		KeyFormula: h.Formula == nil,
		KeySolve:   h.Solve == nil,
		KeyResult:  h.Result == nil,
	}
	for _, key := range []string{KeyModel, KeyFormula, KeySolve, KeyResult} {
		if missing[key] {
			return apperrors.NewValidationError(key, fmt.Sprintf("handle %q is required", key), nil)
		}
	}
	return nil
}

// State is the binding state of an Adapter.
type State int

const (
	// Unbound means no engine is attached and clicks are ignored.
	Unbound State = iota
	// Bound means the click handler is attached. It is terminal.
	Bound
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrUnbound is returned by OnSolveRequested before an engine is bound.
	ErrUnbound = errors.New("engine is not loaded")
	// ErrAlreadyLoading is delivered by every Load after the first.
	ErrAlreadyLoading = errors.New("engine load already started")
	// ErrNilEngine is delivered when a loader returns neither an engine nor an error.
	ErrNilEngine = errors.New("engine loader returned no engine")
)

// Option customises an Adapter.
type Option func(*Adapter)

// WithLogger sets the diagnostic sink. Load failures are reported here.
func WithLogger(logger ports.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPublisher publishes engine.loaded and engine.load_failed events.
func WithPublisher(publisher ports.EventPublisher) Option {
	return func(a *Adapter) { a.publisher = publisher }
}

// WithContext sets the context used for checks started by clicks. It
// defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(a *Adapter) {
		if ctx != nil {
			a.baseCtx = ctx
		}
	}
}

// Adapter is the boundary between a front-end and the engine.
type Adapter struct {
	handles   Handles
	logger    ports.Logger
	publisher ports.EventPublisher
	baseCtx   context.Context

	loadOnce sync.Once
	mu       sync.RWMutex
	state    State
	engine   ports.Engine
}

// New validates the handles and returns an Unbound adapter. Every handle is
// required.
func New(handles Handles, opts ...Option) (*Adapter, error) {
	if err := handles.validate(); err != nil {
		return nil, err
	}
	a := &Adapter{
		handles: handles,
		logger:  logging.Discard(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "adapter", "layer", "presentation")
	return a, nil
}

// State reports the current binding state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Load resolves the engine in the background. The returned channel receives
// exactly one value, nil once the adapter is Bound or the load error, and is
// then closed. Only the first call loads; later calls deliver
// ErrAlreadyLoading.
func (a *Adapter) Load(ctx context.Context, loader ports.EngineLoader) <-chan error {
	done := make(chan error, 1)
	started := false
	a.loadOnce.Do(func() {
		started = true
		go func() {
			defer close(done)
			done <- a.load(ctx, loader)
		}()
	})
	if !started {
		done <- ErrAlreadyLoading
		close(done)
	}
	return done
}

func (a *Adapter) load(ctx context.Context, loader ports.EngineLoader) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine load panicked: %v", r)
		}
		if err != nil {
			a.logger.Error(ctx, "engine load failed", "error", err)
			a.publish(ctx, ports.EventEngineLoadFailed, map[string]interface{}{"error": err.Error()})
		}
	}()

	if loader == nil {
		return errors.New("no engine loader provided")
	}
	engine, err := loader(ctx)
	if err != nil {
		return err
	}
	if engine == nil {
		return ErrNilEngine
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The adapter is bound only once the handler is attached, so a control
	// that rejects it leaves the adapter unbound.
	a.handles.Solve.OnClick(a.handleClick)

	a.mu.Lock()
	a.engine = engine
	a.state = Bound
	a.mu.Unlock()

	a.logger.Debug(ctx, "engine bound", "control", KeySolve)
	a.publish(ctx, ports.EventEngineLoaded, map[string]interface{}{"control": KeySolve})
	return nil
}

// OnSolveRequested runs the engine on the given texts, unchanged, and
// returns the text to display: the verdict or the failure reason.
func (a *Adapter) OnSolveRequested(ctx context.Context, model, formula string) (string, error) {
	a.mu.RLock()
	engine := a.engine
	a.mu.RUnlock()
	if engine == nil {
		return "", ErrUnbound
	}

	result := engine.Check(ctx, model, formula)
	if result.IsErr() {
		a.logger.Debug(ctx, "check failed", "reason", result.Text())
	}
	return result.Text(), nil
}

func (a *Adapter) handleClick() {
	ctx := ports.WithCorrelationID(a.baseCtx, ports.GenerateCorrelationID())
	text, err := a.OnSolveRequested(ctx, a.handles.Model.Value(), a.handles.Formula.Value())
	if err != nil {
		a.logger.Warn(ctx, "click ignored", "error", err)
		return
	}
	a.handles.Result.SetText(text)
}

func (a *Adapter) publish(ctx context.Context, eventType string, fields map[string]interface{}) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, ports.Event{Type: eventType, Fields: fields}); err != nil {
		a.logger.Warn(ctx, "event publish failed", "event", eventType, "error", err)
	}
}
