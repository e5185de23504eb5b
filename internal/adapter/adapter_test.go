package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

type fakeInput struct{ text string }

func (f *fakeInput) Value() string { return f.text }

type fakeOutput struct {
	mu     sync.Mutex
	text   string
	writes int
}

func (f *fakeOutput) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.writes++
}

func (f *fakeOutput) snapshot() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.writes
}

// fakeControl records attached handlers; Click runs all of them.
type fakeControl struct {
	mu       sync.Mutex
	handlers []func()
}

func (f *fakeControl) OnClick(handler func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
}

func (f *fakeControl) Click() {
	f.mu.Lock()
	handlers := append([]func(){}, f.handlers...)
	f.mu.Unlock()
	for _, handler := range handlers {
		handler()
	}
}

func (f *fakeControl) attached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type logEntry struct {
	level  string
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l recordingLogger) record(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l recordingLogger) Debug(_ context.Context, msg string, fields ...interface{}) {
	l.record("debug", msg, fields)
}
func (l recordingLogger) Info(_ context.Context, msg string, fields ...interface{}) {
	l.record("info", msg, fields)
}
func (l recordingLogger) Warn(_ context.Context, msg string, fields ...interface{}) {
	l.record("warn", msg, fields)
}
func (l recordingLogger) Error(_ context.Context, msg string, fields ...interface{}) {
	l.record("error", msg, fields)
}
func (l recordingLogger) With(...interface{}) ports.Logger { return l }

func (l recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, entry := range *l.entries {
		if entry.level == level {
			out = append(out, entry)
		}
	}
	return out
}

// recordingEngine returns a fixed result and remembers its inputs.
type recordingEngine struct {
	mu     sync.Mutex
	result ports.CheckResult
	calls  [][2]string
}

func (e *recordingEngine) Check(_ context.Context, model, formula string) ports.CheckResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, [2]string{model, formula})
	return e.result
}

func loaderFor(engine ports.Engine) ports.EngineLoader {
	return func(context.Context) (ports.Engine, error) { return engine, nil }
}

type fixture struct {
	model   *fakeInput
	formula *fakeInput
	solve   *fakeControl
	result  *fakeOutput
	logger  recordingLogger
	adapter *Adapter
}

func newFixture(t *testing.T, model, formula string) *fixture {
	t.Helper()
	f := &fixture{
		model:   &fakeInput{text: model},
		formula: &fakeInput{text: formula},
		solve:   &fakeControl{},
		result:  &fakeOutput{},
		logger:  newRecordingLogger(),
	}
	a, err := New(Handles{Model: f.model, Formula: f.formula, Solve: f.solve, Result: f.result}, WithLogger(f.logger))
	require.NoError(t, err)
	f.adapter = a
	return f
}

func waitLoad(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("load did not resolve")
		return nil
	}
}

func TestNewRejectsMissingHandles(t *testing.T) {
	t.Parallel()

	complete := Handles{Model: &fakeInput{}, Formula: &fakeInput{}, Solve: &fakeControl{}, Result: &fakeOutput{}}
	tests := map[string]func(*Handles){
		KeyModel:   func(h *Handles) { h.Model = nil },
		KeyFormula: func(h *Handles) { h.Formula = nil },
		KeySolve:   func(h *Handles) { h.Solve = nil },
		KeyResult:  func(h *Handles) { h.Result = nil },
	}

	for key, drop := range tests {
		handles := complete
		drop(&handles)
		_, err := New(handles)

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr, key)
		assert.Equal(t, key, validationErr.Field)
	}
}

func TestStartsUnbound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	assert.Equal(t, Unbound, f.adapter.State())
	assert.Equal(t, "unbound", f.adapter.State().String())
	assert.Equal(t, 0, f.solve.attached())

	_, err := f.adapter.OnSolveRequested(context.Background(), "m", "f")
	require.ErrorIs(t, err, ErrUnbound)
}

// A successful load attaches exactly one handler, once.
func TestLoadBindsExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	engine := &recordingEngine{result: ports.Ok("true")}

	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))
	assert.Equal(t, Bound, f.adapter.State())
	assert.Equal(t, 1, f.solve.attached())

	err := waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine)))
	require.ErrorIs(t, err, ErrAlreadyLoading)
	assert.Equal(t, 1, f.solve.attached())
	assert.Equal(t, Bound, f.adapter.State())
}

func TestLoadChannelResolvesOnceAndCloses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	done := f.adapter.Load(context.Background(), loaderFor(&recordingEngine{}))
	require.NoError(t, waitLoad(t, done))
	_, open := <-done
	assert.False(t, open)
}

func TestConcurrentLoadsBindOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	engine := &recordingEngine{result: ports.Ok("true")}

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine)))
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyLoading)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, f.solve.attached())
}

// Properties 2 and 3: inputs reach the engine unchanged and its text is
// displayed unchanged.
func TestClickPassesThroughExactly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		model   string
		formula string
		result  ports.CheckResult
	}{
		{name: "whitespace kept", model: "  player p1 = t;\n\n", formula: "\t<<p1>> F goal ", result: ports.Ok("false")},
		{name: "markup kept", model: "<b>&amp;</b>", formula: `"quoted"`, result: ports.Ok("<i>true</i>")},
		{name: "error reason verbatim", model: "x", formula: "y", result: ports.Err("Invalid LCGS program.\nvalidation error: p: unknown template 't'")},
		{name: "unicode", model: "label ✓ = 1;", formula: "⟨⟨p⟩⟩", result: ports.Ok("résultat ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, tt.model, tt.formula)
			engine := &recordingEngine{result: tt.result}
			require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

			f.solve.Click()

			require.Len(t, engine.calls, 1)
			assert.Equal(t, [2]string{tt.model, tt.formula}, engine.calls[0])
			text, writes := f.result.snapshot()
			assert.Equal(t, tt.result.Text(), text)
			assert.Equal(t, 1, writes)
		})
	}
}

func TestEachClickWritesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	engine := &recordingEngine{result: ports.Ok("true")}
	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

	for i := 0; i < 3; i++ {
		f.solve.Click()
	}
	_, writes := f.result.snapshot()
	assert.Equal(t, 3, writes)
	assert.Len(t, engine.calls, 3)
}

// Fields are read at click time, not at bind time.
func TestClickReadsCurrentValues(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "before", "before")
	engine := &recordingEngine{result: ports.Ok("true")}
	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

	f.model.text = "after model"
	f.formula.text = "after formula"
	f.solve.Click()

	require.Len(t, engine.calls, 1)
	assert.Equal(t, [2]string{"after model", "after formula"}, engine.calls[0])
}

// A failed load leaves the control inert.
func TestLoadFailureIsContained(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "m", "f")
	f.result.SetText("previous")
	loadErr := errors.New("module import rejected")

	err := waitLoad(t, f.adapter.Load(context.Background(), func(context.Context) (ports.Engine, error) {
		return nil, loadErr
	}))
	require.ErrorIs(t, err, loadErr)

	assert.Equal(t, Unbound, f.adapter.State())
	assert.Equal(t, 0, f.solve.attached())

	failures := f.logger.byLevel("error")
	require.Len(t, failures, 1)
	assert.Equal(t, "engine load failed", failures[0].msg)
	assert.Equal(t, []interface{}{"error", loadErr}, failures[0].fields)

	f.solve.Click()
	text, writes := f.result.snapshot()
	assert.Equal(t, "previous", text)
	assert.Equal(t, 1, writes)
	assert.Len(t, f.logger.byLevel("error"), 1, "clicks after a failed load must not fail again")

	err = waitLoad(t, f.adapter.Load(context.Background(), loaderFor(&recordingEngine{})))
	require.ErrorIs(t, err, ErrAlreadyLoading)
	assert.Equal(t, Unbound, f.adapter.State())
}

func TestLoadFailureModes(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		loader ports.EngineLoader
		want   string
	}{
		{name: "nil loader", ctx: context.Background(), want: "no engine loader provided"},
		{
			name:   "nil engine",
			ctx:    context.Background(),
			loader: func(context.Context) (ports.Engine, error) { return nil, nil },
			want:   ErrNilEngine.Error(),
		},
		{
			name:   "panic",
			ctx:    context.Background(),
			loader: func(context.Context) (ports.Engine, error) { panic("boom") },
			want:   "engine load panicked: boom",
		},
		{
			name:   "cancelled",
			ctx:    cancelled,
			loader: loaderFor(&recordingEngine{}),
			want:   context.Canceled.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "m", "f")
			err := waitLoad(t, f.adapter.Load(tt.ctx, tt.loader))
			require.EqualError(t, err, tt.want)
			assert.Equal(t, Unbound, f.adapter.State())
			assert.Equal(t, 0, f.solve.attached())
			assert.Len(t, f.logger.byLevel("error"), 1)
		})
	}
}

// A satisfied formula shows the engine's verdict in the result output.
// panickingControl rejects every handler.
type panickingControl struct{}

func (panickingControl) OnClick(func()) { panic("control detached") }

func TestLoadStaysUnboundWhenAttachingPanics(t *testing.T) {
	t.Parallel()

	logger := newRecordingLogger()
	engine := &recordingEngine{result: ports.Ok("true")}
	a, err := New(Handles{Model: &fakeInput{text: "m"}, Formula: &fakeInput{text: "f"}, Solve: panickingControl{}, Result: &fakeOutput{}},
		WithLogger(logger))
	require.NoError(t, err)

	err = waitLoad(t, a.Load(context.Background(), loaderFor(engine)))
	require.EqualError(t, err, "engine load panicked: control detached")
	assert.Equal(t, Unbound, a.State())
	assert.Len(t, logger.byLevel("error"), 1)

	_, err = a.OnSolveRequested(context.Background(), "m", "f")
	require.ErrorIs(t, err, ErrUnbound)
	assert.Empty(t, engine.calls)
}

func TestClickDisplaysVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "player p1 = shooter [target=p2];", "<p1> F goal")
	engine := &recordingEngine{result: ports.Ok("true")}
	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

	f.solve.Click()
	text, _ := f.result.snapshot()
	assert.Equal(t, "true", text)
}

// Empty inputs reach the engine unchanged and its failure text is displayed.
func TestClickPassesEmptyInputs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "", "")
	engine := &recordingEngine{result: ports.Ok("parse error: empty model")}
	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

	f.solve.Click()
	require.Len(t, engine.calls, 1)
	assert.Equal(t, [2]string{"", ""}, engine.calls[0])
	text, _ := f.result.snapshot()
	assert.Equal(t, "parse error: empty model", text)
}

func TestOnSolveRequestedReturnsErrText(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "", "")
	engine := ports.EngineFunc(func(_ context.Context, model, formula string) ports.CheckResult {
		return ports.Err("cannot check " + model + formula)
	})
	require.NoError(t, waitLoad(t, f.adapter.Load(context.Background(), loaderFor(engine))))

	text, err := f.adapter.OnSolveRequested(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "cannot check ab", text)
}

func TestLoadPublishesEvents(t *testing.T) {
	t.Parallel()

	publisher := events.NewPublisher(logging.Discard())
	var mu sync.Mutex
	var seen []string
	record := func(_ context.Context, event ports.DomainEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, event.EventType())
		return nil
	}
	_, err := publisher.Subscribe(ports.EventEngineLoaded, record)
	require.NoError(t, err)
	_, err = publisher.Subscribe(ports.EventEngineLoadFailed, record)
	require.NoError(t, err)

	handles := func() Handles {
		return Handles{Model: &fakeInput{}, Formula: &fakeInput{}, Solve: &fakeControl{}, Result: &fakeOutput{}}
	}

	ok, err := New(handles(), WithPublisher(publisher))
	require.NoError(t, err)
	require.NoError(t, waitLoad(t, ok.Load(context.Background(), loaderFor(&recordingEngine{}))))

	failing, err := New(handles(), WithPublisher(publisher))
	require.NoError(t, err)
	require.Error(t, waitLoad(t, failing.Load(context.Background(), func(context.Context) (ports.Engine, error) {
		return nil, errors.New("offline")
	})))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{ports.EventEngineLoaded, ports.EventEngineLoadFailed}, seen)
}
