package tui

import (
	"sync"

	"github.com/alexisbeaulieu97/atlcheck/internal/adapter"
)

// Bindings is the terminal rendition of the page elements the adapter works
// with. The Bubble Tea model mirrors its editors into it after every update,
// so reads from the adapter always see what the user typed last.
type Bindings struct {
	mu      sync.Mutex
	model   string
	formula string
	result  string
	writes  int
	onClick func()
}

// NewBindings creates empty bindings.
func NewBindings() *Bindings {
	return &Bindings{}
}

// Handles exposes the bindings as adapter handles.
func (b *Bindings) Handles() adapter.Handles {
	return adapter.Handles{
		Model:   field{b: b, formula: false},
		Formula: field{b: b, formula: true},
		Solve:   control{b: b},
		Result:  output{b: b},
	}
}

func (b *Bindings) setInputs(model, formula string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
	b.formula = formula
}

// Bound reports whether a click handler is attached.
func (b *Bindings) Bound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.onClick != nil
}

// Click runs the attached handler, if any, and reports whether one ran.
func (b *Bindings) Click() bool {
	b.mu.Lock()
	handler := b.onClick
	b.mu.Unlock()
	if handler == nil {
		return false
	}
	handler()
	return true
}

// Result returns the displayed result and how many times it was written.
func (b *Bindings) Result() (string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result, b.writes
}

type field struct {
	b       *Bindings
	formula bool
}

func (f field) Value() string {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.formula {
		return f.b.formula
	}
	return f.b.model
}

type control struct{ b *Bindings }

func (c control) OnClick(handler func()) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.onClick = handler
}

type output struct{ b *Bindings }

func (o output) SetText(text string) {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	o.b.result = text
	o.b.writes++
}
