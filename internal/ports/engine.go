package ports

import "context"

// CheckResult is the tagged outcome of a model-checking call. Exactly one of
// the variants is meaningful: Ok carries the verdict text, Err carries the
// reason the check could not be completed. Front-ends display either text
// verbatim.
type CheckResult struct {
	text string
	err  bool
}

// Ok returns a successful result carrying text.
func Ok(text string) CheckResult { return CheckResult{text: text} }

// Err returns a failed result carrying reason.
func Err(reason string) CheckResult { return CheckResult{text: reason, err: true} }

// IsErr reports whether the result is the Err variant.
func (r CheckResult) IsErr() bool { return r.err }

// Text returns the verdict of an Ok result or the reason of an Err result.
func (r CheckResult) Text() string { return r.text }

func (r CheckResult) String() string {
	if r.err {
		return "Err(" + r.text + ")"
	}
	return "Ok(" + r.text + ")"
}

// Engine decides whether an LCGS model satisfies an ATL formula. Both inputs
// are passed through exactly as the user typed them. Implementations must
// never panic across this boundary; every failure becomes an Err result.
type Engine interface {
	Check(ctx context.Context, model, formula string) CheckResult
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, model, formula string) CheckResult

// Check implements Engine.
func (f EngineFunc) Check(ctx context.Context, model, formula string) CheckResult {
	return f(ctx, model, formula)
}

// EngineLoader produces an Engine, possibly after slow initialisation. It is
// invoked once per front-end.
type EngineLoader func(ctx context.Context) (Engine, error)
