// Package checker ties the LCGS front-end, the ATL dependency graph and the
// fixed-point solvers together behind a single entry point.
package checker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/alexisbeaulieu97/atlcheck/internal/atl"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/lcgs"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

// Headlines shown before the underlying error.
const (
	msgModelParse    = "Failed to parse the LCGS program."
	msgModelBuild    = "Invalid LCGS program."
	msgModelDecode   = "Failed to deserialize input model."
	msgFormulaParse  = "Invalid ATL formula provided."
	msgFormulaDecode = "Failed to deserialize formula."
	msgSolve         = "Model checking failed."
	msgInternal      = "Internal error while checking the model."
)

// Request is a single model-checking question.
type Request struct {
	Model   string
	Formula string
}

// Report describes the outcome of Solve.
type Report struct {
	Satisfied bool
	// Formula is rendered with the model's player and label names.
	Formula   string
	Algorithm Algorithm
	Strategy  edg.Strategy
	Stats     edg.Stats
}

// Verdict renders the satisfaction result the way front-ends display it.
func (r *Report) Verdict() string {
	if r.Satisfied {
		return "true"
	}
	return "false"
}

// Engine checks ATL formulas against game models. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	opts   Options
	logger ports.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		opts:   opts,
		logger: logger.With("component", "engine"),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Model is a parsed game together with the names used to resolve and render
// formulas.
type Model struct {
	Type ModelType
	Game atl.GameStructure
	// LCGS is set for LCGS models.
	LCGS *lcgs.Game
}

func (m *Model) resolver() atl.Resolver {
	if m.LCGS != nil {
		return m.LCGS
	}
	if eager, ok := m.Game.(*atl.EagerGameStructure); ok {
		return eager
	}
	return nil
}

// Render renders phi with the model's names when it has any.
func (m *Model) Render(phi *atl.Phi) string {
	if m.LCGS != nil {
		return phi.Render(m.LCGS)
	}
	return phi.String()
}

// LoadModel parses model text of the engine's model type.
func (e *Engine) LoadModel(text string) (*Model, error) {
	switch e.opts.ModelType {
	case ModelJSON:
		game, err := atl.ParseGameJSON([]byte(text))
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageModelParse, msgModelDecode, err)
		}
		return &Model{Type: ModelJSON, Game: game}, nil
	default:
		root, err := lcgs.Parse(text)
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageModelParse, msgModelParse, err)
		}
		game, err := lcgs.Build(root)
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageModelBuild, msgModelBuild, err)
		}
		return &Model{Type: ModelLCGS, Game: game, LCGS: game}, nil
	}
}

// ParseFormula parses formula text of the engine's formula format against
// model.
func (e *Engine) ParseFormula(model *Model, text string) (*atl.Phi, error) {
	var (
		phi *atl.Phi
		err error
	)
	switch e.opts.FormulaFormat {
	case FormulaJSON:
		phi, err = atl.ParseJSON([]byte(text))
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageFormulaParse, msgFormulaDecode, err)
		}
	default:
		phi, err = atl.ParseATL(model.resolver(), text)
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageFormulaParse, msgFormulaParse, err)
		}
	}
	if err := phi.Validate(model.Game.PlayerCount()); err != nil {
		return nil, apperrors.NewCheckError(apperrors.StageFormulaParse, msgFormulaParse, err)
	}
	return phi, nil
}

// Solve parses both inputs and decides whether the formula holds in the
// model's initial state. A panic inside the engine is returned as an error
// of the solve stage.
func (e *Engine) Solve(ctx context.Context, req Request) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "engine panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			report, err = nil, apperrors.NewCheckError(apperrors.StageSolve, msgInternal, fmt.Errorf("%v", r))
		}
	}()

	model, err := e.LoadModel(req.Model)
	if err != nil {
		e.logger.Debug(ctx, "model rejected", "model_type", string(e.opts.ModelType), "error", err)
		return nil, err
	}
	phi, err := e.ParseFormula(model, req.Formula)
	if err != nil {
		e.logger.Debug(ctx, "formula rejected", "formula_format", string(e.opts.FormulaFormat), "error", err)
		return nil, err
	}
	return e.SolveFormula(ctx, model, phi)
}

// SolveFormula decides phi on an already loaded model.
func (e *Engine) SolveFormula(ctx context.Context, model *Model, phi *atl.Phi) (*Report, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	rendered := model.Render(phi)
	e.logger.Debug(ctx, "checking formula", "formula", rendered, "algorithm", string(e.opts.Algorithm), "threads", e.opts.Threads)

	graph := atl.NewGraph(model.Game)
	root := graph.Root(phi)

	var (
		satisfied bool
		stats     edg.Stats
		err       error
	)
	switch e.opts.Algorithm {
	case AlgorithmGlobal:
		satisfied, stats, err = edg.SolveGlobal[atl.Vertex](ctx, graph, root)
	default:
		satisfied, stats, err = edg.SolveParallel[atl.Vertex](ctx, graph, root, e.opts.Strategy, e.opts.Threads)
	}
	if err != nil {
		return nil, apperrors.NewCheckError(apperrors.StageSolve, msgSolve, err)
	}

	e.logger.Info(ctx, "formula checked",
		"formula", rendered,
		"satisfied", satisfied,
		"algorithm", string(e.opts.Algorithm),
		"vertices", stats.Vertices,
		"edges", stats.Edges,
		"duration_ms", stats.Duration.Milliseconds(),
	)

	return &Report{
		Satisfied: satisfied,
		Formula:   rendered,
		Algorithm: e.opts.Algorithm,
		Strategy:  e.opts.Strategy,
		Stats:     stats,
	}, nil
}

// Check implements ports.Engine. The verdict is "true" or "false"; every
// failure, including a panic inside the engine, becomes an Err result whose
// text is the error message.
func (e *Engine) Check(ctx context.Context, model, formula string) ports.CheckResult {
	start := time.Now()
	report, err := e.Solve(ctx, Request{Model: model, Formula: formula})
	if err != nil {
		return ports.Err(err.Error())
	}
	e.logger.Debug(ctx, "check finished", "elapsed", time.Since(start))
	return ports.Ok(report.Verdict())
}

var _ ports.Engine = (*Engine)(nil)
