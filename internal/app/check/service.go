// Package check runs model-checking requests end to end: it resolves model
// and formula references, consults the verdict cache, runs the engine and
// publishes lifecycle events.
package check

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

const tracerName = "github.com/alexisbeaulieu97/atlcheck/internal/app/check"

const (
	msgModelSource   = "Failed to read the model."
	msgFormulaSource = "Failed to read the formula."
)

// Dependencies are the ports a Service works with. Cache and Events are
// optional. Tracer defaults to the global OpenTelemetry tracer provider.
type Dependencies struct {
	Sources ports.SourceLoader
	Cache   ports.VerdictCache
	Events  ports.EventPublisher
	Logger  ports.Logger
	Tracer  trace.Tracer
	Now     func() time.Time
}

// Service coordinates model-checking requests.
type Service struct {
	sources ports.SourceLoader
	cache   ports.VerdictCache
	events  ports.EventPublisher
	logger  ports.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Service{
		sources: deps.Sources,
		cache:   deps.Cache,
		events:  deps.Events,
		logger:  logger.With("layer", "application"),
		tracer:  tracer,
		now:     now,
	}
}

// Request names the inputs of a check. FormulaText takes precedence over
// FormulaRef. An empty Options.ModelType is inferred from ModelRef.
type Request struct {
	ModelRef    string
	FormulaRef  string
	FormulaText string
	Options     checker.Options
	// NoCache skips both the cache lookup and the store.
	NoCache bool
}

// Outcome is the result of a successful check.
type Outcome struct {
	Verdict   ports.Verdict
	ModelType checker.ModelType
	Cached    bool
	// Report is nil for cached outcomes.
	Report *checker.Report
}

// Text renders the verdict as "true" or "false".
func (o *Outcome) Text() string {
	if o.Verdict.Satisfied {
		return "true"
	}
	return "false"
}

// Inputs are resolved model and formula texts.
type Inputs struct {
	Model   string
	Formula string
	Options checker.Options
}

// Key digests everything a verdict depends on.
func (in Inputs) Key() string {
	h := sha256.New()
	parts := []string{
		string(in.Options.ModelType),
		string(in.Options.FormulaFormat),
		string(in.Options.Algorithm),
		in.Model,
		in.Formula,
	}
	for _, part := range parts {
		// Length prefixes keep ("ab", "c") and ("a", "bc") apart.
		fmt.Fprintf(h, "%d:%s;", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Resolve loads the referenced model and formula and fills in the model type.
func (s *Service) Resolve(ctx context.Context, req Request) (*Inputs, error) {
	if req.ModelRef == "" {
		return nil, apperrors.NewValidationError("model", "a model reference is required", nil)
	}
	if req.FormulaText == "" && req.FormulaRef == "" {
		return nil, apperrors.NewValidationError("formula", "a formula or formula reference is required", nil)
	}
	if s.sources == nil {
		return nil, apperrors.NewValidationError("sources", "no source loader configured", nil)
	}

	opts := req.Options
	if opts.ModelType == "" {
		modelType, err := checker.ModelTypeFromPath(req.ModelRef)
		if err != nil {
			return nil, apperrors.NewValidationError("model_type", err.Error(), err)
		}
		opts.ModelType = modelType
	}

	model, err := s.sources.Load(ctx, req.ModelRef)
	if err != nil {
		return nil, apperrors.NewCheckError(apperrors.StageSource, msgModelSource, err)
	}
	formula := req.FormulaText
	if formula == "" {
		data, err := s.sources.Load(ctx, req.FormulaRef)
		if err != nil {
			return nil, apperrors.NewCheckError(apperrors.StageSource, msgFormulaSource, err)
		}
		formula = string(data)
	}

	return &Inputs{Model: string(model), Formula: formula, Options: opts}, nil
}

// Check resolves the request, answers it from the cache when possible and
// otherwise runs the engine.
func (s *Service) Check(ctx context.Context, req Request) (*Outcome, error) {
	if ports.GetCorrelationID(ctx) == "" {
		ctx = ports.WithCorrelationID(ctx, ports.GenerateCorrelationID())
	}
	ctx, span := s.tracer.Start(ctx, "check", trace.WithAttributes(
		attribute.String("atlcheck.model", req.ModelRef),
		attribute.String("atlcheck.algorithm", string(req.Options.Algorithm)),
	))
	defer span.End()

	s.publish(ctx, ports.EventCheckStarted, map[string]interface{}{
		"model":   req.ModelRef,
		"formula": formulaLabel(req),
	})

	outcome, err := s.check(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")
		s.logger.Error(ctx, "check failed", "model", req.ModelRef, "error", err)
		s.publish(ctx, ports.EventCheckFailed, map[string]interface{}{
			"model": req.ModelRef,
			"error": err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("atlcheck.satisfied", outcome.Verdict.Satisfied),
		attribute.Bool("atlcheck.cached", outcome.Cached),
		attribute.Int("atlcheck.vertices", outcome.Verdict.Vertices),
	)
	s.publish(ctx, ports.EventCheckCompleted, map[string]interface{}{
		"model":     req.ModelRef,
		"formula":   outcome.Verdict.Formula,
		"satisfied": outcome.Verdict.Satisfied,
		"cached":    outcome.Cached,
	})
	return outcome, nil
}

func (s *Service) check(ctx context.Context, req Request) (*Outcome, error) {
	inputs, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	engine := checker.New(inputs.Options)
	opts := engine.Options()

	useCache := s.cache != nil && !req.NoCache
	key := ""
	if useCache {
		inputs.Options = opts
		key = inputs.Key()
		verdict, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn(ctx, "verdict cache lookup failed", "error", err)
		} else if ok {
			s.logger.Debug(ctx, "verdict served from cache", "key", key)
			return &Outcome{Verdict: *verdict, ModelType: opts.ModelType, Cached: true}, nil
		}
	}

	report, err := engine.Solve(ctx, checker.Request{Model: inputs.Model, Formula: inputs.Formula})
	if err != nil {
		return nil, err
	}

	verdict := ports.Verdict{
		Satisfied: report.Satisfied,
		Formula:   report.Formula,
		Algorithm: string(report.Algorithm),
		Vertices:  report.Stats.Vertices,
		Edges:     report.Stats.Edges,
		Duration:  report.Stats.Duration,
		CheckedAt: s.now().UTC(),
	}
	if useCache {
		if err := s.cache.Put(ctx, key, verdict); err != nil {
			s.logger.Warn(ctx, "verdict cache store failed", "error", err)
		}
	}
	return &Outcome{Verdict: verdict, ModelType: opts.ModelType, Report: report}, nil
}

// Index lists the players and labels of the referenced LCGS model.
func (s *Service) Index(ctx context.Context, modelRef string, opts checker.Options) (string, error) {
	inputs, err := s.Resolve(ctx, Request{ModelRef: modelRef, FormulaText: "true", Options: opts})
	if err != nil {
		return "", err
	}
	return checker.New(inputs.Options).Index(inputs.Model)
}

// Graph writes the dependency graph of the request in Graphviz format and
// returns the rendered formula.
func (s *Service) Graph(ctx context.Context, w io.Writer, req Request) (string, error) {
	inputs, err := s.Resolve(ctx, req)
	if err != nil {
		return "", err
	}
	return checker.New(inputs.Options).Graph(ctx, w, checker.Request{Model: inputs.Model, Formula: inputs.Formula})
}

func formulaLabel(req Request) string {
	if req.FormulaText != "" {
		return req.FormulaText
	}
	return req.FormulaRef
}

func (s *Service) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ports.Event{Type: eventType, Fields: payload}); err != nil {
		s.logger.Warn(ctx, "failed to publish domain event", "event_type", eventType, "error", err)
	}
}
