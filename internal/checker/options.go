package checker

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// Algorithm selects the fixed-point solver.
type Algorithm string

const (
	// AlgorithmLocal explores on demand and stops once the root is certain.
	AlgorithmLocal Algorithm = "local"
	// AlgorithmGlobal explores the whole reachable graph first.
	AlgorithmGlobal Algorithm = "global"
)

// Algorithms lists the supported algorithms.
var Algorithms = []Algorithm{AlgorithmLocal, AlgorithmGlobal}

// ParseAlgorithm resolves an algorithm name. The empty string selects the
// local algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", AlgorithmLocal:
		return AlgorithmLocal, nil
	case AlgorithmGlobal:
		return AlgorithmGlobal, nil
	}
	return "", fmt.Errorf("unknown algorithm %q (expected local or global)", name)
}

// ModelType identifies the model syntax.
type ModelType string

const (
	ModelLCGS ModelType = "lcgs"
	ModelJSON ModelType = "json"
)

// ParseModelType resolves a model type name. The empty string selects LCGS.
func ParseModelType(name string) (ModelType, error) {
	switch ModelType(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModelLCGS:
		return ModelLCGS, nil
	case ModelJSON:
		return ModelJSON, nil
	}
	return "", fmt.Errorf("invalid model type '%s'. Use either \"lcgs\" or \"json\"", name)
}

// ModelTypeFromPath infers the model type from a file extension.
func ModelTypeFromPath(path string) (ModelType, error) {
	switch strings.ToLower(filepath.Ext(strings.SplitN(path, "?", 2)[0])) {
	case ".lcgs":
		return ModelLCGS, nil
	case ".json":
		return ModelJSON, nil
	}
	return "", fmt.Errorf("cannot infer model type from the extension of %q; specify it with --model-type", path)
}

// FormulaFormat identifies the formula syntax.
type FormulaFormat string

const (
	FormulaATL  FormulaFormat = "atl"
	FormulaJSON FormulaFormat = "json"
)

// ParseFormulaFormat resolves a formula format name. The empty string selects
// the textual ATL syntax.
func ParseFormulaFormat(name string) (FormulaFormat, error) {
	switch FormulaFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormulaATL:
		return FormulaATL, nil
	case FormulaJSON:
		return FormulaJSON, nil
	}
	return "", fmt.Errorf("invalid formula format '%s'. Use either \"atl\" or \"json\"", name)
}

// Options configures an Engine. Zero values select the defaults: local
// algorithm, breadth-first search, LCGS models, ATL text formulas and no
// timeout.
type Options struct {
	Algorithm     Algorithm
	Strategy      edg.Strategy
	ModelType     ModelType
	FormulaFormat FormulaFormat
	Timeout       time.Duration
	Logger        ports.Logger

	// Threads is the number of goroutines expanding the dependency graph for
	// the local algorithm. Zero or one solves on the calling goroutine.
	Threads int
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = AlgorithmLocal
	}
	if o.Strategy == "" {
		o.Strategy = edg.BFS
	}
	if o.ModelType == "" {
		o.ModelType = ModelLCGS
	}
	if o.FormulaFormat == "" {
		o.FormulaFormat = FormulaATL
	}
	return o
}
