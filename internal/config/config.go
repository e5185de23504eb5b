// Package config loads the optional atlcheck configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// DefaultFileName is looked up in the working directory and then in the home
// directory when no --config flag is given.
const DefaultFileName = ".atlcheck.yaml"

// CurrentVersion is written by Default.
const CurrentVersion = "1.0.0"

// Config represents the atlcheck configuration document.
type Config struct {
	Version string `yaml:"version" validate:"required,semver"`
	Solver  Solver `yaml:"solver"`
	Input   Input  `yaml:"input"`
	Log     Log    `yaml:"log"`
	Cache   Cache  `yaml:"cache"`
}

// Solver selects the fixed-point algorithm.
type Solver struct {
	Algorithm string        `yaml:"algorithm" validate:"algorithm"`
	Strategy  string        `yaml:"strategy" validate:"strategy"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	// Threads above one expands the graph on that many goroutines.
	Threads int `yaml:"threads" validate:"gte=0"`
}

// Input fixes the syntax of models and formulas. An empty model type is
// inferred from the model's file extension.
type Input struct {
	ModelType     string `yaml:"model_type" validate:"omitempty,oneof=lcgs json"`
	FormulaFormat string `yaml:"formula_format" validate:"omitempty,oneof=atl json"`
}

// Log configures diagnostics.
type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Human bool   `yaml:"human"`
}

// Cache configures the verdict cache.
type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Solver: Solver{
			Algorithm: string(checker.AlgorithmLocal),
			Strategy:  string(edg.BFS),
		},
		Input: Input{FormulaFormat: string(checker.FormulaATL)},
		Log:   Log{Level: "warn"},
		Cache: Cache{Path: DefaultCachePath()},
	}
}

// DefaultCachePath places the verdict cache in the user cache directory.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "atlcheck", "verdicts.json")
}

// CheckerOptions converts the solver and input sections into engine options.
// modelType overrides Input.ModelType when set. When neither is set the model
// type stays empty so callers can infer it from the model reference.
func (c *Config) CheckerOptions(modelType checker.ModelType, logger ports.Logger) (checker.Options, error) {
	algorithm, err := checker.ParseAlgorithm(c.Solver.Algorithm)
	if err != nil {
		return checker.Options{}, err
	}
	strategy, err := edg.ParseStrategy(c.Solver.Strategy)
	if err != nil {
		return checker.Options{}, err
	}
	if modelType == "" && c.Input.ModelType != "" {
		if modelType, err = checker.ParseModelType(c.Input.ModelType); err != nil {
			return checker.Options{}, err
		}
	}
	format, err := checker.ParseFormulaFormat(c.Input.FormulaFormat)
	if err != nil {
		return checker.Options{}, err
	}

	return checker.Options{
		Algorithm:     algorithm,
		Strategy:      strategy,
		ModelType:     modelType,
		FormulaFormat: format,
		Timeout:       c.Solver.Timeout,
		Threads:       c.Solver.Threads,
		Logger:        logger,
	}, nil
}
