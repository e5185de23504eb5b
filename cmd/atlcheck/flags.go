package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/atlcheck/internal/app/check"
	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/config"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// checkFlags are shared by the commands that load a model and a formula.
type checkFlags struct {
	model         string
	formula       string
	formulaText   string
	modelType     string
	formulaFormat string
	algorithm     string
	strategy      string
	timeout       time.Duration
	threads       int
	output        string
	noCache       bool
}

func bindModelFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().StringVarP(&f.model, "model", "m", os.Getenv("INPUT_MODEL"), "Model file, git::URL//path?ref=branch, or - for stdin")
	cmd.Flags().StringVarP(&f.modelType, "model-type", "t", os.Getenv("MODEL_TYPE"), "Model type: lcgs or json (default from the model's extension)")
}

func bindFormulaFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().StringVarP(&f.formula, "formula", "f", os.Getenv("FORMULA"), "Formula file or git::URL//path?ref=branch")
	cmd.Flags().StringVar(&f.formulaText, "formula-text", "", "Formula given inline; takes precedence over --formula")
	cmd.Flags().StringVarP(&f.formulaFormat, "formula-format", "y", os.Getenv("FORMULA_FORMAT"), "Formula format: atl or json")
}

func bindSolverFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "Fixed-point algorithm: local or global")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Local search strategy: bfs or dfs")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort the check after this long (0 disables)")
	cmd.Flags().IntVar(&f.threads, "threads", envInt("THREADS"), "Goroutines expanding the graph for the local algorithm (0 uses the config)")
}

func envInt(name string) int {
	value, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return value
}

// options layers the flags over the configuration file.
func (f *checkFlags) options(cfg *config.Config, logger ports.Logger) (checker.Options, error) {
	merged := *cfg
	if f.algorithm != "" {
		merged.Solver.Algorithm = f.algorithm
	}
	if f.strategy != "" {
		merged.Solver.Strategy = f.strategy
	}
	if f.timeout > 0 {
		merged.Solver.Timeout = f.timeout
	}
	if f.threads < 0 {
		return checker.Options{}, fmt.Errorf("invalid --threads %d: must not be negative", f.threads)
	}
	if f.threads > 0 {
		merged.Solver.Threads = f.threads
	}
	if f.formulaFormat != "" {
		merged.Input.FormulaFormat = strings.ToLower(f.formulaFormat)
	}

	var modelType checker.ModelType
	if f.modelType != "" {
		parsed, err := checker.ParseModelType(f.modelType)
		if err != nil {
			return checker.Options{}, fmt.Errorf("invalid --model-type: %w", err)
		}
		modelType = parsed
	}
	return merged.CheckerOptions(modelType, logger)
}

func (f *checkFlags) request(opts checker.Options) check.Request {
	return check.Request{
		ModelRef:    f.model,
		FormulaRef:  f.formula,
		FormulaText: f.formulaText,
		Options:     opts,
		NoCache:     f.noCache,
	}
}
