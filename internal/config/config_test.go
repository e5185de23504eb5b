package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "local", cfg.Solver.Algorithm)
	assert.Equal(t, "bfs", cfg.Solver.Strategy)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "verdicts.json", filepath.Base(cfg.Cache.Path))

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
solver:
  algorithm: global
  timeout: 30s
  threads: 4
input:
  model_type: json
log:
  level: debug
  human: true
cache:
  enabled: true
  path: /tmp/atlcheck/verdicts.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "global", cfg.Solver.Algorithm)
	assert.Equal(t, "bfs", cfg.Solver.Strategy, "missing keys keep their defaults")
	assert.Equal(t, 30*time.Second, cfg.Solver.Timeout)
	assert.Equal(t, 4, cfg.Solver.Threads)
	assert.Equal(t, "json", cfg.Input.ModelType)
	assert.Equal(t, "atl", cfg.Input.FormulaFormat)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Human)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/atlcheck/verdicts.json", cfg.Cache.Path)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		tag   string
	}{
		{name: "missing version", body: "version: \"\"\n", field: "version", tag: "required"},
		{name: "bad version", body: "version: one\n", field: "version", tag: "semver"},
		{name: "unknown algorithm", body: "version: 1.0.0\nsolver:\n  algorithm: parallel\n", field: "solver.algorithm", tag: "algorithm"},
		{name: "unknown strategy", body: "version: 1.0.0\nsolver:\n  strategy: random\n", field: "solver.strategy", tag: "strategy"},
		{name: "negative timeout", body: "version: 1.0.0\nsolver:\n  timeout: -1s\n", field: "solver.timeout", tag: "gte"},
		{name: "negative threads", body: "version: 1.0.0\nsolver:\n  threads: -2\n", field: "solver.threads", tag: "gte"},
		{name: "unknown model type", body: "version: 1.0.0\ninput:\n  model_type: xml\n", field: "input.model_type", tag: "oneof"},
		{name: "unknown formula format", body: "version: 1.0.0\ninput:\n  formula_format: ltl\n", field: "input.formula_format", tag: "oneof"},
		{name: "unknown level", body: "version: 1.0.0\nlog:\n  level: loud\n", field: "log.level", tag: "oneof"},
		{name: "cache without path", body: "version: 1.0.0\ncache:\n  enabled: true\n  path: \"\"\n", field: "cache.path", tag: "required_if"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)

			var validationErr *apperrors.ValidationError
			require.True(t, errors.As(err, &validationErr), "expected validation error, got %T", err)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Contains(t, validationErr.Message, "'"+tt.tag+"'")
		})
	}
}

func TestLoadParseErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, parseErr.Line)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "version: 1.0.0\nsolver:\n  timeout: [1\n"))
	require.ErrorAs(t, err, &parseErr)
	assert.Positive(t, parseErr.Line)

	_, err = Load(writeConfig(t, "version: 1.0.0\nsolver:\n  timeout: soon\n"))
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, "", Discover(dir))

	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1.0.0\n"), 0o644))
	assert.Equal(t, path, Discover(dir))
}

func TestCheckerOptions(t *testing.T) {
	cfg := Default()
	cfg.Solver.Algorithm = "global"
	cfg.Solver.Strategy = "dfs"
	cfg.Solver.Timeout = time.Minute
	cfg.Solver.Threads = 3
	cfg.Input.ModelType = "json"
	cfg.Input.FormulaFormat = "json"

	opts, err := cfg.CheckerOptions("", nil)
	require.NoError(t, err)
	assert.Equal(t, checker.AlgorithmGlobal, opts.Algorithm)
	assert.Equal(t, edg.DFS, opts.Strategy)
	assert.Equal(t, checker.ModelJSON, opts.ModelType)
	assert.Equal(t, checker.FormulaJSON, opts.FormulaFormat)
	assert.Equal(t, time.Minute, opts.Timeout)
	assert.Equal(t, 3, opts.Threads)

	opts, err = cfg.CheckerOptions(checker.ModelLCGS, nil)
	require.NoError(t, err)
	assert.Equal(t, checker.ModelLCGS, opts.ModelType)

	cfg.Input.ModelType = ""
	opts, err = cfg.CheckerOptions("", nil)
	require.NoError(t, err)
	assert.Empty(t, opts.ModelType)

	cfg.Solver.Strategy = "random"
	_, err = cfg.CheckerOptions("", nil)
	require.ErrorContains(t, err, "unknown search strategy")
}
