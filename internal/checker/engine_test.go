package checker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

const shooterModel = `
const max_health = 1;
template shooter (target)
    health : [0 .. max_health] init max_health;
    health' = health - target.shoot;
    label alive = health > 0;
    [wait] 1;
    [shoot] health > 0;
endtemplate
player p1 = shooter [target=p2];
player p2 = shooter [target=p1];
label both = p1.health > 0 && p2.health > 0;
`

const gateModel = `{
	"player_count": 2,
	"labeling":     [[], [0], [1]],
	"transitions":  [[[1, 2], [2, 2]], [[1]], [[2]]]
}`

func TestCheckTextVerdicts(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"both":                      "true",
		"<<p1>> X !p2.alive":        "true",
		"<<p1>> F !p2.alive":        "true",
		"<<p1>> X p1.alive":         "false",
		"<<p1>> G p1.alive":         "false",
		"<<p1, p2>> G both":         "true",
		"<<>> G both":               "false",
		"[[p1]] F !p1.alive":        "true",
		"<<p2>> (both U !p1.alive)": "true",
		"<<0>> X !2":                "true",
	}
	for formula, want := range cases {
		require.Equal(t, want, CheckText(shooterModel, formula), formula)
	}
}

func TestCheckTextFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		model    string
		formula  string
		headline string
		detail   string
	}{
		{
			name:     "syntax error in model",
			model:    "player p1 = ;",
			formula:  "true",
			headline: "Failed to parse the LCGS program.\n",
			detail:   "lcgs:1:13",
		},
		{
			name:     "semantic error in model",
			model:    "player p1 = missing;",
			formula:  "true",
			headline: "Invalid LCGS program.\n",
			detail:   "missing",
		},
		{
			name:     "unknown player in formula",
			model:    shooterModel,
			formula:  "<<p3>> F both",
			headline: "Invalid ATL formula provided.\n",
			detail:   "unknown player 'p3'",
		},
		{
			name:     "player index out of range",
			model:    shooterModel,
			formula:  "<<4>> F both",
			headline: "Invalid ATL formula provided.\n",
			detail:   "player index 4 is out of range, the model has 2 players",
		},
		{
			name:     "empty inputs",
			model:    "",
			formula:  "",
			headline: "Invalid ATL formula provided.\n",
			detail:   "expected formula, found end of formula",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			text := CheckText(tc.model, tc.formula)
			require.True(t, strings.HasPrefix(text, tc.headline), text)
			require.Contains(t, text, tc.detail)
		})
	}
}

func TestCheckEmptyModel(t *testing.T) {
	t.Parallel()

	result := New(Options{}).Check(context.Background(), "", "true")
	require.False(t, result.IsErr())
	require.Equal(t, "true", result.Text())
}

func TestSolveReportsStages(t *testing.T) {
	t.Parallel()

	engine := New(Options{})
	_, err := engine.Solve(context.Background(), Request{Model: "label = ;", Formula: "true"})

	var checkErr *apperrors.CheckError
	require.ErrorAs(t, err, &checkErr)
	require.Equal(t, apperrors.StageModelParse, checkErr.Stage)

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "lcgs", parseErr.Path)

	_, err = engine.Solve(context.Background(), Request{Model: "player p = t;", Formula: "true"})
	require.ErrorAs(t, err, &checkErr)
	require.Equal(t, apperrors.StageModelBuild, checkErr.Stage)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestSolveReport(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs, Level: "debug"})
	require.NoError(t, err)

	engine := New(Options{Logger: logger, Strategy: edg.DFS})
	report, err := engine.Solve(context.Background(), Request{Model: shooterModel, Formula: "<<p1>> X !p2.alive"})
	require.NoError(t, err)

	require.True(t, report.Satisfied)
	require.Equal(t, "true", report.Verdict())
	require.Equal(t, "<<p1>> X !(p2.alive)", report.Formula)
	require.Equal(t, AlgorithmLocal, report.Algorithm)
	require.Equal(t, edg.DFS, report.Strategy)
	require.Positive(t, report.Stats.Vertices)
	require.Positive(t, report.Stats.Edges)

	require.Contains(t, logs.String(), `"message":"formula checked"`)
	require.Contains(t, logs.String(), `"component":"engine"`)
}

func TestAlgorithmsAgree(t *testing.T) {
	t.Parallel()

	formulas := []string{
		"<<p1>> F !p2.alive",
		"<<p1>> G p1.alive",
		"[[p2]] G (p1.alive | p2.alive)",
		"<<p1,p2>> X <<>> G both",
		"!<<p2>> F !p1.alive & [[]] X both",
	}

	local := New(Options{Algorithm: AlgorithmLocal})
	global := New(Options{Algorithm: AlgorithmGlobal})
	threaded := New(Options{Algorithm: AlgorithmLocal, Strategy: edg.DFS, Threads: 4})
	for _, formula := range formulas {
		want := global.Check(context.Background(), shooterModel, formula)
		require.False(t, want.IsErr(), want.Text())
		require.Equal(t, want, local.Check(context.Background(), shooterModel, formula), formula)
		require.Equal(t, want, threaded.Check(context.Background(), shooterModel, formula), "threaded: %s", formula)
	}
}

func TestThreadedSolveExpandsReachableGraph(t *testing.T) {
	t.Parallel()

	req := Request{Model: shooterModel, Formula: "<<p1>> F !p2.alive"}
	global, err := New(Options{Algorithm: AlgorithmGlobal}).Solve(context.Background(), req)
	require.NoError(t, err)
	threaded, err := New(Options{Threads: 3}).Solve(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, global.Satisfied, threaded.Satisfied)
	require.Equal(t, global.Stats.Vertices, threaded.Stats.Vertices)
	require.Equal(t, global.Stats.Edges, threaded.Stats.Edges)
}

func TestCheckRejectsRangesThatOverflow(t *testing.T) {
	t.Parallel()

	engine := New(Options{})
	model := "const a = 9223372036854775807; x : [-a-1 .. a] init 0;"

	result := engine.Check(context.Background(), model, "true")
	require.True(t, result.IsErr())
	require.True(t, strings.HasPrefix(result.Text(), "Invalid LCGS program.\n"), result.Text())
	require.Contains(t, result.Text(), "exceeds 2147483647 states")

	_, err := engine.Solve(context.Background(), Request{Model: model, Formula: "true"})
	var checkErr *apperrors.CheckError
	require.ErrorAs(t, err, &checkErr)
	require.Equal(t, apperrors.StageModelBuild, checkErr.Stage)
}

func TestCheckJSONModels(t *testing.T) {
	t.Parallel()

	engine := New(Options{ModelType: ModelJSON})
	require.Equal(t, "true", engine.Check(context.Background(), gateModel, "<<0>> X 1").Text())
	require.Equal(t, "false", engine.Check(context.Background(), gateModel, "<<0>> X 0").Text())

	result := engine.Check(context.Background(), "{", "true")
	require.True(t, result.IsErr())
	require.True(t, strings.HasPrefix(result.Text(), "Failed to deserialize input model.\n"))

	result = engine.Check(context.Background(), gateModel, "<<p1>> X 0")
	require.True(t, result.IsErr())
	require.Contains(t, result.Text(), "unknown player 'p1'")

	jsonFormulas := New(Options{ModelType: ModelJSON, FormulaFormat: FormulaJSON})
	formula := `{"enforce next": {"players": [0, 1], "formula": {"proposition": 0}}}`
	require.Equal(t, "true", jsonFormulas.Check(context.Background(), gateModel, formula).Text())

	result = jsonFormulas.Check(context.Background(), gateModel, `{"always": "true"}`)
	require.True(t, result.IsErr())
	require.True(t, strings.HasPrefix(result.Text(), "Failed to deserialize formula.\n"))
}

func TestCheckHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(Options{Algorithm: AlgorithmGlobal}).Check(ctx, shooterModel, "<<p1>> F !p2.alive")
	require.True(t, result.IsErr())
	require.Equal(t, "Model checking failed.\ncontext canceled", result.Text())

	engine := New(Options{Algorithm: AlgorithmGlobal, Timeout: time.Nanosecond})
	_, err := engine.Solve(context.Background(), Request{Model: shooterModel, Formula: "<<p1>> F !p2.alive"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	listing, err := New(Options{}).Index(shooterModel)
	require.NoError(t, err)
	require.Equal(t, "Players:\np1 : 0\np2 : 1\n\nLabels:\nboth : 0\np1.alive : 1\np2.alive : 2\n", listing)

	_, err = New(Options{ModelType: ModelJSON}).Index(gateModel)
	require.EqualError(t, err, "the 'index' command is only valid for LCGS models")

	_, err = New(Options{}).Index("player")
	require.ErrorContains(t, err, "Failed to parse the LCGS program.")
}

func TestGraph(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	rendered, err := New(Options{}).Graph(context.Background(), &out, Request{Model: shooterModel, Formula: "<<p1>> X !p2.alive"})
	require.NoError(t, err)
	require.Equal(t, "<<p1>> X !(p2.alive)", rendered)
	require.True(t, strings.HasPrefix(out.String(), "digraph edg {"))
	require.Contains(t, out.String(), `v0 [label="state=3 formula=<<p1>> X !(p2.alive)"];`)
	require.Contains(t, out.String(), "[style=dashed]")

	_, err = New(Options{}).Graph(context.Background(), &out, Request{Model: shooterModel, Formula: "F"})
	require.ErrorContains(t, err, "Invalid ATL formula provided.")
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	algorithm, err := ParseAlgorithm(" GLOBAL ")
	require.NoError(t, err)
	require.Equal(t, AlgorithmGlobal, algorithm)
	_, err = ParseAlgorithm("parallel")
	require.EqualError(t, err, `unknown algorithm "parallel" (expected local or global)`)

	modelType, err := ParseModelType("")
	require.NoError(t, err)
	require.Equal(t, ModelLCGS, modelType)
	_, err = ParseModelType("xml")
	require.ErrorContains(t, err, "invalid model type 'xml'")

	format, err := ParseFormulaFormat("json")
	require.NoError(t, err)
	require.Equal(t, FormulaJSON, format)
	_, err = ParseFormulaFormat("ltl")
	require.ErrorContains(t, err, "invalid formula format 'ltl'")

	cases := map[string]ModelType{
		"models/shooter.LCGS":                 ModelLCGS,
		"game.json":                           ModelJSON,
		"git::https://h/m.git//g.json?ref=v1": ModelJSON,
	}
	for path, want := range cases {
		got, err := ModelTypeFromPath(path)
		require.NoError(t, err, path)
		require.Equal(t, want, got, path)
	}
	_, err = ModelTypeFromPath("model.txt")
	require.ErrorContains(t, err, "cannot infer model type")
}
