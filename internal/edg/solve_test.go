package edg

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapGraph map[string][]Edge[string]

func (g mapGraph) Succ(v string) []Edge[string] { return g[v] }

func TestSolversAgree(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		graph mapGraph
		want  bool
	}{
		{
			name:  "empty hyper edge holds",
			graph: mapGraph{"a": {Hyper("a")}},
			want:  true,
		},
		{
			name:  "no edges",
			graph: mapGraph{},
			want:  false,
		},
		{
			name:  "self loop is false",
			graph: mapGraph{"a": {Hyper("a", "a")}},
			want:  false,
		},
		{
			name: "conjunction",
			graph: mapGraph{
				"a": {Hyper("a", "b", "c")},
				"b": {Hyper("b")},
				"c": {Hyper("c")},
			},
			want: true,
		},
		{
			name: "conjunction with false target",
			graph: mapGraph{
				"a": {Hyper("a", "b", "c")},
				"b": {Hyper("b")},
			},
			want: false,
		},
		{
			name: "disjunction",
			graph: mapGraph{
				"a": {Hyper("a", "b"), Hyper("a", "c")},
				"c": {Hyper("c")},
			},
			want: true,
		},
		{
			name: "cycle with exit",
			graph: mapGraph{
				"a": {Hyper("a", "b")},
				"b": {Hyper("b", "a"), Hyper("b", "c")},
				"c": {Hyper("c")},
			},
			want: true,
		},
		{
			name:  "negation of false",
			graph: mapGraph{"a": {Negation("a", "b")}},
			want:  true,
		},
		{
			name: "negation of true",
			graph: mapGraph{
				"a": {Negation("a", "b")},
				"b": {Hyper("b")},
			},
			want: false,
		},
		{
			name: "negation of a cycle",
			graph: mapGraph{
				"a": {Hyper("a", "b", "n")},
				"b": {Hyper("b")},
				"n": {Negation("n", "c")},
				"c": {Hyper("c", "d")},
				"d": {Hyper("d", "c")},
			},
			want: true,
		},
		{
			name: "vertex settled by a nested component",
			graph: mapGraph{
				"r": {Hyper("r", "v"), Hyper("r", "b")},
				"b": {Negation("b", "m")},
				"m": {Hyper("m", "v")},
				"v": {Hyper("v", "c")},
				"c": {Hyper("c")},
			},
			want: true,
		},
		{
			name: "double negation",
			graph: mapGraph{
				"a": {Negation("a", "b")},
				"b": {Negation("b", "c")},
				"c": {Hyper("c")},
			},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			for _, strategy := range Strategies {
				value, _, err := SolveLocal[string](ctx, tc.graph, rootOf(tc.graph), strategy)
				require.NoError(t, err)
				require.Equal(t, tc.want, value, "local %s", strategy)
			}

			value, _, err := SolveGlobal[string](ctx, tc.graph, rootOf(tc.graph))
			require.NoError(t, err)
			require.Equal(t, tc.want, value, "global")

			for _, workers := range []int{1, 2, 8} {
				value, _, err := SolveParallel[string](ctx, tc.graph, rootOf(tc.graph), BFS, workers)
				require.NoError(t, err)
				require.Equal(t, tc.want, value, "parallel with %d workers", workers)
			}
		})
	}
}

func rootOf(g mapGraph) string {
	if _, ok := g["r"]; ok {
		return "r"
	}
	return "a"
}

func TestSolveLocalTerminatesEarly(t *testing.T) {
	t.Parallel()

	graph := chain(500)
	graph["root"] = []Edge[string]{Hyper("root"), Hyper("root", "v0")}

	value, local, err := SolveLocal[string](context.Background(), graph, "root", BFS)
	require.NoError(t, err)
	require.True(t, value)
	require.Equal(t, 1, local.Vertices)

	value, global, err := SolveGlobal[string](context.Background(), graph, "root")
	require.NoError(t, err)
	require.True(t, value)
	require.Equal(t, 502, global.Vertices)
}

func TestSolversRejectNegationCycles(t *testing.T) {
	t.Parallel()

	graph := mapGraph{
		"a": {Negation("a", "b")},
		"b": {Negation("b", "a")},
	}

	_, _, err := SolveLocal[string](context.Background(), graph, "a", DFS)
	require.ErrorIs(t, err, ErrNegationCycle)

	_, _, err = SolveGlobal[string](context.Background(), graph, "a")
	require.ErrorIs(t, err, ErrNegationCycle)

	_, _, err = SolveParallel[string](context.Background(), graph, "a", BFS, 4)
	require.ErrorIs(t, err, ErrNegationCycle)
}

func TestSolversHonourCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	graph := chain(2000)

	_, _, err := SolveLocal[string](ctx, graph, "v0", BFS)
	require.ErrorIs(t, err, context.Canceled)

	_, _, err = SolveGlobal[string](ctx, graph, "v0")
	require.ErrorIs(t, err, context.Canceled)

	_, _, err = SolveParallel[string](ctx, graph, "v0", BFS, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSolveParallelExpandsWholeGraph(t *testing.T) {
	t.Parallel()

	graph := chain(500)
	graph["root"] = []Edge[string]{Hyper("root"), Hyper("root", "v0")}

	value, stats, err := SolveParallel[string](context.Background(), graph, "root", DFS, 4)
	require.NoError(t, err)
	require.True(t, value)
	require.Equal(t, 502, stats.Vertices)
	require.Equal(t, 503, stats.Edges)
}

type panicGraph struct{ mapGraph }

func (g panicGraph) Succ(v string) []Edge[string] {
	if v == "boom" {
		panic("no successors")
	}
	return g.mapGraph.Succ(v)
}

func TestSolveParallelRaisesPanicsOnCallerGoroutine(t *testing.T) {
	t.Parallel()

	graph := panicGraph{mapGraph{"a": {Hyper("a", "b", "boom")}, "b": {Hyper("b")}}}

	require.PanicsWithValue(t, "edg: expanding vertex boom: no successors", func() {
		_, _, _ = SolveParallel[string](context.Background(), graph, "a", BFS, 2)
	})
}

// chain builds v0 -> v1 -> ... -> v(n-1) -> v(n) where only v(n) holds.
func chain(n int) mapGraph {
	graph := mapGraph{}
	for i := 0; i < n; i++ {
		from := fmt.Sprintf("v%d", i)
		graph[from] = []Edge[string]{Hyper(from, fmt.Sprintf("v%d", i+1))}
	}
	last := fmt.Sprintf("v%d", n)
	graph[last] = []Edge[string]{Hyper(last)}
	return graph
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Strategy{"": BFS, "bfs": BFS, " DFS ": DFS} {
		got, err := ParseStrategy(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseStrategy("random")
	require.ErrorContains(t, err, `unknown search strategy "random"`)
}

func TestWorklistOrder(t *testing.T) {
	t.Parallel()

	queue := newWorklist[int](BFS)
	stack := newWorklist[int](DFS)
	for i := 1; i <= 3; i++ {
		queue.Push(i)
		stack.Push(i)
	}

	var fromQueue, fromStack []int
	for queue.Len() > 0 {
		v, _ := queue.Pop()
		fromQueue = append(fromQueue, v)
	}
	for stack.Len() > 0 {
		v, _ := stack.Pop()
		fromStack = append(fromStack, v)
	}
	require.Equal(t, []int{1, 2, 3}, fromQueue)
	require.Equal(t, []int{3, 2, 1}, fromStack)

	_, ok := queue.Pop()
	require.False(t, ok)
}

func TestWriteDot(t *testing.T) {
	t.Parallel()

	graph := mapGraph{
		"a": {Hyper("a", "b", "c"), Negation("a", "d")},
		"b": {Hyper("b", "c")},
		"c": {Hyper("c")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDot[string](&buf, graph, "a"))

	out := buf.String()
	require.Contains(t, out, "digraph edg {")
	require.Contains(t, out, `v0 [label="a"];`)
	require.Contains(t, out, "v0 -> h0 [arrowhead=none];")
	require.Contains(t, out, "h0 -> v1;")
	require.Contains(t, out, "h0 -> v2;")
	require.Contains(t, out, "v0 -> v3 [style=dashed];")
	require.Contains(t, out, "v1 -> v2;")
	require.Contains(t, out, `v3 [label="d"];`)
}
