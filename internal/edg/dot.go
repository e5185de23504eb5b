package edg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDot renders every vertex reachable from root in Graphviz format. Hyper
// edges with several targets fan out through a point node, negation edges
// are dashed, and hyper edges without targets end in a filled point.
func WriteDot[V comparable](w io.Writer, g Graph[V], root V) error {
	bw := bufio.NewWriter(w)
	label := func(v V) string { return fmt.Sprint(v) }
	if labeler, ok := g.(Labeler[V]); ok {
		label = labeler.Label
	}

	ids := map[V]int{root: 0}
	order := []V{root}
	idOf := func(v V) int {
		id, ok := ids[v]
		if !ok {
			id = len(order)
			ids[v] = id
			order = append(order, v)
		}
		return id
	}

	fmt.Fprintln(bw, "digraph edg {")
	fmt.Fprintln(bw, "  node [shape=box];")
	hyper := 0
	for i := 0; i < len(order); i++ {
		v := order[i]
		fmt.Fprintf(bw, "  v%d [label=%s];\n", i, quoteDot(label(v)))
		for _, edge := range g.Succ(v) {
			switch {
			case edge.Negated:
				fmt.Fprintf(bw, "  v%d -> v%d [style=dashed];\n", i, idOf(edge.Targets[0]))
			case len(edge.Targets) == 1:
				fmt.Fprintf(bw, "  v%d -> v%d;\n", i, idOf(edge.Targets[0]))
			default:
				fmt.Fprintf(bw, "  h%d [shape=point];\n", hyper)
				fmt.Fprintf(bw, "  v%d -> h%d [arrowhead=none];\n", i, hyper)
				for _, target := range edge.Targets {
					fmt.Fprintf(bw, "  h%d -> v%d;\n", hyper, idOf(target))
				}
				hyper++
			}
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func quoteDot(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s) + `"`
}
