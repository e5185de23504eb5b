// Package edg solves extended dependency graphs: graphs of boolean vertices
// whose value is the disjunction of their outgoing edges. A hyper edge holds
// when all of its targets hold; a negation edge holds when its target does
// not. Negation edges must not take part in cycles.
package edg

import (
	"errors"
	"time"
)

// ErrNegationCycle reports a graph whose negation edges are not stratified.
var ErrNegationCycle = errors.New("edg: negation edge reaches a vertex that depends on it")

// Edge is either a hyper edge (Negated false, any number of targets) or a
// negation edge (Negated true, exactly one target).
type Edge[V comparable] struct {
	Source  V
	Targets []V
	Negated bool
}

// Hyper builds a hyper edge. A hyper edge without targets always holds.
func Hyper[V comparable](source V, targets ...V) Edge[V] {
	return Edge[V]{Source: source, Targets: targets}
}

// Negation builds a negation edge.
func Negation[V comparable](source, target V) Edge[V] {
	return Edge[V]{Source: source, Targets: []V{target}, Negated: true}
}

// Graph produces the outgoing edges of a vertex on demand.
type Graph[V comparable] interface {
	Succ(v V) []Edge[V]
}

// Labeler is implemented by graphs that can describe their vertices.
type Labeler[V comparable] interface {
	Label(v V) string
}

// Stats summarises one solver run.
type Stats struct {
	Vertices   int
	Edges      int
	Components int
	Duration   time.Duration
}
