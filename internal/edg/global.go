package edg

import (
	"context"
	"time"
)

// SolveGlobal computes the value of root by exploring everything reachable
// from it and iterating to the least fixed point, one negation stratum at a
// time. It is slower than SolveLocal and serves as a reference.
func SolveGlobal[V comparable](ctx context.Context, g Graph[V], root V) (bool, Stats, error) {
	start := time.Now()
	s := &globalSolver[V]{
		ctx:    ctx,
		graph:  g,
		values: make(map[V]bool),
		succ:   make(map[V][]Edge[V]),
		active: make(map[V]bool),
	}
	value, err := s.solve(root)
	s.stats.Duration = time.Since(start)
	return value, s.stats, err
}

type globalSolver[V comparable] struct {
	ctx    context.Context
	graph  Graph[V]
	values map[V]bool
	succ   map[V][]Edge[V]
	active map[V]bool
	stats  Stats
}

func (s *globalSolver[V]) edges(v V) []Edge[V] {
	edges, ok := s.succ[v]
	if !ok {
		edges = s.graph.Succ(v)
		s.succ[v] = edges
		s.stats.Vertices++
		s.stats.Edges += len(edges)
	}
	return edges
}

func (s *globalSolver[V]) solve(root V) (bool, error) {
	if value, ok := s.values[root]; ok {
		return value, nil
	}
	if s.active[root] {
		return false, ErrNegationCycle
	}
	s.active[root] = true
	defer delete(s.active, root)
	s.stats.Components++

	// Collect the vertices reachable through hyper edges.
	members := []V{root}
	seen := map[V]bool{root: true}
	var negated []V
	for i := 0; i < len(members); i++ {
		if err := s.ctx.Err(); err != nil {
			return false, err
		}
		for _, edge := range s.edges(members[i]) {
			if edge.Negated {
				negated = append(negated, edge.Targets[0])
				continue
			}
			for _, target := range edge.Targets {
				if _, solved := s.values[target]; solved || seen[target] {
					continue
				}
				seen[target] = true
				members = append(members, target)
			}
		}
	}

	// Lower strata first.
	for _, target := range negated {
		if _, err := s.solve(target); err != nil {
			return false, err
		}
	}

	current := make(map[V]bool, len(members))
	valueOf := func(v V) bool {
		if value, ok := s.values[v]; ok {
			return value
		}
		return current[v]
	}

	for changed := true; changed; {
		if err := s.ctx.Err(); err != nil {
			return false, err
		}
		changed = false
		for _, v := range members {
			if valueOf(v) {
				continue
			}
			for _, edge := range s.edges(v) {
				if s.holds(edge, valueOf) {
					current[v] = true
					changed = true
					break
				}
			}
		}
	}

	for _, v := range members {
		if _, ok := s.values[v]; !ok {
			s.values[v] = current[v]
		}
	}
	return s.values[root], nil
}

func (s *globalSolver[V]) holds(edge Edge[V], valueOf func(V) bool) bool {
	if edge.Negated {
		return !s.values[edge.Targets[0]]
	}
	for _, target := range edge.Targets {
		if !valueOf(target) {
			return false
		}
	}
	return true
}
