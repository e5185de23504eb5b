package edg

import (
	"context"
	"time"
)

// cancelCheckInterval is the number of processed edges between context checks.
const cancelCheckInterval = 256

// SolveLocal computes the value of root with the local certain-zero
// algorithm. Only the part of the graph needed to settle root is explored and
// the search stops as soon as root is certain. Negation edges are resolved
// by solving their target in a nested component first.
func SolveLocal[V comparable](ctx context.Context, g Graph[V], root V, strategy Strategy) (bool, Stats, error) {
	start := time.Now()
	s := &localSolver[V]{
		ctx:      ctx,
		graph:    g,
		strategy: strategy,
		certain:  make(map[V]bool),
		active:   make(map[V]bool),
	}
	value, err := s.solve(root)
	s.stats.Duration = time.Since(start)
	return value, s.stats, err
}

type localSolver[V comparable] struct {
	ctx      context.Context
	graph    Graph[V]
	strategy Strategy
	// certain holds every vertex whose value is final.
	certain map[V]bool
	// active holds the roots of components still being solved.
	active map[V]bool
	stats  Stats
	steps  int
}

type vertexState[V comparable] struct {
	live int
	deps []*edgeState[V]
}

type edgeState[V comparable] struct {
	edge Edge[V]
	// next is the first target not yet known to hold.
	next int
	dead bool
}

// component is one run of the algorithm from a single root.
type component[V comparable] struct {
	s        *localSolver[V]
	explored map[V]*vertexState[V]
	pending  *worklist[*edgeState[V]]
}

func (s *localSolver[V]) solve(root V) (bool, error) {
	if value, ok := s.certain[root]; ok {
		return value, nil
	}
	if s.active[root] {
		return false, ErrNegationCycle
	}
	s.active[root] = true
	defer delete(s.active, root)
	s.stats.Components++

	c := &component[V]{
		s:        s,
		explored: make(map[V]*vertexState[V]),
		pending:  newWorklist[*edgeState[V]](s.strategy),
	}
	if err := c.explore(root); err != nil {
		return false, err
	}

	for {
		for c.pending.Len() > 0 {
			if value, ok := s.certain[root]; ok {
				return value, nil
			}
			if err := s.tick(); err != nil {
				return false, err
			}
			edge, _ := c.pending.Pop()
			if err := c.process(edge); err != nil {
				return false, err
			}
		}
		if !c.wakeSettled() {
			break
		}
	}

	// Every live edge now waits on an unsettled vertex of this component, so
	// the least fixed point assigns false to all of them.
	for v := range c.explored {
		if _, ok := s.certain[v]; !ok {
			s.certain[v] = false
		}
	}
	return s.certain[root], nil
}

func (s *localSolver[V]) tick() error {
	s.steps++
	if s.steps%cancelCheckInterval == 0 {
		return s.ctx.Err()
	}
	return nil
}

func (c *component[V]) explore(v V) error {
	if _, ok := c.s.certain[v]; ok {
		return nil
	}
	if _, ok := c.explored[v]; ok {
		return nil
	}

	state := &vertexState[V]{}
	c.explored[v] = state
	c.s.stats.Vertices++

	edges := c.s.graph.Succ(v)
	c.s.stats.Edges += len(edges)
	for _, edge := range edges {
		if edge.Negated {
			value, err := c.s.solve(edge.Targets[0])
			if err != nil {
				return err
			}
			if !value {
				c.settle(v, true)
				return nil
			}
			continue
		}
		state.live++
		c.pending.Push(&edgeState[V]{edge: edge})
	}
	if state.live == 0 {
		if _, ok := c.s.certain[v]; !ok {
			c.settle(v, false)
		}
	}
	return nil
}

func (c *component[V]) process(es *edgeState[V]) error {
	source := es.edge.Source
	if _, ok := c.s.certain[source]; ok || es.dead {
		return nil
	}

	targets := es.edge.Targets
	for es.next < len(targets) {
		target := targets[es.next]
		if value, ok := c.s.certain[target]; ok {
			if !value {
				c.kill(es)
				return nil
			}
			es.next++
			continue
		}

		if state, ok := c.explored[target]; ok {
			state.deps = append(state.deps, es)
			return nil
		}
		if err := c.explore(target); err != nil {
			return err
		}
		if _, ok := c.s.certain[target]; ok {
			continue
		}
		state := c.explored[target]
		state.deps = append(state.deps, es)
		return nil
	}

	c.settle(source, true)
	return nil
}

func (c *component[V]) kill(es *edgeState[V]) {
	es.dead = true
	state := c.explored[es.edge.Source]
	state.live--
	if state.live == 0 {
		c.settle(es.edge.Source, false)
	}
}

func (c *component[V]) settle(v V, value bool) {
	if _, ok := c.s.certain[v]; ok {
		return
	}
	c.s.certain[v] = value
	if state, ok := c.explored[v]; ok {
		for _, dep := range state.deps {
			c.pending.Push(dep)
		}
		state.deps = nil
	}
}

// wakeSettled requeues edges waiting on vertices that a nested component
// settled. It reports whether anything was requeued.
func (c *component[V]) wakeSettled() bool {
	woke := false
	for v, state := range c.explored {
		if len(state.deps) == 0 {
			continue
		}
		if _, ok := c.s.certain[v]; !ok {
			continue
		}
		for _, dep := range state.deps {
			c.pending.Push(dep)
		}
		state.deps = nil
		woke = true
	}
	return woke
}
