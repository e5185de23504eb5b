package edg

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SolveParallel computes the value of root with several goroutines. Workers
// expand successors concurrently while a broker owns the set of discovered
// vertices and hands out work over a channel. Once everything reachable from
// root is expanded, the certain-zero algorithm settles root over the cached
// edges. g.Succ must be safe for concurrent use. With fewer than two workers
// it is SolveLocal.
func SolveParallel[V comparable](ctx context.Context, g Graph[V], root V, strategy Strategy, workers int) (bool, Stats, error) {
	if workers < 2 {
		return SolveLocal(ctx, g, root, strategy)
	}

	start := time.Now()
	edges, err := expand(ctx, g, root, workers)
	if err != nil {
		return false, Stats{Duration: time.Since(start)}, err
	}

	value, stats, err := SolveLocal[V](ctx, edges, root, strategy)
	stats.Vertices = len(edges)
	stats.Edges = 0
	for _, out := range edges {
		stats.Edges += len(out)
	}
	stats.Duration = time.Since(start)
	return value, stats, err
}

// expanded serves successors computed ahead of time.
type expanded[V comparable] map[V][]Edge[V]

func (e expanded[V]) Succ(v V) []Edge[V] { return e[v] }

type expansion[V comparable] struct {
	vertex V
	edges  []Edge[V]
	// panicked carries a panic raised by Succ back to the broker.
	panicked any
}

func expand[V comparable](ctx context.Context, g Graph[V], root V, workers int) (expanded[V], error) {
	ctx, cancel := context.WithCancel(ctx)
	jobs := make(chan V)
	results := make(chan expansion[V])

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				select {
				case results <- succ(g, v):
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	defer func() {
		cancel()
		close(jobs)
		wg.Wait()
	}()

	out := make(expanded[V])
	queued := map[V]bool{root: true}
	frontier := []V{root}
	outstanding := 0
	for len(frontier) > 0 || outstanding > 0 {
		var (
			send chan<- V
			next V
		)
		if len(frontier) > 0 {
			send = jobs
			next = frontier[len(frontier)-1]
		}

		select {
		case send <- next:
			frontier = frontier[:len(frontier)-1]
			outstanding++
		case r := <-results:
			outstanding--
			if r.panicked != nil {
				panic(r.panicked)
			}
			out[r.vertex] = r.edges
			for _, edge := range r.edges {
				for _, target := range edge.Targets {
					if !queued[target] {
						queued[target] = true
						frontier = append(frontier, target)
					}
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func succ[V comparable](g Graph[V], v V) (r expansion[V]) {
	r.vertex = v
	defer func() {
		if p := recover(); p != nil {
			r.panicked = fmt.Sprintf("edg: expanding vertex %v: %v", v, p)
		}
	}()
	r.edges = g.Succ(v)
	return r
}
