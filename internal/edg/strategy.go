package edg

import (
	"fmt"
	"strings"
)

// Strategy selects the order in which pending edges are processed.
type Strategy string

const (
	// BFS processes edges in the order they were discovered.
	BFS Strategy = "bfs"
	// DFS processes the most recently discovered edge first.
	DFS Strategy = "dfs"
)

// Strategies lists the accepted strategy names.
var Strategies = []Strategy{BFS, DFS}

// ParseStrategy resolves a strategy name, case-insensitively. An empty name
// selects BFS.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", BFS:
		return BFS, nil
	case DFS:
		return DFS, nil
	}
	return "", fmt.Errorf("unknown search strategy %q (expected bfs or dfs)", name)
}

// worklist is a queue or a stack depending on the strategy.
type worklist[T any] struct {
	items []T
	head  int
	lifo  bool
}

func newWorklist[T any](strategy Strategy) *worklist[T] {
	return &worklist[T]{lifo: strategy == DFS}
}

func (w *worklist[T]) Len() int { return len(w.items) - w.head }

func (w *worklist[T]) Push(item T) { w.items = append(w.items, item) }

func (w *worklist[T]) Pop() (T, bool) {
	var zero T
	if w.Len() == 0 {
		return zero, false
	}
	if w.lifo {
		last := len(w.items) - 1
		item := w.items[last]
		w.items[last] = zero
		w.items = w.items[:last]
		return item, true
	}
	item := w.items[w.head]
	w.items[w.head] = zero
	w.head++
	if w.head > 1024 && w.head*2 > len(w.items) {
		w.items = append(w.items[:0], w.items[w.head:]...)
		w.head = 0
	}
	return item, true
}
