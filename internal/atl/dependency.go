package atl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
)

// Choice is one player's entry in a partial move: either a specific move or
// every move below Range.
type Choice struct {
	Specific bool
	Move     int
	Range    int
}

func (c Choice) String() string {
	if c.Specific {
		return fmt.Sprint(c.Move)
	}
	return fmt.Sprintf("(0..%d)", c.Range-1)
}

// PartialMove fixes the moves of some players and leaves the rest open.
type PartialMove []Choice

func (m PartialMove) String() string {
	parts := make([]string, len(m))
	for i, choice := range m {
		parts[i] = choice.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PartialMoves enumerates the partial moves where the given players pick a
// specific move and everyone else ranges over all moves. The lowest player
// index varies fastest.
func PartialMoves(moves []int, players []int) []PartialMove {
	inCoalition := make([]bool, len(moves))
	for _, p := range players {
		if p >= 0 && p < len(moves) {
			inCoalition[p] = true
		}
	}

	current := make(PartialMove, len(moves))
	for i, count := range moves {
		if inCoalition[i] {
			current[i] = Choice{Specific: true}
		} else {
			current[i] = Choice{Range: count}
		}
	}

	var out []PartialMove
	for {
		out = append(out, append(PartialMove(nil), current...))
		rolled := 0
		for rolled < len(moves) {
			if !current[rolled].Specific {
				rolled++
				continue
			}
			current[rolled].Move++
			if current[rolled].Move < moves[rolled] {
				break
			}
			current[rolled].Move = 0
			rolled++
		}
		if rolled >= len(moves) {
			return out
		}
	}
}

// MoveVectors enumerates the full move vectors of a partial move. The last
// player varies fastest.
func MoveVectors(pm PartialMove) [][]int {
	current := make([]int, len(pm))
	for i, choice := range pm {
		if choice.Specific {
			current[i] = choice.Move
		}
	}

	var out [][]int
	for {
		out = append(out, append([]int(nil), current...))
		i := len(pm) - 1
		for ; i >= 0; i-- {
			if pm[i].Specific {
				continue
			}
			current[i]++
			if current[i] < pm[i].Range {
				break
			}
			current[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Successors returns the distinct states reachable from state under a
// partial move, in the order they are first produced.
func Successors(game GameStructure, state int, pm PartialMove) []int {
	seen := make(map[int]bool)
	var out []int
	for _, moves := range MoveVectors(pm) {
		next := game.Transition(state, moves)
		if !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}

// Vertex is a node of the ATL dependency graph. A full vertex asks whether
// a formula holds in a state. A partial vertex asks the same about the states
// reachable under a partial move. Formula and Move index the graph's interned
// formulas and partial moves.
type Vertex struct {
	Partial bool
	State   int
	Formula int
	Move    int
}

type formulaNode struct {
	phi   *Phi
	left  int
	right int
	// dual is the until formula an invariant is the negation of.
	dual int
}

// Graph is the dependency graph of a game and its formulas. Formulas are
// interned by Root and Full, which must not run concurrently with anything
// else. Succ and Label are safe for concurrent use.
type Graph struct {
	game     GameStructure
	nodes    []formulaNode
	formulas map[string]int
	names    Names

	mu      sync.RWMutex
	moves   []PartialMove
	moveIDs map[string]int
}

// NewGraph creates the dependency graph of game.
func NewGraph(game GameStructure) *Graph {
	g := &Graph{
		game:     game,
		formulas: make(map[string]int),
		moveIDs:  make(map[string]int),
		names:    indexNames{},
	}
	if names, ok := game.(Names); ok {
		g.names = names
	}
	return g
}

// Root returns the full vertex asking whether phi holds in the initial state.
func (g *Graph) Root(phi *Phi) Vertex {
	return g.Full(g.game.InitialState(), phi)
}

// Full returns the full vertex for phi in state.
func (g *Graph) Full(state int, phi *Phi) Vertex {
	return Vertex{State: state, Formula: g.intern(phi)}
}

func (g *Graph) intern(phi *Phi) int {
	key := phi.String()
	if id, ok := g.formulas[key]; ok {
		return id
	}
	id := len(g.nodes)
	g.formulas[key] = id
	g.nodes = append(g.nodes, formulaNode{phi: phi, left: -1, right: -1, dual: -1})

	left, right, dual := -1, -1, -1
	if phi.Left != nil {
		left = g.intern(phi.Left)
	}
	if phi.Right != nil {
		right = g.intern(phi.Right)
	}
	switch phi.Kind {
	case KindDespiteInvariant:
		dual = g.intern(EnforceUntil(phi.Players, True(), Not(phi.Left)))
	case KindEnforceInvariant:
		dual = g.intern(DespiteUntil(phi.Players, True(), Not(phi.Left)))
	}
	g.nodes[id].left, g.nodes[id].right, g.nodes[id].dual = left, right, dual
	return id
}

func (g *Graph) internMove(pm PartialMove) int {
	key := pm.String()
	g.mu.RLock()
	id, ok := g.moveIDs[key]
	g.mu.RUnlock()
	if ok {
		return id
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.moveIDs[key]; ok {
		return id
	}
	id = len(g.moves)
	g.moveIDs[key] = id
	g.moves = append(g.moves, pm)
	return id
}

// Formula returns the interned formula of a vertex.
func (g *Graph) Formula(v Vertex) *Phi { return g.nodes[v.Formula].phi }

// Label describes a vertex for graph renderings.
func (g *Graph) Label(v Vertex) string {
	formula := g.nodes[v.Formula].phi.Render(g.names)
	if v.Partial {
		return fmt.Sprintf("state=%d pmove=%s formula=%s", v.State, g.move(v.Move), formula)
	}
	return fmt.Sprintf("state=%d formula=%s", v.State, formula)
}

func (g *Graph) move(id int) PartialMove {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.moves[id]
}

func (g *Graph) full(state, formula int) Vertex {
	return Vertex{State: state, Formula: formula}
}

func (g *Graph) partial(state int, pm PartialMove, formula int) Vertex {
	return Vertex{Partial: true, State: state, Formula: formula, Move: g.internMove(pm)}
}

// Succ produces the edges of a vertex. For until and eventually formulas the
// edge checking the goal comes first, and the pre condition is the first
// target of the edges that continue the path.
func (g *Graph) Succ(v Vertex) []edg.Edge[Vertex] {
	if v.Partial {
		var edges []edg.Edge[Vertex]
		for _, next := range Successors(g.game, v.State, g.move(v.Move)) {
			edges = append(edges, edg.Hyper(v, g.full(next, v.Formula)))
		}
		return edges
	}

	node := g.nodes[v.Formula]
	phi := node.phi
	state := v.State

	switch phi.Kind {
	case KindTrue:
		return []edg.Edge[Vertex]{edg.Hyper(v)}
	case KindFalse:
		return nil
	case KindProposition:
		for _, label := range g.game.Labels(state) {
			if label == phi.Proposition {
				return []edg.Edge[Vertex]{edg.Hyper(v)}
			}
		}
		return nil
	case KindNot:
		return []edg.Edge[Vertex]{edg.Negation(v, g.full(state, node.left))}
	case KindOr:
		return []edg.Edge[Vertex]{
			edg.Hyper(v, g.full(state, node.left)),
			edg.Hyper(v, g.full(state, node.right)),
		}
	case KindAnd:
		return []edg.Edge[Vertex]{edg.Hyper(v, g.full(state, node.left), g.full(state, node.right))}

	case KindDespiteNext:
		var targets []Vertex
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			targets = append(targets, g.partial(state, pm, node.left))
		}
		return []edg.Edge[Vertex]{edg.Hyper(v, targets...)}
	case KindEnforceNext:
		var edges []edg.Edge[Vertex]
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			edges = append(edges, edg.Hyper(v, g.fullSuccessors(state, pm, node.left)...))
		}
		return edges

	case KindDespiteUntil:
		targets := []Vertex{g.full(state, node.left)}
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			targets = append(targets, g.partial(state, pm, v.Formula))
		}
		return []edg.Edge[Vertex]{
			edg.Hyper(v, g.full(state, node.right)),
			edg.Hyper(v, targets...),
		}
	case KindEnforceUntil:
		edges := []edg.Edge[Vertex]{edg.Hyper(v, g.full(state, node.right))}
		pre := g.full(state, node.left)
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			targets := append([]Vertex{pre}, g.fullSuccessors(state, pm, v.Formula)...)
			edges = append(edges, edg.Hyper(v, targets...))
		}
		return edges

	case KindDespiteEventually:
		var targets []Vertex
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			targets = append(targets, g.partial(state, pm, v.Formula))
		}
		return []edg.Edge[Vertex]{
			edg.Hyper(v, g.full(state, node.left)),
			edg.Hyper(v, targets...),
		}
	case KindEnforceEventually:
		edges := []edg.Edge[Vertex]{edg.Hyper(v, g.full(state, node.left))}
		for _, pm := range PartialMoves(g.game.MoveCount(state), phi.Players) {
			edges = append(edges, edg.Hyper(v, g.fullSuccessors(state, pm, v.Formula)...))
		}
		return edges

	case KindDespiteInvariant, KindEnforceInvariant:
		return []edg.Edge[Vertex]{edg.Negation(v, g.full(state, node.dual))}
	}
	panic(fmt.Sprintf("atl: unknown formula kind %d", phi.Kind))
}

func (g *Graph) fullSuccessors(state int, pm PartialMove, formula int) []Vertex {
	var out []Vertex
	for _, next := range Successors(g.game, state, pm) {
		out = append(out, g.full(next, formula))
	}
	return out
}
