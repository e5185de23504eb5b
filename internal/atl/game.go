package atl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// GameStructure is a concurrent game: in every state each player picks one of
// its moves simultaneously and the move vector determines the next state.
type GameStructure interface {
	PlayerCount() int
	InitialState() int
	// Labels returns the propositions that hold in state.
	Labels(state int) []int
	// MoveCount returns the number of moves of every player in state. Every
	// player has at least one move.
	MoveCount(state int) []int
	// Transition returns the state reached when the players choose moves.
	Transition(state int, moves []int) int
}

// TransitionTree maps a move vector to a state. The tree has one level per
// player; a leaf is the resulting state. In JSON a leaf is an integer and an
// inner node is an array.
type TransitionTree struct {
	State    int
	Children []TransitionTree
}

func (t TransitionTree) leaf() bool { return t.Children == nil }

// UnmarshalJSON decodes nested arrays of integers.
func (t *TransitionTree) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var children []TransitionTree
		if err := json.Unmarshal(data, &children); err != nil {
			return err
		}
		if children == nil {
			children = []TransitionTree{}
		}
		*t = TransitionTree{Children: children}
		return nil
	}
	var state int
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("transition leaf must be a state index: %w", err)
	}
	*t = TransitionTree{State: state}
	return nil
}

// MarshalJSON encodes the tree as nested arrays.
func (t TransitionTree) MarshalJSON() ([]byte, error) {
	if t.leaf() {
		return json.Marshal(t.State)
	}
	return json.Marshal(t.Children)
}

// EagerGameStructure is an explicit game, typically decoded from JSON:
//
//	{"player_count": 2, "labeling": [[0], []], "transitions": [[[1, 0], [0, 0]], [[1]]], "moves": [[2, 2], [1, 1]]}
//
// State 0 is the initial state. Missing labeling entries mean no
// propositions hold; missing moves are derived from the transition tree.
type EagerGameStructure struct {
	Players     int              `json:"player_count"`
	Labeling    [][]int          `json:"labeling"`
	Transitions []TransitionTree `json:"transitions"`
	Moves       [][]int          `json:"moves"`
}

// ParseGameJSON decodes and validates an explicit game.
func ParseGameJSON(data []byte) (*EagerGameStructure, error) {
	var game EagerGameStructure
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}
	return &game, nil
}

// Validate checks that every transition tree has one level per player, that
// leaves are valid states and that declared move counts match the trees.
func (g *EagerGameStructure) Validate() error {
	if g.Players < 1 {
		return fmt.Errorf("player_count must be at least 1, got %d", g.Players)
	}
	if len(g.Transitions) == 0 {
		return fmt.Errorf("transitions must describe at least one state")
	}
	if len(g.Labeling) > len(g.Transitions) {
		return fmt.Errorf("labeling describes %d states but transitions only %d", len(g.Labeling), len(g.Transitions))
	}
	if len(g.Moves) > 0 && len(g.Moves) != len(g.Transitions) {
		return fmt.Errorf("moves describes %d states but transitions %d", len(g.Moves), len(g.Transitions))
	}

	for state, tree := range g.Transitions {
		if err := g.validateTree(tree, 0); err != nil {
			return fmt.Errorf("state %d: %w", state, err)
		}
		if len(g.Moves) == 0 {
			continue
		}
		if len(g.Moves[state]) != g.Players {
			return fmt.Errorf("state %d: moves lists %d players, expected %d", state, len(g.Moves[state]), g.Players)
		}
		if derived := treeMoves(tree, g.Players); !slices.Equal(derived, g.Moves[state]) {
			return fmt.Errorf("state %d: moves %v do not match transitions %v", state, g.Moves[state], derived)
		}
	}
	return nil
}

func (g *EagerGameStructure) validateTree(tree TransitionTree, depth int) error {
	if depth == g.Players {
		if !tree.leaf() {
			return fmt.Errorf("transitions nest deeper than %d players", g.Players)
		}
		if tree.State < 0 || tree.State >= len(g.Transitions) {
			return fmt.Errorf("transition leads to unknown state %d", tree.State)
		}
		return nil
	}
	if tree.leaf() {
		return fmt.Errorf("transitions for player %d are missing", depth)
	}
	if len(tree.Children) == 0 {
		return fmt.Errorf("player %d has no moves", depth)
	}
	width := -1
	for _, child := range tree.Children {
		if err := g.validateTree(child, depth+1); err != nil {
			return err
		}
		if depth+1 < g.Players {
			if width >= 0 && len(child.Children) != width {
				return fmt.Errorf("player %d has a different number of moves depending on earlier choices", depth+1)
			}
			width = len(child.Children)
		}
	}
	return nil
}

func treeMoves(tree TransitionTree, players int) []int {
	moves := make([]int, 0, players)
	for len(moves) < players && !tree.leaf() {
		moves = append(moves, len(tree.Children))
		tree = tree.Children[0]
	}
	return moves
}

func (g *EagerGameStructure) PlayerCount() int  { return g.Players }
func (g *EagerGameStructure) InitialState() int { return 0 }

func (g *EagerGameStructure) Labels(state int) []int {
	if state < len(g.Labeling) {
		return g.Labeling[state]
	}
	return nil
}

func (g *EagerGameStructure) MoveCount(state int) []int {
	if len(g.Moves) > 0 {
		return slices.Clone(g.Moves[state])
	}
	return treeMoves(g.Transitions[state], g.Players)
}

func (g *EagerGameStructure) Transition(state int, moves []int) int {
	tree := g.Transitions[state]
	for _, move := range moves {
		if tree.leaf() {
			break
		}
		tree = tree.Children[move]
	}
	return tree.State
}

// PlayerIndex and LabelIndex make explicit games usable as a Resolver. They
// have no names, so only integer literals resolve.
func (g *EagerGameStructure) PlayerIndex(string) (int, bool)        { return 0, false }
func (g *EagerGameStructure) LabelIndex(string, string) (int, bool) { return 0, false }
