package lcgs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Player is an instantiated template.
type Player struct {
	Index   int
	Name    string
	Actions []Action
}

// Action is a transition of a player, enabled while its guard is nonzero.
type Action struct {
	Name  string
	Guard Expr
}

// Variable is a bounded integer state variable. Next is nil when the variable
// never changes.
type Variable struct {
	Owner string
	Name  string
	Min   int
	Max   int
	Init  int
	Next  Expr
}

// Label is a named proposition over state variables.
type Label struct {
	Index     int
	Owner     string
	Name      string
	Condition Expr
}

// QualifiedName returns "owner.name" or "name" for global labels.
func (l Label) QualifiedName() string { return qualify(l.Owner, l.Name) }

// Game is the checked intermediate representation of an LCGS program. States
// are mixed-radix numbers over the state variables in declaration order, the
// first variable being the least significant digit.
type Game struct {
	players    []Player
	vars       []Variable
	labels     []Label
	playerIdx  map[string]int
	labelIdx   map[string]int
	initial    int
	stateCount int
}

// maxStates bounds the encoded state space.
const maxStates = math.MaxInt32

// Build resolves, checks and folds a parsed program.
func Build(root *Root) (*Game, error) {
	b := &builder{table: newSymbolTable()}
	return b.build(root)
}

type pendingChange struct {
	owner string
	decl  *StateVarChangeDecl
}

type pendingDecl struct {
	owner string
	decl  Decl
}

type builder struct {
	table     *symbolTable
	players   []*PlayerDecl
	varDecls  []pendingDecl
	labels    []pendingDecl
	actions   [][]pendingDecl
	changes   []pendingChange
	templates map[string]*TemplateDecl
}

func (b *builder) build(root *Root) (*Game, error) {
	b.templates = make(map[string]*TemplateDecl)

	for _, decl := range root.Decls {
		if err := b.registerGlobal(decl); err != nil {
			return nil, err
		}
	}
	for i, player := range b.players {
		if err := b.instantiate(i, player); err != nil {
			return nil, err
		}
	}

	game := &Game{
		playerIdx: make(map[string]int, len(b.players)),
		labelIdx:  make(map[string]int, len(b.labels)),
	}
	if err := b.checkVariables(game); err != nil {
		return nil, err
	}
	if err := b.checkChanges(game); err != nil {
		return nil, err
	}
	if err := b.checkLabels(game); err != nil {
		return nil, err
	}
	if err := b.checkPlayers(game); err != nil {
		return nil, err
	}
	if err := game.layout(); err != nil {
		return nil, err
	}
	return game, nil
}

func (b *builder) registerGlobal(decl Decl) error {
	switch d := decl.(type) {
	case *ConstDecl:
		c := &checker{table: b.table, decl: d.Name, mode: modeConst}
		value, err := c.evalConst(d.Value)
		if err != nil {
			return err
		}
		return b.table.insert(&symbol{kind: symConst, name: d.Name, pos: d.At, value: value})
	case *PlayerDecl:
		if err := b.table.insert(&symbol{kind: symPlayer, name: d.Name, pos: d.At, index: len(b.players)}); err != nil {
			return err
		}
		b.players = append(b.players, d)
		return nil
	case *TemplateDecl:
		if err := b.table.insert(&symbol{kind: symTemplate, name: d.Name, pos: d.At}); err != nil {
			return err
		}
		b.templates[d.Name] = d
		return nil
	}
	return b.registerShared("", -1, decl)
}

// registerShared registers a declaration allowed both globally and inside
// templates. player is -1 for the global scope.
func (b *builder) registerShared(owner string, player int, decl Decl) error {
	switch d := decl.(type) {
	case *LabelDecl:
		if err := b.table.insert(&symbol{kind: symLabel, owner: owner, name: d.Name, pos: d.At, index: len(b.labels)}); err != nil {
			return err
		}
		b.labels = append(b.labels, pendingDecl{owner: owner, decl: d})
	case *StateVarDecl:
		if err := b.table.insert(&symbol{kind: symStateVar, owner: owner, name: d.Name, pos: d.At, index: len(b.varDecls)}); err != nil {
			return err
		}
		b.varDecls = append(b.varDecls, pendingDecl{owner: owner, decl: d})
	case *StateVarChangeDecl:
		b.changes = append(b.changes, pendingChange{owner: owner, decl: d})
	case *TransitionDecl:
		if player < 0 {
			return declError(owner, d.Name, d.At, "transitions are only allowed inside templates")
		}
		action := len(b.actions[player])
		sym := &symbol{kind: symTransition, owner: owner, name: d.Name, pos: d.At, index: action, player: player}
		if err := b.table.insert(sym); err != nil {
			return err
		}
		b.actions[player] = append(b.actions[player], pendingDecl{owner: owner, decl: d})
	default:
		return declError(owner, decl.DeclName(), decl.Position(), "declaration is not allowed here")
	}
	return nil
}

func (b *builder) instantiate(index int, player *PlayerDecl) error {
	sym, ok := b.table.get("", player.Template)
	if !ok {
		return declError("", player.Name, player.At, "unknown template '%s'", player.Template)
	}
	if sym.kind != symTemplate {
		return declError("", player.Name, player.At, "'%s' is a %s, not a template", player.Template, sym.kind)
	}
	tmpl := b.templates[player.Template]

	relabel := newRelabeler(player.Relabeling)
	for _, param := range tmpl.Params {
		if _, ok := relabel.cases[param]; !ok {
			return declError("", player.Name, player.At, "template '%s' requires parameter '%s' to be relabeled", tmpl.Name, param)
		}
	}

	b.actions = append(b.actions, nil)
	for _, decl := range tmpl.Decls {
		if err := b.registerShared(player.Name, index, relabel.decl(decl)); err != nil {
			return err
		}
	}
	if len(b.actions[index]) == 0 {
		return declError("", player.Name, player.At, "player has no actions")
	}
	return nil
}

func (b *builder) checkVariables(game *Game) error {
	for _, pending := range b.varDecls {
		d := pending.decl.(*StateVarDecl)
		c := &checker{table: b.table, owner: pending.owner, decl: d.Name, mode: modeConst}
		lo, err := c.evalConst(d.Min)
		if err != nil {
			return err
		}
		hi, err := c.evalConst(d.Max)
		if err != nil {
			return err
		}
		initial, err := c.evalConst(d.Init)
		if err != nil {
			return err
		}
		if lo > hi {
			return c.fail(d.At, "empty range [%d .. %d]", lo, hi)
		}
		// hi-lo wraps negative when the range is wider than int.
		if span := hi - lo; span < 0 || span >= maxStates {
			return c.fail(d.At, "range [%d .. %d] exceeds %d states", lo, hi, maxStates)
		}
		if initial < lo || initial > hi {
			return c.fail(d.At, "initial value %d is outside the range [%d .. %d]", initial, lo, hi)
		}
		game.vars = append(game.vars, Variable{Owner: pending.owner, Name: d.Name, Min: lo, Max: hi, Init: initial})
	}
	return nil
}

func (b *builder) checkChanges(game *Game) error {
	for _, pending := range b.changes {
		d := pending.decl
		sym, ok := b.table.get(pending.owner, d.Name)
		if !ok || sym.kind != symStateVar {
			return declError(pending.owner, d.Name, d.At, "update of '%s' has no matching state variable", qualify(pending.owner, d.Name))
		}
		v := &game.vars[sym.index]
		if v.Next != nil {
			return declError(pending.owner, d.Name, d.At, "state variable '%s' is updated more than once", sym.qualified())
		}
		c := &checker{table: b.table, owner: pending.owner, decl: d.Name, mode: modeStateVarChange, self: sym.qualified()}
		next, err := c.check(d.Next)
		if err != nil {
			return err
		}
		v.Next = next
	}
	return nil
}

func (b *builder) checkLabels(game *Game) error {
	for i, pending := range b.labels {
		d := pending.decl.(*LabelDecl)
		c := &checker{table: b.table, owner: pending.owner, decl: d.Name, mode: modeLabelOrTransition}
		cond, err := c.check(d.Condition)
		if err != nil {
			return err
		}
		label := Label{Index: i, Owner: pending.owner, Name: d.Name, Condition: cond}
		game.labels = append(game.labels, label)
		game.labelIdx[label.QualifiedName()] = i
	}
	return nil
}

func (b *builder) checkPlayers(game *Game) error {
	for i, decl := range b.players {
		player := Player{Index: i, Name: decl.Name}
		for _, pending := range b.actions[i] {
			d := pending.decl.(*TransitionDecl)
			c := &checker{table: b.table, owner: pending.owner, decl: d.Name, mode: modeLabelOrTransition}
			guard, err := c.check(d.Condition)
			if err != nil {
				return err
			}
			player.Actions = append(player.Actions, Action{Name: d.Name, Guard: guard})
		}
		game.players = append(game.players, player)
		game.playerIdx[decl.Name] = i
	}
	return nil
}

func (g *Game) layout() error {
	count := 1
	values := make([]int, len(g.vars))
	for i, v := range g.vars {
		size := v.Max - v.Min + 1
		if count > maxStates/size {
			return declError(v.Owner, v.Name, Pos{}, "state space exceeds %d states", maxStates)
		}
		count *= size
		values[i] = v.Init
	}
	g.stateCount = count
	g.initial = g.encode(values)
	return nil
}

// PlayerCount returns the number of players.
func (g *Game) PlayerCount() int { return len(g.players) }

// StateCount returns the size of the encoded state space.
func (g *Game) StateCount() int { return g.stateCount }

// InitialState encodes every variable's initial value.
func (g *Game) InitialState() int { return g.initial }

// Players lists the players in declaration order.
func (g *Game) Players() []Player { return append([]Player(nil), g.players...) }

// Variables lists the state variables in declaration order.
func (g *Game) Variables() []Variable { return append([]Variable(nil), g.vars...) }

// Propositions lists the labels by index.
func (g *Game) Propositions() []Label { return append([]Label(nil), g.labels...) }

// PlayerIndex looks a player up by name.
func (g *Game) PlayerIndex(name string) (int, bool) {
	i, ok := g.playerIdx[name]
	return i, ok
}

// LabelIndex looks a label up by owner and name. An empty owner means a global
// label.
func (g *Game) LabelIndex(owner, name string) (int, bool) {
	i, ok := g.labelIdx[qualify(owner, name)]
	return i, ok
}

// PlayerName returns the declared name of a player index.
func (g *Game) PlayerName(index int) string {
	if index < 0 || index >= len(g.players) {
		return strconv.Itoa(index)
	}
	return g.players[index].Name
}

// LabelName returns the qualified name of a label index.
func (g *Game) LabelName(index int) string {
	if index < 0 || index >= len(g.labels) {
		return strconv.Itoa(index)
	}
	return g.labels[index].QualifiedName()
}

// Labels returns the indexes of the labels that hold in state.
func (g *Game) Labels(state int) []int {
	values := g.decode(state)
	var out []int
	for _, label := range g.labels {
		if eval(label.Condition, values, nil) != 0 {
			out = append(out, label.Index)
		}
	}
	return out
}

// MoveCount returns the number of moves available to each player in state.
func (g *Game) MoveCount(state int) []int {
	values := g.decode(state)
	counts := make([]int, len(g.players))
	for i := range g.players {
		counts[i] = max(len(g.enabled(i, values)), 1)
	}
	return counts
}

// Transition applies one move per player. Each move indexes the player's
// enabled actions in state.
func (g *Game) Transition(state int, moves []int) int {
	values := g.decode(state)
	chosen := make([]int, len(g.players))
	for i := range g.players {
		chosen[i] = -1
		enabled := g.enabled(i, values)
		if i < len(moves) && moves[i] < len(enabled) {
			chosen[i] = enabled[moves[i]]
		}
	}

	next := make([]int, len(values))
	for i, v := range g.vars {
		if v.Next == nil {
			next[i] = values[i]
			continue
		}
		next[i] = min(max(eval(v.Next, values, chosen), v.Min), v.Max)
	}
	return g.encode(next)
}

// StateString renders the variable assignment of state.
func (g *Game) StateString(state int) string {
	values := g.decode(state)
	parts := make([]string, len(g.vars))
	for i, v := range g.vars {
		parts[i] = fmt.Sprintf("%s=%d", qualify(v.Owner, v.Name), values[i])
	}
	return strings.Join(parts, ", ")
}

func (g *Game) enabled(player int, values []int) []int {
	var out []int
	for i, action := range g.players[player].Actions {
		if eval(action.Guard, values, nil) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func (g *Game) decode(state int) []int {
	values := make([]int, len(g.vars))
	for i, v := range g.vars {
		size := v.Max - v.Min + 1
		values[i] = v.Min + state%size
		state /= size
	}
	return values
}

func (g *Game) encode(values []int) int {
	state, stride := 0, 1
	for i, v := range g.vars {
		state += (values[i] - v.Min) * stride
		stride *= v.Max - v.Min + 1
	}
	return state
}

// eval evaluates a checked expression. chosen holds the action index picked by
// each player, or -1 for the idle move; it is nil outside updates.
func eval(e Expr, values []int, chosen []int) int {
	switch e := e.(type) {
	case *Number:
		return e.Value
	case *VarRef:
		return values[e.Index]
	case *ActionRef:
		if chosen == nil {
			return 0
		}
		return boolInt(chosen[e.Player] == e.Action)
	case *Unary:
		return e.Op.Apply(eval(e.X, values, chosen))
	case *Binary:
		return e.Op.Apply(eval(e.L, values, chosen), eval(e.R, values, chosen))
	case *Ternary:
		if eval(e.Cond, values, chosen) != 0 {
			return eval(e.Then, values, chosen)
		}
		return eval(e.Else, values, chosen)
	}
	panic(fmt.Sprintf("lcgs: cannot evaluate unchecked expression %s", e))
}
