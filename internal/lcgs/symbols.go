package lcgs

import (
	"fmt"

	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

type symbolKind int

const (
	symConst symbolKind = iota
	symLabel
	symStateVar
	symPlayer
	symTemplate
	symTransition
)

var symbolKindText = map[symbolKind]string{
	symConst:      "constant",
	symLabel:      "label",
	symStateVar:   "state variable",
	symPlayer:     "player",
	symTemplate:   "template",
	symTransition: "action",
}

func (k symbolKind) String() string { return symbolKindText[k] }

type symbol struct {
	kind   symbolKind
	owner  string
	name   string
	pos    Pos
	value  int
	index  int
	player int
}

func (s *symbol) qualified() string { return qualify(s.owner, s.name) }

func qualify(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// checkMode restricts which symbols an expression may reference.
type checkMode int

const (
	// modeConst allows constants only.
	modeConst checkMode = iota
	// modeLabelOrTransition allows constants and state variables.
	modeLabelOrTransition
	// modeStateVarChange additionally allows actions.
	modeStateVarChange
)

func (m checkMode) allows(kind symbolKind) bool {
	switch kind {
	case symConst:
		return true
	case symStateVar:
		return m != modeConst
	case symTransition:
		return m == modeStateVarChange
	}
	return false
}

func (m checkMode) describe() string {
	switch m {
	case modeConst:
		return "a constant expression"
	case modeLabelOrTransition:
		return "a label or transition guard"
	}
	return "a state variable update"
}

// symbolTable maps qualified names to symbols, preserving registration order.
type symbolTable struct {
	byName map[string]*symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{byName: make(map[string]*symbol)}
}

func (t *symbolTable) insert(sym *symbol) error {
	key := sym.qualified()
	if prev, ok := t.byName[key]; ok {
		return declError(sym.owner, sym.name, sym.pos,
			"duplicate declaration of '%s' (previously declared as %s at %d:%d)", key, prev.kind, prev.pos.Line, prev.pos.Column)
	}
	t.byName[key] = sym
	return nil
}

func (t *symbolTable) get(owner, name string) (*symbol, bool) {
	sym, ok := t.byName[qualify(owner, name)]
	return sym, ok
}

func declError(owner, name string, pos Pos, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	if pos.Line > 0 {
		message = fmt.Sprintf("%s (at %d:%d)", message, pos.Line, pos.Column)
	}
	return apperrors.NewValidationError(qualify(owner, name), message, nil)
}

// checker resolves identifiers of one declaration and folds constant
// sub-expressions.
type checker struct {
	table *symbolTable
	owner string
	decl  string
	mode  checkMode
	// self is the qualified name of the variable an update belongs to.
	self string
}

func (c *checker) fail(pos Pos, format string, args ...any) error {
	return declError(c.owner, c.decl, pos, format, args...)
}

func (c *checker) check(e Expr) (Expr, error) {
	switch e := e.(type) {
	case *Number:
		return e, nil
	case *Ident:
		return c.resolve(e)
	case *Unary:
		x, err := c.check(e.X)
		if err != nil {
			return nil, err
		}
		if n, ok := x.(*Number); ok {
			return &Number{Value: e.Op.Apply(n.Value), At: e.At}, nil
		}
		return &Unary{Op: e.Op, X: x, At: e.At}, nil
	case *Binary:
		l, err := c.check(e.L)
		if err != nil {
			return nil, err
		}
		r, err := c.check(e.R)
		if err != nil {
			return nil, err
		}
		ln, lok := l.(*Number)
		rn, rok := r.(*Number)
		if lok && rok {
			return &Number{Value: e.Op.Apply(ln.Value, rn.Value), At: e.At}, nil
		}
		return &Binary{Op: e.Op, L: l, R: r, At: e.At}, nil
	case *Ternary:
		cond, err := c.check(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.check(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.check(e.Else)
		if err != nil {
			return nil, err
		}
		if n, ok := cond.(*Number); ok {
			if n.Value != 0 {
				return then, nil
			}
			return els, nil
		}
		return &Ternary{Cond: cond, Then: then, Else: els, At: e.At}, nil
	}
	return nil, c.fail(e.Position(), "unsupported expression %s", e)
}

func (c *checker) resolve(id *Ident) (Expr, error) {
	var (
		sym *symbol
		ok  bool
	)
	if id.Owner != "" {
		if c.mode == modeConst {
			return nil, c.fail(id.At, "expected %s, found reference to '%s'", c.mode.describe(), id)
		}
		player, found := c.table.get("", id.Owner)
		if !found || player.kind != symPlayer {
			return nil, c.fail(id.At, "unknown player '%s'", id.Owner)
		}
		sym, ok = c.table.get(id.Owner, id.Name)
		if !ok {
			return nil, c.fail(id.At, "player '%s' has no declaration named '%s'", id.Owner, id.Name)
		}
	} else {
		sym, ok = c.table.get(c.owner, id.Name)
		if !ok && c.owner != "" {
			sym, ok = c.table.get("", id.Name)
		}
		if !ok {
			return nil, c.fail(id.At, "unknown identifier '%s'", id.Name)
		}
	}

	if sym.qualified() == qualify(c.owner, c.decl) && sym.qualified() != c.self {
		return nil, c.fail(id.At, "'%s' refers to itself", sym.qualified())
	}
	if !c.mode.allows(sym.kind) {
		return nil, c.fail(id.At, "%s '%s' cannot be referenced in %s", sym.kind, sym.qualified(), c.mode.describe())
	}

	switch sym.kind {
	case symConst:
		return &Number{Value: sym.value, At: id.At}, nil
	case symStateVar:
		return &VarRef{Index: sym.index, Label: sym.qualified(), At: id.At}, nil
	default:
		return &ActionRef{Player: sym.player, Action: sym.index, Label: sym.qualified(), At: id.At}, nil
	}
}

// evalConst checks e in const mode and requires the result to fold to a literal.
func (c *checker) evalConst(e Expr) (int, error) {
	folded, err := c.check(e)
	if err != nil {
		return 0, err
	}
	n, ok := folded.(*Number)
	if !ok {
		return 0, c.fail(e.Position(), "expected a constant expression, found %s", folded)
	}
	return n.Value, nil
}
