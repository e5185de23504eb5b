package lcgs

// relabeler rewrites a template's declarations for one player instance.
type relabeler struct {
	cases map[string]RelabelCase
}

func newRelabeler(cases []RelabelCase) *relabeler {
	r := &relabeler{cases: make(map[string]RelabelCase, len(cases))}
	for _, c := range cases {
		r.cases[c.From] = c
	}
	return r
}

// name returns the relabeled form of a declaration or owner name. Relabeling a
// name to an integer leaves names untouched; only expressions see the literal.
func (r *relabeler) name(n string) string {
	if c, ok := r.cases[n]; ok && !c.IsNumber {
		return c.ToName
	}
	return n
}

func (r *relabeler) decl(d Decl) Decl {
	switch d := d.(type) {
	case *LabelDecl:
		return &LabelDecl{Name: r.name(d.Name), Condition: r.expr(d.Condition), At: d.At}
	case *StateVarDecl:
		return &StateVarDecl{
			Name: r.name(d.Name),
			Min:  r.expr(d.Min),
			Max:  r.expr(d.Max),
			Init: r.expr(d.Init),
			At:   d.At,
		}
	case *StateVarChangeDecl:
		return &StateVarChangeDecl{Name: r.name(d.Name), Next: r.expr(d.Next), At: d.At}
	case *TransitionDecl:
		return &TransitionDecl{Name: r.name(d.Name), Condition: r.expr(d.Condition), At: d.At}
	}
	return d
}

func (r *relabeler) expr(e Expr) Expr {
	switch e := e.(type) {
	case *Ident:
		if e.Owner == "" {
			if c, ok := r.cases[e.Name]; ok && c.IsNumber {
				return &Number{Value: c.ToNumber, At: e.At}
			}
		}
		return &Ident{Owner: r.name(e.Owner), Name: r.name(e.Name), At: e.At}
	case *Unary:
		return &Unary{Op: e.Op, X: r.expr(e.X), At: e.At}
	case *Binary:
		return &Binary{Op: e.Op, L: r.expr(e.L), R: r.expr(e.R), At: e.At}
	case *Ternary:
		return &Ternary{Cond: r.expr(e.Cond), Then: r.expr(e.Then), Else: r.expr(e.Else), At: e.At}
	}
	return e
}
