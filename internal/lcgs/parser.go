package lcgs

import (
	"fmt"

	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

// Parse turns LCGS program text into a syntax tree.
func Parse(src string) (*Root, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root := &Root{}
	for !p.at(tokEOF) {
		decl, err := p.globalDecl()
		if err != nil {
			return nil, err
		}
		root.Decls = append(root.Decls, decl)
	}
	return root, nil
}

// ParseExpr parses a single expression. It is used by tests and by tools that
// evaluate ad hoc conditions against a model.
func ParseExpr(src string) (Expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		return nil, p.unexpected("end of input")
	}
	return expr, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) peekAt(offset int) token {
	if p.pos+offset < len(p.tokens) {
		return p.tokens[p.pos+offset]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) at(kind tokenKind) bool { return p.peek().kind == kind }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind tokenKind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if !p.at(kind) {
		return token{}, p.unexpected(kind.String())
	}
	return p.next(), nil
}

func (p *parser) unexpected(want string) error {
	tok := p.peek()
	return apperrors.NewSyntaxError(SourceName, tok.pos.Line, tok.pos.Column,
		fmt.Sprintf("expected %s, found %s", want, tok.describe()))
}

func (p *parser) errorAt(pos Pos, format string, args ...any) error {
	return apperrors.NewSyntaxError(SourceName, pos.Line, pos.Column, fmt.Sprintf(format, args...))
}

func (p *parser) globalDecl() (Decl, error) {
	tok := p.peek()
	switch tok.kind {
	case tokConst:
		return p.constDecl()
	case tokPlayer:
		return p.playerDecl()
	case tokTemplate:
		return p.templateDecl()
	case tokLBracket:
		return nil, p.errorAt(tok.pos, "transitions are only allowed inside templates")
	}
	return p.sharedDecl("declaration")
}

// sharedDecl parses the declarations valid both globally and in templates.
func (p *parser) sharedDecl(want string) (Decl, error) {
	tok := p.peek()
	switch tok.kind {
	case tokLabel:
		return p.labelDecl()
	case tokIdent:
		switch p.peekAt(1).kind {
		case tokColon:
			return p.stateVarDecl()
		case tokPrime:
			return p.stateVarChangeDecl()
		}
		p.next()
		return nil, p.unexpected("':' or '''")
	}
	return nil, p.unexpected(want)
}

func (p *parser) constDecl() (Decl, error) {
	start := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign); err != nil {
		return nil, err
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &ConstDecl{Name: name.text, Value: value, At: start.pos}, nil
}

func (p *parser) labelDecl() (Decl, error) {
	start := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &LabelDecl{Name: name.text, Condition: cond, At: start.pos}, nil
}

func (p *parser) stateVarDecl() (Decl, error) {
	name := p.next()
	p.next() // ':'
	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	lo, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokDotDot); err != nil {
		return nil, err
	}
	hi, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokInit); err != nil {
		return nil, err
	}
	initial, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &StateVarDecl{Name: name.text, Min: lo, Max: hi, Init: initial, At: name.pos}, nil
}

func (p *parser) stateVarChangeDecl() (Decl, error) {
	name := p.next()
	p.next() // '
	if _, err := p.expect(tokAssign); err != nil {
		return nil, err
	}
	next, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &StateVarChangeDecl{Name: name.text, Next: next, At: name.pos}, nil
}

func (p *parser) playerDecl() (Decl, error) {
	start := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign); err != nil {
		return nil, err
	}
	tmpl, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}

	decl := &PlayerDecl{Name: name.text, Template: tmpl.text, At: start.pos}
	if p.accept(tokLBracket) {
		for {
			from, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokAssign); err != nil {
				return nil, err
			}
			relabel := RelabelCase{From: from.text}
			switch to := p.peek(); to.kind {
			case tokIdent:
				relabel.ToName = to.text
			case tokNumber:
				relabel.ToNumber = to.value
				relabel.IsNumber = true
			default:
				return nil, p.unexpected("identifier or number")
			}
			p.next()
			decl.Relabeling = append(decl.Relabeling, relabel)
			if !p.accept(tokComma) {
				break
			}
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) templateDecl() (Decl, error) {
	start := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}

	decl := &TemplateDecl{Name: name.text, At: start.pos}
	if p.accept(tokLParen) {
		for {
			param, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			decl.Params = append(decl.Params, param.text)
			if !p.accept(tokComma) {
				break
			}
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
	}

	for !p.accept(tokEndTemplate) {
		var (
			inner Decl
			err   error
		)
		switch p.peek().kind {
		case tokLBracket:
			inner, err = p.transitionDecl()
		case tokConst, tokPlayer, tokTemplate:
			tok := p.peek()
			return nil, p.errorAt(tok.pos, "%s is not allowed inside a template", tok.kind)
		default:
			inner, err = p.sharedDecl("template declaration or 'endtemplate'")
		}
		if err != nil {
			return nil, err
		}
		decl.Decls = append(decl.Decls, inner)
	}
	return decl, nil
}

func (p *parser) transitionDecl() (Decl, error) {
	start := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &TransitionDecl{Name: name.text, Condition: cond, At: start.pos}, nil
}

// Expressions, loosest binding first.

func (p *parser) expr() (Expr, error) {
	cond, err := p.implication()
	if err != nil {
		return nil, err
	}
	if !p.at(tokQuestion) {
		return cond, nil
	}
	p.next()
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	els, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &Ternary{Cond: cond, Then: then, Else: els, At: cond.Position()}, nil
}

func (p *parser) implication() (Expr, error) {
	left, err := p.binaryLevel(0)
	if err != nil {
		return nil, err
	}
	if !p.at(tokArrow) {
		return left, nil
	}
	p.next()
	right, err := p.implication()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpImplies, L: left, R: right, At: left.Position()}, nil
}

// binaryLevels lists left-associative operator tiers from loosest to tightest.
var binaryLevels = []map[tokenKind]BinaryOp{
	{tokOr: OpOr},
	{tokXor: OpXor},
	{tokAnd: OpAnd},
	{tokEq: OpEq, tokNeq: OpNeq},
	{tokLt: OpLt, tokLeq: OpLeq, tokGt: OpGt, tokGeq: OpGeq},
	{tokPlus: OpAdd, tokMinus: OpSub},
	{tokStar: OpMul, tokSlash: OpDiv},
}

func (p *parser) binaryLevel(level int) (Expr, error) {
	if level == len(binaryLevels) {
		return p.unary()
	}
	left, err := p.binaryLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binaryLevels[level][p.peek().kind]
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, At: left.Position()}
	}
}

func (p *parser) unary() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNot, tokMinus:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		op := OpNot
		if tok.kind == tokMinus {
			op = OpNeg
		}
		return &Unary{Op: op, X: operand, At: tok.pos}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNumber:
		p.next()
		return &Number{Value: tok.value, At: tok.pos}, nil
	case tokIdent:
		p.next()
		if p.accept(tokDot) {
			name, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			return &Ident{Owner: tok.text, Name: name.text, At: tok.pos}, nil
		}
		return &Ident{Name: tok.text, At: tok.pos}, nil
	case tokLParen:
		p.next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.unexpected("expression")
}
