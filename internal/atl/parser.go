package atl

import (
	"fmt"
	"strconv"
	"unicode"

	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

// SourceName labels positions in ATL syntax errors.
const SourceName = "atl"

// Resolver maps the player and proposition names used in a formula to
// indexes. Integer literals are always taken as indexes, so a nil Resolver
// accepts formulas written purely with indexes.
type Resolver interface {
	PlayerIndex(name string) (int, bool)
	LabelIndex(owner, name string) (int, bool)
}

// ParseATL parses the textual ATL syntax:
//
//	<<p1>> F p1.alive
//	[[p2]] (true U !p1.alive) & <<>> X 1
//
// "&" binds tighter than "|". Single brackets "<a>" and "[a]" are accepted as
// synonyms of "<<a>>" and "[[a]]".
func ParseATL(resolver Resolver, text string) (*Phi, error) {
	tokens, err := lexFormula(text)
	if err != nil {
		return nil, err
	}
	p := &formulaParser{tokens: tokens, resolver: resolver}
	phi, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != ftEOF {
		return nil, p.unexpected("end of formula")
	}
	return phi, nil
}

type formulaTokenKind int

const (
	ftEOF formulaTokenKind = iota
	ftIdent
	ftNumber
	ftLParen
	ftRParen
	ftNot
	ftAnd
	ftOr
	ftEnforceOpen
	ftEnforceClose
	ftDespiteOpen
	ftDespiteClose
	ftComma
	ftDot
)

var formulaTokenText = map[formulaTokenKind]string{
	ftEOF:          "end of formula",
	ftIdent:        "identifier",
	ftNumber:       "number",
	ftLParen:       "'('",
	ftRParen:       "')'",
	ftNot:          "'!'",
	ftAnd:          "'&'",
	ftOr:           "'|'",
	ftEnforceOpen:  "'<<'",
	ftEnforceClose: "'>>'",
	ftDespiteOpen:  "'[['",
	ftDespiteClose: "']]'",
	ftComma:        "','",
	ftDot:          "'.'",
}

type formulaToken struct {
	kind   formulaTokenKind
	text   string
	value  int
	line   int
	column int
}

func (t formulaToken) describe() string {
	if t.kind == ftIdent || t.kind == ftNumber {
		return fmt.Sprintf("%s '%s'", formulaTokenText[t.kind], t.text)
	}
	return formulaTokenText[t.kind]
}

func lexFormula(text string) ([]formulaToken, error) {
	runes := []rune(text)
	var tokens []formulaToken
	line, col := 1, 1
	i := 0

	emit := func(kind formulaTokenKind, width int) {
		tokens = append(tokens, formulaToken{kind: kind, text: string(runes[i : i+width]), line: line, column: col})
		i += width
		col += width
	}
	doubled := func(r rune) bool { return i+1 < len(runes) && runes[i+1] == r }

	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\n':
			line++
			col = 1
			i++
		case unicode.IsSpace(r):
			col++
			i++
		case r == '_' || unicode.IsLetter(r):
			start, startCol := i, col
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
				col++
			}
			tokens = append(tokens, formulaToken{kind: ftIdent, text: string(runes[start:i]), line: line, column: startCol})
		case unicode.IsDigit(r):
			start, startCol := i, col
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
				col++
			}
			digits := string(runes[start:i])
			value, err := strconv.Atoi(digits)
			if err != nil {
				return nil, apperrors.NewSyntaxError(SourceName, line, startCol, fmt.Sprintf("number %s is out of range", digits))
			}
			tokens = append(tokens, formulaToken{kind: ftNumber, text: digits, value: value, line: line, column: startCol})
		case r == '(':
			emit(ftLParen, 1)
		case r == ')':
			emit(ftRParen, 1)
		case r == '!':
			emit(ftNot, 1)
		case r == ',':
			emit(ftComma, 1)
		case r == '.':
			emit(ftDot, 1)
		case r == '&':
			if doubled('&') {
				emit(ftAnd, 2)
			} else {
				emit(ftAnd, 1)
			}
		case r == '|':
			if doubled('|') {
				emit(ftOr, 2)
			} else {
				emit(ftOr, 1)
			}
		case r == '<':
			if doubled('<') {
				emit(ftEnforceOpen, 2)
			} else {
				emit(ftEnforceOpen, 1)
			}
		case r == '>':
			if doubled('>') {
				emit(ftEnforceClose, 2)
			} else {
				emit(ftEnforceClose, 1)
			}
		case r == '[':
			if doubled('[') {
				emit(ftDespiteOpen, 2)
			} else {
				emit(ftDespiteOpen, 1)
			}
		case r == ']':
			if doubled(']') {
				emit(ftDespiteClose, 2)
			} else {
				emit(ftDespiteClose, 1)
			}
		default:
			return nil, apperrors.NewSyntaxError(SourceName, line, col, fmt.Sprintf("unexpected character %q", r))
		}
	}
	tokens = append(tokens, formulaToken{kind: ftEOF, line: line, column: col})
	return tokens, nil
}

type formulaParser struct {
	tokens   []formulaToken
	pos      int
	resolver Resolver
}

func (p *formulaParser) peek() formulaToken { return p.tokens[p.pos] }

func (p *formulaParser) next() formulaToken {
	tok := p.tokens[p.pos]
	if tok.kind != ftEOF {
		p.pos++
	}
	return tok
}

func (p *formulaParser) isKeyword(word string) bool {
	tok := p.peek()
	return tok.kind == ftIdent && tok.text == word
}

func (p *formulaParser) expect(kind formulaTokenKind) (formulaToken, error) {
	if p.peek().kind != kind {
		return formulaToken{}, p.unexpected(formulaTokenText[kind])
	}
	return p.next(), nil
}

func (p *formulaParser) unexpected(want string) error {
	tok := p.peek()
	return apperrors.NewSyntaxError(SourceName, tok.line, tok.column, fmt.Sprintf("expected %s, found %s", want, tok.describe()))
}

func (p *formulaParser) failAt(tok formulaToken, format string, args ...any) error {
	return apperrors.NewSyntaxError(SourceName, tok.line, tok.column, fmt.Sprintf(format, args...))
}

func (p *formulaParser) or() (*Phi, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == ftOr {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (p *formulaParser) and() (*Phi, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == ftAnd {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
	return left, nil
}

func (p *formulaParser) unary() (*Phi, error) {
	switch p.peek().kind {
	case ftNot:
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	case ftEnforceOpen, ftDespiteOpen:
		return p.coalition()
	}
	return p.primary()
}

func (p *formulaParser) coalition() (*Phi, error) {
	open := p.next()
	enforce := open.kind == ftEnforceOpen
	closing := ftDespiteClose
	if enforce {
		closing = ftEnforceClose
	}

	var players []int
	if p.peek().kind != closing {
		for {
			player, err := p.player()
			if err != nil {
				return nil, err
			}
			players = append(players, player)
			if p.peek().kind != ftComma {
				break
			}
			p.next()
		}
	}
	end, err := p.expect(closing)
	if err != nil {
		return nil, err
	}
	if len(end.text) != len(open.text) {
		return nil, p.failAt(end, "coalition opened with '%s' must be closed with matching brackets", open.text)
	}

	tok := p.peek()
	switch {
	case p.isKeyword("X"), p.isKeyword("F"), p.isKeyword("G"):
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return pathFormula(tok.text, enforce, players, inner), nil
	case tok.kind == ftLParen:
		p.next()
		pre, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.isKeyword("U") {
			return nil, p.unexpected("'U'")
		}
		p.next()
		until, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ftRParen); err != nil {
			return nil, err
		}
		if enforce {
			return EnforceUntil(players, pre, until), nil
		}
		return DespiteUntil(players, pre, until), nil
	}
	return nil, p.unexpected("temporal operator 'X', 'F', 'G' or '('")
}

func pathFormula(op string, enforce bool, players []int, inner *Phi) *Phi {
	switch {
	case op == "X" && enforce:
		return EnforceNext(players, inner)
	case op == "X":
		return DespiteNext(players, inner)
	case op == "F" && enforce:
		return EnforceEventually(players, inner)
	case op == "F":
		return DespiteEventually(players, inner)
	case enforce:
		return EnforceInvariant(players, inner)
	}
	return DespiteInvariant(players, inner)
}

func (p *formulaParser) player() (int, error) {
	tok := p.peek()
	switch tok.kind {
	case ftNumber:
		p.next()
		return tok.value, nil
	case ftIdent:
		p.next()
		if p.resolver != nil {
			if index, ok := p.resolver.PlayerIndex(tok.text); ok {
				return index, nil
			}
		}
		return 0, p.failAt(tok, "unknown player '%s'", tok.text)
	}
	return 0, p.unexpected("player")
}

func (p *formulaParser) primary() (*Phi, error) {
	tok := p.peek()
	switch tok.kind {
	case ftLParen:
		p.next()
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ftRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case ftNumber:
		p.next()
		return Prop(tok.value), nil
	case ftIdent:
		switch tok.text {
		case "true":
			p.next()
			return True(), nil
		case "false":
			p.next()
			return False(), nil
		case "X", "F", "G", "U":
			return nil, p.failAt(tok, "temporal operator '%s' must follow a coalition", tok.text)
		}
		return p.proposition()
	}
	return nil, p.unexpected("formula")
}

func (p *formulaParser) proposition() (*Phi, error) {
	first := p.next()
	owner, name := "", first.text
	if p.peek().kind == ftDot {
		p.next()
		second, err := p.expect(ftIdent)
		if err != nil {
			return nil, err
		}
		owner, name = first.text, second.text
	}
	if p.resolver != nil {
		if index, ok := p.resolver.LabelIndex(owner, name); ok {
			return Prop(index), nil
		}
	}
	if owner != "" {
		return nil, p.failAt(first, "unknown proposition '%s.%s'", owner, name)
	}
	return nil, p.failAt(first, "unknown proposition '%s'", name)
}
