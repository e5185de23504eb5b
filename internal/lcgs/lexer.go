package lcgs

import (
	"fmt"
	"strconv"
	"unicode"

	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

// SourceName labels positions in LCGS syntax errors.
const SourceName = "lcgs"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokConst
	tokLabel
	tokPlayer
	tokTemplate
	tokEndTemplate
	tokInit
	tokSemi
	tokAssign
	tokColon
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokDotDot
	tokDot
	tokComma
	tokPrime
	tokQuestion
	tokNot
	tokMinus
	tokPlus
	tokStar
	tokSlash
	tokEq
	tokNeq
	tokLt
	tokLeq
	tokGt
	tokGeq
	tokAnd
	tokOr
	tokXor
	tokArrow
)

var keywords = map[string]tokenKind{
	"const":       tokConst,
	"label":       tokLabel,
	"player":      tokPlayer,
	"template":    tokTemplate,
	"endtemplate": tokEndTemplate,
	"init":        tokInit,
}

var tokenText = map[tokenKind]string{
	tokEOF:         "end of input",
	tokIdent:       "identifier",
	tokNumber:      "number",
	tokConst:       "'const'",
	tokLabel:       "'label'",
	tokPlayer:      "'player'",
	tokTemplate:    "'template'",
	tokEndTemplate: "'endtemplate'",
	tokInit:        "'init'",
	tokSemi:        "';'",
	tokAssign:      "'='",
	tokColon:       "':'",
	tokLBracket:    "'['",
	tokRBracket:    "']'",
	tokLParen:      "'('",
	tokRParen:      "')'",
	tokDotDot:      "'..'",
	tokDot:         "'.'",
	tokComma:       "','",
	tokPrime:       "'''",
	tokQuestion:    "'?'",
	tokNot:         "'!'",
	tokMinus:       "'-'",
	tokPlus:        "'+'",
	tokStar:        "'*'",
	tokSlash:       "'/'",
	tokEq:          "'=='",
	tokNeq:         "'!='",
	tokLt:          "'<'",
	tokLeq:         "'<='",
	tokGt:          "'>'",
	tokGeq:         "'>='",
	tokAnd:         "'&&'",
	tokOr:          "'||'",
	tokXor:         "'^'",
	tokArrow:       "'->'",
}

func (k tokenKind) String() string { return tokenText[k] }

type token struct {
	kind  tokenKind
	text  string
	value int
	pos   Pos
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s '%s'", t.kind, t.text)
	}
	return t.kind.String()
}

// lex splits src into tokens. Comments run from "//" to the end of the line.
func lex(src string) ([]token, error) {
	runes := []rune(src)
	tokens := make([]token, 0, len(runes)/3)
	line, col := 1, 1
	i := 0

	advance := func(n int) {
		for k := 0; k < n; k++ {
			if runes[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}
	peek := func(offset int) rune {
		if i+offset < len(runes) {
			return runes[i+offset]
		}
		return 0
	}

	for i < len(runes) {
		r := runes[i]
		pos := Pos{Line: line, Column: col}

		switch {
		case unicode.IsSpace(r):
			advance(1)
			continue
		case r == '/' && peek(1) == '/':
			for i < len(runes) && runes[i] != '\n' {
				advance(1)
			}
			continue
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				advance(1)
			}
			text := string(runes[start:i])
			kind, ok := keywords[text]
			if !ok {
				kind = tokIdent
			}
			tokens = append(tokens, token{kind: kind, text: text, pos: pos})
			continue
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				advance(1)
			}
			text := string(runes[start:i])
			value, err := strconv.Atoi(text)
			if err != nil {
				return nil, apperrors.NewSyntaxError(SourceName, pos.Line, pos.Column, fmt.Sprintf("number %s is out of range", text))
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, value: value, pos: pos})
			continue
		}

		kind, width := punctuation(r, peek(1))
		if width == 0 {
			return nil, apperrors.NewSyntaxError(SourceName, pos.Line, pos.Column, fmt.Sprintf("unexpected character %q", r))
		}
		tokens = append(tokens, token{kind: kind, text: string(runes[i : i+width]), pos: pos})
		advance(width)
	}

	tokens = append(tokens, token{kind: tokEOF, pos: Pos{Line: line, Column: col}})
	return tokens, nil
}

func punctuation(r, next rune) (tokenKind, int) {
	switch r {
	case ';':
		return tokSemi, 1
	case ':':
		return tokColon, 1
	case '[':
		return tokLBracket, 1
	case ']':
		return tokRBracket, 1
	case '(':
		return tokLParen, 1
	case ')':
		return tokRParen, 1
	case ',':
		return tokComma, 1
	case '\'':
		return tokPrime, 1
	case '?':
		return tokQuestion, 1
	case '+':
		return tokPlus, 1
	case '*':
		return tokStar, 1
	case '/':
		return tokSlash, 1
	case '^':
		return tokXor, 1
	case '.':
		if next == '.' {
			return tokDotDot, 2
		}
		return tokDot, 1
	case '=':
		if next == '=' {
			return tokEq, 2
		}
		return tokAssign, 1
	case '!':
		if next == '=' {
			return tokNeq, 2
		}
		return tokNot, 1
	case '<':
		if next == '=' {
			return tokLeq, 2
		}
		return tokLt, 1
	case '>':
		if next == '=' {
			return tokGeq, 2
		}
		return tokGt, 1
	case '-':
		if next == '>' {
			return tokArrow, 2
		}
		return tokMinus, 1
	case '&':
		if next == '&' {
			return tokAnd, 2
		}
	case '|':
		if next == '|' {
			return tokOr, 2
		}
	}
	return tokEOF, 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
