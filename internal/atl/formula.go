package atl

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the operator at the root of a formula.
type Kind int

const (
	KindTrue Kind = iota
	KindFalse
	KindProposition
	KindNot
	KindOr
	KindAnd
	KindDespiteNext
	KindEnforceNext
	KindDespiteUntil
	KindEnforceUntil
	KindDespiteEventually
	KindEnforceEventually
	KindDespiteInvariant
	KindEnforceInvariant
)

// Phi is an Alternating-time Temporal Logic formula.
//
// Left holds the operand of Not and of the Next, Eventually and Invariant
// path formulas, the left side of Or and And, and the pre condition of Until.
// Right holds the right side of Or and And and the until condition of Until.
type Phi struct {
	Kind        Kind
	Proposition int
	Players     []int
	Left        *Phi
	Right       *Phi
}

func True() *Phi  { return &Phi{Kind: KindTrue} }
func False() *Phi { return &Phi{Kind: KindFalse} }

func Prop(index int) *Phi { return &Phi{Kind: KindProposition, Proposition: index} }

func Not(phi *Phi) *Phi { return &Phi{Kind: KindNot, Left: phi} }

func Or(left, right *Phi) *Phi  { return &Phi{Kind: KindOr, Left: left, Right: right} }
func And(left, right *Phi) *Phi { return &Phi{Kind: KindAnd, Left: left, Right: right} }

func DespiteNext(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindDespiteNext, Players: players, Left: phi}
}

func EnforceNext(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindEnforceNext, Players: players, Left: phi}
}

func DespiteUntil(players []int, pre, until *Phi) *Phi {
	return &Phi{Kind: KindDespiteUntil, Players: players, Left: pre, Right: until}
}

func EnforceUntil(players []int, pre, until *Phi) *Phi {
	return &Phi{Kind: KindEnforceUntil, Players: players, Left: pre, Right: until}
}

func DespiteEventually(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindDespiteEventually, Players: players, Left: phi}
}

func EnforceEventually(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindEnforceEventually, Players: players, Left: phi}
}

func DespiteInvariant(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindDespiteInvariant, Players: players, Left: phi}
}

func EnforceInvariant(players []int, phi *Phi) *Phi {
	return &Phi{Kind: KindEnforceInvariant, Players: players, Left: phi}
}

// IsPathQualified reports whether the formula starts with a coalition.
func (p *Phi) IsPathQualified() bool { return p.Kind >= KindDespiteNext }

// IsEnforce reports whether the coalition is an enforce coalition <<A>>.
func (p *Phi) IsEnforce() bool {
	switch p.Kind {
	case KindEnforceNext, KindEnforceUntil, KindEnforceEventually, KindEnforceInvariant:
		return true
	}
	return false
}

// temporal returns the temporal operator letter of a path formula.
func (p *Phi) temporal() string {
	switch p.Kind {
	case KindDespiteNext, KindEnforceNext:
		return "X"
	case KindDespiteUntil, KindEnforceUntil:
		return "U"
	case KindDespiteEventually, KindEnforceEventually:
		return "F"
	}
	return "G"
}

func (p *Phi) binary() bool {
	switch p.Kind {
	case KindOr, KindAnd, KindDespiteUntil, KindEnforceUntil:
		return true
	}
	return false
}

// Size is the number of nodes in the formula.
func (p *Phi) Size() int {
	size := 1
	if p.Left != nil {
		size += p.Left.Size()
	}
	if p.Right != nil {
		size += p.Right.Size()
	}
	return size
}

// Depth is the length of the longest branch of the formula.
func (p *Phi) Depth() int {
	depth := 0
	if p.Left != nil {
		depth = p.Left.Depth()
	}
	if p.Right != nil {
		depth = max(depth, p.Right.Depth())
	}
	return depth + 1
}

// PathQualifierCount counts coalitions, e.g. 2 for
// "(<<p1>> F s) | (<<p2>> F t)".
func (p *Phi) PathQualifierCount() int {
	count := 0
	if p.IsPathQualified() {
		count = 1
	}
	if p.Left != nil {
		count += p.Left.PathQualifierCount()
	}
	if p.Right != nil {
		count += p.Right.PathQualifierCount()
	}
	return count
}

// PathQualifierDepth is the deepest nesting of coalitions, e.g. 2 for
// "<<>> G ([[p1]] F s)".
func (p *Phi) PathQualifierDepth() int {
	depth := 0
	if p.Left != nil {
		depth = p.Left.PathQualifierDepth()
	}
	if p.Right != nil {
		depth = max(depth, p.Right.PathQualifierDepth())
	}
	if p.IsPathQualified() {
		depth++
	}
	return depth
}

// Names translates player and proposition indexes into model names.
type Names interface {
	PlayerName(index int) string
	LabelName(index int) string
}

type indexNames struct{}

func (indexNames) PlayerName(index int) string { return strconv.Itoa(index) }
func (indexNames) LabelName(index int) string  { return strconv.Itoa(index) }

// String renders the formula with numeric indexes, e.g.
// "<<0,1>> ((1 | !(2)) U false)".
func (p *Phi) String() string { return p.Render(indexNames{}) }

// Render renders the formula using the names of a model.
func (p *Phi) Render(names Names) string {
	var sb strings.Builder
	p.render(&sb, names)
	return sb.String()
}

func (p *Phi) render(sb *strings.Builder, names Names) {
	switch p.Kind {
	case KindTrue:
		sb.WriteString("true")
	case KindFalse:
		sb.WriteString("false")
	case KindProposition:
		sb.WriteString(names.LabelName(p.Proposition))
	case KindNot:
		sb.WriteString("!(")
		p.Left.render(sb, names)
		sb.WriteString(")")
	case KindOr, KindAnd:
		op := " | "
		if p.Kind == KindAnd {
			op = " & "
		}
		sb.WriteString("(")
		p.Left.render(sb, names)
		sb.WriteString(op)
		p.Right.render(sb, names)
		sb.WriteString(")")
	default:
		open, closing := "[[", "]]"
		if p.IsEnforce() {
			open, closing = "<<", ">>"
		}
		sb.WriteString(open)
		for i, player := range p.Players {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(names.PlayerName(player))
		}
		sb.WriteString(closing)
		if p.binary() {
			sb.WriteString(" (")
			p.Left.render(sb, names)
			sb.WriteString(" U ")
			p.Right.render(sb, names)
			sb.WriteString(")")
			return
		}
		sb.WriteString(" " + p.temporal() + " ")
		p.Left.render(sb, names)
	}
}

// Validate checks that every coalition names players of a game with
// playerCount players.
func (p *Phi) Validate(playerCount int) error {
	for _, player := range p.Players {
		if player < 0 || player >= playerCount {
			return fmt.Errorf("player index %d is out of range, the model has %d players", player, playerCount)
		}
	}
	if p.Left != nil {
		if err := p.Left.Validate(playerCount); err != nil {
			return err
		}
	}
	if p.Right != nil {
		return p.Right.Validate(playerCount)
	}
	return nil
}
