package atl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var kindTags = map[Kind]string{
	KindTrue:              "true",
	KindFalse:             "false",
	KindProposition:       "proposition",
	KindNot:               "not",
	KindOr:                "or",
	KindAnd:               "and",
	KindDespiteNext:       "despite next",
	KindEnforceNext:       "enforce next",
	KindDespiteUntil:      "despite until",
	KindEnforceUntil:      "enforce until",
	KindDespiteEventually: "despite eventually",
	KindEnforceEventually: "enforce eventually",
	KindDespiteInvariant:  "despite invariant",
	KindEnforceInvariant:  "enforce invariant",
}

var tagKinds = func() map[string]Kind {
	out := make(map[string]Kind, len(kindTags))
	for kind, tag := range kindTags {
		out[tag] = kind
	}
	return out
}()

type pathBody struct {
	Players []int `json:"players"`
	Formula *Phi  `json:"formula,omitempty"`
	Pre     *Phi  `json:"pre,omitempty"`
	Until   *Phi  `json:"until,omitempty"`
}

// ParseJSON decodes the externally tagged JSON formula format, e.g.
//
//	{"enforce eventually": {"players": [0], "formula": {"proposition": 1}}}
func ParseJSON(data []byte) (*Phi, error) {
	var phi Phi
	if err := json.Unmarshal(data, &phi); err != nil {
		return nil, err
	}
	return &phi, nil
}

// MarshalJSON encodes the formula in the externally tagged format.
func (p *Phi) MarshalJSON() ([]byte, error) {
	tag, ok := kindTags[p.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown formula kind %d", p.Kind)
	}

	var body any
	switch p.Kind {
	case KindTrue, KindFalse:
		return json.Marshal(tag)
	case KindProposition:
		body = p.Proposition
	case KindNot:
		body = p.Left
	case KindOr, KindAnd:
		body = []*Phi{p.Left, p.Right}
	case KindDespiteUntil, KindEnforceUntil:
		body = pathBody{Players: nonNil(p.Players), Pre: p.Left, Until: p.Right}
	default:
		body = pathBody{Players: nonNil(p.Players), Formula: p.Left}
	}
	return json.Marshal(map[string]any{tag: body})
}

// UnmarshalJSON decodes the externally tagged format.
func (p *Phi) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		switch tag {
		case "true":
			*p = Phi{Kind: KindTrue}
		case "false":
			*p = Phi{Kind: KindFalse}
		default:
			return fmt.Errorf("unknown formula %q", tag)
		}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("formula must be a string or an object with one key: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("formula object must have exactly one key, found %d", len(tagged))
	}

	for tag, raw := range tagged {
		kind, ok := tagKinds[tag]
		if !ok || kind == KindTrue || kind == KindFalse {
			return fmt.Errorf("unknown formula %q", tag)
		}
		return p.decodeBody(kind, raw)
	}
	return nil
}

func (p *Phi) decodeBody(kind Kind, raw json.RawMessage) error {
	*p = Phi{Kind: kind}
	switch kind {
	case KindProposition:
		return json.Unmarshal(raw, &p.Proposition)
	case KindNot:
		p.Left = &Phi{}
		return json.Unmarshal(raw, p.Left)
	case KindOr, KindAnd:
		var pair []*Phi
		if err := json.Unmarshal(raw, &pair); err != nil {
			return err
		}
		if len(pair) != 2 || pair[0] == nil || pair[1] == nil {
			return fmt.Errorf("%q expects exactly two formulas", kindTags[kind])
		}
		p.Left, p.Right = pair[0], pair[1]
		return nil
	}

	var body pathBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	p.Players = body.Players
	switch kind {
	case KindDespiteUntil, KindEnforceUntil:
		if body.Pre == nil || body.Until == nil {
			return fmt.Errorf("%q requires \"pre\" and \"until\"", kindTags[kind])
		}
		p.Left, p.Right = body.Pre, body.Until
	default:
		if body.Formula == nil {
			return fmt.Errorf("%q requires \"formula\"", kindTags[kind])
		}
		p.Left = body.Formula
	}
	return nil
}

func nonNil(players []int) []int {
	if players == nil {
		return []int{}
	}
	return players
}
