// Package cards implements the six card effects, their availability checks
// and the per-match draw pool.
package cards

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCard = errors.New("unknown card")

// Type is the wire card id.
type Type uint8

const (
	Onslaught Type = iota + 1
	Polymorph
	BizarreMutation
	Draught
	Telekinesis
	TopsyTurvy
)

// Types lists every card in id order.
var Types = []Type{Onslaught, Polymorph, BizarreMutation, Draught, Telekinesis, TopsyTurvy}

func (t Type) Valid() bool { return t >= Onslaught && t <= TopsyTurvy }

// Key is the catalog key of the card.
func (t Type) Key() string {
	switch t {
	case Onslaught:
		return "onslaught"
	case Polymorph:
		return "polymorph"
	case BizarreMutation:
		return "bizarre_mutation"
	case Draught:
		return "draught"
	case Telekinesis:
		return "telekinesis"
	case TopsyTurvy:
		return "topsy_turvy"
	default:
		return "unknown"
	}
}

func (t Type) String() string { return t.Key() }

// ParseType accepts a numeric id or a catalog key.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if t := Type(n); n > 0 && t.Valid() {
			return t, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownCard, s)
	}
	for _, t := range Types {
		if t.Key() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCard, s)
}

// Spec describes how many targets a card collects per stage.
type Spec struct {
	Stages []int
	// MinFinal is the number of picks the final stage needs before submit.
	MinFinal int
}

// Cap is the total selection cap across stages.
func (s Spec) Cap() int {
	n := 0
	for _, c := range s.Stages {
		n += c
	}
	return n
}

func (t Type) Spec() Spec {
	switch t {
	case Onslaught:
		return Spec{Stages: []int{3}, MinFinal: 1}
	case TopsyTurvy:
		return Spec{Stages: []int{8}, MinFinal: 1}
	case Telekinesis:
		return Spec{Stages: []int{1, 1}, MinFinal: 1}
	case Polymorph, BizarreMutation, Draught:
		return Spec{Stages: []int{1}, MinFinal: 1}
	default:
		return Spec{}
	}
}
