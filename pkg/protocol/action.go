package protocol

import (
	"errors"
	"fmt"
)

// ActionType is the first byte of every client frame.
type ActionType uint8

const (
	ActionMove    ActionType = 0x01
	ActionCard    ActionType = 0x02
	ActionConcede ActionType = 0x03
	ActionResync  ActionType = 0x04
	ActionDecline ActionType = 0x05
)

func (t ActionType) String() string {
	switch t {
	case ActionMove:
		return "move"
	case ActionCard:
		return "card"
	case ActionConcede:
		return "concede"
	case ActionResync:
		return "resync"
	case ActionDecline:
		return "decline"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(t))
	}
}

const NumTiles = 64

var (
	ErrEmptyFrame    = errors.New("empty action frame")
	ErrUnknownAction = errors.New("unknown action type")
	ErrFrameLength   = errors.New("action frame length mismatch")
	ErrTileRange     = errors.New("tile id out of range")
)

// Action is a decoded client frame.
type Action struct {
	Type ActionType

	// move
	Source    uint8
	Target    uint8
	Promotion uint8 // reserved

	// card
	Card       uint8
	Selections []uint8
}

// DecodeAction parses a binary client frame:
//
//	move    [0x01, src, dst, promo]
//	card    [0x02, count, cardType, id_0 .. id_{count-1}]
//	concede [0x03]
//	resync  [0x04]
//	decline [0x05]
func DecodeAction(raw []byte) (Action, error) {
	if len(raw) == 0 {
		return Action{}, ErrEmptyFrame
	}
	a := Action{Type: ActionType(raw[0])}
	switch a.Type {
	case ActionMove:
		if len(raw) != 4 {
			return Action{}, fmt.Errorf("%w: move wants 4 bytes, got %d", ErrFrameLength, len(raw))
		}
		a.Source, a.Target, a.Promotion = raw[1], raw[2], raw[3]
		if a.Source >= NumTiles || a.Target >= NumTiles {
			return Action{}, ErrTileRange
		}
	case ActionCard:
		if len(raw) < 3 {
			return Action{}, fmt.Errorf("%w: card header truncated", ErrFrameLength)
		}
		n := int(raw[1])
		if len(raw) != 3+n {
			return Action{}, fmt.Errorf("%w: card declares %d selections, frame carries %d", ErrFrameLength, n, len(raw)-3)
		}
		a.Card = raw[2]
		a.Selections = make([]uint8, n)
		copy(a.Selections, raw[3:])
		for _, id := range a.Selections {
			if id >= NumTiles {
				return Action{}, ErrTileRange
			}
		}
	case ActionConcede, ActionResync, ActionDecline:
		if len(raw) != 1 {
			return Action{}, fmt.Errorf("%w: %s takes no payload", ErrFrameLength, a.Type)
		}
	default:
		return Action{}, fmt.Errorf("%w: 0x%02x", ErrUnknownAction, raw[0])
	}
	return a, nil
}

// Encode is the inverse of DecodeAction.
func (a Action) Encode() []byte {
	switch a.Type {
	case ActionMove:
		return []byte{byte(ActionMove), a.Source, a.Target, a.Promotion}
	case ActionCard:
		out := make([]byte, 0, 3+len(a.Selections))
		out = append(out, byte(ActionCard), byte(len(a.Selections)), a.Card)
		return append(out, a.Selections...)
	default:
		return []byte{byte(a.Type)}
	}
}

func Move(src, dst int) Action {
	return Action{Type: ActionMove, Source: uint8(src), Target: uint8(dst)}
}

func Card(cardType uint8, selections ...int) Action {
	sel := make([]uint8, len(selections))
	for i, id := range selections {
		sel[i] = uint8(id)
	}
	return Action{Type: ActionCard, Card: cardType, Selections: sel}
}

func Concede() Action { return Action{Type: ActionConcede} }
func Resync() Action  { return Action{Type: ActionResync} }
func Decline() Action { return Action{Type: ActionDecline} }

// SelectionIDs widens the card selections to tile ids.
func (a Action) SelectionIDs() []int {
	out := make([]int, len(a.Selections))
	for i, s := range a.Selections {
		out[i] = int(s)
	}
	return out
}
