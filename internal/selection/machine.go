// Package selection tracks a player's card targets on the client before the
// card action is sent. The server re-validates whatever is submitted.
package selection

import (
	"slices"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/pkg/protocol"
)

// Machine accumulates tile picks stage by stage for one drawn card.
type Machine struct {
	card  cards.Type
	spec  cards.Spec
	color board.Color

	stage      int
	picks      [][]int
	selectable []int
}

func New(card cards.Type, color board.Color, b *board.Board) *Machine {
	m := &Machine{card: card, spec: card.Spec(), color: color}
	m.Reset(b)
	return m
}

// Reset drops every pick and returns to the first stage.
func (m *Machine) Reset(b *board.Board) {
	m.stage = 0
	m.picks = make([][]int, len(m.spec.Stages))
	m.refresh(b)
}

func (m *Machine) Card() cards.Type { return m.card }

func (m *Machine) Stage() int { return m.stage }

// Selectable returns the tiles that can be picked in the current stage.
func (m *Machine) Selectable() []int { return slices.Clone(m.selectable) }

// Selections flattens every stage's picks in stage order.
func (m *Machine) Selections() []int {
	var out []int
	for _, p := range m.picks {
		out = append(out, p...)
	}
	return out
}

// Toggle handles a click on tile. A tile picked in an earlier stage rewinds
// to that stage and clears it and everything after. A tile picked in the
// current stage is unpicked. Otherwise a selectable tile is picked, and a
// full stage advances to the next one. Reports whether anything changed.
func (m *Machine) Toggle(b *board.Board, tile int) bool {
	for s := 0; s < m.stage; s++ {
		if slices.Contains(m.picks[s], tile) {
			m.stage = s
			for i := s; i < len(m.picks); i++ {
				m.picks[i] = nil
			}
			m.refresh(b)
			return true
		}
	}

	cur := m.picks[m.stage]
	if i := slices.Index(cur, tile); i >= 0 {
		m.picks[m.stage] = slices.Delete(cur, i, i+1)
		m.refresh(b)
		return true
	}

	if !slices.Contains(m.selectable, tile) || len(cur) >= m.spec.Stages[m.stage] {
		return false
	}
	m.picks[m.stage] = append(cur, tile)
	if len(m.picks[m.stage]) == m.spec.Stages[m.stage] && m.stage < len(m.spec.Stages)-1 {
		m.stage++
	}
	m.refresh(b)
	return true
}

// Ready reports whether the picks can be submitted.
func (m *Machine) Ready() bool {
	last := len(m.spec.Stages) - 1
	return last >= 0 && m.stage == last && len(m.picks[last]) >= m.spec.MinFinal
}

// AutoPick picks the first selectable tiles, stage by stage, until the
// machine is ready or runs out of choices. Reports whether it is ready.
func (m *Machine) AutoPick(b *board.Board) bool {
	for !m.Ready() {
		picked := false
		for _, id := range m.Selectable() {
			if slices.Contains(m.picks[m.stage], id) {
				continue
			}
			picked = m.Toggle(b, id)
			break
		}
		if !picked {
			return false
		}
	}
	return true
}

// Action builds the card frame for the current picks.
func (m *Machine) Action() (protocol.Action, bool) {
	if !m.Ready() {
		return protocol.Action{}, false
	}
	return protocol.Card(uint8(m.card), m.Selections()...), true
}

// Paint writes selectable and selected markers onto b's tiles.
func (m *Machine) Paint(b *board.Board) {
	b.ResetTileStates()
	for _, id := range m.selectable {
		if t := b.TileByID(id); t != nil {
			t.State = board.TileSelectable
		}
	}
	for _, id := range m.Selections() {
		if t := b.TileByID(id); t != nil {
			t.State = board.TileSelected
		}
	}
}

func (m *Machine) refresh(b *board.Board) {
	m.selectable = cards.Selectables(m.card, b, m.color, m.stage, m.picks[:m.stage])
}
