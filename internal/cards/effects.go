package cards

import (
	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/delta"
	"github.com/park285/cardchess/pkg/protocol"
)

type relocation struct{ from, to int }

type morph struct {
	tile int
	kind board.Kind
}

// plan is an effect resolved against a board without touching it. Tile ids
// only, so the same plan commits onto a clone and onto the live board.
type plan struct {
	moves  []relocation
	morphs []morph
	flips  []int
}

func (p *plan) empty() bool { return len(p.moves) == 0 && len(p.morphs) == 0 && len(p.flips) == 0 }

type effect func(sel []int, b *board.Board, c board.Color) (*plan, bool)

var effects = map[Type]effect{
	Onslaught:       onslaught,
	Polymorph:       polymorph,
	BizarreMutation: bizarreMutation,
	Draught:         draught,
	Telekinesis:     telekinesis,
	TopsyTurvy:      topsyTurvy,
}

// Execute runs card t for color c with the given tile selections. The effect
// is first committed on a clone; only if that succeeds is b mutated. On
// failure b is untouched and no changes are returned.
func Execute(t Type, sel []int, b *board.Board, c board.Color) ([]protocol.Change, bool) {
	fn, ok := effects[t]
	if !ok {
		return nil, false
	}
	p, ok := fn(sel, b, c)
	if !ok || p.empty() {
		return nil, false
	}
	if _, err := p.commit(b.Clone()); err != nil {
		return nil, false
	}
	changes, err := p.commit(b)
	if err != nil {
		return nil, false
	}
	return changes, true
}

// commit applies p to b. Removals for every source tile are listed before
// any addition.
func (p *plan) commit(b *board.Board) ([]protocol.Change, error) {
	var changes []protocol.Change

	moving := make([]*board.Piece, len(p.moves))
	for i, m := range p.moves {
		t := b.TileByID(m.from)
		if t == nil || t.Piece() == nil {
			return nil, board.ErrNoPiece
		}
		moving[i] = t.Clear()
		changes = append(changes, delta.Remove(m.from, protocol.ReasonCardEffect))
	}
	for i, m := range p.moves {
		t := b.TileByID(m.to)
		if t == nil {
			return nil, board.ErrOutOfBounds
		}
		pc := moving[i]
		if err := t.Occupy(pc); err != nil {
			return nil, err
		}
		pc.HasMoved = true
		pc.HasDoubleMoved = false
		changes = append(changes, delta.Add(m.to, pc, protocol.ReasonCardEffect))
	}

	for _, m := range p.morphs {
		t := b.TileByID(m.tile)
		if t == nil {
			return nil, board.ErrOutOfBounds
		}
		pc, err := b.Replace(t, m.kind)
		if err != nil {
			return nil, err
		}
		changes = append(changes, delta.Remove(m.tile, protocol.ReasonCardEffect))
		changes = append(changes, delta.Add(m.tile, pc, protocol.ReasonCardEffect))
	}

	for _, id := range p.flips {
		t := b.TileByID(id)
		if t == nil || t.Piece() == nil {
			return nil, board.ErrNoPiece
		}
		pc := t.Piece()
		pc.Reversed = true
		pc.HasDoubleMoved = false
		changes = append(changes, delta.Remove(id, protocol.ReasonCardEffect))
		changes = append(changes, delta.Add(id, pc, protocol.ReasonCardEffect))
	}

	return delta.Order(changes), nil
}

func onslaught(sel []int, b *board.Board, c board.Color) (*plan, bool) {
	if len(sel) == 0 || len(sel) > Onslaught.Spec().Cap() {
		return nil, false
	}
	p := &plan{}
	seen := map[int]bool{}
	for _, id := range sel {
		if seen[id] {
			continue
		}
		seen[id] = true
		to, ok := onslaughtTarget(b, c, id)
		if !ok {
			continue
		}
		p.moves = append(p.moves, relocation{from: id, to: to})
	}
	return p, len(p.moves) > 0
}

// onslaughtTarget returns the tile a pawn of c on id would advance to.
func onslaughtTarget(b *board.Board, c board.Color, id int) (int, bool) {
	t := b.TileByID(id)
	if t == nil {
		return 0, false
	}
	pc := t.Piece()
	if pc == nil || pc.Kind != board.Pawn || pc.Color != c {
		return 0, false
	}
	fwd := b.TileAt(t.X, t.Y+c.Forward())
	if fwd == nil || !fwd.Empty() {
		return 0, false
	}
	return fwd.ID(), true
}

func transform(sel []int, b *board.Board, to board.Kind, from ...board.Kind) (*plan, bool) {
	if len(sel) != 1 {
		return nil, false
	}
	t := b.TileByID(sel[0])
	if t == nil || t.Piece() == nil || !kindIn(t.Piece().Kind, from) {
		return nil, false
	}
	return &plan{morphs: []morph{{tile: sel[0], kind: to}}}, true
}

func polymorph(sel []int, b *board.Board, _ board.Color) (*plan, bool) {
	return transform(sel, b, board.Knight, board.Bishop, board.Rook)
}

func bizarreMutation(sel []int, b *board.Board, _ board.Color) (*plan, bool) {
	return transform(sel, b, board.Jumper, board.Pawn)
}

func draught(sel []int, b *board.Board, _ board.Color) (*plan, bool) {
	return transform(sel, b, board.Jumper, board.Rook, board.Bishop, board.Knight)
}

func telekinesis(sel []int, b *board.Board, c board.Color) (*plan, bool) {
	if len(sel) != 2 {
		return nil, false
	}
	src, dst := b.TileByID(sel[0]), b.TileByID(sel[1])
	if src == nil || dst == nil {
		return nil, false
	}
	pc := src.Piece()
	if pc == nil || pc.Kind != board.Pawn || pc.Color == c {
		return nil, false
	}
	if !dst.Empty() || !orthogonalNeighbour(src, dst) {
		return nil, false
	}
	return &plan{moves: []relocation{{from: sel[0], to: sel[1]}}}, true
}

func topsyTurvy(sel []int, b *board.Board, c board.Color) (*plan, bool) {
	if len(sel) == 0 || len(sel) > TopsyTurvy.Spec().Cap() {
		return nil, false
	}
	p := &plan{}
	seen := map[int]bool{}
	for _, id := range sel {
		if seen[id] {
			continue
		}
		seen[id] = true
		if reversible(b, c, id) {
			p.flips = append(p.flips, id)
		}
	}
	return p, len(p.flips) > 0
}

func reversible(b *board.Board, c board.Color, id int) bool {
	t := b.TileByID(id)
	if t == nil {
		return false
	}
	pc := t.Piece()
	return pc != nil && pc.Kind == board.Pawn && pc.Color == c && !pc.Reversed
}

func orthogonalNeighbour(a, b *board.Tile) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
}

func kindIn(k board.Kind, kinds []board.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
