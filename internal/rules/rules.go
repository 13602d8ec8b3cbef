// Package rules holds the per-kind legality table for plain moves and captures.
package rules

import "github.com/park285/cardchess/internal/board"

// Rule is one entry of the table. Move reports a plain move onto an empty tile;
// Capture reports a capture and the pieces it removes, which need not stand on
// the destination (jump and en passant captures).
type Rule struct {
	Move    func(b *board.Board, p *board.Piece, to *board.Tile) bool
	Capture func(b *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece)
}

var table = map[board.Kind]Rule{
	board.Pawn:   {Move: pawnMove, Capture: pawnCapture},
	board.Rook:   {Move: slideMove(straight), Capture: slideCapture(straight)},
	board.Knight: {Move: stepMove(knightStep), Capture: stepCapture(knightStep)},
	board.Bishop: {Move: slideMove(diagonal), Capture: slideCapture(diagonal)},
	board.Queen:  {Move: slideMove(anyLine), Capture: slideCapture(anyLine)},
	board.King:   {Move: stepMove(kingStep), Capture: stepCapture(kingStep)},
	board.Jumper: {Move: jumperMove, Capture: jumperCapture},
	board.Ogre:   {Move: stepMove(ogreStep), Capture: stepCapture(ogreStep)},
}

var reversedPawn = Rule{Move: reversedPawnMove, Capture: reversedPawnCapture}

// For returns the rule governing p.
func For(p *board.Piece) (Rule, bool) {
	if p.Kind == board.Pawn && p.Reversed {
		return reversedPawn, true
	}
	r, ok := table[p.Kind]
	return r, ok
}

func IsValidMove(b *board.Board, p *board.Piece, to *board.Tile) bool {
	if !playable(p, to) {
		return false
	}
	r, ok := For(p)
	if !ok {
		return false
	}
	return r.Move(b, p, to)
}

func IsValidCapture(b *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
	if !playable(p, to) {
		return false, nil
	}
	r, ok := For(p)
	if !ok {
		return false, nil
	}
	return r.Capture(b, p, to)
}

// Outcome classifies a requested destination.
type Outcome uint8

const (
	Illegal Outcome = iota
	Move
	Capture
)

// Resolve checks capture first, then plain move.
func Resolve(b *board.Board, p *board.Piece, to *board.Tile) (Outcome, []*board.Piece) {
	if ok, captured := IsValidCapture(b, p, to); ok {
		return Capture, captured
	}
	if IsValidMove(b, p, to) {
		return Move, nil
	}
	return Illegal, nil
}

// Targets lists every tile p may move to or capture on, for highlighting.
func Targets(b *board.Board, p *board.Piece) []*board.Tile {
	var out []*board.Tile
	for _, t := range b.Tiles() {
		if o, _ := Resolve(b, p, t); o != Illegal {
			out = append(out, t)
		}
	}
	return out
}

func playable(p *board.Piece, to *board.Tile) bool {
	if p == nil || to == nil || !p.Alive() || p.Tile() == to {
		return false
	}
	if q := to.Piece(); q != nil && q.Color == p.Color {
		return false
	}
	return true
}

func delta(p *board.Piece, to *board.Tile) (dx, dy int) {
	from := p.Tile()
	return to.X - from.X, to.Y - from.Y
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func enemyAt(t *board.Tile, p *board.Piece) bool {
	return t != nil && t.Piece() != nil && t.Piece().Color != p.Color
}
