package rules

import "github.com/park285/cardchess/internal/board"

func pawnMove(b *board.Board, p *board.Piece, to *board.Tile) bool {
	if !to.Empty() {
		return false
	}
	dx, dy := delta(p, to)
	fwd := p.Color.Forward()
	if dx != 0 {
		return false
	}
	if dy == fwd {
		return true
	}
	if dy == 2*fwd && !p.HasMoved {
		from := p.Tile()
		mid := b.TileAt(from.X, from.Y+fwd)
		return mid != nil && mid.Empty()
	}
	return false
}

func pawnCapture(b *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
	dx, dy := delta(p, to)
	if abs(dx) != 1 || dy != p.Color.Forward() {
		return false, nil
	}
	if enemyAt(to, p) {
		return true, []*board.Piece{to.Piece()}
	}
	if to.Empty() {
		if victim := enPassantVictim(b, p, to); victim != nil {
			return true, []*board.Piece{victim}
		}
	}
	return false, nil
}

// enPassantVictim returns the enemy pawn beside p, on the target file, that
// advanced two tiles on its owner's last turn. Reversed pawns take no part in
// en passant on either side.
func enPassantVictim(b *board.Board, p *board.Piece, to *board.Tile) *board.Piece {
	if p.Reversed {
		return nil
	}
	side := b.TileAt(to.X, p.Tile().Y)
	if side == nil {
		return nil
	}
	q := side.Piece()
	if q == nil || q.Color == p.Color || q.Kind != board.Pawn || q.Reversed || !q.HasDoubleMoved {
		return nil
	}
	return q
}

// A reversed pawn moves diagonally forward and captures straight forward.
func reversedPawnMove(b *board.Board, p *board.Piece, to *board.Tile) bool {
	if !to.Empty() {
		return false
	}
	dx, dy := delta(p, to)
	fwd := p.Color.Forward()
	if abs(dx) == 1 && dy == fwd {
		return true
	}
	if abs(dx) == 2 && dy == 2*fwd && !p.HasMoved {
		from := p.Tile()
		mid := b.TileAt(from.X+dx/2, from.Y+fwd)
		return mid != nil && mid.Empty()
	}
	return false
}

func reversedPawnCapture(_ *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
	dx, dy := delta(p, to)
	if dx == 0 && dy == p.Color.Forward() && enemyAt(to, p) {
		return true, []*board.Piece{to.Piece()}
	}
	return false, nil
}
