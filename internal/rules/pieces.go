package rules

import "github.com/park285/cardchess/internal/board"

type geometry func(dx, dy int) bool

func straight(dx, dy int) bool { return (dx == 0) != (dy == 0) }

func diagonal(dx, dy int) bool { return dx != 0 && abs(dx) == abs(dy) }

func anyLine(dx, dy int) bool { return straight(dx, dy) || diagonal(dx, dy) }

func knightStep(dx, dy int) bool {
	ax, ay := abs(dx), abs(dy)
	return (ax == 2 && ay == 1) || (ax == 1 && ay == 2)
}

func kingStep(dx, dy int) bool { return abs(dx) <= 1 && abs(dy) <= 1 }

func ogreStep(dx, dy int) bool {
	ax, ay := abs(dx), abs(dy)
	return (ax == 2 && ay == 0) || (ax == 0 && ay == 2)
}

func slideMove(g geometry) func(*board.Board, *board.Piece, *board.Tile) bool {
	return func(b *board.Board, p *board.Piece, to *board.Tile) bool {
		if !to.Empty() {
			return false
		}
		dx, dy := delta(p, to)
		return g(dx, dy) && b.IsPathClear(p.Tile(), to)
	}
}

func slideCapture(g geometry) func(*board.Board, *board.Piece, *board.Tile) (bool, []*board.Piece) {
	return func(b *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
		if !enemyAt(to, p) {
			return false, nil
		}
		dx, dy := delta(p, to)
		if g(dx, dy) && b.IsPathClear(p.Tile(), to) {
			return true, []*board.Piece{to.Piece()}
		}
		return false, nil
	}
}

func stepMove(g geometry) func(*board.Board, *board.Piece, *board.Tile) bool {
	return func(_ *board.Board, p *board.Piece, to *board.Tile) bool {
		if !to.Empty() {
			return false
		}
		return g(delta(p, to))
	}
}

func stepCapture(g geometry) func(*board.Board, *board.Piece, *board.Tile) (bool, []*board.Piece) {
	return func(_ *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
		if !enemyAt(to, p) {
			return false, nil
		}
		if g(delta(p, to)) {
			return true, []*board.Piece{to.Piece()}
		}
		return false, nil
	}
}

func jumperMove(_ *board.Board, p *board.Piece, to *board.Tile) bool {
	if !to.Empty() {
		return false
	}
	dx, dy := delta(p, to)
	return abs(dx) == 1 && dy == p.Color.Forward()
}

// Jumper captures by leaping two diagonal tiles, in any direction, over an
// enemy onto an empty tile. The jumped piece is the one captured.
func jumperCapture(b *board.Board, p *board.Piece, to *board.Tile) (bool, []*board.Piece) {
	if !to.Empty() {
		return false, nil
	}
	dx, dy := delta(p, to)
	if abs(dx) != 2 || abs(dy) != 2 {
		return false, nil
	}
	from := p.Tile()
	mid := b.TileAt(from.X+dx/2, from.Y+dy/2)
	if !enemyAt(mid, p) {
		return false, nil
	}
	return true, []*board.Piece{mid.Piece()}
}
