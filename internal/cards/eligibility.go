package cards

import (
	"slices"

	"github.com/park285/cardchess/internal/board"
)

// Available reports whether card t has at least one legal target for c.
func Available(t Type, b *board.Board, c board.Color) bool {
	return len(Selectables(t, b, c, 0, nil)) > 0
}

// Selectables returns the tile ids that may be picked at stage, given the
// picks of every earlier stage. Ids are ascending.
func Selectables(t Type, b *board.Board, c board.Color, stage int, prior [][]int) []int {
	switch {
	case t == Telekinesis && stage == 1:
		if len(prior) == 0 || len(prior[0]) == 0 {
			return nil
		}
		src := b.TileByID(prior[0][0])
		if src == nil {
			return nil
		}
		return emptyNeighbours(b, src)
	case stage != 0:
		return nil
	}

	var out []int
	for _, tile := range b.Tiles() {
		if eligible(t, b, c, tile) {
			out = append(out, tile.ID())
		}
	}
	return out
}

func eligible(t Type, b *board.Board, c board.Color, tile *board.Tile) bool {
	pc := tile.Piece()
	if pc == nil {
		return false
	}
	switch t {
	case Onslaught:
		_, ok := onslaughtTarget(b, c, tile.ID())
		return ok
	case Polymorph:
		return pc.Kind == board.Bishop || pc.Kind == board.Rook
	case BizarreMutation:
		return pc.Kind == board.Pawn
	case Draught:
		return pc.Kind == board.Rook || pc.Kind == board.Bishop || pc.Kind == board.Knight
	case Telekinesis:
		return pc.Kind == board.Pawn && pc.Color != c && len(emptyNeighbours(b, tile)) > 0
	case TopsyTurvy:
		return reversible(b, c, tile.ID())
	default:
		return false
	}
}

var orthogonal = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

func emptyNeighbours(b *board.Board, t *board.Tile) []int {
	var out []int
	for _, d := range orthogonal {
		if n := b.TileAt(t.X+d[0], t.Y+d[1]); n != nil && n.Empty() {
			out = append(out, n.ID())
		}
	}
	slices.Sort(out)
	return out
}
