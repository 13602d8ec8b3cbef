// Package delta converts between board mutations and wire change records.
package delta

import (
	"errors"
	"fmt"
	"sort"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/pkg/protocol"
)

var ErrBadParameter = errors.New("unknown piece parameter")

// Param is the wire byte for p.
func Param(p *board.Piece) uint8 {
	return protocol.PieceParam(uint8(p.Kind), p.Color == board.Black)
}

// ParsePiece decodes a wire byte into kind and color.
func ParsePiece(param uint8) (board.Kind, board.Color, error) {
	k, black, ok := protocol.SplitParam(param)
	if !ok {
		return 0, board.White, fmt.Errorf("%w: 0x%02x", ErrBadParameter, param)
	}
	c := board.White
	if black {
		c = board.Black
	}
	return board.Kind(k), c, nil
}

func Remove(tileID int, reason protocol.Reason) protocol.Change {
	return protocol.Change{TileID: tileID, ActionType: protocol.ChangeRemove, Reason: reason}
}

func Add(tileID int, p *board.Piece, reason protocol.Reason) protocol.Change {
	return protocol.Change{TileID: tileID, ActionType: protocol.ChangeAdd, Parameter: Param(p), Reason: reason}
}

// Order stably moves every remove ahead of every add.
func Order(changes []protocol.Change) []protocol.Change {
	out := make([]protocol.Change, len(changes))
	copy(out, changes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActionType == protocol.ChangeRemove && out[j].ActionType != protocol.ChangeRemove
	})
	return out
}

// Snapshot describes the whole board as add changes in tile order.
func Snapshot(b *board.Board) []protocol.Change {
	var out []protocol.Change
	for _, t := range b.Tiles() {
		if p := t.Piece(); p != nil {
			out = append(out, Add(t.ID(), p, protocol.ReasonTurnStart))
		}
	}
	return out
}

// ReversedTiles lists tiles holding live reversed pawns, ascending.
func ReversedTiles(b *board.Board) []int {
	var out []int
	for _, t := range b.Tiles() {
		if p := t.Piece(); p != nil && p.Kind == board.Pawn && p.Reversed {
			out = append(out, t.ID())
		}
	}
	return out
}

// Apply replays changes onto b the way a client mirror does: all removes,
// then all adds. Pieces removed for a capture are kept as dead; every other
// removed piece is dropped, since adds always create a fresh piece. Pawns
// added on a tile listed in reversed get the reversed flag back.
func Apply(b *board.Board, changes []protocol.Change, reversed []int) error {
	rev := make(map[int]bool, len(reversed))
	for _, id := range reversed {
		rev[id] = true
	}
	for _, c := range changes {
		if c.ActionType != protocol.ChangeRemove {
			continue
		}
		t := b.TileByID(c.TileID)
		if t == nil {
			return fmt.Errorf("remove at %d: %w", c.TileID, board.ErrOutOfBounds)
		}
		p := t.Piece()
		if p == nil {
			continue
		}
		if c.Reason == protocol.ReasonCapture {
			b.Kill(p)
		} else {
			b.Remove(p)
		}
	}
	for _, c := range changes {
		if c.ActionType != protocol.ChangeAdd {
			continue
		}
		t := b.TileByID(c.TileID)
		if t == nil {
			return fmt.Errorf("add at %d: %w", c.TileID, board.ErrOutOfBounds)
		}
		kind, color, err := ParsePiece(c.Parameter)
		if err != nil {
			return err
		}
		if old := t.Piece(); old != nil {
			b.Kill(old)
		}
		p, err := b.Place(kind, color, t.X, t.Y)
		if err != nil {
			return err
		}
		p.HasMoved = inferMoved(p, c.Reason)
		if kind == board.Pawn && rev[c.TileID] {
			p.Reversed = true
		}
	}
	return nil
}

// inferMoved restores HasMoved for a piece rebuilt from the wire. A piece
// placed by a regular move has moved; otherwise a pawn counts as moved once
// it has left its start row.
func inferMoved(p *board.Piece, reason protocol.Reason) bool {
	if reason == protocol.ReasonNormalMovement || reason == protocol.ReasonCapture {
		return true
	}
	if p.Kind == board.Pawn {
		return p.Tile().Y != board.PawnStartRow(p.Color)
	}
	return false
}
