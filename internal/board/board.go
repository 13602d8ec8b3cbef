package board

// Board owns the 8x8 grid and every piece, dead ones included.
type Board struct {
	tiles  [NumTiles]*Tile
	pieces []*Piece
}

// New returns an empty board.
func New() *Board {
	b := &Board{}
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			b.tiles[ID(x, y)] = &Tile{X: x, Y: y}
		}
	}
	return b
}

// TileAt returns nil outside the grid.
func (b *Board) TileAt(x, y int) *Tile {
	if !InBounds(x, y) {
		return nil
	}
	return b.tiles[ID(x, y)]
}

func (b *Board) TileByID(id int) *Tile {
	if !ValidID(id) {
		return nil
	}
	return b.tiles[id]
}

// Tiles returns the grid in id order.
func (b *Board) Tiles() []*Tile { return b.tiles[:] }

// Pieces returns every piece owned by the board.
func (b *Board) Pieces() []*Piece { return b.pieces }

// AddPiece registers p with the board without placing it.
func (b *Board) AddPiece(p *Piece) {
	for _, q := range b.pieces {
		if q == p {
			return
		}
	}
	b.pieces = append(b.pieces, p)
}

// Place creates a piece on (x,y).
func (b *Board) Place(kind Kind, color Color, x, y int) (*Piece, error) {
	t := b.TileAt(x, y)
	if t == nil {
		return nil, ErrOutOfBounds
	}
	p := NewPiece(kind, color)
	if err := t.Occupy(p); err != nil {
		return nil, err
	}
	b.AddPiece(p)
	return p, nil
}

// Kill marks p dead and detaches it. The piece stays owned for graveyard tallies.
func (b *Board) Kill(p *Piece) {
	if p == nil {
		return
	}
	if p.tile != nil {
		p.tile.Clear()
	}
	p.State = Dead
}

// Remove drops p from the board entirely (used when a piece is transformed).
func (b *Board) Remove(p *Piece) {
	if p == nil {
		return
	}
	if p.tile != nil {
		p.tile.Clear()
	}
	for i, q := range b.pieces {
		if q == p {
			b.pieces = append(b.pieces[:i], b.pieces[i+1:]...)
			return
		}
	}
}

// Replace swaps the occupant of t for a fresh piece of kind, same color.
func (b *Board) Replace(t *Tile, kind Kind) (*Piece, error) {
	old := t.Piece()
	if old == nil {
		return nil, ErrNoPiece
	}
	b.Remove(old)
	p := NewPiece(kind, old.Color)
	if err := t.Occupy(p); err != nil {
		return nil, err
	}
	b.AddPiece(p)
	return p, nil
}

// Live returns alive pieces of color whose kind is one of kinds (all kinds when empty).
func (b *Board) Live(color Color, kinds ...Kind) []*Piece {
	var out []*Piece
	for _, p := range b.pieces {
		if !p.Alive() || p.Color != color {
			continue
		}
		if len(kinds) > 0 && !hasKind(kinds, p.Kind) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LiveAny is Live for both colors.
func (b *Board) LiveAny(kinds ...Kind) []*Piece {
	return append(b.Live(White, kinds...), b.Live(Black, kinds...)...)
}

func (b *Board) HasKing(color Color) bool { return len(b.Live(color, King)) > 0 }

// Graveyard tallies dead pieces of color by kind.
func (b *Board) Graveyard(color Color) map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = 0
	}
	for _, p := range b.pieces {
		if p.Color == color && p.State == Dead {
			out[p.Kind]++
		}
	}
	return out
}

// IsPathClear reports whether every tile strictly between from and to is empty.
// from and to must share a rank, file or diagonal.
func (b *Board) IsPathClear(from, to *Tile) bool {
	dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
	x, y := from.X+dx, from.Y+dy
	for x != to.X || y != to.Y {
		t := b.TileAt(x, y)
		if t == nil {
			return false
		}
		if !t.Empty() {
			return false
		}
		x += dx
		y += dy
	}
	return true
}

// ResetTileStates puts every tile back to TileNormal.
func (b *Board) ResetTileStates() {
	for _, t := range b.tiles {
		t.State = TileNormal
	}
}

// Clone deep-copies tiles and pieces and re-links their references.
func (b *Board) Clone() *Board {
	nb := New()
	nb.pieces = make([]*Piece, 0, len(b.pieces))
	for _, p := range b.pieces {
		cp := *p
		cp.tile = nil
		if p.tile != nil {
			t := nb.tiles[p.tile.ID()]
			t.piece = &cp
			cp.tile = t
		}
		nb.pieces = append(nb.pieces, &cp)
	}
	for i, t := range b.tiles {
		nb.tiles[i].State = t.State
	}
	return nb
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
