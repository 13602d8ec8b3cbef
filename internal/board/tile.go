package board

const (
	Size     = 8
	NumTiles = Size * Size
)

// ID encodes (x,y) as y*8+x.
func ID(x, y int) int { return y*Size + x }

// Coords is the inverse of ID.
func Coords(id int) (x, y int) { return id % Size, id / Size }

func InBounds(x, y int) bool { return x >= 0 && x < Size && y >= 0 && y < Size }

func ValidID(id int) bool { return id >= 0 && id < NumTiles }

// Tile is one cell of the grid. It holds a non-owning reference to its occupant.
type Tile struct {
	X, Y  int
	State TileState

	piece *Piece
}

func (t *Tile) ID() int { return ID(t.X, t.Y) }

func (t *Tile) Piece() *Piece { return t.piece }

func (t *Tile) Empty() bool { return t.piece == nil }

// Occupy places p on t and detaches p from any tile it stood on.
func (t *Tile) Occupy(p *Piece) error {
	if p == nil {
		return ErrNoPiece
	}
	if p.State == Dead {
		return ErrDeadPiece
	}
	if t.piece != nil && t.piece != p {
		return ErrOccupiedTile
	}
	if p.tile != nil && p.tile != t {
		p.tile.piece = nil
	}
	t.piece = p
	p.tile = t
	return nil
}

// Clear detaches the occupant and returns it.
func (t *Tile) Clear() *Piece {
	p := t.piece
	if p != nil {
		p.tile = nil
	}
	t.piece = nil
	return p
}
