package board

// Piece is a game unit. The board owns every piece; a piece points back at
// the tile it stands on while alive.
type Piece struct {
	Kind  Kind
	Color Color
	State State

	HasMoved bool
	// HasDoubleMoved marks a pawn that advanced two tiles during its owner's
	// last turn. It is cleared when the owner's next turn starts.
	HasDoubleMoved bool
	// Reversed is set permanently by the topsy turvy card.
	Reversed bool

	tile *Tile
}

func NewPiece(kind Kind, color Color) *Piece {
	return &Piece{Kind: kind, Color: color, State: Alive}
}

func (p *Piece) Tile() *Tile { return p.tile }

func (p *Piece) Alive() bool { return p != nil && p.State == Alive && p.tile != nil }

func (p *Piece) String() string { return p.Color.String() + " " + p.Kind.String() }
