package board

import "strings"

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Forward is the y step a piece of this color advances by.
// White starts on the bottom rows and moves toward y=0.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

// ParseColor accepts "white"/"black" (and w/b).
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return White, false
	}
}

// Kind is the closed set of piece types. Values match the wire piece codes.
type Kind uint8

const (
	Pawn Kind = iota + 1
	Rook
	Knight
	Bishop
	Queen
	King
	Jumper
	Ogre
)

// Kinds lists every kind in code order.
var Kinds = []Kind{Pawn, Rook, Knight, Bishop, Queen, King, Jumper, Ogre}

func (k Kind) Valid() bool { return k >= Pawn && k <= Ogre }

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Rook:
		return "rook"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Queen:
		return "queen"
	case King:
		return "king"
	case Jumper:
		return "jumper"
	case Ogre:
		return "ogre"
	default:
		return "unknown"
	}
}

// State is the life state of a piece.
type State uint8

const (
	Alive State = iota
	Dead
)

// TileState is a rendering hint for clients; the server never reads it.
type TileState uint8

const (
	TileNormal TileState = iota
	TileSelectable
	TileSelected
)

func (s TileState) String() string {
	switch s {
	case TileSelectable:
		return "selectable"
	case TileSelected:
		return "selected"
	default:
		return "normal"
	}
}
