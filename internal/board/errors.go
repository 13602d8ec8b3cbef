package board

import "errors"

var (
	ErrOccupiedTile = errors.New("tile already occupied")
	ErrOutOfBounds  = errors.New("tile out of bounds")
	ErrNoPiece      = errors.New("no piece on tile")
	ErrDeadPiece    = errors.New("piece is dead")
)
