package match

import "errors"

var (
	ErrNotYourTurn  = errors.New("not your turn")
	ErrWrongPhase   = errors.New("action not allowed in current phase")
	ErrIllegalMove  = errors.New("illegal move")
	ErrCardMismatch = errors.New("card does not match the active card")
	ErrCardRejected = errors.New("card effect rejected")
	ErrGameOver     = errors.New("game is over")
	ErrRoomClosed   = errors.New("room closed")
	ErrRoomNotFound = errors.New("room not found")
)
