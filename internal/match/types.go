package match

import (
	"time"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/pkg/protocol"
)

// Phase is the coordinator's top-level state.
type Phase uint8

const (
	PhaseNormal Phase = iota
	PhaseCardSelection
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseCardSelection:
		return protocol.PhaseCardSelection
	case PhaseGameOver:
		return protocol.PhaseGameOver
	default:
		return protocol.PhaseNormal
	}
}

// EndReason says how a match finished.
type EndReason string

const (
	EndKingCaptured EndReason = "king_captured"
	EndConcede      EndReason = "concede"
	EndDisconnect   EndReason = "disconnect"
)

// Entry is one accepted action in the move log.
type Entry struct {
	Turn       int          `json:"turn"`
	Color      string       `json:"color"`
	Action     string       `json:"action"`
	From       int          `json:"from,omitempty"`
	To         int          `json:"to,omitempty"`
	Card       cards.Type   `json:"card,omitempty"`
	Selections []int        `json:"selections,omitempty"`
	Captured   []board.Kind `json:"captured,omitempty"`
}

// Record summarizes a finished match.
type Record struct {
	RoomID    string
	White     string
	Black     string
	Winner    board.Color
	Reason    EndReason
	Turns     int
	Moves     []Entry
	StartedAt time.Time
	EndedAt   time.Time
}

// WinnerID is the session id of the winning side.
func (r Record) WinnerID() string {
	if r.Winner == board.Black {
		return r.Black
	}
	return r.White
}
