package repository

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/pkg/protocol"
)

// Square names a tile in algebraic notation. Row 0 is rank 8.
func Square(tileID int) string {
	x, y := board.Coords(tileID)
	return nchess.NewSquare(nchess.File(x), nchess.Rank(board.Size-1-y)).String()
}

// Notation renders one log entry: "e2-e4", "c3xe5", "*polymorph(c1)",
// "~decline", "#concede".
func Notation(e match.Entry) string {
	switch e.Action {
	case protocol.ActionMove.String():
		sep := "-"
		if len(e.Captured) > 0 {
			sep = "x"
		}
		return Square(e.From) + sep + Square(e.To)
	case protocol.ActionCard.String():
		sq := make([]string, len(e.Selections))
		for i, id := range e.Selections {
			sq[i] = Square(id)
		}
		return fmt.Sprintf("*%s(%s)", e.Card.Key(), strings.Join(sq, ","))
	case protocol.ActionDecline.String():
		return "~decline"
	case protocol.ActionConcede.String():
		return "#concede"
	default:
		return "?" + e.Action
	}
}

// Transcript numbers the log two entries per line, white first.
func Transcript(entries []match.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if e.Color == board.White.String() || i == 0 {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%d.", e.Turn/2+1)
		}
		b.WriteString(" ")
		b.WriteString(Notation(e))
	}
	return b.String()
}
