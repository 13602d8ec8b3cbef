package notify

import (
	"time"

	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/repository"
)

// Result is the webhook body for a finished match.
type Result struct {
	RoomID     string    `json:"roomId"`
	White      string    `json:"white"`
	Black      string    `json:"black"`
	Winner     string    `json:"winner"`
	WinnerID   string    `json:"winnerId"`
	Reason     string    `json:"reason"`
	Turns      int       `json:"turns"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
}

// NewResult flattens a match record; summary is the rendered human line.
func NewResult(rec match.Record, summary string) Result {
	return Result{
		RoomID:     rec.RoomID,
		White:      rec.White,
		Black:      rec.Black,
		Winner:     rec.Winner.String(),
		WinnerID:   rec.WinnerID(),
		Reason:     string(rec.Reason),
		Turns:      rec.Turns,
		Transcript: repository.Transcript(rec.Moves),
		Summary:    summary,
		StartedAt:  rec.StartedAt,
		EndedAt:    rec.EndedAt,
	}
}
