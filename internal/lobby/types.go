// Package lobby pairs incoming sessions two at a time into rooms.
package lobby

import (
	"context"
	"time"
)

// RoomState is the lifecycle of a room as the lobby sees it.
type RoomState string

const (
	StateWaiting  RoomState = "WAITING"
	StateActive   RoomState = "ACTIVE"
	StateFinished RoomState = "FINISHED"
)

// RoomMeta is what the lobby knows about a room.
type RoomMeta struct {
	ID        string    `json:"id"`
	State     RoomState `json:"state"`
	White     string    `json:"white"`
	Black     string    `json:"black,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	PairedAt  time.Time `json:"paired_at,omitempty"`
}

// Pairing is the result of Join. When Paired is false the session is the
// white player of a room still waiting for an opponent.
type Pairing struct {
	RoomID string
	White  string
	Black  string
	Paired bool
}

// Pairer matches sessions first come, first served. The first session of a
// pair plays white.
type Pairer interface {
	Join(ctx context.Context, session string) (Pairing, error)
	// Leave withdraws a session that is still waiting. It is a no-op once
	// the session has been paired.
	Leave(ctx context.Context, session string) error
	// Finish forgets an active room.
	Finish(ctx context.Context, roomID string) error
	// Active lists the ids of paired rooms that have not finished.
	Active(ctx context.Context) ([]string, error)
	Close() error
}

var (
	ErrInvalidArgs    = errf("invalid arguments")
	ErrAlreadyWaiting = errf("session is already waiting")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
