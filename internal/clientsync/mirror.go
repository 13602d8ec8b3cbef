// Package clientsync keeps a client's local copy of the board in step with
// the server: actions are applied speculatively, confirmed or rolled back
// when the reply arrives, and a full resync rebuilds everything.
package clientsync

import (
	"errors"
	"fmt"
	"sync"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/delta"
	"github.com/park285/cardchess/internal/rules"
	"github.com/park285/cardchess/pkg/protocol"
)

var (
	ErrPending     = errors.New("an action is already awaiting a reply")
	ErrNotSynced   = errors.New("no state received yet")
	ErrNotYourTurn = errors.New("not your turn")
	ErrIllegalMove = errors.New("illegal move")
)

// Mirror is the client-side two-phase view: a confirmed board built only
// from server data, and a working board that may carry one pending action.
type Mirror struct {
	mu sync.Mutex

	color     board.Color
	confirmed *board.Board
	working   *board.Board
	state     protocol.State
	synced    bool
	pending   *protocol.Action
}

func NewMirror(color board.Color) *Mirror {
	return &Mirror{color: color, confirmed: board.New(), working: board.New()}
}

func (m *Mirror) Color() board.Color { return m.color }

// Board returns a copy of the working board.
func (m *Mirror) Board() *board.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.working.Clone()
}

// Confirmed returns a copy of the last board the server vouched for.
func (m *Mirror) Confirmed() *board.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmed.Clone()
}

// State returns the last accepted server state.
func (m *Mirror) State() protocol.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mirror) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Sync replaces everything with a full state (gameStart or syncResponse).
// Any pending action is dropped.
func (m *Mirror) Sync(st protocol.State) error {
	if !st.OK() {
		return fmt.Errorf("sync: %w", ErrNotSynced)
	}
	b := board.New()
	if err := delta.Apply(b, st.Changes, st.TopsyTurvyPawns); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.synced {
		carryDoubleStep(b, m.confirmed)
		clearDoubleStep(b, st.CurrentPlayer)
	}
	m.confirmed = b
	m.working = b.Clone()
	m.state = st
	m.synced = true
	m.pending = nil
	return nil
}

// Begin records a as the single in-flight action. Moves are checked against
// the working board and applied to it at once; other actions wait for the
// server.
func (m *Mirror) Begin(a protocol.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.synced {
		return ErrNotSynced
	}
	if m.pending != nil {
		return ErrPending
	}
	if a.Type == protocol.ActionMove {
		if m.state.GameOver || m.state.CurrentPlayer != m.color.String() {
			return ErrNotYourTurn
		}
		err := speculate(m.working, m.color, int(a.Source), int(a.Target))
		// A full state carries no double-step markers, so an en passant the
		// mirror cannot verify goes to the server unapplied.
		if err != nil && !(errors.Is(err, ErrIllegalMove) && maybeEnPassant(m.working, m.color, int(a.Source), int(a.Target))) {
			return err
		}
	}
	if a.Type != protocol.ActionResync {
		m.pending = &a
	}
	return nil
}

// Receive handles a moveResponse. With an action pending it is that action's
// reply: a rejection rolls the working board back to the confirmed one.
// Without one it is the opponent's accepted action.
func (m *Mirror) Receive(st protocol.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.synced {
		return ErrNotSynced
	}
	wasPending := m.pending != nil
	m.pending = nil
	if !st.OK() {
		if wasPending {
			m.working = m.confirmed.Clone()
		}
		return nil
	}
	if err := delta.Apply(m.confirmed, st.Changes, st.TopsyTurvyPawns); err != nil {
		m.working = m.confirmed.Clone()
		return fmt.Errorf("apply: %w", err)
	}
	markDoubleStep(m.confirmed, st.Changes)
	clearDoubleStep(m.confirmed, st.CurrentPlayer)
	m.working = m.confirmed.Clone()
	m.state = st
	return nil
}

func speculate(b *board.Board, c board.Color, src, dst int) error {
	from, to := b.TileByID(src), b.TileByID(dst)
	if from == nil || to == nil {
		return ErrIllegalMove
	}
	p := from.Piece()
	if p == nil || p.Color != c {
		return ErrIllegalMove
	}
	outcome, victims := rules.Resolve(b, p, to)
	if outcome == rules.Illegal {
		return ErrIllegalMove
	}
	for _, v := range victims {
		b.Kill(v)
	}
	if err := to.Occupy(p); err != nil {
		return err
	}
	p.HasMoved = true
	return nil
}

// maybeEnPassant reports whether src to dst has the shape of an en passant
// capture: an own pawn stepping diagonally forward onto an empty tile beside
// an enemy pawn.
func maybeEnPassant(b *board.Board, c board.Color, src, dst int) bool {
	from, to := b.TileByID(src), b.TileByID(dst)
	if from == nil || to == nil || !to.Empty() {
		return false
	}
	p := from.Piece()
	if p == nil || p.Color != c || p.Kind != board.Pawn || p.Reversed {
		return false
	}
	dx := to.X - from.X
	if (dx != 1 && dx != -1) || to.Y-from.Y != c.Forward() {
		return false
	}
	q := b.TileAt(to.X, from.Y).Piece()
	return q != nil && q.Color != c && q.Kind == board.Pawn && !q.Reversed
}

// carryDoubleStep copies double-step markers from prev onto pawns of b that
// still stand on the same tile.
func carryDoubleStep(b, prev *board.Board) {
	for i, t := range prev.Tiles() {
		p := t.Piece()
		if p == nil || !p.HasDoubleMoved {
			continue
		}
		q := b.Tiles()[i].Piece()
		if q != nil && q.Kind == board.Pawn && q.Color == p.Color && !q.Reversed {
			q.HasDoubleMoved = true
		}
	}
}

// markDoubleStep flags a pawn that the server just moved two tiles forward,
// so the client can offer en passant on its next turn.
func markDoubleStep(b *board.Board, changes []protocol.Change) {
	var from, to *protocol.Change
	for i := range changes {
		c := &changes[i]
		if c.Reason != protocol.ReasonNormalMovement {
			continue
		}
		if c.ActionType == protocol.ChangeRemove {
			from = c
		} else {
			to = c
		}
	}
	if from == nil || to == nil {
		return
	}
	fx, fy := board.Coords(from.TileID)
	tx, ty := board.Coords(to.TileID)
	p := b.TileByID(to.TileID).Piece()
	if p == nil || p.Kind != board.Pawn || p.Reversed || fx != tx {
		return
	}
	if ty-fy == 2*p.Color.Forward() {
		p.HasDoubleMoved = true
	}
}

func clearDoubleStep(b *board.Board, current string) {
	c, ok := board.ParseColor(current)
	if !ok {
		return
	}
	for _, p := range b.Live(c, board.Pawn) {
		p.HasDoubleMoved = false
	}
}
