package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/park285/cardchess/pkg/protocol"
	"go.uber.org/zap"
)

// Reply is the outcome of one submitted frame.
type Reply struct {
	State protocol.State
	// Err classifies a rejection; State is then protocol.Rejected().
	Err error
	// Private marks a reply meant only for the submitting session
	// (rejections and resync responses).
	Private bool
	// Message is the envelope name the reply goes out under.
	Message string
}

type request struct {
	run   func(*Match) Reply
	reply chan Reply
}

// Room owns one Match and serializes every action on it through a single
// goroutine.
type Room struct {
	ID    string
	White string
	Black string

	m        *Match
	inbox    chan request
	done     chan struct{}
	stop     sync.Once
	started  time.Time
	onOver   func(Record)
	reported bool
}

func NewRoom(id, white, black string, opts Options, onOver func(Record)) *Room {
	r := &Room{
		ID:      id,
		White:   white,
		Black:   black,
		m:       New(opts),
		inbox:   make(chan request),
		done:    make(chan struct{}),
		started: time.Now(),
		onOver:  onOver,
	}
	go r.loop()
	return r
}

func (r *Room) loop() {
	for {
		select {
		case <-r.done:
			return
		case req := <-r.inbox:
			rep := req.run(r.m)
			req.reply <- rep
			r.reportIfOver()
		}
	}
}

// Submit decodes and applies a raw client frame from color.
func (r *Room) Submit(ctx context.Context, color board.Color, raw []byte) (Reply, error) {
	a, err := protocol.DecodeAction(raw)
	if err != nil {
		obslog.Room(r.ID).Debug("action_malformed", zap.String("color", color.String()), zap.Error(err))
		return Reply{State: protocol.Rejected(), Err: err, Private: true, Message: protocol.MsgMoveResponse}, nil
	}
	return r.Do(ctx, color, a)
}

// Do applies a decoded action from color.
func (r *Room) Do(ctx context.Context, color board.Color, a protocol.Action) (Reply, error) {
	return r.call(ctx, func(m *Match) Reply {
		st, err := m.Handle(color, a)
		switch {
		case a.Type == protocol.ActionResync:
			return Reply{State: st, Private: true, Message: protocol.MsgSyncResponse}
		case err != nil:
			obslog.Room(r.ID).Info("action_rejected",
				zap.String("color", color.String()),
				zap.String("action", a.Type.String()),
				zap.Error(err),
			)
			return Reply{State: st, Err: err, Private: true, Message: protocol.MsgMoveResponse}
		default:
			obslog.Room(r.ID).Debug("action_applied",
				zap.String("color", color.String()),
				zap.String("action", a.Type.String()),
				zap.Int("turn", st.TurnNumber),
				zap.Int("changes", len(st.Changes)),
			)
			return Reply{State: st, Message: protocol.MsgMoveResponse}
		}
	})
}

// Leave forfeits the game for color, which dropped its session. The reply
// is Private when the game had already ended.
func (r *Room) Leave(ctx context.Context, color board.Color) (Reply, error) {
	return r.call(ctx, func(m *Match) Reply {
		if m.Over() {
			return Reply{State: m.state(nil), Private: true, Message: protocol.MsgMoveResponse}
		}
		m.Forfeit(color, EndDisconnect)
		return Reply{State: m.state(nil), Message: protocol.MsgMoveResponse}
	})
}

// Snapshot returns the full state for gameStart and resync.
func (r *Room) Snapshot(ctx context.Context) (protocol.State, error) {
	rep, err := r.call(ctx, func(m *Match) Reply {
		return Reply{State: m.FullState()}
	})
	return rep.State, err
}

// Inspect runs fn on the room goroutine. fn must not retain m.
func (r *Room) Inspect(ctx context.Context, fn func(m *Match)) error {
	_, err := r.call(ctx, func(m *Match) Reply {
		fn(m)
		return Reply{}
	})
	return err
}

// Close stops the room goroutine. Pending and later calls fail with ErrRoomClosed.
func (r *Room) Close() {
	r.stop.Do(func() { close(r.done) })
}

// Done is closed once the room stops.
func (r *Room) Done() <-chan struct{} { return r.done }

// Color returns the side played by session, if it belongs to the room.
func (r *Room) Color(session string) (board.Color, bool) {
	switch session {
	case r.White:
		return board.White, true
	case r.Black:
		return board.Black, true
	default:
		return board.White, false
	}
}

func (r *Room) call(ctx context.Context, fn func(*Match) Reply) (Reply, error) {
	select {
	case <-r.done:
		return Reply{State: protocol.Rejected(), Err: ErrRoomClosed}, ErrRoomClosed
	default:
	}
	req := request{run: fn, reply: make(chan Reply, 1)}
	select {
	case r.inbox <- req:
	case <-r.done:
		return Reply{State: protocol.Rejected(), Err: ErrRoomClosed}, ErrRoomClosed
	case <-ctx.Done():
		return Reply{State: protocol.Rejected(), Err: ctx.Err()}, ctx.Err()
	}
	select {
	case rep := <-req.reply:
		return rep, nil
	case <-ctx.Done():
		return Reply{State: protocol.Rejected(), Err: ctx.Err()}, ctx.Err()
	}
}

func (r *Room) reportIfOver() {
	if r.reported || !r.m.Over() {
		return
	}
	r.reported = true
	winner, reason, _ := r.m.Result()
	rec := Record{
		RoomID:    r.ID,
		White:     r.White,
		Black:     r.Black,
		Winner:    winner,
		Reason:    reason,
		Turns:     r.m.Turn(),
		Moves:     r.m.Log(),
		StartedAt: r.started,
		EndedAt:   time.Now(),
	}
	obslog.Room(r.ID).Info("match_over",
		zap.String("winner", winner.String()),
		zap.String("reason", string(reason)),
		zap.Int("turns", rec.Turns),
	)
	if r.onOver != nil {
		go r.onOver(rec)
	}
}

// IsClosed reports whether err means the room is gone.
func IsClosed(err error) bool { return errors.Is(err, ErrRoomClosed) }
