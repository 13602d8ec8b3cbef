package match

import (
	"errors"
	"reflect"
	"testing"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/delta"
	"github.com/park285/cardchess/pkg/protocol"
)

// polymorphOnly draws Polymorph every time a card comes up.
func polymorphOnly() *cards.Pool {
	return cards.NewPool(cards.Seeded(1), []cards.Type{
		cards.Onslaught, cards.BizarreMutation, cards.Draught, cards.Telekinesis, cards.TopsyTurvy,
	})
}

func newTestMatch(t *testing.T, b *board.Board, interval int) *Match {
	t.Helper()
	return New(Options{Board: b, DrawInterval: interval, Pool: polymorphOnly()})
}

func kingsOnly(t *testing.T) *board.Board {
	t.Helper()
	b := board.New()
	place(t, b, board.King, board.White, 4, 7)
	place(t, b, board.King, board.Black, 4, 0)
	return b
}

func place(t *testing.T, b *board.Board, k board.Kind, c board.Color, x, y int) {
	t.Helper()
	if _, err := b.Place(k, c, x, y); err != nil {
		t.Fatalf("place %v %v at (%d,%d): %v", c, k, x, y, err)
	}
}

func mustHandle(t *testing.T, m *Match, c board.Color, a protocol.Action) protocol.State {
	t.Helper()
	st, err := m.Handle(c, a)
	if err != nil {
		t.Fatalf("%v %s rejected: %v", c, a.Type, err)
	}
	return st
}

func layout(b *board.Board) string {
	out := make([]byte, 0, board.NumTiles)
	for _, t := range b.Tiles() {
		if p := t.Piece(); p != nil {
			out = append(out, delta.Param(p))
		} else {
			out = append(out, 0)
		}
	}
	return string(out)
}

func TestOpeningPawnPush(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	st := mustHandle(t, m, board.White, protocol.Move(52, 36))

	want := []protocol.Change{
		{TileID: 52, ActionType: protocol.ChangeRemove, Reason: protocol.ReasonNormalMovement},
		{TileID: 36, ActionType: protocol.ChangeAdd, Parameter: 0x01, Reason: protocol.ReasonNormalMovement},
	}
	if !reflect.DeepEqual(st.Changes, want) {
		t.Fatalf("changes = %+v", st.Changes)
	}
	if st.CurrentPlayer != "black" || st.TurnNumber != 1 || st.CardPhase != protocol.PhaseNormal {
		t.Fatalf("unexpected state %+v", st)
	}
	if !m.Board().TileByID(36).Piece().HasDoubleMoved {
		t.Fatalf("two-step push should mark the pawn")
	}
}

func TestJumperCapturesMidpointOnly(t *testing.T) {
	b := kingsOnly(t)
	place(t, b, board.Jumper, board.White, 2, 2)
	place(t, b, board.Pawn, board.Black, 3, 3)
	m := newTestMatch(t, b, 100)

	st := mustHandle(t, m, board.White, protocol.Move(board.ID(2, 2), board.ID(4, 4)))
	want := []protocol.Change{
		{TileID: board.ID(3, 3), ActionType: protocol.ChangeRemove, Reason: protocol.ReasonCapture},
		{TileID: board.ID(2, 2), ActionType: protocol.ChangeRemove, Reason: protocol.ReasonNormalMovement},
		{TileID: board.ID(4, 4), ActionType: protocol.ChangeAdd, Parameter: 0x07, Reason: protocol.ReasonCapture},
	}
	if !reflect.DeepEqual(st.Changes, want) {
		t.Fatalf("changes = %+v", st.Changes)
	}
	if g := b.Graveyard(board.Black); g[board.Pawn] != 1 {
		t.Fatalf("graveyard = %v", g)
	}
}

func TestRejectionsLeaveStateUntouched(t *testing.T) {
	cases := []struct {
		name  string
		color board.Color
		act   protocol.Action
		err   error
	}{
		{"out of turn", board.Black, protocol.Move(board.ID(0, 1), board.ID(0, 2)), ErrNotYourTurn},
		{"moving enemy piece", board.White, protocol.Move(board.ID(0, 1), board.ID(0, 2)), ErrIllegalMove},
		{"empty source", board.White, protocol.Move(board.ID(4, 4), board.ID(4, 3)), ErrIllegalMove},
		{"blocked pawn", board.White, protocol.Move(board.ID(5, 6), board.ID(5, 5)), ErrIllegalMove},
		{"friendly capture", board.White, protocol.Move(board.ID(0, 7), board.ID(0, 6)), ErrIllegalMove},
		{"card without draw", board.White, protocol.Card(uint8(cards.Polymorph), board.ID(2, 7)), ErrWrongPhase},
		{"decline without draw", board.White, protocol.Decline(), ErrWrongPhase},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMatch(t, nil, 0)
			before := layout(m.Board())
			st, err := m.Handle(tc.color, tc.act)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if st.OK() {
				t.Fatalf("rejected action reported ok")
			}
			if layout(m.Board()) != before || m.Turn() != 0 || m.Current() != board.White {
				t.Fatalf("state changed on rejection")
			}
		})
	}
}

// openCard plays three quiet moves so black draws its first card.
func openCard(t *testing.T, m *Match) {
	t.Helper()
	mustHandle(t, m, board.White, protocol.Move(board.ID(0, 6), board.ID(0, 5)))
	mustHandle(t, m, board.Black, protocol.Move(board.ID(7, 1), board.ID(7, 2)))
	st := mustHandle(t, m, board.White, protocol.Move(board.ID(1, 6), board.ID(1, 5)))
	if st.CardPhase != protocol.PhaseCardSelection || st.CardOwner != "black" || st.ActiveCardType != uint8(cards.Polymorph) {
		t.Fatalf("expected black to draw polymorph, got %+v", st)
	}
	if st.CurrentPlayer != "black" {
		t.Fatalf("card owner should be the acting player, got %s", st.CurrentPlayer)
	}
}

func TestCardDrawSchedule(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	st := mustHandle(t, m, board.White, protocol.Move(board.ID(0, 6), board.ID(0, 5)))
	if st.CardPhase != protocol.PhaseNormal {
		t.Fatalf("no card expected on black's first turn")
	}
	st = mustHandle(t, m, board.Black, protocol.Move(board.ID(7, 1), board.ID(7, 2)))
	if st.CardPhase != protocol.PhaseNormal {
		t.Fatalf("no card expected on white's first turn")
	}
	st = mustHandle(t, m, board.White, protocol.Move(board.ID(1, 6), board.ID(1, 5)))
	if st.CardPhase != protocol.PhaseCardSelection {
		t.Fatalf("black should draw on its second turn")
	}
}

func TestMoveDuringCardSelectionRejected(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	openCard(t, m)
	before := layout(m.Board())

	if _, err := m.Handle(board.Black, protocol.Move(board.ID(6, 1), board.ID(6, 2))); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("err = %v, want ErrWrongPhase", err)
	}
	if _, err := m.Handle(board.White, protocol.Decline()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("err = %v, want ErrNotYourTurn", err)
	}
	if _, err := m.Handle(board.Black, protocol.Card(uint8(cards.Draught), board.ID(1, 0))); !errors.Is(err, ErrCardMismatch) {
		t.Fatalf("err = %v, want ErrCardMismatch", err)
	}
	if _, err := m.Handle(board.Black, protocol.Card(uint8(cards.Polymorph), board.ID(3, 0))); !errors.Is(err, ErrCardRejected) {
		t.Fatalf("err = %v, want ErrCardRejected", err)
	}
	if layout(m.Board()) != before || m.Phase() != PhaseCardSelection {
		t.Fatalf("rejections changed state")
	}
}

func TestDeclineKeepsBoard(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	openCard(t, m)
	before, turn := layout(m.Board()), m.Turn()

	st := mustHandle(t, m, board.Black, protocol.Decline())
	if layout(m.Board()) != before {
		t.Fatalf("decline mutated the board")
	}
	if len(st.Changes) != 0 || st.TurnNumber != turn+1 || st.CurrentPlayer != "white" {
		t.Fatalf("unexpected state after decline %+v", st)
	}
	// white's own counter reaches the interval on this turn
	if st.CardPhase != protocol.PhaseCardSelection || st.CardOwner != "white" {
		t.Fatalf("white should draw after the decline, got %+v", st)
	}
}

func TestPlayCard(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	openCard(t, m)

	st := mustHandle(t, m, board.Black, protocol.Card(uint8(cards.Polymorph), board.ID(2, 7)))
	if len(st.Changes) != 2 || st.Changes[1].Parameter != 0x03 {
		t.Fatalf("changes = %+v", st.Changes)
	}
	if st.CurrentPlayer != "white" || st.CardPhase != protocol.PhaseCardSelection || st.CardOwner != "white" {
		t.Fatalf("unexpected state %+v", st)
	}
	if p := m.Board().TileAt(2, 7).Piece(); p.Kind != board.Knight || p.Color != board.White {
		t.Fatalf("expected white knight, got %v", p)
	}
}

func TestKingCaptureEndsGame(t *testing.T) {
	b := kingsOnly(t)
	place(t, b, board.Rook, board.White, 4, 5)
	place(t, b, board.Pawn, board.Black, 0, 1)
	m := newTestMatch(t, b, 100)

	st := mustHandle(t, m, board.White, protocol.Move(board.ID(4, 5), board.ID(4, 0)))
	if !st.GameOver || st.Winner != "white" || st.CardPhase != protocol.PhaseGameOver {
		t.Fatalf("expected white win, got %+v", st)
	}
	if _, err := m.Handle(board.Black, protocol.Move(board.ID(0, 1), board.ID(0, 2))); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	if _, err := m.Handle(board.Black, protocol.Concede()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("concede after game over: %v", err)
	}
	sync := mustHandle(t, m, board.Black, protocol.Resync())
	if !sync.GameOver || sync.Winner != "white" {
		t.Fatalf("resync should report the terminal state, got %+v", sync)
	}
	winner, reason, over := m.Result()
	if !over || winner != board.White || reason != EndKingCaptured {
		t.Fatalf("Result() = %v %v %v", winner, reason, over)
	}
}

func TestConcede(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	st := mustHandle(t, m, board.Black, protocol.Concede())
	if !st.GameOver || st.Winner != "white" || st.TurnNumber != 0 {
		t.Fatalf("unexpected concede state %+v", st)
	}
	if _, reason, _ := m.Result(); reason != EndConcede {
		t.Fatalf("reason = %v", reason)
	}
}

func TestEnPassantWindow(t *testing.T) {
	setup := func(t *testing.T) *Match {
		b := kingsOnly(t)
		place(t, b, board.Pawn, board.White, 4, 3)
		place(t, b, board.Pawn, board.Black, 3, 1)
		place(t, b, board.Knight, board.White, 0, 7)
		place(t, b, board.Knight, board.Black, 7, 0)
		m := newTestMatch(t, b, 100)
		mustHandle(t, m, board.White, protocol.Move(board.ID(0, 7), board.ID(1, 5)))
		mustHandle(t, m, board.Black, protocol.Move(board.ID(3, 1), board.ID(3, 3)))
		return m
	}

	t.Run("immediately", func(t *testing.T) {
		m := setup(t)
		st := mustHandle(t, m, board.White, protocol.Move(board.ID(4, 3), board.ID(3, 2)))
		if st.Changes[0].TileID != board.ID(3, 3) || st.Changes[0].Reason != protocol.ReasonCapture {
			t.Fatalf("expected capture of the passed pawn, got %+v", st.Changes)
		}
		if !m.Board().TileAt(3, 3).Empty() {
			t.Fatalf("passed pawn still on board")
		}
	})

	t.Run("one turn late", func(t *testing.T) {
		m := setup(t)
		mustHandle(t, m, board.White, protocol.Move(board.ID(1, 5), board.ID(0, 7)))
		mustHandle(t, m, board.Black, protocol.Move(board.ID(7, 0), board.ID(6, 2)))
		if _, err := m.Handle(board.White, protocol.Move(board.ID(4, 3), board.ID(3, 2))); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("late en passant: err = %v", err)
		}
	})
}

func TestFullStateListsEveryPiece(t *testing.T) {
	m := newTestMatch(t, nil, 0)
	st := m.FullState()
	if len(st.Changes) != 34 {
		t.Fatalf("expected 34 pieces, got %d", len(st.Changes))
	}
	for _, c := range st.Changes {
		if c.ActionType != protocol.ChangeAdd || c.Reason != protocol.ReasonTurnStart {
			t.Fatalf("unexpected snapshot change %+v", c)
		}
	}
}
