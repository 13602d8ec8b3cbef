package main

import (
	"context"
	"fmt"
	"log"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/clientsync"
	"github.com/park285/cardchess/internal/repository"
	"github.com/park285/cardchess/internal/rules"
	"github.com/park285/cardchess/internal/selection"
	"github.com/park285/cardchess/pkg/protocol"
)

// playUntilCard plays the first legal move on each of this side's turns and
// follows the opponent's replies until a card is drawn for this side. The
// card is then played with automatic targets, or declined when nothing can
// be picked. The painted board of the picks is returned for rendering.
func playUntilCard(ctx context.Context, conn *clientsync.Conn, mirror *clientsync.Mirror, st protocol.State) (*board.Board, error) {
	me := mirror.Color().String()
	for {
		if st.GameOver {
			return nil, fmt.Errorf("game over before a card was drawn (winner %s)", st.Winner)
		}
		var err error
		switch {
		case st.CardPhase == protocol.PhaseCardSelection && st.CardOwner == me:
			return playCard(ctx, conn, mirror, cards.Type(st.ActiveCardType))
		case st.CardPhase == protocol.PhaseNormal && st.CurrentPlayer == me:
			a, ok := firstMove(mirror.Board(), mirror.Color())
			if !ok {
				return nil, fmt.Errorf("no legal move for %s", me)
			}
			log.Printf("move %s-%s", repository.Square(int(a.Source)), repository.Square(int(a.Target)))
			if st, err = submit(ctx, conn, mirror, a); err == nil && !st.OK() {
				err = fmt.Errorf("move rejected (status %d)", st.Status)
			}
		default:
			st, err = receive(ctx, conn, mirror)
		}
		if err != nil {
			return nil, err
		}
	}
}

func firstMove(b *board.Board, c board.Color) (protocol.Action, bool) {
	for _, p := range b.Live(c) {
		if ts := rules.Targets(b, p); len(ts) > 0 {
			return protocol.Move(p.Tile().ID(), ts[0].ID()), true
		}
	}
	return protocol.Action{}, false
}

func playCard(ctx context.Context, conn *clientsync.Conn, mirror *clientsync.Mirror, card cards.Type) (*board.Board, error) {
	b := mirror.Board()
	m := selection.New(card, mirror.Color(), b)
	a := protocol.Decline()
	if m.AutoPick(b) {
		a, _ = m.Action()
	}
	m.Paint(b)
	log.Printf("card %s: sending %s %v", card.Key(), a.Type, m.Selections())

	st, err := submit(ctx, conn, mirror, a)
	if err != nil {
		return nil, err
	}
	if !st.OK() {
		return nil, fmt.Errorf("card %s rejected (status %d)", card.Key(), st.Status)
	}
	return b, nil
}

// submit sends this side's action and waits for its reply.
func submit(ctx context.Context, conn *clientsync.Conn, mirror *clientsync.Mirror, a protocol.Action) (protocol.State, error) {
	if err := mirror.Begin(a); err != nil {
		return protocol.State{}, err
	}
	if err := conn.Send(ctx, a); err != nil {
		return protocol.State{}, err
	}
	return receive(ctx, conn, mirror)
}

func receive(ctx context.Context, conn *clientsync.Conn, mirror *clientsync.Mirror) (protocol.State, error) {
	env, err := conn.Expect(ctx, protocol.MsgMoveResponse)
	if err != nil {
		return protocol.State{}, err
	}
	st, err := env.State()
	if err != nil {
		return protocol.State{}, err
	}
	if err := mirror.Receive(st); err != nil {
		return protocol.State{}, err
	}
	return st, nil
}
