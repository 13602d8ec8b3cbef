// Package match holds the authoritative state of a game: whose turn it is,
// the card draw schedule, and the validate-then-apply handling of every
// client action.
package match

import (
	"fmt"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/delta"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/park285/cardchess/internal/rules"
	"github.com/park285/cardchess/pkg/protocol"
	"go.uber.org/zap"
)

const DefaultDrawInterval = 2

type Options struct {
	// DrawInterval is how many of its own turns a color waits between cards.
	DrawInterval int
	Pool         *cards.Pool
	// Board overrides the opening position.
	Board *board.Board
}

// Match is the turn coordinator. It is not safe for concurrent use; Room
// serializes access to it.
type Match struct {
	board    *board.Board
	pool     *cards.Pool
	interval int

	turn    int
	current board.Color
	phase   Phase

	card      cards.Type
	cardOwner board.Color
	draws     [2]int

	winner board.Color
	reason EndReason

	log []Entry
}

func New(opts Options) *Match {
	m := &Match{board: opts.Board, pool: opts.Pool, interval: opts.DrawInterval, current: board.White}
	if m.board == nil {
		m.board = board.NewStandard()
	}
	if m.pool == nil {
		m.pool = cards.NewPool(nil, nil)
	}
	if m.interval <= 0 {
		m.interval = DefaultDrawInterval
	}
	return m
}

func (m *Match) Board() *board.Board  { return m.board }
func (m *Match) Turn() int            { return m.turn }
func (m *Match) Current() board.Color { return m.current }
func (m *Match) Phase() Phase         { return m.phase }
func (m *Match) Over() bool           { return m.phase == PhaseGameOver }

// ActiveCard returns the card awaiting play, if any.
func (m *Match) ActiveCard() (cards.Type, board.Color, bool) {
	if m.phase != PhaseCardSelection {
		return 0, board.White, false
	}
	return m.card, m.cardOwner, true
}

// Result returns the winner and reason once the game is over.
func (m *Match) Result() (board.Color, EndReason, bool) {
	return m.winner, m.reason, m.phase == PhaseGameOver
}

// Log returns the accepted actions so far.
func (m *Match) Log() []Entry { return append([]Entry(nil), m.log...) }

// FullState describes the whole board as add changes.
func (m *Match) FullState() protocol.State {
	return m.state(delta.Snapshot(m.board))
}

// Handle validates and applies one action from color. A non-nil error means
// nothing changed and the caller should reply with a rejection.
func (m *Match) Handle(color board.Color, a protocol.Action) (protocol.State, error) {
	if a.Type == protocol.ActionResync {
		return m.FullState(), nil
	}
	if m.phase == PhaseGameOver {
		return protocol.Rejected(), ErrGameOver
	}
	if a.Type == protocol.ActionConcede {
		m.finish(color.Opposite(), EndConcede)
		m.record(Entry{Color: color.String(), Action: a.Type.String()})
		return m.state(nil), nil
	}
	if color != m.current {
		return protocol.Rejected(), ErrNotYourTurn
	}

	var (
		changes []protocol.Change
		entry   = Entry{Color: color.String(), Action: a.Type.String()}
		err     error
	)
	switch a.Type {
	case protocol.ActionMove:
		if m.phase != PhaseNormal {
			return protocol.Rejected(), ErrWrongPhase
		}
		changes, entry.Captured, err = m.move(int(a.Source), int(a.Target))
		entry.From, entry.To = int(a.Source), int(a.Target)
	case protocol.ActionCard:
		changes, err = m.playCard(color, cards.Type(a.Card), a.SelectionIDs())
		entry.Card, entry.Selections = cards.Type(a.Card), a.SelectionIDs()
	case protocol.ActionDecline:
		if m.phase != PhaseCardSelection || m.cardOwner != color {
			return protocol.Rejected(), ErrWrongPhase
		}
		entry.Card = m.card
	default:
		return protocol.Rejected(), fmt.Errorf("%w: %s", protocol.ErrUnknownAction, a.Type)
	}
	if err != nil {
		return protocol.Rejected(), err
	}

	m.record(entry)
	m.phase = PhaseNormal
	m.advance()
	return m.state(changes), nil
}

func (m *Match) move(src, dst int) ([]protocol.Change, []board.Kind, error) {
	from, to := m.board.TileByID(src), m.board.TileByID(dst)
	if from == nil || to == nil {
		return nil, nil, ErrIllegalMove
	}
	p := from.Piece()
	if p == nil || p.Color != m.current {
		return nil, nil, ErrIllegalMove
	}
	outcome, victims := rules.Resolve(m.board, p, to)
	if outcome == rules.Illegal {
		return nil, nil, fmt.Errorf("%w: %v %d->%d", ErrIllegalMove, p, src, dst)
	}

	var changes []protocol.Change
	var captured []board.Kind
	for _, v := range victims {
		changes = append(changes, delta.Remove(v.Tile().ID(), protocol.ReasonCapture))
		captured = append(captured, v.Kind)
	}
	changes = append(changes, delta.Remove(src, protocol.ReasonNormalMovement))

	for _, v := range victims {
		m.board.Kill(v)
	}
	if err := to.Occupy(p); err != nil {
		obslog.L().Error("match_apply_failed", zap.Int("from", src), zap.Int("to", dst), zap.Error(err))
		return nil, nil, err
	}
	if p.Kind == board.Pawn && !p.Reversed && abs(to.Y-from.Y) == 2 {
		p.HasDoubleMoved = true
	}
	p.HasMoved = true

	reason := protocol.ReasonNormalMovement
	if outcome == rules.Capture {
		reason = protocol.ReasonCapture
	}
	changes = append(changes, delta.Add(dst, p, reason))
	return delta.Order(changes), captured, nil
}

func (m *Match) playCard(color board.Color, t cards.Type, sel []int) ([]protocol.Change, error) {
	if m.phase != PhaseCardSelection || m.cardOwner != color {
		return nil, ErrWrongPhase
	}
	if t != m.card {
		return nil, fmt.Errorf("%w: got %v, active %v", ErrCardMismatch, t, m.card)
	}
	changes, ok := cards.Execute(t, sel, m.board, color)
	if !ok {
		return nil, fmt.Errorf("%w: %v %v", ErrCardRejected, t, sel)
	}
	return changes, nil
}

// advance ends the current turn: counter, color, game-over check, and the
// card draw for the color whose turn begins.
func (m *Match) advance() {
	m.turn++
	m.current = m.current.Opposite()

	switch {
	case !m.board.HasKing(board.White):
		m.finish(board.Black, EndKingCaptured)
		return
	case !m.board.HasKing(board.Black):
		m.finish(board.White, EndKingCaptured)
		return
	}

	for _, p := range m.board.Live(m.current, board.Pawn) {
		p.HasDoubleMoved = false
	}

	m.draws[m.current]++
	if m.draws[m.current] < m.interval {
		return
	}
	m.draws[m.current] = 0
	t, ok := m.pool.Draw(m.board, m.current)
	if !ok {
		obslog.L().Debug("card_draw_skipped", zap.String("color", m.current.String()), zap.Int("turn", m.turn))
		return
	}
	m.phase = PhaseCardSelection
	m.card = t
	m.cardOwner = m.current
	obslog.L().Info("card_drawn", zap.String("card", t.Key()), zap.String("color", m.current.String()), zap.Int("turn", m.turn))
}

func (m *Match) finish(winner board.Color, reason EndReason) {
	m.phase = PhaseGameOver
	m.winner = winner
	m.reason = reason
}

// Forfeit ends the game in favour of the other side of loser.
func (m *Match) Forfeit(loser board.Color, reason EndReason) {
	if m.phase == PhaseGameOver {
		return
	}
	m.finish(loser.Opposite(), reason)
}

func (m *Match) record(e Entry) {
	e.Turn = m.turn
	m.log = append(m.log, e)
}

func (m *Match) state(changes []protocol.Change) protocol.State {
	s := protocol.State{
		Status:          protocol.StatusOK,
		Changes:         changes,
		TurnNumber:      m.turn,
		CurrentPlayer:   m.current.String(),
		CardPhase:       m.phase.String(),
		TopsyTurvyPawns: delta.ReversedTiles(m.board),
		GameOver:        m.phase == PhaseGameOver,
	}
	if m.phase == PhaseCardSelection {
		s.ActiveCardType = uint8(m.card)
		s.CardOwner = m.cardOwner.String()
	}
	if s.GameOver {
		s.Winner = m.winner.String()
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
