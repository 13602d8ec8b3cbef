package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/park285/cardchess/pkg/protocol"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pairAttempts = 3
)

var errPairing = errors.New("could not pair session")

// session is one connected client. The reader runs on the HTTP handler
// goroutine; a writer goroutine drains send.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
	room   *match.Room
	color  board.Color
}

// enqueue drops the frame if the session is gone or its buffer is full.
func (sess *session) enqueue(name string, payload any) {
	b, err := protocol.Marshal(name, payload)
	if err != nil {
		obslog.L().Error("envelope_marshal_failed", zap.String("session_id", sess.id), zap.String("t", name), zap.Error(err))
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	select {
	case sess.send <- b:
	default:
		obslog.L().Warn("session_send_dropped", zap.String("session_id", sess.id), zap.String("t", name))
	}
}

// attach binds the session to its room. It fails once the session has
// disconnected.
func (sess *session) attach(r *match.Room, c board.Color) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false
	}
	sess.room, sess.color = r, c
	return true
}

func (sess *session) current() (*match.Room, board.Color) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.room, sess.color
}

// shutdown marks the session gone and stops the writer.
func (sess *session) shutdown() (*match.Room, board.Color) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.closed {
		sess.closed = true
		close(sess.send)
	}
	return sess.room, sess.color
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.cfg.AllowedOrigins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &session{id: uuid.NewString(), conn: c, send: make(chan []byte, sendBuffer)}
	s.register(sess)
	obslog.L().Info("session_connected", zap.String("session_id", sess.id), zap.String("remote", r.RemoteAddr))

	writerDone := make(chan struct{})
	go s.writeLoop(ctx, sess, writerDone)

	if err := s.pair(ctx, sess); err != nil {
		obslog.L().Error("session_pair_failed", zap.String("session_id", sess.id), zap.Error(err))
	} else {
		s.readLoop(ctx, sess)
	}

	s.disconnect(sess)
	<-writerDone
	obslog.L().Info("session_disconnected", zap.String("session_id", sess.id))
}

func (s *Server) writeLoop(ctx context.Context, sess *session, done chan<- struct{}) {
	ping := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ping.Stop()
		_ = sess.conn.Close(websocket.StatusNormalClosure, "bye")
		close(done)
	}()
	for {
		select {
		case msg, ok := <-sess.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sess.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				obslog.L().Debug("session_write_failed", zap.String("session_id", sess.id), zap.Error(err))
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sess.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// pair joins the lobby. The first session of a pair waits as white; the
// second starts the room and both receive gameStart.
func (s *Server) pair(ctx context.Context, sess *session) error {
	for attempt := 0; attempt < pairAttempts; attempt++ {
		p, err := s.pairer.Join(ctx, sess.id)
		if err != nil {
			return err
		}
		if !p.Paired {
			sess.enqueue(protocol.MsgConnected, protocol.Connected{Color: board.White.String(), RoomID: p.RoomID})
			return nil
		}
		white := s.session(p.White)
		if white == nil {
			// the waiting session left before we arrived
			_ = s.pairer.Finish(ctx, p.RoomID)
			continue
		}
		sess.enqueue(protocol.MsgConnected, protocol.Connected{Color: board.Black.String(), RoomID: p.RoomID})
		return s.start(ctx, p.RoomID, white, sess)
	}
	return errPairing
}

func (s *Server) start(ctx context.Context, roomID string, white, black *session) error {
	room := s.rooms.Create(roomID, white.id, black.id)
	black.attach(room, board.Black)

	st, err := room.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !white.attach(room, board.White) {
		black.enqueue(protocol.MsgGameStart, st)
		rep, err := room.Leave(ctx, board.White)
		if err == nil {
			black.enqueue(rep.Message, rep.State)
		}
		return nil
	}
	white.enqueue(protocol.MsgGameStart, st)
	black.enqueue(protocol.MsgGameStart, st)
	return nil
}

func (s *Server) readLoop(ctx context.Context, sess *session) {
	for {
		typ, data, err := sess.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		room, color := sess.current()
		if room == nil {
			sess.enqueue(protocol.MsgMoveResponse, protocol.Rejected())
			continue
		}
		rep, err := room.Submit(ctx, color, data)
		if err != nil {
			if !match.IsClosed(err) {
				return
			}
			sess.enqueue(protocol.MsgMoveResponse, protocol.Rejected())
			continue
		}
		s.deliver(sess, room, rep)
	}
}

func (s *Server) deliver(sess *session, room *match.Room, rep match.Reply) {
	if rep.Private {
		sess.enqueue(rep.Message, rep.State)
		return
	}
	s.broadcast(room, rep.Message, rep.State)
}

func (s *Server) broadcast(room *match.Room, name string, st protocol.State) {
	for _, id := range []string{room.White, room.Black} {
		if peer := s.session(id); peer != nil {
			peer.enqueue(name, st)
		}
	}
}

// disconnect forfeits a running match for the leaving side and tells the
// peer; a session still waiting is withdrawn from the lobby.
func (s *Server) disconnect(sess *session) {
	room, color := sess.shutdown()
	s.unregister(sess)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ReportTimeout)
	defer cancel()

	if room == nil {
		if err := s.pairer.Leave(ctx, sess.id); err != nil {
			obslog.L().Warn("lobby_leave_failed", zap.String("session_id", sess.id), zap.Error(err))
		}
		return
	}
	rep, err := room.Leave(ctx, color)
	if err != nil || rep.Private {
		return
	}
	s.broadcast(room, rep.Message, rep.State)
}
