package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/clientsync"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/pkg/protocol"
)

type recordingStore struct{ ch chan match.Record }

func (r *recordingStore) SaveResult(_ context.Context, rec match.Record) error {
	r.ch <- rec
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *recordingStore) {
	t.Helper()
	store := &recordingStore{ch: make(chan match.Record, 4)}
	srv, err := New(Config{
		PingInterval: time.Second,
		// keep cards out of the way of plain move sequences
		MatchOptions: func() match.Options {
			return match.Options{DrawInterval: 1000, Pool: cards.NewPool(nil, []cards.Type{cards.Draught})}
		},
	}, Deps{Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts, store
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *clientsync.Conn {
	t.Helper()
	c, err := clientsync.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", clientsync.DialOptions{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func expectConnected(t *testing.T, ctx context.Context, c *clientsync.Conn, color string) protocol.Connected {
	t.Helper()
	env, err := c.Expect(ctx, protocol.MsgConnected)
	if err != nil {
		t.Fatalf("expect connected: %v", err)
	}
	got, err := env.Connected()
	if err != nil {
		t.Fatalf("decode connected: %v", err)
	}
	if got.Color != color || got.RoomID == "" {
		t.Fatalf("connected = %+v, want color %s", got, color)
	}
	return got
}

func expectState(t *testing.T, ctx context.Context, c *clientsync.Conn, name string) protocol.State {
	t.Helper()
	env, err := c.Expect(ctx, name)
	if err != nil {
		t.Fatalf("expect %s: %v", name, err)
	}
	st, err := env.State()
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return st
}

// pair connects two clients and waits for gameStart on both.
func pair(t *testing.T, ctx context.Context, ts *httptest.Server) (white, black *clientsync.Conn, roomID string, start protocol.State) {
	t.Helper()
	white = dial(t, ctx, ts)
	t.Cleanup(func() { _ = white.Close() })
	cw := expectConnected(t, ctx, white, "white")

	black = dial(t, ctx, ts)
	t.Cleanup(func() { _ = black.Close() })
	cb := expectConnected(t, ctx, black, "black")
	if cw.RoomID != cb.RoomID {
		t.Fatalf("room ids differ: %s vs %s", cw.RoomID, cb.RoomID)
	}

	start = expectState(t, ctx, white, protocol.MsgGameStart)
	expectState(t, ctx, black, protocol.MsgGameStart)
	return white, black, cw.RoomID, start
}

func TestMatchOverWebSocket(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := testCtx(t)
	white, black, roomID, start := pair(t, ctx, ts)

	if !start.OK() || len(start.Changes) != 34 || start.CurrentPlayer != "white" {
		t.Fatalf("unexpected gameStart: status=%d changes=%d current=%s", start.Status, len(start.Changes), start.CurrentPlayer)
	}

	mirror := clientsync.NewMirror(board.White)
	if err := mirror.Sync(start); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	move := protocol.Move(52, 36)
	if err := mirror.Begin(move); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := white.Send(ctx, move); err != nil {
		t.Fatalf("send: %v", err)
	}
	res := expectState(t, ctx, white, protocol.MsgMoveResponse)
	if !res.OK() || res.CurrentPlayer != "black" || res.TurnNumber != 1 {
		t.Fatalf("unexpected move result: %+v", res)
	}
	if err := mirror.Receive(res); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if p := mirror.Confirmed().TileByID(36).Piece(); p == nil || p.Kind != board.Pawn || mirror.Pending() {
		t.Fatalf("mirror did not confirm the move")
	}
	if got := expectState(t, ctx, black, protocol.MsgMoveResponse); !got.OK() || got.TurnNumber != 1 {
		t.Fatalf("black saw %+v", got)
	}

	// out of turn: only the sender hears about it
	if err := white.Send(ctx, protocol.Move(51, 43)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := expectState(t, ctx, white, protocol.MsgMoveResponse); got.OK() {
		t.Fatalf("out of turn move accepted")
	}

	if err := black.Send(ctx, protocol.Resync()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sync := expectState(t, ctx, black, protocol.MsgSyncResponse); len(sync.Changes) != 34 || sync.TurnNumber != 1 {
		t.Fatalf("unexpected sync: changes=%d turn=%d", len(sync.Changes), sync.TurnNumber)
	}

	if err := black.Send(ctx, protocol.Concede()); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, c := range []*clientsync.Conn{white, black} {
		got := expectState(t, ctx, c, protocol.MsgMoveResponse)
		if !got.GameOver || got.Winner != "white" {
			t.Fatalf("expected white win, got %+v", got)
		}
	}

	select {
	case rec := <-store.ch:
		if rec.RoomID != roomID || rec.Winner != board.White || rec.Reason != match.EndConcede || len(rec.Moves) != 2 {
			t.Fatalf("unexpected record: %+v", rec)
		}
	case <-ctx.Done():
		t.Fatalf("result not stored")
	}
}

func TestDisconnectForfeits(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := testCtx(t)
	white, black, _, _ := pair(t, ctx, ts)

	if err := white.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	got := expectState(t, ctx, black, protocol.MsgMoveResponse)
	if !got.GameOver || got.Winner != "black" {
		t.Fatalf("expected black win, got %+v", got)
	}
	select {
	case rec := <-store.ch:
		if rec.Reason != match.EndDisconnect || rec.WinnerID() != rec.Black {
			t.Fatalf("unexpected record: %+v", rec)
		}
	case <-ctx.Done():
		t.Fatalf("result not stored")
	}
}

func TestWaitingSessionLeavesLobby(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := testCtx(t)

	first := dial(t, ctx, ts)
	expectConnected(t, ctx, first, "white")
	_ = first.Close()

	// the next two sessions pair with each other, not with the one that left
	deadline := time.Now().Add(2 * time.Second)
	for {
		c := dial(t, ctx, ts)
		env, err := c.Expect(ctx, protocol.MsgConnected)
		if err != nil {
			t.Fatalf("expect connected: %v", err)
		}
		got, _ := env.Connected()
		_ = c.Close()
		if got.Color == "white" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("lobby still holds the departed session")
		}
	}
}

func TestHTTPRoutes(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := testCtx(t)
	_, _, roomID, _ := pair(t, ctx, ts)

	get := func(path string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, body
	}

	if resp, body := get("/health"); resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("/health = %d %q", resp.StatusCode, body)
	}
	if resp, body := get("/cards"); resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"key":"telekinesis"`) {
		t.Fatalf("/cards = %d %s", resp.StatusCode, body)
	} else if strings.Contains(string(body), `"key":"draught"`) {
		t.Fatalf("/cards lists a disabled card: %s", body)
	}
	if resp, body := get("/rooms"); resp.StatusCode != http.StatusOK || !strings.Contains(string(body), roomID) {
		t.Fatalf("/rooms = %d %s", resp.StatusCode, body)
	}

	resp, body := get("/rooms/" + roomID + "/board.png?side=black")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("board.png = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Fatalf("board.png body is not a png")
	}
	if resp, _ := get("/rooms/nope/board.png"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room = %d", resp.StatusCode)
	}
}

func TestRoomReportsGraveyard(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := testCtx(t)
	white, black, roomID, _ := pair(t, ctx, ts)

	// e2-e4 d7-d5 exd5
	for _, step := range []struct {
		c *clientsync.Conn
		a protocol.Action
	}{
		{white, protocol.Move(52, 36)},
		{black, protocol.Move(11, 27)},
		{white, protocol.Move(36, 27)},
	} {
		if err := step.c.Send(ctx, step.a); err != nil {
			t.Fatalf("send: %v", err)
		}
		if got := expectState(t, ctx, step.c, protocol.MsgMoveResponse); !got.OK() {
			t.Fatalf("move %d->%d rejected", step.a.Source, step.a.Target)
		}
	}

	resp, err := http.Get(ts.URL + "/rooms/" + roomID)
	if err != nil {
		t.Fatalf("GET room: %v", err)
	}
	defer resp.Body.Close()
	var got struct {
		ID            string                    `json:"id"`
		Turn          int                       `json:"turn"`
		CurrentPlayer string                    `json:"currentPlayer"`
		Graveyard     map[string]map[string]int `json:"graveyard"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != roomID || got.Turn != 3 || got.CurrentPlayer != "black" {
		t.Fatalf("room = %+v", got)
	}
	if got.Graveyard["black"]["pawn"] != 1 || got.Graveyard["white"]["pawn"] != 0 {
		t.Fatalf("graveyard = %v", got.Graveyard)
	}
}

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"localhost:*", "example.com"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"https://EXAMPLE.com", true},
		{"https://evil.example.com", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := originAllowed(patterns, tt.origin); got != tt.want {
				t.Fatalf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
