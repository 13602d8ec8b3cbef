package notify

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/match"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	hc := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	opts = append([]Option{WithHTTPClient(hc), WithTimeout(2 * time.Second)}, opts...)
	return NewClient("http://webhook.local/results", opts...)
}

func sampleRecord() match.Record {
	return match.Record{
		RoomID: "room-1",
		White:  "s-white",
		Black:  "s-black",
		Winner: board.Black,
		Reason: match.EndConcede,
		Turns:  2,
		Moves: []match.Entry{
			{Turn: 0, Color: "white", Action: "move", From: 52, To: 36},
			{Turn: 1, Color: "black", Action: "move", From: 12, To: 28},
		},
	}
}

func TestPostResultDeliversPayload(t *testing.T) {
	var got Result
	var auth string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		auth = string(ctx.Request.Header.Peek("Authorization"))
		if err := json.Unmarshal(ctx.PostBody(), &got); err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	}, WithHeaderProvider(func() map[string]string { return map[string]string{"Authorization": "Bearer t"} }))

	if err := c.PostResult(context.Background(), NewResult(sampleRecord(), "black wins")); err != nil {
		t.Fatalf("PostResult: %v", err)
	}
	if got.RoomID != "room-1" || got.Winner != "black" || got.WinnerID != "s-black" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Transcript != "1. e2-e4 e7-e5" {
		t.Fatalf("transcript = %q", got.Transcript)
	}
	if got.Summary != "black wins" || got.Reason != "concede" {
		t.Fatalf("unexpected summary/reason: %+v", got)
	}
	if auth != "Bearer t" {
		t.Fatalf("header not forwarded: %q", auth)
	}
}

func TestPostResultRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	}, WithRetry(3))

	if err := c.PostResult(context.Background(), NewResult(sampleRecord(), "")); err != nil {
		t.Fatalf("PostResult: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestPostResultDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("nope")
	}, WithRetry(3))

	if err := c.PostResult(context.Background(), NewResult(sampleRecord(), "")); err == nil {
		t.Fatalf("expected error for 400")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	c := NewClient("  ")
	if c != nil {
		t.Fatalf("expected nil client for empty url")
	}
	if err := c.PostResult(context.Background(), Result{}); err != nil {
		t.Fatalf("nil client PostResult: %v", err)
	}
}
