package clientsync

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/park285/cardchess/pkg/protocol"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var ErrClosed = errors.New("connection closed")

// Conn is a game client connection: binary action frames out, JSON
// envelopes in. A listener goroutine buffers incoming envelopes for Next.
type Conn struct {
	ws *websocket.Conn

	msgs chan protocol.Envelope
	errM sync.Mutex
	err  error

	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type DialOptions struct {
	Header       http.Header
	PingInterval time.Duration
	Buffer       int
}

func Dial(ctx context.Context, url string, opts DialOptions) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      opts.Header,
	})
	if err != nil {
		return nil, err
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	c := &Conn{
		ws:           ws,
		msgs:         make(chan protocol.Envelope, opts.Buffer),
		pingInterval: opts.PingInterval,
		stopCh:       make(chan struct{}),
	}
	c.wg.Add(1)
	go c.listen()
	if c.pingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return c, nil
}

// Send writes one action frame.
func (c *Conn) Send(ctx context.Context, a protocol.Action) error {
	return c.ws.Write(ctx, websocket.MessageBinary, a.Encode())
}

// Next returns the next server envelope.
func (c *Conn) Next(ctx context.Context) (protocol.Envelope, error) {
	select {
	case env, ok := <-c.msgs:
		if !ok {
			return protocol.Envelope{}, c.readErr()
		}
		return env, nil
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

// Expect skips envelopes until one named name arrives.
func (c *Conn) Expect(ctx context.Context, name string) (protocol.Envelope, error) {
	for {
		env, err := c.Next(ctx)
		if err != nil {
			return env, err
		}
		if env.T == name {
			return env, nil
		}
	}
}

func (c *Conn) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	err := c.ws.Close(websocket.StatusNormalClosure, "bye")
	c.wg.Wait()
	return err
}

func (c *Conn) listen() {
	defer c.wg.Done()
	defer close(c.msgs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	for {
		var env protocol.Envelope
		if err := wsjson.Read(ctx, c.ws, &env); err != nil {
			c.setErr(err)
			return
		}
		select {
		case c.msgs <- env:
		case <-c.stopCh:
			return
		}
	}
}

func (c *Conn) pingLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := c.ws.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Conn) setErr(err error) {
	c.errM.Lock()
	defer c.errM.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Conn) readErr() error {
	c.errM.Lock()
	defer c.errM.Unlock()
	if c.err == nil {
		return ErrClosed
	}
	return c.err
}
