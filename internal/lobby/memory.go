package lobby

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryPairer is the single-process Pairer used when no Redis is configured.
type MemoryPairer struct {
	mu      sync.Mutex
	waiting *RoomMeta
	active  map[string]*RoomMeta
}

func NewMemoryPairer() *MemoryPairer {
	return &MemoryPairer{active: make(map[string]*RoomMeta)}
}

func (p *MemoryPairer) Join(_ context.Context, session string) (Pairing, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return Pairing{}, ErrInvalidArgs
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if w := p.waiting; w != nil {
		if w.White == session {
			return Pairing{}, ErrAlreadyWaiting
		}
		w.Black = session
		w.State = StateActive
		w.PairedAt = time.Now()
		p.active[w.ID] = w
		p.waiting = nil
		return Pairing{RoomID: w.ID, White: w.White, Black: w.Black, Paired: true}, nil
	}
	w := &RoomMeta{ID: uuid.NewString(), State: StateWaiting, White: session, CreatedAt: time.Now()}
	p.waiting = w
	return Pairing{RoomID: w.ID, White: session}, nil
}

func (p *MemoryPairer) Leave(_ context.Context, session string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waiting != nil && p.waiting.White == session {
		p.waiting = nil
	}
	return nil
}

func (p *MemoryPairer) Finish(_ context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, roomID)
	return nil
}

func (p *MemoryPairer) Active(_ context.Context) ([]string, error) {
	p.mu.Lock()
	out := make([]string, 0, len(p.active))
	for id := range p.active {
		out = append(out, id)
	}
	p.mu.Unlock()
	sort.Strings(out)
	return out, nil
}

func (p *MemoryPairer) Close() error { return nil }
