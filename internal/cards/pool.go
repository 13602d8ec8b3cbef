package cards

import (
	"math/rand/v2"
	"sync"

	"github.com/park285/cardchess/internal/board"
)

// Pool hands out cards without repeats until every enabled card has been
// drawn, then starts a new cycle.
type Pool struct {
	mu       sync.Mutex
	rng      *rand.Rand
	disabled map[Type]bool
	drawn    map[Type]bool
}

// NewPool builds a pool. A nil rng draws from an unseeded source.
func NewPool(rng *rand.Rand, disabled []Type) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p := &Pool{rng: rng, disabled: map[Type]bool{}, drawn: map[Type]bool{}}
	for _, t := range disabled {
		p.disabled[t] = true
	}
	return p
}

// Seeded returns a deterministic source for NewPool.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Draw picks a card usable by c on b. When every unseen card is unusable the
// cycle restarts early; ok is false if no enabled card is usable at all.
func (p *Pool) Draw(b *board.Board, c board.Color) (Type, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cand := p.candidates(b, c, false)
	if len(cand) == 0 {
		cand = p.candidates(b, c, true)
		if len(cand) == 0 {
			return 0, false
		}
		clear(p.drawn)
	}
	t := cand[p.rng.IntN(len(cand))]
	p.drawn[t] = true
	if p.exhausted() {
		clear(p.drawn)
	}
	return t, true
}

// Enabled lists the cards that are not disabled.
func (p *Pool) Enabled() []Type {
	var out []Type
	for _, t := range Types {
		if !p.disabled[t] {
			out = append(out, t)
		}
	}
	return out
}

func (p *Pool) candidates(b *board.Board, c board.Color, includeDrawn bool) []Type {
	var out []Type
	for _, t := range Types {
		if p.disabled[t] || (!includeDrawn && p.drawn[t]) {
			continue
		}
		if Available(t, b, c) {
			out = append(out, t)
		}
	}
	return out
}

func (p *Pool) exhausted() bool {
	for _, t := range Types {
		if !p.disabled[t] && !p.drawn[t] {
			return false
		}
	}
	return true
}
