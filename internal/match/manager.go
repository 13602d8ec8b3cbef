package match

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/obslog"
	"go.uber.org/zap"
)

// Manager is the registry of live rooms.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	options func() Options
	onOver  func(Record)
}

// NewManager builds a registry. options is called once per room so every
// room gets its own draw pool; onOver receives every finished match.
func NewManager(options func() Options, onOver func(Record)) *Manager {
	if options == nil {
		options = func() Options { return Options{} }
	}
	return &Manager{rooms: make(map[string]*Room), options: options, onOver: onOver}
}

// EnabledCards lists the cards new rooms can draw.
func (m *Manager) EnabledCards() []cards.Type {
	if pool := m.options().Pool; pool != nil {
		return pool.Enabled()
	}
	return cards.Types
}

// Create starts a room for two sessions. An empty id gets a fresh uuid.
func (m *Manager) Create(id, white, black string) *Room {
	if id == "" {
		id = uuid.NewString()
	}
	r := NewRoom(id, white, black, m.options(), m.onOver)

	m.mu.Lock()
	if old, ok := m.rooms[id]; ok {
		old.Close()
	}
	m.rooms[id] = r
	m.mu.Unlock()

	obslog.L().Info("room_created", zap.String("room_id", id), zap.String("white", white), zap.String("black", black))
	return r
}

func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Remove closes and forgets the room.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		r.Close()
		obslog.L().Info("room_removed", zap.String("room_id", id))
	}
}

// IDs lists live room ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		out = append(out, id)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Close stops every room.
func (m *Manager) Close() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Close()
	}
}
