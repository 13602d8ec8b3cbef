package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/park285/cardchess/internal/render"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cards": s.catalog.Cards(s.rooms.EnabledCards())})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	active, err := s.pairer.Active(r.Context())
	if err != nil {
		obslog.L().Warn("lobby_active_failed", zap.Error(err))
		active = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":    s.rooms.IDs(),
		"active":   active,
		"sessions": s.sessionCount(),
	})
}

type boardView struct {
	board  *board.Board
	turn   int
	player string
	card   string
	over   bool
}

type roomJSON struct {
	ID            string                    `json:"id"`
	Turn          int                       `json:"turn"`
	CurrentPlayer string                    `json:"currentPlayer"`
	ActiveCard    string                    `json:"activeCard,omitempty"`
	GameOver      bool                      `json:"gameOver"`
	Graveyard     map[string]map[string]int `json:"graveyard"`
}

func graveyard(b *board.Board) map[string]map[string]int {
	out := make(map[string]map[string]int, 2)
	for _, c := range []board.Color{board.White, board.Black} {
		tally := make(map[string]int, len(board.Kinds))
		for k, n := range b.Graveyard(c) {
			tally[k.String()] = n
		}
		out[c.String()] = tally
	}
	return out
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, boardView, bool) {
	id := r.PathValue("id")
	room, err := s.rooms.Get(id)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return id, boardView{}, false
	}
	v, err := s.view(r.Context(), room)
	if err != nil {
		if errors.Is(err, match.ErrRoomClosed) {
			http.Error(w, "room closed", http.StatusGone)
			return id, v, false
		}
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return id, v, false
	}
	return id, v, true
}

// handleRoom reports turn, active card and graveyard tallies for a live room.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	id, v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, roomJSON{
		ID:            id,
		Turn:          v.turn,
		CurrentPlayer: v.player,
		ActiveCard:    v.card,
		GameOver:      v.over,
		Graveyard:     graveyard(v.board),
	})
}

// handleBoard renders a live room. ?side=black draws it from black's side.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	id, v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	title, err := s.catalog.BoardTitle(id, v.turn, v.player, v.card)
	if err != nil {
		title = "turn " + strconv.Itoa(v.turn)
	}
	flip := r.URL.Query().Get("side") == board.Black.String()
	png, err := render.RenderPNG(r.Context(), v.board, render.Options{Title: title, Flip: flip})
	if err != nil {
		obslog.Room(id).Error("board_render_failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// view copies what the renderer needs off the room goroutine.
func (s *Server) view(ctx context.Context, room *match.Room) (boardView, error) {
	var v boardView
	err := room.Inspect(ctx, func(m *match.Match) {
		v.board = m.Board().Clone()
		v.turn = m.Turn()
		v.player = m.Current().String()
		v.over = m.Over()
		if t, _, ok := m.ActiveCard(); ok {
			v.card = s.catalog.Card(t).Name
		}
	})
	return v, err
}
