// Package server exposes matches over WebSocket and a small HTTP surface.
package server

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/park285/cardchess/internal/lobby"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/msgcat"
	"github.com/park285/cardchess/internal/notify"
)

// ResultStore persists finished matches.
type ResultStore interface {
	SaveResult(ctx context.Context, rec match.Record) error
}

// ResultNotifier forwards finished matches to an external system.
type ResultNotifier interface {
	PostResult(ctx context.Context, r notify.Result) error
}

type Config struct {
	// AllowedOrigins are host patterns (path.Match syntax) accepted for
	// cross-origin WebSocket and HTTP requests.
	AllowedOrigins []string
	PingInterval   time.Duration
	ReportTimeout  time.Duration
	MatchOptions   func() match.Options
}

type Deps struct {
	Pairer   lobby.Pairer
	Catalog  *msgcat.Catalog
	Store    ResultStore
	Notifier ResultNotifier
}

type Server struct {
	cfg      Config
	pairer   lobby.Pairer
	catalog  *msgcat.Catalog
	store    ResultStore
	notifier ResultNotifier
	rooms    *match.Manager

	mu       sync.RWMutex
	sessions map[string]*session
}

func New(cfg Config, deps Deps) (*Server, error) {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 15 * time.Second
	}
	if deps.Pairer == nil {
		deps.Pairer = lobby.NewMemoryPairer()
	}
	if deps.Catalog == nil {
		c, err := msgcat.New("")
		if err != nil {
			return nil, err
		}
		deps.Catalog = c
	}
	s := &Server{
		cfg:      cfg,
		pairer:   deps.Pairer,
		catalog:  deps.Catalog,
		store:    deps.Store,
		notifier: deps.Notifier,
		sessions: make(map[string]*session),
	}
	s.rooms = match.NewManager(cfg.MatchOptions, s.report)
	return s, nil
}

// Rooms is the live room registry.
func (s *Server) Rooms() *match.Manager { return s.rooms }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /cards", s.handleCards)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /rooms/{id}", s.handleRoom)
	mux.HandleFunc("GET /rooms/{id}/board.png", s.handleBoard)
	return cors(s.cfg.AllowedOrigins, mux)
}

// Close stops every room and releases the pairer.
func (s *Server) Close() error {
	s.rooms.Close()
	return s.pairer.Close()
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

func (s *Server) session(id string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Server) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func originAllowed(patterns []string, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), strings.ToLower(u.Host)); ok {
			return true
		}
	}
	return false
}

func cors(allow []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allow, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
