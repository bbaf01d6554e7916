// Package api serves the running arena match and the match journal over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/broadside/internal/engine"
	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/persistence"
	"github.com/talgya/broadside/internal/world"
)

// Status is the live view of the match being played.
type Status struct {
	Turn        int               `json:"turn"`
	Running     bool              `json:"running"`
	Units       []entity.Unit     `json:"units"`
	Pickups     int               `json:"pickups"`
	Hazards     int               `json:"hazards"`
	Projectiles int               `json:"projectiles"`
	Strength    map[int]int       `json:"strength"`
	Stats       engine.MatchStats `json:"stats"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Server serves match state over HTTP.
type Server struct {
	DB       *persistence.DB // nil disables the journal endpoints
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	Stop     func() // Called by POST /api/v1/stop

	mu     sync.RWMutex
	status Status
}

// Publish records the state of w after a turn. Safe to call while serving.
func (s *Server) Publish(w *world.World, stats engine.MatchStats, running bool) {
	st := Status{
		Turn:        w.Turn,
		Running:     running,
		Units:       append([]entity.Unit(nil), w.Units...),
		Pickups:     len(w.Pickups),
		Hazards:     len(w.Hazards),
		Projectiles: len(w.Projectiles),
		Strength:    make(map[int]int),
		Stats:       stats,
		UpdatedAt:   time.Now(),
	}
	for _, owner := range w.Owners() {
		st.Strength[owner] = w.Strength(owner)
	}

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	journalLimiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)

	// Journal endpoints hit SQLite; keep clients polite.
	mux.HandleFunc("GET /api/v1/matches", RateLimitMiddleware(journalLimiter, s.withJournal(s.handleMatches)))
	mux.HandleFunc("GET /api/v1/match/{id}/turn/{turn}", RateLimitMiddleware(journalLimiter, s.withJournal(s.handleTurn)))
	mux.HandleFunc("GET /api/v1/match/{id}/decisions/{turn}", RateLimitMiddleware(journalLimiter, s.withJournal(s.handleDecisions)))
	mux.HandleFunc("GET /api/v1/match/{id}/events", RateLimitMiddleware(journalLimiter, s.withJournal(s.handleEvents)))

	mux.HandleFunc("POST /api/v1/stop", s.adminOnly(s.handleStop))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "journal", s.DB != nil, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no BROADSIDE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) withJournal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			http.Error(w, "journal disabled", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	writeJSON(w, st)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.DB.RecentMatches(queryLimit(r, 20, 200))
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, matches)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id, turn, ok := matchTurn(w, r)
	if !ok {
		return
	}
	t, err := s.DB.LoadTurn(id, turn)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	id, turn, ok := matchTurn(w, r)
	if !ok {
		return
	}
	decisions, err := s.DB.Decisions(id, turn)
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, decisions)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	events, err := s.DB.RecentEvents(id, queryLimit(r, 50, 500))
	if err != nil {
		journalError(w, err)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.Stop == nil {
		http.Error(w, "no match running", http.StatusConflict)
		return
	}
	s.Stop()
	slog.Info("match stop requested over HTTP")
	writeJSON(w, map[string]bool{"stopping": true})
}

func matchTurn(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return id, 0, false
	}
	turn, err := strconv.Atoi(r.PathValue("turn"))
	if err != nil || turn < 0 {
		http.Error(w, "invalid turn", http.StatusBadRequest)
		return id, 0, false
	}
	return id, turn, true
}

func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func journalError(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	slog.Error("journal query failed", "error", err)
	http.Error(w, "journal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
