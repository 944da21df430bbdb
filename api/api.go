// Package api serves the read-only HTTP surface: health, open games, the
// game catalog, live stats and archived player history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/models"
	"github.com/wfunc/gamehub/registry"
	"github.com/wfunc/gamehub/services"
)

// Games is the registry view the API reads.
type Games interface {
	ListAvailable(filter game.Type) []game.Summary
	Catalog() []game.TypeInfo
	Stats() registry.Stats
}

// Records reads the match archive.
type Records interface {
	History(ctx context.Context, name string, limit int) ([]models.GameRecord, error)
	PlayerStats(ctx context.Context, name string) (*models.PlayerStats, error)
}

type Server struct {
	r       *chi.Mux
	games   Games
	records Records
	started time.Time
}

// New builds the router. records and metrics may be nil.
func New(games Games, records Records, metrics http.Handler) *Server {
	s := &Server{r: chi.NewRouter(), games: games, records: records, started: time.Now()}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)

	if metrics != nil {
		s.r.Handle("/metrics", metrics)
	}

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.handleGames)
			r.Get("/types", s.handleTypes)
		})
		r.Route("/players/{name}", func(r chi.Router) {
			r.Get("/history", s.handleHistory)
			r.Get("/stats", s.handlePlayerStats)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})
	return s
}

// Router exposes the router so the gateway can mount /ws next to it.
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"uptime": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.games.Stats())
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	t := game.Type(r.URL.Query().Get("type"))
	if t != "" {
		if _, ok := game.Lookup(t); !ok {
			writeError(w, http.StatusBadRequest, "unsupported game type")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.games.ListAvailable(t))
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.games.Catalog())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	records, err := s.records.History(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable")
		return
	}
	stats, err := s.records.PlayerStats(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrEmptyName) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Log.Errorf("api: archive query failed: %v", err)
	writeError(w, http.StatusInternalServerError, "archive_error")
}
