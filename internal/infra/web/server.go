package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain/ports/repository"
)

// Server is the ops surface: health, metrics, and a small authenticated
// stats API over the privacy subsystem. It never exposes message content;
// everything it reads is counts.
type Server struct {
	cache repository.ContextCache
	prefs repository.PrivacyRepository
	auth  *AuthManager
	log   *zerolog.Logger
}

func NewServer(cache repository.ContextCache, prefs repository.PrivacyRepository, auth *AuthManager, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "OpsServer").Logger()
	return &Server{cache: cache, prefs: prefs, auth: auth, log: &l}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.auth.Middleware)
		api.Post("/session", s.handleSession)
		api.Get("/stats", s.handleStats)
		api.Post("/sweep", s.handleSweep)
	})
	return r
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token, err := s.auth.Mint()
	if err != nil {
		http.Error(w, "session minting unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	prefCount, err := s.prefs.Count(r.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("preference count failed")
		prefCount = -1
	}
	writeJSON(w, map[string]int{
		"cached_contexts": s.cache.Len(),
		"preferences":     prefCount,
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.cache.Sweep(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"swept": n})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
