// Package web exposes the service's trigger surface: health check, manual
// sync run and fixture search.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bc_tele/datafetcher/internal/cache"
	"bc_tele/datafetcher/internal/config"
	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/repository"
	"bc_tele/datafetcher/internal/scheduler"

	"github.com/rs/zerolog/log"
)

// Server wires the HTTP handlers to the scheduler and store
type Server struct {
	cfg       *config.Config
	scheduler *scheduler.Scheduler
	fixtures  *repository.FixtureRepository // nil when persistence is disabled
	cache     *cache.RedisCache             // nil when Redis is unavailable
}

// NewServer creates the trigger surface server
func NewServer(cfg *config.Config, sched *scheduler.Scheduler, fixtures *repository.FixtureRepository, redisCache *cache.RedisCache) *Server {
	return &Server{
		cfg:       cfg,
		scheduler: sched,
		fixtures:  fixtures,
		cache:     redisCache,
	}
}

// Routes returns the HTTP mux for the trigger surface
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/search", s.handleSearch)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun triggers a synchronous sync over the current date window and
// reports the same result shape as the scheduled triggers
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := s.scheduler.RunOnce(r.Context(), "manual")
	writeJSON(w, http.StatusOK, result)
}

// handleSearch looks fixtures up by teams_vs label: trigram similarity
// first, substring fallback when nothing clears the threshold
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	if s.fixtures == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	cacheKey := fmt.Sprintf("search:%s", keyword)

	var cached []repository.SearchResult
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("Search cache read failed")
	} else if hit {
		metrics.RecordCacheHit()
		writeJSON(w, http.StatusOK, cached)
		return
	} else {
		metrics.RecordCacheMiss()
	}

	results, err := s.fixtures.SearchSimilar(ctx, keyword, s.cfg.SearchSimilarityThreshold, s.cfg.SearchLimit)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("Similarity search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	if len(results) == 0 {
		results, err = s.fixtures.SearchSubstring(ctx, keyword, s.cfg.SearchLimit)
		if err != nil {
			log.Error().Err(err).Str("keyword", keyword).Msg("Substring search failed")
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
	}

	ttl := time.Duration(s.cfg.CacheTTLSearch) * time.Second
	if err := s.cache.SetJSON(ctx, cacheKey, results, ttl); err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("Search cache write failed")
	}

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
