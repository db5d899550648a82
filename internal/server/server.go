// Package server provides the HTTP surface for the market engine. Transport
// only: every handler validates and types its payload at the boundary and
// hands already-typed values to the engine.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chaos_market/internal/domain"
	"chaos_market/internal/engine"
)

// Server routes API requests to the engine.
type Server struct {
	engine    *engine.Engine
	wsHandler http.HandlerFunc
	origins   []string
}

// New creates a server. wsHandler serves broadcast subscriptions; nil
// disables the /ws route.
func New(eng *engine.Engine, wsHandler http.HandlerFunc, allowedOrigins []string) *Server {
	return &Server{engine: eng, wsHandler: wsHandler, origins: allowedOrigins}
}

// Router builds the chi router with CORS for the overlay/mobile surfaces.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stocks", s.handleGetStocks)
		r.Post("/stocks", s.handleIssueStock)
		r.Post("/trade", s.handleTrade)
		r.Get("/portfolio/{identity}", s.handleGetPortfolio)
		r.Post("/portfolio/{identity}/reset", s.handleResetPortfolio)
		r.Post("/player/cash", s.handleSyncPlayerCash)
		r.Get("/parameters", s.handleGetParameters)
		r.Get("/leaderboard", s.handleGetLeaderboard)
		r.Get("/users", s.handleGetUsers)
		r.Post("/game/start", s.handleStartSession)
		r.Get("/game/status", s.handleGameStatus)
		r.Get("/metrics", s.handleMetrics)
	})

	if s.wsHandler != nil {
		r.Get("/ws", s.wsHandler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]bool{"ok": true})
	})

	return r
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// respondError renders a rejection as a one-line machine-readable failure.
func respondError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindValidation, domain.KindMissingContext:
		status = http.StatusBadRequest
	case domain.KindInsufficient:
		status = http.StatusConflict
	case domain.KindPersistence:
		status = http.StatusInternalServerError
	}
	respond(w, status, map[string]any{
		"success": false,
		"kind":    kind,
		"error":   err.Error(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, domain.Validationf("malformed request body: %v", err))
		return false
	}
	return true
}
