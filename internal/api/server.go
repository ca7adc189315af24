// Package api serves world state over HTTP.
// GET endpoints are public (read-only observation).
// POST and PUT endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/world"
)

// WorldStore is the read side of world persistence.
type WorldStore interface {
	LoadWorlds(ctx context.Context) ([]*world.World, error)
	GetWorld(ctx context.Context, id world.WorldID) (*world.World, error)
	RecentEvents(ctx context.Context, id world.WorldID, limit int) ([]engine.Event, error)
}

// Controller is the scheduler's admin surface.
type Controller interface {
	Status(ctx context.Context) (scheduler.Status, error)
	RunBatch(ctx context.Context) (scheduler.BatchStats, error)
	Configure(ctx context.Context, opts scheduler.Options) (*scheduler.Config, error)
	SetEnabled(ctx context.Context, enabled bool) error
	SetSpeed(ctx context.Context, id world.WorldID, speed world.NarrativeSpeed) (*world.World, error)
	AdvanceWorld(ctx context.Context, id world.WorldID, hours uint64) (scheduler.BatchStats, error)
}

// Simulations resolves the live simulation of a world.
type Simulations interface {
	Get(id world.WorldID) (*engine.Simulation, error)
}

// maxManualHours caps a single admin tick at one simulated year.
const maxManualHours = world.HoursPerDay * world.DaysPerCycle

// Server serves the world state over HTTP.
type Server struct {
	Worlds      WorldStore
	Sims        Simulations
	Scheduler   Controller
	Port        int
	AdminKey    string // Bearer token for admin endpoints. Empty = admin disabled.
	CORSOrigins []string

	// Limiter throttles the endpoints that run simulation work.
	Limiter *RateLimiter

	srv *http.Server
}

// Router builds the chi router with all routes.
func (s *Server) Router() http.Handler {
	limiter := s.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(30, time.Minute)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Get("/status", s.handleStatus)
		r.Get("/worlds", s.handleWorlds)
		r.Route("/worlds/{id}", func(r chi.Router) {
			r.Get("/", s.handleWorld)
			r.Get("/agents", s.handleAgents)
			r.Get("/locations", s.handleLocations)
			r.Get("/events", s.handleEvents)

			r.With(s.adminOnly).Post("/speed", s.handleSpeed)
			r.With(s.adminOnly, limiter.Middleware).Post("/tick", s.handleTick)
		})

		// Admin endpoints.
		r.Route("/scheduler", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.With(limiter.Middleware).Post("/run", s.handleRun)
			r.Put("/config", s.handleConfig)
			r.Post("/enabled", s.handleEnabled)
		})
	})
	return r
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// allowedOrigins returns the configured origins plus local dev servers.
func (s *Server) allowedOrigins() []string {
	origins := []string{"http://localhost:5173", "http://localhost:4173", "http://localhost:3000"}
	for _, o := range s.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no WORLDSIM_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func worldID(r *http.Request) (world.WorldID, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid world id %q", chi.URLParam(r, "id"))
	}
	return world.WorldID(id), nil
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, world.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("api request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
