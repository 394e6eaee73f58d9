// Package api provides the HTTP API for observing a running game. Reads are
// public; build and demolish require the admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/idle-galaxy/internal/engine"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Server serves views of the simulation's current snapshot over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Port     int
	Gatherer prometheus.Gatherer // nil disables /metrics
	Limiter  *RateLimiter        // nil disables rate limiting
	AdminKey string              // empty disables build and demolish
	Logger   *slog.Logger
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/systems", s.handleSystems)
	mux.HandleFunc("GET /api/v1/systems/{id}", s.handleSystemDetail)
	mux.HandleFunc("GET /api/v1/economy/{id}", s.handleEconomy)
	mux.HandleFunc("GET /api/v1/notifications", s.handleNotifications)
	mux.HandleFunc("GET /api/v1/bodies/{id}/quote", s.handleQuote)
	mux.HandleFunc("POST /api/v1/build", s.adminOnly(s.handleBuild))
	mux.HandleFunc("POST /api/v1/demolish/{id}", s.adminOnly(s.handleDemolish))
	if s.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	if s.Limiter != nil {
		h = RateLimitMiddleware(s.Limiter, h)
	}
	return corsMiddleware(h)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.log().Info("HTTP API starting", "addr", srv.Addr, "metrics", s.Gatherer != nil, "admin", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// corsMiddleware allows browser dashboards listed in IDLEGALAXY_CORS_ORIGINS
// (comma-separated) plus local dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("IDLEGALAXY_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Store.Get()
	sched := s.Sim.Scheduler
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "idle-galaxy",
		"version":     st.Version,
		"running":     sched.Running(),
		"ticks":       sched.TickCount(),
		"last_played": st.LastPlayed,
		"home_system": st.HomeSystemID,
		"totals":      store.Totals(st),
		"statistics":  st.Statistics,
		"prestige":    st.Prestige,
		"settings":    st.Settings,
	})
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Store.Get()
	sums := store.Summaries(st)
	if r.URL.Query().Get("colonized") == "true" {
		kept := sums[:0]
		for _, sum := range sums {
			if sum.Colonized {
				kept = append(kept, sum)
			}
		}
		sums = kept
	}
	writeJSON(w, http.StatusOK, sums)
}

func (s *Server) handleSystemDetail(w http.ResponseWriter, r *http.Request) {
	id := world.SystemID(r.PathValue("id"))
	st := s.Sim.Store.Get()
	sum, ok := store.Summarize(st, id)
	if !ok {
		writeError(w, http.StatusNotFound, "system not found")
		return
	}

	type facilityEntry struct {
		ID          world.FacilityID `json:"id"`
		Kind        string           `json:"kind"`
		Body        world.BodyID     `json:"body"`
		Operational bool             `json:"operational"`
		Condition   float64          `json:"condition"`
	}
	facilities := make([]facilityEntry, 0, sum.Facilities)
	for _, f := range store.FacilitiesByTier(st, s.Sim.Catalog, id) {
		facilities = append(facilities, facilityEntry{
			ID:          f.ID,
			Kind:        string(f.Kind),
			Body:        f.BodyID,
			Operational: f.Operational,
			Condition:   f.Condition,
		})
	}

	type shipEntry struct {
		ID   world.ShipID   `json:"id"`
		Name string         `json:"name"`
		Kind world.ShipKind `json:"kind"`
	}
	ships := []shipEntry{}
	for _, sh := range st.ShipsIn(id) {
		ships = append(ships, shipEntry{ID: sh.ID, Name: sh.Name, Kind: sh.Kind})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":    sum,
		"bodies":     st.SystemBodies(id),
		"facilities": facilities,
		"ships":      ships,
	})
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.Sim.Economy(world.SystemID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, "system not found")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleNotifications returns the log newest first. ?unread=true filters read
// entries and ?limit=N truncates.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Store.Get()
	var out []world.Notification
	if r.URL.Query().Get("unread") == "true" {
		out = st.UnreadNotifications()
	} else {
		out = make([]world.Notification, 0, len(st.Notifications))
		for i := len(st.Notifications) - 1; i >= 0; i-- {
			out = append(out, st.Notifications[i])
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		out = out[:min(n, len(out))]
	}
	if out == nil {
		out = []world.Notification{}
	}
	writeJSON(w, http.StatusOK, out)
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
