package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

const maxCommandBody = 1 << 16

// checkBearerToken reports whether the request carries the admin key.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly requires the admin bearer token. With no key configured the
// wrapped endpoint is disabled.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no IDLEGALAXY_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// handleQuote prices ?kind= on a body and reports whether it can be placed.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	kind := catalog.FacilityKind(r.URL.Query().Get("kind"))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}
	body := world.BodyID(r.PathValue("id"))
	quote, ok := s.Sim.Construction.Cost(kind, body)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown facility kind or body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":      kind,
		"body":      body,
		"quote":     quote,
		"placement": s.Sim.Construction.CanBuild(kind, body),
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind catalog.FacilityKind `json:"kind"`
		Body world.BodyID         `json:"body"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Kind == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "kind and body are required")
		return
	}

	res := s.Sim.Construction.Build(req.Kind, req.Body)
	if !res.OK {
		s.log().Debug("build rejected", "kind", req.Kind, "body", req.Body, "reason", res.Reason)
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleDemolish(w http.ResponseWriter, r *http.Request) {
	id := world.FacilityID(r.PathValue("id"))
	check := s.Sim.Construction.Demolish(id)
	if !check.OK {
		status := http.StatusConflict
		if _, ok := s.Sim.Store.Get().Facility(id); !ok {
			status = http.StatusNotFound
		}
		writeJSON(w, status, check)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

