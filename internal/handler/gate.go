package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/dockgate/internal/domain"
)

// ListGates handles GET /gates: every dock with its current occupant.
func (s *Server) ListGates(w http.ResponseWriter, r *http.Request) {
	occ, err := s.gates.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]GateWithOccupant, len(occ))
	for i, o := range occ {
		out[i] = GateWithOccupant{Gate: gateToResponse(o.Gate)}
		if o.Occupant != nil {
			v := visitToResponse(*o.Occupant)
			out[i].Occupant = &v
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// AvailableGates handles GET /gates/available.
func (s *Server) AvailableGates(w http.ResponseWriter, r *http.Request) {
	gates, err := s.gates.Available(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Gate, len(gates))
	for i, g := range gates {
		out[i] = gateToResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOccupant handles GET /gates/{id}/occupant.
// Answers 204 when the dock is free.
func (s *Server) GetOccupant(w http.ResponseWriter, r *http.Request) {
	v, err := s.gates.Occupant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, visitToResponse(*v))
}

// SaveGate handles PUT /gates/{id}.
func (s *Server) SaveGate(w http.ResponseWriter, r *http.Request) {
	var body SaveGateRequest
	if !bind(w, r, &body, true) {
		return
	}
	g := domain.GateConfig{
		ID:       chi.URLParam(r, "id"),
		Name:     body.Name,
		Type:     domain.GateType(strings.ToUpper(body.Type)),
		Status:   domain.GateStatus(strings.ToUpper(body.Status)),
		Capacity: body.Capacity,
	}
	saved, err := s.gates.Save(r.Context(), g, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gateToResponse(saved))
}

// RemoveGate handles DELETE /gates/{id}.
func (s *Server) RemoveGate(w http.ResponseWriter, r *http.Request) {
	if err := s.gates.Remove(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
