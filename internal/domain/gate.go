package domain

import (
	"fmt"
	"strings"
	"time"
)

// GateStatus is the configured availability of a dock. OCCUPIED is accepted
// for records written by older dashboards but occupancy itself is always
// derived from active visits.
type GateStatus string

const (
	GateOpen        GateStatus = "OPEN"
	GateMaintenance GateStatus = "MAINTENANCE"
	GateClosed      GateStatus = "CLOSED"
	GateAvailable   GateStatus = "AVAILABLE"
	GateOccupied    GateStatus = "OCCUPIED"
)

// Valid reports whether s is a known gate status.
func (s GateStatus) Valid() bool {
	switch s {
	case GateOpen, GateMaintenance, GateClosed, GateAvailable, GateOccupied:
		return true
	}
	return false
}

// Serviceable reports whether trucks may be called to a gate in status s.
func (s GateStatus) Serviceable() bool {
	return s != GateMaintenance && s != GateClosed
}

// GateType distinguishes loading docks from general gates.
type GateType string

const (
	GateGeneral GateType = "GENERAL"
	GateDock    GateType = "DOCK"
)

// Valid reports whether t is a known gate type.
func (t GateType) Valid() bool {
	return t == GateGeneral || t == GateDock
}

// GateConfig is a named dock resource with capacity one.
type GateConfig struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      GateType   `json:"type"`
	Status    GateStatus `json:"status"`
	Capacity  int        `json:"capacity"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Normalize fills defaults and validates g.
// Returns ErrValidation when a field is missing or out of range.
func (g GateConfig) Normalize() (GateConfig, error) {
	g.ID = strings.TrimSpace(g.ID)
	g.Name = strings.TrimSpace(g.Name)
	if g.ID == "" {
		return GateConfig{}, fmt.Errorf("%w: gate id is required", ErrValidation)
	}
	if g.Name == "" {
		g.Name = g.ID
	}
	if g.Type == "" {
		g.Type = GateDock
	}
	if !g.Type.Valid() {
		return GateConfig{}, fmt.Errorf("%w: unknown gate type %q", ErrValidation, g.Type)
	}
	if g.Status == "" {
		g.Status = GateOpen
	}
	if !g.Status.Valid() {
		return GateConfig{}, fmt.Errorf("%w: unknown gate status %q", ErrValidation, g.Status)
	}
	if g.Capacity == 0 {
		g.Capacity = 1
	}
	if g.Capacity != 1 {
		return GateConfig{}, fmt.Errorf("%w: a dock holds exactly one truck", ErrValidation)
	}
	return g, nil
}

// GateOccupancy pairs a gate with the visit currently holding it, if any.
type GateOccupancy struct {
	Gate     GateConfig `json:"gate"`
	Occupant *Visit     `json:"occupant,omitempty"`
}
