// Package gate answers which docks are free and enforces one truck per dock
// at the moment a truck is called.
//
// Occupancy is never stored: a dock is held by whichever visit referencing it
// is CALLED or LOADING. Finishing a visit frees its dock without a release call.
// The partial unique index on visits(gate) is the final arbiter under races;
// Reserve is the friendly pre-check that names the occupant.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pkordes/dockgate/internal/domain"
)

// Store is the gate configuration the manager reads.
// repo.GateRepo satisfies it.
type Store interface {
	List(ctx context.Context) ([]domain.GateConfig, error)
	GetByID(ctx context.Context, id string) (domain.GateConfig, error)
}

// OccupancyReader derives occupancy from active visits.
// repo.VisitRepo satisfies it.
type OccupancyReader interface {
	ActiveAtGate(ctx context.Context, gate string) (*domain.Visit, error)
	ListActive(ctx context.Context) ([]domain.Visit, error)
}

const gatesKey = "gates"

// Manager reads dock configuration through a short-lived cache and derives
// occupancy on every call.
type Manager struct {
	store  Store
	visits OccupancyReader
	cache  *cache.Cache
	logger *slog.Logger
}

// NewManager constructs a Manager. ttl bounds how stale the cached gate list
// may be; ttl <= 0 disables caching. Occupancy is never cached.
func NewManager(store Store, visits OccupancyReader, ttl time.Duration, logger *slog.Logger) *Manager {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, visits: visits, cache: c, logger: logger}
}

// ListGates returns every configured dock.
func (m *Manager) ListGates(ctx context.Context) ([]domain.GateConfig, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(gatesKey); ok {
			return append([]domain.GateConfig(nil), v.([]domain.GateConfig)...), nil
		}
	}
	gates, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("gate.Manager.ListGates: %w", err)
	}
	if m.cache != nil {
		m.cache.SetDefault(gatesKey, gates)
	}
	return append([]domain.GateConfig(nil), gates...), nil
}

// Gate returns one dock. Returns domain.ErrNotFound when it is not configured.
func (m *Manager) Gate(ctx context.Context, id string) (domain.GateConfig, error) {
	gates, err := m.ListGates(ctx)
	if err != nil {
		return domain.GateConfig{}, err
	}
	for _, g := range gates {
		if g.ID == id {
			return g, nil
		}
	}
	// The cache may predate a gate added by another instance.
	g, err := m.store.GetByID(ctx, id)
	if err != nil {
		return domain.GateConfig{}, fmt.Errorf("gate.Manager.Gate: %w", err)
	}
	m.Invalidate()
	return g, nil
}

// OccupantOf returns the CALLED or LOADING visit holding gateID, or nil.
// COMPLETED visits keep their gate reference but do not occupy it.
func (m *Manager) OccupantOf(ctx context.Context, gateID string) (*domain.Visit, error) {
	v, err := m.visits.ActiveAtGate(ctx, gateID)
	if err != nil {
		return nil, fmt.Errorf("gate.Manager.OccupantOf: %w", err)
	}
	return v, nil
}

// Reserve checks that visitID may be called to gateID: the dock must be
// configured, serviceable and not held by a different visit. A dock already
// held by visitID itself is accepted so recalls pass.
func (m *Manager) Reserve(ctx context.Context, gateID string, visitID uuid.UUID) (domain.GateConfig, error) {
	g, err := m.Gate(ctx, gateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GateConfig{}, fmt.Errorf("gate.Manager.Reserve: %w: gate %q is not configured", domain.ErrNotFound, gateID)
		}
		return domain.GateConfig{}, err
	}
	if !g.Status.Serviceable() {
		return domain.GateConfig{}, fmt.Errorf("gate.Manager.Reserve: %w: %s is %s", domain.ErrGateUnavailable, g.ID, g.Status)
	}

	occupant, err := m.OccupantOf(ctx, gateID)
	if err != nil {
		return domain.GateConfig{}, err
	}
	if occupant != nil && occupant.ID != visitID {
		m.logger.InfoContext(ctx, "gate reservation refused",
			"gate", gateID,
			"visit_id", visitID,
			"occupant_id", occupant.ID,
		)
		return domain.GateConfig{}, &domain.GateOccupiedError{GateID: gateID, OccupantID: occupant.ID}
	}
	return g, nil
}

// Occupancy pairs every configured dock with its current occupant.
func (m *Manager) Occupancy(ctx context.Context) ([]domain.GateOccupancy, error) {
	gates, err := m.ListGates(ctx)
	if err != nil {
		return nil, err
	}
	active, err := m.visits.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("gate.Manager.Occupancy: %w", err)
	}

	byGate := make(map[string]domain.Visit, len(active))
	for _, v := range active {
		byGate[v.Gate] = v
	}

	out := make([]domain.GateOccupancy, 0, len(gates))
	for _, g := range gates {
		o := domain.GateOccupancy{Gate: g}
		if v, ok := byGate[g.ID]; ok {
			o.Occupant = &v
		}
		out = append(out, o)
	}
	return out, nil
}

// Available returns serviceable docks with no occupant.
func (m *Manager) Available(ctx context.Context) ([]domain.GateConfig, error) {
	occ, err := m.Occupancy(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.GateConfig{}
	for _, o := range occ {
		if o.Occupant == nil && o.Gate.Status.Serviceable() {
			out = append(out, o.Gate)
		}
	}
	return out, nil
}

// Invalidate drops the cached gate list after configuration changes.
func (m *Manager) Invalidate() {
	if m.cache != nil {
		m.cache.Delete(gatesKey)
	}
}
