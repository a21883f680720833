package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/repo"
)

// GateDirectory answers occupancy questions. *gate.Manager satisfies it.
type GateDirectory interface {
	ListGates(ctx context.Context) ([]domain.GateConfig, error)
	Occupancy(ctx context.Context) ([]domain.GateOccupancy, error)
	Available(ctx context.Context) ([]domain.GateConfig, error)
	OccupantOf(ctx context.Context, gateID string) (*domain.Visit, error)
	Invalidate()
}

// GateService manages dock configuration.
type GateService struct {
	repo     repo.GateRepo
	dir      GateDirectory
	activity repo.ActivityRepo
	logger   *slog.Logger
}

// NewGateService constructs a GateService. activity and logger may be nil.
func NewGateService(r repo.GateRepo, dir GateDirectory, activity repo.ActivityRepo, logger *slog.Logger) *GateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GateService{repo: r, dir: dir, activity: activity, logger: logger}
}

// List returns every dock paired with its current occupant.
func (s *GateService) List(ctx context.Context) ([]domain.GateOccupancy, error) {
	occ, err := s.dir.Occupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.GateService.List: %w", err)
	}
	return occ, nil
}

// Available returns docks a truck can be called to right now.
func (s *GateService) Available(ctx context.Context) ([]domain.GateConfig, error) {
	gates, err := s.dir.Available(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.GateService.Available: %w", err)
	}
	return gates, nil
}

// Occupant returns the visit holding gateID, or nil when it is free.
// Returns domain.ErrNotFound for an unknown gate.
func (s *GateService) Occupant(ctx context.Context, gateID string) (*domain.Visit, error) {
	if _, err := s.repo.GetByID(ctx, gateID); err != nil {
		return nil, fmt.Errorf("service.GateService.Occupant: %w", err)
	}
	v, err := s.dir.OccupantOf(ctx, gateID)
	if err != nil {
		return nil, fmt.Errorf("service.GateService.Occupant: %w", err)
	}
	return v, nil
}

// Save creates or updates a dock.
func (s *GateService) Save(ctx context.Context, g domain.GateConfig, actor string) (domain.GateConfig, error) {
	g, err := g.Normalize()
	if err != nil {
		return domain.GateConfig{}, err
	}
	saved, err := s.repo.Upsert(ctx, g)
	if err != nil {
		return domain.GateConfig{}, fmt.Errorf("service.GateService.Save: %w", err)
	}
	s.dir.Invalidate()
	s.record(ctx, "gate_save", fmt.Sprintf("%s %s", saved.ID, saved.Status), actor)
	return saved, nil
}

// Remove deletes a dock. A dock holding a truck cannot be removed.
func (s *GateService) Remove(ctx context.Context, gateID, actor string) error {
	occupant, err := s.dir.OccupantOf(ctx, gateID)
	if err != nil {
		return fmt.Errorf("service.GateService.Remove: %w", err)
	}
	if occupant != nil {
		return fmt.Errorf("service.GateService.Remove: %w", &domain.GateOccupiedError{GateID: gateID, OccupantID: occupant.ID})
	}
	if err := s.repo.Delete(ctx, gateID); err != nil {
		return fmt.Errorf("service.GateService.Remove: %w", err)
	}
	s.dir.Invalidate()
	s.record(ctx, "gate_remove", gateID, actor)
	return nil
}

func (s *GateService) record(ctx context.Context, action, details, actor string) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Append(ctx, domain.ActivityLog{Actor: actor, Action: action, Details: details}); err != nil {
		s.logger.WarnContext(ctx, "activity log append failed", "action", action, "error", err)
	}
}
