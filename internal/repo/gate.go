package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/dockgate/internal/domain"
)

// GateRepo defines the persistence operations for dock configuration.
// Occupancy is never stored here; it is derived from active visits.
type GateRepo interface {
	// List returns every configured gate ordered by id.
	List(ctx context.Context) ([]domain.GateConfig, error)

	// GetByID returns domain.ErrNotFound when the gate is not configured.
	GetByID(ctx context.Context, id string) (domain.GateConfig, error)

	// Upsert creates the gate or overwrites its name, type, status and capacity.
	Upsert(ctx context.Context, g domain.GateConfig) (domain.GateConfig, error)

	// Delete removes a gate. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

type pgGateRepo struct {
	db db
}

// NewGateRepo constructs a GateRepo backed by the provided db connection.
func NewGateRepo(db db) GateRepo {
	return &pgGateRepo{db: db}
}

const gateColumns = `id, name, type, status, capacity, created_at, updated_at`

// List returns all gates.
func (r *pgGateRepo) List(ctx context.Context) ([]domain.GateConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT `+gateColumns+` FROM gates ORDER BY id`)
	if err != nil {
		return nil, wrapErr("repo.GateRepo.List", err)
	}
	defer rows.Close()

	gates := []domain.GateConfig{}
	for rows.Next() {
		g, err := scanGate(rows)
		if err != nil {
			return nil, wrapErr("repo.GateRepo.List: scan", err)
		}
		gates = append(gates, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.GateRepo.List: rows", err)
	}
	return gates, nil
}

// GetByID retrieves one gate.
func (r *pgGateRepo) GetByID(ctx context.Context, id string) (domain.GateConfig, error) {
	row := r.db.QueryRow(ctx, `SELECT `+gateColumns+` FROM gates WHERE id = @id`, pgx.NamedArgs{"id": id})
	g, err := scanGate(row)
	if err != nil {
		return domain.GateConfig{}, wrapErr("repo.GateRepo.GetByID", err)
	}
	return g, nil
}

// Upsert inserts or updates a gate keyed by id.
func (r *pgGateRepo) Upsert(ctx context.Context, g domain.GateConfig) (domain.GateConfig, error) {
	q := `
		INSERT INTO gates (id, name, type, status, capacity)
		VALUES (@id, @name, @type, @status, @capacity)
		ON CONFLICT (id) DO UPDATE
		SET name       = EXCLUDED.name,
		    type       = EXCLUDED.type,
		    status     = EXCLUDED.status,
		    capacity   = EXCLUDED.capacity,
		    updated_at = now()
		RETURNING ` + gateColumns

	args := pgx.NamedArgs{
		"id":       g.ID,
		"name":     g.Name,
		"type":     string(g.Type),
		"status":   string(g.Status),
		"capacity": g.Capacity,
	}
	result, err := scanGate(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.GateConfig{}, wrapErr("repo.GateRepo.Upsert", err)
	}
	return result, nil
}

// Delete removes a gate by id.
func (r *pgGateRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gates WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return wrapErr("repo.GateRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.GateRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanGate(s scanner) (domain.GateConfig, error) {
	var (
		g           domain.GateConfig
		typ, status string
	)
	err := s.Scan(&g.ID, &g.Name, &typ, &status, &g.Capacity, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GateConfig{}, domain.ErrNotFound
		}
		return domain.GateConfig{}, err
	}
	g.Type = domain.GateType(typ)
	g.Status = domain.GateStatus(status)
	return g, nil
}
