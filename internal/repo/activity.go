package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/dockgate/internal/domain"
)

// ActivityRepo stores the operator activity trail.
type ActivityRepo interface {
	// Append records one entry and returns it with its id and timestamp.
	Append(ctx context.Context, a domain.ActivityLog) (domain.ActivityLog, error)

	// List returns the newest entries first. A nil visitID returns entries for
	// every visit.
	List(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error)
}

type pgActivityRepo struct {
	db db
}

// NewActivityRepo constructs an ActivityRepo backed by the provided db connection.
func NewActivityRepo(db db) ActivityRepo {
	return &pgActivityRepo{db: db}
}

// Append inserts a log entry.
func (r *pgActivityRepo) Append(ctx context.Context, a domain.ActivityLog) (domain.ActivityLog, error) {
	out, err := insertActivity(ctx, r.db, a)
	if err != nil {
		return domain.ActivityLog{}, wrapErr("repo.ActivityRepo.Append", err)
	}
	return out, nil
}

// List returns one page of log entries.
func (r *pgActivityRepo) List(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error) {
	const q = `
		SELECT id, visit_id, actor, action, details, created_at
		FROM activity_logs
		WHERE @visit_id::uuid IS NULL OR visit_id = @visit_id::uuid
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{
		"visit_id": visitID, // nil becomes NULL
		"limit":    p.Limit,
		"offset":   p.Offset(),
	}
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, wrapErr("repo.ActivityRepo.List", err)
	}
	defer rows.Close()

	logs := []domain.ActivityLog{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, wrapErr("repo.ActivityRepo.List: scan", err)
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.ActivityRepo.List: rows", err)
	}
	return logs, nil
}

func insertActivity(ctx context.Context, d db, a domain.ActivityLog) (domain.ActivityLog, error) {
	const q = `
		INSERT INTO activity_logs (visit_id, actor, action, details)
		VALUES (@visit_id, @actor, @action, @details)
		RETURNING id, visit_id, actor, action, details, created_at`

	args := pgx.NamedArgs{
		"visit_id": a.VisitID,
		"actor":    a.Actor,
		"action":   a.Action,
		"details":  a.Details,
	}
	return scanActivity(d.QueryRow(ctx, q, args))
}

func scanActivity(s scanner) (domain.ActivityLog, error) {
	var (
		a           domain.ActivityLog
		id, visitID pgtype.UUID
	)
	if err := s.Scan(&id, &visitID, &a.Actor, &a.Action, &a.Details, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActivityLog{}, domain.ErrNotFound
		}
		return domain.ActivityLog{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	if visitID.Valid {
		vid := uuid.UUID(visitID.Bytes)
		a.VisitID = &vid
	}
	return a, nil
}
