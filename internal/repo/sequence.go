package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/dockgate/internal/idgen"
)

// SequenceRepo stores the named counters behind booking codes and queue
// numbers, and reads the legacy floors they continue from.
// It satisfies both idgen.Sequencer and idgen.Floors.
type SequenceRepo interface {
	idgen.Sequencer
	idgen.Floors
}

type pgSequenceRepo struct {
	db db
}

// NewSequenceRepo constructs a SequenceRepo backed by the provided db connection.
func NewSequenceRepo(db db) SequenceRepo {
	return &pgSequenceRepo{db: db}
}

// Next advances scope in a single upsert. Row-level locking on the conflict
// target serialises concurrent callers, so no two receive the same value.
func (r *pgSequenceRepo) Next(ctx context.Context, scope string, floor int64) (int64, error) {
	const q = `
		INSERT INTO id_sequences (scope, value)
		VALUES (@scope, @floor::bigint + 1)
		ON CONFLICT (scope) DO UPDATE
		SET value      = GREATEST(id_sequences.value, @floor::bigint) + 1,
		    updated_at = now()
		RETURNING value`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"scope": scope, "floor": floor}).Scan(&n); err != nil {
		return 0, wrapErr("repo.SequenceRepo.Next", err)
	}
	return n, nil
}

// MaxBookingSeq returns the numeric suffix of the greatest booking code with prefix.
func (r *pgSequenceRepo) MaxBookingSeq(ctx context.Context, prefix string) (int64, error) {
	const q = `
		SELECT booking_code
		FROM visits
		WHERE booking_code LIKE @pattern
		ORDER BY booking_code DESC
		LIMIT 1`

	var code string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"pattern": escapeLike(prefix) + "%"}).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr("repo.SequenceRepo.MaxBookingSeq", err)
	}
	n, _ := idgen.ParseSeq(code)
	return n, nil
}

// CountQueued counts the visits that received a queue number on day.
func (r *pgSequenceRepo) CountQueued(ctx context.Context, day time.Time) (int64, error) {
	const q = `SELECT count(*) FROM visits WHERE queue_day = @day AND queue_number IS NOT NULL`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"day": dateArg(&day)}).Scan(&n); err != nil {
		return 0, wrapErr("repo.SequenceRepo.CountQueued", err)
	}
	return n, nil
}
