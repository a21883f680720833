package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/dockgate/internal/domain"
)

// visitColumns is the column list scanVisit expects, in order.
const visitColumns = `
	id, purpose, entry_type, driver_name, phone, license_plate, company,
	visit_date, slot_time, po_number, status,
	check_in_time, verified_time, called_time, loading_start_time, end_time, exit_time,
	gate, queue_number, queue_day, booking_code,
	document_url, photo_before_urls, photo_after_urls,
	notes, admin_notes, security_notes, rejection_reason,
	verified_by, called_by, exit_verified_by,
	created_at, updated_at`

// activeGateIndex is the partial unique index allowing one CALLED or LOADING
// visit per gate.
const activeGateIndex = "visits_active_gate_uq"

// VisitRepo defines the persistence operations for visits.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type VisitRepo interface {
	// Create inserts a new visit and returns the persisted record.
	Create(ctx context.Context, v domain.Visit) (domain.Visit, error)

	// GetByID retrieves a single visit.
	// Returns domain.ErrNotFound if no visit with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Visit, error)

	// List returns one page of visits matching f, newest check-in first, and
	// the total number of matching rows.
	List(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error)

	// Apply executes a lifecycle transition as a single conditional update.
	// The row only changes when its current status is one of t.From; otherwise
	// a *domain.InvalidStateError carrying the actual status is returned.
	// Revisions and the activity entry are written in the same transaction.
	Apply(ctx context.Context, t Transition) (domain.Visit, error)

	// AppendNote appends text to the admin or security notes of a visit,
	// whatever its status.
	AppendNote(ctx context.Context, id uuid.UUID, role domain.NoteRole, text string) (domain.Visit, error)

	// ActiveAtGate returns the CALLED or LOADING visit referencing gate, or nil.
	ActiveAtGate(ctx context.Context, gate string) (*domain.Visit, error)

	// ListActive returns every visit currently holding a gate.
	ListActive(ctx context.Context) ([]domain.Visit, error)

	// ListInFacility returns every visit physically inside, oldest arrival first.
	ListInFacility(ctx context.Context) ([]domain.Visit, error)

	// ListRevisions returns the gate-side revision trail of a visit, oldest first.
	ListRevisions(ctx context.Context, id uuid.UUID) ([]domain.Revision, error)
}

// Transition describes one conditional status change.
type Transition struct {
	VisitID   uuid.UUID
	Event     domain.Event
	From      []domain.Status
	To        domain.Status
	At        time.Time
	Milestone domain.Milestone
	Fields    VisitFields
	Revisions []domain.Revision
	Activity  *domain.ActivityLog
}

// VisitFields lists the columns a transition may set besides status and its
// milestone. Nil pointers leave the column untouched; photo URLs are appended.
type VisitFields struct {
	Purpose         *domain.Purpose
	DriverName      *string
	Phone           *string
	LicensePlate    *string
	Company         *string
	Gate            *string
	QueueNumber     *string
	QueueDay        *time.Time
	BookingCode     *string
	RejectionReason *string
	SecurityNotes   *string
	VerifiedBy      *string
	CalledBy        *string
	ExitVerifiedBy  *string
	PhotoBeforeURLs []string
	PhotoAfterURLs  []string
}

// assignments renders f as SET clauses, adding the values to args.
func (f VisitFields) assignments(args pgx.NamedArgs) []string {
	var set []string
	str := func(col string, v *string) {
		if v != nil {
			set = append(set, col+" = @"+col)
			args[col] = *v
		}
	}
	if f.Purpose != nil {
		set = append(set, "purpose = @purpose")
		args["purpose"] = string(*f.Purpose)
	}
	str("driver_name", f.DriverName)
	str("phone", f.Phone)
	str("license_plate", f.LicensePlate)
	str("company", f.Company)
	str("gate", f.Gate)
	str("rejection_reason", f.RejectionReason)
	str("security_notes", f.SecurityNotes)
	str("verified_by", f.VerifiedBy)
	str("called_by", f.CalledBy)
	str("exit_verified_by", f.ExitVerifiedBy)
	if f.QueueNumber != nil {
		set = append(set, "queue_number = @queue_number")
		args["queue_number"] = nullText(*f.QueueNumber)
	}
	if f.QueueDay != nil {
		set = append(set, "queue_day = @queue_day")
		args["queue_day"] = dateArg(f.QueueDay)
	}
	if f.BookingCode != nil {
		set = append(set, "booking_code = @booking_code")
		args["booking_code"] = nullText(*f.BookingCode)
	}
	if len(f.PhotoBeforeURLs) > 0 {
		set = append(set, "photo_before_urls = photo_before_urls || @photo_before_urls::text[]")
		args["photo_before_urls"] = f.PhotoBeforeURLs
	}
	if len(f.PhotoAfterURLs) > 0 {
		set = append(set, "photo_after_urls = photo_after_urls || @photo_after_urls::text[]")
		args["photo_after_urls"] = f.PhotoAfterURLs
	}
	return set
}

var milestoneColumns = map[domain.Milestone]string{
	domain.MilestoneVerified:     "verified_time",
	domain.MilestoneCalled:       "called_time",
	domain.MilestoneLoadingStart: "loading_start_time",
	domain.MilestoneEnd:          "end_time",
	domain.MilestoneExit:         "exit_time",
}

// pgVisitRepo is the Postgres implementation of VisitRepo.
type pgVisitRepo struct {
	db db
}

// NewVisitRepo constructs a VisitRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewVisitRepo(db db) VisitRepo {
	return &pgVisitRepo{db: db}
}

// Create inserts a new visit row and returns the full persisted record.
func (r *pgVisitRepo) Create(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	q := `
		INSERT INTO visits (
			purpose, entry_type, driver_name, phone, license_plate, company,
			visit_date, slot_time, po_number, status, check_in_time,
			booking_code, document_url, notes)
		VALUES (
			@purpose, @entry_type, @driver_name, @phone, @license_plate, @company,
			@visit_date, @slot_time, @po_number, @status, @check_in_time,
			@booking_code, @document_url, @notes)
		RETURNING ` + visitColumns

	args := pgx.NamedArgs{
		"purpose":       string(v.Purpose),
		"entry_type":    string(v.EntryType),
		"driver_name":   v.DriverName,
		"phone":         v.Phone,
		"license_plate": v.LicensePlate,
		"company":       v.Company,
		"visit_date":    dateArg(v.VisitDate),
		"slot_time":     v.SlotTime,
		"po_number":     v.PONumber,
		"status":        string(v.Status),
		"check_in_time": v.CheckInTime, // nil becomes NULL
		"booking_code":  nullText(v.BookingCode),
		"document_url":  v.DocumentURL,
		"notes":         v.Notes,
	}

	result, err := scanVisit(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Visit{}, wrapErr("repo.VisitRepo.Create", err)
	}
	return result, nil
}

// GetByID retrieves a visit by primary key.
func (r *pgVisitRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	result, err := getVisit(ctx, r.db, id)
	if err != nil {
		return domain.Visit{}, wrapErr("repo.VisitRepo.GetByID", err)
	}
	return result, nil
}

func getVisit(ctx context.Context, d db, id uuid.UUID) (domain.Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE id = @id`
	return scanVisit(d.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
}

// List returns one page of visits matching the filter and the total count.
func (r *pgVisitRepo) List(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error) {
	const where = `
		WHERE (cardinality(@statuses::text[]) = 0 OR status = ANY(@statuses::text[]))
		  AND (@search::text = ''
		       OR booking_code  ILIKE @pattern
		       OR license_plate ILIKE @pattern
		       OR driver_name   ILIKE @pattern
		       OR company       ILIKE @pattern
		       OR po_number     ILIKE @pattern)`

	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	args := pgx.NamedArgs{
		"statuses": statuses,
		"search":   f.Search,
		"pattern":  "%" + escapeLike(f.Search) + "%",
		"limit":    p.Limit,
		"offset":   p.Offset(),
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM visits`+where, args).Scan(&total); err != nil {
		return nil, 0, wrapErr("repo.VisitRepo.List: count", err)
	}

	q := `SELECT ` + visitColumns + ` FROM visits` + where + `
		ORDER BY check_in_time DESC NULLS LAST, created_at DESC
		LIMIT @limit OFFSET @offset`

	visits, err := queryVisits(ctx, r.db, q, args)
	if err != nil {
		return nil, 0, wrapErr("repo.VisitRepo.List", err)
	}
	return visits, total, nil
}

// Apply runs the conditional update plus its audit rows in one transaction.
func (r *pgVisitRepo) Apply(ctx context.Context, t Transition) (domain.Visit, error) {
	var out domain.Visit
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		v, err := applyTransition(ctx, tx, t)
		if err != nil {
			return err
		}
		for _, rev := range t.Revisions {
			rev.VisitID = t.VisitID
			if err := insertRevision(ctx, tx, rev); err != nil {
				return err
			}
		}
		if t.Activity != nil {
			if _, err := insertActivity(ctx, tx, *t.Activity); err != nil {
				return err
			}
		}
		out = v
		return nil
	})
	if err != nil {
		return domain.Visit{}, wrapErr("repo.VisitRepo.Apply", err)
	}
	return out, nil
}

func applyTransition(ctx context.Context, d db, t Transition) (domain.Visit, error) {
	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}
	args := pgx.NamedArgs{
		"id":   t.VisitID,
		"from": from,
		"to":   string(t.To),
		"at":   t.At,
	}

	set := []string{"status = @to", "updated_at = @at"}
	if col, ok := milestoneColumns[t.Milestone]; ok {
		// First stamp wins; a milestone is never overwritten.
		set = append(set, fmt.Sprintf("%s = COALESCE(%s, @at)", col, col))
	}
	set = append(set, t.Fields.assignments(args)...)

	q := `UPDATE visits SET ` + strings.Join(set, ", ") + `
		WHERE id = @id AND status = ANY(@from::text[])
		RETURNING ` + visitColumns

	v, err := scanVisit(d.QueryRow(ctx, q, args))
	if err == nil {
		return v, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		cur, gerr := getVisit(ctx, d, t.VisitID)
		if gerr != nil {
			return domain.Visit{}, gerr
		}
		return domain.Visit{}, &domain.InvalidStateError{
			VisitID:  t.VisitID,
			Event:    t.Event,
			Expected: t.From,
			Actual:   cur.Status,
		}
	}
	if name, ok := uniqueViolation(err); ok && name == activeGateIndex && t.Fields.Gate != nil {
		return domain.Visit{}, &domain.GateOccupiedError{GateID: *t.Fields.Gate}
	}
	return domain.Visit{}, err
}

// AppendNote appends a line to the note column owned by role.
func (r *pgVisitRepo) AppendNote(ctx context.Context, id uuid.UUID, role domain.NoteRole, text string) (domain.Visit, error) {
	var col string
	switch role {
	case domain.NoteAdmin:
		col = "admin_notes"
	case domain.NoteSecurity:
		col = "security_notes"
	default:
		return domain.Visit{}, fmt.Errorf("repo.VisitRepo.AppendNote: %w: unknown note role %q", domain.ErrValidation, role)
	}

	q := fmt.Sprintf(`
		UPDATE visits
		SET %[1]s = CASE WHEN %[1]s = '' THEN @text ELSE %[1]s || E'\n' || @text END,
		    updated_at = now()
		WHERE id = @id
		RETURNING `, col) + visitColumns

	result, err := scanVisit(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "text": text}))
	if err != nil {
		return domain.Visit{}, wrapErr("repo.VisitRepo.AppendNote", err)
	}
	return result, nil
}

// ActiveAtGate returns the visit holding gate, or nil when the gate is free.
func (r *pgVisitRepo) ActiveAtGate(ctx context.Context, gate string) (*domain.Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits
		WHERE gate = @gate AND status IN ('CALLED', 'LOADING')
		LIMIT 1`

	v, err := scanVisit(r.db.QueryRow(ctx, q, pgx.NamedArgs{"gate": gate}))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("repo.VisitRepo.ActiveAtGate", err)
	}
	return &v, nil
}

// ListActive returns every CALLED or LOADING visit ordered by call time.
func (r *pgVisitRepo) ListActive(ctx context.Context) ([]domain.Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits
		WHERE status IN ('CALLED', 'LOADING')
		ORDER BY called_time`

	visits, err := queryVisits(ctx, r.db, q, pgx.NamedArgs{})
	if err != nil {
		return nil, wrapErr("repo.VisitRepo.ListActive", err)
	}
	return visits, nil
}

// ListInFacility returns visits inside the facility (AT_GATE, CALLED, LOADING).
func (r *pgVisitRepo) ListInFacility(ctx context.Context) ([]domain.Visit, error) {
	q := `SELECT ` + visitColumns + ` FROM visits
		WHERE status IN ('AT_GATE', 'CALLED', 'LOADING')
		ORDER BY COALESCE(verified_time, check_in_time)`

	visits, err := queryVisits(ctx, r.db, q, pgx.NamedArgs{})
	if err != nil {
		return nil, wrapErr("repo.VisitRepo.ListInFacility", err)
	}
	return visits, nil
}

// ListRevisions returns the revision trail of a visit.
func (r *pgVisitRepo) ListRevisions(ctx context.Context, id uuid.UUID) ([]domain.Revision, error) {
	const q = `
		SELECT id, visit_id, field, old_value, new_value, actor, created_at
		FROM visit_revisions
		WHERE visit_id = @visit_id
		ORDER BY created_at, field`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"visit_id": id})
	if err != nil {
		return nil, wrapErr("repo.VisitRepo.ListRevisions", err)
	}
	defer rows.Close()

	revs := []domain.Revision{}
	for rows.Next() {
		var (
			rev         domain.Revision
			id, visitID pgtype.UUID
		)
		if err := rows.Scan(&id, &visitID, &rev.Field, &rev.OldValue, &rev.NewValue, &rev.Actor, &rev.CreatedAt); err != nil {
			return nil, wrapErr("repo.VisitRepo.ListRevisions: scan", err)
		}
		rev.ID = uuid.UUID(id.Bytes)
		rev.VisitID = uuid.UUID(visitID.Bytes)
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.VisitRepo.ListRevisions: rows", err)
	}
	return revs, nil
}

func insertRevision(ctx context.Context, d db, rev domain.Revision) error {
	const q = `
		INSERT INTO visit_revisions (visit_id, field, old_value, new_value, actor)
		VALUES (@visit_id, @field, @old_value, @new_value, @actor)`

	_, err := d.Exec(ctx, q, pgx.NamedArgs{
		"visit_id":  rev.VisitID,
		"field":     rev.Field,
		"old_value": rev.OldValue,
		"new_value": rev.NewValue,
		"actor":     rev.Actor,
	})
	return err
}

func queryVisits(ctx context.Context, d db, q string, args pgx.NamedArgs) ([]domain.Visit, error) {
	rows, err := d.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := []domain.Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return visits, nil
}

// escapeLike neutralises LIKE wildcards in user-supplied search terms.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// scanVisit maps a single database row into a domain.Visit.
func scanVisit(s scanner) (domain.Visit, error) {
	var (
		v                                         domain.Visit
		id                                        pgtype.UUID
		purpose, entryType, status                string
		visitDate, queueDay                       pgtype.Date
		checkIn, verified, called, loading, ended pgtype.Timestamptz
		exited                                    pgtype.Timestamptz
		queueNumber, bookingCode                  pgtype.Text
	)

	err := s.Scan(
		&id, &purpose, &entryType, &v.DriverName, &v.Phone, &v.LicensePlate, &v.Company,
		&visitDate, &v.SlotTime, &v.PONumber, &status,
		&checkIn, &verified, &called, &loading, &ended, &exited,
		&v.Gate, &queueNumber, &queueDay, &bookingCode,
		&v.DocumentURL, &v.PhotoBeforeURLs, &v.PhotoAfterURLs,
		&v.Notes, &v.AdminNotes, &v.SecurityNotes, &v.RejectionReason,
		&v.VerifiedBy, &v.CalledBy, &v.ExitVerifiedBy,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visit{}, domain.ErrNotFound
		}
		return domain.Visit{}, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Visit{}, err
	}
	v.ID = uuid.UUID(id.Bytes)
	v.Status = st
	v.Purpose = domain.Purpose(purpose)
	v.EntryType = domain.EntryType(entryType)
	v.VisitDate = datePtr(visitDate)
	v.QueueDay = datePtr(queueDay)
	v.CheckInTime = timePtr(checkIn)
	v.VerifiedTime = timePtr(verified)
	v.CalledTime = timePtr(called)
	v.LoadingStartTime = timePtr(loading)
	v.EndTime = timePtr(ended)
	v.ExitTime = timePtr(exited)
	v.QueueNumber = textValue(queueNumber)
	v.BookingCode = textValue(bookingCode)
	return v, nil
}
