// Package service contains the business logic of the dock gate engine.
// Services validate inputs, enforce lifecycle rules and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/dockgate/internal/blob"
	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/lifecycle"
	"github.com/pkordes/dockgate/internal/metrics"
	"github.com/pkordes/dockgate/internal/notify"
	"github.com/pkordes/dockgate/internal/repo"
)

// IDGenerator mints booking codes and queue numbers. *idgen.Generator satisfies it.
type IDGenerator interface {
	BookingCode(ctx context.Context, purpose domain.Purpose, at time.Time) (string, error)
	QueueNumber(ctx context.Context, at time.Time) (string, time.Time, error)
}

// GateReserver checks a dock may take a visit. *gate.Manager satisfies it.
type GateReserver interface {
	Reserve(ctx context.Context, gateID string, visitID uuid.UUID) (domain.GateConfig, error)
	Gate(ctx context.Context, id string) (domain.GateConfig, error)
}

// Notifier fires driver messages asynchronously. *notify.Dispatcher satisfies it.
type Notifier interface {
	Notify(n notify.Notice)
}

// Uploader stores evidence files. *blob.Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, folder, input string) string
	UploadAll(ctx context.Context, folder string, inputs []string) []string
}

// Publisher announces visit changes to dashboards. *feed.Hub satisfies it.
type Publisher interface {
	Publish(change domain.VisitChange)
}

// VisitDeps are the collaborators of a VisitService. Notifier, Uploader,
// Publisher, Metrics and Logger may be nil.
type VisitDeps struct {
	Visits   repo.VisitRepo
	Activity repo.ActivityRepo
	IDs      IDGenerator
	Gates    GateReserver
	Notifier Notifier
	Uploader Uploader
	Feed     Publisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// VisitOptions carry deployment settings. Zero values pick the defaults.
type VisitOptions struct {
	OverstayThreshold time.Duration // default 4h
	AllowExitOverride bool
	Now               func() time.Time
}

// VisitService runs the visit lifecycle.
type VisitService struct {
	visits   repo.VisitRepo
	activity repo.ActivityRepo
	ids      IDGenerator
	gates    GateReserver
	notifier Notifier
	uploader Uploader
	feed     Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	overstay      time.Duration
	allowOverride bool
	now           func() time.Time
}

// NewVisitService constructs a VisitService.
func NewVisitService(d VisitDeps, o VisitOptions) *VisitService {
	s := &VisitService{
		visits:        d.Visits,
		activity:      d.Activity,
		ids:           d.IDs,
		gates:         d.Gates,
		notifier:      d.Notifier,
		uploader:      d.Uploader,
		feed:          d.Feed,
		metrics:       d.Metrics,
		logger:        d.Logger,
		overstay:      o.OverstayThreshold,
		allowOverride: o.AllowExitOverride,
		now:           o.Now,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.uploader == nil {
		s.uploader = placeholderUploader{}
	}
	if s.feed == nil {
		s.feed = noopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.overstay <= 0 {
		s.overstay = 4 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Registration is the data a driver submits to create a visit.
type Registration struct {
	Purpose      domain.Purpose
	EntryType    domain.EntryType
	DriverName   string
	Phone        string
	LicensePlate string
	Company      string
	VisitDate    *time.Time
	SlotTime     string
	PONumber     string
	Notes        string
	Document     string // data URL or existing URL
}

// CheckInInput carries optional gate-side corrections and evidence.
// Nil fields keep the registered value.
type CheckInInput struct {
	Purpose      *domain.Purpose
	DriverName   *string
	Phone        *string
	LicensePlate *string
	Company      *string
	Photos       []string
	Notes        string
}

// Register creates a visit in PENDING_REVIEW.
func (s *VisitService) Register(ctx context.Context, in Registration, actor string) (domain.Visit, error) {
	in.DriverName = strings.TrimSpace(in.DriverName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.LicensePlate = NormalizePlate(in.LicensePlate)
	in.Company = strings.TrimSpace(in.Company)
	if in.EntryType == "" {
		in.EntryType = domain.EntryWalkIn
	}

	switch {
	case !in.Purpose.Valid():
		return domain.Visit{}, fmt.Errorf("%w: purpose must be LOADING or UNLOADING", domain.ErrValidation)
	case !in.EntryType.Valid():
		return domain.Visit{}, fmt.Errorf("%w: unknown entry type %q", domain.ErrValidation, in.EntryType)
	case in.DriverName == "":
		return domain.Visit{}, fmt.Errorf("%w: driver name is required", domain.ErrValidation)
	case in.LicensePlate == "":
		return domain.Visit{}, fmt.Errorf("%w: license plate is required", domain.ErrValidation)
	case in.Phone == "":
		return domain.Visit{}, fmt.Errorf("%w: phone is required", domain.ErrValidation)
	}

	now := s.now()
	v := domain.Visit{
		Purpose:      in.Purpose,
		EntryType:    in.EntryType,
		DriverName:   in.DriverName,
		Phone:        in.Phone,
		LicensePlate: in.LicensePlate,
		Company:      in.Company,
		VisitDate:    in.VisitDate,
		SlotTime:     strings.TrimSpace(in.SlotTime),
		PONumber:     strings.TrimSpace(in.PONumber),
		Notes:        strings.TrimSpace(in.Notes),
		Status:       domain.StatusPendingReview,
		CheckInTime:  &now,
		DocumentURL:  s.uploader.Upload(ctx, "documents", in.Document),
	}

	created, err := s.visits.Create(ctx, v)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("service.VisitService.Register: %w", err)
	}

	s.record(ctx, domain.ActivityLog{
		VisitID: &created.ID,
		Actor:   actor,
		Action:  "register",
		Details: fmt.Sprintf("%s %s (%s)", created.Purpose, created.LicensePlate, created.DriverName),
	})
	s.publish(created, "")
	s.logger.InfoContext(ctx, "visit registered", "visit_id", created.ID, "plate", created.LicensePlate)
	return created, nil
}

// Get returns one visit.
func (s *VisitService) Get(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("service.VisitService.Get: %w", err)
	}
	return v, nil
}

// List returns one page of visits.
func (s *VisitService) List(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, 0, err
	}
	visits, total, err := s.visits.List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.VisitService.List: %w", err)
	}
	return visits, total, nil
}

// Revisions returns the gate-side revision trail of a visit.
func (s *VisitService) Revisions(ctx context.Context, id uuid.UUID) ([]domain.Revision, error) {
	if _, err := s.visits.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.VisitService.Revisions: %w", err)
	}
	revs, err := s.visits.ListRevisions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.VisitService.Revisions: %w", err)
	}
	return revs, nil
}

// Activity returns the newest activity entries, optionally for one visit.
func (s *VisitService) Activity(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error) {
	logs, err := s.activity.List(ctx, visitID, p)
	if err != nil {
		return nil, fmt.Errorf("service.VisitService.Activity: %w", err)
	}
	return logs, nil
}

// Approve books a pending visit and issues its booking code.
func (s *VisitService) Approve(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return s.transition(ctx, id, domain.EventApprove, actor, func(cur domain.Visit, c *change) error {
		code, err := s.ids.BookingCode(ctx, cur.Purpose, s.now())
		if err != nil {
			return err
		}
		c.fields.BookingCode = &code
		c.details = code
		return nil
	})
}

// Reject turns a pending registration down.
func (s *VisitService) Reject(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return domain.Visit{}, err
	}
	return s.transition(ctx, id, domain.EventReject, actor, func(_ domain.Visit, c *change) error {
		c.fields.RejectionReason = &reason
		c.details = reason
		c.reason = reason
		return nil
	})
}

// SecurityCheckIn admits a booked truck, applying any gate-side corrections as
// audited revisions, and issues the day's queue number.
func (s *VisitService) SecurityCheckIn(ctx context.Context, id uuid.UUID, in CheckInInput, actor string) (domain.Visit, error) {
	if in.Purpose != nil && !in.Purpose.Valid() {
		return domain.Visit{}, fmt.Errorf("%w: purpose must be LOADING or UNLOADING", domain.ErrValidation)
	}
	return s.transition(ctx, id, domain.EventCheckIn, actor, func(cur domain.Visit, c *change) error {
		c.fields, c.revisions = reviseFields(cur, in, actor)

		queue, day, err := s.ids.QueueNumber(ctx, s.now())
		if err != nil {
			return err
		}
		c.fields.QueueNumber = &queue
		c.fields.QueueDay = &day
		c.fields.VerifiedBy = &actor
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			c.fields.SecurityNotes = &notes
		}
		c.fields.PhotoBeforeURLs = s.uploader.UploadAll(ctx, "visits/"+id.String()+"/before", in.Photos)
		c.details = queue
		if len(c.revisions) > 0 {
			c.details = fmt.Sprintf("%s, revised %d field(s)", queue, len(c.revisions))
		}
		return nil
	})
}

// RejectAtGate turns a booked truck away; the driver must book again.
func (s *VisitService) RejectAtGate(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return domain.Visit{}, err
	}
	return s.transition(ctx, id, domain.EventRejectAtGate, actor, func(_ domain.Visit, c *change) error {
		c.fields.RejectionReason = &reason
		c.details = reason
		c.reason = reason
		return nil
	})
}

// Call sends a checked-in truck to a dock. Calling an already-called truck to
// the same dock (or with no dock) only repeats the notification.
func (s *VisitService) Call(ctx context.Context, id uuid.UUID, gateID, actor string) (domain.Visit, error) {
	gateID = strings.TrimSpace(gateID)

	cur, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("service.VisitService.Call: %w", err)
	}
	if cur.Status == domain.StatusCalled && (gateID == "" || gateID == cur.Gate) {
		return s.recall(ctx, cur, actor)
	}
	if gateID == "" {
		return domain.Visit{}, fmt.Errorf("%w: gate is required", domain.ErrValidation)
	}

	return s.transitionFrom(ctx, cur, domain.EventCall, actor, func(cur domain.Visit, c *change) error {
		g, err := s.gates.Reserve(ctx, gateID, cur.ID)
		if err != nil {
			s.metrics.Reservation(metrics.ResultRejected)
			return err
		}
		c.fields.Gate = &g.ID
		c.fields.CalledBy = &actor
		c.gateName = g.Name
		c.details = g.ID
		return nil
	})
}

func (s *VisitService) recall(ctx context.Context, cur domain.Visit, actor string) (domain.Visit, error) {
	s.record(ctx, domain.ActivityLog{VisitID: &cur.ID, Actor: actor, Action: "recall", Details: cur.Gate})
	name := cur.Gate
	if g, err := s.gates.Gate(ctx, cur.Gate); err == nil {
		name = g.Name
	} else {
		s.logger.WarnContext(ctx, "gate lookup for recall failed", "gate", cur.Gate, "error", err)
	}
	s.notifier.Notify(notify.Notice{Event: domain.EventCall, Visit: cur, GateName: name, Recall: true})
	s.logger.InfoContext(ctx, "visit recalled", "visit_id", cur.ID, "gate", cur.Gate)
	return cur, nil
}

// StartLoading marks the truck as being worked at its dock.
func (s *VisitService) StartLoading(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return s.transition(ctx, id, domain.EventStartLoading, actor, nil)
}

// Finish completes loading and frees the dock.
func (s *VisitService) Finish(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return s.transition(ctx, id, domain.EventFinish, actor, nil)
}

// Exit lets a completed truck leave, recording "after" photos.
func (s *VisitService) Exit(ctx context.Context, id uuid.UUID, photos []string, actor string) (domain.Visit, error) {
	return s.transition(ctx, id, domain.EventExit, actor, func(_ domain.Visit, c *change) error {
		c.fields.ExitVerifiedBy = &actor
		c.fields.PhotoAfterURLs = s.uploader.UploadAll(ctx, "visits/"+id.String()+"/after", photos)
		return nil
	})
}

// ExitOverride lets a CALLED or LOADING truck leave without finishing.
// It is disabled unless the deployment allows it and always needs a reason.
func (s *VisitService) ExitOverride(ctx context.Context, id uuid.UUID, reason string, photos []string, actor string) (domain.Visit, error) {
	if !s.allowOverride {
		return domain.Visit{}, fmt.Errorf("service.VisitService.ExitOverride: %w", domain.ErrOverrideDisabled)
	}
	reason, err := requireReason(reason)
	if err != nil {
		return domain.Visit{}, err
	}
	return s.transition(ctx, id, domain.EventExitOverride, actor, func(_ domain.Visit, c *change) error {
		c.fields.ExitVerifiedBy = &actor
		c.fields.PhotoAfterURLs = s.uploader.UploadAll(ctx, "visits/"+id.String()+"/after", photos)
		c.details = reason
		return nil
	})
}

// Cancel withdraws a pending or booked visit.
func (s *VisitService) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return domain.Visit{}, err
	}
	return s.transition(ctx, id, domain.EventCancel, actor, func(_ domain.Visit, c *change) error {
		c.fields.RejectionReason = &reason
		c.details = reason
		c.reason = reason
		return nil
	})
}

// MarkNoShow closes a booking whose truck never arrived.
func (s *VisitService) MarkNoShow(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return s.transition(ctx, id, domain.EventNoShow, actor, nil)
}

// ResendBooking repeats the booking confirmation of a BOOKED visit.
func (s *VisitService) ResendBooking(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("service.VisitService.ResendBooking: %w", err)
	}
	if v.Status != domain.StatusBooked || v.BookingCode == "" {
		return domain.Visit{}, &domain.InvalidStateError{
			VisitID:  id,
			Event:    domain.EventResendBooking,
			Expected: []domain.Status{domain.StatusBooked},
			Actual:   v.Status,
		}
	}
	s.record(ctx, domain.ActivityLog{VisitID: &v.ID, Actor: actor, Action: string(domain.EventResendBooking), Details: v.BookingCode})
	s.notifier.Notify(notify.Notice{Event: domain.EventApprove, Visit: v})
	return v, nil
}

// AddNote appends an audit note. Notes are accepted in every status,
// terminal ones included.
func (s *VisitService) AddNote(ctx context.Context, id uuid.UUID, role domain.NoteRole, text, actor string) (domain.Visit, error) {
	text = strings.TrimSpace(text)
	if !role.Valid() {
		return domain.Visit{}, fmt.Errorf("%w: note role must be ADMIN or SECURITY", domain.ErrValidation)
	}
	if text == "" {
		return domain.Visit{}, fmt.Errorf("%w: note text is required", domain.ErrValidation)
	}
	v, err := s.visits.AppendNote(ctx, id, role, text)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("service.VisitService.AddNote: %w", err)
	}
	s.record(ctx, domain.ActivityLog{VisitID: &v.ID, Actor: actor, Action: "note", Details: string(role)})
	return v, nil
}

// Overstays lists visits whose time inside has reached the threshold,
// longest first. Nothing is persisted; the answer depends on the clock.
func (s *VisitService) Overstays(ctx context.Context) ([]domain.Overstay, error) {
	inside, err := s.visits.ListInFacility(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.VisitService.Overstays: %w", err)
	}
	now := s.now()
	out := []domain.Overstay{}
	for _, v := range inside {
		arrived := v.ArrivedAt()
		if arrived == nil {
			continue
		}
		if elapsed := now.Sub(*arrived); elapsed >= s.overstay {
			out = append(out, domain.Overstay{Visit: v, Elapsed: elapsed})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Elapsed > out[j].Elapsed })
	return out, nil
}

// change collects what a transition writes besides its status.
type change struct {
	fields    repo.VisitFields
	revisions []domain.Revision
	details   string
	reason    string
	gateName  string
}

// prepareFunc runs after the precondition check and before the write. It is
// where identifiers are minted and docks reserved, so a visit in the wrong
// state never burns a sequence number.
type prepareFunc func(cur domain.Visit, c *change) error

func (s *VisitService) transition(ctx context.Context, id uuid.UUID, ev domain.Event, actor string, prepare prepareFunc) (domain.Visit, error) {
	cur, err := s.visits.GetByID(ctx, id)
	if err != nil {
		s.metrics.Transition(string(ev), metrics.ResultError)
		return domain.Visit{}, fmt.Errorf("service.VisitService.%s: %w", opName(ev), err)
	}
	return s.transitionFrom(ctx, cur, ev, actor, prepare)
}

func (s *VisitService) transitionFrom(ctx context.Context, cur domain.Visit, ev domain.Event, actor string, prepare prepareFunc) (domain.Visit, error) {
	op := "service.VisitService." + opName(ev)

	to, err := lifecycle.Next(cur.Status, ev)
	if err != nil {
		var ise *domain.InvalidStateError
		if errors.As(err, &ise) {
			ise.VisitID = cur.ID
		}
		s.metrics.Transition(string(ev), metrics.ResultRejected)
		return domain.Visit{}, fmt.Errorf("%s: %w", op, err)
	}

	var c change
	if prepare != nil {
		if err := prepare(cur, &c); err != nil {
			s.metrics.Transition(string(ev), resultOf(err))
			return domain.Visit{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated, err := s.visits.Apply(ctx, repo.Transition{
		VisitID:   cur.ID,
		Event:     ev,
		From:      lifecycle.Sources(ev),
		To:        to,
		At:        s.now(),
		Milestone: lifecycle.MilestoneOf(ev),
		Fields:    c.fields,
		Revisions: c.revisions,
		Activity: &domain.ActivityLog{
			VisitID: &cur.ID,
			Actor:   actor,
			Action:  string(ev),
			Details: c.details,
		},
	})
	if err != nil {
		s.metrics.Transition(string(ev), resultOf(err))
		if ev == domain.EventCall && errors.Is(err, domain.ErrGateOccupied) {
			s.metrics.Reservation(metrics.ResultRejected)
		}
		return domain.Visit{}, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Transition(string(ev), metrics.ResultOK)
	if ev == domain.EventCall {
		s.metrics.Reservation(metrics.ResultOK)
	}
	s.logger.InfoContext(ctx, "visit transitioned",
		"visit_id", updated.ID,
		"event", ev,
		"from", cur.Status,
		"to", updated.Status,
		"actor", actor,
	)
	s.publish(updated, ev)
	s.notifier.Notify(notify.Notice{Event: ev, Visit: updated, GateName: c.gateName, Reason: c.reason})
	return updated, nil
}

// reviseFields diffs the gate-side corrections against the registered data.
// Only fields that actually change are written and audited.
func reviseFields(cur domain.Visit, in CheckInInput, actor string) (repo.VisitFields, []domain.Revision) {
	var (
		f    repo.VisitFields
		revs []domain.Revision
	)
	revise := func(field, old string, next *string, dst **string) {
		if next == nil || *next == old {
			return
		}
		v := *next
		*dst = &v
		revs = append(revs, domain.Revision{VisitID: cur.ID, Field: field, OldValue: old, NewValue: v, Actor: actor})
	}

	if in.DriverName != nil {
		in.DriverName = trimmed(*in.DriverName)
	}
	if in.Phone != nil {
		in.Phone = trimmed(*in.Phone)
	}
	if in.Company != nil {
		in.Company = trimmed(*in.Company)
	}
	if in.LicensePlate != nil {
		plate := NormalizePlate(*in.LicensePlate)
		in.LicensePlate = &plate
	}

	revise("driverName", cur.DriverName, nonEmpty(in.DriverName), &f.DriverName)
	revise("phone", cur.Phone, nonEmpty(in.Phone), &f.Phone)
	revise("licensePlate", cur.LicensePlate, nonEmpty(in.LicensePlate), &f.LicensePlate)
	revise("company", cur.Company, in.Company, &f.Company)
	if in.Purpose != nil && *in.Purpose != cur.Purpose {
		p := *in.Purpose
		f.Purpose = &p
		revs = append(revs, domain.Revision{VisitID: cur.ID, Field: "purpose", OldValue: string(cur.Purpose), NewValue: string(p), Actor: actor})
	}
	return f, revs
}

// NormalizePlate upper-cases a license plate and strips all whitespace.
func NormalizePlate(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", fmt.Errorf("%w: a reason is required", domain.ErrValidation)
	}
	return reason, nil
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

// nonEmpty drops corrections that would blank a required field.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrGateOccupied),
		errors.Is(err, domain.ErrGateUnavailable),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound):
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

func opName(ev domain.Event) string {
	switch ev {
	case domain.EventApprove:
		return "Approve"
	case domain.EventReject:
		return "Reject"
	case domain.EventCheckIn:
		return "SecurityCheckIn"
	case domain.EventRejectAtGate:
		return "RejectAtGate"
	case domain.EventCall:
		return "Call"
	case domain.EventStartLoading:
		return "StartLoading"
	case domain.EventFinish:
		return "Finish"
	case domain.EventExit:
		return "Exit"
	case domain.EventExitOverride:
		return "ExitOverride"
	case domain.EventCancel:
		return "Cancel"
	case domain.EventNoShow:
		return "MarkNoShow"
	}
	return string(ev)
}

// record appends an activity entry outside a transition. A failure is logged
// and does not fail the operation that already succeeded.
func (s *VisitService) record(ctx context.Context, a domain.ActivityLog) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Append(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "activity log append failed", "action", a.Action, "error", err)
	}
}

func (s *VisitService) publish(v domain.Visit, ev domain.Event) {
	s.feed.Publish(domain.VisitChange{
		Type:    "visit.changed",
		VisitID: v.ID,
		Status:  v.Status,
		Event:   ev,
		Gate:    v.Gate,
		At:      s.now(),
	})
}

type noopNotifier struct{}

func (noopNotifier) Notify(notify.Notice) {}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.VisitChange) {}

// placeholderUploader stands in when no blob storage is wired.
type placeholderUploader struct{}

func (placeholderUploader) Upload(_ context.Context, _, input string) string {
	if input == "" || strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input
	}
	return blob.Placeholder
}

func (u placeholderUploader) UploadAll(ctx context.Context, folder string, inputs []string) []string {
	out := []string{}
	for _, in := range inputs {
		if url := u.Upload(ctx, folder, in); url != "" {
			out = append(out, url)
		}
	}
	return out
}
