package service_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/notify"
	"github.com/pkordes/dockgate/internal/repo"
)

// fakeVisitRepo is an in-memory repo.VisitRepo. Apply behaves like the
// Postgres version: the status precondition and the one-truck-per-dock rule
// are checked atomically under the lock.
type fakeVisitRepo struct {
	mu        sync.Mutex
	visits    map[uuid.UUID]domain.Visit
	revisions []domain.Revision
	activity  []domain.ActivityLog
	applies   int
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: map[uuid.UUID]domain.Visit{}}
}

func (f *fakeVisitRepo) Create(_ context.Context, v domain.Visit) (domain.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	f.visits[v.ID] = v
	return v, nil
}

func (f *fakeVisitRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return domain.Visit{}, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeVisitRepo) List(_ context.Context, flt domain.VisitFilter, _ domain.PaginationParams) ([]domain.Visit, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Visit{}
	for _, v := range f.visits {
		if len(flt.Statuses) == 0 || slices.Contains(flt.Statuses, v.Status) {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeVisitRepo) Apply(_ context.Context, t repo.Transition) (domain.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies++

	v, ok := f.visits[t.VisitID]
	if !ok {
		return domain.Visit{}, domain.ErrNotFound
	}
	if !slices.Contains(t.From, v.Status) {
		return domain.Visit{}, &domain.InvalidStateError{VisitID: v.ID, Event: t.Event, Expected: t.From, Actual: v.Status}
	}

	fl := t.Fields
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if fl.Purpose != nil {
		v.Purpose = *fl.Purpose
	}
	set(&v.DriverName, fl.DriverName)
	set(&v.Phone, fl.Phone)
	set(&v.LicensePlate, fl.LicensePlate)
	set(&v.Company, fl.Company)
	set(&v.Gate, fl.Gate)
	set(&v.QueueNumber, fl.QueueNumber)
	set(&v.BookingCode, fl.BookingCode)
	set(&v.RejectionReason, fl.RejectionReason)
	set(&v.SecurityNotes, fl.SecurityNotes)
	set(&v.VerifiedBy, fl.VerifiedBy)
	set(&v.CalledBy, fl.CalledBy)
	set(&v.ExitVerifiedBy, fl.ExitVerifiedBy)
	if fl.QueueDay != nil {
		v.QueueDay = fl.QueueDay
	}
	v.PhotoBeforeURLs = append(v.PhotoBeforeURLs, fl.PhotoBeforeURLs...)
	v.PhotoAfterURLs = append(v.PhotoAfterURLs, fl.PhotoAfterURLs...)
	v.Status = t.To

	if v.Status.OccupiesGate() {
		for _, other := range f.visits {
			if other.ID != v.ID && other.Gate == v.Gate && other.Status.OccupiesGate() {
				return domain.Visit{}, &domain.GateOccupiedError{GateID: v.Gate}
			}
		}
	}

	at := t.At
	stamp := func(dst **time.Time) {
		if *dst == nil {
			*dst = &at
		}
	}
	switch t.Milestone {
	case domain.MilestoneVerified:
		stamp(&v.VerifiedTime)
	case domain.MilestoneCalled:
		stamp(&v.CalledTime)
	case domain.MilestoneLoadingStart:
		stamp(&v.LoadingStartTime)
	case domain.MilestoneEnd:
		stamp(&v.EndTime)
	case domain.MilestoneExit:
		stamp(&v.ExitTime)
	}

	v.UpdatedAt = at
	f.visits[v.ID] = v
	f.revisions = append(f.revisions, t.Revisions...)
	if t.Activity != nil {
		f.activity = append(f.activity, *t.Activity)
	}
	return v, nil
}

func (f *fakeVisitRepo) AppendNote(_ context.Context, id uuid.UUID, role domain.NoteRole, text string) (domain.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return domain.Visit{}, domain.ErrNotFound
	}
	dst := &v.AdminNotes
	if role == domain.NoteSecurity {
		dst = &v.SecurityNotes
	}
	if *dst != "" {
		*dst += "\n"
	}
	*dst += text
	f.visits[id] = v
	return v, nil
}

func (f *fakeVisitRepo) ActiveAtGate(_ context.Context, g string) (*domain.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.visits {
		if v.Gate == g && v.Status.OccupiesGate() {
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeVisitRepo) ListActive(context.Context) ([]domain.Visit, error) {
	return f.filter(domain.Status.OccupiesGate), nil
}

func (f *fakeVisitRepo) ListInFacility(context.Context) ([]domain.Visit, error) {
	return f.filter(domain.Status.InFacility), nil
}

func (f *fakeVisitRepo) ListRevisions(_ context.Context, id uuid.UUID) ([]domain.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Revision{}
	for _, r := range f.revisions {
		if r.VisitID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeVisitRepo) filter(keep func(domain.Status) bool) []domain.Visit {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Visit{}
	for _, v := range f.visits {
		if keep(v.Status) {
			out = append(out, v)
		}
	}
	return out
}

// put stores v as-is, bypassing the lifecycle.
func (f *fakeVisitRepo) put(v domain.Visit) domain.Visit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.visits[v.ID] = v
	return v
}

// mockActivityRepo is a hand-written mock for repo.ActivityRepo.
type mockActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
	err     error
}

func (m *mockActivityRepo) Append(_ context.Context, a domain.ActivityLog) (domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.ActivityLog{}, m.err
	}
	a.ID = uuid.New()
	m.entries = append(m.entries, a)
	return a, nil
}

func (m *mockActivityRepo) List(context.Context, *uuid.UUID, domain.PaginationParams) ([]domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ActivityLog(nil), m.entries...), nil
}

// recordingNotifier captures notices instead of sending them.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) last() notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notify.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

// recordingFeed captures published changes.
type recordingFeed struct {
	mu      sync.Mutex
	changes []domain.VisitChange
}

func (r *recordingFeed) Publish(c domain.VisitChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

// mockGateRepo is a hand-written mock for repo.GateRepo backed by a slice.
type mockGateRepo struct {
	gates    []domain.GateConfig
	upsertFn func(ctx context.Context, g domain.GateConfig) (domain.GateConfig, error)
	deleted  []string
}

func (m *mockGateRepo) List(context.Context) ([]domain.GateConfig, error) {
	return append([]domain.GateConfig(nil), m.gates...), nil
}

func (m *mockGateRepo) GetByID(_ context.Context, id string) (domain.GateConfig, error) {
	for _, g := range m.gates {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.GateConfig{}, domain.ErrNotFound
}

func (m *mockGateRepo) Upsert(ctx context.Context, g domain.GateConfig) (domain.GateConfig, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, g)
	}
	m.gates = append(m.gates, g)
	return g, nil
}

func (m *mockGateRepo) Delete(_ context.Context, id string) error {
	for i, g := range m.gates {
		if g.ID == id {
			m.gates = append(m.gates[:i], m.gates[i+1:]...)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// compile-time checks: the fakes must satisfy the repo interfaces.
var (
	_ repo.VisitRepo    = (*fakeVisitRepo)(nil)
	_ repo.ActivityRepo = (*mockActivityRepo)(nil)
	_ repo.GateRepo     = (*mockGateRepo)(nil)
)
