package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/handler"
	"github.com/pkordes/dockgate/internal/service"
)

// mockVisitServicer is a test double for handler.VisitServicer.
// Set only the method fields your test needs.
type mockVisitServicer struct {
	register        func(ctx context.Context, in service.Registration, actor string) (domain.Visit, error)
	get             func(ctx context.Context, id uuid.UUID) (domain.Visit, error)
	list            func(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error)
	revisions       func(ctx context.Context, id uuid.UUID) ([]domain.Revision, error)
	activity        func(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error)
	simple          func(ctx context.Context, op string, id uuid.UUID, actor string) (domain.Visit, error)
	withReason      func(ctx context.Context, op string, id uuid.UUID, reason, actor string) (domain.Visit, error)
	securityCheckIn func(ctx context.Context, id uuid.UUID, in service.CheckInInput, actor string) (domain.Visit, error)
	call            func(ctx context.Context, id uuid.UUID, gateID, actor string) (domain.Visit, error)
	exit            func(ctx context.Context, id uuid.UUID, reason string, photos []string, actor string) (domain.Visit, error)
	addNote         func(ctx context.Context, id uuid.UUID, role domain.NoteRole, text, actor string) (domain.Visit, error)
	overstays       func(ctx context.Context) ([]domain.Overstay, error)
}

func (m *mockVisitServicer) Register(ctx context.Context, in service.Registration, actor string) (domain.Visit, error) {
	return m.register(ctx, in, actor)
}
func (m *mockVisitServicer) Get(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	return m.get(ctx, id)
}
func (m *mockVisitServicer) List(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error) {
	return m.list(ctx, f, p)
}
func (m *mockVisitServicer) Revisions(ctx context.Context, id uuid.UUID) ([]domain.Revision, error) {
	return m.revisions(ctx, id)
}
func (m *mockVisitServicer) Activity(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error) {
	return m.activity(ctx, visitID, p)
}
func (m *mockVisitServicer) Approve(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return m.simple(ctx, "approve", id, actor)
}
func (m *mockVisitServicer) Reject(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	return m.withReason(ctx, "reject", id, reason, actor)
}
func (m *mockVisitServicer) SecurityCheckIn(ctx context.Context, id uuid.UUID, in service.CheckInInput, actor string) (domain.Visit, error) {
	return m.securityCheckIn(ctx, id, in, actor)
}
func (m *mockVisitServicer) RejectAtGate(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	return m.withReason(ctx, "reject_at_gate", id, reason, actor)
}
func (m *mockVisitServicer) Call(ctx context.Context, id uuid.UUID, gateID, actor string) (domain.Visit, error) {
	return m.call(ctx, id, gateID, actor)
}
func (m *mockVisitServicer) StartLoading(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return m.simple(ctx, "start_loading", id, actor)
}
func (m *mockVisitServicer) Finish(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return m.simple(ctx, "finish", id, actor)
}
func (m *mockVisitServicer) Exit(ctx context.Context, id uuid.UUID, photos []string, actor string) (domain.Visit, error) {
	return m.exit(ctx, id, "", photos, actor)
}
func (m *mockVisitServicer) ExitOverride(ctx context.Context, id uuid.UUID, reason string, photos []string, actor string) (domain.Visit, error) {
	return m.exit(ctx, id, reason, photos, actor)
}
func (m *mockVisitServicer) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error) {
	return m.withReason(ctx, "cancel", id, reason, actor)
}
func (m *mockVisitServicer) MarkNoShow(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return m.simple(ctx, "no_show", id, actor)
}
func (m *mockVisitServicer) ResendBooking(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
	return m.simple(ctx, "resend_booking", id, actor)
}
func (m *mockVisitServicer) AddNote(ctx context.Context, id uuid.UUID, role domain.NoteRole, text, actor string) (domain.Visit, error) {
	return m.addNote(ctx, id, role, text, actor)
}
func (m *mockVisitServicer) Overstays(ctx context.Context) ([]domain.Overstay, error) {
	return m.overstays(ctx)
}

// compile-time check: mockVisitServicer must satisfy handler.VisitServicer.
var _ handler.VisitServicer = (*mockVisitServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into a chi router.
func newHTTPHandler(visits handler.VisitServicer, gates handler.GateServicer) http.Handler {
	return handler.NewServer(visits, gates).Handler()
}

func visitFixture() domain.Visit {
	checkIn := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	return domain.Visit{
		ID:           uuid.New(),
		Purpose:      domain.PurposeLoading,
		EntryType:    domain.EntryWalkIn,
		DriverName:   "Budi",
		Phone:        "+628123456789",
		LicensePlate: "B1234XYZ",
		Status:       domain.StatusPendingReview,
		CheckInTime:  &checkIn,
		CreatedAt:    checkIn,
		UpdatedAt:    checkIn,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(h http.Handler, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(handler.ActorHeader, "ops-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

// ---- POST /visits ------------------------------------------------------------

func TestRegisterVisit_201(t *testing.T) {
	fixture := visitFixture()
	var got service.Registration
	svc := &mockVisitServicer{
		register: func(_ context.Context, in service.Registration, actor string) (domain.Visit, error) {
			got = in
			assert.Equal(t, "ops-1", actor)
			return fixture, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits", jsonBody(t, map[string]any{
		"purpose":      "loading",
		"driverName":   "Budi",
		"phone":        "+628123456789",
		"licensePlate": "b 1234 xyz",
		"visitDate":    "2026-10-17",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.PurposeLoading, got.Purpose)
	require.NotNil(t, got.VisitDate)
	assert.Equal(t, 17, got.VisitDate.Day())

	var resp handler.Visit
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.Id)
	assert.Equal(t, "PENDING_REVIEW", resp.Status)
	assert.Equal(t, []string{}, resp.PhotoBeforeUrls)
}

func TestRegisterVisit_422_ValidationError(t *testing.T) {
	svc := &mockVisitServicer{
		register: func(context.Context, service.Registration, string) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("%w: license plate is required", domain.ErrValidation)
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits", jsonBody(t, map[string]any{"purpose": "LOADING"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "validation_error", e.Code)
	assert.Equal(t, "license plate is required", e.Message)
}

func TestRegisterVisit_422_MissingBody(t *testing.T) {
	rec := do(newHTTPHandler(&mockVisitServicer{}, nil), http.MethodPost, "/visits", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "request body is required", decodeError(t, rec).Message)
}

func TestRegisterVisit_422_MalformedBody(t *testing.T) {
	rec := do(newHTTPHandler(&mockVisitServicer{}, nil), http.MethodPost, "/visits", bytes.NewBufferString("{not json"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// A streamed body cut off by the size limit must not look like an empty one.
func TestRegisterVisit_413_BodyLimit(t *testing.T) {
	h := newHTTPHandler(&mockVisitServicer{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/visits",
		bytes.NewBufferString(`{"purpose":"LOADING","driverName":"Budi","document":"data:image/png;base64,AAAAAAAAAAAA"}`))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "body_too_large", decodeError(t, rec).Code)
}

// ---- GET /visits -------------------------------------------------------------

func TestListVisits_FiltersAndPagination(t *testing.T) {
	var (
		gotFilter domain.VisitFilter
		gotPage   domain.PaginationParams
	)
	svc := &mockVisitServicer{
		list: func(_ context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error) {
			gotFilter, gotPage = f, p
			return []domain.Visit{visitFixture()}, 41, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodGet, "/visits?status=booked,checked_in&search=b12&page=2&limit=20", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.Status{domain.StatusBooked, domain.StatusCheckedIn}, gotFilter.Statuses)
	assert.Equal(t, "b12", gotFilter.Search)
	assert.Equal(t, domain.PaginationParams{Page: 2, Limit: 20}, gotPage)

	var resp handler.VisitList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 41, resp.Pagination.Total)
}

func TestListVisits_View(t *testing.T) {
	var got domain.VisitFilter
	svc := &mockVisitServicer{
		list: func(_ context.Context, f domain.VisitFilter, _ domain.PaginationParams) ([]domain.Visit, int64, error) {
			got = f
			return nil, 0, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodGet, "/visits?view=inside", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.Status{domain.StatusAtGate, domain.StatusCalled, domain.StatusLoading}, got.Statuses)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListVisits_422_BadParams(t *testing.T) {
	h := newHTTPHandler(&mockVisitServicer{}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodGet, "/visits?page=abc", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodGet, "/visits?view=parking", nil).Code)
}

// ---- GET /visits/{id} --------------------------------------------------------

func TestGetVisit_404(t *testing.T) {
	svc := &mockVisitServicer{
		get: func(context.Context, uuid.UUID) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("service.VisitService.Get: %w", domain.ErrNotFound)
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodGet, "/visits/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestGetVisit_422_BadID(t *testing.T) {
	rec := do(newHTTPHandler(&mockVisitServicer{}, nil), http.MethodGet, "/visits/not-a-uuid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- transitions -------------------------------------------------------------

func TestApproveVisit_200(t *testing.T) {
	fixture := visitFixture()
	fixture.Status = domain.StatusBooked
	fixture.BookingCode = "SOC-OUT-202610-000001"
	svc := &mockVisitServicer{
		simple: func(_ context.Context, op string, id uuid.UUID, actor string) (domain.Visit, error) {
			assert.Equal(t, "approve", op)
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+fixture.ID.String()+"/approve", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Visit
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.BookingCode)
	assert.Equal(t, "SOC-OUT-202610-000001", *resp.BookingCode)
}

func TestApproveVisit_409_InvalidState(t *testing.T) {
	svc := &mockVisitServicer{
		simple: func(_ context.Context, _ string, id uuid.UUID, _ string) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("service.VisitService.Approve: %w", &domain.InvalidStateError{
				VisitID:  id,
				Event:    domain.EventApprove,
				Expected: []domain.Status{domain.StatusPendingReview},
				Actual:   domain.StatusExited,
			})
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/approve", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "invalid_state", e.Code)
	assert.Equal(t, "cannot approve: this vehicle is already exited", e.Message)
}

func TestRejectVisit_PassesReason(t *testing.T) {
	svc := &mockVisitServicer{
		withReason: func(_ context.Context, op string, _ uuid.UUID, reason, _ string) (domain.Visit, error) {
			assert.Equal(t, "reject", op)
			assert.Equal(t, "expired permit", reason)
			return visitFixture(), nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/reject",
		jsonBody(t, map[string]string{"reason": "expired permit"}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckInVisit_MapsCorrections(t *testing.T) {
	var got service.CheckInInput
	svc := &mockVisitServicer{
		securityCheckIn: func(_ context.Context, _ uuid.UUID, in service.CheckInInput, _ string) (domain.Visit, error) {
			got = in
			return visitFixture(), nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/check-in", jsonBody(t, map[string]any{
		"purpose":      "unloading",
		"licensePlate": "B 9999 ZZ",
		"photos":       []string{"data:image/jpeg;base64,AAAA"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Purpose)
	assert.Equal(t, domain.PurposeUnloading, *got.Purpose)
	require.NotNil(t, got.LicensePlate)
	assert.Equal(t, "B 9999 ZZ", *got.LicensePlate)
	assert.Nil(t, got.DriverName)
	assert.Len(t, got.Photos, 1)
}

func TestCheckInVisit_EmptyBodyAllowed(t *testing.T) {
	svc := &mockVisitServicer{
		securityCheckIn: func(context.Context, uuid.UUID, service.CheckInInput, string) (domain.Visit, error) {
			return visitFixture(), nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/check-in", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCallVisit_409_GateOccupied(t *testing.T) {
	svc := &mockVisitServicer{
		call: func(_ context.Context, _ uuid.UUID, gateID, _ string) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("service.VisitService.Call: %w", &domain.GateOccupiedError{GateID: gateID, OccupantID: uuid.New()})
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/call",
		jsonBody(t, map[string]string{"gate": "DOCK_1"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "gate_occupied", e.Code)
	assert.True(t, strings.HasPrefix(e.Message, "DOCK_1 is still in use"))
}

func TestExitOverride_403_Disabled(t *testing.T) {
	svc := &mockVisitServicer{
		exit: func(_ context.Context, _ uuid.UUID, reason string, _ []string, _ string) (domain.Visit, error) {
			assert.Equal(t, "driver left", reason)
			return domain.Visit{}, fmt.Errorf("service.VisitService.ExitOverride: %w", domain.ErrOverrideDisabled)
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/exit-override",
		jsonBody(t, map[string]any{"reason": "driver left"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFinishVisit_503_Persistence(t *testing.T) {
	svc := &mockVisitServicer{
		simple: func(context.Context, string, uuid.UUID, string) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("repo.VisitRepo.Apply: %w: connection refused", domain.ErrPersistence)
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/finish", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "persistence_error", decodeError(t, rec).Code)
}

func TestStartLoading_500_Unexpected(t *testing.T) {
	svc := &mockVisitServicer{
		simple: func(context.Context, string, uuid.UUID, string) (domain.Visit, error) {
			return domain.Visit{}, fmt.Errorf("boom")
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/start-loading", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Message)
}

func TestAddNote_UpperCasesRole(t *testing.T) {
	svc := &mockVisitServicer{
		addNote: func(_ context.Context, _ uuid.UUID, role domain.NoteRole, text, _ string) (domain.Visit, error) {
			assert.Equal(t, domain.NoteSecurity, role)
			assert.Equal(t, "seal broken", text)
			return visitFixture(), nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodPost, "/visits/"+uuid.NewString()+"/notes",
		jsonBody(t, map[string]string{"role": "security", "text": "seal broken"}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

// ---- overstays and activity -------------------------------------------------

func TestListOverstays(t *testing.T) {
	svc := &mockVisitServicer{
		overstays: func(context.Context) ([]domain.Overstay, error) {
			return []domain.Overstay{{Visit: visitFixture(), Elapsed: 5*time.Hour + 30*time.Minute}}, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodGet, "/visits/overstays", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []handler.Overstay
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, int64(330), resp[0].ElapsedMinutes)
	assert.InDelta(t, 5.5, resp[0].ElapsedHours, 0.001)
}

func TestListActivity_VisitFilter(t *testing.T) {
	id := uuid.New()
	svc := &mockVisitServicer{
		activity: func(_ context.Context, visitID *uuid.UUID, _ domain.PaginationParams) ([]domain.ActivityLog, error) {
			require.NotNil(t, visitID)
			assert.Equal(t, id, *visitID)
			return []domain.ActivityLog{{ID: uuid.New(), VisitID: &id, Actor: "ops-1", Action: "approve"}}, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil), http.MethodGet, "/activity?visitId="+id.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []handler.Activity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "approve", resp[0].Action)
}
