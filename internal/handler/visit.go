package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/service"
)

// ActorHeader names the operator performing a request. Authentication is
// handled in front of this service; the header is taken as given.
const ActorHeader = "X-Actor"

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" {
		return a
	}
	return "anonymous"
}

// visitID parses the {id} path parameter, answering 422 when it is malformed.
func visitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		requestError(w, "visit id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// RegisterVisit handles POST /visits.
func (s *Server) RegisterVisit(w http.ResponseWriter, r *http.Request) {
	var body RegisterVisitRequest
	if !bind(w, r, &body, false) {
		return
	}
	in := service.Registration{
		Purpose:      domain.Purpose(strings.ToUpper(body.Purpose)),
		EntryType:    domain.EntryType(strings.ToUpper(body.EntryType)),
		DriverName:   body.DriverName,
		Phone:        body.Phone,
		LicensePlate: body.LicensePlate,
		Company:      body.Company,
		SlotTime:     body.SlotTime,
		PONumber:     body.PoNumber,
		Notes:        body.Notes,
		Document:     body.Document,
	}
	if body.VisitDate != nil {
		d := body.VisitDate.Time
		in.VisitDate = &d
	}

	created, err := s.visits.Register(r.Context(), in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, visitToResponse(created))
}

// ListVisits handles GET /visits.
// Supports ?status= (repeatable or comma-separated), ?view=queue|inside|history,
// ?search=, ?page= and ?limit= (defaults: page=1, limit=50, max=500).
func (s *Server) ListVisits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"))
	if err != nil {
		requestError(w, "page must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		requestError(w, "limit must be an integer")
		return
	}
	params := domain.NewPaginationParams(page, limit)

	f := domain.VisitFilter{Search: q.Get("search")}
	if view := q.Get("view"); view != "" {
		statuses, err := domain.View(view).Statuses()
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Statuses = statuses
	}
	for _, raw := range q["status"] {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				f.Statuses = append(f.Statuses, domain.Status(strings.ToUpper(st)))
			}
		}
	}

	visits, total, err := s.visits.List(r.Context(), f, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VisitList{
		Data: visitsToResponse(visits),
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetVisit handles GET /visits/{id}.
func (s *Server) GetVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	v, err := s.visits.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitToResponse(v))
}

// ListRevisions handles GET /visits/{id}/revisions.
func (s *Server) ListRevisions(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	revs, err := s.visits.Revisions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Revision, len(revs))
	for i, rv := range revs {
		out[i] = Revision{Id: rv.ID, Field: rv.Field, OldValue: rv.OldValue, NewValue: rv.NewValue, Actor: rv.Actor, CreatedAt: rv.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListOverstays handles GET /visits/overstays.
func (s *Server) ListOverstays(w http.ResponseWriter, r *http.Request) {
	overs, err := s.visits.Overstays(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Overstay, len(overs))
	for i, o := range overs {
		out[i] = Overstay{
			Visit:          visitToResponse(o.Visit),
			ElapsedMinutes: int64(o.Elapsed.Minutes()),
			ElapsedHours:   o.Elapsed.Hours(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListActivity handles GET /activity. ?visitId= narrows it to one visit.
func (s *Server) ListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var visit *uuid.UUID
	if raw := q.Get("visitId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			requestError(w, "visitId must be a UUID")
			return
		}
		visit = &id
	}
	page, err := intParam(q.Get("page"))
	if err != nil {
		requestError(w, "page must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		requestError(w, "limit must be an integer")
		return
	}

	logs, err := s.visits.Activity(r.Context(), visit, domain.NewPaginationParams(page, limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Activity, len(logs))
	for i, a := range logs {
		out[i] = Activity{Id: a.ID, VisitId: a.VisitID, Actor: a.Actor, Action: a.Action, Details: a.Details, CreatedAt: a.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- transitions -------------------------------------------------------------

// visitAction runs a body-less lifecycle operation on the {id} visit.
func (s *Server) visitAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	v, err := op(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitToResponse(v))
}

// reasonAction runs a lifecycle operation that takes a {"reason": ...} body.
func (s *Server) reasonAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error)) {
	var body ReasonRequest
	if !bind(w, r, &body, true) {
		return
	}
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return op(ctx, id, body.Reason, actor)
	})
}

// ApproveVisit handles POST /visits/{id}/approve.
func (s *Server) ApproveVisit(w http.ResponseWriter, r *http.Request) {
	s.visitAction(w, r, s.visits.Approve)
}

// RejectVisit handles POST /visits/{id}/reject.
func (s *Server) RejectVisit(w http.ResponseWriter, r *http.Request) {
	s.reasonAction(w, r, s.visits.Reject)
}

// CheckInVisit handles POST /visits/{id}/check-in.
func (s *Server) CheckInVisit(w http.ResponseWriter, r *http.Request) {
	var body CheckInRequest
	if !bind(w, r, &body, true) {
		return
	}
	in := service.CheckInInput{
		DriverName:   body.DriverName,
		Phone:        body.Phone,
		LicensePlate: body.LicensePlate,
		Company:      body.Company,
		Photos:       body.Photos,
		Notes:        body.Notes,
	}
	if body.Purpose != nil {
		p := domain.Purpose(strings.ToUpper(*body.Purpose))
		in.Purpose = &p
	}
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return s.visits.SecurityCheckIn(ctx, id, in, actor)
	})
}

// RejectVisitAtGate handles POST /visits/{id}/reject-at-gate.
func (s *Server) RejectVisitAtGate(w http.ResponseWriter, r *http.Request) {
	s.reasonAction(w, r, s.visits.RejectAtGate)
}

// CallVisit handles POST /visits/{id}/call.
func (s *Server) CallVisit(w http.ResponseWriter, r *http.Request) {
	var body CallRequest
	if !bind(w, r, &body, true) {
		return
	}
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return s.visits.Call(ctx, id, body.Gate, actor)
	})
}

// StartLoading handles POST /visits/{id}/start-loading.
func (s *Server) StartLoading(w http.ResponseWriter, r *http.Request) {
	s.visitAction(w, r, s.visits.StartLoading)
}

// FinishVisit handles POST /visits/{id}/finish.
func (s *Server) FinishVisit(w http.ResponseWriter, r *http.Request) {
	s.visitAction(w, r, s.visits.Finish)
}

// ExitVisit handles POST /visits/{id}/exit.
func (s *Server) ExitVisit(w http.ResponseWriter, r *http.Request) {
	var body ExitRequest
	if !bind(w, r, &body, true) {
		return
	}
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return s.visits.Exit(ctx, id, body.Photos, actor)
	})
}

// ExitOverride handles POST /visits/{id}/exit-override.
func (s *Server) ExitOverride(w http.ResponseWriter, r *http.Request) {
	var body ExitRequest
	if !bind(w, r, &body, true) {
		return
	}
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return s.visits.ExitOverride(ctx, id, body.Reason, body.Photos, actor)
	})
}

// CancelVisit handles POST /visits/{id}/cancel.
func (s *Server) CancelVisit(w http.ResponseWriter, r *http.Request) {
	s.reasonAction(w, r, s.visits.Cancel)
}

// MarkNoShow handles POST /visits/{id}/no-show.
func (s *Server) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	s.visitAction(w, r, s.visits.MarkNoShow)
}

// ResendBooking handles POST /visits/{id}/resend-booking.
func (s *Server) ResendBooking(w http.ResponseWriter, r *http.Request) {
	s.visitAction(w, r, s.visits.ResendBooking)
}

// AddNote handles POST /visits/{id}/notes.
func (s *Server) AddNote(w http.ResponseWriter, r *http.Request) {
	var body NoteRequest
	if !bind(w, r, &body, false) {
		return
	}
	role := domain.NoteRole(strings.ToUpper(body.Role))
	s.visitAction(w, r, func(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error) {
		return s.visits.AddNote(ctx, id, role, body.Text, actor)
	})
}

// intParam parses an optional integer query parameter.
func intParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
