// Package handler implements the HTTP handlers for the dock gate API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, visit.go, gate.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/service"
)

// VisitServicer defines the lifecycle operations the visit handlers depend on.
// *service.VisitService satisfies it.
type VisitServicer interface {
	Register(ctx context.Context, in service.Registration, actor string) (domain.Visit, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Visit, error)
	List(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]domain.Visit, int64, error)
	Revisions(ctx context.Context, id uuid.UUID) ([]domain.Revision, error)
	Activity(ctx context.Context, visitID *uuid.UUID, p domain.PaginationParams) ([]domain.ActivityLog, error)

	Approve(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)
	Reject(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error)
	SecurityCheckIn(ctx context.Context, id uuid.UUID, in service.CheckInInput, actor string) (domain.Visit, error)
	RejectAtGate(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error)
	Call(ctx context.Context, id uuid.UUID, gateID, actor string) (domain.Visit, error)
	StartLoading(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)
	Finish(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)
	Exit(ctx context.Context, id uuid.UUID, photos []string, actor string) (domain.Visit, error)
	ExitOverride(ctx context.Context, id uuid.UUID, reason string, photos []string, actor string) (domain.Visit, error)
	Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (domain.Visit, error)
	MarkNoShow(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)
	ResendBooking(ctx context.Context, id uuid.UUID, actor string) (domain.Visit, error)
	AddNote(ctx context.Context, id uuid.UUID, role domain.NoteRole, text, actor string) (domain.Visit, error)
	Overstays(ctx context.Context) ([]domain.Overstay, error)
}

// GateServicer defines the dock operations the gate handlers depend on.
// *service.GateService satisfies it.
type GateServicer interface {
	List(ctx context.Context) ([]domain.GateOccupancy, error)
	Available(ctx context.Context) ([]domain.GateConfig, error)
	Occupant(ctx context.Context, gateID string) (*domain.Visit, error)
	Save(ctx context.Context, g domain.GateConfig, actor string) (domain.GateConfig, error)
	Remove(ctx context.Context, gateID, actor string) error
}

// Server holds the dependencies of every HTTP handler.
type Server struct {
	visits  VisitServicer
	gates   GateServicer
	feed    http.Handler
	openAPI []byte
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithFeed mounts the change-feed websocket at /ws.
func WithFeed(h http.Handler) Option {
	return func(s *Server) { s.feed = h }
}

// WithOpenAPI serves doc at /openapi.yaml.
func WithOpenAPI(doc []byte) Option {
	return func(s *Server) { s.openAPI = doc }
}

// NewServer constructs the Server with all its dependencies.
func NewServer(visits VisitServicer, gates GateServicer, opts ...Option) *Server {
	s := &Server{visits: visits, gates: gates}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil)
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}
	if s.feed != nil {
		r.Handle("/ws", s.feed)
	}
	if s.visits != nil {
		r.Route("/visits", func(r chi.Router) {
			r.Post("/", s.RegisterVisit)
			r.Get("/", s.ListVisits)
			r.Get("/overstays", s.ListOverstays)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetVisit)
				r.Get("/revisions", s.ListRevisions)
				r.Post("/approve", s.ApproveVisit)
				r.Post("/reject", s.RejectVisit)
				r.Post("/check-in", s.CheckInVisit)
				r.Post("/reject-at-gate", s.RejectVisitAtGate)
				r.Post("/call", s.CallVisit)
				r.Post("/start-loading", s.StartLoading)
				r.Post("/finish", s.FinishVisit)
				r.Post("/exit", s.ExitVisit)
				r.Post("/exit-override", s.ExitOverride)
				r.Post("/cancel", s.CancelVisit)
				r.Post("/no-show", s.MarkNoShow)
				r.Post("/resend-booking", s.ResendBooking)
				r.Post("/notes", s.AddNote)
			})
		})
		r.Get("/activity", s.ListActivity)
	}
	if s.gates != nil {
		r.Route("/gates", func(r chi.Router) {
			r.Get("/", s.ListGates)
			r.Get("/available", s.AvailableGates)
			r.Get("/{id}/occupant", s.GetOccupant)
			r.Put("/{id}", s.SaveGate)
			r.Delete("/{id}", s.RemoveGate)
		})
	}
}

// Handler returns a chi router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}
