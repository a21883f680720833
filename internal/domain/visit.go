// Package domain contains the core data types for the dock gate visit engine.
// This package has no dependencies on other internal packages and is imported by
// every other internal package (lifecycle, repo, service, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a visit. It is a closed set: every value a
// visit can hold is declared below and nothing else is accepted from storage
// or from callers.
type Status string

const (
	StatusPendingReview      Status = "PENDING_REVIEW"
	StatusBooked             Status = "BOOKED"
	StatusCheckedIn          Status = "CHECKED_IN"
	StatusAtGate             Status = "AT_GATE"
	StatusCalled             Status = "CALLED"
	StatusLoading            Status = "LOADING"
	StatusCompleted          Status = "COMPLETED"
	StatusExited             Status = "EXITED"
	StatusRejected           Status = "REJECTED"
	StatusRejectedNeedRebook Status = "REJECTED_NEED_REBOOK"
	StatusCancelled          Status = "CANCELLED"
	StatusNoShow             Status = "NO_SHOW"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPendingReview,
	StatusBooked,
	StatusCheckedIn,
	StatusAtGate,
	StatusCalled,
	StatusLoading,
	StatusCompleted,
	StatusExited,
	StatusRejected,
	StatusRejectedNeedRebook,
	StatusCancelled,
	StatusNoShow,
}

// ParseStatus converts a raw string into a Status.
// Returns ErrValidation for anything outside the enum.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// Valid reports whether s is a member of the status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingReview, StatusBooked, StatusCheckedIn, StatusAtGate,
		StatusCalled, StatusLoading, StatusCompleted, StatusExited,
		StatusRejected, StatusRejectedNeedRebook, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusExited, StatusRejected, StatusRejectedNeedRebook, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// OccupiesGate reports whether a visit in status s holds its dock.
// COMPLETED visits keep their gate for history but no longer occupy it.
func (s Status) OccupiesGate() bool {
	return s == StatusCalled || s == StatusLoading
}

// InFacility reports whether a visit in status s is inside the facility, the
// same set the "inside" view lists. Used for overstay detection. CHECKED_IN
// trucks still wait in the queue and COMPLETED ones have left the dock.
func (s Status) InFacility() bool {
	switch s {
	case StatusAtGate, StatusCalled, StatusLoading:
		return true
	}
	return false
}

// Label returns a short operator-facing description of the status.
func (s Status) Label() string {
	switch s {
	case StatusPendingReview:
		return "waiting for review"
	case StatusBooked:
		return "booked"
	case StatusCheckedIn:
		return "checked in and waiting"
	case StatusAtGate:
		return "at the gate"
	case StatusCalled:
		return "already called to a dock"
	case StatusLoading:
		return "loading at a dock"
	case StatusCompleted:
		return "finished loading"
	case StatusExited:
		return "already exited"
	case StatusRejected:
		return "rejected"
	case StatusRejectedNeedRebook:
		return "rejected at the gate"
	case StatusCancelled:
		return "cancelled"
	case StatusNoShow:
		return "marked as no-show"
	default:
		return string(s)
	}
}

// Purpose says whether the truck is collecting or delivering goods.
type Purpose string

const (
	PurposeLoading   Purpose = "LOADING"
	PurposeUnloading Purpose = "UNLOADING"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeLoading || p == PurposeUnloading
}

// Direction is the goods direction segment used in booking codes.
// Loading trucks take goods out of the warehouse; unloading trucks bring them in.
func (p Purpose) Direction() string {
	if p == PurposeUnloading {
		return "IN"
	}
	return "OUT"
}

// EntryType records how the visit was registered.
type EntryType string

const (
	EntryWalkIn  EntryType = "WALK_IN"
	EntryBooking EntryType = "BOOKING"
)

// Valid reports whether e is a known entry type.
func (e EntryType) Valid() bool {
	return e == EntryWalkIn || e == EntryBooking
}

// Visit is one vehicle's end-to-end record from registration to exit.
//
// Status is the single source of truth for where the visit is in its
// lifecycle. Each milestone timestamp is nil until the transition that sets it
// has fired, and is never cleared afterwards.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	Purpose   Purpose   `json:"purpose"`
	EntryType EntryType `json:"entry_type"`

	DriverName   string `json:"driver_name"`
	Phone        string `json:"phone"`
	LicensePlate string `json:"license_plate"`
	Company      string `json:"company"`

	VisitDate *time.Time `json:"visit_date,omitempty"` // pre-booked arrival day
	SlotTime  string     `json:"slot_time,omitempty"`  // "15:04"
	PONumber  string     `json:"po_number,omitempty"`

	Status Status `json:"status"`

	CheckInTime      *time.Time `json:"check_in_time,omitempty"` // registration
	VerifiedTime     *time.Time `json:"verified_time,omitempty"` // security check-in
	CalledTime       *time.Time `json:"called_time,omitempty"`
	LoadingStartTime *time.Time `json:"loading_start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	ExitTime         *time.Time `json:"exit_time,omitempty"`

	Gate        string     `json:"gate,omitempty"`
	QueueNumber string     `json:"queue_number,omitempty"`
	QueueDay    *time.Time `json:"queue_day,omitempty"`
	BookingCode string     `json:"booking_code,omitempty"`

	DocumentURL     string   `json:"document_url,omitempty"`
	PhotoBeforeURLs []string `json:"photo_before_urls,omitempty"`
	PhotoAfterURLs  []string `json:"photo_after_urls,omitempty"`

	Notes           string `json:"notes,omitempty"`
	AdminNotes      string `json:"admin_notes,omitempty"`
	SecurityNotes   string `json:"security_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	VerifiedBy     string `json:"verified_by,omitempty"`
	CalledBy       string `json:"called_by,omitempty"`
	ExitVerifiedBy string `json:"exit_verified_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArrivedAt returns the moment the truck entered the facility: the security
// check-in when present, otherwise the registration time.
func (v Visit) ArrivedAt() *time.Time {
	if v.VerifiedTime != nil {
		return v.VerifiedTime
	}
	return v.CheckInTime
}

// Overstay is a read-time alert for a visit whose time inside the facility
// has reached the configured threshold. It is never persisted.
type Overstay struct {
	Visit   Visit
	Elapsed time.Duration
}

// NoteRole identifies who wrote an audit note.
type NoteRole string

const (
	NoteAdmin    NoteRole = "ADMIN"
	NoteSecurity NoteRole = "SECURITY"
)

// Valid reports whether r is a known note role.
func (r NoteRole) Valid() bool {
	return r == NoteAdmin || r == NoteSecurity
}
