package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names a lifecycle transition. External callers only ever ask for an
// event to be applied to a visit; they never write a status directly.
type Event string

const (
	EventApprove      Event = "approve"
	EventReject       Event = "reject"
	EventCheckIn      Event = "security_checkin"
	EventRejectAtGate Event = "reject_at_gate"
	EventCall         Event = "call"
	EventStartLoading Event = "start_loading"
	EventFinish       Event = "finish"
	EventExit         Event = "exit"
	EventExitOverride Event = "exit_override"
	EventCancel       Event = "cancel"
	EventNoShow       Event = "no_show"

	// EventResendBooking re-sends the booking confirmation. It is an action on
	// a BOOKED visit, not a transition, and does not appear in the lifecycle table.
	EventResendBooking Event = "resend_booking"
)

// Milestone identifies the timestamp a transition stamps on a visit.
type Milestone int

const (
	MilestoneNone Milestone = iota
	MilestoneVerified
	MilestoneCalled
	MilestoneLoadingStart
	MilestoneEnd
	MilestoneExit
)

// Revision is one field overwritten during a gate-side revision. Revisions are
// append-only so the original registration data is never lost.
type Revision struct {
	ID        uuid.UUID `json:"id"`
	VisitID   uuid.UUID `json:"visit_id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is one entry of the operator activity trail.
type ActivityLog struct {
	ID        uuid.UUID  `json:"id"`
	VisitID   *uuid.UUID `json:"visit_id,omitempty"`
	Actor     string     `json:"actor"`
	Action    string     `json:"action"`
	Details   string     `json:"details"`
	CreatedAt time.Time  `json:"created_at"`
}

// VisitChange is published to dashboards after a visit changed.
type VisitChange struct {
	Type    string    `json:"type"`
	VisitID uuid.UUID `json:"visitId"`
	Status  Status    `json:"status"`
	Event   Event     `json:"event,omitempty"`
	Gate    string    `json:"gate,omitempty"`
	At      time.Time `json:"at"`
}
