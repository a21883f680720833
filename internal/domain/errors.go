package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// visit or gate does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing rejection reason, unknown purpose).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidState is matched by every *InvalidStateError.
var ErrInvalidState = errors.New("invalid state")

// ErrGateOccupied is matched by every *GateOccupiedError.
var ErrGateOccupied = errors.New("gate occupied")

// ErrGateUnavailable is returned when a truck is called to a gate that is
// closed or under maintenance.
var ErrGateUnavailable = errors.New("gate unavailable")

// ErrOverrideDisabled is returned by the manual exit override when the
// deployment has switched it off.
var ErrOverrideDisabled = errors.New("exit override disabled")

// ErrPersistence wraps connectivity and constraint failures from the store.
// No retry is attempted; the caller decides whether to re-issue.
var ErrPersistence = errors.New("persistence error")

// ErrNotification is matched by every *NotificationError.
var ErrNotification = errors.New("notification failed")

// InvalidStateError reports a transition attempted from a status that does not
// permit it.
type InvalidStateError struct {
	VisitID  uuid.UUID
	Event    Event
	Expected []Status
	Actual   Status
}

func (e *InvalidStateError) Error() string {
	exp := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		exp[i] = string(s)
	}
	return fmt.Sprintf("invalid state: %s on visit %s requires %s, visit is %s",
		e.Event, e.VisitID, strings.Join(exp, " or "), e.Actual)
}

// Is lets errors.Is(err, ErrInvalidState) match.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// OperatorMessage explains the failure in terms a gate operator can act on.
func (e *InvalidStateError) OperatorMessage() string {
	return fmt.Sprintf("cannot %s: this vehicle is %s", eventVerb(e.Event), e.Actual.Label())
}

// GateOccupiedError reports a call to a dock already hosting an active visit.
type GateOccupiedError struct {
	GateID     string
	OccupantID uuid.UUID // zero when the conflict was detected by the store
}

func (e *GateOccupiedError) Error() string {
	if e.OccupantID == uuid.Nil {
		return fmt.Sprintf("gate occupied: %s", e.GateID)
	}
	return fmt.Sprintf("gate occupied: %s hosts visit %s", e.GateID, e.OccupantID)
}

// Is lets errors.Is(err, ErrGateOccupied) match.
func (e *GateOccupiedError) Is(target error) bool { return target == ErrGateOccupied }

// OperatorMessage explains the failure in terms a dock operator can act on.
func (e *GateOccupiedError) OperatorMessage() string {
	return fmt.Sprintf("%s is still in use by another truck; finish that truck first or pick another dock", e.GateID)
}

// NotificationError reports a failed outbound message. It is always recovered
// locally: logged and counted, never returned from a transition.
type NotificationError struct {
	Event       Event
	Destination string
	Err         error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s to %s: %v", e.Event, e.Destination, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotification) match.
func (e *NotificationError) Is(target error) bool { return target == ErrNotification }

func eventVerb(ev Event) string {
	switch ev {
	case EventApprove:
		return "approve"
	case EventReject:
		return "reject"
	case EventCheckIn:
		return "check in"
	case EventRejectAtGate:
		return "reject at the gate"
	case EventCall:
		return "call to a dock"
	case EventStartLoading:
		return "start loading"
	case EventFinish:
		return "finish loading"
	case EventExit, EventExitOverride:
		return "let out"
	case EventCancel:
		return "cancel"
	case EventNoShow:
		return "mark as no-show"
	case EventResendBooking:
		return "resend the booking"
	default:
		return string(ev)
	}
}
