package notify

import (
	"fmt"

	"github.com/pkordes/dockgate/internal/domain"
)

// Notice is one driver-facing message request.
type Notice struct {
	Event    domain.Event
	Visit    domain.Visit
	GateName string // display name of the dock for call notices
	Reason   string // rejection or cancellation reason
	Recall   bool   // repeat of an earlier call
}

// Compose renders the message text for n. ok is false for events that do not
// notify the driver.
func Compose(n Notice) (text string, ok bool) {
	v := n.Visit
	switch n.Event {
	case domain.EventApprove:
		return fmt.Sprintf("*BOOKING CONFIRMED*\n\nHello %s,\nBooking code: *%s*\n\nShow this message to security when you arrive.",
			v.DriverName, v.BookingCode), true
	case domain.EventReject:
		return fmt.Sprintf("Sorry %s,\nyour registration was REJECTED.\nReason: %s", v.DriverName, n.Reason), true
	case domain.EventCheckIn:
		return fmt.Sprintf("CHECK-IN SUCCESSFUL.\nQueue number: *%s*.\nPlease park and wait to be called.", v.QueueNumber), true
	case domain.EventRejectAtGate:
		return fmt.Sprintf("Sorry %s,\nyou were turned away at the gate.\nReason: %s\nPlease book a new visit.", v.DriverName, n.Reason), true
	case domain.EventCall:
		gate := n.GateName
		if gate == "" {
			gate = v.Gate
		}
		if n.Recall {
			return fmt.Sprintf("REMINDER, DOCK CALL: please go to *%s* now.", gate), true
		}
		return fmt.Sprintf("DOCK CALL: please go to *%s* now.", gate), true
	case domain.EventExit, domain.EventExitOverride:
		return "EXIT PASS.\nThank you, drive safely.", true
	case domain.EventCancel:
		return fmt.Sprintf("Hello %s,\nyour booking %s was CANCELLED.\nReason: %s", v.DriverName, v.BookingCode, n.Reason), true
	}
	return "", false
}
