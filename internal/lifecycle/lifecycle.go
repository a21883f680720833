// Package lifecycle holds the visit transition table.
//
// The table is expressed as looplab/fsm event descriptors so the allowed edges
// live in one declarative list. A visit's status is persisted elsewhere; this
// package only answers "may event E fire from status S, and where does it go".
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/pkordes/dockgate/internal/domain"
)

// events is the complete set of allowed transitions.
var events = fsm.Events{
	{Name: string(domain.EventApprove), Src: src(domain.StatusPendingReview), Dst: string(domain.StatusBooked)},
	{Name: string(domain.EventReject), Src: src(domain.StatusPendingReview), Dst: string(domain.StatusRejected)},
	{Name: string(domain.EventCancel), Src: src(domain.StatusPendingReview, domain.StatusBooked), Dst: string(domain.StatusCancelled)},
	{Name: string(domain.EventCheckIn), Src: src(domain.StatusBooked), Dst: string(domain.StatusCheckedIn)},
	{Name: string(domain.EventRejectAtGate), Src: src(domain.StatusBooked), Dst: string(domain.StatusRejectedNeedRebook)},
	{Name: string(domain.EventNoShow), Src: src(domain.StatusBooked), Dst: string(domain.StatusNoShow)},
	{Name: string(domain.EventCall), Src: src(domain.StatusCheckedIn), Dst: string(domain.StatusCalled)},
	{Name: string(domain.EventStartLoading), Src: src(domain.StatusCalled), Dst: string(domain.StatusLoading)},
	{Name: string(domain.EventFinish), Src: src(domain.StatusLoading), Dst: string(domain.StatusCompleted)},
	{Name: string(domain.EventExit), Src: src(domain.StatusCompleted), Dst: string(domain.StatusExited)},
	// Manual override for trucks that leave without the dock finishing them.
	{Name: string(domain.EventExitOverride), Src: src(domain.StatusCalled, domain.StatusLoading), Dst: string(domain.StatusExited)},
}

var milestones = map[domain.Event]domain.Milestone{
	domain.EventCheckIn:      domain.MilestoneVerified,
	domain.EventCall:         domain.MilestoneCalled,
	domain.EventStartLoading: domain.MilestoneLoadingStart,
	domain.EventFinish:       domain.MilestoneEnd,
	domain.EventExit:         domain.MilestoneExit,
	domain.EventExitOverride: domain.MilestoneExit,
}

// sources indexes events by name for precondition lookups.
var sources = func() map[domain.Event][]domain.Status {
	out := make(map[domain.Event][]domain.Status, len(events))
	for _, e := range events {
		for _, s := range e.Src {
			out[domain.Event(e.Name)] = append(out[domain.Event(e.Name)], domain.Status(s))
		}
	}
	return out
}()

func src(ss ...domain.Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// Next returns the status event ev leads to from status from.
// Returns a *domain.InvalidStateError when ev is not allowed from from, and
// ErrValidation for an event the table does not know.
func Next(from domain.Status, ev domain.Event) (domain.Status, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrValidation, from)
	}
	machine := fsm.NewFSM(string(from), events, nil)
	if err := machine.Event(context.Background(), string(ev)); err != nil {
		var unknown fsm.UnknownEventError
		if errors.As(err, &unknown) {
			return "", fmt.Errorf("%w: unknown event %q", domain.ErrValidation, ev)
		}
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return "", &domain.InvalidStateError{Event: ev, Expected: Sources(ev), Actual: from}
		}
		return "", fmt.Errorf("lifecycle.Next: %w", err)
	}
	return domain.Status(machine.Current()), nil
}

// Sources returns the statuses ev may fire from.
func Sources(ev domain.Event) []domain.Status {
	return append([]domain.Status(nil), sources[ev]...)
}

// MilestoneOf returns the timestamp ev stamps, or MilestoneNone.
func MilestoneOf(ev domain.Event) domain.Milestone {
	return milestones[ev]
}

// Available lists the events that may fire from status s, in table order.
// Terminal statuses return an empty slice.
func Available(s domain.Status) []domain.Event {
	machine := fsm.NewFSM(string(s), events, nil)
	out := []domain.Event{}
	for _, e := range events {
		if machine.Can(e.Name) {
			out = append(out, domain.Event(e.Name))
		}
	}
	return out
}

// Events lists every event in the table.
func Events() []domain.Event {
	out := make([]domain.Event, len(events))
	for i, e := range events {
		out[i] = domain.Event(e.Name)
	}
	return out
}
