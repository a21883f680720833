package domain

import (
	"fmt"
	"strings"
)

// View is a named dashboard tab mapping to a fixed set of statuses.
type View string

const (
	ViewQueue   View = "queue"
	ViewInside  View = "inside"
	ViewHistory View = "history"
)

// Statuses returns the statuses shown under v.
func (v View) Statuses() ([]Status, error) {
	switch v {
	case ViewQueue:
		return []Status{StatusBooked, StatusCheckedIn}, nil
	case ViewInside:
		return []Status{StatusAtGate, StatusCalled, StatusLoading}, nil
	case ViewHistory:
		return []Status{
			StatusCompleted, StatusExited, StatusRejected,
			StatusRejectedNeedRebook, StatusCancelled, StatusNoShow,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown view %q", ErrValidation, v)
}

// VisitFilter narrows a visit listing.
// An empty Statuses slice matches every status. Search is matched
// case-insensitively against booking code, plate, driver name, company and PO.
type VisitFilter struct {
	Statuses []Status
	Search   string
}

// Normalize trims the search term and rejects unknown statuses.
func (f VisitFilter) Normalize() (VisitFilter, error) {
	f.Search = strings.TrimSpace(f.Search)
	for _, s := range f.Statuses {
		if !s.Valid() {
			return VisitFilter{}, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
		}
	}
	return f, nil
}
