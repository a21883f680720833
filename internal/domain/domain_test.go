package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dockgate/internal/domain"
)

func TestParseStatus(t *testing.T) {
	for _, s := range domain.Statuses {
		got, err := domain.ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := domain.ParseStatus("parked")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStatus_Terminal(t *testing.T) {
	terminal := map[domain.Status]bool{
		domain.StatusExited:             true,
		domain.StatusRejected:           true,
		domain.StatusRejectedNeedRebook: true,
		domain.StatusCancelled:          true,
		domain.StatusNoShow:             true,
	}
	for _, s := range domain.Statuses {
		assert.Equal(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestStatus_OccupiesGate(t *testing.T) {
	assert.True(t, domain.StatusCalled.OccupiesGate())
	assert.True(t, domain.StatusLoading.OccupiesGate())
	assert.False(t, domain.StatusCompleted.OccupiesGate(), "completed visits vacate the dock")
	assert.False(t, domain.StatusCheckedIn.OccupiesGate())
}

func TestStatus_InFacility(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusAtGate, domain.StatusCalled, domain.StatusLoading} {
		assert.True(t, s.InFacility(), "status %s", s)
	}
	assert.False(t, domain.StatusCheckedIn.InFacility(), "queued trucks are not inside yet")
	assert.False(t, domain.StatusCompleted.InFacility(), "completed trucks have left the dock")
	assert.False(t, domain.StatusExited.InFacility())
}

func TestPurpose_Direction(t *testing.T) {
	assert.Equal(t, "OUT", domain.PurposeLoading.Direction())
	assert.Equal(t, "IN", domain.PurposeUnloading.Direction())
}

func TestVisit_ArrivedAt(t *testing.T) {
	reg := time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC)
	ver := reg.Add(2 * time.Hour)

	v := domain.Visit{CheckInTime: &reg}
	assert.Equal(t, &reg, v.ArrivedAt())

	v.VerifiedTime = &ver
	assert.Equal(t, &ver, v.ArrivedAt())
}

func TestInvalidStateError(t *testing.T) {
	id := uuid.New()
	var err error = &domain.InvalidStateError{
		VisitID:  id,
		Event:    domain.EventCall,
		Expected: []domain.Status{domain.StatusCheckedIn},
		Actual:   domain.StatusCalled,
	}
	wrapped := fmt.Errorf("service: %w", err)

	assert.ErrorIs(t, wrapped, domain.ErrInvalidState)
	assert.NotErrorIs(t, wrapped, domain.ErrGateOccupied)
	assert.Contains(t, err.Error(), "CHECKED_IN")
	assert.Contains(t, err.Error(), "CALLED")

	var ise *domain.InvalidStateError
	require.True(t, errors.As(wrapped, &ise))
	assert.Equal(t, "cannot call to a dock: this vehicle is already called to a dock", ise.OperatorMessage())
}

func TestGateOccupiedError(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &domain.GateOccupiedError{GateID: "DOCK_1"})

	assert.ErrorIs(t, err, domain.ErrGateOccupied)
	var goe *domain.GateOccupiedError
	require.True(t, errors.As(err, &goe))
	assert.Contains(t, goe.OperatorMessage(), "DOCK_1")
}

func TestNotificationError(t *testing.T) {
	cause := errors.New("gateway down")
	err := &domain.NotificationError{Event: domain.EventApprove, Destination: "0812", Err: cause}

	assert.ErrorIs(t, err, domain.ErrNotification)
	assert.ErrorIs(t, err, cause)
}

func TestGateConfig_Normalize(t *testing.T) {
	g, err := domain.GateConfig{ID: " DOCK_1 "}.Normalize()

	require.NoError(t, err)
	assert.Equal(t, "DOCK_1", g.ID)
	assert.Equal(t, "DOCK_1", g.Name)
	assert.Equal(t, domain.GateDock, g.Type)
	assert.Equal(t, domain.GateOpen, g.Status)
	assert.Equal(t, 1, g.Capacity)

	_, err = domain.GateConfig{ID: "DOCK_2", Capacity: 3}.Normalize()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.GateConfig{Name: "nameless"}.Normalize()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGateStatus_Serviceable(t *testing.T) {
	assert.True(t, domain.GateOpen.Serviceable())
	assert.True(t, domain.GateAvailable.Serviceable())
	assert.False(t, domain.GateMaintenance.Serviceable())
	assert.False(t, domain.GateClosed.Serviceable())
}

func TestView_Statuses(t *testing.T) {
	inside, err := domain.ViewInside.Statuses()
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Status{domain.StatusAtGate, domain.StatusCalled, domain.StatusLoading}, inside)

	_, err = domain.View("yard").Statuses()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewPaginationParams(t *testing.T) {
	p := domain.NewPaginationParams(nil, nil)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.Limit)

	page, limit := 3, 10_000
	p = domain.NewPaginationParams(&page, &limit)
	assert.Equal(t, domain.MaxPageLimit, p.Limit)
	assert.Equal(t, 2*domain.MaxPageLimit, p.Offset())
}
