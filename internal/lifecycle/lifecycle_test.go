package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/lifecycle"
)

func TestNext_HappyPath(t *testing.T) {
	steps := []struct {
		ev   domain.Event
		want domain.Status
	}{
		{domain.EventApprove, domain.StatusBooked},
		{domain.EventCheckIn, domain.StatusCheckedIn},
		{domain.EventCall, domain.StatusCalled},
		{domain.EventStartLoading, domain.StatusLoading},
		{domain.EventFinish, domain.StatusCompleted},
		{domain.EventExit, domain.StatusExited},
	}

	cur := domain.StatusPendingReview
	for _, step := range steps {
		next, err := lifecycle.Next(cur, step.ev)
		require.NoError(t, err, "event %s from %s", step.ev, cur)
		assert.Equal(t, step.want, next)
		cur = next
	}
}

func TestNext_Rejections(t *testing.T) {
	next, err := lifecycle.Next(domain.StatusPendingReview, domain.EventReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, next)

	next, err = lifecycle.Next(domain.StatusBooked, domain.EventRejectAtGate)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejectedNeedRebook, next)
}

func TestNext_InvalidSourceCarriesExpectedAndActual(t *testing.T) {
	_, err := lifecycle.Next(domain.StatusLoading, domain.EventApprove)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var ise *domain.InvalidStateError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, domain.StatusLoading, ise.Actual)
	assert.Equal(t, []domain.Status{domain.StatusPendingReview}, ise.Expected)
	assert.Equal(t, domain.EventApprove, ise.Event)
}

func TestNext_UnknownEvent(t *testing.T) {
	_, err := lifecycle.Next(domain.StatusBooked, domain.Event("teleport"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNext_UnknownStatus(t *testing.T) {
	_, err := lifecycle.Next(domain.Status("PARKED"), domain.EventCall)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, s := range domain.Statuses {
		if !s.IsTerminal() {
			continue
		}
		assert.Empty(t, lifecycle.Available(s), "terminal status %s must not transition", s)
		for _, ev := range lifecycle.Events() {
			_, err := lifecycle.Next(s, ev)
			assert.ErrorIs(t, err, domain.ErrInvalidState, "%s from %s", ev, s)
		}
	}
}

// Every destination in the table must be a member of the status enum.
func TestEveryTransitionLandsInEnum(t *testing.T) {
	for _, s := range domain.Statuses {
		for _, ev := range lifecycle.Available(s) {
			next, err := lifecycle.Next(s, ev)
			require.NoError(t, err)
			assert.True(t, next.Valid(), "%s from %s landed on %q", ev, s, next)
		}
	}
}

func TestExitOverrideSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.Status{domain.StatusCalled, domain.StatusLoading},
		lifecycle.Sources(domain.EventExitOverride))

	_, err := lifecycle.Next(domain.StatusCheckedIn, domain.EventExitOverride)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMilestoneOf(t *testing.T) {
	assert.Equal(t, domain.MilestoneVerified, lifecycle.MilestoneOf(domain.EventCheckIn))
	assert.Equal(t, domain.MilestoneCalled, lifecycle.MilestoneOf(domain.EventCall))
	assert.Equal(t, domain.MilestoneLoadingStart, lifecycle.MilestoneOf(domain.EventStartLoading))
	assert.Equal(t, domain.MilestoneEnd, lifecycle.MilestoneOf(domain.EventFinish))
	assert.Equal(t, domain.MilestoneExit, lifecycle.MilestoneOf(domain.EventExit))
	assert.Equal(t, domain.MilestoneNone, lifecycle.MilestoneOf(domain.EventApprove))
}

func TestAvailable(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.Event{domain.EventApprove, domain.EventReject, domain.EventCancel},
		lifecycle.Available(domain.StatusPendingReview))
	assert.ElementsMatch(t,
		[]domain.Event{domain.EventCheckIn, domain.EventRejectAtGate, domain.EventCancel, domain.EventNoShow},
		lifecycle.Available(domain.StatusBooked))
	assert.Empty(t, lifecycle.Available(domain.StatusAtGate))
}
