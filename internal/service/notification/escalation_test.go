package notification

import (
	"context"
	"testing"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalation_FiresWhenUnacknowledged(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{AutoEscalate: boolp(true), EscalateAfterMinutes: intp(30)})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityHigh))
	require.NoError(t, err)
	require.NotNil(t, resp.EscalateAt)
	assert.Equal(t, fixtureStart.Add(30*time.Minute), *resp.EscalateAt)

	// not due yet
	f.clock.Advance(29 * time.Minute)
	require.NoError(t, f.svc.ProcessEscalations(ctx))
	assert.Len(t, f.sentOn(notification.ChannelEmail), 1)

	f.clock.Advance(2 * time.Minute)
	require.NoError(t, f.svc.ProcessEscalations(ctx))

	emails := f.sentOn(notification.ChannelEmail)
	require.Len(t, emails, 2)
	assert.True(t, emails[1].Escalation)
	assert.Equal(t, notification.PriorityCritical, emails[1].Priority)
	assert.Equal(t, resp.NotificationID, emails[1].NotificationID)

	e, err := f.escs.Get(ctx, resp.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, notification.EscalationFired, e.Status)

	stored, err := f.notifs.GetByID(ctx, resp.NotificationID)
	require.NoError(t, err)
	require.NotNil(t, stored.EscalatedAt)

	// fired is terminal
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.ProcessEscalations(ctx))
	assert.Len(t, f.sentOn(notification.ChannelEmail), 2)
}

func TestEscalation_AcknowledgedBeforeDeadline(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{AutoEscalate: boolp(true)})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityCritical))
	require.NoError(t, err)

	require.NoError(t, f.svc.Acknowledge(ctx, "user-1", resp.NotificationID))
	// acknowledging again is not an error
	require.NoError(t, f.svc.Acknowledge(ctx, "user-1", resp.NotificationID))

	e, err := f.escs.Get(ctx, resp.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, notification.EscalationDisarmed, e.Status)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.ProcessEscalations(ctx))
	assert.Len(t, f.sentOn(notification.ChannelEmail), 1)
}

func TestEscalation_FireAfterAckIsNoop(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{AutoEscalate: boolp(true)})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityCritical))
	require.NoError(t, err)

	// the read lands but the disarm is lost, e.g. a crash between the two writes
	_, err = f.notifs.MarkAsRead(ctx, []string{resp.NotificationID}, "user-1")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.ProcessEscalations(ctx))

	assert.Len(t, f.sentOn(notification.ChannelEmail), 1)
	e, err := f.escs.Get(ctx, resp.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, notification.EscalationDisarmed, e.Status)
}

func TestEscalation_BypassesQuietHours(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{
		AutoEscalate:      boolp(true),
		QuietHoursEnabled: boolp(true),
		QuietHoursStart:   strp("13:00"),
		QuietHoursEnd:     strp("18:00"),
	})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityHigh))
	require.NoError(t, err)
	assert.NotContains(t, resp.Channels, notification.ChannelPush)

	f.clock.Advance(31 * time.Minute)
	require.NoError(t, f.svc.ProcessEscalations(ctx))

	pushes := f.sentOn(notification.ChannelPush)
	require.Len(t, pushes, 1)
	assert.True(t, pushes[0].Escalation)
}

func TestEscalationTimer_DisarmIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEscalationRepository()
	timer := NewEscalationTimer(repo, func() time.Time { return fixtureStart })

	require.NoError(t, timer.Disarm(ctx, "never-armed"))

	require.NoError(t, timer.Arm(ctx, "n-1", "user-1", fixtureStart.Add(time.Hour)))
	require.NoError(t, timer.Arm(ctx, "n-1", "user-1", fixtureStart.Add(2*time.Hour)))

	e, err := repo.Get(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, fixtureStart.Add(2*time.Hour), e.EscalateAt)

	require.NoError(t, timer.Disarm(ctx, "n-1"))
	require.NoError(t, timer.Disarm(ctx, "n-1"))

	due, err := repo.ClaimDue(ctx, fixtureStart.Add(3*time.Hour), time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}
