package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/sse"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
	"github.com/aicostguardian/guardian-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	channel notification.Channel
	mu      sync.Mutex
	sent    []notification.OutboundMessage
	err     error
}

func (f *fakeSender) Channel() notification.Channel { return f.channel }

func (f *fakeSender) Send(_ context.Context, msg notification.OutboundMessage, _ notification.Recipient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) Sent() []notification.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification.OutboundMessage(nil), f.sent...)
}

type fakeRegistry map[notification.Channel]*fakeSender

func (r fakeRegistry) Get(ch notification.Channel) (notification.Sender, bool) {
	s, ok := r[ch.Normalize()]
	if !ok {
		return nil, false
	}
	return s, true
}

type fakeDigestSender struct {
	mu      sync.Mutex
	digests []notification.Digest
	err     error
}

func (f *fakeDigestSender) SendDigest(_ context.Context, _ notification.Recipient, d notification.Digest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.digests = append(f.digests, d)
	return nil
}

type failingContacts struct {
	notification.ContactRepository
	err error
}

func (c failingContacts) Get(context.Context, string) (*notification.Recipient, error) {
	return nil, c.err
}

type fixture struct {
	svc      *service
	clock    *fakeClock
	senders  fakeRegistry
	digest   *fakeDigestSender
	notifs   memory.NotificationRepository
	prefs    notification.PreferenceRepository
	escs     notification.EscalationRepository
	digests  memory.DigestRepository
	contacts notification.ContactRepository
}

// Monday 2026-10-19 14:00 UTC, outside the default quiet window
var fixtureStart = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:    &fakeClock{now: fixtureStart},
		digest:   &fakeDigestSender{},
		notifs:   memory.NewNotificationRepository(),
		prefs:    memory.NewPreferenceRepository(),
		escs:     memory.NewEscalationRepository(),
		digests:  memory.NewDigestRepository(),
		contacts: memory.NewContactRepository(),
		senders:  fakeRegistry{},
	}
	for _, ch := range notification.AllChannels() {
		f.senders[ch] = &fakeSender{channel: ch}
	}

	svc := NewNotificationService(
		Repositories{
			Notifications: f.notifs,
			Preferences:   f.prefs,
			Escalations:   f.escs,
			Digests:       f.digests,
			Contacts:      f.contacts,
		},
		f.senders,
		f.digest,
		memory.NewRateLimiter(f.clock.Now),
		sse.NewHub(10),
		Config{
			WorkerCount:    1,
			QueueSize:      10,
			DigestHour:     9,
			TestSendLimit:  2,
			TestSendWindow: time.Minute,
			Now:            f.clock.Now,
		},
	)
	t.Cleanup(svc.Stop)
	f.svc = svc.(*service)

	require.NoError(t, f.contacts.Upsert(context.Background(), &notification.Recipient{
		UserID: "user-1",
		Email:  "ops@example.com",
	}))
	return f
}

func (f *fixture) patch(t *testing.T, p notification.PreferencesPatch) {
	t.Helper()
	_, err := f.svc.UpdatePreferences(context.Background(), "user-1", p)
	require.NoError(t, err)
}

func (f *fixture) sentOn(ch notification.Channel) []notification.OutboundMessage {
	return f.senders[ch].Sent()
}

func boolp(b bool) *bool    { return &b }
func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func submitReq(priority notification.Priority) notification.SubmitNotificationRequest {
	return notification.SubmitNotificationRequest{
		UserID:   "user-1",
		Type:     notification.TypeCostThresholdWarning,
		Priority: priority,
		Title:    "Cost threshold reached",
		Message:  "Spend is at 80% of the monthly budget",
		Data:     map[string]interface{}{"threshold": 80},
	}
}

func TestSubmit_DefaultsDeliverAndRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityMedium))
	require.NoError(t, err)

	assert.Equal(t, notification.CategoryCost, resp.Category)
	assert.Equal(t, []notification.Channel{notification.ChannelEmail, notification.ChannelPush, notification.ChannelInApp}, resp.Channels)
	assert.Empty(t, resp.SuppressedReason)
	assert.Nil(t, resp.EscalateAt)
	assert.Len(t, resp.Deliveries, 3)

	assert.Len(t, f.sentOn(notification.ChannelEmail), 1)
	assert.Len(t, f.sentOn(notification.ChannelPush), 1)
	assert.Len(t, f.sentOn(notification.ChannelInApp), 1)
	assert.Empty(t, f.sentOn(notification.ChannelSMS))

	stored, err := f.notifs.GetByID(ctx, resp.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, resp.Channels, stored.Channels)
	assert.False(t, stored.IsRead)
	assert.Len(t, f.notifs.Deliveries(resp.NotificationID), 3)

	// data passes through untouched
	assert.Equal(t, 80, f.sentOn(notification.ChannelEmail)[0].Data["threshold"])
}

func TestSubmit_ChannelFailureDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	f.senders[notification.ChannelEmail].err = errors.New("smtp down")

	resp, err := f.svc.Submit(context.Background(), submitReq(notification.PriorityMedium))
	require.NoError(t, err)

	byChannel := map[notification.Channel]notification.DeliveryResult{}
	for _, d := range resp.Deliveries {
		byChannel[d.Channel] = d
	}
	assert.Equal(t, notification.DeliveryFailed, byChannel[notification.ChannelEmail].Status)
	assert.Equal(t, "smtp down", byChannel[notification.ChannelEmail].Error)
	assert.Equal(t, notification.DeliverySucceeded, byChannel[notification.ChannelPush].Status)
	assert.Equal(t, notification.DeliverySucceeded, byChannel[notification.ChannelInApp].Status)
}

func TestSubmit_MissingAdapterIsAFailedDelivery(t *testing.T) {
	f := newFixture(t)
	delete(f.senders, notification.ChannelPush)

	resp, err := f.svc.Submit(context.Background(), submitReq(notification.PriorityMedium))
	require.NoError(t, err)

	for _, d := range resp.Deliveries {
		if d.Channel == notification.ChannelPush {
			assert.Equal(t, notification.DeliveryFailed, d.Status)
			assert.Equal(t, notification.ErrChannelNotConfigured.Error(), d.Error)
		}
	}
}

func TestSubmit_ContactsErrorPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{AutoEscalate: boolp(true)})
	f.svc.repos.Contacts = failingContacts{ContactRepository: f.contacts, err: errors.New("db down")}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Submit(ctx, submitReq(notification.PriorityHigh))
		require.Error(t, err)
	}

	_, total, err := f.notifs.GetByUserID(ctx, "user-1", 1, 10, false)
	require.NoError(t, err)
	assert.Zero(t, total)

	due, err := f.escs.ClaimDue(ctx, fixtureStart.Add(24*time.Hour), time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Empty(t, f.sentOn(notification.ChannelEmail))
}

func TestSubmit_DisabledCategoryIsRecordedButNotSent(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{CostAlerts: boolp(false), AutoEscalate: boolp(true)})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, submitReq(notification.PriorityCritical))
	require.NoError(t, err)

	assert.Equal(t, notification.SuppressedCategoryDisabled, resp.SuppressedReason)
	assert.Empty(t, resp.Channels)
	assert.Nil(t, resp.EscalateAt)
	for _, ch := range notification.AllChannels() {
		assert.Empty(t, f.sentOn(ch), ch)
	}

	stored, err := f.notifs.GetByID(ctx, resp.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, notification.SuppressedCategoryDisabled, stored.SuppressedReason)

	_, err = f.escs.Get(ctx, resp.NotificationID)
	assert.ErrorIs(t, err, notification.ErrEscalationNotFound)
}

func TestSubmit_ValidationAndUnknownType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), notification.SubmitNotificationRequest{Type: notification.TypeBudgetExceeded})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "user_id")

	resp, err := f.svc.Submit(context.Background(), notification.SubmitNotificationRequest{
		UserID: "user-1",
		Type:   "brand_new_event",
	})
	require.NoError(t, err)
	assert.Equal(t, notification.CategorySystem, resp.Category)
}

func TestSubmit_BatchedEmailGoesToDigest(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{
		BatchEmails:    boolp(true),
		BatchFrequency: func() *notification.BatchFrequency { v := notification.BatchHourly; return &v }(),
	})

	resp, err := f.svc.Submit(context.Background(), submitReq(notification.PriorityMedium))
	require.NoError(t, err)

	assert.True(t, resp.Batched)
	assert.NotContains(t, resp.Channels, notification.ChannelEmail)
	assert.Empty(t, f.sentOn(notification.ChannelEmail))

	pending := f.digests.Pending("user-1")
	require.Len(t, pending, 1)
	assert.Equal(t, resp.NotificationID, pending[0].NotificationID)
	assert.Equal(t, fixtureStart.Add(time.Hour), pending[0].DueAt)
}

func TestMarkAllAsRead_DisarmsEscalations(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{AutoEscalate: boolp(true)})
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, submitReq(notification.PriorityHigh))
	require.NoError(t, err)
	b, err := f.svc.Submit(ctx, submitReq(notification.PriorityCritical))
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkAllAsRead(ctx, "user-1"))

	for _, id := range []string{a.NotificationID, b.NotificationID} {
		e, err := f.escs.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, notification.EscalationDisarmed, e.Status)
	}
	count, err := f.svc.GetUnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAcknowledge_OtherUsersNotification(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Submit(context.Background(), submitReq(notification.PriorityLow))
	require.NoError(t, err)

	err = f.svc.Acknowledge(context.Background(), "user-2", resp.NotificationID)
	assert.ErrorIs(t, err, notification.ErrUnauthorized)

	err = f.svc.Acknowledge(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestPreferences_GetPatchReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, notification.DefaultPreferences("user-1"), *got)

	got, err = f.svc.UpdatePreferences(ctx, "user-1", notification.PreferencesPatch{
		SMSEnabled: boolp(true),
		Timezone:   strp("Europe/Berlin"),
	})
	require.NoError(t, err)
	assert.True(t, got.SMSEnabled)
	assert.Equal(t, "Europe/Berlin", got.Timezone)

	got, err = f.svc.UpdatePreferences(ctx, "user-1", notification.PreferencesPatch{PushEnabled: boolp(false)})
	require.NoError(t, err)
	assert.True(t, got.SMSEnabled, "earlier patch survives")
	assert.False(t, got.PushEnabled)

	got, err = f.svc.ReplacePreferences(ctx, "user-1", notification.PreferencesPatch{SlackEnabled: boolp(true)})
	require.NoError(t, err)
	assert.True(t, got.SlackEnabled)
	assert.False(t, got.SMSEnabled, "fields missing from a replace take defaults")
	assert.True(t, got.PushEnabled)
	assert.Equal(t, "UTC", got.Timezone)

	_, err = f.svc.UpdatePreferences(ctx, "user-1", notification.PreferencesPatch{EscalateAfterMinutes: intp(1)})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "escalate_after_minutes")
}

func TestSendTest_PreferredChannelAndRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.SendTest(ctx, "user-1", notification.TestNotificationRequest{})
	require.NoError(t, err)
	assert.Equal(t, notification.ChannelEmail, result.Channel)
	assert.Equal(t, notification.DeliverySucceeded, result.Status)

	sent := f.sentOn(notification.ChannelEmail)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Test)

	result, err = f.svc.SendTest(ctx, "user-1", notification.TestNotificationRequest{Channel: notification.ChannelWebhook, Message: "ping"})
	require.NoError(t, err)
	assert.Equal(t, notification.ChannelTeams, result.Channel)
	assert.Equal(t, "ping", f.sentOn(notification.ChannelTeams)[0].Message)

	_, err = f.svc.SendTest(ctx, "user-1", notification.TestNotificationRequest{Channel: notification.ChannelSMS})
	assert.ErrorIs(t, err, notification.ErrTestRateLimited)

	f.clock.Advance(time.Minute)
	_, err = f.svc.SendTest(ctx, "user-1", notification.TestNotificationRequest{Channel: notification.ChannelSMS})
	assert.NoError(t, err)
}

func TestSendTest_DisabledChannelStillSends(t *testing.T) {
	f := newFixture(t)
	f.patch(t, notification.PreferencesPatch{SMSEnabled: boolp(false)})

	result, err := f.svc.SendTest(context.Background(), "user-1", notification.TestNotificationRequest{Channel: notification.ChannelSMS})
	require.NoError(t, err)
	assert.Equal(t, notification.DeliverySucceeded, result.Status)
}

func TestSendTest_UnconfiguredChannel(t *testing.T) {
	f := newFixture(t)
	delete(f.senders, notification.ChannelSlack)

	_, err := f.svc.SendTest(context.Background(), "user-1", notification.TestNotificationRequest{Channel: notification.ChannelSlack})
	assert.ErrorIs(t, err, notification.ErrChannelNotConfigured)
}

func TestFlushDigests_OneEmailPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	daily := notification.BatchDaily

	for _, user := range []string{"user-1", "user-2"} {
		_, err := f.svc.UpdatePreferences(ctx, user, notification.PreferencesPatch{BatchEmails: boolp(true), BatchFrequency: &daily})
		require.NoError(t, err)
	}

	submit := func(user string, nt notification.NotificationType) {
		_, err := f.svc.Submit(ctx, notification.SubmitNotificationRequest{UserID: user, Type: nt, Priority: notification.PriorityLow, Title: string(nt)})
		require.NoError(t, err)
	}
	submit("user-1", notification.TypeCostSpikeDetected)
	submit("user-1", notification.TypeRateLimitWarning)
	submit("user-1", notification.TypeBudgetExceeded)
	submit("user-2", notification.TypeOptimizationTip)

	// window closes tomorrow 09:00
	require.NoError(t, f.svc.FlushDigests(ctx))
	assert.Empty(t, f.digest.digests)

	f.clock.Advance(20 * time.Hour)
	require.NoError(t, f.svc.FlushDigests(ctx))

	require.Len(t, f.digest.digests, 2)
	first := f.digest.digests[0]
	assert.Equal(t, "user-1", first.UserID)
	assert.Equal(t, notification.BatchDaily, first.Frequency)
	require.Len(t, first.Sections, 2)
	assert.Equal(t, notification.CategoryCost, first.Sections[0].Category)
	assert.Len(t, first.Sections[0].Items, 2)
	assert.Equal(t, notification.CategoryUsage, first.Sections[1].Category)

	assert.Empty(t, f.digests.Pending("user-1"))
	assert.Empty(t, f.digests.Pending("user-2"))
}

func TestFlushDigests_FailureReleasesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hourly := notification.BatchHourly
	f.patch(t, notification.PreferencesPatch{BatchEmails: boolp(true), BatchFrequency: &hourly})

	_, err := f.svc.Submit(ctx, submitReq(notification.PriorityLow))
	require.NoError(t, err)

	f.digest.err = errors.New("smtp down")
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.FlushDigests(ctx))
	assert.Len(t, f.digests.Pending("user-1"), 1)

	f.digest.err = nil
	require.NoError(t, f.svc.FlushDigests(ctx))
	assert.Len(t, f.digest.digests, 1)
	assert.Empty(t, f.digests.Pending("user-1"))
}

func TestFlushDigests_UndeliverableItemsAreDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hourly := notification.BatchHourly
	f.patch(t, notification.PreferencesPatch{BatchEmails: boolp(true), BatchFrequency: &hourly})

	_, err := f.svc.Submit(ctx, submitReq(notification.PriorityLow))
	require.NoError(t, err)

	f.digest.err = notification.ErrNoRecipientAddress
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.FlushDigests(ctx))
	assert.Empty(t, f.digests.Pending("user-1"))

	// nothing left to retry on later sweeps
	f.digest.err = nil
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.FlushDigests(ctx))
	assert.Empty(t, f.digest.digests)
}

func TestQueueNotification_ProcessedByWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.QueueNotification(ctx, submitReq(notification.PriorityMedium)))

	assert.Eventually(t, func() bool {
		return len(f.sentOn(notification.ChannelEmail)) == 1
	}, time.Second, 10*time.Millisecond)

	err := f.svc.QueueNotification(ctx, notification.SubmitNotificationRequest{})
	assert.Error(t, err)
}

func TestQueueBulkNotification_ReportsIndexedErrors(t *testing.T) {
	f := newFixture(t)

	err := f.svc.QueueBulkNotification(context.Background(), []notification.SubmitNotificationRequest{
		submitReq(notification.PriorityLow),
		{Type: notification.TypeDailySummary, Priority: "URGENT"},
	})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := verrs.ToMap()
	assert.Contains(t, fields, "notifications[1].user_id")
	assert.Contains(t, fields, "notifications[1].priority")
	assert.Empty(t, f.sentOn(notification.ChannelEmail), "nothing queued when any item is invalid")
}

func TestStop_DrainsQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.svc.QueueNotification(ctx, submitReq(notification.PriorityLow)))
	}
	f.svc.Stop()

	assert.Len(t, f.sentOn(notification.ChannelEmail), 5)
}

func TestSubscribe_ReceivesInAppEvents(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, cleanup := f.svc.Subscribe(ctx, "user-1")
	defer cleanup()

	f.svc.hub.Publish("user-1", sse.Event{
		UserID: "user-1",
		Event:  "notification",
		Data:   notification.NotificationResponse{ID: "n-1", Title: "hello"},
	})

	select {
	case ev := <-events:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, "n-1", ev.Data.ID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestGetNotifications_Paginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Submit(ctx, submitReq(notification.PriorityLow))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	list, err := f.svc.GetNotifications(ctx, "user-1", 0, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 3, list.UnreadCount)
	assert.Len(t, list.Notifications, 3)
}

func TestContacts_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateContacts(ctx, "user-1", notification.UpdateContactsRequest{Phone: "0812"})
	assert.Error(t, err)

	got, err := f.svc.UpdateContacts(ctx, "user-1", notification.UpdateContactsRequest{
		Email:           "new@example.com",
		Phone:           "+14155550100",
		SlackWebhookURL: "https://hooks.slack.com/services/T000/B000/XXX",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)

	got, err = f.svc.GetContacts(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "+14155550100", got.Phone)
}

func TestNextDigestDue(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// Monday 14:20 UTC == Monday 21:20 in Jakarta
	now := time.Date(2026, 10, 19, 14, 20, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq notification.BatchFrequency
		loc  *time.Location
		want time.Time
	}{
		{"hourly utc", notification.BatchHourly, time.UTC, time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)},
		{"daily utc", notification.BatchDaily, time.UTC, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)},
		{"daily jakarta", notification.BatchDaily, jakarta, time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC)},
		{"weekly utc", notification.BatchWeekly, time.UTC, time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC)},
		{"immediate", notification.BatchImmediate, time.UTC, now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDigestDue(tt.freq, tt.loc, 9, now))
		})
	}

	mondayMorning := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), NextDigestDue(notification.BatchWeekly, time.UTC, 9, mondayMorning))
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), NextDigestDue(notification.BatchDaily, time.UTC, 9, mondayMorning))
}
