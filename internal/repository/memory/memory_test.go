package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestNotificationRepository_PaginationAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &notification.Notification{
			ID:        fmt.Sprintf("n-%d", i),
			UserID:    "user-1",
			Type:      notification.TypeDailySummary,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &notification.Notification{ID: "other", UserID: "user-2", CreatedAt: t0}))

	page, total, err := repo.GetByUserID(ctx, "user-1", 1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "n-4", page[0].ID)
	assert.Equal(t, "n-3", page[1].ID)

	changed, err := repo.MarkAsRead(ctx, []string{"n-1", "n-2", "other"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n-1", "n-2"}, changed)

	changed, err = repo.MarkAsRead(ctx, []string{"n-1"}, "user-1")
	require.NoError(t, err)
	assert.Empty(t, changed)

	count, err := repo.GetUnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	unread, total, err := repo.GetByUserID(ctx, "user-1", 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, unread, 3)

	changed, err = repo.MarkAllAsRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n-0", "n-3", "n-4"}, changed)

	assert.ErrorIs(t, repo.Delete(ctx, "other", "user-1"), notification.ErrNotificationNotFound)
	assert.NoError(t, repo.Delete(ctx, "other", "user-2"))
}

func TestPreferenceRepository_UpsertMergesPerField(t *testing.T) {
	ctx := context.Background()
	repo := NewPreferenceRepository()

	_, err := repo.Get(ctx, "user-1")
	assert.ErrorIs(t, err, notification.ErrPreferenceNotFound)

	on, tz := true, "Asia/Tokyo"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = repo.Upsert(ctx, "user-1", notification.PreferencesPatch{SlackEnabled: &on})
	}()
	go func() {
		defer wg.Done()
		_, _ = repo.Upsert(ctx, "user-1", notification.PreferencesPatch{Timezone: &tz})
	}()
	wg.Wait()

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.SlackEnabled)
	assert.Equal(t, "Asia/Tokyo", got.Timezone)
	assert.True(t, got.EmailEnabled, "untouched fields keep their defaults")
}

func TestPreferenceRepository_ReplaceDropsOverrides(t *testing.T) {
	ctx := context.Background()
	repo := NewPreferenceRepository()

	_, err := repo.Upsert(ctx, "user-1", notification.PreferencesPatch{
		CategoryChannels: map[notification.Category][]notification.Channel{
			notification.CategoryCost: {notification.ChannelEmail},
		},
	})
	require.NoError(t, err)

	full := notification.DefaultPreferences("user-1")
	_, err = repo.Replace(ctx, &full)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.CategoryChannels)
}

func TestEscalationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewEscalationRepository()

	require.NoError(t, repo.Arm(ctx, &notification.Escalation{NotificationID: "n-1", UserID: "u", EscalateAt: t0}))
	require.NoError(t, repo.Arm(ctx, &notification.Escalation{NotificationID: "n-2", UserID: "u", EscalateAt: t0.Add(time.Hour)}))

	due, err := repo.ClaimDue(ctx, t0, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "n-1", due[0].NotificationID)
	assert.Equal(t, 1, due[0].Attempts)

	// claimed and within lease: not handed out again
	due, err = repo.ClaimDue(ctx, t0.Add(30*time.Second), time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// lease expired: reclaimed
	due, err = repo.ClaimDue(ctx, t0.Add(2*time.Minute), time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Attempts)

	require.NoError(t, repo.Complete(ctx, "n-1", notification.EscalationFired))
	e, err := repo.Get(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, notification.EscalationFired, e.Status)

	// fired timers stay fired
	n, err := repo.Disarm(ctx, "n-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Disarm(ctx, "n-2", "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.Disarm(ctx, "n-2")
	require.NoError(t, err)
	assert.Zero(t, n)

	// complete after disarm is ignored
	require.NoError(t, repo.Complete(ctx, "n-2", notification.EscalationFired))
	e, err = repo.Get(ctx, "n-2")
	require.NoError(t, err)
	assert.Equal(t, notification.EscalationDisarmed, e.Status)
}

func TestDigestRepository_ClaimReleaseComplete(t *testing.T) {
	ctx := context.Background()
	repo := NewDigestRepository()

	require.NoError(t, repo.Enqueue(ctx, &notification.DigestItem{ID: "a", UserID: "u", DueAt: t0, EnqueuedAt: t0.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Enqueue(ctx, &notification.DigestItem{ID: "b", UserID: "u", DueAt: t0, EnqueuedAt: t0.Add(-time.Hour)}))
	require.NoError(t, repo.Enqueue(ctx, &notification.DigestItem{ID: "c", UserID: "u", DueAt: t0.Add(time.Hour), EnqueuedAt: t0}))

	items, err := repo.ClaimDue(ctx, t0, 10*time.Minute, 100)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)

	items, err = repo.ClaimDue(ctx, t0, 10*time.Minute, 100)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Release(ctx, []string{"a"}))
	items, err = repo.ClaimDue(ctx, t0, 10*time.Minute, 100)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, repo.Complete(ctx, []string{"a", "b"}))
	pending := repo.Pending("u")
	require.Len(t, pending, 1)
	assert.Equal(t, "c", pending[0].ID)
}

func TestDigestRepository_ClaimLimitsUsersNotItems(t *testing.T) {
	ctx := context.Background()
	repo := NewDigestRepository()

	for i, user := range []string{"u1", "u1", "u1", "u2"} {
		require.NoError(t, repo.Enqueue(ctx, &notification.DigestItem{
			ID:         fmt.Sprintf("%s-%d", user, i),
			UserID:     user,
			DueAt:      t0,
			EnqueuedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, err := repo.ClaimDue(ctx, t0, 10*time.Minute, 1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, "u1", it.UserID)
	}

	items, err = repo.ClaimDue(ctx, t0, 10*time.Minute, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u2", items[0].UserID)
}

func TestContactRepository_EmptyWhenMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewContactRepository()

	r, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", r.UserID)
	assert.Empty(t, r.Email)

	require.NoError(t, repo.Upsert(ctx, &notification.Recipient{UserID: "user-1", Email: "a@example.com"}))
	r, err = repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", r.Email)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := t0
	l := NewRateLimiter(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k", 3, time.Minute)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other", 3, time.Minute)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "k", 3, time.Minute)
	assert.True(t, ok)
}
