package notification

import (
	"context"
	"time"
)

// Repository defines the notification repository interface
type Repository interface {
	// Notifications CRUD
	Create(ctx context.Context, notification *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string, userID string) error

	// MarkAsRead flips unread rows to read and returns the ids that actually changed
	MarkAsRead(ctx context.Context, ids []string, userID string) ([]string, error)
	MarkAllAsRead(ctx context.Context, userID string) ([]string, error)
	MarkEscalated(ctx context.Context, id string, at time.Time) error

	// Deliveries
	RecordDeliveries(ctx context.Context, deliveries []*Delivery) error
}

// PreferenceRepository persists one NotificationPreferences row per user
type PreferenceRepository interface {
	// Get returns ErrPreferenceNotFound when the user never saved preferences
	Get(ctx context.Context, userID string) (*NotificationPreferences, error)

	// Upsert merges patch into the stored row (or into defaults when absent),
	// field by field, and returns the merged record.
	Upsert(ctx context.Context, userID string, patch PreferencesPatch) (*NotificationPreferences, error)

	// Replace overwrites the whole record, category channel overrides included
	Replace(ctx context.Context, prefs *NotificationPreferences) (*NotificationPreferences, error)
}

// EscalationRepository persists escalation timers so they survive restarts
type EscalationRepository interface {
	Get(ctx context.Context, notificationID string) (*Escalation, error)

	// Arm inserts or replaces the timer for e.NotificationID and sets it armed
	Arm(ctx context.Context, e *Escalation) error

	// Disarm moves armed or firing timers to disarmed and returns how many changed
	Disarm(ctx context.Context, notificationIDs ...string) (int, error)

	// ClaimDue moves due armed timers (and firing timers whose lease expired) to
	// firing, stamping claimed_at, and returns them.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*Escalation, error)

	// Complete finishes a firing timer. It is a no-op if the timer left firing.
	Complete(ctx context.Context, notificationID string, status EscalationStatus) error
}

// DigestRepository queues batched emails until their window closes
type DigestRepository interface {
	Enqueue(ctx context.Context, item *DigestItem) error

	// ClaimDue stamps due items (and items whose claim is older than lease) as
	// claimed and returns them ordered by user and enqueue time. limit caps
	// the number of users; all due items of a claimed user are returned.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*DigestItem, error)

	// Complete deletes items that went out in a digest
	Complete(ctx context.Context, ids []string) error

	// Release returns claimed items to the queue after a failed send
	Release(ctx context.Context, ids []string) error
}

// ContactRepository stores the addresses adapters deliver to
type ContactRepository interface {
	// Get returns an empty Recipient for users without stored contacts
	Get(ctx context.Context, userID string) (*Recipient, error)
	Upsert(ctx context.Context, recipient *Recipient) error
}

// RateLimiter counts events in a fixed window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
