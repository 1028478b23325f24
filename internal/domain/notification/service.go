package notification

import (
	"context"
	"time"
)

// Service defines the notification service interface
type Service interface {
	// Candidate submission
	Submit(ctx context.Context, req SubmitNotificationRequest) (*SubmitResponse, error)
	QueueNotification(ctx context.Context, req SubmitNotificationRequest) error
	QueueBulkNotification(ctx context.Context, reqs []SubmitNotificationRequest) error

	// Dry run through a single adapter, bypassing policy evaluation
	SendTest(ctx context.Context, userID string, req TestNotificationRequest) (*DeliveryResult, error)

	// Notification center
	GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	Acknowledge(ctx context.Context, userID string, notificationID string) error
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error

	// Preferences
	GetPreferences(ctx context.Context, userID string) (*NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (*NotificationPreferences, error)
	ReplacePreferences(ctx context.Context, userID string, patch PreferencesPatch) (*NotificationPreferences, error)

	// Contacts
	GetContacts(ctx context.Context, userID string) (*ContactsResponse, error)
	UpdateContacts(ctx context.Context, userID string, req UpdateContactsRequest) (*ContactsResponse, error)

	// SSE subscription
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())

	// Background work driven by the cron scheduler
	ProcessEscalations(ctx context.Context) error
	FlushDigests(ctx context.Context) error

	// Lifecycle
	Stop()
}

// EscalationTimer arms and disarms re-notification deadlines
type EscalationTimer interface {
	// Arm schedules an escalation; re-arming replaces the previous deadline
	Arm(ctx context.Context, notificationID, userID string, escalateAt time.Time) error

	// Disarm cancels a pending escalation and is a no-op when none is armed
	Disarm(ctx context.Context, notificationIDs ...string) error
}
