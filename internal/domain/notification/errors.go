package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnauthorized         = errors.New("unauthorized to access this notification")
	ErrPreferenceNotFound   = errors.New("notification preference not found")

	// Delivery
	ErrChannelNotConfigured = errors.New("channel adapter not configured")
	ErrNoRecipientAddress   = errors.New("recipient has no address for this channel")
	ErrNoActiveConnection   = errors.New("recipient has no active connection")
	ErrTestRateLimited      = errors.New("too many test notifications, try again later")

	// Escalation
	ErrEscalationNotFound = errors.New("escalation not found")
)
