package notification

import (
	"context"
	"time"
)

// DeliveryDecision is the outcome of evaluating a candidate against preferences
type DeliveryDecision struct {
	Category Category
	Channels ChannelSet

	// Batched is set when email was deferred to the digest queue instead of sent now
	Batched          bool
	BatchFrequency   BatchFrequency
	SuppressedReason string
	EscalateAt       *time.Time
}

const (
	SuppressedCategoryDisabled = "category_disabled"
	SuppressedQuietHours       = "quiet_hours"
	SuppressedNoChannels       = "no_channels"
)

// Suppressed reports whether nothing will be delivered now or later
func (d DeliveryDecision) Suppressed() bool {
	return d.SuppressedReason != ""
}

// OutboundMessage is what adapters receive. Data is passed through untouched.
type OutboundMessage struct {
	NotificationID string
	UserID         string
	Type           NotificationType
	Category       Category
	Priority       Priority
	Title          string
	Message        string
	Data           map[string]interface{}
	CreatedAt      time.Time
	Escalation     bool
	Test           bool
}

// Sender delivers a message over exactly one channel
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg OutboundMessage, to Recipient) error
}

// DigestSender delivers a grouped email digest
type DigestSender interface {
	SendDigest(ctx context.Context, to Recipient, digest Digest) error
}

// Digest is one email covering every batched item of a user in a window
type Digest struct {
	UserID    string
	Frequency BatchFrequency
	Sections  []DigestSection
}

// DigestSection groups digest items of a single category
type DigestSection struct {
	Category Category
	Items    []DigestItem
}

// DeliveryResult is the per-channel outcome of a fan-out
type DeliveryResult struct {
	Channel Channel        `json:"channel"`
	Status  DeliveryStatus `json:"status"`
	Error   string         `json:"error,omitempty"`
}
