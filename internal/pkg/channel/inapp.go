package channel

import (
	"context"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/sse"
)

// SSE event names
const (
	EventNotification = "notification"
	EventEscalated    = "notification_escalated"
	EventTest         = "notification_test"
)

// InAppSender publishes to the notification center stream. The notification
// row is the in-app record, so a user without an open stream is not an error.
type InAppSender struct {
	hub *sse.Hub
}

func NewInAppSender(hub *sse.Hub) *InAppSender {
	return &InAppSender{hub: hub}
}

func (s *InAppSender) Channel() notification.Channel {
	return notification.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := EventNotification
	switch {
	case msg.Test:
		event = EventTest
	case msg.Escalation:
		event = EventEscalated
	}

	s.hub.Publish(msg.UserID, sse.Event{
		UserID: msg.UserID,
		Event:  event,
		Data: notification.NotificationResponse{
			ID:        msg.NotificationID,
			Type:      msg.Type,
			Category:  msg.Category,
			Priority:  msg.Priority,
			Title:     msg.Title,
			Message:   msg.Message,
			Data:      msg.Data,
			Channels:  []notification.Channel{notification.ChannelInApp},
			CreatedAt: msg.CreatedAt,
		},
	})
	return nil
}
