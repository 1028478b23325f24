package channel

import (
	"context"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/ws"
)

// PushSender writes to the user's open WebSocket connections
type PushSender struct {
	manager *ws.Manager
}

func NewPushSender(manager *ws.Manager) *PushSender {
	return &PushSender{manager: manager}
}

func (s *PushSender) Channel() notification.Channel {
	return notification.ChannelPush
}

// PushMessage is the JSON frame written to push clients
type PushMessage struct {
	NotificationID string                        `json:"notification_id"`
	Type           notification.NotificationType `json:"type"`
	Category       notification.Category         `json:"category"`
	Priority       notification.Priority         `json:"priority"`
	Title          string                        `json:"title"`
	Body           string                        `json:"body"`
	Data           map[string]interface{}        `json:"data,omitempty"`
	Escalation     bool                          `json:"escalation,omitempty"`
	Test           bool                          `json:"test,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
}

func (s *PushSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame := PushMessage{
		NotificationID: msg.NotificationID,
		Type:           msg.Type,
		Category:       msg.Category,
		Priority:       msg.Priority,
		Title:          msg.Title,
		Body:           msg.Message,
		Data:           msg.Data,
		Escalation:     msg.Escalation,
		Test:           msg.Test,
		CreatedAt:      msg.CreatedAt,
	}
	if s.manager.Send(msg.UserID, frame) == 0 {
		return notification.ErrNoActiveConnection
	}
	return nil
}
