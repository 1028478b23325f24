package channel

import "github.com/aicostguardian/guardian-backend-go/internal/domain/notification"

func priorityColor(p notification.Priority) string {
	switch p {
	case notification.PriorityCritical:
		return "#B91C1C"
	case notification.PriorityHigh:
		return "#EA580C"
	case notification.PriorityMedium:
		return "#CA8A04"
	}
	return "#2563EB"
}

func headline(msg notification.OutboundMessage) string {
	switch {
	case msg.Test:
		return "[Test] " + msg.Title
	case msg.Escalation:
		return "[Escalated] " + msg.Title
	}
	return msg.Title
}
