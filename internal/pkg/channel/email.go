package channel

import (
	"context"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/email"
)

// EmailSender delivers alerts and digests through the SMTP email service
type EmailSender struct {
	svc email.EmailService
}

func NewEmailSender(svc email.EmailService) *EmailSender {
	return &EmailSender{svc: svc}
}

func (s *EmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if to.Email == "" {
		return notification.ErrNoRecipientAddress
	}
	return s.svc.SendAlert(ctx, to.Email, email.AlertEmailData{
		Title:      msg.Title,
		Message:    msg.Message,
		Category:   string(msg.Category),
		Priority:   string(msg.Priority),
		Escalation: msg.Escalation,
		Test:       msg.Test,
		Details:    msg.Data,
		SentAt:     msg.CreatedAt.UTC().Format(time.RFC1123),
	})
}

// SendDigest renders one email with a section per category
func (s *EmailSender) SendDigest(ctx context.Context, to notification.Recipient, digest notification.Digest) error {
	if to.Email == "" {
		return notification.ErrNoRecipientAddress
	}

	data := email.DigestEmailData{Frequency: string(digest.Frequency)}
	for _, section := range digest.Sections {
		sd := email.DigestSectionData{Category: string(section.Category)}
		for _, item := range section.Items {
			sd.Items = append(sd.Items, email.DigestItemData{
				Title:   item.Title,
				Message: item.Message,
				At:      item.EnqueuedAt.UTC().Format("Jan 2 15:04 MST"),
			})
		}
		data.Total += len(sd.Items)
		data.Sections = append(data.Sections, sd)
	}
	return s.svc.SendDigest(ctx, to.Email, data)
}
