package channel

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

// maxSMSLength keeps a message inside a single GSM-7 segment
const maxSMSLength = 160

// SMSSender posts form-encoded messages to an SMS gateway
type SMSSender struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewSMSSender(cfg config.SMSConfig, client *http.Client) *SMSSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &SMSSender{cfg: cfg, client: client}
}

func (s *SMSSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

func (s *SMSSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if s.cfg.Endpoint == "" {
		return notification.ErrChannelNotConfigured
	}
	if to.Phone == "" {
		return notification.ErrNoRecipientAddress
	}

	form := url.Values{}
	form.Set("to", to.Phone)
	form.Set("from", s.cfg.Sender)
	form.Set("message", smsText(msg))

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}
	return post(ctx, s.client, "sms", s.cfg.Endpoint, []byte(form.Encode()), headers)
}

func smsText(msg notification.OutboundMessage) string {
	text := headline(msg)
	if msg.Message != "" {
		text += ": " + msg.Message
	}
	runes := []rune(text)
	if len(runes) > maxSMSLength {
		text = string(runes[:maxSMSLength-3]) + "..."
	}
	return text
}
