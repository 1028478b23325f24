package channel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

// SlackSender posts to the user's Slack incoming webhook
type SlackSender struct {
	client *http.Client
}

func NewSlackSender(client *http.Client) *SlackSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackSender{client: client}
}

func (s *SlackSender) Channel() notification.Channel {
	return notification.ChannelSlack
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	Ts     int64        `json:"ts,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (s *SlackSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if to.SlackWebhookURL == "" {
		return notification.ErrNoRecipientAddress
	}

	payload := slackPayload{
		Text: headline(msg),
		Attachments: []slackAttachment{{
			Color: priorityColor(msg.Priority),
			Title: msg.Title,
			Text:  msg.Message,
			Fields: []slackField{
				{Title: "Category", Value: string(msg.Category), Short: true},
				{Title: "Priority", Value: string(msg.Priority), Short: true},
			},
			Footer: "AI Cost Guardian",
			Ts:     msg.CreatedAt.Unix(),
		}},
	}
	for k, v := range msg.Data {
		payload.Attachments[0].Fields = append(payload.Attachments[0].Fields, slackField{
			Title: k,
			Value: fmt.Sprint(v),
			Short: true,
		})
	}

	return postJSON(ctx, s.client, "slack", to.SlackWebhookURL, payload, nil)
}
