package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

// SignatureHeader carries the HMAC of the request body when a signing secret is set
const SignatureHeader = "X-Guardian-Signature"

// TeamsSender posts MessageCards to a Teams (or generic) incoming webhook
type TeamsSender struct {
	client *http.Client
	signer *Signer
}

// NewTeamsSender creates the sender; signer may be nil
func NewTeamsSender(client *http.Client, signer *Signer) *TeamsSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &TeamsSender{client: client, signer: signer}
}

func (s *TeamsSender) Channel() notification.Channel {
	return notification.ChannelTeams
}

type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []teamsSection `json:"sections,omitempty"`
}

type teamsSection struct {
	Facts []teamsFact `json:"facts"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *TeamsSender) Send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient) error {
	if to.TeamsWebhookURL == "" {
		return notification.ErrNoRecipientAddress
	}

	facts := []teamsFact{
		{Name: "Category", Value: string(msg.Category)},
		{Name: "Priority", Value: string(msg.Priority)},
	}
	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		facts = append(facts, teamsFact{Name: k, Value: fmt.Sprint(msg.Data[k])})
	}

	card := teamsCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    headline(msg),
		ThemeColor: strings.TrimPrefix(priorityColor(msg.Priority), "#"),
		Title:      headline(msg),
		Text:       msg.Message,
		Sections:   []teamsSection{{Facts: facts}},
	}

	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to encode teams payload: %w", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if s.signer != nil {
		headers[SignatureHeader] = s.signer.Sign(body)
	}
	return post(ctx, s.client, "teams", to.TeamsWebhookURL, body, headers)
}
