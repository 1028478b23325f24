package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeTransport struct {
	mu       sync.Mutex
	failures int
	sent     []string
	calls    int
}

func (f *fakeTransport) Send(_ context.Context, msg *gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection refused")
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	// undo quoted-printable soft line breaks so assertions see whole lines
	f.sent = append(f.sent, strings.ReplaceAll(buf.String(), "=\r\n", ""))
	return nil
}

func newTestService(t *testing.T, tr Transport) *emailServiceImpl {
	t.Helper()
	svc, err := NewEmailServiceWithTransport(config.SMTPConfig{From: "alerts@example.com", FromName: "Guardian"}, tr)
	require.NoError(t, err)
	impl := svc.(*emailServiceImpl)
	impl.backoff = 0
	return impl
}

func TestSendAlert_RendersTemplate(t *testing.T) {
	tr := &fakeTransport{}
	svc := newTestService(t, tr)

	err := svc.SendAlert(context.Background(), "ops@example.com", AlertEmailData{
		Title:      "Budget exceeded",
		Message:    "Monthly spend passed $500",
		Category:   "cost",
		Priority:   "CRITICAL",
		Escalation: true,
		Details:    map[string]interface{}{"project": "chatbot"},
	})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)

	raw := tr.sent[0]
	assert.Contains(t, raw, "Subject: [Escalated] Budget exceeded")
	assert.Contains(t, raw, "ops@example.com")
	assert.Contains(t, raw, "chatbot")
}

func TestSendDigest_RendersSections(t *testing.T) {
	tr := &fakeTransport{}
	svc := newTestService(t, tr)

	err := svc.SendDigest(context.Background(), "ops@example.com", DigestEmailData{
		Frequency: "daily",
		Total:     2,
		Sections: []DigestSectionData{
			{Category: "cost", Items: []DigestItemData{{Title: "Spike on gpt-4o"}}},
			{Category: "usage", Items: []DigestItemData{{Title: "Rate limit at 80%"}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)
	assert.Contains(t, tr.sent[0], "Spike on gpt-4o")
	assert.Contains(t, tr.sent[0], "Rate limit at 80%")
}

func TestSend_RetriesThenSucceeds(t *testing.T) {
	tr := &fakeTransport{failures: 2}
	svc := newTestService(t, tr)

	err := svc.SendAlert(context.Background(), "ops@example.com", AlertEmailData{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, tr.calls)
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	tr := &fakeTransport{failures: 10}
	svc := newTestService(t, tr)

	err := svc.SendAlert(context.Background(), "ops@example.com", AlertEmailData{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, maxRetries, tr.calls)
}

func TestSend_NoTransportIsNoop(t *testing.T) {
	svc := newTestService(t, nil)
	assert.NoError(t, svc.SendAlert(context.Background(), "ops@example.com", AlertEmailData{Title: "x"}))
}
