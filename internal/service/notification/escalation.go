package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/metrics"
)

// escalationTimer persists arm/disarm state so pending escalations survive a
// restart. Firing is driven by the sweep in ProcessEscalations.
type escalationTimer struct {
	repo notification.EscalationRepository
	now  func() time.Time
}

// NewEscalationTimer creates a timer backed by repo
func NewEscalationTimer(repo notification.EscalationRepository, now func() time.Time) notification.EscalationTimer {
	if now == nil {
		now = time.Now
	}
	return &escalationTimer{repo: repo, now: now}
}

// Arm replaces any previous schedule for notificationID
func (t *escalationTimer) Arm(ctx context.Context, notificationID, userID string, escalateAt time.Time) error {
	err := t.repo.Arm(ctx, &notification.Escalation{
		NotificationID: notificationID,
		UserID:         userID,
		EscalateAt:     escalateAt.UTC(),
		Status:         notification.EscalationArmed,
		UpdatedAt:      t.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to arm escalation: %w", err)
	}
	metrics.EscalationsTotal.WithLabelValues(metrics.EscalationArmed).Inc()
	return nil
}

// Disarm cancels pending escalations. Ids that are not armed are ignored.
func (t *escalationTimer) Disarm(ctx context.Context, notificationIDs ...string) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	n, err := t.repo.Disarm(ctx, notificationIDs...)
	if err != nil {
		return fmt.Errorf("failed to disarm escalation: %w", err)
	}
	if n > 0 {
		metrics.EscalationsTotal.WithLabelValues(metrics.EscalationDisarmed).Add(float64(n))
	}
	return nil
}
