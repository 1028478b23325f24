package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type escalationRepository struct {
	mu    sync.Mutex
	items map[string]*notification.Escalation
}

func NewEscalationRepository() notification.EscalationRepository {
	return &escalationRepository{items: make(map[string]*notification.Escalation)}
}

func cloneEscalation(e *notification.Escalation) *notification.Escalation {
	c := *e
	if e.ClaimedAt != nil {
		t := *e.ClaimedAt
		c.ClaimedAt = &t
	}
	return &c
}

func (r *escalationRepository) Get(ctx context.Context, notificationID string) (*notification.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[notificationID]
	if !ok {
		return nil, notification.ErrEscalationNotFound
	}
	return cloneEscalation(e), nil
}

func (r *escalationRepository) Arm(ctx context.Context, e *notification.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneEscalation(e)
	c.Status = notification.EscalationArmed
	c.Attempts = 0
	c.ClaimedAt = nil
	r.items[e.NotificationID] = c
	return nil
}

func (r *escalationRepository) Disarm(ctx context.Context, notificationIDs ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	n := 0
	for _, id := range notificationIDs {
		e, ok := r.items[id]
		if !ok {
			continue
		}
		if e.Status == notification.EscalationArmed || e.Status == notification.EscalationFiring {
			e.Status = notification.EscalationDisarmed
			e.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *escalationRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*notification.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*notification.Escalation
	for _, e := range r.items {
		switch {
		case e.Status == notification.EscalationArmed && !e.EscalateAt.After(now):
			due = append(due, e)
		case e.Status == notification.EscalationFiring && e.ClaimedAt != nil && !e.ClaimedAt.Add(lease).After(now):
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EscalateAt.Before(due[j].EscalateAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimedAt := now.UTC()
	out := make([]*notification.Escalation, 0, len(due))
	for _, e := range due {
		e.Status = notification.EscalationFiring
		e.Attempts++
		t := claimedAt
		e.ClaimedAt = &t
		e.UpdatedAt = claimedAt
		out = append(out, cloneEscalation(e))
	}
	return out, nil
}

func (r *escalationRepository) Complete(ctx context.Context, notificationID string, status notification.EscalationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[notificationID]
	if !ok || e.Status != notification.EscalationFiring {
		return nil
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	return nil
}
