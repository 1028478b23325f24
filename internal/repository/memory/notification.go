package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type notificationRepository struct {
	mu         sync.RWMutex
	items      map[string]*notification.Notification
	deliveries map[string][]notification.Delivery
}

// NotificationRepository is the in-memory notification store. Deliveries
// exposes recorded attempts for inspection.
type NotificationRepository interface {
	notification.Repository
	Deliveries(notificationID string) []notification.Delivery
}

func NewNotificationRepository() NotificationRepository {
	return &notificationRepository{
		items:      make(map[string]*notification.Notification),
		deliveries: make(map[string][]notification.Delivery),
	}
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	c := *n
	c.Channels = append([]notification.Channel(nil), n.Channels...)
	if n.Data != nil {
		c.Data = make(map[string]interface{}, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	return &c
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.ID] = cloneNotification(n)
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, notification.ErrNotificationNotFound
	}
	return cloneNotification(n), nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*notification.Notification
	for _, n := range r.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*notification.Notification{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := make([]*notification.Notification, 0, end-start)
	for _, n := range matched[start:end] {
		out = append(out, cloneNotification(n))
	}
	return out, total, nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotificationNotFound
	}
	delete(r.items, id)
	delete(r.deliveries, id)
	return nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	changed := []string{}
	for _, id := range ids {
		n, ok := r.items[id]
		if !ok || n.UserID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		changed = append(changed, id)
	}
	return changed, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	changed := []string{}
	for id, n := range r.items {
		if n.UserID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		changed = append(changed, id)
	}
	sort.Strings(changed)
	return changed, nil
}

func (r *notificationRepository) MarkEscalated(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return notification.ErrNotificationNotFound
	}
	at = at.UTC()
	n.EscalatedAt = &at
	return nil
}

func (r *notificationRepository) RecordDeliveries(ctx context.Context, deliveries []*notification.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range deliveries {
		r.deliveries[d.NotificationID] = append(r.deliveries[d.NotificationID], *d)
	}
	return nil
}

func (r *notificationRepository) Deliveries(notificationID string) []notification.Delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]notification.Delivery(nil), r.deliveries[notificationID]...)
}
