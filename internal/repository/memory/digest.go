package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type digestEntry struct {
	item      notification.DigestItem
	claimedAt *time.Time
}

type digestRepository struct {
	mu    sync.Mutex
	items map[string]*digestEntry
}

// DigestRepository is the in-memory digest queue. Pending reports what is
// still queued, claimed or not.
type DigestRepository interface {
	notification.DigestRepository
	Pending(userID string) []notification.DigestItem
}

func NewDigestRepository() DigestRepository {
	return &digestRepository{items: make(map[string]*digestEntry)}
}

func (r *digestRepository) Enqueue(ctx context.Context, item *notification.DigestItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = &digestEntry{item: *item}
	return nil
}

func (r *digestRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*notification.DigestItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*digestEntry
	for _, e := range r.items {
		if e.item.DueAt.After(now) {
			continue
		}
		if e.claimedAt != nil && e.claimedAt.Add(lease).After(now) {
			continue
		}
		due = append(due, e)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].item.UserID != due[j].item.UserID {
			return due[i].item.UserID < due[j].item.UserID
		}
		return due[i].item.EnqueuedAt.Before(due[j].item.EnqueuedAt)
	})
	if limit > 0 {
		users := 0
		for i, e := range due {
			if i == 0 || e.item.UserID != due[i-1].item.UserID {
				users++
			}
			if users > limit {
				due = due[:i]
				break
			}
		}
	}

	out := make([]*notification.DigestItem, 0, len(due))
	for _, e := range due {
		t := now.UTC()
		e.claimedAt = &t
		item := e.item
		out = append(out, &item)
	}
	return out, nil
}

func (r *digestRepository) Complete(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.items, id)
	}
	return nil
}

func (r *digestRepository) Release(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if e, ok := r.items[id]; ok {
			e.claimedAt = nil
		}
	}
	return nil
}

func (r *digestRepository) Pending(userID string) []notification.DigestItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.DigestItem
	for _, e := range r.items {
		if e.item.UserID == userID {
			out = append(out, e.item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out
}
