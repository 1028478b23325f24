package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type preferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]notification.NotificationPreferences
}

func NewPreferenceRepository() notification.PreferenceRepository {
	return &preferenceRepository{prefs: make(map[string]notification.NotificationPreferences)}
}

func clonePreferences(p notification.NotificationPreferences) *notification.NotificationPreferences {
	if p.CategoryChannels != nil {
		cc := make(map[notification.Category][]notification.Channel, len(p.CategoryChannels))
		for c, chs := range p.CategoryChannels {
			cc[c] = append([]notification.Channel(nil), chs...)
		}
		p.CategoryChannels = cc
	}
	return &p
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*notification.NotificationPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prefs[userID]
	if !ok {
		return nil, notification.ErrPreferenceNotFound
	}
	return clonePreferences(p), nil
}

// Upsert applies the patch under the write lock, so concurrent patches to
// different fields both survive.
func (r *preferenceRepository) Upsert(ctx context.Context, userID string, patch notification.PreferencesPatch) (*notification.NotificationPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, ok := r.prefs[userID]
	if !ok {
		base = notification.DefaultPreferences(userID)
	}
	merged := patch.Apply(base)
	merged.UserID = userID
	merged.UpdatedAt = time.Now().UTC()
	r.prefs[userID] = *clonePreferences(merged)
	return clonePreferences(merged), nil
}

func (r *preferenceRepository) Replace(ctx context.Context, prefs *notification.NotificationPreferences) (*notification.NotificationPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *clonePreferences(*prefs)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	r.prefs[p.UserID] = p
	return clonePreferences(p), nil
}
