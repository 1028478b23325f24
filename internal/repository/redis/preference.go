package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	goredis "github.com/redis/go-redis/v9"
)

const preferenceNamespace = "notification:prefs"

type cachedPreferenceRepository struct {
	next   notification.PreferenceRepository
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewCachedPreferenceRepository puts a read-through cache in front of next.
// Writes go to next and store the result in the cache. Read fills only set
// the key when it is absent so a fill racing a write cannot overwrite the
// newer record. Redis failures are logged and the call falls through to next.
func NewCachedPreferenceRepository(next notification.PreferenceRepository, client goredis.UniversalClient, ttl time.Duration) notification.PreferenceRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cachedPreferenceRepository{next: next, client: client, ttl: ttl}
}

func preferenceKey(userID string) string {
	return preferenceNamespace + ":" + userID
}

func (r *cachedPreferenceRepository) Get(ctx context.Context, userID string) (*notification.NotificationPreferences, error) {
	raw, err := r.client.Get(ctx, preferenceKey(userID)).Bytes()
	switch {
	case err == nil:
		var prefs notification.NotificationPreferences
		if err := json.Unmarshal(raw, &prefs); err == nil {
			return &prefs, nil
		}
		slog.Warn("Discarding unreadable cached preferences", "user_id", userID)
	case !errors.Is(err, goredis.Nil):
		slog.Warn("Preference cache read failed", "user_id", userID, "error", err)
	}

	prefs, err := r.next.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(prefs); err == nil {
		if err := r.client.SetNX(ctx, preferenceKey(userID), raw, r.ttl).Err(); err != nil {
			slog.Warn("Preference cache write failed", "user_id", userID, "error", err)
		}
	}
	return prefs, nil
}

func (r *cachedPreferenceRepository) Upsert(ctx context.Context, userID string, patch notification.PreferencesPatch) (*notification.NotificationPreferences, error) {
	prefs, err := r.next.Upsert(ctx, userID, patch)
	r.refresh(ctx, userID, prefs, err)
	return prefs, err
}

func (r *cachedPreferenceRepository) Replace(ctx context.Context, prefs *notification.NotificationPreferences) (*notification.NotificationPreferences, error) {
	out, err := r.next.Replace(ctx, prefs)
	r.refresh(ctx, prefs.UserID, out, err)
	return out, err
}

// refresh stores the written record, or drops the entry when the write failed
// and the stored state is unknown
func (r *cachedPreferenceRepository) refresh(ctx context.Context, userID string, prefs *notification.NotificationPreferences, writeErr error) {
	key := preferenceKey(userID)
	if writeErr == nil && prefs != nil {
		raw, err := json.Marshal(prefs)
		if err == nil {
			if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err == nil {
				return
			}
		}
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("Preference cache invalidation failed", "user_id", userID, "error", err)
	}
}
