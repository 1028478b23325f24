package notification

import (
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

// NextDigestDue returns when the digest window that now falls into closes.
// Windows are computed on the user's wall clock: hourly closes at the next
// top of the hour, daily at the next digestHour, weekly at the next Monday
// digestHour.
func NextDigestDue(freq notification.BatchFrequency, loc *time.Location, digestHour int, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()

	var due time.Time
	switch freq {
	case notification.BatchHourly:
		due = time.Date(y, m, d, local.Hour(), 0, 0, 0, loc).Add(time.Hour)
	case notification.BatchDaily:
		due = time.Date(y, m, d, digestHour, 0, 0, 0, loc)
		if !due.After(local) {
			due = time.Date(y, m, d+1, digestHour, 0, 0, 0, loc)
		}
	case notification.BatchWeekly:
		days := (int(time.Monday) - int(local.Weekday()) + 7) % 7
		due = time.Date(y, m, d+days, digestHour, 0, 0, 0, loc)
		if !due.After(local) {
			due = time.Date(y, m, d+days+7, digestHour, 0, 0, 0, loc)
		}
	default:
		due = local
	}
	return due.UTC()
}

// groupDigests builds one digest per user with a section per category.
// Users keep the order in which their first item appears; sections follow
// AllCategories order; items keep their input order.
func groupDigests(items []*notification.DigestItem) []notification.Digest {
	type bucket struct {
		digest     notification.Digest
		byCategory map[notification.Category][]notification.DigestItem
	}

	order := make([]string, 0)
	buckets := make(map[string]*bucket)
	for _, item := range items {
		b, ok := buckets[item.UserID]
		if !ok {
			b = &bucket{
				digest:     notification.Digest{UserID: item.UserID},
				byCategory: make(map[notification.Category][]notification.DigestItem),
			}
			buckets[item.UserID] = b
			order = append(order, item.UserID)
		}
		// the latest item wins when the user changed frequency mid-window
		b.digest.Frequency = item.Frequency
		b.byCategory[item.Category] = append(b.byCategory[item.Category], *item)
	}

	digests := make([]notification.Digest, 0, len(order))
	for _, userID := range order {
		b := buckets[userID]
		for _, c := range notification.AllCategories() {
			if its := b.byCategory[c]; len(its) > 0 {
				b.digest.Sections = append(b.digest.Sections, notification.DigestSection{Category: c, Items: its})
			}
		}
		digests = append(digests, b.digest)
	}
	return digests
}

func digestItemIDs(d notification.Digest) []string {
	var ids []string
	for _, s := range d.Sections {
		for _, it := range s.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
