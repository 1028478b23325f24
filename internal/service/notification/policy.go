package notification

import (
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

const minutesPerDay = 24 * 60

// Evaluate decides which channels deliver candidate right now. It is pure: the
// same candidate, preferences and clock always give the same decision, and it
// never fails. Malformed preference fields fall back to their defaults.
//
// Order matters: category gate, channel gate, critical bypass, quiet hours,
// email batching, then escalation.
func Evaluate(candidate notification.Candidate, prefs notification.NotificationPreferences, now time.Time) notification.DeliveryDecision {
	p := prefs.Normalize()
	category := candidate.Type.Category()

	decision := notification.DeliveryDecision{
		Category: category,
		Channels: notification.NewChannelSet(),
	}

	if !p.CategoryEnabled(category) {
		decision.SuppressedReason = notification.SuppressedCategoryDisabled
		return decision
	}

	for _, ch := range notification.AllChannels() {
		if p.ChannelEnabled(ch) && p.ChannelAllowedFor(category, ch) {
			decision.Channels.Add(ch)
		}
	}
	hadChannels := decision.Channels.Len() > 0
	quietStripped := false

	if candidate.Priority != notification.PriorityCritical {
		if p.QuietHoursEnabled && InQuietHours(p, now) {
			for _, ch := range decision.Channels.Slice() {
				if ch.Intrusive() {
					decision.Channels.Remove(ch)
					quietStripped = true
				}
			}
		}

		if decision.Channels.Has(notification.ChannelEmail) && p.BatchEmails && p.BatchFrequency != notification.BatchImmediate {
			decision.Channels.Remove(notification.ChannelEmail)
			decision.Batched = true
			decision.BatchFrequency = p.BatchFrequency
		}
	}

	if decision.Channels.Len() == 0 && !decision.Batched {
		if hadChannels && quietStripped {
			decision.SuppressedReason = notification.SuppressedQuietHours
		} else {
			decision.SuppressedReason = notification.SuppressedNoChannels
		}
	}

	if candidate.Priority.Escalates() && p.AutoEscalate {
		at := now.Add(time.Duration(p.EscalateAfterMinutes) * time.Minute)
		decision.EscalateAt = &at
	}

	return decision
}

// InQuietHours reports whether now falls inside the user's quiet window, in
// the user's timezone. Weekends are entirely quiet when WeekendQuiet is set.
// It does not look at QuietHoursEnabled.
func InQuietHours(prefs notification.NotificationPreferences, now time.Time) bool {
	p := prefs.Normalize()
	local := now.In(p.Location())

	if p.WeekendQuiet {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return true
		}
	}

	start, err := notification.ParseClock(p.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := notification.ParseClock(p.QuietHoursEnd)
	if err != nil {
		return false
	}
	return inCircularWindow(start, end, local.Hour()*60+local.Minute())
}

// inCircularWindow checks minute against the half-open window [start, end)
// on a 24h circle. start == end is an empty window.
func inCircularWindow(start, end, minute int) bool {
	length := mod(end-start, minutesPerDay)
	offset := mod(minute-start, minutesPerDay)
	return offset < length
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
